package pos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/posterdash/backend/internal/domain/pos"
	"github.com/posterdash/backend/internal/domain/pos/posmock"
	"github.com/posterdash/backend/internal/domain/shared"
	"github.com/posterdash/backend/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAccountService_Create(t *testing.T) {
	repo := new(posmock.AccountRepository)
	svc := NewAccountService(repo, new(posmock.GatewayFactory), cache.NewMemoryReferenceCache(time.Minute), zap.NewNop())
	orgID := uuid.New()
	ctx := context.Background()

	repo.On("ListByOrg", mock.Anything, orgID).Return([]pos.Account{}, nil).Once()
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)

	first, err := svc.Create(ctx, orgID, AccountInput{Name: "Main", BaseURL: "https://main.joinposter.com/", Token: "t1"})
	require.NoError(t, err)
	assert.True(t, first.IsPrimary, "first connection becomes primary")
	assert.Equal(t, "https://main.joinposter.com", first.BaseURL)

	repo.On("ListByOrg", mock.Anything, orgID).Return([]pos.Account{*first}, nil)
	cafe, err := svc.Create(ctx, orgID, AccountInput{Name: "Cafe", BaseURL: "https://cafe.joinposter.com", Token: "t2", IsCafe: true})
	require.NoError(t, err)
	assert.False(t, cafe.IsPrimary)
	assert.True(t, cafe.IsCafe)
	assert.Equal(t, int64(7), cafe.AccountMapping().Wolt)

	_, err = svc.Create(ctx, orgID, AccountInput{Name: "No token", BaseURL: "https://x.joinposter.com"})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestAccountService_Update(t *testing.T) {
	repo := new(posmock.AccountRepository)
	refCache := cache.NewMemoryReferenceCache(time.Minute)
	svc := NewAccountService(repo, new(posmock.GatewayFactory), refCache, zap.NewNop())
	orgID := uuid.New()
	ctx := context.Background()

	account, err := pos.NewAccount(orgID, "Main", "https://main.joinposter.com", "old-token")
	require.NoError(t, err)
	account.IsPrimary = true
	repo.On("FindByID", mock.Anything, orgID, account.ID).Return(account, nil)
	repo.On("Save", mock.Anything, account).Return(nil)

	require.NoError(t, refCache.Set(ctx, account.ID, pos.ReferenceAccounts, []pos.FinanceAccount{{ID: 1, Name: "Kaspi"}}))

	updated, err := svc.Update(ctx, orgID, account.ID, AccountInput{Name: "Main hall", BaseURL: "https://main.joinposter.com", IsPrimary: true, PosUserID: 3})
	require.NoError(t, err)
	assert.Equal(t, "Main hall", updated.Name)
	assert.Equal(t, "old-token", updated.Token)
	assert.Equal(t, int64(3), updated.PosUserID)

	var cached []pos.FinanceAccount
	hit, err := refCache.Get(ctx, account.ID, pos.ReferenceAccounts, &cached)
	require.NoError(t, err)
	assert.False(t, hit, "update drops cached reference data")

	_, err = svc.Update(ctx, orgID, account.ID, AccountInput{Name: "Main hall", BaseURL: "https://main.joinposter.com"})
	assert.ErrorIs(t, err, shared.ErrValidation)

	missing := uuid.New()
	repo.On("FindByID", mock.Anything, orgID, missing).Return(nil, shared.ErrNotFound)
	_, err = svc.Update(ctx, orgID, missing, AccountInput{Name: "x", BaseURL: "https://x"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestAccountService_Verify(t *testing.T) {
	repo := new(posmock.AccountRepository)
	factory := new(posmock.GatewayFactory)
	gw := new(posmock.Gateway)
	svc := NewAccountService(repo, factory, cache.NewMemoryReferenceCache(time.Minute), zap.NewNop())
	orgID := uuid.New()

	account, err := pos.NewAccount(orgID, "Main", "https://main.joinposter.com", "token")
	require.NoError(t, err)
	repo.On("FindByID", mock.Anything, orgID, account.ID).Return(account, nil)
	factory.On("ForAccount", account).Return(gw, nil)
	gw.On("Accounts", mock.Anything).Return([]pos.FinanceAccount{{ID: 1, Name: "Kaspi Pay"}}, nil)

	got, err := svc.Verify(context.Background(), orgID, account.ID)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
