// Package posmock provides testify mocks of the POS ports
package posmock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/posterdash/backend/internal/domain/pos"
	"github.com/stretchr/testify/mock"
)

// Gateway is a mock pos.Gateway
type Gateway struct {
	mock.Mock
}

func (m *Gateway) GetClosedOrderTotals(ctx context.Context, date time.Time) (*pos.ClosedOrderTotals, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pos.ClosedOrderTotals), args.Error(1)
}

func (m *Gateway) CreateTransaction(ctx context.Context, txn pos.NewTransaction) (string, error) {
	args := m.Called(ctx, txn)
	return args.String(0), args.Error(1)
}

func (m *Gateway) ListTransactions(ctx context.Context, date time.Time) ([]pos.Transaction, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]pos.Transaction), args.Error(1)
}

func (m *Gateway) Accounts(ctx context.Context) ([]pos.FinanceAccount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]pos.FinanceAccount), args.Error(1)
}

func (m *Gateway) Categories(ctx context.Context) ([]pos.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]pos.Category), args.Error(1)
}

// GatewayFactory hands out gateways registered per POS account id
type GatewayFactory struct {
	mock.Mock
}

func (m *GatewayFactory) ForAccount(account *pos.Account) (pos.Gateway, error) {
	args := m.Called(account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pos.Gateway), args.Error(1)
}

// AccountRepository is a mock pos.AccountRepository
type AccountRepository struct {
	mock.Mock
}

func (m *AccountRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*pos.Account, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pos.Account), args.Error(1)
}

func (m *AccountRepository) FindPrimary(ctx context.Context, orgID uuid.UUID) (*pos.Account, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pos.Account), args.Error(1)
}

func (m *AccountRepository) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]pos.Account, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]pos.Account), args.Error(1)
}

func (m *AccountRepository) ListAll(ctx context.Context) ([]pos.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]pos.Account), args.Error(1)
}

func (m *AccountRepository) Save(ctx context.Context, account *pos.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

var (
	_ pos.Gateway           = (*Gateway)(nil)
	_ pos.GatewayFactory    = (*GatewayFactory)(nil)
	_ pos.AccountRepository = (*AccountRepository)(nil)
)
