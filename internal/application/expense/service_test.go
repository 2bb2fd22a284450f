package expense

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/posterdash/backend/internal/domain/expense"
	"github.com/posterdash/backend/internal/domain/pos"
	"github.com/posterdash/backend/internal/domain/pos/posmock"
	"github.com/posterdash/backend/internal/domain/settlement"
	"github.com/posterdash/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockDraftRepository struct {
	mock.Mock
}

func (m *MockDraftRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*expense.Draft, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*expense.Draft), args.Error(1)
}

func (m *MockDraftRepository) FindByIDs(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) ([]expense.Draft, error) {
	args := m.Called(ctx, orgID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]expense.Draft), args.Error(1)
}

func (m *MockDraftRepository) ListByDay(ctx context.Context, orgID uuid.UUID, date time.Time, includeArchived bool) ([]expense.Draft, error) {
	args := m.Called(ctx, orgID, date, includeArchived)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]expense.Draft), args.Error(1)
}

func (m *MockDraftRepository) Save(ctx context.Context, d *expense.Draft) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDraftRepository) ArchiveMany(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID, at time.Time) (int64, error) {
	args := m.Called(ctx, orgID, ids, at)
	return args.Get(0).(int64), args.Error(1)
}

var (
	syncNow  = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	syncDate = time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
)

func posAccount(t *testing.T, orgID uuid.UUID, name string, primary bool) pos.Account {
	t.Helper()
	a, err := pos.NewAccount(orgID, name, "https://x.joinposter.com", "token")
	require.NoError(t, err)
	a.IsPrimary = primary
	a.PosUserID = 7
	return *a
}

func syncedDraft(orgID uuid.UUID, compositeID string, posAmount, amount int64, description string) expense.Draft {
	pa := decimal.NewFromInt(posAmount)
	d := expense.NewSyncedDraft(orgID, syncDate, uuid.New(), expense.Observation{
		CompositeID: compositeID,
		Amount:      pa,
		Description: description,
		Source:      settlement.SourceCash,
	})
	d.Amount = decimal.NewFromInt(amount)
	return *d
}

func ledger() []pos.FinanceAccount {
	return []pos.FinanceAccount{
		{ID: 1, Name: "Денежный ящик"},
		{ID: 3, Name: "Kaspi Pay"},
		{ID: 4, Name: "Оставил в кассе (на закупы)"},
	}
}

func newSyncService(drafts *MockDraftRepository, accounts *posmock.AccountRepository, factory *posmock.GatewayFactory) *SyncService {
	svc := NewSyncService(drafts, accounts, factory, SyncConfig{Location: time.UTC, CutoverHour: 6}, zap.NewNop())
	svc.now = func() time.Time { return syncNow }
	return svc
}

func TestSyncExpensesFromPos(t *testing.T) {
	drafts := new(MockDraftRepository)
	accounts := new(posmock.AccountRepository)
	factory := new(posmock.GatewayFactory)
	gw := new(posmock.Gateway)
	orgID := uuid.New()

	follows := syncedDraft(orgID, "4_100", 5000, 5000, "Молоко")
	edited := syncedDraft(orgID, "4_101", 3000, 2500, "Сахар")
	same := syncedDraft(orgID, "4_102", 3000, 3000, "Хлеб")
	orphan := syncedDraft(orgID, "4_199", 1000, 1000, "Отменено")
	supply := syncedDraft(orgID, "supply_5", 9000, 9000, "Поставка")
	manual, err := expense.NewManualDraft(orgID, syncDate, decimal.NewFromInt(700), "Салфетки", settlement.SourceCash)
	require.NoError(t, err)

	accounts.On("ListByOrg", mock.Anything, orgID).Return([]pos.Account{posAccount(t, orgID, "Main", true)}, nil)
	drafts.On("ListByDay", mock.Anything, orgID, syncDate, true).
		Return([]expense.Draft{follows, edited, same, orphan, supply, *manual}, nil)
	factory.On("ForAccount", mock.Anything).Return(gw, nil)
	gw.On("ListTransactions", mock.Anything, syncDate).Return([]pos.Transaction{
		{ID: "100", Type: pos.TransactionExpense, AccountFromID: "4", AmountFrom: -600000, Comment: "Молоко"},
		{ID: "101", Type: pos.TransactionExpense, AccountFromID: "4", AmountFrom: -350000, Comment: "Сахар"},
		{ID: "102", Type: pos.TransactionExpense, AccountFromID: "4", AmountFrom: -300000, Comment: "Хлеб"},
		{ID: "103", Type: pos.TransactionExpense, AccountFromID: "3", AmountFrom: -120000, CategoryName: "Коммуналка"},
		{ID: "104", Type: pos.TransactionTransfer, AccountFromID: "1", AmountFrom: -5000000},
		{ID: "105", Type: pos.TransactionExpense, AccountFromID: "4", AmountFrom: -800000, Comment: "Поставка #12"},
	}, nil)
	gw.On("Accounts", mock.Anything).Return(ledger(), nil)

	var saved []*expense.Draft
	drafts.On("Save", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = append(saved, args.Get(1).(*expense.Draft))
	}).Return(nil)
	drafts.On("ArchiveMany", mock.Anything, orgID, []uuid.UUID{orphan.ID}, syncNow).Return(int64(1), nil)

	report, err := newSyncService(drafts, accounts, factory).SyncExpensesFromPos(context.Background(), orgID)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 2, report.Updated)
	assert.Equal(t, 1, report.Unchanged)
	assert.Equal(t, 1, report.Deleted)
	assert.Empty(t, report.Errors)

	require.Len(t, saved, 3)
	byTxn := make(map[string]*expense.Draft)
	for _, d := range saved {
		byTxn[d.PosTransactionID] = d
	}

	assert.True(t, byTxn["4_100"].Amount.Equal(decimal.NewFromInt(6000)), "untouched amount follows the POS")
	assert.True(t, byTxn["4_101"].Amount.Equal(decimal.NewFromInt(2500)), "user edit is kept")
	assert.True(t, byTxn["4_101"].PosAmount.Equal(decimal.NewFromInt(3500)))

	created := byTxn["3_103"]
	require.NotNil(t, created)
	assert.Equal(t, "Коммуналка", created.Description)
	assert.Equal(t, settlement.SourceKaspi, created.Source)
	assert.Equal(t, expense.CompletionCompleted, created.Completion)
	assert.Equal(t, expense.StatusPending, created.Status)
	assert.True(t, created.Amount.Equal(decimal.NewFromInt(1200)))

	drafts.AssertExpectations(t)
}

func TestSyncExpensesFromPos_MatchesBareTransactionID(t *testing.T) {
	drafts := new(MockDraftRepository)
	accounts := new(posmock.AccountRepository)
	factory := new(posmock.GatewayFactory)
	gw := new(posmock.Gateway)
	orgID := uuid.New()

	legacy := syncedDraft(orgID, "100", 5000, 5000, "Молоко")
	accounts.On("ListByOrg", mock.Anything, orgID).Return([]pos.Account{posAccount(t, orgID, "Main", true)}, nil)
	drafts.On("ListByDay", mock.Anything, orgID, syncDate, true).Return([]expense.Draft{legacy}, nil)
	factory.On("ForAccount", mock.Anything).Return(gw, nil)
	gw.On("ListTransactions", mock.Anything, syncDate).Return([]pos.Transaction{
		{ID: "100", Type: pos.TransactionExpense, AccountFromID: "4", AmountFrom: -500000, Comment: "Молоко"},
	}, nil)
	gw.On("Accounts", mock.Anything).Return(ledger(), nil)

	report, err := newSyncService(drafts, accounts, factory).SyncExpensesFromPos(context.Background(), orgID)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Created)
	assert.Equal(t, 1, report.Unchanged)
	drafts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	drafts.AssertNotCalled(t, "ArchiveMany", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSyncExpensesFromPos_SupplyPostingKeepsDraft(t *testing.T) {
	drafts := new(MockDraftRepository)
	accounts := new(posmock.AccountRepository)
	factory := new(posmock.GatewayFactory)
	gw := new(posmock.Gateway)
	orgID := uuid.New()

	pending := syncedDraft(orgID, "4_105", 8000, 8000, "Поставка #12")
	accounts.On("ListByOrg", mock.Anything, orgID).Return([]pos.Account{posAccount(t, orgID, "Main", true)}, nil)
	drafts.On("ListByDay", mock.Anything, orgID, syncDate, true).Return([]expense.Draft{pending}, nil)
	factory.On("ForAccount", mock.Anything).Return(gw, nil)
	gw.On("ListTransactions", mock.Anything, syncDate).Return([]pos.Transaction{
		{ID: "105", Type: pos.TransactionExpense, AccountFromID: "4", AmountFrom: -800000, Comment: "Поставка #12"},
	}, nil)
	gw.On("Accounts", mock.Anything).Return(ledger(), nil)

	report, err := newSyncService(drafts, accounts, factory).SyncExpensesFromPos(context.Background(), orgID)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Created)
	assert.Equal(t, 0, report.Deleted)
	assert.Empty(t, report.Errors)
	drafts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	drafts.AssertNotCalled(t, "ArchiveMany", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSyncExpensesFromPos_ConcurrentCreateCountsUnchanged(t *testing.T) {
	drafts := new(MockDraftRepository)
	accounts := new(posmock.AccountRepository)
	factory := new(posmock.GatewayFactory)
	gw := new(posmock.Gateway)
	orgID := uuid.New()

	accounts.On("ListByOrg", mock.Anything, orgID).Return([]pos.Account{posAccount(t, orgID, "Main", true)}, nil)
	drafts.On("ListByDay", mock.Anything, orgID, syncDate, true).Return([]expense.Draft{}, nil)
	factory.On("ForAccount", mock.Anything).Return(gw, nil)
	gw.On("ListTransactions", mock.Anything, syncDate).Return([]pos.Transaction{
		{ID: "100", Type: pos.TransactionExpense, AccountFromID: "4", AmountFrom: -500000, Comment: "Молоко"},
	}, nil)
	gw.On("Accounts", mock.Anything).Return(ledger(), nil)
	drafts.On("Save", mock.Anything, mock.Anything).
		Return(shared.NewConflictError("draft for POS transaction 4_100 already exists")).Once()

	report, err := newSyncService(drafts, accounts, factory).SyncExpensesFromPos(context.Background(), orgID)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Created)
	assert.Equal(t, 1, report.Unchanged)
	assert.Empty(t, report.Errors)
}

func TestSyncExpensesFromPos_PartialFetchSkipsOrphanPass(t *testing.T) {
	drafts := new(MockDraftRepository)
	accounts := new(posmock.AccountRepository)
	factory := new(posmock.GatewayFactory)
	okGw := new(posmock.Gateway)
	brokenGw := new(posmock.Gateway)
	orgID := uuid.New()

	orphan := syncedDraft(orgID, "4_199", 1000, 1000, "Кафе")
	accounts.On("ListByOrg", mock.Anything, orgID).Return([]pos.Account{
		posAccount(t, orgID, "Main", true),
		posAccount(t, orgID, "Cafe", false),
	}, nil)
	drafts.On("ListByDay", mock.Anything, orgID, syncDate, true).Return([]expense.Draft{orphan}, nil)
	factory.On("ForAccount", mock.MatchedBy(func(a *pos.Account) bool { return a.Name == "Main" })).Return(okGw, nil)
	factory.On("ForAccount", mock.MatchedBy(func(a *pos.Account) bool { return a.Name == "Cafe" })).Return(brokenGw, nil)
	okGw.On("ListTransactions", mock.Anything, syncDate).Return([]pos.Transaction{}, nil)
	okGw.On("Accounts", mock.Anything).Return(ledger(), nil)
	brokenGw.On("ListTransactions", mock.Anything, syncDate).Return(nil, shared.NewGatewayError("list transactions", errors.New("timeout")))

	report, err := newSyncService(drafts, accounts, factory).SyncExpensesFromPos(context.Background(), orgID)
	require.NoError(t, err)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "Cafe")
	assert.Equal(t, 0, report.Deleted)
	drafts.AssertNotCalled(t, "ArchiveMany", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSyncExpensesFromPos_NoAccounts(t *testing.T) {
	accounts := new(posmock.AccountRepository)
	orgID := uuid.New()
	accounts.On("ListByOrg", mock.Anything, orgID).Return([]pos.Account{}, nil)

	_, err := newSyncService(new(MockDraftRepository), accounts, new(posmock.GatewayFactory)).SyncExpensesFromPos(context.Background(), orgID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSyncAll(t *testing.T) {
	drafts := new(MockDraftRepository)
	accounts := new(posmock.AccountRepository)
	factory := new(posmock.GatewayFactory)
	gw := new(posmock.Gateway)
	orgA, orgB := uuid.New(), uuid.New()

	a1 := posAccount(t, orgA, "Main", true)
	a2 := posAccount(t, orgA, "Cafe", false)
	b1 := posAccount(t, orgB, "Main", true)
	accounts.On("ListAll", mock.Anything).Return([]pos.Account{a1, a2, b1}, nil)
	accounts.On("ListByOrg", mock.Anything, orgA).Return([]pos.Account{a1, a2}, nil)
	accounts.On("ListByOrg", mock.Anything, orgB).Return(nil, errors.New("db down"))
	drafts.On("ListByDay", mock.Anything, orgA, syncDate, true).Return([]expense.Draft{}, nil)
	factory.On("ForAccount", mock.Anything).Return(gw, nil)
	gw.On("ListTransactions", mock.Anything, syncDate).Return([]pos.Transaction{}, nil)
	gw.On("Accounts", mock.Anything).Return(ledger(), nil)

	results, err := newSyncService(drafts, accounts, factory).SyncAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, orgA, results[0].OrgID)
	require.NotNil(t, results[0].Report)
	assert.Empty(t, results[0].Error)

	assert.Equal(t, orgB, results[1].OrgID)
	assert.Nil(t, results[1].Report)
	assert.Equal(t, "db down", results[1].Error)
}

func TestDraftService_Process(t *testing.T) {
	drafts := new(MockDraftRepository)
	accounts := new(posmock.AccountRepository)
	factory := new(posmock.GatewayFactory)
	gw := new(posmock.Gateway)
	orgID := uuid.New()
	processedAt := time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC)

	rent, err := expense.NewManualDraft(orgID, syncDate, decimal.NewFromInt(20000), "Аренда за март", settlement.SourceCash)
	require.NoError(t, err)
	rent.Category = "аренда"

	refund, err := expense.NewManualDraft(orgID, syncDate, decimal.NewFromInt(1500), "Возврат", settlement.SourceKaspi)
	require.NoError(t, err)
	refund.IsIncome = true

	done := syncedDraft(orgID, "4_100", 5000, 5000, "Молоко")

	ids := []uuid.UUID{rent.ID, refund.ID, done.ID}
	main := posAccount(t, orgID, "Main", true)
	drafts.On("FindByIDs", mock.Anything, orgID, ids).Return([]expense.Draft{*rent, *refund, done}, nil)
	accounts.On("ListByOrg", mock.Anything, orgID).Return([]pos.Account{main}, nil)
	factory.On("ForAccount", mock.Anything).Return(gw, nil)
	gw.On("Accounts", mock.Anything).Return(ledger(), nil)
	gw.On("Categories", mock.Anything).Return([]pos.Category{{ID: 21, Name: "Аренда"}}, nil)
	gw.On("CreateTransaction", mock.Anything, mock.MatchedBy(func(txn pos.NewTransaction) bool {
		return txn.Comment == "Аренда за март"
	})).Return("900", nil)
	gw.On("CreateTransaction", mock.Anything, mock.MatchedBy(func(txn pos.NewTransaction) bool {
		return txn.Comment == "Возврат"
	})).Return("", shared.NewGatewayError("create transaction", errors.New("rejected")))

	var saved *expense.Draft
	drafts.On("Save", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*expense.Draft)
	}).Return(nil).Once()

	svc := NewDraftService(drafts, accounts, factory, zap.NewNop())
	svc.now = func() time.Time { return processedAt }

	report, err := svc.Process(context.Background(), orgID, ids)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Created)
	require.Len(t, report.Items, 3)
	assert.True(t, report.Items[0].Success)
	assert.Equal(t, "4_900", report.Items[0].TransactionID)
	assert.False(t, report.Items[1].Success)
	assert.NotEmpty(t, report.Items[1].Error)
	assert.True(t, report.Items[2].Skipped)
	require.Len(t, report.Errors, 1)

	require.NotNil(t, saved)
	assert.Equal(t, rent.ID, saved.ID)
	assert.Equal(t, expense.CompletionCompleted, saved.Completion)
	assert.Equal(t, "4_900", saved.PosTransactionID)
	assert.Equal(t, processedAt, *saved.ProcessedAt)

	gw.AssertCalled(t, "CreateTransaction", mock.Anything, mock.MatchedBy(func(txn pos.NewTransaction) bool {
		return txn.Comment == "Аренда за март" &&
			txn.Type == pos.TransactionExpense &&
			txn.AccountID == 4 &&
			txn.CategoryID == 21 &&
			txn.UserID == 7
	}))
	gw.AssertCalled(t, "CreateTransaction", mock.Anything, mock.MatchedBy(func(txn pos.NewTransaction) bool {
		return txn.Comment == "Возврат" && txn.Type == pos.TransactionIncome && txn.AccountID == 3
	}))
}

func TestDraftService_ProcessReportsPostedDraftWhenSaveFails(t *testing.T) {
	drafts := new(MockDraftRepository)
	accounts := new(posmock.AccountRepository)
	factory := new(posmock.GatewayFactory)
	gw := new(posmock.Gateway)
	orgID := uuid.New()

	rent, err := expense.NewManualDraft(orgID, syncDate, decimal.NewFromInt(20000), "Аренда за март", settlement.SourceCash)
	require.NoError(t, err)
	ids := []uuid.UUID{rent.ID}

	drafts.On("FindByIDs", mock.Anything, orgID, ids).Return([]expense.Draft{*rent}, nil)
	accounts.On("ListByOrg", mock.Anything, orgID).Return([]pos.Account{posAccount(t, orgID, "Main", true)}, nil)
	factory.On("ForAccount", mock.Anything).Return(gw, nil)
	gw.On("Accounts", mock.Anything).Return(ledger(), nil)
	gw.On("Categories", mock.Anything).Return([]pos.Category{}, nil).Maybe()
	gw.On("CreateTransaction", mock.Anything, mock.Anything).Return("55", nil).Once()
	drafts.On("Save", mock.Anything, mock.Anything).Return(errors.New("connection reset")).Once()

	report, err := NewDraftService(drafts, accounts, factory, zap.NewNop()).Process(context.Background(), orgID, ids)
	require.NoError(t, err)

	require.Len(t, report.Items, 1)
	item := report.Items[0]
	assert.True(t, item.Success)
	assert.Equal(t, "4_55", item.TransactionID)
	assert.Contains(t, item.Error, "saved to POS, local update failed")
	assert.Contains(t, item.Error, "connection reset")
	assert.Equal(t, 1, report.Created)
	require.Len(t, report.Errors, 1)
	gw.AssertNumberOfCalls(t, "CreateTransaction", 1)
}

func TestDraftService_ProcessRequiresDrafts(t *testing.T) {
	svc := NewDraftService(new(MockDraftRepository), new(posmock.AccountRepository), new(posmock.GatewayFactory), zap.NewNop())
	_, err := svc.Process(context.Background(), uuid.New(), nil)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestDraftService_CreateAndEdit(t *testing.T) {
	drafts := new(MockDraftRepository)
	svc := NewDraftService(drafts, new(posmock.AccountRepository), new(posmock.GatewayFactory), zap.NewNop())
	orgID := uuid.New()
	ctx := context.Background()

	drafts.On("Save", mock.Anything, mock.Anything).Return(nil)

	created, err := svc.Create(ctx, orgID, CreateDraftRequest{
		Date:        syncDate,
		Amount:      decimal.NewFromInt(700),
		Description: "  Салфетки ",
		Source:      "halyk",
	})
	require.NoError(t, err)
	assert.Equal(t, "Салфетки", created.Description)
	assert.Equal(t, settlement.SourceHalyk, created.Source)
	assert.Equal(t, expense.KindManual, created.Kind)

	_, err = svc.Create(ctx, orgID, CreateDraftRequest{Date: syncDate, Amount: decimal.Zero, Description: "x"})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(ctx, orgID, CreateDraftRequest{Date: syncDate, Amount: decimal.NewFromInt(1), Description: "x", Source: "card"})
	assert.ErrorIs(t, err, shared.ErrValidation)

	drafts.On("FindByID", mock.Anything, orgID, created.ID).Return(created, nil)
	amount := decimal.NewFromInt(900)
	updated, err := svc.Update(ctx, orgID, created.ID, UpdateDraftRequest{Amount: &amount})
	require.NoError(t, err)
	assert.True(t, updated.Amount.Equal(amount))
	assert.Equal(t, "Салфетки", updated.Description)

	toggled, err := svc.ToggleIncome(ctx, orgID, created.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsIncome)

	missing := uuid.New()
	drafts.On("FindByID", mock.Anything, orgID, missing).Return(nil, shared.ErrNotFound)
	_, err = svc.ToggleIncome(ctx, orgID, missing)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
