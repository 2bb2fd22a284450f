package pos

import (
	"context"
	"errors"
	"time"

	"github.com/posterdash/backend/internal/domain/settlement"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Gateway errors
// ---------------------------------------------------------------------------

var (
	ErrGatewayRequestFailed   = errors.New("pos: request failed")
	ErrGatewayInvalidResponse = errors.New("pos: invalid response")
	ErrGatewayRejected        = errors.New("pos: request rejected")
	ErrGatewayNotConfigured   = errors.New("pos: account not configured")
)

// ---------------------------------------------------------------------------
// TransactionType mirrors the POS finance transaction kinds
// ---------------------------------------------------------------------------

// TransactionType is the kind of a POS finance transaction
type TransactionType int

const (
	TransactionExpense  TransactionType = 0
	TransactionIncome   TransactionType = 1
	TransactionTransfer TransactionType = 2
)

// IsValid returns true if the type is known
func (t TransactionType) IsValid() bool {
	return t == TransactionExpense || t == TransactionIncome || t == TransactionTransfer
}

// String returns the type name
func (t TransactionType) String() string {
	switch t {
	case TransactionExpense:
		return "expense"
	case TransactionIncome:
		return "income"
	case TransactionTransfer:
		return "transfer"
	default:
		return "unknown"
	}
}

// ---------------------------------------------------------------------------
// Read models
// ---------------------------------------------------------------------------

// ClosedOrderTotals are payment sums over the closed orders of a day, in tiyin
type ClosedOrderTotals struct {
	CashPaid   int64 `json:"cash_paid"`
	CardPaid   int64 `json:"card_paid"`
	GrossPaid  int64 `json:"gross_paid"`
	OrderCount int   `json:"order_count"`
}

// Trade returns cash + card in tenge
func (t ClosedOrderTotals) Trade() decimal.Decimal {
	return settlement.FromTiyin(t.CashPaid + t.CardPaid)
}

// Bonus returns the part of gross paid by bonuses, in tenge
func (t ClosedOrderTotals) Bonus() decimal.Decimal {
	return settlement.FromTiyin(t.GrossPaid - t.CashPaid - t.CardPaid)
}

// Card returns the card total in tenge
func (t ClosedOrderTotals) Card() decimal.Decimal {
	return settlement.FromTiyin(t.CardPaid)
}

// Cash returns the cash total in tenge
func (t ClosedOrderTotals) Cash() decimal.Decimal {
	return settlement.FromTiyin(t.CashPaid)
}

// PosTotals converts to the settlement's view of the POS
func (t ClosedOrderTotals) PosTotals() settlement.PosTotals {
	return settlement.PosTotals{
		PosterTrade: t.Trade(),
		PosterBonus: t.Bonus(),
		PosterCard:  t.Card(),
	}
}

// Transaction is a finance transaction as listed by the POS
type Transaction struct {
	ID            string          `json:"transaction_id"`
	Type          TransactionType `json:"type"`
	AccountFromID string          `json:"account_from_id"`
	// AmountFrom is signed and in tiyin
	AmountFrom   int64  `json:"amount_from"`
	CategoryName string `json:"category_name"`
	Comment      string `json:"comment"`
}

// Amount returns the absolute amount in tenge
func (t Transaction) Amount() decimal.Decimal {
	return settlement.FromTiyin(t.AmountFrom).Abs()
}

// FinanceAccount is a POS ledger account
type FinanceAccount struct {
	ID   int64  `json:"account_id"`
	Name string `json:"name"`
}

// Category is a POS finance category
type Category struct {
	ID   int64  `json:"category_id"`
	Name string `json:"name"`
}

// ---------------------------------------------------------------------------
// Write model
// ---------------------------------------------------------------------------

// NewTransaction is a transaction to be created in the POS. Amount is in
// tenge; the client converts it to tiyin on the wire.
type NewTransaction struct {
	Type        TransactionType
	CategoryID  int64
	AccountID   int64
	AccountToID int64
	Amount      decimal.Decimal
	Date        time.Time
	Comment     string
	UserID      int64
}

// NewExpense builds an expense posting
func NewExpense(categoryID, accountID int64, amount decimal.Decimal, date time.Time, comment string) NewTransaction {
	return NewTransaction{
		Type:       TransactionExpense,
		CategoryID: categoryID,
		AccountID:  accountID,
		Amount:     amount,
		Date:       date,
		Comment:    comment,
	}
}

// NewTransfer builds a transfer between two ledger accounts
func NewTransfer(fromID, toID int64, amount decimal.Decimal, date time.Time, comment string) NewTransaction {
	return NewTransaction{
		Type:        TransactionTransfer,
		AccountID:   fromID,
		AccountToID: toID,
		Amount:      amount,
		Date:        date,
		Comment:     comment,
	}
}

// Gateway is the POS finance API of one connected account
type Gateway interface {
	// GetClosedOrderTotals sums payments over orders closed on date
	GetClosedOrderTotals(ctx context.Context, date time.Time) (*ClosedOrderTotals, error)

	// CreateTransaction posts a transaction and returns its POS id
	CreateTransaction(ctx context.Context, txn NewTransaction) (string, error)

	// ListTransactions lists finance transactions dated on date
	ListTransactions(ctx context.Context, date time.Time) ([]Transaction, error)

	// Accounts lists ledger accounts
	Accounts(ctx context.Context) ([]FinanceAccount, error)

	// Categories lists finance categories
	Categories(ctx context.Context) ([]Category, error)
}

// GatewayFactory opens a gateway for a connected POS account
type GatewayFactory interface {
	ForAccount(account *Account) (Gateway, error)
}
