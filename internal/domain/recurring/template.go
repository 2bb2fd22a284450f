package recurring

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/posterdash/backend/internal/domain/pos"
	"github.com/posterdash/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DustThreshold: templates whose amount is at or below it are placeholders
// and never posted
var DustThreshold = decimal.NewFromInt(1)

// Template is a transaction posted to the POS once per business day
type Template struct {
	shared.OrgEntity
	// AccountName selects the POS connection; empty or unknown uses the primary
	AccountName     string              `json:"account_name"`
	TransactionType pos.TransactionType `json:"transaction_type"`
	CategoryID      *int64              `json:"category_id,omitempty"`
	CategoryName    string              `json:"category_name"`
	AccountFromID   int64               `json:"account_from_id"`
	AccountFromName string              `json:"account_from_name"`
	AccountToID     *int64              `json:"account_to_id,omitempty"`
	AccountToName   string              `json:"account_to_name"`
	Amount          decimal.Decimal     `json:"amount"`
	Comment         string              `json:"comment"`
	IsEnabled       bool                `json:"is_enabled"`
	SortOrder       int                 `json:"sort_order"`
}

// TemplateSpec holds the editable fields of a template
type TemplateSpec struct {
	AccountName     string
	TransactionType pos.TransactionType
	CategoryID      *int64
	CategoryName    string
	AccountFromID   int64
	AccountFromName string
	AccountToID     *int64
	AccountToName   string
	Amount          decimal.Decimal
	Comment         string
	IsEnabled       bool
	SortOrder       int
}

// Validate checks the spec is postable
func (s TemplateSpec) Validate() error {
	switch s.TransactionType {
	case pos.TransactionExpense, pos.TransactionIncome:
		if s.CategoryID == nil {
			return shared.NewValidationError("category is required for %s templates", s.TransactionType)
		}
	case pos.TransactionTransfer:
		if s.AccountToID == nil {
			return shared.NewValidationError("destination account is required for transfers")
		}
	default:
		return shared.NewValidationError("unknown transaction type %d", s.TransactionType)
	}
	if s.AccountFromID <= 0 {
		return shared.NewValidationError("source account is required")
	}
	if s.Amount.IsNegative() {
		return shared.NewValidationError("amount must not be negative")
	}
	return nil
}

// NewTemplate validates spec and creates a template
func NewTemplate(orgID uuid.UUID, spec TemplateSpec) (*Template, error) {
	t := &Template{OrgEntity: shared.NewOrgEntity(orgID)}
	if err := t.Apply(spec); err != nil {
		return nil, err
	}
	return t, nil
}

// Apply replaces the editable fields after validating them
func (t *Template) Apply(spec TemplateSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	t.AccountName = spec.AccountName
	t.TransactionType = spec.TransactionType
	t.CategoryID = spec.CategoryID
	t.CategoryName = spec.CategoryName
	t.AccountFromID = spec.AccountFromID
	t.AccountFromName = spec.AccountFromName
	t.AccountToID = spec.AccountToID
	t.AccountToName = spec.AccountToName
	t.Amount = spec.Amount
	t.Comment = spec.Comment
	t.IsEnabled = spec.IsEnabled
	t.SortOrder = spec.SortOrder
	t.Touch()
	return nil
}

// Toggle flips the enabled flag
func (t *Template) Toggle() {
	t.IsEnabled = !t.IsEnabled
	t.Touch()
}

// IsActive reports whether the daily run posts this template
func (t *Template) IsActive() bool {
	return t.IsEnabled && t.Amount.GreaterThan(DustThreshold)
}

// ToTransaction builds the POS posting for the given moment
func (t *Template) ToTransaction(at time.Time) pos.NewTransaction {
	txn := pos.NewTransaction{
		Type:      t.TransactionType,
		AccountID: t.AccountFromID,
		Amount:    t.Amount,
		Date:      at,
		Comment:   t.Comment,
	}
	if t.TransactionType == pos.TransactionTransfer {
		if t.AccountToID != nil {
			txn.AccountToID = *t.AccountToID
		}
	} else if t.CategoryID != nil {
		txn.CategoryID = *t.CategoryID
	}
	return txn
}

// TemplateRepository defines persistence for templates
type TemplateRepository interface {
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*Template, error)

	// ListByOrg lists an org's templates ordered by SortOrder
	ListByOrg(ctx context.Context, orgID uuid.UUID) ([]Template, error)

	// ListActive lists enabled templates above the dust threshold across all orgs
	ListActive(ctx context.Context) ([]Template, error)

	Save(ctx context.Context, t *Template) error
	Delete(ctx context.Context, orgID, id uuid.UUID) error
}
