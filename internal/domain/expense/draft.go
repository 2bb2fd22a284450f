package expense

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/posterdash/backend/internal/domain/settlement"
	"github.com/posterdash/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Status is the review state of a draft
type Status string

const (
	StatusPending  Status = "pending"
	StatusArchived Status = "archived"
)

// Completion tracks whether the draft exists in the POS ledger
type Completion string

const (
	CompletionPending   Completion = "PENDING"
	CompletionCompleted Completion = "COMPLETED"
)

// Kind is where a draft came from
type Kind string

const (
	KindTransaction Kind = "TRANSACTION"
	KindManual      Kind = "MANUAL"
	KindSupply      Kind = "SUPPLY"
)

// amountTolerance absorbs float noise when comparing amounts from the POS
var amountTolerance = decimal.RequireFromString("0.01")

// Draft is an expense or income awaiting review. Drafts synced from the POS
// carry the composite POS transaction id and the last observed POS amount.
type Draft struct {
	shared.OrgEntity
	Date        time.Time         `json:"date"`
	Amount      decimal.Decimal   `json:"amount"`
	PosAmount   *decimal.Decimal  `json:"poster_amount,omitempty"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	Source      settlement.Source `json:"source"`
	Kind        Kind              `json:"expense_type"`
	IsIncome    bool              `json:"is_income"`

	// AccountID is the POS ledger account; nil resolves by Source on processing
	AccountID        *int64     `json:"account_id,omitempty"`
	PosAccountID     *uuid.UUID `json:"poster_account_id,omitempty"`
	PosTransactionID string     `json:"poster_transaction_id,omitempty"`

	Status      Status     `json:"status"`
	Completion  Completion `json:"completion_status"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty"`
}

// NewManualDraft creates a draft entered by a user
func NewManualDraft(orgID uuid.UUID, date time.Time, amount decimal.Decimal, description string, source settlement.Source) (*Draft, error) {
	if !amount.IsPositive() {
		return nil, shared.NewValidationError("amount must be positive")
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, shared.NewValidationError("description is required")
	}
	return &Draft{
		OrgEntity:   shared.NewOrgEntity(orgID),
		Date:        date,
		Amount:      amount,
		Description: description,
		Source:      source,
		Kind:        KindManual,
		Status:      StatusPending,
		Completion:  CompletionPending,
	}, nil
}

// NewSyncedDraft creates a draft for a transaction first observed in the POS.
// It already exists in the POS ledger, so it is created completed.
func NewSyncedDraft(orgID uuid.UUID, date time.Time, posAccountID uuid.UUID, obs Observation) *Draft {
	amount := obs.Amount
	draft := &Draft{
		OrgEntity:        shared.NewOrgEntity(orgID),
		Date:             date,
		Amount:           amount,
		PosAmount:        &amount,
		Description:      obs.Description,
		Category:         obs.Category,
		Source:           obs.Source,
		Kind:             KindTransaction,
		IsIncome:         obs.IsIncome,
		PosAccountID:     &posAccountID,
		PosTransactionID: obs.CompositeID,
		Status:           StatusPending,
		Completion:       CompletionCompleted,
	}
	if obs.AccountID != 0 {
		id := obs.AccountID
		draft.AccountID = &id
	}
	return draft
}

// ApplyObservation merges a fresh POS observation. The user-entered amount
// follows the POS only while the user has not edited it away from the last
// observed POS amount. Returns true if anything changed.
func (d *Draft) ApplyObservation(amount decimal.Decimal, description string) bool {
	changed := false

	old := decimal.Zero
	if d.PosAmount != nil {
		old = *d.PosAmount
	}
	if old.Sub(amount).Abs().GreaterThanOrEqual(amountTolerance) {
		if d.Amount.Sub(old).Abs().LessThan(amountTolerance) {
			d.Amount = amount
		}
		a := amount
		d.PosAmount = &a
		changed = true
	}

	if d.Description != description {
		d.Description = description
		changed = true
	}

	if changed {
		d.Touch()
	}
	return changed
}

// IsSyncOrphanCandidate reports whether the draft came from a POS sync and
// may be archived when the POS no longer lists it
func (d *Draft) IsSyncOrphanCandidate() bool {
	return d.Status == StatusPending &&
		d.PosTransactionID != "" &&
		strings.Contains(d.PosTransactionID, "_") &&
		!strings.HasPrefix(d.PosTransactionID, "supply_")
}

// Archive soft-deletes the draft. It can be restored.
func (d *Draft) Archive(at time.Time) {
	d.Status = StatusArchived
	d.ArchivedAt = &at
	d.Touch()
}

// Restore undoes Archive
func (d *Draft) Restore() {
	d.Status = StatusPending
	d.ArchivedAt = nil
	d.Touch()
}

// Update changes user-editable fields
func (d *Draft) Update(amount *decimal.Decimal, description *string) error {
	if amount != nil {
		if !amount.IsPositive() {
			return shared.NewValidationError("amount must be positive")
		}
		d.Amount = *amount
	}
	if description != nil {
		desc := strings.TrimSpace(*description)
		if desc == "" {
			return shared.NewValidationError("description is required")
		}
		d.Description = desc
	}
	d.Touch()
	return nil
}

// ToggleIncome flips the draft between income and expense
func (d *Draft) ToggleIncome() {
	d.IsIncome = !d.IsIncome
	d.Touch()
}

// IsCompleted reports whether the draft is already in the POS ledger
func (d *Draft) IsCompleted() bool {
	return d.Completion == CompletionCompleted
}

// MarkProcessed records a successful POS posting
func (d *Draft) MarkProcessed(compositeID string, at time.Time) {
	d.Completion = CompletionCompleted
	d.PosTransactionID = compositeID
	d.ProcessedAt = &at
	d.Touch()
}
