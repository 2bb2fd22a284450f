package pos

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/posterdash/backend/internal/domain/settlement"
	"github.com/posterdash/backend/internal/domain/shared"
)

// Account is an organization's connection to one POS installation. An
// organization has one primary account (the main hall) and optionally more,
// e.g. a cafe.
type Account struct {
	shared.OrgEntity
	Name      string `json:"account_name"`
	BaseURL   string `json:"base_url"`
	Token     string `json:"-"`
	IsPrimary bool   `json:"is_primary"`
	IsCafe    bool   `json:"is_cafe"`
	// PosUserID is the POS employee new transactions are attributed to
	PosUserID int64 `json:"pos_user_id"`

	// Overrides of the stock chart of accounts; nil uses the default for
	// main hall or cafe
	Accounts   *settlement.AccountMapping  `json:"accounts,omitempty"`
	Categories *settlement.CategoryMapping `json:"categories,omitempty"`
}

// NewAccount validates and creates a POS connection
func NewAccount(orgID uuid.UUID, name, baseURL, token string) (*Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("account name is required")
	}
	if strings.TrimSpace(baseURL) == "" {
		return nil, shared.NewValidationError("base URL is required")
	}
	if strings.TrimSpace(token) == "" {
		return nil, shared.NewValidationError("token is required")
	}
	return &Account{
		OrgEntity: shared.NewOrgEntity(orgID),
		Name:      name,
		BaseURL:   strings.TrimRight(baseURL, "/"),
		Token:     token,
	}, nil
}

// AccountMapping returns the chart of accounts used for transfers
func (a *Account) AccountMapping() settlement.AccountMapping {
	if a.Accounts != nil {
		return *a.Accounts
	}
	if a.IsCafe {
		return settlement.CafeAccounts()
	}
	return settlement.MainHallAccounts()
}

// CategoryMapping returns the salary category layout
func (a *Account) CategoryMapping() settlement.CategoryMapping {
	if a.Categories != nil {
		return *a.Categories
	}
	return settlement.DefaultCategories()
}

// AccountRepository defines persistence for POS connections
type AccountRepository interface {
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*Account, error)

	// FindPrimary returns the primary account, or the first one when none is
	// flagged primary. Returns shared.ErrNotFound when the org has none.
	FindPrimary(ctx context.Context, orgID uuid.UUID) (*Account, error)

	ListByOrg(ctx context.Context, orgID uuid.UUID) ([]Account, error)
	ListAll(ctx context.Context) ([]Account, error)
	Save(ctx context.Context, account *Account) error
}

// SelectForTemplate picks the account whose name matches, falling back to the
// primary. Returns nil when neither exists.
func SelectForTemplate(accounts []Account, name string) *Account {
	var primary *Account
	for i := range accounts {
		if name != "" && accounts[i].Name == name {
			return &accounts[i]
		}
		if accounts[i].IsPrimary && primary == nil {
			primary = &accounts[i]
		}
	}
	return primary
}
