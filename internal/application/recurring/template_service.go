package recurring

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/posterdash/backend/internal/domain/pos"
	"github.com/posterdash/backend/internal/domain/recurring"
	"github.com/posterdash/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ReferenceData is what the template form picks accounts and categories from
type ReferenceData struct {
	PosAccountID uuid.UUID            `json:"poster_account_id"`
	Accounts     []pos.FinanceAccount `json:"accounts"`
	Categories   []pos.Category       `json:"categories"`
}

// TemplateService manages an organization's recurring templates
type TemplateService struct {
	repo     recurring.TemplateRepository
	accounts pos.AccountRepository
	gateways pos.GatewayFactory
	logger   *zap.Logger
}

// NewTemplateService creates a new TemplateService
func NewTemplateService(repo recurring.TemplateRepository, accounts pos.AccountRepository, gateways pos.GatewayFactory, logger *zap.Logger) *TemplateService {
	return &TemplateService{repo: repo, accounts: accounts, gateways: gateways, logger: logger}
}

// List returns templates ordered by sort order
func (s *TemplateService) List(ctx context.Context, orgID uuid.UUID) ([]recurring.Template, error) {
	return s.repo.ListByOrg(ctx, orgID)
}

// Create validates and stores a new template
func (s *TemplateService) Create(ctx context.Context, orgID uuid.UUID, spec recurring.TemplateSpec) (*recurring.Template, error) {
	t, err := recurring.NewTemplate(orgID, spec)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Update replaces a template's fields
func (s *TemplateService) Update(ctx context.Context, orgID, id uuid.UUID, spec recurring.TemplateSpec) (*recurring.Template, error) {
	t, err := s.find(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if err := t.Apply(spec); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Toggle flips whether the daily run posts the template
func (s *TemplateService) Toggle(ctx context.Context, orgID, id uuid.UUID) (*recurring.Template, error) {
	t, err := s.find(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	t.Toggle()
	if err := s.repo.Save(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete removes a template
func (s *TemplateService) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	err := s.repo.Delete(ctx, orgID, id)
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewNotFoundError("template %s not found", id)
	}
	return err
}

// ReferenceData lists the POS accounts and categories of a connection. The
// lists come through the reference cache when one is configured.
func (s *TemplateService) ReferenceData(ctx context.Context, orgID uuid.UUID, posAccountID *uuid.UUID) (*ReferenceData, error) {
	var (
		account *pos.Account
		err     error
	)
	if posAccountID != nil {
		account, err = s.accounts.FindByID(ctx, orgID, *posAccountID)
	} else {
		account, err = s.accounts.FindPrimary(ctx, orgID)
	}
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.NewNotFoundError("no POS account configured")
	}
	if err != nil {
		return nil, err
	}

	gw, err := s.gateways.ForAccount(account)
	if err != nil {
		return nil, shared.NewGatewayError("open", err)
	}
	accounts, err := gw.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := gw.Categories(ctx)
	if err != nil {
		return nil, err
	}
	return &ReferenceData{PosAccountID: account.ID, Accounts: accounts, Categories: categories}, nil
}

func (s *TemplateService) find(ctx context.Context, orgID, id uuid.UUID) (*recurring.Template, error) {
	t, err := s.repo.FindByID(ctx, orgID, id)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.NewNotFoundError("template %s not found", id)
	}
	return t, err
}
