package pos

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/posterdash/backend/internal/domain/pos"
	"github.com/posterdash/backend/internal/domain/settlement"
	"github.com/posterdash/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// AccountInput holds the editable fields of a POS connection
type AccountInput struct {
	Name       string                      `json:"account_name" binding:"required"`
	BaseURL    string                      `json:"base_url" binding:"required,url"`
	Token      string                      `json:"token"`
	IsPrimary  bool                        `json:"is_primary"`
	IsCafe     bool                        `json:"is_cafe"`
	PosUserID  int64                       `json:"pos_user_id"`
	Accounts   *settlement.AccountMapping  `json:"accounts"`
	Categories *settlement.CategoryMapping `json:"categories"`
}

// AccountService manages an organization's POS connections
type AccountService struct {
	repo     pos.AccountRepository
	gateways pos.GatewayFactory
	cache    pos.ReferenceCache
	logger   *zap.Logger
}

// NewAccountService creates a new AccountService
func NewAccountService(repo pos.AccountRepository, gateways pos.GatewayFactory, cache pos.ReferenceCache, logger *zap.Logger) *AccountService {
	return &AccountService{repo: repo, gateways: gateways, cache: cache, logger: logger}
}

// List returns the connections, primary first
func (s *AccountService) List(ctx context.Context, orgID uuid.UUID) ([]pos.Account, error) {
	return s.repo.ListByOrg(ctx, orgID)
}

// Create adds a connection. The first connection of an organization is
// always primary.
func (s *AccountService) Create(ctx context.Context, orgID uuid.UUID, input AccountInput) (*pos.Account, error) {
	account, err := pos.NewAccount(orgID, input.Name, input.BaseURL, input.Token)
	if err != nil {
		return nil, err
	}
	apply(account, input)

	existing, err := s.repo.ListByOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		account.IsPrimary = true
	}

	if err := s.repo.Save(ctx, account); err != nil {
		return nil, err
	}
	s.logger.Info("POS account created",
		zap.String("org_id", orgID.String()),
		zap.String("account", account.Name),
		zap.Bool("primary", account.IsPrimary),
	)
	return account, nil
}

// Update edits a connection. An empty token keeps the stored one.
func (s *AccountService) Update(ctx context.Context, orgID, id uuid.UUID, input AccountInput) (*pos.Account, error) {
	account, err := s.repo.FindByID(ctx, orgID, id)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.NewNotFoundError("POS account %s not found", id)
	}
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, shared.NewValidationError("account name is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(input.BaseURL), "/")
	if baseURL == "" {
		return nil, shared.NewValidationError("base URL is required")
	}
	// demoting the only primary would leave the org without one
	if account.IsPrimary && !input.IsPrimary {
		return nil, shared.NewValidationError("mark another account primary instead")
	}

	account.Name = name
	account.BaseURL = baseURL
	if input.Token != "" {
		account.Token = input.Token
	}
	apply(account, input)
	account.Touch()

	if err := s.repo.Save(ctx, account); err != nil {
		return nil, err
	}
	if err := s.cache.Invalidate(ctx, account.ID); err != nil {
		s.logger.Warn("failed to invalidate POS reference cache", zap.String("pos_account_id", account.ID.String()), zap.Error(err))
	}
	return account, nil
}

// Verify checks the connection by listing its finance accounts
func (s *AccountService) Verify(ctx context.Context, orgID, id uuid.UUID) ([]pos.FinanceAccount, error) {
	account, err := s.repo.FindByID(ctx, orgID, id)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.NewNotFoundError("POS account %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	if err := s.cache.Invalidate(ctx, account.ID); err != nil {
		return nil, err
	}
	gw, err := s.gateways.ForAccount(account)
	if err != nil {
		return nil, shared.NewGatewayError("open", err)
	}
	return gw.Accounts(ctx)
}

func apply(account *pos.Account, input AccountInput) {
	account.IsPrimary = input.IsPrimary
	account.IsCafe = input.IsCafe
	account.PosUserID = input.PosUserID
	account.Accounts = input.Accounts
	account.Categories = input.Categories
}
