package poster

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/posterdash/backend/internal/domain/pos"
	"go.uber.org/zap"
)

// CachedGateway serves Accounts and Categories from a reference cache.
// Cache failures are logged and fall through to the POS.
type CachedGateway struct {
	pos.Gateway
	posAccountID uuid.UUID
	cache        pos.ReferenceCache
	logger       *zap.Logger
}

// NewCachedGateway wraps gw for the given POS account
func NewCachedGateway(gw pos.Gateway, posAccountID uuid.UUID, cache pos.ReferenceCache, logger *zap.Logger) *CachedGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedGateway{Gateway: gw, posAccountID: posAccountID, cache: cache, logger: logger}
}

// Accounts implements pos.Gateway
func (g *CachedGateway) Accounts(ctx context.Context) ([]pos.FinanceAccount, error) {
	var accounts []pos.FinanceAccount
	if g.lookup(ctx, pos.ReferenceAccounts, &accounts) {
		return accounts, nil
	}
	accounts, err := g.Gateway.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	g.store(ctx, pos.ReferenceAccounts, accounts)
	return accounts, nil
}

// Categories implements pos.Gateway
func (g *CachedGateway) Categories(ctx context.Context) ([]pos.Category, error) {
	var cats []pos.Category
	if g.lookup(ctx, pos.ReferenceCategories, &cats) {
		return cats, nil
	}
	cats, err := g.Gateway.Categories(ctx)
	if err != nil {
		return nil, err
	}
	g.store(ctx, pos.ReferenceCategories, cats)
	return cats, nil
}

func (g *CachedGateway) lookup(ctx context.Context, kind pos.ReferenceKind, dest any) bool {
	ok, err := g.cache.Get(ctx, g.posAccountID, kind, dest)
	if err != nil {
		g.logger.Warn("reference cache read failed",
			zap.String("pos_account_id", g.posAccountID.String()),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return false
	}
	return ok
}

func (g *CachedGateway) store(ctx context.Context, kind pos.ReferenceKind, value any) {
	if err := g.cache.Set(ctx, g.posAccountID, kind, value); err != nil {
		g.logger.Warn("reference cache write failed",
			zap.String("pos_account_id", g.posAccountID.String()),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	}
}

// Factory opens cached clients for connected POS accounts
type Factory struct {
	opts     Options
	cache    pos.ReferenceCache
	decorate Decorator
}

// Decorator wraps the raw client of an account, e.g. with tracing
type Decorator func(gw pos.Gateway, account *pos.Account) pos.Gateway

// NewFactory creates a gateway factory. A nil cache disables caching.
func NewFactory(timeout time.Duration, maxResponseBytes int64, loc *time.Location, cache pos.ReferenceCache, logger *zap.Logger) *Factory {
	return &Factory{
		opts: Options{
			Timeout:          timeout,
			MaxResponseBytes: maxResponseBytes,
			Location:         loc,
			Logger:           logger,
		},
		cache: cache,
	}
}

// Instrument installs a decorator applied to every client before caching,
// so cache hits are not seen by it
func (f *Factory) Instrument(d Decorator) *Factory {
	f.decorate = d
	return f
}

// ForAccount implements pos.GatewayFactory
func (f *Factory) ForAccount(account *pos.Account) (pos.Gateway, error) {
	if account == nil {
		return nil, pos.ErrGatewayNotConfigured
	}
	client, err := NewClient(account.BaseURL, account.Token, account.PosUserID, f.opts)
	if err != nil {
		return nil, err
	}
	var gw pos.Gateway = client
	if f.decorate != nil {
		gw = f.decorate(gw, account)
	}
	if f.cache == nil {
		return gw, nil
	}
	return NewCachedGateway(gw, account.ID, f.cache, f.opts.Logger), nil
}

var (
	_ pos.Gateway        = (*CachedGateway)(nil)
	_ pos.GatewayFactory = (*Factory)(nil)
)
