package settlement

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/posterdash/backend/internal/domain/settlement"
	"github.com/posterdash/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ShiftDataService collects the cashier's and the cafe admin's counts
type ShiftDataService struct {
	repo   settlement.CashierShiftDataRepository
	logger *zap.Logger
}

// NewShiftDataService creates a new ShiftDataService
func NewShiftDataService(repo settlement.CashierShiftDataRepository, logger *zap.Logger) *ShiftDataService {
	return &ShiftDataService{repo: repo, logger: logger}
}

// Get returns the day's data, or an empty unsaved record
func (s *ShiftDataService) Get(ctx context.Context, orgID uuid.UUID, date time.Time) (*settlement.CashierShiftData, error) {
	data, err := s.repo.FindByDay(ctx, orgID, date)
	if errors.Is(err, shared.ErrNotFound) {
		return settlement.NewCashierShiftData(orgID, date), nil
	}
	return data, err
}

// Submit stores the fields owned by role and keeps everything else
func (s *ShiftDataService) Submit(ctx context.Context, orgID uuid.UUID, role settlement.SubmitterRole, req SubmitShiftDataRequest) (*settlement.CashierShiftData, error) {
	if !role.IsValid() {
		return nil, shared.NewValidationError("role %q cannot submit shift data", role)
	}
	if req.Date.IsZero() {
		return nil, shared.NewValidationError("date is required")
	}
	for name, v := range map[string]bool{
		"wolt":       req.Wolt.IsNegative(),
		"halyk":      req.Halyk.IsNegative(),
		"kaspi":      req.Kaspi.IsNegative(),
		"kaspi_cafe": req.KaspiCafe.IsNegative(),
		"cash_bills": req.CashBills.IsNegative(),
		"cash_coins": req.CashCoins.IsNegative(),
		"expenses":   req.Expenses.IsNegative(),
	} {
		if v {
			return nil, shared.NewValidationError("%s must not be negative", name)
		}
	}

	data, err := s.Get(ctx, orgID, req.Date)
	if err != nil {
		return nil, err
	}

	switch role {
	case settlement.SubmitterCashier:
		data.ApplyCashier(settlement.CashierCounts{
			Wolt:      req.Wolt,
			Halyk:     req.Halyk,
			Kaspi:     req.Kaspi,
			CashBills: req.CashBills,
			CashCoins: req.CashCoins,
			Expenses:  req.Expenses,
		})
	case settlement.SubmitterCafe:
		data.ApplyCafe(req.KaspiCafe)
	}

	if err := s.repo.Save(ctx, data); err != nil {
		return nil, err
	}
	s.logger.Info("shift data submitted",
		zap.String("org_id", orgID.String()),
		zap.String("role", string(role)),
		zap.String("date", settlement.PosDate(req.Date)),
	)
	return data, nil
}
