package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/posterdash/backend/internal/domain/pos"
	"github.com/posterdash/backend/internal/domain/settlement"
	"github.com/posterdash/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CloseShiftService settles a business day against the POS and books the
// resulting salaries and transfers
type CloseShiftService struct {
	closings  settlement.ShiftClosingRepository
	shiftData settlement.CashierShiftDataRepository
	accounts  pos.AccountRepository
	gateways  pos.GatewayFactory
	logger    *zap.Logger
	now       func() time.Time
}

// NewCloseShiftService creates a new CloseShiftService
func NewCloseShiftService(
	closings settlement.ShiftClosingRepository,
	shiftData settlement.CashierShiftDataRepository,
	accounts pos.AccountRepository,
	gateways pos.GatewayFactory,
	logger *zap.Logger,
) *CloseShiftService {
	return &CloseShiftService{
		closings:  closings,
		shiftData: shiftData,
		accounts:  accounts,
		gateways:  gateways,
		logger:    logger,
		now:       time.Now,
	}
}

// CloseShift saves the day's settlement and posts salaries and transfers.
// Once the settlement is saved, posting failures are reported per line and
// never abort the remaining lines.
func (s *CloseShiftService) CloseShift(ctx context.Context, orgID uuid.UUID, req CloseShiftRequest) (*CloseShiftReport, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	account, err := resolveAccount(ctx, s.accounts, orgID, req.PosAccountID)
	if err != nil {
		return nil, err
	}
	gw, err := s.gateways.ForAccount(account)
	if err != nil {
		return nil, gatewayErr("open", err)
	}

	totals, err := gw.GetClosedOrderTotals(ctx, req.Date)
	if err != nil {
		return nil, gatewayErr("dash.getTransactions", err)
	}

	input := req.shiftInput(totals.PosTotals())
	closing := settlement.NewShiftClosing(orgID, req.Date, &account.ID, input)
	closing.MarkClosed(s.now(), req.CashierCount)
	if err := s.closings.Upsert(ctx, closing); err != nil {
		return nil, fmt.Errorf("save shift closing: %w", err)
	}

	log := s.logger.With(
		zap.String("org_id", orgID.String()),
		zap.String("date", settlement.PosDate(req.Date)),
		zap.String("pos_account", account.Name),
	)
	log.Info("shift closed",
		zap.String("day_result", closing.Result.DayResult.String()),
		zap.String("collection", closing.Result.Collection.String()),
	)

	salary := settlement.CalculateSalaries(settlement.SalaryInput{
		TradeTotal:      input.PosterTrade,
		CashierCount:    req.CashierCount,
		AssistantSalary: req.AssistantSalary,
	})
	if salary.CashierFallback {
		log.Warn("no salary rule for headcount, using base daily rate", zap.Int("cashier_count", req.CashierCount))
	}

	report := &CloseShiftReport{
		Closing: closing,
		Result:  closing.Result,
		Salary:  salary,
	}

	mapping := account.AccountMapping()
	for _, line := range salaryLines(salary, req.Staff, mapping, account.CategoryMapping()) {
		report.Salaries = append(report.Salaries, s.post(ctx, gw, line, log))
	}

	plan := settlement.PlanTransfers(settlement.NewTransferInput(input, closing.Result), mapping)
	for _, instr := range plan {
		line := LineReport{
			Kind:          LineTransfer,
			Label:         instr.Label,
			Amount:        instr.Amount,
			AccountFromID: instr.From,
			AccountToID:   instr.To,
			Comment:       instr.Label,
		}
		report.Transfers = append(report.Transfers, s.post(ctx, gw, line, log))
	}

	if failed := report.Failed(); failed > 0 {
		log.Warn("some postings failed", zap.Int("failed", failed))
	}
	return report, nil
}

// RepostLine submits a single leg of an earlier report again
func (s *CloseShiftService) RepostLine(ctx context.Context, orgID uuid.UUID, req RepostRequest) (*LineReport, error) {
	if err := req.Line.Validate(); err != nil {
		return nil, err
	}
	account, err := resolveAccount(ctx, s.accounts, orgID, req.PosAccountID)
	if err != nil {
		return nil, err
	}
	gw, err := s.gateways.ForAccount(account)
	if err != nil {
		return nil, gatewayErr("open", err)
	}

	line := req.Line
	line.Success, line.TransactionID, line.Error = false, "", ""
	id, err := gw.CreateTransaction(ctx, line.transaction(s.now()))
	if err != nil {
		line.Error = err.Error()
		return &line, gatewayErr("finance.createTransaction", err)
	}
	line.Success = true
	line.TransactionID = id
	return &line, nil
}

// Prefill returns the live POS totals merged with whatever was already saved
// for the day: a saved closing wins over cashier data, which wins over defaults.
func (s *CloseShiftService) Prefill(ctx context.Context, orgID uuid.UUID, date time.Time, posAccountID *uuid.UUID) (*PrefillResponse, error) {
	account, err := resolveAccount(ctx, s.accounts, orgID, posAccountID)
	if err != nil {
		return nil, err
	}
	gw, err := s.gateways.ForAccount(account)
	if err != nil {
		return nil, gatewayErr("open", err)
	}
	totals, err := gw.GetClosedOrderTotals(ctx, date)
	if err != nil {
		return nil, gatewayErr("dash.getTransactions", err)
	}

	saved, err := s.closings.FindByDay(ctx, orgID, date, &account.ID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	data, err := s.shiftData.FindByDay(ctx, orgID, date)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	var input settlement.ShiftInput
	switch {
	case saved != nil:
		input = saved.Input
	case data != nil:
		input = settlement.ShiftInput{
			Wolt:          data.Wolt,
			Halyk:         data.Halyk,
			KaspiTerminal: data.Kaspi,
			KaspiCafe:     data.KaspiCafe,
			CashBills:     data.CashBills,
			CashCoins:     data.CashCoins,
			Expenses:      data.Expenses,
			ShiftStart:    settlement.DefaultShiftStart,
			CashToLeave:   settlement.DefaultCashToLeave,
		}
	default:
		input = settlement.ShiftInput{
			ShiftStart:  settlement.DefaultShiftStart,
			CashToLeave: settlement.DefaultCashToLeave,
		}
	}
	input.PosTotals = totals.PosTotals()

	return &PrefillResponse{
		Date:         date,
		PosAccountID: account.ID,
		Input:        input,
		Result:       settlement.Calculate(input),
		Totals:       *totals,
		Saved:        saved,
		CashierData:  data,
	}, nil
}

// History lists saved closings in [from, to]
func (s *CloseShiftService) History(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]settlement.ShiftClosing, error) {
	if to.Before(from) {
		return nil, shared.NewValidationError("'to' must not be before 'from'")
	}
	return s.closings.ListRange(ctx, orgID, from, to)
}

func (s *CloseShiftService) post(ctx context.Context, gw pos.Gateway, line LineReport, log *zap.Logger) LineReport {
	id, err := gw.CreateTransaction(ctx, line.transaction(s.now()))
	if err != nil {
		log.Error("posting failed",
			zap.String("kind", string(line.Kind)),
			zap.String("label", line.Label),
			zap.String("amount", line.Amount.String()),
			zap.Error(err),
		)
		line.Error = err.Error()
		return line
	}
	line.Success = true
	line.TransactionID = id
	return line
}

// salaryLines books each positive salary from the cash float account
func salaryLines(res settlement.SalaryResult, staff StaffNames, accounts settlement.AccountMapping, cats settlement.CategoryMapping) []LineReport {
	lines := make([]LineReport, 0, 3)
	add := func(role settlement.StaffRole, name string, amount decimal.Decimal) {
		if !amount.IsPositive() {
			return
		}
		lines = append(lines, LineReport{
			Kind:          LineExpense,
			Label:         string(role),
			Amount:        amount,
			AccountFromID: accounts.CashFloat,
			CategoryID:    cats.CategoryFor(role),
			Comment:       salaryComment(role, name),
		})
	}

	add(settlement.RoleCashier, staff.Cashier, res.CashierSalary)
	add(settlement.RoleDoner, staff.Doner, res.DonerSalary)
	if res.AssistantSalary != nil {
		add(settlement.RoleAssistant, staff.Assistant, *res.AssistantSalary)
	}
	return lines
}

func salaryComment(role settlement.StaffRole, name string) string {
	if name == "" {
		return string(role)
	}
	return fmt.Sprintf("%s - %s", role, name)
}

func resolveAccount(ctx context.Context, repo pos.AccountRepository, orgID uuid.UUID, id *uuid.UUID) (*pos.Account, error) {
	var (
		account *pos.Account
		err     error
	)
	if id != nil {
		account, err = repo.FindByID(ctx, orgID, *id)
	} else {
		account, err = repo.FindPrimary(ctx, orgID)
	}
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.NewNotFoundError("no POS account configured")
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

func gatewayErr(op string, err error) error {
	if errors.Is(err, shared.ErrExternalGateway) {
		return err
	}
	return shared.NewGatewayError(op, err)
}
