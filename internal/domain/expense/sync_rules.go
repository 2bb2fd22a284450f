package expense

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/posterdash/backend/internal/domain/pos"
	"github.com/posterdash/backend/internal/domain/settlement"
	"github.com/shopspring/decimal"
)

// UnknownDescription is used when a POS transaction has neither comment nor category
const UnknownDescription = "Неизвестно"

// Category fragments of POS transactions that are bookkeeping moves, not expenses
var nonExpenseCategoryFragments = []string{"перевод", "кассовые смены", "актуализац"}

var incomeCategoryFragments = []string{"приход", "поступлен"}

// Supply postings are tracked by the supply module, not as expense drafts
var supplyCommentPattern = regexp.MustCompile(`(?i)поставка\s*[n#]\s*(\d+)`)

// Observation is a POS transaction normalized for draft matching
type Observation struct {
	CompositeID   string
	TransactionID string
	AccountID     int64
	Amount        decimal.Decimal
	Description   string
	Category      string
	Source        settlement.Source
	IsIncome      bool
	// Supply postings never become drafts, but a draft already matching one
	// is still present in the POS
	Supply bool
}

// CompositeID identifies a POS transaction across ledger accounts
func CompositeID(accountFromID, transactionID string) string {
	return fmt.Sprintf("%s_%s", accountFromID, transactionID)
}

// IsNonExpense reports whether the transaction is a transfer or belongs to a
// bookkeeping category
func IsNonExpense(txn pos.Transaction) bool {
	if txn.Type == pos.TransactionTransfer {
		return true
	}
	cat := strings.ToLower(txn.CategoryName)
	for _, frag := range nonExpenseCategoryFragments {
		if strings.Contains(cat, frag) {
			return true
		}
	}
	return false
}

// IsSupplyComment reports whether a description refers to a supply invoice
func IsSupplyComment(description string) bool {
	return supplyCommentPattern.MatchString(description)
}

// SourceFromAccountName infers the money source from a ledger account name
func SourceFromAccountName(name string) settlement.Source {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "kaspi"):
		return settlement.SourceKaspi
	case strings.Contains(n, "халык"), strings.Contains(n, "halyk"):
		return settlement.SourceHalyk
	default:
		return settlement.SourceCash
	}
}

// MatchesSource reports whether a ledger account name is the account drafts of
// source are posted from
func MatchesSource(name string, source settlement.Source) bool {
	n := strings.ToLower(name)
	switch source {
	case settlement.SourceKaspi:
		return strings.Contains(n, "kaspi")
	case settlement.SourceHalyk:
		return strings.Contains(n, "халык") || strings.Contains(n, "halyk")
	default:
		return strings.Contains(n, "закуп") || strings.Contains(n, "оставил")
	}
}

// Observe normalizes a POS transaction. ok is false for transfers and
// bookkeeping categories; supply postings come back with Supply set.
// accountNames maps ledger account ids to names.
func Observe(txn pos.Transaction, accountNames map[string]string) (obs Observation, ok bool) {
	if IsNonExpense(txn) {
		return Observation{}, false
	}

	description := txn.Comment
	if description == "" {
		description = txn.CategoryName
	}
	if description == "" {
		description = UnknownDescription
	}
	cat := strings.ToLower(txn.CategoryName)
	isIncome := txn.Type == pos.TransactionIncome
	for _, frag := range incomeCategoryFragments {
		if strings.Contains(cat, frag) {
			isIncome = true
		}
	}

	accountID, _ := strconv.ParseInt(txn.AccountFromID, 10, 64)

	return Observation{
		CompositeID:   CompositeID(txn.AccountFromID, txn.ID),
		TransactionID: txn.ID,
		AccountID:     accountID,
		Amount:        txn.Amount(),
		Description:   description,
		Category:      txn.CategoryName,
		Source:        SourceFromAccountName(accountNames[txn.AccountFromID]),
		IsIncome:      isIncome,
		Supply:        IsSupplyComment(description),
	}, true
}
