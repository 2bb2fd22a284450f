package settlement

// AccountMapping assigns POS finance account ids to the roles the transfer
// plan needs. Each POS connection has its own chart of accounts.
type AccountMapping struct {
	Kaspi      int64 `json:"kaspi"`
	Collection int64 `json:"collection"`
	CashFloat  int64 `json:"cash_float"`
	Wolt       int64 `json:"wolt"`
	// Halyk is nil when the unit does not take Halyk payments
	Halyk *int64 `json:"halyk,omitempty"`
}

// MainHallAccounts is the layout of the main hall POS
func MainHallAccounts() AccountMapping {
	halyk := int64(2)
	return AccountMapping{
		Kaspi:      1,
		Collection: 2,
		CashFloat:  4,
		Wolt:       8,
		Halyk:      &halyk,
	}
}

// CafeAccounts is the layout of the cafe POS
func CafeAccounts() AccountMapping {
	return AccountMapping{
		Kaspi:      1,
		Collection: 2,
		CashFloat:  5,
		Wolt:       7,
	}
}

// CategoryMapping assigns POS expense categories to salary roles
type CategoryMapping struct {
	Cashier int64 `json:"cashier"`
	Kitchen int64 `json:"kitchen"`
	Sushi   int64 `json:"sushi"`
}

// DefaultCategories returns the stock category layout
func DefaultCategories() CategoryMapping {
	return CategoryMapping{
		Cashier: 16,
		Kitchen: 19,
		Sushi:   17,
	}
}

// StaffRole is a salaried position on a shift
type StaffRole string

const (
	RoleCashier   StaffRole = "Кассир"
	RoleDoner     StaffRole = "Донерщик"
	RoleAssistant StaffRole = "Помощник"
	RoleSushi     StaffRole = "Сушист"
)

// CategoryFor returns the expense category a salary for role is booked under
func (m CategoryMapping) CategoryFor(role StaffRole) int64 {
	switch role {
	case RoleDoner, RoleAssistant:
		return m.Kitchen
	case RoleSushi:
		return m.Sushi
	default:
		return m.Cashier
	}
}
