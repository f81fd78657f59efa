package ledger

import "strings"

// Class is the sign-convention bucket used everywhere balance math happens.
type Class string

const (
	// ClassAsset covers bank/wallet/cash-like accounts: positive balance means
	// funds available.
	ClassAsset Class = "asset"
	// ClassLoan covers liability accounts: positive balance means amount owed.
	ClassLoan Class = "loan"
	// ClassInvestment behaves like an asset for balance signs and is
	// distinguished only for reporting aggregation.
	ClassInvestment Class = "investment"
)

var loanTypes = map[string]struct{}{
	"loan":        {},
	"liability":   {},
	"credit_card": {},
	"creditcard":  {},
	"credit card": {},
	"mortgage":    {},
}

var investmentTypes = map[string]struct{}{
	"investment": {},
	"brokerage":  {},
	"pension":    {},
	"retirement": {},
}

// Classify maps a free-form account type to its Class. Matching is trimmed,
// case-insensitive, exact-or-synonym-set membership; unknown or empty types
// default to ClassAsset.
func Classify(accountType string) Class {
	t := strings.ToLower(strings.TrimSpace(accountType))
	if _, ok := loanTypes[t]; ok {
		return ClassLoan
	}
	if _, ok := investmentTypes[t]; ok {
		return ClassInvestment
	}
	return ClassAsset
}

// IsLoan is shorthand for Classify(t) == ClassLoan.
func IsLoan(accountType string) bool { return Classify(accountType) == ClassLoan }
