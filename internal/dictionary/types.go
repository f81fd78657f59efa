package dictionary

import "github.com/tinoosan/fintrack/internal/ledger"

// TypeDef describes one curated account type for clients building pickers.
type TypeDef struct {
	Code  string       `json:"code"`
	Label string       `json:"label"`
	Class ledger.Class `json:"class"`
}

// CategoryDef describes one curated transaction category. Reserved categories
// are engine-generated and cannot be assigned by users.
type CategoryDef struct {
	Code     string `json:"code"`
	Label    string `json:"label"`
	Reserved bool   `json:"reserved"`
}

var accountTypes = []TypeDef{
	{Code: string(ledger.AccountTypeBank), Label: "Bank", Class: ledger.ClassAsset},
	{Code: string(ledger.AccountTypeWallet), Label: "Wallet", Class: ledger.ClassAsset},
	{Code: string(ledger.AccountTypeCash), Label: "Cash", Class: ledger.ClassAsset},
	{Code: string(ledger.AccountTypeInvestment), Label: "Investment", Class: ledger.ClassInvestment},
	{Code: string(ledger.AccountTypeLoan), Label: "Loan", Class: ledger.ClassLoan},
	{Code: string(ledger.AccountTypeCreditCard), Label: "Credit Card", Class: ledger.ClassLoan},
	{Code: string(ledger.AccountTypeOther), Label: "Other", Class: ledger.ClassAsset},
}

var categories = []CategoryDef{
	{Code: string(ledger.CategoryUncategorized), Label: "Uncategorized"},
	{Code: string(ledger.CategoryGeneral), Label: "General"},
	{Code: string(ledger.CategoryEatingOut), Label: "Eating Out"},
	{Code: string(ledger.CategoryGroceries), Label: "Groceries"},
	{Code: string(ledger.CategoryTransport), Label: "Transport"},
	{Code: string(ledger.CategoryShopping), Label: "Shopping"},
	{Code: string(ledger.CategoryEntertainment), Label: "Entertainment"},
	{Code: string(ledger.CategoryBills), Label: "Bills"},
	{Code: string(ledger.CategoryTravel), Label: "Travel"},
	{Code: string(ledger.CategorySalary), Label: "Salary"},
	{Code: string(ledger.CategoryTransfers), Label: "Transfers"},
	{Code: string(ledger.CategorySavings), Label: "Savings"},
	{Code: string(ledger.CategoryOpeningBalance), Label: "Opening Balance", Reserved: true},
	{Code: string(ledger.CategoryBalanceAdjustment), Label: "Balance Adjustment", Reserved: true},
	{Code: string(ledger.CategoryEditAdjustment), Label: "Edit Adjustment", Reserved: true},
}

// AccountTypes returns the curated account types.
func AccountTypes() []TypeDef {
	out := make([]TypeDef, len(accountTypes))
	copy(out, accountTypes)
	return out
}

// Categories returns the curated transaction categories.
func Categories() []CategoryDef {
	out := make([]CategoryDef, len(categories))
	copy(out, categories)
	return out
}

// IsReservedCategory reports whether c is engine-generated only.
func IsReservedCategory(c ledger.Category) bool {
	switch c {
	case ledger.CategoryOpeningBalance, ledger.CategoryBalanceAdjustment, ledger.CategoryEditAdjustment:
		return true
	}
	return false
}
