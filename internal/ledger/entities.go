package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/tinoosan/fintrack/internal/tags"
)

// AccountType is the free-form instrument type a user assigns to an account.
// Sign conventions are not derived from it directly; Classify maps it to a
// Class first.
type AccountType string

const (
	AccountTypeBank       AccountType = "bank"
	AccountTypeWallet     AccountType = "wallet"
	AccountTypeCash       AccountType = "cash"
	AccountTypeInvestment AccountType = "investment"
	AccountTypeLoan       AccountType = "loan"
	AccountTypeCreditCard AccountType = "credit_card"
	AccountTypeOther      AccountType = "other"
)

// TransactionType enumerates how a transaction moves money.
type TransactionType string

const (
	// TypeExpense decreases the balance of the referenced account.
	TypeExpense TransactionType = "expense"
	// TypeIncome increases the balance of the referenced account.
	TypeIncome TransactionType = "income"
	// TypeTransfer moves an amount between two accounts; its balance effects
	// depend on the class of each side.
	TypeTransfer TransactionType = "transfer"
)

// Category identifies the user-facing grouping of a transaction.
type Category string

const (
	CategoryUncategorized Category = "uncategorized"
	CategoryGeneral       Category = "general"
	CategoryEatingOut     Category = "eating_out"
	CategoryGroceries     Category = "groceries"
	CategoryTransport     Category = "transport"
	CategoryShopping      Category = "shopping"
	CategoryEntertainment Category = "entertainment"
	CategoryBills         Category = "bills"
	CategoryTravel        Category = "travel"
	CategorySalary        Category = "salary"
	CategoryTransfers     Category = "transfers"
	CategorySavings       Category = "savings"

	// Reserved categories for engine-generated transactions.
	CategoryOpeningBalance    Category = "Opening Balance"
	CategoryBalanceAdjustment Category = "Balance Adjustment"
	CategoryEditAdjustment    Category = "Edit Adjustment"
)

// User captures the owner of ledger data.
type User struct {
	ID    uuid.UUID
	Email *string
}

// Account represents a balance-carrying account belonging to a user.
type Account struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Name     string
	Type     AccountType
	Currency string
	// Balance is the current running balance. Positive means funds available
	// for asset-like accounts and amount owed for loan-like accounts.
	Balance money.Amount
	// Note holds a free-form description.
	Note      string
	CreatedOn time.Time
	// UpdatedOn is bumped on every balance mutation.
	UpdatedOn time.Time
}

// Class returns the sign-convention bucket for the account's type.
func (a Account) Class() Class { return Classify(string(a.Type)) }

// BalanceMinor returns the balance in minor units (pence/cents).
func (a Account) BalanceMinor() int64 {
	units, _ := a.Balance.MinorUnits()
	return units
}

// Transaction is a single balance-affecting record. Amount is always a
// non-negative magnitude; direction comes from Type and, for transfers, from
// the classes of the two accounts.
type Transaction struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Type   TransactionType
	// AccountID is set for expense/income; zero for transfers.
	AccountID uuid.UUID
	// FromAccountID/ToAccountID are set for transfers; zero otherwise.
	FromAccountID uuid.UUID
	ToAccountID   uuid.UUID
	Amount        money.Amount
	Currency      string
	Category      Category
	Note          string
	Tags          tags.Tags
	HappenedOn    time.Time
	CreatedOn     time.Time
}

// AmountMinor returns the magnitude in minor units.
func (t Transaction) AmountMinor() int64 {
	units, _ := t.Amount.MinorUnits()
	return units
}

// IsSystem reports whether the transaction was generated by the engine
// (opening balance or adjustment) rather than entered by the user.
func (t Transaction) IsSystem() bool {
	return t.Tags.Has(tags.Opening) || t.Tags.Has(tags.Adjustment)
}

// Touches reports whether the transaction references the given account on
// any side.
func (t Transaction) Touches(accountID uuid.UUID) bool {
	return t.AccountID == accountID || t.FromAccountID == accountID || t.ToAccountID == accountID
}
