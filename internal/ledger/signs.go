package ledger

// SignPair holds the multipliers applied to the source and destination
// balances for one transaction effect. From is the only side used for
// expense/income.
type SignPair struct {
	From int64
	To   int64
}

type signKey struct {
	Type TransactionType
	From Class
	To   Class
}

// signTable enumerates every (type, source class, dest class) combination so
// the sign conventions live in one exhaustively testable lookup instead of
// scattered conditionals. Investment accounts follow asset rules.
var signTable = map[signKey]SignPair{
	// Single-account effects: the account class does not alter the sign of an
	// expense or income, only transfers invert on loans.
	{TypeExpense, ClassAsset, ""}:      {From: -1},
	{TypeExpense, ClassLoan, ""}:       {From: -1},
	{TypeExpense, ClassInvestment, ""}: {From: -1},
	{TypeIncome, ClassAsset, ""}:       {From: +1},
	{TypeIncome, ClassLoan, ""}:        {From: +1},
	{TypeIncome, ClassInvestment, ""}:  {From: +1},

	// Transfers between asset-like accounts: money leaves one side and
	// arrives on the other.
	{TypeTransfer, ClassAsset, ClassAsset}:           {From: -1, To: +1},
	{TypeTransfer, ClassAsset, ClassInvestment}:      {From: -1, To: +1},
	{TypeTransfer, ClassInvestment, ClassAsset}:      {From: -1, To: +1},
	{TypeTransfer, ClassInvestment, ClassInvestment}: {From: -1, To: +1},

	// Repayment: paying into a loan reduces what is owed.
	{TypeTransfer, ClassAsset, ClassLoan}:      {From: -1, To: -1},
	{TypeTransfer, ClassInvestment, ClassLoan}: {From: -1, To: -1},

	// Drawdown: borrowing increases the liability and the receiving asset.
	{TypeTransfer, ClassLoan, ClassAsset}:      {From: +1, To: +1},
	{TypeTransfer, ClassLoan, ClassInvestment}: {From: +1, To: +1},

	// Refinance: the source loan grows, the destination loan shrinks.
	{TypeTransfer, ClassLoan, ClassLoan}: {From: +1, To: -1},
}

// Effects returns the balance multipliers for a transaction of the given type
// between the given account classes. For expense/income the destination class
// is ignored and To is zero.
func Effects(t TransactionType, from, to Class) SignPair {
	k := signKey{Type: t, From: from, To: to}
	if t != TypeTransfer {
		k.To = ""
	}
	return signTable[k]
}

// Sign returns the single-account sign for an expense/income type: -1 for
// expense, +1 for income, 0 otherwise. Used by the edit path to compute
// prev/next signs.
func Sign(t TransactionType) int64 {
	switch t {
	case TypeExpense:
		return -1
	case TypeIncome:
		return +1
	default:
		return 0
	}
}
