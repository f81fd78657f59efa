package transaction

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/tinoosan/fintrack/internal/errs"
	"github.com/tinoosan/fintrack/internal/ledger"
	"github.com/tinoosan/fintrack/internal/storage/memory"
	"github.com/tinoosan/fintrack/internal/tags"
)

func amount(t *testing.T, currency string, minor int64) money.Amount {
	t.Helper()
	a, err := money.NewAmountFromMinorUnits(currency, minor)
	if err != nil {
		t.Fatalf("amount: %v", err)
	}
	return a
}

func seedAccount(t *testing.T, store *memory.Store, userID uuid.UUID, name string, typ ledger.AccountType, currency string, balanceMinor int64) ledger.Account {
	t.Helper()
	now := time.Now().UTC()
	a := ledger.Account{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		Type:      typ,
		Currency:  currency,
		Balance:   amount(t, currency, balanceMinor),
		CreatedOn: now,
		UpdatedOn: now,
	}
	store.SeedAccount(a)
	return a
}

func balanceOf(t *testing.T, store *memory.Store, userID, accountID uuid.UUID) int64 {
	t.Helper()
	a, err := store.GetAccount(context.Background(), userID, accountID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	return a.BalanceMinor()
}

func setup(t *testing.T) (*memory.Store, Service, uuid.UUID) {
	t.Helper()
	store := memory.New()
	userID := uuid.New()
	store.SeedUser(ledger.User{ID: userID})
	return store, New(store, store), userID
}

func TestCreateExpenseAndDeleteRestoresBalance(t *testing.T) {
	store, svc, userID := setup(t)
	acc := seedAccount(t, store, userID, "Bank", ledger.AccountTypeBank, "USD", 10000)

	saved, err := svc.Create(context.Background(), ledger.Transaction{
		UserID:    userID,
		Type:      ledger.TypeExpense,
		AccountID: acc.ID,
		Amount:    amount(t, "USD", 2500),
		Currency:  "USD",
		Category:  ledger.CategoryGroceries,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := balanceOf(t, store, userID, acc.ID); got != 7500 {
		t.Fatalf("balance after expense = %d, want 7500", got)
	}

	if err := svc.Delete(context.Background(), userID, saved.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := balanceOf(t, store, userID, acc.ID); got != 10000 {
		t.Fatalf("balance after delete = %d, want 10000", got)
	}
	if _, err := store.GetTransaction(context.Background(), userID, saved.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("transaction should be gone, got err=%v", err)
	}
}

func TestCreateIncomeAndDeleteRestoresBalance(t *testing.T) {
	store, svc, userID := setup(t)
	acc := seedAccount(t, store, userID, "Bank", ledger.AccountTypeBank, "USD", 1000)

	saved, err := svc.Create(context.Background(), ledger.Transaction{
		UserID:    userID,
		Type:      ledger.TypeIncome,
		AccountID: acc.ID,
		Amount:    amount(t, "USD", 500),
		Currency:  "USD",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := balanceOf(t, store, userID, acc.ID); got != 1500 {
		t.Fatalf("balance after income = %d, want 1500", got)
	}
	if err := svc.Delete(context.Background(), userID, saved.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := balanceOf(t, store, userID, acc.ID); got != 1000 {
		t.Fatalf("balance after delete = %d, want 1000", got)
	}
}

func TestTransferSignRules(t *testing.T) {
	cases := []struct {
		name                 string
		fromType, toType     ledger.AccountType
		wantFrom, wantTo     int64
		fromStart, toStart   int64
		transferAmount       int64
	}{
		{"asset to asset", ledger.AccountTypeBank, ledger.AccountTypeWallet, 7000, 4000, 10000, 1000, 3000},
		{"asset to loan repayment", ledger.AccountTypeBank, ledger.AccountTypeLoan, 7000, 47000, 10000, 50000, 3000},
		{"loan to asset drawdown", ledger.AccountTypeLoan, ledger.AccountTypeBank, 53000, 4000, 50000, 1000, 3000},
		{"loan to loan refinance", ledger.AccountTypeLoan, ledger.AccountTypeCreditCard, 53000, 47000, 50000, 50000, 3000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store, svc, userID := setup(t)
			from := seedAccount(t, store, userID, "From", tc.fromType, "USD", tc.fromStart)
			to := seedAccount(t, store, userID, "To", tc.toType, "USD", tc.toStart)

			_, err := svc.Create(context.Background(), ledger.Transaction{
				UserID:        userID,
				Type:          ledger.TypeTransfer,
				FromAccountID: from.ID,
				ToAccountID:   to.ID,
				Amount:        amount(t, "USD", tc.transferAmount),
				Currency:      "USD",
			})
			if err != nil {
				t.Fatalf("create transfer: %v", err)
			}
			if got := balanceOf(t, store, userID, from.ID); got != tc.wantFrom {
				t.Errorf("from balance = %d, want %d", got, tc.wantFrom)
			}
			if got := balanceOf(t, store, userID, to.ID); got != tc.wantTo {
				t.Errorf("to balance = %d, want %d", got, tc.wantTo)
			}
		})
	}
}

func TestTransferDeleteReversesExactly(t *testing.T) {
	store, svc, userID := setup(t)
	from := seedAccount(t, store, userID, "Bank", ledger.AccountTypeBank, "USD", 10000)
	to := seedAccount(t, store, userID, "Loan", ledger.AccountTypeLoan, "USD", 50000)

	saved, err := svc.Create(context.Background(), ledger.Transaction{
		UserID:        userID,
		Type:          ledger.TypeTransfer,
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
		Amount:        amount(t, "USD", 2000),
		Currency:      "USD",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(context.Background(), userID, saved.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := balanceOf(t, store, userID, from.ID); got != 10000 {
		t.Errorf("from balance = %d, want 10000", got)
	}
	if got := balanceOf(t, store, userID, to.ID); got != 50000 {
		t.Errorf("to balance = %d, want 50000", got)
	}
}

// Retyping an account after a transfer means the reversal runs under the NEW
// class, not the class at creation time. The mis-reversal is observable
// behavior, kept on purpose.
func TestTransferDeleteUsesCurrentAccountTypes(t *testing.T) {
	store, svc, userID := setup(t)
	from := seedAccount(t, store, userID, "Bank", ledger.AccountTypeBank, "USD", 10000)
	to := seedAccount(t, store, userID, "Savings", ledger.AccountTypeBank, "USD", 1000)

	saved, err := svc.Create(context.Background(), ledger.Transaction{
		UserID:        userID,
		Type:          ledger.TypeTransfer,
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
		Amount:        amount(t, "USD", 1000),
		Currency:      "USD",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// from 9000, to 2000. Retype the destination to a loan, then delete.
	toAcc, _ := store.GetAccount(context.Background(), userID, to.ID)
	toAcc.Type = ledger.AccountTypeLoan
	if _, err := store.UpdateAccount(context.Background(), toAcc); err != nil {
		t.Fatalf("retype: %v", err)
	}
	if err := svc.Delete(context.Background(), userID, saved.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	// Loan reversal adds back on both sides: from 10000, to 3000 (not 1000).
	if got := balanceOf(t, store, userID, from.ID); got != 10000 {
		t.Errorf("from balance = %d, want 10000", got)
	}
	if got := balanceOf(t, store, userID, to.ID); got != 3000 {
		t.Errorf("to balance = %d, want 3000", got)
	}
}

func TestTransferInsufficientFunds(t *testing.T) {
	store, svc, userID := setup(t)
	from := seedAccount(t, store, userID, "Bank", ledger.AccountTypeBank, "USD", 1000)
	to := seedAccount(t, store, userID, "Wallet", ledger.AccountTypeWallet, "USD", 0)

	_, err := svc.Create(context.Background(), ledger.Transaction{
		UserID:        userID,
		Type:          ledger.TypeTransfer,
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
		Amount:        amount(t, "USD", 5000),
		Currency:      "USD",
	})
	if !errors.Is(err, errs.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if balanceOf(t, store, userID, from.ID) != 1000 || balanceOf(t, store, userID, to.ID) != 0 {
		t.Fatal("balances must not change on rejected transfer")
	}
	if txs, _ := store.ListTransactions(context.Background(), userID); len(txs) != 0 {
		t.Fatalf("no transaction should be persisted, got %d", len(txs))
	}
}

func TestTransferFromLoanSkipsFundsCheck(t *testing.T) {
	store, svc, userID := setup(t)
	from := seedAccount(t, store, userID, "Loan", ledger.AccountTypeLoan, "USD", 0)
	to := seedAccount(t, store, userID, "Bank", ledger.AccountTypeBank, "USD", 0)

	if _, err := svc.Create(context.Background(), ledger.Transaction{
		UserID:        userID,
		Type:          ledger.TypeTransfer,
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
		Amount:        amount(t, "USD", 9999),
		Currency:      "USD",
	}); err != nil {
		t.Fatalf("loan drawdown should not require cover: %v", err)
	}
	if got := balanceOf(t, store, userID, from.ID); got != 9999 {
		t.Errorf("loan balance = %d, want 9999", got)
	}
}

func TestTransferCrossCurrencyRejected(t *testing.T) {
	store, svc, userID := setup(t)
	from := seedAccount(t, store, userID, "Bank", ledger.AccountTypeBank, "USD", 10000)
	to := seedAccount(t, store, userID, "Euro", ledger.AccountTypeBank, "EUR", 0)

	_, err := svc.Create(context.Background(), ledger.Transaction{
		UserID:        userID,
		Type:          ledger.TypeTransfer,
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
		Amount:        amount(t, "USD", 1000),
		Currency:      "USD",
	})
	if !errors.Is(err, errs.ErrCurrencyMismatch) {
		t.Fatalf("expected currency mismatch, got %v", err)
	}
	if balanceOf(t, store, userID, from.ID) != 10000 || balanceOf(t, store, userID, to.ID) != 0 {
		t.Fatal("balances must not change on rejected transfer")
	}
}

func TestValidateRejectsSameAccountTransfer(t *testing.T) {
	_, svc, userID := setup(t)
	id := uuid.New()
	err := svc.Validate(ledger.Transaction{
		UserID:        userID,
		Type:          ledger.TypeTransfer,
		FromAccountID: id,
		ToAccountID:   id,
		Amount:        amount(t, "USD", 100),
		Currency:      "USD",
	})
	if !errors.Is(err, errs.ErrSameAccount) {
		t.Fatalf("expected same-account error, got %v", err)
	}
}

func TestEditSameAccountCreatesOneAdjustment(t *testing.T) {
	store, svc, userID := setup(t)
	acc := seedAccount(t, store, userID, "Bank", ledger.AccountTypeBank, "USD", 100000)

	orig, err := svc.Create(context.Background(), ledger.Transaction{
		UserID:    userID,
		Type:      ledger.TypeExpense,
		AccountID: acc.ID,
		Amount:    amount(t, "USD", 10000),
		Currency:  "USD",
		Category:  ledger.CategoryShopping,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// 100 -> 150: net additional -50 on the same account.
	res, err := svc.Edit(context.Background(), EditInput{
		UserID:      userID,
		TxID:        orig.ID,
		Type:        ledger.TypeExpense,
		AccountID:   acc.ID,
		AmountMinor: 15000,
	})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if res.AdjustmentsCreated() != 1 {
		t.Fatalf("adjustments = %d, want 1", res.AdjustmentsCreated())
	}
	adj := res.Adjustment
	if adj.Category != ledger.CategoryEditAdjustment {
		t.Errorf("adjustment category = %q", adj.Category)
	}
	if adj.Type != ledger.TypeExpense || adj.AmountMinor() != 5000 {
		t.Errorf("adjustment = %s %d, want expense 5000", adj.Type, adj.AmountMinor())
	}
	if !adj.Tags.Has(tags.Adjustment) {
		t.Error("adjustment tag missing")
	}
	if linked, found := adj.Tags.LinkedID(); !found || linked != orig.ID.String() {
		t.Errorf("link tag = %q, %v", linked, found)
	}
	if got := balanceOf(t, store, userID, acc.ID); got != 85000 {
		t.Fatalf("balance = %d, want 85000", got)
	}
	// The original record's amount/type stay frozen.
	stored, err := store.GetTransaction(context.Background(), userID, orig.ID)
	if err != nil {
		t.Fatalf("get original: %v", err)
	}
	if stored.AmountMinor() != 10000 || stored.Type != ledger.TypeExpense {
		t.Fatalf("original mutated: %s %d", stored.Type, stored.AmountMinor())
	}
}

func TestEditAcrossAccountsPrefersPositiveDelta(t *testing.T) {
	store, svc, userID := setup(t)
	a := seedAccount(t, store, userID, "Account A", ledger.AccountTypeBank, "USD", 10000)
	b := seedAccount(t, store, userID, "Account B", ledger.AccountTypeBank, "USD", 10000)

	orig, err := svc.Create(context.Background(), ledger.Transaction{
		UserID:    userID,
		Type:      ledger.TypeExpense,
		AccountID: a.ID,
		Amount:    amount(t, "USD", 3000),
		Currency:  "USD",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// Move the expense to account B: A gets +3000 back, B takes -3000.
	res, err := svc.Edit(context.Background(), EditInput{
		UserID:      userID,
		TxID:        orig.ID,
		Type:        ledger.TypeExpense,
		AccountID:   b.ID,
		AmountMinor: 3000,
	})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if got := balanceOf(t, store, userID, a.ID); got != 10000 {
		t.Errorf("account A balance = %d, want 10000", got)
	}
	if got := balanceOf(t, store, userID, b.ID); got != 7000 {
		t.Errorf("account B balance = %d, want 7000", got)
	}
	// One adjustment only, attributed to the positive-delta account (A).
	if res.AdjustmentsCreated() != 1 {
		t.Fatalf("adjustments = %d, want 1", res.AdjustmentsCreated())
	}
	if res.Adjustment.AccountID != a.ID {
		t.Errorf("adjustment on %s, want account A", res.Adjustment.AccountID)
	}
	if res.Adjustment.Type != ledger.TypeIncome || res.Adjustment.AmountMinor() != 3000 {
		t.Errorf("adjustment = %s %d, want income 3000", res.Adjustment.Type, res.Adjustment.AmountMinor())
	}
}

// Increasing a loan balance is not income: the adjustment polarity inverts on
// loan accounts.
func TestEditLoanInvertsAdjustmentPolarity(t *testing.T) {
	store, svc, userID := setup(t)
	loan := seedAccount(t, store, userID, "Loan", ledger.AccountTypeLoan, "USD", 50000)

	orig, err := svc.Create(context.Background(), ledger.Transaction{
		UserID:    userID,
		Type:      ledger.TypeIncome,
		AccountID: loan.ID,
		Amount:    amount(t, "USD", 10000),
		Currency:  "USD",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	res, err := svc.Edit(context.Background(), EditInput{
		UserID:      userID,
		TxID:        orig.ID,
		Type:        ledger.TypeIncome,
		AccountID:   loan.ID,
		AmountMinor: 15000,
	})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if res.AdjustmentsCreated() != 1 {
		t.Fatalf("adjustments = %d, want 1", res.AdjustmentsCreated())
	}
	// Net delta +5000 would be income on an asset; on a loan it flips.
	if res.Adjustment.Type != ledger.TypeExpense || res.Adjustment.AmountMinor() != 5000 {
		t.Fatalf("adjustment = %s %d, want expense 5000", res.Adjustment.Type, res.Adjustment.AmountMinor())
	}
}

func TestEditNoChangeCreatesNoAdjustment(t *testing.T) {
	store, svc, userID := setup(t)
	acc := seedAccount(t, store, userID, "Bank", ledger.AccountTypeBank, "USD", 10000)

	orig, err := svc.Create(context.Background(), ledger.Transaction{
		UserID:    userID,
		Type:      ledger.TypeExpense,
		AccountID: acc.ID,
		Amount:    amount(t, "USD", 1000),
		Currency:  "USD",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	res, err := svc.Edit(context.Background(), EditInput{
		UserID:      userID,
		TxID:        orig.ID,
		Type:        ledger.TypeExpense,
		AccountID:   acc.ID,
		AmountMinor: 1000,
		Note:        "same amount, new note",
	})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if res.AdjustmentsCreated() != 0 {
		t.Fatalf("adjustments = %d, want 0", res.AdjustmentsCreated())
	}
	if got := balanceOf(t, store, userID, acc.ID); got != 9000 {
		t.Fatalf("balance = %d, want 9000", got)
	}
	if res.Transaction.Note != "same amount, new note" {
		t.Fatalf("note not updated: %q", res.Transaction.Note)
	}
}

func TestEditTransferRejected(t *testing.T) {
	store, svc, userID := setup(t)
	from := seedAccount(t, store, userID, "Bank", ledger.AccountTypeBank, "USD", 10000)
	to := seedAccount(t, store, userID, "Wallet", ledger.AccountTypeWallet, "USD", 0)

	transfer, err := svc.Create(context.Background(), ledger.Transaction{
		UserID:        userID,
		Type:          ledger.TypeTransfer,
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
		Amount:        amount(t, "USD", 1000),
		Currency:      "USD",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err = svc.Edit(context.Background(), EditInput{
		UserID:      userID,
		TxID:        transfer.ID,
		Type:        ledger.TypeExpense,
		AmountMinor: 500,
	})
	if !errors.Is(err, errs.ErrTransferImmutable) {
		t.Fatalf("expected transfer-immutable error, got %v", err)
	}

	expense, err := svc.Create(context.Background(), ledger.Transaction{
		UserID:    userID,
		Type:      ledger.TypeExpense,
		AccountID: from.ID,
		Amount:    amount(t, "USD", 100),
		Currency:  "USD",
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}
	_, err = svc.Edit(context.Background(), EditInput{
		UserID:      userID,
		TxID:        expense.ID,
		Type:        ledger.TypeTransfer,
		AmountMinor: 100,
	})
	if !errors.Is(err, errs.ErrTransferImmutable) {
		t.Fatalf("expected transfer-immutable error on retype, got %v", err)
	}
}

func TestOperationsAreUserScoped(t *testing.T) {
	store, svc, userID := setup(t)
	other := uuid.New()
	store.SeedUser(ledger.User{ID: other})
	acc := seedAccount(t, store, userID, "Bank", ledger.AccountTypeBank, "USD", 10000)

	_, err := svc.Create(context.Background(), ledger.Transaction{
		UserID:    other,
		Type:      ledger.TypeExpense,
		AccountID: acc.ID,
		Amount:    amount(t, "USD", 100),
		Currency:  "USD",
	})
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("foreign account must be invisible, got %v", err)
	}
}
