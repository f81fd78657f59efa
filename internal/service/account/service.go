// Package account implements the account service rules: immutable currency,
// editable descriptive fields, opening-balance synthesis and the guarded
// delete cascade.
package account

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/tinoosan/fintrack/internal/errs"
	"github.com/tinoosan/fintrack/internal/ledger"
	"github.com/tinoosan/fintrack/internal/tags"
)

// Repo defines read operations needed by the service.
type Repo interface {
	ListAccounts(ctx context.Context, userID uuid.UUID) ([]ledger.Account, error)
	GetAccount(ctx context.Context, userID, accountID uuid.UUID) (ledger.Account, error)
	CountTransactionsByAccount(ctx context.Context, userID, accountID uuid.UUID) (int, error)
}

// Writer defines write operations needed by the service. CreateTransaction is
// used only to record the synthetic Opening Balance; it does not move the
// balance, which is written directly at creation time.
type Writer interface {
	CreateAccount(ctx context.Context, a ledger.Account) (ledger.Account, error)
	UpdateAccount(ctx context.Context, a ledger.Account) (ledger.Account, error)
	DeleteAccount(ctx context.Context, userID, accountID uuid.UUID) error
	DeleteTransactionsByAccount(ctx context.Context, userID, accountID uuid.UUID) (int, error)
	CreateTransaction(ctx context.Context, t ledger.Transaction) (ledger.Transaction, error)
}

// CreateInput is the requested new account. The initial balance may be
// negative for asset-like accounts (overdraft) and is recorded via a
// synthetic Opening Balance transaction when non-zero.
type CreateInput struct {
	UserID              uuid.UUID
	Name                string
	Type                ledger.AccountType
	Currency            string
	Note                string
	InitialBalanceMinor int64
}

// DeleteResult reports what a delete removed.
type DeleteResult struct {
	TransactionsRemoved int
}

type Service interface {
	ValidateCreate(in CreateInput) error
	Create(ctx context.Context, in CreateInput) (ledger.Account, error)
	Get(ctx context.Context, userID, accountID uuid.UUID) (ledger.Account, error)
	List(ctx context.Context, userID uuid.UUID) ([]ledger.Account, error)
	Update(ctx context.Context, a ledger.Account) (ledger.Account, error)
	Delete(ctx context.Context, userID, accountID uuid.UUID, force bool) (DeleteResult, error)
}

type service struct {
	repo   Repo
	writer Writer
}

func New(repo Repo, writer Writer) Service { return &service{repo: repo, writer: writer} }

var validTypes = map[ledger.AccountType]struct{}{
	ledger.AccountTypeBank:       {},
	ledger.AccountTypeWallet:     {},
	ledger.AccountTypeCash:       {},
	ledger.AccountTypeInvestment: {},
	ledger.AccountTypeLoan:       {},
	ledger.AccountTypeCreditCard: {},
	ledger.AccountTypeOther:      {},
}

func (s *service) ValidateCreate(in CreateInput) error {
	if in.UserID == uuid.Nil {
		return errs.ErrInvalid
	}
	if strings.TrimSpace(in.Name) == "" {
		return errors.New("name is required")
	}
	if strings.TrimSpace(in.Currency) == "" {
		return errors.New("currency is required")
	}
	if _, ok := validTypes[in.Type]; !ok {
		return errors.New("invalid account type")
	}
	return nil
}

// Create persists the account with its initial balance and, when that balance
// is non-zero, records a synthetic Opening Balance transaction. On loan
// accounts a positive opening balance is typed as an expense so it does not
// inflate income, yet it still represents an increase of the amount owed.
func (s *service) Create(ctx context.Context, in CreateInput) (ledger.Account, error) {
	if err := s.ValidateCreate(in); err != nil {
		return ledger.Account{}, err
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	initialMinor := in.InitialBalanceMinor
	balance, err := money.NewAmountFromMinorUnits(currency, initialMinor)
	if err != nil {
		return ledger.Account{}, err
	}
	now := time.Now().UTC()
	acc := ledger.Account{
		ID:        uuid.New(),
		UserID:    in.UserID,
		Name:      strings.TrimSpace(in.Name),
		Type:      in.Type,
		Currency:  currency,
		Balance:   balance,
		Note:      in.Note,
		CreatedOn: now,
		UpdatedOn: now,
	}
	created, err := s.writer.CreateAccount(ctx, acc)
	if err != nil {
		return ledger.Account{}, err
	}
	if initialMinor != 0 {
		if err := s.recordOpeningBalance(ctx, created, initialMinor); err != nil {
			return created, err
		}
	}
	return created, nil
}

// recordOpeningBalance inserts the synthetic transaction documenting the
// account's starting balance. The balance itself was written at creation, so
// no delta is applied here.
func (s *service) recordOpeningBalance(ctx context.Context, acc ledger.Account, initialMinor int64) error {
	var txType ledger.TransactionType
	if acc.Class() == ledger.ClassLoan {
		// An opening debt is an expense-typed record; an opening credit on a
		// loan mirrors it as income.
		txType = ledger.TypeExpense
		if initialMinor < 0 {
			txType = ledger.TypeIncome
		}
	} else {
		txType = ledger.TypeIncome
		if initialMinor < 0 {
			txType = ledger.TypeExpense
		}
	}
	magnitude := initialMinor
	if magnitude < 0 {
		magnitude = -magnitude
	}
	amt, err := money.NewAmountFromMinorUnits(acc.Currency, magnitude)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err = s.writer.CreateTransaction(ctx, ledger.Transaction{
		ID:         uuid.New(),
		UserID:     acc.UserID,
		Type:       txType,
		AccountID:  acc.ID,
		Amount:     amt,
		Currency:   acc.Currency,
		Category:   ledger.CategoryOpeningBalance,
		Note:       "opening balance for " + acc.Name,
		Tags:       tags.New([]string{tags.Opening}),
		HappenedOn: now,
		CreatedOn:  now,
	})
	return err
}

func (s *service) Get(ctx context.Context, userID, accountID uuid.UUID) (ledger.Account, error) {
	if userID == uuid.Nil || accountID == uuid.Nil {
		return ledger.Account{}, errs.ErrInvalid
	}
	return s.repo.GetAccount(ctx, userID, accountID)
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]ledger.Account, error) {
	if userID == uuid.Nil {
		return nil, errs.ErrInvalid
	}
	return s.repo.ListAccounts(ctx, userID)
}

// Update applies allowed changes to name/type/note. Currency and balance are
// immutable through this path; balances move only via transactions.
func (s *service) Update(ctx context.Context, a ledger.Account) (ledger.Account, error) {
	if a.UserID == uuid.Nil || a.ID == uuid.Nil {
		return ledger.Account{}, errs.ErrInvalid
	}
	current, err := s.repo.GetAccount(ctx, a.UserID, a.ID)
	if err != nil {
		return ledger.Account{}, err
	}
	if a.Currency != "" && !strings.EqualFold(a.Currency, current.Currency) {
		return ledger.Account{}, errs.ErrImmutable
	}
	if strings.TrimSpace(a.Name) != "" {
		current.Name = strings.TrimSpace(a.Name)
	}
	if a.Type != "" {
		if _, ok := validTypes[a.Type]; !ok {
			return ledger.Account{}, errors.New("invalid account type")
		}
		// Retyping changes the class used by future balance math, including
		// the reversal of transfers created under the old class.
		current.Type = a.Type
	}
	current.Note = a.Note
	current.UpdatedOn = time.Now().UTC()
	return s.writer.UpdateAccount(ctx, current)
}

// Delete removes an account. With linked transactions it requires force and
// cascades into deleting them WITHOUT reversing their effects on
// counter-party balances.
func (s *service) Delete(ctx context.Context, userID, accountID uuid.UUID, force bool) (DeleteResult, error) {
	if userID == uuid.Nil || accountID == uuid.Nil {
		return DeleteResult{}, errs.ErrInvalid
	}
	if _, err := s.repo.GetAccount(ctx, userID, accountID); err != nil {
		return DeleteResult{}, err
	}
	n, err := s.repo.CountTransactionsByAccount(ctx, userID, accountID)
	if err != nil {
		return DeleteResult{}, err
	}
	if n > 0 && !force {
		return DeleteResult{}, errs.ErrConflict
	}
	removed := 0
	if n > 0 {
		removed, err = s.writer.DeleteTransactionsByAccount(ctx, userID, accountID)
		if err != nil {
			return DeleteResult{}, err
		}
	}
	if err := s.writer.DeleteAccount(ctx, userID, accountID); err != nil {
		return DeleteResult{TransactionsRemoved: removed}, err
	}
	return DeleteResult{TransactionsRemoved: removed}, nil
}
