package transaction

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"
	"golang.org/x/sync/errgroup"

	"github.com/tinoosan/fintrack/internal/errs"
	"github.com/tinoosan/fintrack/internal/ledger"
	"github.com/tinoosan/fintrack/internal/tags"
)

// Repo defines read operations needed by the service.
type Repo interface {
	FetchAccounts(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]ledger.Account, error)
	GetAccount(ctx context.Context, userID, accountID uuid.UUID) (ledger.Account, error)
	ListTransactions(ctx context.Context, userID uuid.UUID) ([]ledger.Transaction, error)
	GetTransaction(ctx context.Context, userID, txID uuid.UUID) (ledger.Transaction, error)
}

// Writer defines write operations needed by the service. ApplyBalanceDelta
// must be atomic per call; the service never does read-modify-write on
// balances.
type Writer interface {
	CreateTransaction(ctx context.Context, t ledger.Transaction) (ledger.Transaction, error)
	UpdateTransaction(ctx context.Context, t ledger.Transaction) (ledger.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, txID uuid.UUID) error
	ApplyBalanceDelta(ctx context.Context, userID, accountID uuid.UUID, deltaMinor int64) error
}

// EditInput carries the requested new state for an expense/income edit. The
// original record's amount/type/account are never rewritten; the engine
// reverses the old effect, applies the new one and logs one adjustment.
type EditInput struct {
	UserID      uuid.UUID
	TxID        uuid.UUID
	Type        ledger.TransactionType
	AccountID   uuid.UUID
	AmountMinor int64
	Category    ledger.Category
	Note        string
	Tags        tags.Tags
	HappenedOn  *time.Time
}

// EditResult reports the frozen original and the adjustment log, if one was
// created (never more than one, even when deltas span two accounts).
type EditResult struct {
	Transaction ledger.Transaction
	Adjustment  *ledger.Transaction
}

// AdjustmentsCreated returns 0 or 1 for the response envelope.
func (r EditResult) AdjustmentsCreated() int {
	if r.Adjustment != nil {
		return 1
	}
	return 0
}

// Service exposes the balance mutation engine: create, edit and delete of
// transactions with their account balance effects.
type Service interface {
	Validate(t ledger.Transaction) error
	Create(ctx context.Context, t ledger.Transaction) (ledger.Transaction, error)
	Edit(ctx context.Context, in EditInput) (EditResult, error)
	Delete(ctx context.Context, userID, txID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]ledger.Transaction, error)
	Get(ctx context.Context, userID, txID uuid.UUID) (ledger.Transaction, error)
}

type service struct {
	repo   Repo
	writer Writer
}

func New(repo Repo, writer Writer) Service { return &service{repo: repo, writer: writer} }

// Validate checks field-level invariants without touching the store.
func (s *service) Validate(t ledger.Transaction) error {
	if t.UserID == uuid.Nil {
		return errs.ErrInvalid
	}
	if units, _ := t.Amount.MinorUnits(); units <= 0 {
		return errors.New("amount must be > 0")
	}
	if err := t.Tags.Validate(); err != nil {
		return err
	}
	switch t.Type {
	case ledger.TypeExpense, ledger.TypeIncome:
		if t.AccountID == uuid.Nil {
			return errors.New("account_id is required")
		}
		if t.FromAccountID != uuid.Nil || t.ToAccountID != uuid.Nil {
			return errors.New("from/to account not allowed for " + string(t.Type))
		}
	case ledger.TypeTransfer:
		if t.Currency == "" {
			return errors.New("currency is required for transfer")
		}
		if t.AccountID != uuid.Nil {
			return errors.New("account_id not allowed for transfer")
		}
		if t.FromAccountID == uuid.Nil || t.ToAccountID == uuid.Nil {
			return errors.New("from_account_id and to_account_id are required")
		}
		if t.FromAccountID == t.ToAccountID {
			return errs.ErrSameAccount
		}
	default:
		return errors.New("type must be expense, income or transfer")
	}
	return nil
}

// Create validates, persists the record and applies the balance delta(s).
// Ordering: validate -> load accounts -> compute deltas -> persist -> apply.
// A failure before persistence aborts the whole operation; a failure during
// the increments leaves the record in place with a stale balance (accepted
// partial-failure mode, no rollback).
func (s *service) Create(ctx context.Context, t ledger.Transaction) (ledger.Transaction, error) {
	if err := s.Validate(t); err != nil {
		return ledger.Transaction{}, err
	}

	amt := t.AmountMinor()
	switch t.Type {
	case ledger.TypeExpense, ledger.TypeIncome:
		acc, err := s.repo.GetAccount(ctx, t.UserID, t.AccountID)
		if err != nil {
			return ledger.Transaction{}, err
		}
		if t.Currency != "" && t.Currency != acc.Currency {
			return ledger.Transaction{}, errs.ErrCurrencyMismatch
		}
		t.Currency = acc.Currency
		saved, err := s.persist(ctx, t)
		if err != nil {
			return ledger.Transaction{}, err
		}
		signs := ledger.Effects(t.Type, acc.Class(), "")
		if err := s.writer.ApplyBalanceDelta(ctx, t.UserID, acc.ID, signs.From*amt); err != nil {
			return saved, err
		}
		return saved, nil

	case ledger.TypeTransfer:
		accs, err := s.repo.FetchAccounts(ctx, t.UserID, []uuid.UUID{t.FromAccountID, t.ToAccountID})
		if err != nil {
			return ledger.Transaction{}, err
		}
		from, ok := accs[t.FromAccountID]
		if !ok {
			return ledger.Transaction{}, errs.ErrNotFound
		}
		to, ok := accs[t.ToAccountID]
		if !ok {
			return ledger.Transaction{}, errs.ErrNotFound
		}
		if from.Currency != to.Currency || t.Currency != from.Currency {
			return ledger.Transaction{}, errs.ErrCurrencyMismatch
		}
		signs := ledger.Effects(ledger.TypeTransfer, from.Class(), to.Class())
		// Loans can always go further into debt; only asset-like sources are
		// checked for cover.
		if from.Class() != ledger.ClassLoan && from.BalanceMinor() < amt {
			return ledger.Transaction{}, errs.ErrInsufficientFunds
		}
		t.Currency = from.Currency
		saved, err := s.persist(ctx, t)
		if err != nil {
			return ledger.Transaction{}, err
		}
		if err := s.applyPair(ctx, t.UserID, from.ID, signs.From*amt, to.ID, signs.To*amt); err != nil {
			return saved, err
		}
		return saved, nil
	}
	return ledger.Transaction{}, errs.ErrInvalid
}

// Edit reverses the previous effect and applies the requested one without
// rewriting the original record's amount/type/account, then logs at most one
// Edit Adjustment transaction for the net change.
func (s *service) Edit(ctx context.Context, in EditInput) (EditResult, error) {
	if in.UserID == uuid.Nil || in.TxID == uuid.Nil {
		return EditResult{}, errs.ErrInvalid
	}
	existing, err := s.repo.GetTransaction(ctx, in.UserID, in.TxID)
	if err != nil {
		return EditResult{}, err
	}
	// Transfers are frozen once created; so is retyping to/from transfer.
	if existing.Type == ledger.TypeTransfer || in.Type == ledger.TypeTransfer {
		return EditResult{}, errs.ErrTransferImmutable
	}
	if in.Type != ledger.TypeExpense && in.Type != ledger.TypeIncome {
		return EditResult{}, errors.New("type must be expense or income")
	}
	nextAmt := in.AmountMinor
	if nextAmt <= 0 {
		return EditResult{}, errors.New("amount must be > 0")
	}
	if err := in.Tags.Validate(); err != nil {
		return EditResult{}, err
	}

	prevID := existing.AccountID
	nextID := in.AccountID
	if nextID == uuid.Nil {
		nextID = prevID
	}
	accs, err := s.repo.FetchAccounts(ctx, in.UserID, []uuid.UUID{prevID, nextID})
	if err != nil {
		return EditResult{}, err
	}
	if _, ok := accs[prevID]; !ok {
		return EditResult{}, errs.ErrNotFound
	}
	_, ok := accs[nextID]
	if !ok {
		return EditResult{}, errs.ErrNotFound
	}

	prevSign := ledger.Sign(existing.Type)
	nextSign := ledger.Sign(in.Type)
	reverseDelta := -prevSign * existing.AmountMinor()
	applyDelta := nextSign * nextAmt

	// The two legs may target different accounts, so there is no ordering
	// dependency between them.
	if err := s.applyPair(ctx, in.UserID, prevID, reverseDelta, nextID, applyDelta); err != nil {
		return EditResult{}, err
	}

	// Aggregate net deltas per account to pick the single adjustment target.
	net := map[uuid.UUID]int64{prevID: reverseDelta}
	net[nextID] += applyDelta

	chosen := nextID
	for _, id := range []uuid.UUID{prevID, nextID} {
		if net[id] > 0 {
			chosen = id
			break
		}
	}
	chosenAcc := accs[chosen]

	var adjustment *ledger.Transaction
	if delta := net[chosen]; delta != 0 {
		adj, err := s.logAdjustment(ctx, existing, chosenAcc, delta)
		if err != nil {
			return EditResult{}, err
		}
		adjustment = &adj
	}

	// Descriptive fields may change; amount/type/account stay frozen.
	if in.Category != "" {
		existing.Category = in.Category
	}
	existing.Note = in.Note
	if in.Tags != nil {
		existing.Tags = in.Tags
	}
	if in.HappenedOn != nil {
		existing.HappenedOn = in.HappenedOn.UTC()
	}
	updated, err := s.writer.UpdateTransaction(ctx, existing)
	if err != nil {
		return EditResult{}, err
	}
	return EditResult{Transaction: updated, Adjustment: adjustment}, nil
}

// logAdjustment inserts the compensating Edit Adjustment record. It documents
// the net effect only; the balance was already moved by the edit legs.
func (s *service) logAdjustment(ctx context.Context, orig ledger.Transaction, acc ledger.Account, deltaMinor int64) (ledger.Transaction, error) {
	adjType := ledger.TypeIncome
	note := "add back to " + acc.Name
	if deltaMinor < 0 {
		adjType = ledger.TypeExpense
		note = "deduct from " + acc.Name
		deltaMinor = -deltaMinor
	}
	// Increasing a loan is not income; the polarity inverts on loan accounts.
	if acc.Class() == ledger.ClassLoan {
		if adjType == ledger.TypeIncome {
			adjType = ledger.TypeExpense
		} else {
			adjType = ledger.TypeIncome
		}
	}
	amt, err := money.NewAmountFromMinorUnits(acc.Currency, deltaMinor)
	if err != nil {
		return ledger.Transaction{}, err
	}
	now := time.Now().UTC()
	adj := ledger.Transaction{
		ID:         uuid.New(),
		UserID:     orig.UserID,
		Type:       adjType,
		AccountID:  acc.ID,
		Amount:     amt,
		Currency:   acc.Currency,
		Category:   ledger.CategoryEditAdjustment,
		Note:       note,
		Tags:       tags.New([]string{tags.Adjustment, tags.Link(orig.ID.String())}),
		HappenedOn: now,
		CreatedOn:  now,
	}
	return s.writer.CreateTransaction(ctx, adj)
}

// Delete reverses the original create-time effect exactly, then removes the
// record. Transfer reversal re-derives loan/asset classes from the accounts'
// current types, not the types at creation time.
func (s *service) Delete(ctx context.Context, userID, txID uuid.UUID) error {
	if userID == uuid.Nil || txID == uuid.Nil {
		return errs.ErrInvalid
	}
	existing, err := s.repo.GetTransaction(ctx, userID, txID)
	if err != nil {
		return err
	}
	amt := existing.AmountMinor()
	switch existing.Type {
	case ledger.TypeExpense, ledger.TypeIncome:
		if err := s.writer.ApplyBalanceDelta(ctx, userID, existing.AccountID, -ledger.Sign(existing.Type)*amt); err != nil {
			return err
		}
	case ledger.TypeTransfer:
		accs, err := s.repo.FetchAccounts(ctx, userID, []uuid.UUID{existing.FromAccountID, existing.ToAccountID})
		if err != nil {
			return err
		}
		from, ok := accs[existing.FromAccountID]
		if !ok {
			return errs.ErrNotFound
		}
		to, ok := accs[existing.ToAccountID]
		if !ok {
			return errs.ErrNotFound
		}
		signs := ledger.Effects(ledger.TypeTransfer, from.Class(), to.Class())
		if err := s.applyPair(ctx, userID, from.ID, -signs.From*amt, to.ID, -signs.To*amt); err != nil {
			return err
		}
	}
	return s.writer.DeleteTransaction(ctx, userID, txID)
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]ledger.Transaction, error) {
	if userID == uuid.Nil {
		return nil, errs.ErrInvalid
	}
	return s.repo.ListTransactions(ctx, userID)
}

func (s *service) Get(ctx context.Context, userID, txID uuid.UUID) (ledger.Transaction, error) {
	if userID == uuid.Nil || txID == uuid.Nil {
		return ledger.Transaction{}, errs.ErrInvalid
	}
	return s.repo.GetTransaction(ctx, userID, txID)
}

// persist assigns identity and timestamps and writes the record.
func (s *service) persist(ctx context.Context, t ledger.Transaction) (ledger.Transaction, error) {
	t.ID = uuid.New()
	now := time.Now().UTC()
	if t.HappenedOn.IsZero() {
		t.HappenedOn = now
	}
	t.CreatedOn = now
	if t.Category == "" {
		t.Category = ledger.CategoryUncategorized
	}
	return s.writer.CreateTransaction(ctx, t)
}

// applyPair issues the two account increments concurrently. There is no
// ordering guarantee between them and no rollback of the survivor if one
// fails.
func (s *service) applyPair(ctx context.Context, userID, aID uuid.UUID, aDelta int64, bID uuid.UUID, bDelta int64) error {
	var g errgroup.Group
	g.Go(func() error { return s.writer.ApplyBalanceDelta(ctx, userID, aID, aDelta) })
	g.Go(func() error { return s.writer.ApplyBalanceDelta(ctx, userID, bID, bDelta) })
	return g.Wait()
}
