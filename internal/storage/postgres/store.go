// Package postgres provides a pgx-backed storage implementation that satisfies
// the repository and writer interfaces used by the HTTP API and services.
//
// It is intentionally small and explicit. Migrations that create the expected
// schema live under db/migrations. Balances are stored as bigint minor units
// and only ever move through the atomic increment in ApplyBalanceDelta.
package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/govalues/money"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tinoosan/fintrack/internal/errs"
	"github.com/tinoosan/fintrack/internal/ledger"
	"github.com/tinoosan/fintrack/internal/tags"
)

// Store holds a pgx connection pool and implements the read/write interfaces
// used across the service layer. All methods are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// Open establishes a pgx pool using the provided connection string.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ready pings the pool to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

const accountCols = `id, user_id, name, type, currency, balance_minor, note, created_on, updated_on`

func scanAccount(row pgx.Row) (ledger.Account, error) {
	var a ledger.Account
	var balanceMinor int64
	if err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &a.Currency, &balanceMinor, &a.Note, &a.CreatedOn, &a.UpdatedOn); err != nil {
		return ledger.Account{}, err
	}
	bal, err := money.NewAmountFromMinorUnits(a.Currency, balanceMinor)
	if err != nil {
		return ledger.Account{}, err
	}
	a.Balance = bal
	return a, nil
}

// --- Account reads ---

// FetchAccounts returns accounts for a user filtered by IDs.
func (s *Store) FetchAccounts(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]ledger.Account, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]ledger.Account{}, nil
	}
	rows, err := s.pool.Query(ctx, `
        select `+accountCols+`
        from accounts
        where user_id = $1 and id = any($2)
    `, userID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[uuid.UUID]ledger.Account)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out[a.ID] = a
	}
	return out, rows.Err()
}

// ListAccounts returns all accounts for a user.
func (s *Store) ListAccounts(ctx context.Context, userID uuid.UUID) ([]ledger.Account, error) {
	rows, err := s.pool.Query(ctx, `
        select `+accountCols+`
        from accounts
        where user_id = $1
        order by created_on asc, id asc
    `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetAccount fetches a single account by id for a user.
func (s *Store) GetAccount(ctx context.Context, userID, accountID uuid.UUID) (ledger.Account, error) {
	row := s.pool.QueryRow(ctx, `
        select `+accountCols+`
        from accounts
        where id = $1 and user_id = $2
    `, accountID, userID)
	a, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Account{}, errs.ErrNotFound
	}
	if err != nil {
		return ledger.Account{}, err
	}
	return a, nil
}

// --- Account writes ---

// CreateAccount inserts an account row.
func (s *Store) CreateAccount(ctx context.Context, a ledger.Account) (ledger.Account, error) {
	_, err := s.pool.Exec(ctx, `
        insert into accounts (`+accountCols+`)
        values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    `, a.ID, a.UserID, a.Name, a.Type, a.Currency, a.BalanceMinor(), a.Note, a.CreatedOn, a.UpdatedOn)
	if err != nil {
		return ledger.Account{}, err
	}
	return a, nil
}

// UpdateAccount updates descriptive fields (name, type, note). The balance
// column is owned by ApplyBalanceDelta.
func (s *Store) UpdateAccount(ctx context.Context, a ledger.Account) (ledger.Account, error) {
	ct, err := s.pool.Exec(ctx, `
        update accounts
        set name=$1, type=$2, note=$3, updated_on=$4
        where id=$5 and user_id=$6
    `, a.Name, a.Type, a.Note, a.UpdatedOn, a.ID, a.UserID)
	if err != nil {
		return ledger.Account{}, err
	}
	if ct.RowsAffected() == 0 {
		return ledger.Account{}, errs.ErrNotFound
	}
	return a, nil
}

// DeleteAccount removes an account row.
func (s *Store) DeleteAccount(ctx context.Context, userID, accountID uuid.UUID) error {
	ct, err := s.pool.Exec(ctx, `
        delete from accounts where id=$1 and user_id=$2
    `, accountID, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// ApplyBalanceDelta increments the balance in one atomic statement, the SQL
// analogue of a $inc, so concurrent writers to the same account cannot lose
// updates.
func (s *Store) ApplyBalanceDelta(ctx context.Context, userID, accountID uuid.UUID, deltaMinor int64) error {
	ct, err := s.pool.Exec(ctx, `
        update accounts
        set balance_minor = balance_minor + $1, updated_on = now()
        where id = $2 and user_id = $3
    `, deltaMinor, accountID, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

const txCols = `id, user_id, type, account_id, from_account_id, to_account_id, amount_minor, currency, category, note, tags, happened_on, created_on`

func scanTransaction(row pgx.Row) (ledger.Transaction, error) {
	var t ledger.Transaction
	var accountID, fromID, toID *uuid.UUID
	var amountMinor int64
	var tagList []string
	if err := row.Scan(&t.ID, &t.UserID, &t.Type, &accountID, &fromID, &toID, &amountMinor, &t.Currency, &t.Category, &t.Note, &tagList, &t.HappenedOn, &t.CreatedOn); err != nil {
		return ledger.Transaction{}, err
	}
	if accountID != nil {
		t.AccountID = *accountID
	}
	if fromID != nil {
		t.FromAccountID = *fromID
	}
	if toID != nil {
		t.ToAccountID = *toID
	}
	amt, err := money.NewAmountFromMinorUnits(t.Currency, amountMinor)
	if err != nil {
		return ledger.Transaction{}, err
	}
	t.Amount = amt
	t.Tags = tags.Tags(tagList)
	return t, nil
}

func nullable(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

// --- Transaction reads ---

// ListTransactions returns transactions for a user ordered by (happened_on, id).
func (s *Store) ListTransactions(ctx context.Context, userID uuid.UUID) ([]ledger.Transaction, error) {
	rows, err := s.pool.Query(ctx, `
        select `+txCols+`
        from transactions
        where user_id = $1
        order by happened_on asc, id asc
    `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// TransactionsByAccount returns the user's transactions touching the account
// on any side.
func (s *Store) TransactionsByAccount(ctx context.Context, userID, accountID uuid.UUID) ([]ledger.Transaction, error) {
	rows, err := s.pool.Query(ctx, `
        select `+txCols+`
        from transactions
        where user_id = $1 and (account_id = $2 or from_account_id = $2 or to_account_id = $2)
        order by happened_on asc, id asc
    `, userID, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetTransaction returns a single transaction for a user.
func (s *Store) GetTransaction(ctx context.Context, userID, txID uuid.UUID) (ledger.Transaction, error) {
	row := s.pool.QueryRow(ctx, `
        select `+txCols+`
        from transactions
        where id = $1 and user_id = $2
    `, txID, userID)
	t, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Transaction{}, errs.ErrNotFound
	}
	if err != nil {
		return ledger.Transaction{}, err
	}
	return t, nil
}

// CountTransactionsByAccount counts rows referencing the account on any side.
func (s *Store) CountTransactionsByAccount(ctx context.Context, userID, accountID uuid.UUID) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
        select count(*) from transactions
        where user_id = $1 and (account_id = $2 or from_account_id = $2 or to_account_id = $2)
    `, userID, accountID).Scan(&n)
	return n, err
}

// --- Transaction writes ---

// CreateTransaction inserts a transaction row.
func (s *Store) CreateTransaction(ctx context.Context, t ledger.Transaction) (ledger.Transaction, error) {
	_, err := s.pool.Exec(ctx, `
        insert into transactions (`+txCols+`)
        values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
    `, t.ID, t.UserID, t.Type, nullable(t.AccountID), nullable(t.FromAccountID), nullable(t.ToAccountID),
		t.AmountMinor(), t.Currency, t.Category, t.Note, []string(t.Tags), t.HappenedOn, t.CreatedOn)
	if err != nil {
		return ledger.Transaction{}, err
	}
	return t, nil
}

// UpdateTransaction rewrites descriptive fields of a transaction. The
// amount/type/account columns stay frozen; the service never asks for more.
func (s *Store) UpdateTransaction(ctx context.Context, t ledger.Transaction) (ledger.Transaction, error) {
	ct, err := s.pool.Exec(ctx, `
        update transactions
        set category=$1, note=$2, tags=$3, happened_on=$4
        where id=$5 and user_id=$6
    `, t.Category, t.Note, []string(t.Tags), t.HappenedOn, t.ID, t.UserID)
	if err != nil {
		return ledger.Transaction{}, err
	}
	if ct.RowsAffected() == 0 {
		return ledger.Transaction{}, errs.ErrNotFound
	}
	return t, nil
}

// DeleteTransaction removes a transaction row.
func (s *Store) DeleteTransaction(ctx context.Context, userID, txID uuid.UUID) error {
	ct, err := s.pool.Exec(ctx, `
        delete from transactions where id=$1 and user_id=$2
    `, txID, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// DeleteTransactionsByAccount removes every row referencing the account on
// any side, returning how many were removed. No balance reversal happens
// here; this backs the force-delete cascade.
func (s *Store) DeleteTransactionsByAccount(ctx context.Context, userID, accountID uuid.UUID) (int, error) {
	ct, err := s.pool.Exec(ctx, `
        delete from transactions
        where user_id = $1 and (account_id = $2 or from_account_id = $2 or to_account_id = $2)
    `, userID, accountID)
	if err != nil {
		return 0, err
	}
	return int(ct.RowsAffected()), nil
}

// --- Idempotency ---

// GetTransactionByIdempotencyKey resolves a transaction by idempotency key.
func (s *Store) GetTransactionByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (ledger.Transaction, bool, error) {
	var id uuid.UUID
	err := s.pool.QueryRow(ctx, `
        select transaction_id from tx_idempotency where user_id=$1 and key=$2
    `, userID, key).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Transaction{}, false, nil
	}
	if err != nil {
		return ledger.Transaction{}, false, err
	}
	t, err := s.GetTransaction(ctx, userID, id)
	if err != nil {
		return ledger.Transaction{}, false, err
	}
	return t, true, nil
}

// SaveIdempotencyKey stores a mapping from (user, key) to transaction id.
func (s *Store) SaveIdempotencyKey(ctx context.Context, userID uuid.UUID, key string, txID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `
        insert into tx_idempotency (user_id, key, transaction_id)
        values ($1,$2,$3)
        on conflict (user_id, key) do nothing
    `, userID, key, txID)
	return err
}

// SeedDev inserts a single user and two accounts (Main Bank, Cash) for quick
// local testing.
func (s *Store) SeedDev(ctx context.Context) (ledger.User, []ledger.Account, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return ledger.User{}, nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	user := ledger.User{ID: uuid.New()}
	if _, err := tx.Exec(ctx, `insert into users (id, email) values ($1, null)`, user.ID); err != nil {
		return ledger.User{}, nil, err
	}
	zero, _ := money.NewAmountFromMinorUnits("GBP", 0)
	bank := ledger.Account{ID: uuid.New(), UserID: user.ID, Name: "Main Bank", Type: ledger.AccountTypeBank, Currency: "GBP", Balance: zero}
	cash := ledger.Account{ID: uuid.New(), UserID: user.ID, Name: "Cash", Type: ledger.AccountTypeCash, Currency: "GBP", Balance: zero}
	accs := []ledger.Account{bank, cash}
	for _, a := range accs {
		if _, err := tx.Exec(ctx, `
            insert into accounts (`+accountCols+`)
            values ($1,$2,$3,$4,$5,$6,$7,now(),now())
        `, a.ID, a.UserID, a.Name, a.Type, a.Currency, a.BalanceMinor(), a.Note); err != nil {
			return ledger.User{}, nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return ledger.User{}, nil, err
	}
	return user, accs, nil
}
