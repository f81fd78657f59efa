// Package memory provides a simple in-memory implementation used for
// development and tests. It keeps code paths easy to follow while allowing us
// to plug in a real DB later.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/tinoosan/fintrack/internal/errs"
	"github.com/tinoosan/fintrack/internal/ledger"
)

// txKey tracks ordering for transactions per user: sorted asc by (HappenedOn, ID)
type txKey struct {
	HappenedOn time.Time
	ID         uuid.UUID
}

// Store is an in-memory implementation of the repository+writer used by the
// API. It is guarded by an RWMutex for concurrent reads/writes; balance
// increments happen under the write lock so concurrent writers to the same
// account cannot lose updates.
type Store struct {
	mu           sync.RWMutex
	users        map[uuid.UUID]struct{}
	accounts     map[uuid.UUID]ledger.Account
	transactions map[uuid.UUID]*ledger.Transaction
	// Per-user sorted index of transactions for ordered scans
	txKeysByUser map[uuid.UUID][]txKey
	// Idempotency: userID -> key -> transactionID
	txIdem map[uuid.UUID]map[string]uuid.UUID
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{
		users:        make(map[uuid.UUID]struct{}),
		accounts:     make(map[uuid.UUID]ledger.Account),
		transactions: make(map[uuid.UUID]*ledger.Transaction),
		txKeysByUser: make(map[uuid.UUID][]txKey),
		txIdem:       make(map[uuid.UUID]map[string]uuid.UUID),
	}
}

// Seed helpers for local dev/tests.
func (s *Store) SeedUser(u ledger.User)       { s.mu.Lock(); s.users[u.ID] = struct{}{}; s.mu.Unlock() }
func (s *Store) SeedAccount(a ledger.Account) { s.mu.Lock(); s.accounts[a.ID] = a; s.mu.Unlock() }
func (s *Store) Reset() {
	s.mu.Lock()
	s.users = map[uuid.UUID]struct{}{}
	s.accounts = map[uuid.UUID]ledger.Account{}
	s.transactions = map[uuid.UUID]*ledger.Transaction{}
	s.txKeysByUser = map[uuid.UUID][]txKey{}
	s.txIdem = map[uuid.UUID]map[string]uuid.UUID{}
	s.mu.Unlock()
}

// --- Account reads ---

// FetchAccounts returns accounts for the given user filtered by the provided ids.
func (s *Store) FetchAccounts(_ context.Context, userID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uuid.UUID]ledger.Account, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if acc, ok := s.accounts[id]; ok && acc.UserID == userID {
			out[id] = acc
		}
	}
	return out, nil
}

// ListAccounts returns all accounts for a user.
func (s *Store) ListAccounts(_ context.Context, userID uuid.UUID) ([]ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Account, 0)
	for _, a := range s.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedOn.Before(out[j].CreatedOn) })
	return out, nil
}

// GetAccount returns a user's account by ID.
func (s *Store) GetAccount(_ context.Context, userID, accountID uuid.UUID) (ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[accountID]
	if !ok || a.UserID != userID {
		return ledger.Account{}, errs.ErrNotFound
	}
	return a, nil
}

// --- Account writes ---

// CreateAccount persists a new account.
func (s *Store) CreateAccount(_ context.Context, a ledger.Account) (ledger.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.ID] = a
	return a, nil
}

// UpdateAccount persists changes to an account's descriptive fields.
func (s *Store) UpdateAccount(_ context.Context, a ledger.Account) (ledger.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.ID]; !ok {
		return ledger.Account{}, errs.ErrNotFound
	}
	s.accounts[a.ID] = a
	return a, nil
}

// DeleteAccount removes an account record.
func (s *Store) DeleteAccount(_ context.Context, userID, accountID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok || a.UserID != userID {
		return errs.ErrNotFound
	}
	delete(s.accounts, accountID)
	return nil
}

// ApplyBalanceDelta atomically increments an account's balance by deltaMinor
// minor units and bumps UpdatedOn. This is the only write path for balances.
func (s *Store) ApplyBalanceDelta(_ context.Context, userID, accountID uuid.UUID, deltaMinor int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok || a.UserID != userID {
		return errs.ErrNotFound
	}
	units, _ := a.Balance.MinorUnits()
	next, err := money.NewAmountFromMinorUnits(a.Currency, units+deltaMinor)
	if err != nil {
		return err
	}
	a.Balance = next
	a.UpdatedOn = time.Now().UTC()
	s.accounts[accountID] = a
	return nil
}

// --- Transaction reads ---

// ListTransactions returns all transactions for a user ordered by (HappenedOn, ID).
func (s *Store) ListTransactions(_ context.Context, userID uuid.UUID) ([]ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := s.txKeysByUser[userID]
	out := make([]ledger.Transaction, 0, len(keys))
	for _, k := range keys {
		if t, ok := s.transactions[k.ID]; ok && t.UserID == userID {
			out = append(out, *t)
		}
	}
	return out, nil
}

// TransactionsByAccount returns the user's transactions touching the account
// on any side.
func (s *Store) TransactionsByAccount(ctx context.Context, userID, accountID uuid.UUID) ([]ledger.Transaction, error) {
	all, err := s.ListTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]ledger.Transaction, 0)
	for _, t := range all {
		if t.Touches(accountID) {
			out = append(out, t)
		}
	}
	return out, nil
}

// GetTransaction returns a single transaction for a user.
func (s *Store) GetTransaction(_ context.Context, userID, txID uuid.UUID) (ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transactions[txID]
	if !ok || t.UserID != userID {
		return ledger.Transaction{}, errs.ErrNotFound
	}
	return *t, nil
}

// CountTransactionsByAccount counts transactions referencing the account on
// any side.
func (s *Store) CountTransactionsByAccount(_ context.Context, userID, accountID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, t := range s.transactions {
		if t.UserID == userID && t.Touches(accountID) {
			n++
		}
	}
	return n, nil
}

// --- Transaction writes ---

// CreateTransaction persists a transaction record.
func (s *Store) CreateTransaction(_ context.Context, t ledger.Transaction) (ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// store shallow copy
	cp := t
	s.transactions[cp.ID] = &cp
	s.insertTxIndexLocked(cp.UserID, txKey{HappenedOn: cp.HappenedOn, ID: cp.ID})
	return cp, nil
}

// UpdateTransaction replaces an existing record by ID.
func (s *Store) UpdateTransaction(_ context.Context, t ledger.Transaction) (ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[t.ID]; !ok {
		return ledger.Transaction{}, errs.ErrNotFound
	}
	cp := t
	s.transactions[t.ID] = &cp
	return cp, nil
}

// DeleteTransaction removes a transaction record.
func (s *Store) DeleteTransaction(_ context.Context, userID, txID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[txID]
	if !ok || t.UserID != userID {
		return errs.ErrNotFound
	}
	delete(s.transactions, txID)
	s.dropTxIndexLocked(userID, txID)
	return nil
}

// DeleteTransactionsByAccount removes every transaction referencing the
// account on any side and returns how many were removed. Balance effects are
// NOT reversed; this backs the force-delete cascade.
func (s *Store) DeleteTransactionsByAccount(_ context.Context, userID, accountID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, t := range s.transactions {
		if t.UserID == userID && t.Touches(accountID) {
			delete(s.transactions, id)
			s.dropTxIndexLocked(userID, id)
			n++
		}
	}
	return n, nil
}

// --- Idempotency ---

// GetTransactionByIdempotencyKey resolves a transaction by idempotency key.
func (s *Store) GetTransactionByIdempotencyKey(_ context.Context, userID uuid.UUID, key string) (ledger.Transaction, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m, ok := s.txIdem[userID]; ok {
		if tid, ok2 := m[key]; ok2 {
			if t, ok3 := s.transactions[tid]; ok3 {
				return *t, true, nil
			}
		}
	}
	return ledger.Transaction{}, false, nil
}

// SaveIdempotencyKey stores an idempotency key mapping for a transaction.
func (s *Store) SaveIdempotencyKey(_ context.Context, userID uuid.UUID, key string, txID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.txIdem[userID]
	if !ok {
		m = make(map[string]uuid.UUID)
		s.txIdem[userID] = m
	}
	// Only set if absent to preserve idempotency
	if _, exists := m[key]; !exists {
		m[key] = txID
	}
	return nil
}

// insertTxIndexLocked inserts k into the per-user sorted index, keeping order
// asc by (HappenedOn, ID). Caller must hold s.mu (write lock).
func (s *Store) insertTxIndexLocked(userID uuid.UUID, k txKey) {
	keys := s.txKeysByUser[userID]
	i := sort.Search(len(keys), func(i int) bool {
		if keys[i].HappenedOn.After(k.HappenedOn) {
			return true
		}
		if keys[i].HappenedOn.Equal(k.HappenedOn) {
			return keys[i].ID.String() > k.ID.String()
		}
		return false
	})
	if i == len(keys) {
		s.txKeysByUser[userID] = append(keys, k)
		return
	}
	keys = append(keys, txKey{})
	copy(keys[i+1:], keys[i:])
	keys[i] = k
	s.txKeysByUser[userID] = keys
}

// dropTxIndexLocked removes txID from the per-user index. Caller must hold
// s.mu (write lock).
func (s *Store) dropTxIndexLocked(userID, txID uuid.UUID) {
	keys := s.txKeysByUser[userID]
	for i, k := range keys {
		if k.ID == txID {
			s.txKeysByUser[userID] = append(keys[:i], keys[i+1:]...)
			return
		}
	}
}
