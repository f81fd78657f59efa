package httpapi

import (
	"time"

	"github.com/google/uuid"

	"github.com/tinoosan/fintrack/internal/ledger"
)

// Accounts

type postAccountRequest struct {
	UserID       uuid.UUID          `json:"user_id"`
	Name         string             `json:"name"`
	Type         ledger.AccountType `json:"type"`
	Currency     string             `json:"currency"`
	Note         string             `json:"note,omitempty"`
	BalanceMinor int64              `json:"balance_minor,omitempty"`
}

type patchAccountRequest struct {
	UserID   uuid.UUID          `json:"user_id"`
	Name     string             `json:"name,omitempty"`
	Type     ledger.AccountType `json:"type,omitempty"`
	Currency string             `json:"currency,omitempty"`
	Note     string             `json:"note,omitempty"`
}

type accountResponse struct {
	ID           uuid.UUID          `json:"id"`
	UserID       uuid.UUID          `json:"user_id"`
	Name         string             `json:"name"`
	Type         ledger.AccountType `json:"type"`
	Class        ledger.Class       `json:"class"`
	Currency     string             `json:"currency"`
	BalanceMinor int64              `json:"balance_minor"`
	Balance      string             `json:"balance"`
	Note         string             `json:"note,omitempty"`
	CreatedOn    time.Time          `json:"created_on"`
	UpdatedOn    time.Time          `json:"updated_on"`
}

func toAccountResponse(a ledger.Account) accountResponse {
	return accountResponse{
		ID:           a.ID,
		UserID:       a.UserID,
		Name:         a.Name,
		Type:         a.Type,
		Class:        a.Class(),
		Currency:     a.Currency,
		BalanceMinor: a.BalanceMinor(),
		Balance:      a.Balance.String(),
		Note:         a.Note,
		CreatedOn:    a.CreatedOn,
		UpdatedOn:    a.UpdatedOn,
	}
}

type deleteAccountResponse struct {
	TransactionsRemoved int `json:"transactions_removed"`
}

// Transactions

type postTransactionRequest struct {
	UserID        uuid.UUID              `json:"user_id"`
	Type          ledger.TransactionType `json:"type"`
	AccountID     uuid.UUID              `json:"account_id,omitempty"`
	FromAccountID uuid.UUID              `json:"from_account_id,omitempty"`
	ToAccountID   uuid.UUID              `json:"to_account_id,omitempty"`
	AmountMinor   int64                  `json:"amount_minor"`
	Currency      string                 `json:"currency"`
	Category      ledger.Category        `json:"category,omitempty"`
	Note          string                 `json:"note,omitempty"`
	Tags          []string               `json:"tags,omitempty"`
	HappenedOn    *time.Time             `json:"happened_on,omitempty"`
}

type putTransactionRequest struct {
	UserID      uuid.UUID              `json:"user_id"`
	Type        ledger.TransactionType `json:"type"`
	AccountID   uuid.UUID              `json:"account_id,omitempty"`
	AmountMinor int64                  `json:"amount_minor"`
	Category    ledger.Category        `json:"category,omitempty"`
	Note        string                 `json:"note,omitempty"`
	Tags        []string               `json:"tags,omitempty"`
	HappenedOn  *time.Time             `json:"happened_on,omitempty"`
}

type transactionResponse struct {
	ID            uuid.UUID              `json:"id"`
	UserID        uuid.UUID              `json:"user_id"`
	Type          ledger.TransactionType `json:"type"`
	AccountID     *uuid.UUID             `json:"account_id,omitempty"`
	FromAccountID *uuid.UUID             `json:"from_account_id,omitempty"`
	ToAccountID   *uuid.UUID             `json:"to_account_id,omitempty"`
	AmountMinor   int64                  `json:"amount_minor"`
	Amount        string                 `json:"amount"`
	Currency      string                 `json:"currency"`
	Category      ledger.Category        `json:"category"`
	Note          string                 `json:"note,omitempty"`
	Tags          []string               `json:"tags,omitempty"`
	System        bool                   `json:"system"`
	HappenedOn    time.Time              `json:"happened_on"`
	CreatedOn     time.Time              `json:"created_on"`
}

func optionalID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func toTransactionResponse(t ledger.Transaction) transactionResponse {
	return transactionResponse{
		ID:            t.ID,
		UserID:        t.UserID,
		Type:          t.Type,
		AccountID:     optionalID(t.AccountID),
		FromAccountID: optionalID(t.FromAccountID),
		ToAccountID:   optionalID(t.ToAccountID),
		AmountMinor:   t.AmountMinor(),
		Amount:        t.Amount.String(),
		Currency:      t.Currency,
		Category:      t.Category,
		Note:          t.Note,
		Tags:          t.Tags,
		System:        t.IsSystem(),
		HappenedOn:    t.HappenedOn,
		CreatedOn:     t.CreatedOn,
	}
}

// editTransactionResponse reports the frozen original plus at most one
// adjustment log.
type editTransactionResponse struct {
	Transaction        transactionResponse  `json:"transaction"`
	Adjustment         *transactionResponse `json:"adjustment,omitempty"`
	AdjustmentsCreated int                  `json:"adjustments_created"`
}
