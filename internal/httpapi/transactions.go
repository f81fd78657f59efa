package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/tinoosan/fintrack/internal/dictionary"
	"github.com/tinoosan/fintrack/internal/ledger"
	"github.com/tinoosan/fintrack/internal/service/transaction"
	"github.com/tinoosan/fintrack/internal/tags"
)

// postTransaction creates a transaction and applies its balance effects. An
// Idempotency-Key header replays the previously stored result instead of
// double-applying.
func (s *Server) postTransaction(w http.ResponseWriter, r *http.Request) {
	v := r.Context().Value(ctxKeyPostTransaction)
	t, found := v.(ledger.Transaction)
	if !found {
		writeErr(w, http.StatusInternalServerError, "validated request missing")
		return
	}
	idemKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if idemKey != "" {
		if prior, hit, err := s.idemStore.GetTransactionByIdempotencyKey(r.Context(), t.UserID, idemKey); err == nil && hit {
			ok(w, http.StatusOK, toTransactionResponse(prior), "replayed")
			return
		}
	}
	saved, err := s.txSvc.Create(r.Context(), t)
	if err != nil {
		serviceErr(w, err)
		return
	}
	if idemKey != "" {
		if err := s.idemStore.SaveIdempotencyKey(r.Context(), t.UserID, idemKey, saved.ID); err != nil {
			s.log.Warn("failed to save idempotency key", "err", err)
		}
	}
	ok(w, http.StatusCreated, toTransactionResponse(saved), "transaction created")
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	v := r.Context().Value(ctxKeyListQuery)
	q, found := v.(listQuery)
	if !found {
		writeErr(w, http.StatusInternalServerError, "validated query missing")
		return
	}
	var (
		txs []ledger.Transaction
		err error
	)
	if q.AccountID != uuid.Nil {
		txs, err = s.txReader.TransactionsByAccount(r.Context(), q.UserID, q.AccountID)
	} else {
		txs, err = s.txSvc.List(r.Context(), q.UserID)
	}
	if err != nil {
		serviceErr(w, err)
		return
	}
	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionResponse(t))
	}
	ok(w, http.StatusOK, out, "")
}

func (s *Server) getTransaction(w http.ResponseWriter, r *http.Request) {
	userID, txID, found := s.userAndPathID(w, r)
	if !found {
		return
	}
	t, err := s.txSvc.Get(r.Context(), userID, txID)
	if err != nil {
		serviceErr(w, err)
		return
	}
	ok(w, http.StatusOK, toTransactionResponse(t), "")
}

// putTransaction edits an expense/income. The original record's
// amount/type/account are frozen; balances move and at most one Edit
// Adjustment transaction is logged.
func (s *Server) putTransaction(w http.ResponseWriter, r *http.Request) {
	txID, foundID := pathID(r, "id")
	if !foundID {
		badRequest(w, "invalid transaction id")
		return
	}
	var req putTransactionRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	userID, foundUser := resolveUserID(r, req.UserID)
	if !foundUser {
		badRequest(w, "user_id is required")
		return
	}
	if dictionary.IsReservedCategory(req.Category) {
		badRequest(w, "category is reserved for system transactions")
		return
	}
	in := transaction.EditInput{
		UserID:      userID,
		TxID:        txID,
		Type:        req.Type,
		AccountID:   req.AccountID,
		AmountMinor: req.AmountMinor,
		Category:    req.Category,
		Note:        req.Note,
		HappenedOn:  parseHappenedOn(req.HappenedOn),
	}
	if req.Tags != nil {
		in.Tags = tags.New(req.Tags)
	}
	res, err := s.txSvc.Edit(r.Context(), in)
	if err != nil {
		serviceErr(w, err)
		return
	}
	resp := editTransactionResponse{
		Transaction:        toTransactionResponse(res.Transaction),
		AdjustmentsCreated: res.AdjustmentsCreated(),
	}
	if res.Adjustment != nil {
		adj := toTransactionResponse(*res.Adjustment)
		resp.Adjustment = &adj
	}
	ok(w, http.StatusOK, resp, "transaction updated")
}

func (s *Server) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, txID, found := s.userAndPathID(w, r)
	if !found {
		return
	}
	if err := s.txSvc.Delete(r.Context(), userID, txID); err != nil {
		serviceErr(w, err)
		return
	}
	ok(w, http.StatusOK, nil, "transaction deleted")
}
