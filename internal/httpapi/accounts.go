package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/tinoosan/fintrack/internal/ledger"
	"github.com/tinoosan/fintrack/internal/service/account"
)

func (s *Server) postAccount(w http.ResponseWriter, r *http.Request) {
	v := r.Context().Value(ctxKeyPostAccount)
	in, found := v.(account.CreateInput)
	if !found {
		writeErr(w, http.StatusInternalServerError, "validated request missing")
		return
	}
	created, err := s.accountSvc.Create(r.Context(), in)
	if err != nil {
		serviceErr(w, err)
		return
	}
	ok(w, http.StatusCreated, toAccountResponse(created), "account created")
}

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	v := r.Context().Value(ctxKeyListQuery)
	q, found := v.(listQuery)
	if !found {
		writeErr(w, http.StatusInternalServerError, "validated query missing")
		return
	}
	accs, err := s.accountSvc.List(r.Context(), q.UserID)
	if err != nil {
		serviceErr(w, err)
		return
	}
	out := make([]accountResponse, 0, len(accs))
	for _, a := range accs {
		out = append(out, toAccountResponse(a))
	}
	ok(w, http.StatusOK, out, "")
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	userID, accountID, found := s.userAndPathID(w, r)
	if !found {
		return
	}
	a, err := s.accountSvc.Get(r.Context(), userID, accountID)
	if err != nil {
		serviceErr(w, err)
		return
	}
	ok(w, http.StatusOK, toAccountResponse(a), "")
}

// getAccountTransactions returns the transactions touching one account.
func (s *Server) getAccountTransactions(w http.ResponseWriter, r *http.Request) {
	userID, accountID, found := s.userAndPathID(w, r)
	if !found {
		return
	}
	if _, err := s.accountSvc.Get(r.Context(), userID, accountID); err != nil {
		serviceErr(w, err)
		return
	}
	txs, err := s.txReader.TransactionsByAccount(r.Context(), userID, accountID)
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

func (s *Server) patchAccount(w http.ResponseWriter, r *http.Request) {
	accountID, found := pathID(r, "id")
	if !found {
		badRequest(w, "invalid account id")
		return
	}
	var req patchAccountRequest
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
	updated, err := s.accountSvc.Update(r.Context(), ledger.Account{
		ID:       accountID,
		UserID:   userID,
		Name:     req.Name,
		Type:     req.Type,
		Currency: req.Currency,
		Note:     req.Note,
	})
	if err != nil {
		serviceErr(w, err)
		return
	}
	ok(w, http.StatusOK, toAccountResponse(updated), "account updated")
}

// deleteAccount removes an account; linked transactions require force=true
// and are cascaded without balance reversal.
func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, accountID, found := s.userAndPathID(w, r)
	if !found {
		return
	}
	force := r.URL.Query().Get("force") == "true"
	res, err := s.accountSvc.Delete(r.Context(), userID, accountID, force)
	if err != nil {
		serviceErr(w, err)
		return
	}
	ok(w, http.StatusOK, deleteAccountResponse{TransactionsRemoved: res.TransactionsRemoved}, "account deleted")
}

// userAndPathID resolves the caller's user id (query param user_id when auth
// is off) and the {id} path parameter, writing the error response itself on
// failure.
func (s *Server) userAndPathID(w http.ResponseWriter, r *http.Request) (userID, id uuid.UUID, found bool) {
	id, okID := pathID(r, "id")
	if !okID {
		badRequest(w, "invalid id")
		return uuid.Nil, uuid.Nil, false
	}
	var requested uuid.UUID
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			badRequest(w, "invalid user_id")
			return uuid.Nil, uuid.Nil, false
		}
		requested = parsed
	}
	userID, okUser := resolveUserID(r, requested)
	if !okUser {
		badRequest(w, "user_id is required")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, id, true
}
