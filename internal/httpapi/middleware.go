package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/tinoosan/fintrack/internal/dictionary"
	"github.com/tinoosan/fintrack/internal/ledger"
	"github.com/tinoosan/fintrack/internal/service/account"
	"github.com/tinoosan/fintrack/internal/tags"
)

const ctxKeyPostAccount ctxKey = "validatedPostAccount"
const ctxKeyPostTransaction ctxKey = "validatedPostTransaction"
const ctxKeyListQuery ctxKey = "validatedListQuery"

// listQuery holds validated query params for the GET collections.
type listQuery struct {
	UserID    uuid.UUID
	AccountID uuid.UUID
}

// validatePostAccount parses and validates POST /accounts and stores the
// CreateInput in the request context for the handler to use.
func (s *Server) validatePostAccount() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req postAccountRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				badRequest(w, "invalid JSON: "+err.Error())
				return
			}
			userID, found := resolveUserID(r, req.UserID)
			if !found {
				badRequest(w, "user_id is required")
				return
			}
			in := account.CreateInput{
				UserID:              userID,
				Name:                req.Name,
				Type:                req.Type,
				Currency:            req.Currency,
				Note:                req.Note,
				InitialBalanceMinor: req.BalanceMinor,
			}
			if err := s.accountSvc.ValidateCreate(in); err != nil {
				badRequest(w, err.Error())
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyPostAccount, in)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validatePostTransaction parses POST /transactions, converts it to the
// domain transaction and runs field-level validation before the handler
// touches the store.
func (s *Server) validatePostTransaction() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req postTransactionRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				badRequest(w, "invalid JSON: "+err.Error())
				return
			}
			userID, found := resolveUserID(r, req.UserID)
			if !found {
				badRequest(w, "user_id is required")
				return
			}
			if req.Currency == "" {
				badRequest(w, "currency is required")
				return
			}
			if req.AmountMinor <= 0 {
				badRequest(w, "amount must be > 0")
				return
			}
			if dictionary.IsReservedCategory(req.Category) {
				badRequest(w, "category is reserved for system transactions")
				return
			}
			amt, err := money.NewAmountFromMinorUnits(req.Currency, req.AmountMinor)
			if err != nil {
				badRequest(w, "invalid currency")
				return
			}
			t := ledger.Transaction{
				UserID:        userID,
				Type:          req.Type,
				AccountID:     req.AccountID,
				FromAccountID: req.FromAccountID,
				ToAccountID:   req.ToAccountID,
				Amount:        amt,
				Currency:      req.Currency,
				Category:      req.Category,
				Note:          req.Note,
				Tags:          tags.New(req.Tags),
			}
			if req.HappenedOn != nil {
				t.HappenedOn = req.HappenedOn.UTC()
			}
			if err := s.txSvc.Validate(t); err != nil {
				badRequest(w, err.Error())
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyPostTransaction, t)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validateListQuery parses user_id (and optional account_id) query params for
// the GET collection endpoints.
func (s *Server) validateListQuery() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			var requested uuid.UUID
			if raw := q.Get("user_id"); raw != "" {
				id, err := uuid.Parse(raw)
				if err != nil {
					badRequest(w, "invalid user_id")
					return
				}
				requested = id
			}
			userID, found := resolveUserID(r, requested)
			if !found {
				badRequest(w, "user_id is required")
				return
			}
			lq := listQuery{UserID: userID}
			if raw := q.Get("account_id"); raw != "" {
				id, err := uuid.Parse(raw)
				if err != nil {
					badRequest(w, "invalid account_id")
					return
				}
				lq.AccountID = id
			}
			ctx := context.WithValue(r.Context(), ctxKeyListQuery, lq)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// pathID parses the {id} chi URL parameter.
func pathID(r *http.Request, param string) (uuid.UUID, bool) {
	raw := chiURLParam(r, param)
	if raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// parseHappenedOn is shared by the PUT path.
func parseHappenedOn(raw *time.Time) *time.Time {
	if raw == nil {
		return nil
	}
	t := raw.UTC()
	return &t
}
