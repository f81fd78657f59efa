package httpapi

import (
	"errors"
	"net/http"

	"github.com/tinoosan/fintrack/internal/errs"
)

// errorResponse is the standard error payload for the API.
type errorResponse struct {
	Error      string `json:"error"`
	StatusCode int    `json:"status_code"`
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	toJSON(w, status, errorResponse{Error: msg, StatusCode: status})
}

func badRequest(w http.ResponseWriter, msg string)   { writeErr(w, http.StatusBadRequest, msg) }
func unauthorized(w http.ResponseWriter, msg string) { writeErr(w, http.StatusUnauthorized, msg) }
func notFound(w http.ResponseWriter)                 { writeErr(w, http.StatusNotFound, "not_found") }
func conflict(w http.ResponseWriter, msg string)     { writeErr(w, http.StatusConflict, msg) }

// serviceErr maps domain sentinels onto HTTP statuses. Validation-flavored
// errors (including insufficient funds, per the ledger's error taxonomy)
// surface as 400; everything unrecognized is a 500 with a generic message so
// internals never leak verbatim.
func serviceErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		notFound(w)
	case errors.Is(err, errs.ErrForbidden):
		writeErr(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, errs.ErrConflict):
		conflict(w, "account still has transactions; pass force=true to cascade")
	case errors.Is(err, errs.ErrImmutable):
		badRequest(w, "field is immutable")
	case errors.Is(err, errs.ErrTransferImmutable),
		errors.Is(err, errs.ErrSameAccount),
		errors.Is(err, errs.ErrCurrencyMismatch),
		errors.Is(err, errs.ErrInsufficientFunds),
		errors.Is(err, errs.ErrInvalid):
		badRequest(w, err.Error())
	default:
		writeErr(w, http.StatusInternalServerError, "internal error")
	}
}
