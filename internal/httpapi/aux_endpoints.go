package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/tinoosan/fintrack/internal/dictionary"
)

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	// If the underlying store implements ReadyChecker, call it with a short
	// timeout.
	deadline := 800 * time.Millisecond
	ctx, cancel := context.WithTimeout(r.Context(), deadline)
	defer cancel()
	if rc, found := any(s.accReader).(ReadyChecker); found {
		if err := rc.Ready(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) dictionaryAccountTypes(w http.ResponseWriter, r *http.Request) {
	ok(w, http.StatusOK, dictionary.AccountTypes(), "")
}

func (s *Server) dictionaryCategories(w http.ResponseWriter, r *http.Request) {
	ok(w, http.StatusOK, dictionary.Categories(), "")
}
