// Package httpapi wires the HTTP surface of the fintrack service.
// It keeps handlers thin, delegating balance rules to the service layer.
package httpapi

import (
	"log/slog"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tinoosan/fintrack/internal/service/account"
	"github.com/tinoosan/fintrack/internal/service/transaction"
)

// Server wires handlers and middleware using Chi. It composes read (repo)
// and write (writer) dependencies through services.
type Server struct {
	txSvc      transaction.Service
	accountSvc account.Service
	accReader  AccountReader
	txReader   TransactionReader
	idemStore  IdempotencyStore
	log        *slog.Logger
	rt         *chi.Mux
}

// New constructs the HTTP server with routes and middleware. The logger is
// used by basic request/response logging and panic recovery.
func New(repo Repository, trepo transaction.Repo, arepo account.Repo, twriter transaction.Writer, awriter account.Writer, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))
	r.Use(metricsMiddleware)
	if auth := authJWTFromEnv(); auth != nil {
		r.Use(auth)
	}

	s := &Server{
		txSvc:      transaction.New(trepo, twriter),
		accountSvc: account.New(arepo, awriter),
		accReader:  repo,
		txReader:   repo,
		idemStore:  repo,
		rt:         r,
		log:        logger,
	}
	s.routes()
	return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

// routes declares the public HTTP API endpoints and attaches any per-route
// middleware.
func (s *Server) routes() {
	// Transactions (v1)
	s.rt.With(s.validatePostTransaction()).Post("/v1/transactions", s.postTransaction)
	s.rt.With(s.validateListQuery()).Get("/v1/transactions", s.listTransactions)
	s.rt.Get("/v1/transactions/{id}", s.getTransaction)
	s.rt.Put("/v1/transactions/{id}", s.putTransaction)
	s.rt.Delete("/v1/transactions/{id}", s.deleteTransaction)
	// Accounts (v1)
	s.rt.With(s.validatePostAccount()).Post("/v1/accounts", s.postAccount)
	s.rt.With(s.validateListQuery()).Get("/v1/accounts", s.listAccounts)
	s.rt.Get("/v1/accounts/{id}", s.getAccount)
	s.rt.Get("/v1/accounts/{id}/transactions", s.getAccountTransactions)
	s.rt.Patch("/v1/accounts/{id}", s.patchAccount)
	s.rt.Delete("/v1/accounts/{id}", s.deleteAccount)
	// Dictionary (v1, open)
	s.rt.Get("/v1/dictionary/account-types", s.dictionaryAccountTypes)
	s.rt.Get("/v1/dictionary/categories", s.dictionaryCategories)
	// Health and metrics (unversioned)
	s.rt.Get("/healthz", s.healthz)
	s.rt.Get("/readyz", s.readyz)
	s.rt.Method(http.MethodGet, "/metrics", metricsHandler())
}

// chiURLParam wraps chi.URLParam so the rest of the package does not import
// chi directly.
func chiURLParam(r *http.Request, key string) string { return chi.URLParam(r, key) }
