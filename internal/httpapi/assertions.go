package httpapi

import (
	"github.com/tinoosan/fintrack/internal/service/account"
	"github.com/tinoosan/fintrack/internal/service/transaction"
	"github.com/tinoosan/fintrack/internal/storage/memory"
	"github.com/tinoosan/fintrack/internal/storage/postgres"
)

// Compile-time interface assertions for both stores against the HTTP API and
// service interfaces.
var (
	_ Repository         = (*memory.Store)(nil)
	_ transaction.Repo   = (*memory.Store)(nil)
	_ transaction.Writer = (*memory.Store)(nil)
	_ account.Repo       = (*memory.Store)(nil)
	_ account.Writer     = (*memory.Store)(nil)

	_ Repository         = (*postgres.Store)(nil)
	_ transaction.Repo   = (*postgres.Store)(nil)
	_ transaction.Writer = (*postgres.Store)(nil)
	_ account.Repo       = (*postgres.Store)(nil)
	_ account.Writer     = (*postgres.Store)(nil)
	_ ReadyChecker       = (*postgres.Store)(nil)
)
