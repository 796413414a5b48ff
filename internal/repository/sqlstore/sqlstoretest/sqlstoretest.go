// Package sqlstoretest opens throwaway sqlite stores for package tests.
package sqlstoretest

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/mamadbah2/recebimento/internal/config"
	"github.com/mamadbah2/recebimento/internal/repository/sqlstore"
)

// Open returns a migrated store backed by a sqlite file in tb.TempDir().
func Open(tb testing.TB) *sqlstore.Store {
	tb.Helper()

	dsn := filepath.Join(tb.TempDir(), "recebimento.sqlite")
	store, err := sqlstore.Open(context.Background(), config.DatabaseConfig{Driver: "sqlite", DSN: dsn}, zap.NewNop())
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	tb.Cleanup(func() {
		_ = store.Close()
	})

	if err := store.Migrate(context.Background()); err != nil {
		tb.Fatalf("auto migrate: %v", err)
	}
	return store
}
