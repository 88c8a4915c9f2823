// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"orderbot/internal/storage"
)

// NewStore opens a migrated SQLite store in a temp dir. Users default to lang.
func NewStore(t *testing.T, lang string) *storage.Storage {
	t.Helper()

	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "orders.db") + "?_pragma=busy_timeout(5000)&_time_format=sqlite"

	s, err := storage.Open(ctx, storage.Config{
		Driver:          storage.DriverSQLite,
		DSN:             dsn,
		ConnectTimeout:  time.Second,
		DefaultLanguage: lang,
	}, Logger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Migrate(ctx))
	return s
}

func Logger() *zap.Logger {
	return zap.NewNop()
}
