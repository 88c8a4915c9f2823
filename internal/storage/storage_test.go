package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_pragma=busy_timeout(5000)&_time_format=sqlite"

	s, err := Open(ctx, Config{
		Driver:         DriverSQLite,
		DSN:            dsn,
		ConnectTimeout: time.Second,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Migrate(ctx))
	return s
}

// seedOrders creates n orders with strictly increasing created_at.
func seedOrders(t *testing.T, s *Storage, n int, text func(i int) string) []*Order {
	t.Helper()

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	orders := make([]*Order, 0, n)
	for i := 0; i < n; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		s.now = func() time.Time { return at }

		o, err := s.CreateOrder(context.Background(), NewOrder{
			UserID:    int64(100 + i%3),
			Username:  "user",
			OrderText: text(i),
		})
		require.NoError(t, err)
		orders = append(orders, o)
	}
	return orders
}

func TestPage(t *testing.T) {
	sqliteStore := &Storage{driver: DriverSQLite}
	pgStore := &Storage{driver: DriverPostgres}

	tests := []struct {
		name   string
		s      *Storage
		offset int
		limit  int
		clause string
		args   []any
	}{
		{"limited", sqliteStore, 10, 5, " LIMIT ? OFFSET ?", []any{5, 10}},
		{"unlimited no offset", sqliteStore, 0, Unlimited, "", nil},
		{"sqlite unlimited with offset", sqliteStore, 3, Unlimited, " LIMIT -1 OFFSET ?", []any{3}},
		{"postgres unlimited with offset", pgStore, 3, Unlimited, " OFFSET ?", []any{3}},
		{"negative offset", sqliteStore, -4, 2, " LIMIT ? OFFSET ?", []any{2, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clause, args := tt.s.page(tt.offset, tt.limit)
			require.Equal(t, tt.clause, clause)
			require.Equal(t, tt.args, args)
		})
	}
}

func TestEscapeLike(t *testing.T) {
	require.Equal(t, `50\% off\_now \\ ok`, escapeLike(`50% off_now \ ok`))
}

func TestFoldCase(t *testing.T) {
	require.Equal(t, "привіт world", foldCase("ПРИВІТ World"))
}

func TestNew_SQLiteSearchFoldsUnicode(t *testing.T) {
	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "raw.db") + "?_time_format=sqlite"

	db, err := sqlx.Open(DriverSQLite, dsn)
	require.NoError(t, err)

	s, err := New(db, Config{}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(ctx))

	_, err = s.CreateOrder(ctx, NewOrder{UserID: 1, OrderText: "Святковий ТОРТ"})
	require.NoError(t, err)

	found, total, err := s.SearchOrders(ctx, "торт", 0, Unlimited)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, found, 1)
}
