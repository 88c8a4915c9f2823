package storage

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/maypok86/otter"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	defaultLanguage = "uk"
	languageTTL     = time.Hour
)

type Config struct {
	Driver            string
	DSN               string
	MaxOpenConns      int
	MaxIdleConns      int
	ConnMaxLifetime   time.Duration
	ConnectTimeout    time.Duration
	DefaultLanguage   string
	LanguageCacheSize int
}

// Storage is the persistence store for users, orders and help messages.
// Every multi-statement operation runs in its own transaction.
type Storage struct {
	db              *sqlx.DB
	driver          string
	lowerFn         string
	defaultLanguage string
	languages       otter.Cache[int64, string]
	logger          *zap.Logger
	now             func() time.Time
}

var registerOnce sync.Once

// registerFunctions installs unicode_lower for SQLite, whose built-in lower() only folds ASCII.
func registerFunctions() {
	registerOnce.Do(func() {
		sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
		sqlite.MustRegisterDeterministicScalarFunction("unicode_lower", 1,
			func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
				switch v := args[0].(type) {
				case string:
					return foldCase(v), nil
				case []byte:
					return foldCase(string(v)), nil
				default:
					return v, nil
				}
			})
	})
}

func foldCase(s string) string {
	return cases.Lower(language.Und).String(s)
}

// Open connects to the database with exponential backoff.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (*Storage, error) {
	const operation = "storage.Open"

	if cfg.Driver == DriverSQLite {
		registerFunctions()
	}

	var db *sqlx.DB

	retryPolicy := backoff.NewExponentialBackOff()
	retryPolicy.MaxElapsedTime = cfg.ConnectTimeout
	retryPolicy.MaxInterval = 15 * time.Second

	logger.Info("Connecting to database...", zap.String("driver", cfg.Driver))

	err := backoff.RetryNotify(
		func() error {
			conn, err := sqlx.ConnectContext(ctx, cfg.Driver, cfg.DSN)
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			if err := conn.PingContext(ctx); err != nil {
				_ = conn.Close()
				return fmt.Errorf("ping: %w", err)
			}
			db = conn
			return nil
		},
		backoff.WithContext(retryPolicy, ctx),
		func(err error, duration time.Duration) {
			logger.Warn("Database connection failed, retrying...",
				zap.Error(err),
				zap.Duration("next_attempt_in", duration))
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect after retries: %w", operation, err)
	}

	if cfg.Driver == DriverSQLite {
		// single writer; the file is shared by one process
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	logger.Info("Successfully connected to database", zap.String("driver", cfg.Driver))

	s, err := New(db, cfg, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	return s, nil
}

// New wraps an existing connection. The connection's driver name decides the SQL dialect.
func New(db *sqlx.DB, cfg Config, logger *zap.Logger) (*Storage, error) {
	if db.DriverName() == DriverSQLite {
		registerFunctions()
	}

	lang := cfg.DefaultLanguage
	if lang == "" {
		lang = defaultLanguage
	}
	size := cfg.LanguageCacheSize
	if size <= 0 {
		size = 1000
	}

	languages, err := otter.MustBuilder[int64, string](size).WithTTL(languageTTL).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create language cache: %w", err)
	}

	s := &Storage{
		db:              db,
		driver:          db.DriverName(),
		lowerFn:         "LOWER",
		defaultLanguage: lang,
		languages:       languages,
		logger:          logger,
		now: func() time.Time {
			return time.Now().UTC().Truncate(time.Microsecond)
		},
	}
	if s.driver == DriverSQLite {
		s.lowerFn = "unicode_lower"
	}
	return s, nil
}

func (s *Storage) Close() error {
	s.languages.Close()
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// inTx runs fn in a transaction and rolls back unless fn and the commit both succeed.
func (s *Storage) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// page returns the LIMIT/OFFSET clause for the dialect; limit <= 0 means no limit.
func (s *Storage) page(offset, limit int) (string, []any) {
	if offset < 0 {
		offset = 0
	}
	switch {
	case limit > 0:
		return " LIMIT ? OFFSET ?", []any{limit, offset}
	case offset == 0:
		return "", nil
	case s.driver == DriverSQLite:
		return " LIMIT -1 OFFSET ?", []any{offset}
	default:
		return " OFFSET ?", []any{offset}
	}
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
