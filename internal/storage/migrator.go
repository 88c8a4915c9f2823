package storage

import (
	"context"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrations embed.FS

// goose keeps its dialect and base FS in package globals.
var gooseMu sync.Mutex

type gooseLogger struct {
	sugar *zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.sugar.Infof(format, v...)
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.sugar.Errorf(format, v...)
}

func gooseDialect(driver string) string {
	if driver == DriverSQLite {
		return "sqlite3"
	}
	return "postgres"
}

// Migrate applies all pending migrations for the storage dialect.
func (s *Storage) Migrate(ctx context.Context) error {
	const operation = "storage.Migrate"

	gooseMu.Lock()
	defer gooseMu.Unlock()

	s.logger.Info("Running database migrations...")

	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{sugar: s.logger.Sugar()})

	if err := goose.SetDialect(gooseDialect(s.driver)); err != nil {
		return fmt.Errorf("%s: failed to set dialect: %w", operation, err)
	}

	if err := goose.UpContext(ctx, s.db.DB, "migrations/"+s.driver); err != nil {
		return fmt.Errorf("%s: failed to run migrations: %w", operation, err)
	}

	version, err := goose.GetDBVersionContext(ctx, s.db.DB)
	if err != nil {
		return fmt.Errorf("%s: failed to read schema version: %w", operation, err)
	}

	s.logger.Info("Database migrations completed successfully", zap.Int64("version", version))
	return nil
}
