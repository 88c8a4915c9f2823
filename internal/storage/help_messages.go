package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const helpColumns = `id, message_text, is_active, created_at, updated_at`

// AddHelpMessage stores a new help message. With activate set, every other
// message is deactivated in the same transaction.
func (s *Storage) AddHelpMessage(ctx context.Context, text string, activate bool) (*HelpMessage, error) {
	const operation = "storage.AddHelpMessage"

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%s: %w", operation, ErrEmptyText)
	}

	var msg HelpMessage
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		now := s.now()
		if activate {
			if err := deactivateHelp(ctx, tx, 0, now); err != nil {
				return err
			}
		}

		query := tx.Rebind(`
			INSERT INTO help_messages (message_text, is_active, created_at, updated_at)
			VALUES (?, ?, ?, ?)
			RETURNING ` + helpColumns)
		if err := tx.GetContext(ctx, &msg, query, text, activate, now, now); err != nil {
			return fmt.Errorf("failed to insert help message: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	s.logger.Info("Help message added",
		zap.Int64("help_id", msg.ID),
		zap.Bool("active", msg.IsActive))

	return &msg, nil
}

func (s *Storage) GetHelpMessage(ctx context.Context, id int64) (*HelpMessage, error) {
	const operation = "storage.GetHelpMessage"

	var msg HelpMessage
	if err := s.db.GetContext(ctx, &msg, s.db.Rebind(`SELECT `+helpColumns+` FROM help_messages WHERE id = ?`), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: help message %d: %w", operation, id, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: failed to get help message: %w", operation, err)
	}
	return &msg, nil
}

// GetActiveHelpMessage returns ErrNoActiveHelpMessage when nothing is active.
func (s *Storage) GetActiveHelpMessage(ctx context.Context) (*HelpMessage, error) {
	const operation = "storage.GetActiveHelpMessage"

	var msg HelpMessage
	if err := s.db.GetContext(ctx, &msg, `SELECT `+helpColumns+` FROM help_messages WHERE is_active`); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoActiveHelpMessage
		}
		return nil, fmt.Errorf("%s: failed to get active help message: %w", operation, err)
	}
	return &msg, nil
}

// SetActiveHelpMessage makes id the only active message. A missing id rolls
// back without touching the currently active one.
func (s *Storage) SetActiveHelpMessage(ctx context.Context, id int64) error {
	const operation = "storage.SetActiveHelpMessage"

	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		var found int64
		if err := tx.GetContext(ctx, &found, tx.Rebind(`SELECT id FROM help_messages WHERE id = ?`), id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("help message %d: %w", id, ErrNotFound)
			}
			return fmt.Errorf("failed to check help message: %w", err)
		}

		now := s.now()
		if err := deactivateHelp(ctx, tx, id, now); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			tx.Rebind(`UPDATE help_messages SET is_active = ?, updated_at = ? WHERE id = ?`),
			true, now, id); err != nil {
			return fmt.Errorf("failed to activate help message: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}

	s.logger.Info("Help message activated", zap.Int64("help_id", id))
	return nil
}

// deactivateHelp clears is_active on every message except keep (0 keeps none).
func deactivateHelp(ctx context.Context, tx *sqlx.Tx, keep int64, now time.Time) error {
	_, err := tx.ExecContext(ctx,
		tx.Rebind(`UPDATE help_messages SET is_active = ?, updated_at = ? WHERE is_active AND id <> ?`),
		false, now, keep)
	if err != nil {
		return fmt.Errorf("failed to deactivate help messages: %w", err)
	}
	return nil
}

// DeleteHelpMessage removes the message even when it is the active one.
func (s *Storage) DeleteHelpMessage(ctx context.Context, id int64) (bool, error) {
	const operation = "storage.DeleteHelpMessage"

	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM help_messages WHERE id = ?`), id)
	if err != nil {
		return false, fmt.Errorf("%s: failed to delete help message: %w", operation, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: failed to read affected rows: %w", operation, err)
	}
	return n > 0, nil
}

func (s *Storage) ListHelpMessages(ctx context.Context) ([]HelpMessage, error) {
	const operation = "storage.ListHelpMessages"

	var msgs []HelpMessage
	if err := s.db.SelectContext(ctx, &msgs, `SELECT `+helpColumns+` FROM help_messages ORDER BY created_at DESC, id DESC`); err != nil {
		return nil, fmt.Errorf("%s: failed to list help messages: %w", operation, err)
	}
	return msgs, nil
}
