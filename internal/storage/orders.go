package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const orderColumns = `id, user_id, username, order_text, full_name, delivery_address,
	payment_method, contact_phone, delivery_notes, status, created_at, sent_at, received_at`

// CreateOrder stores a confirmed order. The status is always StatusNew.
func (s *Storage) CreateOrder(ctx context.Context, o NewOrder) (*Order, error) {
	const operation = "storage.CreateOrder"

	if strings.TrimSpace(o.OrderText) == "" {
		return nil, fmt.Errorf("%s: %w", operation, ErrEmptyText)
	}

	query := s.db.Rebind(`
		INSERT INTO orders (
			user_id, username, order_text, full_name, delivery_address,
			payment_method, contact_phone, delivery_notes, status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING ` + orderColumns)

	var order Order
	err := s.db.GetContext(ctx, &order, query,
		o.UserID,
		o.Username,
		o.OrderText,
		o.FullName,
		o.DeliveryAddress,
		o.PaymentMethod,
		o.ContactPhone,
		o.DeliveryNotes,
		StatusNew,
		s.now(),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to save order: %w", operation, err)
	}

	s.logger.Info("Order created",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", order.UserID))

	return &order, nil
}

func (s *Storage) GetOrder(ctx context.Context, id int64) (*Order, error) {
	const operation = "storage.GetOrder"

	query := s.db.Rebind(`SELECT ` + orderColumns + ` FROM orders WHERE id = ?`)

	var order Order
	if err := s.db.GetContext(ctx, &order, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: order %d: %w", operation, id, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: failed to get order: %w", operation, err)
	}

	return &order, nil
}

// ListOrders returns one page of all orders, newest first, and the total count.
func (s *Storage) ListOrders(ctx context.Context, offset, limit int) ([]Order, int, error) {
	const operation = "storage.ListOrders"

	orders, total, err := s.selectPage(ctx, "", nil, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", operation, err)
	}
	return orders, total, nil
}

func (s *Storage) ListUserOrders(ctx context.Context, userID int64, activeOnly bool, offset, limit int) ([]Order, error) {
	const operation = "storage.ListUserOrders"

	where, args, err := userFilter(userID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	clause, pageArgs := s.page(offset, limit)
	query := s.db.Rebind(`SELECT ` + orderColumns + ` FROM orders WHERE ` + where +
		` ORDER BY created_at DESC, id DESC` + clause)

	var orders []Order
	if err := s.db.SelectContext(ctx, &orders, query, append(args, pageArgs...)...); err != nil {
		return nil, fmt.Errorf("%s: failed to list orders: %w", operation, err)
	}
	return orders, nil
}

func (s *Storage) CountUserOrders(ctx context.Context, userID int64, activeOnly bool) (int, error) {
	const operation = "storage.CountUserOrders"

	where, args, err := userFilter(userID, activeOnly)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", operation, err)
	}

	var total int
	if err := s.db.GetContext(ctx, &total, s.db.Rebind(`SELECT COUNT(*) FROM orders WHERE `+where), args...); err != nil {
		return 0, fmt.Errorf("%s: failed to count orders: %w", operation, err)
	}
	return total, nil
}

func userFilter(userID int64, activeOnly bool) (string, []any, error) {
	if !activeOnly {
		return "user_id = ?", []any{userID}, nil
	}
	where, args, err := sqlx.In("user_id = ? AND status IN (?)", userID, ActiveStatuses)
	if err != nil {
		return "", nil, fmt.Errorf("failed to expand statuses: %w", err)
	}
	return where, args, nil
}

// SearchOrders matches the query against order id and owner id exactly, and
// against username and order text as a case-insensitive substring.
func (s *Storage) SearchOrders(ctx context.Context, query string, offset, limit int) ([]Order, int, error) {
	const operation = "storage.SearchOrders"

	q := strings.TrimSpace(query)
	if q == "" {
		return nil, 0, nil
	}

	pattern := "%" + escapeLike(foldCase(q)) + "%"
	conds := []string{
		s.lowerFn + `(username) LIKE ? ESCAPE '\'`,
		s.lowerFn + `(order_text) LIKE ? ESCAPE '\'`,
	}
	args := []any{pattern, pattern}

	if n, err := strconv.ParseInt(strings.TrimPrefix(q, "#"), 10, 64); err == nil {
		conds = append(conds, "id = ?", "user_id = ?")
		args = append(args, n, n)
	}

	orders, total, err := s.selectPage(ctx, "("+strings.Join(conds, " OR ")+")", args, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", operation, err)
	}
	return orders, total, nil
}

// selectPage reads the count and the page in one transaction so both see the same rows.
func (s *Storage) selectPage(ctx context.Context, where string, args []any, offset, limit int) ([]Order, int, error) {
	if where != "" {
		where = " WHERE " + where
	}
	clause, pageArgs := s.page(offset, limit)

	var (
		orders []Order
		total  int
	)
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &total, tx.Rebind(`SELECT COUNT(*) FROM orders`+where), args...); err != nil {
			return fmt.Errorf("failed to count orders: %w", err)
		}
		if total == 0 {
			return nil
		}

		query := tx.Rebind(`SELECT ` + orderColumns + ` FROM orders` + where +
			` ORDER BY created_at DESC, id DESC` + clause)
		queryArgs := append(append([]any{}, args...), pageArgs...)
		if err := tx.SelectContext(ctx, &orders, query, queryArgs...); err != nil {
			return fmt.Errorf("failed to list orders: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// UpdateOrderStatus sets the status; shipped stamps sent_at and delivered stamps received_at.
func (s *Storage) UpdateOrderStatus(ctx context.Context, id int64, status string) (*Order, error) {
	const operation = "storage.UpdateOrderStatus"

	if !IsValidStatus(status) {
		return nil, fmt.Errorf("%s: %q: %w", operation, status, ErrInvalidStatus)
	}

	set := "status = ?"
	args := []any{status}
	switch status {
	case StatusShipped:
		set += ", sent_at = ?"
		args = append(args, s.now())
	case StatusDelivered:
		set += ", received_at = ?"
		args = append(args, s.now())
	}
	args = append(args, id)

	var order Order
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		query := tx.Rebind(`UPDATE orders SET ` + set + ` WHERE id = ? RETURNING ` + orderColumns)
		return tx.GetContext(ctx, &order, query, args...)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: order %d: %w", operation, id, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: failed to update status: %w", operation, err)
	}

	s.logger.Info("Order status updated",
		zap.Int64("order_id", id),
		zap.String("status", status))

	return &order, nil
}

func (s *Storage) UpdateOrderText(ctx context.Context, id int64, text string) (*Order, error) {
	const operation = "storage.UpdateOrderText"

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%s: %w", operation, ErrEmptyText)
	}

	query := s.db.Rebind(`UPDATE orders SET order_text = ? WHERE id = ? RETURNING ` + orderColumns)

	var order Order
	if err := s.db.GetContext(ctx, &order, query, text, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: order %d: %w", operation, id, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: failed to update text: %w", operation, err)
	}

	return &order, nil
}

// DeleteOrder hard-deletes an order and reports whether a row was removed.
func (s *Storage) DeleteOrder(ctx context.Context, id int64) (bool, error) {
	const operation = "storage.DeleteOrder"

	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM orders WHERE id = ?`), id)
	if err != nil {
		return false, fmt.Errorf("%s: failed to delete order: %w", operation, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: failed to read affected rows: %w", operation, err)
	}

	if n > 0 {
		s.logger.Info("Order deleted", zap.Int64("order_id", id))
	}
	return n > 0, nil
}

// GetOrderStats counts orders per status plus those created today, in the last 7 days and in the last 30 days.
func (s *Storage) GetOrderStats(ctx context.Context) (*OrderStats, error) {
	const operation = "storage.GetOrderStats"

	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var periods struct {
		Total int `db:"total"`
		Today int `db:"today"`
		Week  int `db:"week"`
		Month int `db:"month"`
	}
	query := s.db.Rebind(`
		SELECT
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN created_at >= ? THEN 1 ELSE 0 END), 0) AS today,
			COALESCE(SUM(CASE WHEN created_at >= ? THEN 1 ELSE 0 END), 0) AS week,
			COALESCE(SUM(CASE WHEN created_at >= ? THEN 1 ELSE 0 END), 0) AS month
		FROM orders`)
	err := s.db.GetContext(ctx, &periods, query,
		today,
		now.AddDate(0, 0, -7),
		now.AddDate(0, 0, -30),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to count orders: %w", operation, err)
	}

	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	err = s.db.SelectContext(ctx, &rows, `SELECT status, COUNT(*) AS count FROM orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get status counts: %w", operation, err)
	}

	stats := &OrderStats{
		Total:    periods.Total,
		Today:    periods.Today,
		Week:     periods.Week,
		Month:    periods.Month,
		ByStatus: make(map[string]int, len(Statuses)),
	}
	for _, status := range Statuses {
		stats.ByStatus[status] = 0
	}
	for _, r := range rows {
		stats.ByStatus[r.Status] = r.Count
	}
	return stats, nil
}
