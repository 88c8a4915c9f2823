package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"orderbot/internal/session"
	"orderbot/internal/storage"
)

func (b *Bot) showAdminMenu(ctx context.Context, r *request) {
	b.render(ctx, r, b.t(r.lang, "admin.menu"), inline(
		row(btn(b.t(r.lang, "btn.admin_orders"), Command{Action: ActAdminList, Mode: ModeAll, Page: 1})),
		row(btn(b.t(r.lang, "btn.admin_search"), Command{Action: ActAdminSearch})),
		row(btn(b.t(r.lang, "btn.admin_export"), Command{Action: ActAdminExport, Mode: ModeAll})),
		row(btn(b.t(r.lang, "btn.admin_stats"), Command{Action: ActAdminStats})),
		row(btn(b.t(r.lang, "btn.admin_help"), Command{Action: ActHelpMenu})),
		row(btn(b.t(r.lang, "btn.main_menu"), Command{Action: ActMainMenu})),
	))
}

func (b *Bot) showStats(ctx context.Context, r *request) {
	stats, err := b.store.GetOrderStats(ctx)
	if err != nil {
		b.fail(ctx, r, "GetOrderStats", err)
		return
	}

	lines := []string{b.t(r.lang, "admin.stats.title",
		"total", stats.Total,
		"today", stats.Today,
		"week", stats.Week,
		"month", stats.Month)}
	for _, status := range storage.Statuses {
		lines = append(lines, b.t(r.lang, "admin.stats.status",
			"status", b.statusLabel(r.lang, status),
			"count", stats.ByStatus[status]))
	}

	b.render(ctx, r, strings.Join(lines, "\n"), inline(
		row(btn(b.t(r.lang, "btn.back"), Command{Action: ActAdminMenu})),
	))
}

// fetchOrders returns one page of the list selected by mode. The search query
// lives in the session since list payloads only carry mode and page.
func (b *Bot) fetchOrders(ctx context.Context, mode ListMode, query string, offset, limit int) ([]storage.Order, int, error) {
	if mode == ModeSearch {
		return b.store.SearchOrders(ctx, query, offset, limit)
	}
	return b.store.ListOrders(ctx, offset, limit)
}

func (b *Bot) searchQuery(ctx context.Context, r *request, mode ListMode) (string, bool) {
	if mode != ModeSearch {
		return "", true
	}
	query := r.sess.Get(keySearchQuery)
	if query == "" {
		b.logger.Debug("Search query missing from session", zap.Int64("chat_id", r.ev.ChatID))
		b.sessionExpired(ctx, r)
		return "", false
	}
	return query, true
}

func (b *Bot) showOrderList(ctx context.Context, r *request, mode ListMode, page int) {
	query, ok := b.searchQuery(ctx, r, mode)
	if !ok {
		return
	}

	page = max(page, 1)
	orders, total, err := b.fetchOrders(ctx, mode, query, (page-1)*b.pageSize, b.pageSize)
	if err != nil {
		b.fail(ctx, r, "fetchOrders", err)
		return
	}

	pages := totalPages(total, b.pageSize)
	if page > pages {
		// The list shrank since the payload was built.
		page = pages
		orders, total, err = b.fetchOrders(ctx, mode, query, (page-1)*b.pageSize, b.pageSize)
		if err != nil {
			b.fail(ctx, r, "fetchOrders", err)
			return
		}
		pages = totalPages(total, b.pageSize)
	}

	r.sess.Set(keyAdminMode, string(mode))
	r.sess.Set(keyAdminPage, strconv.Itoa(page))

	var text string
	switch {
	case mode == ModeSearch && total == 0:
		text = b.t(r.lang, "admin.search.empty", "query", query)
	case mode == ModeSearch:
		text = b.t(r.lang, "admin.search.header", "query", query, "page", page, "pages", pages, "total", total)
	case total == 0:
		text = b.t(r.lang, "admin.list.empty")
	default:
		text = b.t(r.lang, "admin.list.header", "page", page, "pages", pages, "total", total)
	}

	kb := inline()
	for _, o := range orders {
		label := fmt.Sprintf("#%d · %s · %s", o.ID, truncate(o.OrderText, 24), b.statusLabel(r.lang, o.Status))
		kb.Rows = append(kb.Rows, row(btn(label, Command{Action: ActAdminView, ID: o.ID, Mode: mode, Page: page})))
	}

	if total > b.pageSize {
		kb.Rows = append(kb.Rows, b.pagerRows(r.lang, page, pages, func(p int) Command {
			return Command{Action: ActAdminList, Mode: mode, Page: p}
		})...)
	}

	if total > 0 {
		kb.Rows = append(kb.Rows, row(btn(b.t(r.lang, "btn.admin_export"), Command{Action: ActAdminExport, Mode: mode})))
	}
	if mode == ModeSearch {
		kb.Rows = append(kb.Rows, row(btn(b.t(r.lang, "btn.new_search"), Command{Action: ActAdminSearch})))
	}
	kb.Rows = append(kb.Rows, row(btn(b.t(r.lang, "btn.back"), Command{Action: ActAdminMenu})))

	b.render(ctx, r, text, kb)
}

func (b *Bot) detailView(lang string, o *storage.Order, mode ListMode, page int) (string, *Keyboard) {
	text := b.t(lang, "admin.detail", "id", o.ID, "details", b.orderDetails(lang, o))

	kb := inline()
	var statusRow []Button
	for _, status := range storage.Statuses {
		if status == o.Status {
			continue
		}
		statusRow = append(statusRow, btn(
			b.t(lang, "btn.set_status", "status", b.statusLabel(lang, status)),
			Command{Action: ActAdminStatus, ID: o.ID, Value: status, Mode: mode, Page: page},
		))
		if len(statusRow) == 2 {
			kb.Rows = append(kb.Rows, statusRow)
			statusRow = nil
		}
	}
	if len(statusRow) > 0 {
		kb.Rows = append(kb.Rows, statusRow)
	}

	kb.Rows = append(kb.Rows,
		row(
			btn(b.t(lang, "btn.edit_text"), Command{Action: ActAdminEdit, ID: o.ID, Mode: mode, Page: page}),
			btn(b.t(lang, "btn.delete"), Command{Action: ActAdminDelete, ID: o.ID, Mode: mode, Page: page}),
		),
		row(btn(b.t(lang, "btn.export_order"), Command{Action: ActAdminExportOne, ID: o.ID, Mode: mode, Page: page})),
		row(btn(b.t(lang, "btn.back_to_list"), Command{Action: ActAdminList, Mode: mode, Page: page})),
	)

	return text, kb
}

// loadOrder fetches an order for an admin action. A missing order alerts and
// falls back to the list the admin came from.
func (b *Bot) loadOrder(ctx context.Context, r *request, id int64, mode ListMode, page int) (*storage.Order, bool) {
	order, err := b.store.GetOrder(ctx, id)
	switch {
	case err == nil:
		return order, true
	case errors.Is(err, storage.ErrNotFound):
		b.alert(ctx, r, b.t(r.lang, "error.not_found"))
		b.showOrderList(ctx, r, mode, page)
	default:
		b.fail(ctx, r, "GetOrder", err)
	}
	return nil, false
}

func (b *Bot) showOrderDetail(ctx context.Context, r *request, id int64, mode ListMode, page int) {
	order, ok := b.loadOrder(ctx, r, id, mode, page)
	if !ok {
		return
	}

	text, kb := b.detailView(r.lang, order, mode, page)
	b.render(ctx, r, text, kb)
}

func (b *Bot) changeStatus(ctx context.Context, r *request, cmd Command) {
	if !storage.IsValidStatus(cmd.Value) {
		b.alert(ctx, r, b.t(r.lang, "error.invalid_action"))
		return
	}

	order, err := b.store.UpdateOrderStatus(ctx, cmd.ID, cmd.Value)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		b.alert(ctx, r, b.t(r.lang, "error.not_found"))
		b.showOrderList(ctx, r, cmd.Mode, cmd.Page)
		return
	case err != nil:
		b.fail(ctx, r, "UpdateOrderStatus", err)
		return
	}

	b.logger.Info("Order status changed",
		zap.Int64("order_id", order.ID),
		zap.String("status", order.Status),
		zap.Int64("admin_id", r.ev.UserID))

	b.alert(ctx, r, b.t(r.lang, "admin.status_changed", "status", b.statusLabel(r.lang, order.Status)))

	text, kb := b.detailView(r.lang, order, cmd.Mode, cmd.Page)
	b.render(ctx, r, text, kb)

	b.notifyOwner(ctx, order)
}

// startTextEdit remembers which message shows the order so the detail can be
// refreshed in place once the new text arrives.
func (b *Bot) startTextEdit(ctx context.Context, r *request, cmd Command) {
	if _, ok := b.loadOrder(ctx, r, cmd.ID, cmd.Mode, cmd.Page); !ok {
		return
	}

	r.sess.State = StateWaitingForOrderTextEdit
	r.sess.Set(keyEditOrderID, strconv.FormatInt(cmd.ID, 10))
	r.sess.Set(keyReturnChatID, strconv.FormatInt(r.ev.ChatID, 10))
	r.sess.Set(keyReturnMessageID, strconv.Itoa(r.ev.MessageID))
	r.sess.Set(keyAdminMode, string(cmd.Mode))
	r.sess.Set(keyAdminPage, strconv.Itoa(cmd.Page))

	b.send(ctx, r, b.t(r.lang, "admin.edit.prompt", "id", cmd.ID), inline(
		row(btn(b.t(r.lang, "btn.back"), Command{Action: ActAdminView, ID: cmd.ID, Mode: cmd.Mode, Page: cmd.Page})),
	))
}

// listContext restores the list mode and page saved in the session.
func listContext(s *session.Session) (ListMode, int) {
	mode := ListMode(s.Get(keyAdminMode))
	if mode != ModeSearch {
		mode = ModeAll
	}
	page, err := strconv.Atoi(s.Get(keyAdminPage))
	if err != nil || page < 1 {
		page = 1
	}
	return mode, page
}

func (b *Bot) handleOrderTextEdit(ctx context.Context, r *request) {
	id, _ := strconv.ParseInt(r.sess.Get(keyEditOrderID), 10, 64)
	chatID, _ := strconv.ParseInt(r.sess.Get(keyReturnChatID), 10, 64)
	messageID, _ := strconv.Atoi(r.sess.Get(keyReturnMessageID))
	mode, page := listContext(r.sess)

	// Any submission ends the edit, successful or not.
	r.sess.State = session.StateNone
	r.sess.Del(keyEditOrderID, keyReturnChatID, keyReturnMessageID)

	if id <= 0 {
		b.sessionExpired(ctx, r)
		return
	}

	order, err := b.store.UpdateOrderText(ctx, id, strings.TrimSpace(r.ev.Text))
	switch {
	case errors.Is(err, storage.ErrEmptyText):
		b.send(ctx, r, b.t(r.lang, "order.empty_value"), inline(
			row(btn(b.t(r.lang, "btn.view_order"), Command{Action: ActAdminView, ID: id, Mode: mode, Page: page})),
		))
		return
	case errors.Is(err, storage.ErrNotFound):
		b.send(ctx, r, b.t(r.lang, "error.not_found"), inline(
			row(btn(b.t(r.lang, "btn.back_to_list"), Command{Action: ActAdminList, Mode: mode, Page: page})),
		))
		return
	case err != nil:
		b.fail(ctx, r, "UpdateOrderText", err)
		return
	}

	b.logger.Info("Order text updated",
		zap.Int64("order_id", order.ID),
		zap.Int64("admin_id", r.ev.UserID))

	text, kb := b.detailView(r.lang, order, mode, page)
	if chatID == 0 || messageID == 0 {
		b.send(ctx, r, text, kb)
	} else if _, err := b.out.Render(ctx, chatID, messageID, text, kb); err != nil {
		b.logger.Debug("In-place detail refresh failed, sending new message",
			zap.Int64("chat_id", chatID),
			zap.Int("message_id", messageID),
			zap.Error(err))
		b.send(ctx, r, text, kb)
	}

	b.send(ctx, r, b.t(r.lang, "admin.edit.saved", "id", order.ID), nil)
}

func (b *Bot) confirmDelete(ctx context.Context, r *request, cmd Command) {
	if _, ok := b.loadOrder(ctx, r, cmd.ID, cmd.Mode, cmd.Page); !ok {
		return
	}

	b.render(ctx, r, b.t(r.lang, "admin.delete.confirm", "id", cmd.ID), inline(row(
		btn(b.t(r.lang, "btn.yes"), Command{Action: ActAdminDeleteYes, ID: cmd.ID}),
		btn(b.t(r.lang, "btn.no"), Command{Action: ActAdminDeleteNo, ID: cmd.ID, Mode: cmd.Mode, Page: cmd.Page}),
	)))
}

func (b *Bot) deleteOrder(ctx context.Context, r *request, id int64) {
	deleted, err := b.store.DeleteOrder(ctx, id)
	if err != nil {
		b.fail(ctx, r, "DeleteOrder", err)
		return
	}

	if !deleted {
		b.render(ctx, r, b.t(r.lang, "error.not_found"), inline(
			row(btn(b.t(r.lang, "btn.back_to_list"), Command{Action: ActAdminList, Mode: ModeAll, Page: 1})),
		))
		return
	}

	b.logger.Info("Order deleted",
		zap.Int64("order_id", id),
		zap.Int64("admin_id", r.ev.UserID))

	b.alert(ctx, r, b.t(r.lang, "admin.deleted", "id", id))
	b.showOrderList(ctx, r, ModeAll, 1)
}

func (b *Bot) startSearch(ctx context.Context, r *request) {
	r.sess.State = StateWaitingForSearchQuery
	b.render(ctx, r, b.t(r.lang, "admin.search.prompt"), inline(
		row(btn(b.t(r.lang, "btn.back"), Command{Action: ActAdminMenu})),
	))
}

func (b *Bot) handleSearchQuery(ctx context.Context, r *request) {
	query := strings.TrimSpace(r.ev.Text)
	if query == "" {
		b.send(ctx, r, b.t(r.lang, "admin.search.prompt"), inline(
			row(btn(b.t(r.lang, "btn.back"), Command{Action: ActAdminMenu})),
		))
		return
	}

	r.sess.State = session.StateNone
	r.sess.Set(keySearchQuery, query)
	b.showOrderList(ctx, r, ModeSearch, 1)
}

// exportOrders sends the whole list of the given mode as a document.
func (b *Bot) exportOrders(ctx context.Context, r *request, mode ListMode) {
	query, ok := b.searchQuery(ctx, r, mode)
	if !ok {
		return
	}

	orders, _, err := b.fetchOrders(ctx, mode, query, 0, storage.Unlimited)
	if err != nil {
		b.fail(ctx, r, "fetchOrders", err)
		return
	}
	if len(orders) == 0 {
		b.alert(ctx, r, b.t(r.lang, "admin.export.empty"))
		return
	}

	data, err := b.exporter.Export(orders, r.lang)
	if err != nil {
		b.fail(ctx, r, "Export", err)
		return
	}

	name := fmt.Sprintf("orders_%s.%s", b.now().Format("20060102_150405"), b.exporter.FileExt())
	caption := b.t(r.lang, "admin.export.caption", "count", len(orders))
	if err := b.out.SendDocument(ctx, r.ev.ChatID, name, data, caption); err != nil {
		b.fail(ctx, r, "SendDocument", err)
		return
	}

	b.logger.Info("Orders exported",
		zap.Int64("admin_id", r.ev.UserID),
		zap.String("mode", string(mode)),
		zap.Int("count", len(orders)))
}

// exportOrder sends a single order as a spreadsheet.
func (b *Bot) exportOrder(ctx context.Context, r *request, id int64, mode ListMode, page int) {
	order, ok := b.loadOrder(ctx, r, id, mode, page)
	if !ok {
		return
	}

	data, err := b.exporter.Export([]storage.Order{*order}, r.lang)
	if err != nil {
		b.fail(ctx, r, "Export", err)
		return
	}

	name := fmt.Sprintf("order_%d_%s.%s", order.ID, b.now().Format("20060102_150405"), b.exporter.FileExt())
	caption := b.t(r.lang, "admin.export.order_caption", "id", order.ID)
	if err := b.out.SendDocument(ctx, r.ev.ChatID, name, data, caption); err != nil {
		b.fail(ctx, r, "SendDocument", err)
		return
	}

	b.logger.Info("Order exported",
		zap.Int64("admin_id", r.ev.UserID),
		zap.Int64("order_id", order.ID))
}
