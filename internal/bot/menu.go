package bot

import (
	"context"
	"errors"
	"slices"
	"strings"

	"go.uber.org/zap"

	"orderbot/internal/storage"
)

func (b *Bot) welcome(r *request) string {
	name := r.ev.Profile.FirstName
	if name == "" {
		name = r.ev.Profile.Username
	}
	return b.t(r.lang, "menu.welcome", "name", name)
}

// showMainMenu is the safe entry point; it always leaves the session idle.
func (b *Bot) showMainMenu(ctx context.Context, r *request, notice string) {
	b.leaveContactStep(ctx, r)
	r.sess.Reset()

	text := b.welcome(r)
	if notice != "" {
		text = notice + "\n\n" + text
	}
	b.render(ctx, r, text, b.menuKeyboard(r))
}

func (b *Bot) showHelp(ctx context.Context, r *request) {
	text := b.t(r.lang, "help.none")

	msg, err := b.store.GetActiveHelpMessage(ctx)
	switch {
	case err == nil:
		text = msg.MessageText
	case errors.Is(err, storage.ErrNoActiveHelpMessage):
	default:
		b.fail(ctx, r, "GetActiveHelpMessage", err)
		return
	}

	b.render(ctx, r, text, b.mainMenuKeyboard(r.lang))
}

func (b *Bot) showSettings(ctx context.Context, r *request) {
	state := b.t(r.lang, "settings.off")
	toggle := b.t(r.lang, "btn.notifications_on")
	if r.user != nil && r.user.NotificationsEnabled {
		state = b.t(r.lang, "settings.on")
		toggle = b.t(r.lang, "btn.notifications_off")
	}

	text := b.t(r.lang, "settings.title",
		"language", b.t(r.lang, "language.name"),
		"notifications", state)

	b.render(ctx, r, text, inline(
		row(btn(b.t(r.lang, "btn.language"), Command{Action: ActLanguageMenu})),
		row(btn(toggle, Command{Action: ActNotify})),
		row(btn(b.t(r.lang, "btn.main_menu"), Command{Action: ActMainMenu})),
	))
}

func (b *Bot) toggleNotifications(ctx context.Context, r *request) {
	enabled := r.user == nil || !r.user.NotificationsEnabled

	if err := b.store.SetUserNotifications(ctx, r.ev.UserID, enabled); err != nil {
		b.fail(ctx, r, "SetUserNotifications", err)
		return
	}
	if r.user != nil {
		r.user.NotificationsEnabled = enabled
	}

	b.showSettings(ctx, r)
}

func (b *Bot) showLanguageMenu(ctx context.Context, r *request) {
	kb := inline()
	for _, code := range b.languages {
		label := b.t(code, "language.name")
		if code == r.lang {
			label = "✅ " + label
		}
		kb.Rows = append(kb.Rows, row(btn(label, Command{Action: ActSetLanguage, Value: code})))
	}
	kb.Rows = append(kb.Rows, row(btn(b.t(r.lang, "btn.back"), Command{Action: ActSettings})))

	b.render(ctx, r, b.t(r.lang, "language.choose"), kb)
}

func (b *Bot) setLanguage(ctx context.Context, r *request, code string) {
	if !slices.Contains(b.languages, code) {
		b.alert(ctx, r, b.t(r.lang, "error.invalid_action"))
		return
	}

	if err := b.store.SetUserLanguage(ctx, r.ev.UserID, code); err != nil {
		b.fail(ctx, r, "SetUserLanguage", err)
		return
	}

	b.logger.Debug("Language changed",
		zap.Int64("user_id", r.ev.UserID),
		zap.String("language", code))

	r.lang = code
	if r.user != nil {
		r.user.LanguageCode = code
	}
	b.alert(ctx, r, b.t(code, "settings.language_changed"))
	b.showSettings(ctx, r)
}

// showMyOrders lists the user's own orders, newest first.
func (b *Bot) showMyOrders(ctx context.Context, r *request, page int, activeOnly bool) {
	total, err := b.store.CountUserOrders(ctx, r.ev.UserID, activeOnly)
	if err != nil {
		b.fail(ctx, r, "CountUserOrders", err)
		return
	}

	pages := totalPages(total, b.pageSize)
	page = min(max(page, 1), pages)

	orders, err := b.store.ListUserOrders(ctx, r.ev.UserID, activeOnly, (page-1)*b.pageSize, b.pageSize)
	if err != nil {
		b.fail(ctx, r, "ListUserOrders", err)
		return
	}

	filter := b.t(r.lang, "my_orders.filter_all")
	toggle := b.t(r.lang, "btn.show_active")
	if activeOnly {
		filter = b.t(r.lang, "my_orders.filter_active")
		toggle = b.t(r.lang, "btn.show_all")
	}

	var sb strings.Builder
	if len(orders) == 0 {
		sb.WriteString(b.t(r.lang, "my_orders.empty"))
	} else {
		sb.WriteString(b.t(r.lang, "my_orders.title", "filter", filter, "page", page, "pages", pages))
		for _, o := range orders {
			sb.WriteString("\n\n")
			sb.WriteString(b.t(r.lang, "my_orders.item",
				"id", o.ID,
				"date", formatTime(o.CreatedAt),
				"status", b.statusLabel(r.lang, o.Status),
				"text", truncate(o.OrderText, 80)))
		}
	}

	kb := inline()
	if total > b.pageSize {
		kb.Rows = append(kb.Rows, b.pagerRows(r.lang, page, pages, func(p int) Command {
			return Command{Action: ActMyOrders, Page: p, Flag: activeOnly}
		})...)
	}
	kb.Rows = append(kb.Rows,
		row(btn(toggle, Command{Action: ActMyOrders, Page: 1, Flag: !activeOnly})),
		row(btn(b.t(r.lang, "btn.main_menu"), Command{Action: ActMainMenu})),
	)

	b.render(ctx, r, sb.String(), kb)
}
