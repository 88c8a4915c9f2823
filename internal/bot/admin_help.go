package bot

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"orderbot/internal/session"
	"orderbot/internal/storage"
)

func (b *Bot) showHelpAdmin(ctx context.Context, r *request) {
	messages, err := b.store.ListHelpMessages(ctx)
	if err != nil {
		b.fail(ctx, r, "ListHelpMessages", err)
		return
	}

	text := b.t(r.lang, "admin.help.empty")
	if len(messages) > 0 {
		text = b.t(r.lang, "admin.help.title")
	}

	kb := inline()
	for _, m := range messages {
		mark := "▫️"
		if m.IsActive {
			mark = "✅"
		}
		label := b.t(r.lang, "admin.help.item", "mark", mark, "id", m.ID, "text", truncate(m.MessageText, 32))
		kb.Rows = append(kb.Rows, row(btn(label, Command{Action: ActHelpView, ID: m.ID})))
	}
	kb.Rows = append(kb.Rows,
		row(btn(b.t(r.lang, "btn.help_add"), Command{Action: ActHelpAdd})),
		row(btn(b.t(r.lang, "btn.back"), Command{Action: ActAdminMenu})),
	)

	b.render(ctx, r, text, kb)
}

func (b *Bot) startHelpAdd(ctx context.Context, r *request) {
	r.sess.State = StateWaitingForHelpText
	b.render(ctx, r, b.t(r.lang, "admin.help.prompt"), inline(
		row(btn(b.t(r.lang, "btn.back"), Command{Action: ActHelpMenu})),
	))
}

func (b *Bot) handleHelpText(ctx context.Context, r *request) {
	text := strings.TrimSpace(r.ev.Text)
	if text == "" {
		b.send(ctx, r, b.t(r.lang, "admin.help.prompt"), inline(
			row(btn(b.t(r.lang, "btn.back"), Command{Action: ActHelpMenu})),
		))
		return
	}

	r.sess.State = StateWaitingForHelpActivate
	r.sess.Set(keyHelpText, text)

	b.send(ctx, r, b.t(r.lang, "admin.help.activate_question", "text", text), inline(
		row(
			btn(b.t(r.lang, "btn.activate_now"), Command{Action: ActHelpSave, Flag: true}),
			btn(b.t(r.lang, "btn.save_inactive"), Command{Action: ActHelpSave, Flag: false}),
		),
		row(btn(b.t(r.lang, "btn.back"), Command{Action: ActHelpMenu})),
	))
}

func (b *Bot) handleHelpActivateInput(ctx context.Context, r *request) {
	b.send(ctx, r, b.t(r.lang, "order.use_buttons"), nil)
}

func (b *Bot) saveHelp(ctx context.Context, r *request, activate bool) {
	text := r.sess.Get(keyHelpText)
	if r.sess.State != StateWaitingForHelpActivate || text == "" {
		b.sessionExpired(ctx, r)
		return
	}

	r.sess.State = session.StateNone
	r.sess.Del(keyHelpText)

	msg, err := b.store.AddHelpMessage(ctx, text, activate)
	if err != nil {
		b.fail(ctx, r, "AddHelpMessage", err)
		return
	}

	b.logger.Info("Help message added",
		zap.Int64("help_id", msg.ID),
		zap.Bool("active", msg.IsActive),
		zap.Int64("admin_id", r.ev.UserID))

	b.alert(ctx, r, b.t(r.lang, "admin.help.saved"))
	b.showHelpAdmin(ctx, r)
}

func (b *Bot) showHelpMessage(ctx context.Context, r *request, id int64) {
	msg, err := b.store.GetHelpMessage(ctx, id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		b.alert(ctx, r, b.t(r.lang, "error.help_not_found"))
		b.showHelpAdmin(ctx, r)
		return
	case err != nil:
		b.fail(ctx, r, "GetHelpMessage", err)
		return
	}

	state := b.t(r.lang, "admin.help.inactive")
	if msg.IsActive {
		state = b.t(r.lang, "admin.help.active")
	}

	kb := inline()
	if !msg.IsActive {
		kb.Rows = append(kb.Rows, row(btn(b.t(r.lang, "btn.help_activate"), Command{Action: ActHelpActivate, ID: msg.ID})))
	}
	kb.Rows = append(kb.Rows,
		row(btn(b.t(r.lang, "btn.delete"), Command{Action: ActHelpDelete, ID: msg.ID})),
		row(btn(b.t(r.lang, "btn.back"), Command{Action: ActHelpMenu})),
	)

	b.render(ctx, r, b.t(r.lang, "admin.help.view", "id", msg.ID, "state", state, "text", msg.MessageText), kb)
}

func (b *Bot) activateHelp(ctx context.Context, r *request, id int64) {
	err := b.store.SetActiveHelpMessage(ctx, id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		b.alert(ctx, r, b.t(r.lang, "error.help_not_found"))
		b.showHelpAdmin(ctx, r)
		return
	case err != nil:
		b.fail(ctx, r, "SetActiveHelpMessage", err)
		return
	}

	b.logger.Info("Help message activated",
		zap.Int64("help_id", id),
		zap.Int64("admin_id", r.ev.UserID))

	b.alert(ctx, r, b.t(r.lang, "admin.help.activated"))
	b.showHelpMessage(ctx, r, id)
}

// deleteHelp removes the message even when it is the active one; no other
// message is promoted.
func (b *Bot) deleteHelp(ctx context.Context, r *request, id int64) {
	deleted, err := b.store.DeleteHelpMessage(ctx, id)
	if err != nil {
		b.fail(ctx, r, "DeleteHelpMessage", err)
		return
	}

	if deleted {
		b.alert(ctx, r, b.t(r.lang, "admin.help.deleted"))
	} else {
		b.alert(ctx, r, b.t(r.lang, "error.help_not_found"))
	}
	b.showHelpAdmin(ctx, r)
}
