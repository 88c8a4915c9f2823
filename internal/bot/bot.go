package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"orderbot/internal/session"
	"orderbot/internal/storage"
)

type Options struct {
	AdminIDs        []int64
	PageSize        int
	Languages       []string
	DefaultLanguage string
	// CRM is optional; nil disables forwarding.
	CRM OrderForwarder
}

type Bot struct {
	store     Store
	sessions  session.Store
	out       Renderer
	tr        Translator
	exporter  Exporter
	crm       OrderForwarder
	adminIDs  []int64
	pageSize  int
	languages []string
	lang      string
	logger    *zap.Logger
	now       func() time.Time

	handlers map[string]func(context.Context, *request)
}

// request carries one event through the handlers together with the
// conversation it belongs to.
type request struct {
	ev       Event
	sess     *session.Session
	user     *storage.User
	lang     string
	answered bool
	// replyRemoved is set once a message removing the reply keyboard went out.
	replyRemoved bool
}

// replyTo is the message to edit in place: the one holding the pressed button.
// Once a newer message went out below it, new messages are sent instead.
func (r *request) replyTo() int {
	if r.ev.Kind == EventButton && !r.replyRemoved {
		return r.ev.MessageID
	}
	return 0
}

func New(
	store Store,
	sessions session.Store,
	out Renderer,
	tr Translator,
	exporter Exporter,
	opts Options,
	logger *zap.Logger,
) *Bot {
	if opts.PageSize <= 0 {
		opts.PageSize = 5
	}
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = "uk"
	}
	if len(opts.Languages) == 0 {
		opts.Languages = []string{opts.DefaultLanguage}
	}

	b := &Bot{
		store:     store,
		sessions:  sessions,
		out:       out,
		tr:        tr,
		exporter:  exporter,
		crm:       opts.CRM,
		adminIDs:  opts.AdminIDs,
		pageSize:  opts.PageSize,
		languages: opts.Languages,
		lang:      opts.DefaultLanguage,
		logger:    logger,
		now:       time.Now,
	}

	b.registerHandlers()
	return b
}

// registerHandlers maps each state to the handler for free text and contacts.
func (b *Bot) registerHandlers() {
	b.handlers = map[string]func(context.Context, *request){
		StateWaitingForOrderTextEdit: b.handleOrderTextEdit,
		StateWaitingForSearchQuery:   b.handleSearchQuery,
		StateWaitingForHelpText:      b.handleHelpText,
		StateWaitingForHelpActivate:  b.handleHelpActivateInput,
		StateFinalSummary:            b.handleSummaryInput,
	}
	for _, step := range orderSteps {
		b.handlers[step.state] = b.handleFormInput
	}
}

// HandleEvent processes one inbound event. Events of one user must not be
// handled concurrently.
func (b *Bot) HandleEvent(ctx context.Context, ev Event) error {
	const operation = "bot.HandleEvent"

	if ev.Profile.ID == 0 {
		ev.Profile.ID = ev.UserID
	}

	user, err := b.store.GetOrCreateUser(ctx, ev.Profile)
	if err != nil {
		r := &request{ev: ev, sess: &session.Session{}, lang: b.lang}
		b.fail(ctx, r, "GetOrCreateUser", err)
		b.ack(ctx, r)
		return fmt.Errorf("%s: %w", operation, err)
	}

	key := session.Key{ChatID: ev.ChatID, UserID: ev.UserID}
	sess, err := b.sessions.Get(ctx, key)
	if err != nil {
		r := &request{ev: ev, sess: &session.Session{}, user: user, lang: user.LanguageCode}
		b.fail(ctx, r, "sessions.Get", err)
		b.ack(ctx, r)
		return fmt.Errorf("%s: failed to load session: %w", operation, err)
	}

	r := &request{ev: ev, sess: sess, user: user, lang: user.LanguageCode}
	sharing := contactKeyboardShown(sess)

	switch ev.Kind {
	case EventCommand:
		b.handleCommand(ctx, r)
	case EventButton:
		b.handleButton(ctx, r)
	case EventText, EventContact:
		b.handleInput(ctx, r)
	}

	if sharing && !contactKeyboardShown(r.sess) && !r.replyRemoved {
		b.dropContactKeyboard(ctx, r)
	}

	b.ack(ctx, r)

	if err := b.persist(ctx, key, r.sess); err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	return nil
}

func (b *Bot) persist(ctx context.Context, key session.Key, s *session.Session) error {
	if s.State == session.StateNone && len(s.Data) == 0 {
		if err := b.sessions.Clear(ctx, key); err != nil {
			return fmt.Errorf("failed to clear session: %w", err)
		}
		return nil
	}
	if err := b.sessions.Save(ctx, key, s); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (b *Bot) handleCommand(ctx context.Context, r *request) {
	switch r.ev.Text {
	case "start":
		b.showMainMenu(ctx, r, "")
	case "cancel":
		b.cancelFlow(ctx, r)
	case "help":
		b.showHelp(ctx, r)
	case "language":
		b.showLanguageMenu(ctx, r)
	case "orders":
		b.showMyOrders(ctx, r, 1, true)
	case "admin":
		if !b.requireAdmin(ctx, r) {
			return
		}
		b.leaveContactStep(ctx, r)
		r.sess.Reset()
		b.showAdminMenu(ctx, r)
	default:
		b.send(ctx, r, b.t(r.lang, "error.unknown_command"), b.mainMenuKeyboard(r.lang))
	}
}

var adminActions = map[Action]bool{
	ActAdminMenu:      true,
	ActAdminList:      true,
	ActAdminView:      true,
	ActAdminStatus:    true,
	ActAdminEdit:      true,
	ActAdminDelete:    true,
	ActAdminDeleteYes: true,
	ActAdminDeleteNo:  true,
	ActAdminSearch:    true,
	ActAdminExport:    true,
	ActAdminExportOne: true,
	ActAdminStats:     true,
	ActHelpMenu:       true,
	ActHelpAdd:        true,
	ActHelpSave:       true,
	ActHelpView:       true,
	ActHelpActivate:   true,
	ActHelpDelete:     true,
}

func (b *Bot) handleButton(ctx context.Context, r *request) {
	cmd, err := DecodeCallback(r.ev.Data)
	if err != nil {
		b.logger.Warn("Malformed callback",
			zap.Int64("chat_id", r.ev.ChatID),
			zap.String("data", r.ev.Data),
			zap.Error(err))
		b.alert(ctx, r, b.t(r.lang, "error.invalid_action"))
		return
	}

	if adminActions[cmd.Action] && !b.requireAdmin(ctx, r) {
		return
	}

	b.leaveInputState(r, cmd)

	switch cmd.Action {
	case ActNoop:
	case ActMainMenu:
		b.showMainMenu(ctx, r, "")
	case ActNewOrder:
		b.startOrder(ctx, r)
	case ActConfirmField:
		b.confirmField(ctx, r, cmd.Value)
	case ActReenterField:
		b.reenterField(ctx, r, cmd.Value)
	case ActPayment:
		b.choosePayment(ctx, r, cmd.Value)
	case ActSkipNotes:
		b.skipNotes(ctx, r)
	case ActSubmitOrder:
		b.submitOrder(ctx, r)
	case ActCancelOrder:
		b.cancelFlow(ctx, r)
	case ActMyOrders:
		b.showMyOrders(ctx, r, cmd.Page, cmd.Flag)
	case ActHelp:
		b.showHelp(ctx, r)
	case ActSettings:
		b.showSettings(ctx, r)
	case ActLanguageMenu:
		b.showLanguageMenu(ctx, r)
	case ActSetLanguage:
		b.setLanguage(ctx, r, cmd.Value)
	case ActNotify:
		b.toggleNotifications(ctx, r)

	case ActAdminMenu:
		b.showAdminMenu(ctx, r)
	case ActAdminList:
		b.showOrderList(ctx, r, cmd.Mode, cmd.Page)
	case ActAdminView:
		b.showOrderDetail(ctx, r, cmd.ID, cmd.Mode, cmd.Page)
	case ActAdminStatus:
		b.changeStatus(ctx, r, cmd)
	case ActAdminEdit:
		b.startTextEdit(ctx, r, cmd)
	case ActAdminDelete:
		b.confirmDelete(ctx, r, cmd)
	case ActAdminDeleteYes:
		b.deleteOrder(ctx, r, cmd.ID)
	case ActAdminDeleteNo:
		b.showOrderDetail(ctx, r, cmd.ID, cmd.Mode, cmd.Page)
	case ActAdminSearch:
		b.startSearch(ctx, r)
	case ActAdminExport:
		b.exportOrders(ctx, r, cmd.Mode)
	case ActAdminExportOne:
		b.exportOrder(ctx, r, cmd.ID, cmd.Mode, cmd.Page)
	case ActAdminStats:
		b.showStats(ctx, r)

	case ActHelpMenu:
		b.showHelpAdmin(ctx, r)
	case ActHelpAdd:
		b.startHelpAdd(ctx, r)
	case ActHelpSave:
		b.saveHelp(ctx, r, cmd.Flag)
	case ActHelpView:
		b.showHelpMessage(ctx, r, cmd.ID)
	case ActHelpActivate:
		b.activateHelp(ctx, r, cmd.ID)
	case ActHelpDelete:
		b.deleteHelp(ctx, r, cmd.ID)
	}
}

// leaveInputState drops an admin input state when a button from elsewhere is pressed.
func (b *Bot) leaveInputState(r *request, cmd Command) {
	if !isAdminInputState(r.sess.State) || cmd.Action == ActNoop {
		return
	}
	if r.sess.State == StateWaitingForHelpActivate && cmd.Action == ActHelpSave {
		return
	}
	r.sess.State = session.StateNone
	r.sess.Del(keyEditOrderID, keyReturnChatID, keyReturnMessageID, keyHelpText)
}

func (b *Bot) handleInput(ctx context.Context, r *request) {
	text := strings.TrimSpace(r.ev.Text)

	if isFormState(r.sess.State) && r.ev.Kind == EventText && text == b.t(r.lang, "btn.cancel_order") {
		b.cancelFlow(ctx, r)
		return
	}

	if r.sess.State == session.StateNone {
		b.showMainMenu(ctx, r, "")
		return
	}

	handler, ok := b.handlers[r.sess.State]
	if !ok {
		b.logger.Warn("Unknown session state",
			zap.Int64("chat_id", r.ev.ChatID),
			zap.String("state", r.sess.State))
		b.sessionExpired(ctx, r)
		return
	}

	handler(ctx, r)
}

func (b *Bot) isAdmin(userID int64) bool {
	for _, id := range b.adminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (b *Bot) requireAdmin(ctx context.Context, r *request) bool {
	if b.isAdmin(r.ev.UserID) {
		return true
	}
	b.logger.Warn("Admin action denied", zap.Int64("user_id", r.ev.UserID))
	if r.ev.Kind == EventButton {
		b.alert(ctx, r, b.t(r.lang, "admin.forbidden"))
		return false
	}
	b.send(ctx, r, b.t(r.lang, "admin.forbidden"), b.mainMenuKeyboard(r.lang))
	return false
}

// t translates key; kv are alternating placeholder names and values.
func (b *Bot) t(lang, key string, kv ...any) string {
	if len(kv) == 0 {
		return b.tr.T(key, lang, nil)
	}
	params := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		params[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return b.tr.T(key, lang, params)
}

// render edits the pressed message in place or sends a new one. A failed
// edit falls back to a new message.
func (b *Bot) render(ctx context.Context, r *request, text string, kb *Keyboard) int {
	msgID := r.replyTo()
	if kb != nil && (kb.Reply || kb.Remove) {
		msgID = 0
	}

	id, err := b.out.Render(ctx, r.ev.ChatID, msgID, text, kb)
	if err != nil && msgID != 0 {
		b.logger.Debug("Edit failed, sending new message",
			zap.Int64("chat_id", r.ev.ChatID),
			zap.Int("message_id", msgID),
			zap.Error(err))
		id, err = b.out.Render(ctx, r.ev.ChatID, 0, text, kb)
	}
	if err != nil {
		b.logger.Error("Failed to render message",
			zap.Int64("chat_id", r.ev.ChatID),
			zap.Error(err))
		return 0
	}
	return id
}

func (b *Bot) send(ctx context.Context, r *request, text string, kb *Keyboard) int {
	id, err := b.out.Render(ctx, r.ev.ChatID, 0, text, kb)
	if err != nil {
		b.logger.Error("Failed to send message",
			zap.Int64("chat_id", r.ev.ChatID),
			zap.Error(err))
		return 0
	}
	if kb != nil && kb.Remove {
		r.replyRemoved = true
	}
	return id
}

// alert shows a popup for button presses and a plain message otherwise.
func (b *Bot) alert(ctx context.Context, r *request, text string) {
	if r.ev.Kind != EventButton {
		b.send(ctx, r, text, nil)
		return
	}
	if r.answered {
		return
	}
	r.answered = true
	if err := b.out.Alert(ctx, r.ev.CallbackID, text); err != nil {
		b.logger.Debug("Failed to answer callback", zap.Error(err))
	}
}

// ack answers a button press that no handler answered.
func (b *Bot) ack(ctx context.Context, r *request) {
	if r.ev.Kind == EventButton && !r.answered {
		b.alert(ctx, r, "")
	}
}

// fail logs a store failure and leaves the user a way back to the menu.
func (b *Bot) fail(ctx context.Context, r *request, op string, err error) {
	b.logger.Error("Operation failed",
		zap.String("op", op),
		zap.Int64("chat_id", r.ev.ChatID),
		zap.Int64("user_id", r.ev.UserID),
		zap.Error(err))
	b.send(ctx, r, b.t(r.lang, "error.generic"), b.mainMenuKeyboard(r.lang))
}

// sessionExpired recovers from missing scratch data by returning to the main menu.
func (b *Bot) sessionExpired(ctx context.Context, r *request) {
	b.showMainMenu(ctx, r, b.t(r.lang, "error.session_expired"))
}
