package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderbot/internal/i18n"
	"orderbot/internal/session"
	"orderbot/internal/storage"
	"orderbot/internal/testutil"
)

const (
	userID  int64 = 1001
	adminID int64 = 9001
)

type sentMessage struct {
	ChatID    int64
	MessageID int
	Edit      bool
	Text      string
	Keyboard  *Keyboard
}

type sentDocument struct {
	ChatID  int64
	Name    string
	Data    []byte
	Caption string
}

// recorder is a Renderer that keeps everything the bot outputs.
type recorder struct {
	nextID    int
	messages  []sentMessage
	documents []sentDocument
	alerts    []string
	failEdits bool
}

func (r *recorder) Render(_ context.Context, chatID int64, messageID int, text string, kb *Keyboard) (int, error) {
	if messageID != 0 {
		if r.failEdits {
			return 0, errors.New("message to edit not found")
		}
		r.messages = append(r.messages, sentMessage{chatID, messageID, true, text, kb})
		return messageID, nil
	}
	r.nextID++
	r.messages = append(r.messages, sentMessage{chatID, r.nextID, false, text, kb})
	return r.nextID, nil
}

func (r *recorder) SendDocument(_ context.Context, chatID int64, name string, data []byte, caption string) error {
	r.documents = append(r.documents, sentDocument{chatID, name, data, caption})
	return nil
}

func (r *recorder) Alert(_ context.Context, _ string, text string) error {
	r.alerts = append(r.alerts, text)
	return nil
}

func (r *recorder) last(chatID int64) sentMessage {
	for i := len(r.messages) - 1; i >= 0; i-- {
		if r.messages[i].ChatID == chatID {
			return r.messages[i]
		}
	}
	return sentMessage{}
}

// lastNewID is the id of the newest message in the chat, the one holding the current buttons.
func (r *recorder) lastNewID(chatID int64) int {
	for i := len(r.messages) - 1; i >= 0; i-- {
		if r.messages[i].ChatID == chatID && !r.messages[i].Edit {
			return r.messages[i].MessageID
		}
	}
	return 0
}

func (r *recorder) lastAlert() string {
	for i := len(r.alerts) - 1; i >= 0; i-- {
		if r.alerts[i] != "" {
			return r.alerts[i]
		}
	}
	return ""
}

func (r *recorder) textsTo(chatID int64) []string {
	var texts []string
	for _, m := range r.messages {
		if m.ChatID == chatID {
			texts = append(texts, m.Text)
		}
	}
	return texts
}

type fakeExporter struct {
	exported [][]storage.Order
}

func (f *fakeExporter) Export(orders []storage.Order, _ string) ([]byte, error) {
	f.exported = append(f.exported, orders)
	return []byte("workbook"), nil
}

func (f *fakeExporter) FileExt() string {
	return "xlsx"
}

type harness struct {
	t        *testing.T
	bot      *Bot
	store    *storage.Storage
	sessions *session.Memory
	out      *recorder
	exporter *fakeExporter
	tr       *i18n.Translator
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	tr, err := i18n.New("en")
	require.NoError(t, err)

	h := &harness{
		t:        t,
		store:    testutil.NewStore(t, "en"),
		sessions: session.NewMemory(),
		out:      &recorder{},
		exporter: &fakeExporter{},
		tr:       tr,
	}
	h.bot = New(h.store, h.sessions, h.out, tr, h.exporter, Options{
		AdminIDs:        []int64{adminID},
		PageSize:        3,
		Languages:       tr.Languages(),
		DefaultLanguage: "en",
	}, testutil.Logger())
	return h
}

func (h *harness) handle(ev Event) {
	h.t.Helper()
	ev.ChatID = ev.UserID
	ev.Profile = storage.UserProfile{Username: "alice", FirstName: "Alice"}
	require.NoError(h.t, h.bot.HandleEvent(context.Background(), ev))
}

func (h *harness) command(user int64, name string) {
	h.t.Helper()
	h.handle(Event{Kind: EventCommand, UserID: user, Text: name})
}

func (h *harness) text(user int64, text string) {
	h.t.Helper()
	h.handle(Event{Kind: EventText, UserID: user, Text: text})
}

func (h *harness) contact(user int64, phone string) {
	h.t.Helper()
	h.handle(Event{Kind: EventContact, UserID: user, ContactPhone: phone})
}

func (h *harness) pressData(user int64, data string) {
	h.t.Helper()
	h.handle(Event{
		Kind:       EventButton,
		UserID:     user,
		MessageID:  h.out.lastNewID(user),
		CallbackID: "cb",
		Data:       data,
	})
}

func (h *harness) press(user int64, c Command) {
	h.t.Helper()
	data, err := EncodeCallback(c)
	require.NoError(h.t, err)
	h.pressData(user, data)
}

func (h *harness) session(user int64) *session.Session {
	h.t.Helper()
	s, err := h.sessions.Get(context.Background(), session.Key{ChatID: user, UserID: user})
	require.NoError(h.t, err)
	return s
}

func (h *harness) tt(key string, kv ...any) string {
	return h.bot.t("en", key, kv...)
}

func (h *harness) orderCount() int {
	h.t.Helper()
	_, total, err := h.store.ListOrders(context.Background(), 0, storage.Unlimited)
	require.NoError(h.t, err)
	return total
}

func (h *harness) seed(texts ...string) []*storage.Order {
	h.t.Helper()
	orders := make([]*storage.Order, 0, len(texts))
	for _, text := range texts {
		o, err := h.store.CreateOrder(context.Background(), storage.NewOrder{
			UserID:    userID,
			Username:  "alice",
			OrderText: text,
		})
		require.NoError(h.t, err)
		orders = append(orders, o)
	}
	return orders
}

func hasButton(kb *Keyboard, data string) bool {
	if kb == nil {
		return false
	}
	for _, row := range kb.Rows {
		for _, b := range row {
			if b.Data == data {
				return true
			}
		}
	}
	return false
}

func TestHandleEvent_StartShowsMenu(t *testing.T) {
	h := newHarness(t)

	h.command(userID, "start")

	msg := h.out.last(userID)
	assert.Equal(t, h.tt("menu.welcome", "name", "Alice"), msg.Text)
	assert.True(t, hasButton(msg.Keyboard, "no"))
	assert.False(t, hasButton(msg.Keyboard, "am"))

	h.command(adminID, "start")
	assert.True(t, hasButton(h.out.last(adminID).Keyboard, "am"))

	user, err := h.store.GetUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, 0, h.sessions.Len())
}

func TestHandleEvent_UnknownCommand(t *testing.T) {
	h := newHarness(t)

	h.command(userID, "dance")

	assert.Equal(t, h.tt("error.unknown_command"), h.out.last(userID).Text)
}

func TestHandleEvent_MalformedCallback(t *testing.T) {
	h := newHarness(t)

	for _, data := range []string{"zz", "al:b:1", "av:x:a:1", "fc"} {
		h.pressData(userID, data)
		assert.Equal(t, h.tt("error.invalid_action"), h.out.lastAlert(), data)
	}
}

func TestHandleEvent_AdminActionsForbidden(t *testing.T) {
	h := newHarness(t)
	h.seed("Bread")

	h.press(userID, Command{Action: ActAdminList, Mode: ModeAll, Page: 1})
	assert.Equal(t, h.tt("admin.forbidden"), h.out.lastAlert())

	h.command(userID, "admin")
	assert.Equal(t, h.tt("admin.forbidden"), h.out.last(userID).Text)
	assert.Empty(t, h.out.textsTo(adminID))
}

func TestHandleEvent_ButtonsAreAcknowledged(t *testing.T) {
	h := newHarness(t)

	h.press(userID, Command{Action: ActNoop})

	require.Len(t, h.out.alerts, 1)
	assert.Equal(t, "", h.out.alerts[0])
}

func TestHandleEvent_IdleTextShowsMenu(t *testing.T) {
	h := newHarness(t)

	h.text(userID, "hello")

	assert.Equal(t, h.tt("menu.welcome", "name", "Alice"), h.out.last(userID).Text)
}
