package bot

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderbot/internal/storage"
)

func addHelp(h *harness, text string, activate bool) *storage.HelpMessage {
	h.t.Helper()

	h.press(adminID, Command{Action: ActHelpAdd})
	require.Equal(h.t, StateWaitingForHelpText, h.session(adminID).State)

	h.text(adminID, text)
	s := h.session(adminID)
	require.Equal(h.t, StateWaitingForHelpActivate, s.State)
	require.Equal(h.t, text, s.Get(keyHelpText))

	h.press(adminID, Command{Action: ActHelpSave, Flag: activate})
	assert.Equal(h.t, "", h.session(adminID).State)

	msgs, err := h.store.ListHelpMessages(context.Background())
	require.NoError(h.t, err)
	require.NotEmpty(h.t, msgs)
	return &msgs[0]
}

func TestHelpAdmin_AddAndActivate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.press(userID, Command{Action: ActHelp})
	assert.Equal(t, h.tt("help.none"), h.out.last(userID).Text)

	first := addHelp(h, "Delivery delayed", true)
	assert.Equal(t, h.tt("admin.help.saved"), h.out.lastAlert())

	active, err := h.store.GetActiveHelpMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, active.ID)

	h.press(userID, Command{Action: ActHelp})
	assert.Equal(t, "Delivery delayed", h.out.last(userID).Text)

	second := addHelp(h, "X", false)
	active, err = h.store.GetActiveHelpMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, active.ID)

	h.press(adminID, Command{Action: ActHelpView, ID: second.ID})
	assert.True(t, hasButton(h.out.last(adminID).Keyboard, cb(Command{Action: ActHelpActivate, ID: second.ID})))

	h.press(adminID, Command{Action: ActHelpActivate, ID: second.ID})
	assert.Equal(t, h.tt("admin.help.activated"), h.out.lastAlert())

	active, err = h.store.GetActiveHelpMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)

	h.press(adminID, Command{Action: ActHelpDelete, ID: second.ID})
	_, err = h.store.GetActiveHelpMessage(ctx)
	assert.ErrorIs(t, err, storage.ErrNoActiveHelpMessage)

	h.command(userID, "help")
	assert.Equal(t, h.tt("help.none"), h.out.last(userID).Text)
}

func TestHelpAdmin_ActivateMissing(t *testing.T) {
	h := newHarness(t)
	first := addHelp(h, "Delivery delayed", true)

	h.press(adminID, Command{Action: ActHelpActivate, ID: first.ID + 100})

	assert.Equal(t, h.tt("error.help_not_found"), h.out.lastAlert())
	active, err := h.store.GetActiveHelpMessage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.ID, active.ID)
}

func TestHelpAdmin_List(t *testing.T) {
	h := newHarness(t)
	active := addHelp(h, "Delivery delayed", true)
	inactive := addHelp(h, "Closed on Sunday", false)

	h.press(adminID, Command{Action: ActHelpMenu})

	msg := h.out.last(adminID)
	assert.Equal(t, h.tt("admin.help.title"), msg.Text)
	assert.True(t, hasButton(msg.Keyboard, cb(Command{Action: ActHelpView, ID: active.ID})))
	assert.True(t, hasButton(msg.Keyboard, cb(Command{Action: ActHelpView, ID: inactive.ID})))

	for _, row := range msg.Keyboard.Rows {
		if row[0].Data == cb(Command{Action: ActHelpView, ID: active.ID}) {
			assert.True(t, strings.HasPrefix(row[0].Text, "✅"))
		}
	}
}

func TestHelpAdmin_SaveWithoutText(t *testing.T) {
	h := newHarness(t)

	h.press(adminID, Command{Action: ActHelpSave, Flag: true})

	assert.True(t, strings.HasPrefix(h.out.last(adminID).Text, h.tt("error.session_expired")))
	msgs, err := h.store.ListHelpMessages(context.Background())
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestHelpAdmin_TextWhileChoosing(t *testing.T) {
	h := newHarness(t)

	h.press(adminID, Command{Action: ActHelpAdd})
	h.text(adminID, "Delivery delayed")
	h.text(adminID, "more text")

	s := h.session(adminID)
	assert.Equal(t, StateWaitingForHelpActivate, s.State)
	assert.Equal(t, "Delivery delayed", s.Get(keyHelpText))
}
