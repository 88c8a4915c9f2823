package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderbot/internal/storage"
)

func TestSettings_ToggleNotifications(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.press(userID, Command{Action: ActSettings})
	assert.Equal(t, h.tt("settings.title", "language", "English", "notifications", h.tt("settings.on")), h.out.last(userID).Text)

	h.press(userID, Command{Action: ActNotify})

	user, err := h.store.GetUser(ctx, userID)
	require.NoError(t, err)
	assert.False(t, user.NotificationsEnabled)
	assert.Equal(t, h.tt("settings.title", "language", "English", "notifications", h.tt("settings.off")), h.out.last(userID).Text)

	h.press(userID, Command{Action: ActNotify})

	user, err = h.store.GetUser(ctx, userID)
	require.NoError(t, err)
	assert.True(t, user.NotificationsEnabled)
}

func TestSettings_Language(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.command(userID, "language")
	msg := h.out.last(userID)
	assert.Equal(t, h.tt("language.choose"), msg.Text)
	assert.True(t, hasButton(msg.Keyboard, "ls:uk"))
	assert.True(t, hasButton(msg.Keyboard, "ls:en"))

	h.press(userID, Command{Action: ActSetLanguage, Value: "uk"})

	lang, err := h.store.GetUserLanguage(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "uk", lang)
	assert.Equal(t, h.tr.T("settings.language_changed", "uk", nil), h.out.lastAlert())

	h.command(userID, "start")
	assert.Equal(t, h.tr.T("menu.welcome", "uk", map[string]any{"name": "Alice"}), h.out.last(userID).Text)

	h.press(userID, Command{Action: ActSetLanguage, Value: "xx"})
	lang, err = h.store.GetUserLanguage(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "uk", lang)
}

func TestMyOrders(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	orders := h.seed("o1", "o2", "o3", "o4")
	_, err := h.store.UpdateOrderStatus(ctx, orders[0].ID, storage.StatusDelivered)
	require.NoError(t, err)
	_, err = h.store.CreateOrder(ctx, storage.NewOrder{UserID: adminID, OrderText: "not mine"})
	require.NoError(t, err)

	h.command(userID, "orders")

	msg := h.out.last(userID)
	assert.Contains(t, msg.Text, h.tt("my_orders.title", "filter", h.tt("my_orders.filter_active"), "page", 1, "pages", 1))
	assert.Contains(t, msg.Text, "o4")
	assert.NotContains(t, msg.Text, "o1")
	assert.NotContains(t, msg.Text, "not mine")
	assert.True(t, hasButton(msg.Keyboard, "my:1:0"))

	h.press(userID, Command{Action: ActMyOrders, Page: 1, Flag: false})

	msg = h.out.last(userID)
	assert.Contains(t, msg.Text, h.tt("my_orders.title", "filter", h.tt("my_orders.filter_all"), "page", 1, "pages", 2))
	assert.True(t, hasButton(msg.Keyboard, "my:2:0"))

	h.press(userID, Command{Action: ActMyOrders, Page: 2, Flag: false})
	assert.Contains(t, h.out.last(userID).Text, "o1")
}

func TestMyOrders_Empty(t *testing.T) {
	h := newHarness(t)

	h.press(userID, Command{Action: ActMyOrders, Page: 1, Flag: true})

	assert.Equal(t, h.tt("my_orders.empty"), h.out.last(userID).Text)
}
