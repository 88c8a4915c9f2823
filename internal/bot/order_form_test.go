package bot

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderbot/internal/session"
	"orderbot/internal/storage"
	"orderbot/pkg/api"
)

// formActions walks the whole order form, one user action per entry.
var formActions = []func(h *harness){
	func(h *harness) { h.text(userID, "Two cakes") },
	func(h *harness) { h.press(userID, Command{Action: ActConfirmField, Value: fieldOrderText}) },
	func(h *harness) { h.text(userID, "Alice Smith") },
	func(h *harness) { h.press(userID, Command{Action: ActConfirmField, Value: fieldFullName}) },
	func(h *harness) { h.text(userID, "Main st 1") },
	func(h *harness) { h.press(userID, Command{Action: ActConfirmField, Value: fieldDeliveryAddress}) },
	func(h *harness) { h.press(userID, Command{Action: ActPayment, Value: storage.PaymentCash}) },
	func(h *harness) { h.press(userID, Command{Action: ActConfirmField, Value: fieldPaymentMethod}) },
	func(h *harness) { h.text(userID, "+380991234567") },
	func(h *harness) { h.press(userID, Command{Action: ActConfirmField, Value: fieldContactPhone}) },
	func(h *harness) { h.text(userID, "Ring twice") },
	func(h *harness) { h.press(userID, Command{Action: ActConfirmField, Value: fieldDeliveryNotes}) },
}

func containsText(texts []string, sub string) bool {
	for _, text := range texts {
		if strings.Contains(text, sub) {
			return true
		}
	}
	return false
}

func startForm(h *harness) {
	h.press(userID, Command{Action: ActNewOrder})
}

func TestOrderForm_Complete(t *testing.T) {
	h := newHarness(t)

	startForm(h)
	for _, act := range formActions {
		act(h)
	}

	s := h.session(userID)
	assert.Equal(t, StateFinalSummary, s.State)
	assert.Contains(t, h.out.last(userID).Text, "Ring twice")
	assert.Equal(t, 0, h.orderCount())

	h.press(userID, Command{Action: ActSubmitOrder})

	orders, total, err := h.store.ListOrders(context.Background(), 0, storage.Unlimited)
	require.NoError(t, err)
	require.Equal(t, 1, total)

	o := orders[0]
	assert.Equal(t, storage.StatusNew, o.Status)
	assert.Equal(t, userID, o.UserID)
	assert.Equal(t, "alice", o.Username)
	assert.Equal(t, "Two cakes", o.OrderText)
	assert.Equal(t, "Alice Smith", o.FullName)
	assert.Equal(t, "Main st 1", o.DeliveryAddress)
	assert.Equal(t, storage.PaymentCash, o.PaymentMethod)
	assert.Equal(t, "+380991234567", o.ContactPhone)
	assert.Equal(t, "Ring twice", o.DeliveryNotes)

	assert.Equal(t, 0, h.sessions.Len())
	assert.Equal(t, h.tt("order.created", "id", o.ID), h.out.last(userID).Text)

	adminMsg := h.out.last(adminID)
	assert.Contains(t, adminMsg.Text, "Two cakes")
	assert.True(t, hasButton(adminMsg.Keyboard, cb(Command{Action: ActAdminView, ID: o.ID, Mode: ModeAll, Page: 1})))
}

func TestOrderForm_CancelAtAnyStep(t *testing.T) {
	for n := 0; n <= len(formActions); n++ {
		h := newHarness(t)

		startForm(h)
		for _, act := range formActions[:n] {
			act(h)
		}
		h.press(userID, Command{Action: ActCancelOrder})

		assert.Equal(t, 0, h.orderCount(), "step %d", n)
		assert.Equal(t, 0, h.sessions.Len(), "step %d", n)
		assert.True(t, containsText(h.out.textsTo(userID), h.tt("order.cancelled")), "step %d", n)

		startForm(h)
		s := h.session(userID)
		assert.Equal(t, StateCollectingOrderText, s.State)
		assert.Empty(t, s.Data)
	}
}

func TestOrderForm_CancelCommandAndReplyButton(t *testing.T) {
	h := newHarness(t)

	startForm(h)
	formActions[0](h)
	h.command(userID, "cancel")
	assert.Equal(t, 0, h.sessions.Len())

	startForm(h)
	for _, act := range formActions[:8] {
		act(h)
	}
	require.Equal(t, StateCollectingContactPhone, h.session(userID).State)

	h.text(userID, h.tt("btn.cancel_order"))

	assert.Equal(t, 0, h.sessions.Len())
	assert.Equal(t, 0, h.orderCount())

	var removed bool
	for _, m := range h.out.messages {
		if m.ChatID == userID && m.Keyboard != nil && m.Keyboard.Remove && m.Text == h.tt("order.cancelled") {
			removed = true
		}
	}
	assert.True(t, removed)
}

func TestOrderForm_InvalidPhone(t *testing.T) {
	h := newHarness(t)

	startForm(h)
	for _, act := range formActions[:8] {
		act(h)
	}

	prompt := h.out.last(userID)
	require.NotNil(t, prompt.Keyboard)
	assert.True(t, prompt.Keyboard.Reply)
	assert.True(t, prompt.Keyboard.Rows[0][0].RequestContact)

	h.text(userID, "12345")

	s := h.session(userID)
	assert.Equal(t, StateCollectingContactPhone, s.State)
	assert.Empty(t, s.Get(fieldContactPhone))
	assert.Empty(t, s.Get(keyAwaiting))
	assert.Equal(t, h.tt("order.invalid_phone"), h.out.last(userID).Text)

	h.text(userID, "0991234567")

	s = h.session(userID)
	assert.Equal(t, "0991234567", s.Get(fieldContactPhone))
	assert.Equal(t, fieldContactPhone, s.Get(keyAwaiting))
}

func TestOrderForm_SharedContact(t *testing.T) {
	h := newHarness(t)

	startForm(h)
	for _, act := range formActions[:8] {
		act(h)
	}

	h.contact(userID, "380991234567")

	s := h.session(userID)
	assert.Equal(t, "+380991234567", s.Get(fieldContactPhone))
	assert.Equal(t, fieldContactPhone, s.Get(keyAwaiting))
}

func TestOrderForm_TextWhileAwaitingConfirmation(t *testing.T) {
	h := newHarness(t)

	startForm(h)
	formActions[0](h)
	h.text(userID, "Something else")

	s := h.session(userID)
	assert.Equal(t, StateCollectingOrderText, s.State)
	assert.Equal(t, "Two cakes", s.Get(fieldOrderText))
	assert.Equal(t, h.tt("order.use_buttons"), h.out.last(userID).Text)
}

func TestOrderForm_TextAtPaymentStep(t *testing.T) {
	h := newHarness(t)

	startForm(h)
	for _, act := range formActions[:6] {
		act(h)
	}
	require.Equal(t, StateCollectingPaymentMethod, h.session(userID).State)

	h.text(userID, "bitcoin")

	s := h.session(userID)
	assert.Equal(t, StateCollectingPaymentMethod, s.State)
	assert.Empty(t, s.Get(fieldPaymentMethod))

	h.press(userID, Command{Action: ActPayment, Value: "barter"})
	assert.Equal(t, h.tt("error.invalid_action"), h.out.lastAlert())
	assert.Empty(t, h.session(userID).Get(fieldPaymentMethod))
}

func TestOrderForm_Reenter(t *testing.T) {
	h := newHarness(t)

	startForm(h)
	h.text(userID, "Tow cakes")
	h.press(userID, Command{Action: ActReenterField, Value: fieldOrderText})

	s := h.session(userID)
	assert.Equal(t, StateCollectingOrderText, s.State)
	assert.Empty(t, s.Get(fieldOrderText))

	h.text(userID, "Two cakes")
	assert.Equal(t, "Two cakes", h.session(userID).Get(fieldOrderText))
}

func TestOrderForm_StaleButton(t *testing.T) {
	h := newHarness(t)

	startForm(h)
	formActions[0](h)
	h.press(userID, Command{Action: ActConfirmField, Value: fieldFullName})

	assert.Equal(t, h.tt("order.stale"), h.out.lastAlert())
	assert.Equal(t, StateCollectingOrderText, h.session(userID).State)

	h.press(userID, Command{Action: ActSubmitOrder})
	assert.Equal(t, 0, h.orderCount())
}

func TestOrderForm_SkipNotes(t *testing.T) {
	h := newHarness(t)

	startForm(h)
	for _, act := range formActions[:10] {
		act(h)
	}
	h.press(userID, Command{Action: ActSkipNotes})

	assert.Equal(t, StateFinalSummary, h.session(userID).State)
	assert.Contains(t, h.out.last(userID).Text, h.tt("field.delivery_notes")+": "+h.tt("order.none"))

	h.press(userID, Command{Action: ActSubmitOrder})

	orders, _, err := h.store.ListOrders(context.Background(), 0, storage.Unlimited)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Empty(t, orders[0].DeliveryNotes)
}

type fakeForwarder struct {
	requests []api.OrderRequest
	err      error
}

func (f *fakeForwarder) CreateOrder(_ context.Context, req api.OrderRequest) error {
	f.requests = append(f.requests, req)
	return f.err
}

func TestOrderForm_ForwardsToCRM(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "accepted"},
		{name: "crm down", err: errors.New("503")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			crm := &fakeForwarder{err: tt.err}
			h.bot.crm = crm

			startForm(h)
			for _, act := range formActions {
				act(h)
			}
			h.press(userID, Command{Action: ActSubmitOrder})

			require.Equal(t, 1, h.orderCount())
			require.Len(t, crm.requests, 1)

			req := crm.requests[0]
			assert.Equal(t, userID, req.UserID)
			assert.Equal(t, "Two cakes", req.Text)
			assert.Equal(t, storage.PaymentCash, req.PaymentMethod)
			assert.Equal(t, "+380991234567", req.Contact)
			assert.Equal(t, storage.StatusNew, req.Status)
		})
	}
}

func removals(msgs []sentMessage) int {
	n := 0
	for _, m := range msgs {
		if m.Keyboard != nil && m.Keyboard.Remove {
			n++
		}
	}
	return n
}

func TestOrderForm_LeavingPhoneStepRemovesContactKeyboard(t *testing.T) {
	tests := []struct {
		name  string
		leave func(h *harness)
		state string
	}{
		{
			name:  "main menu button",
			leave: func(h *harness) { h.press(userID, Command{Action: ActMainMenu}) },
			state: session.StateNone,
		},
		{
			name:  "start command",
			leave: func(h *harness) { h.command(userID, "start") },
			state: session.StateNone,
		},
		{
			name:  "new order button",
			leave: startForm,
			state: StateCollectingOrderText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			startForm(h)
			for _, act := range formActions[:8] {
				act(h)
			}
			require.Equal(t, StateCollectingContactPhone, h.session(userID).State)

			before := len(h.out.messages)
			tt.leave(h)

			assert.Equal(t, tt.state, h.session(userID).State)
			assert.Equal(t, 1, removals(h.out.messages[before:]))
			assert.False(t, h.out.last(userID).Edit)
		})
	}
}

func TestOrderForm_ContactKeyboardRemovedOnce(t *testing.T) {
	h := newHarness(t)

	startForm(h)
	for _, act := range formActions {
		act(h)
	}
	h.press(userID, Command{Action: ActSubmitOrder})

	assert.Equal(t, 1, removals(h.out.messages))
}
