package bot

import (
	"context"
	"slices"
	"strings"

	"go.uber.org/zap"

	"orderbot/internal/session"
	"orderbot/internal/storage"
)

type inputKind int

const (
	inputText inputKind = iota
	inputChoice
	inputPhone
	inputOptional
)

type formStep struct {
	state string
	field string
	input inputKind
	next  string
}

// orderSteps is the fixed field sequence of the order form.
var orderSteps = []formStep{
	{StateCollectingOrderText, fieldOrderText, inputText, StateCollectingFullName},
	{StateCollectingFullName, fieldFullName, inputText, StateCollectingDeliveryAddress},
	{StateCollectingDeliveryAddress, fieldDeliveryAddress, inputText, StateCollectingPaymentMethod},
	{StateCollectingPaymentMethod, fieldPaymentMethod, inputChoice, StateCollectingContactPhone},
	{StateCollectingContactPhone, fieldContactPhone, inputPhone, StateCollectingDeliveryNotes},
	{StateCollectingDeliveryNotes, fieldDeliveryNotes, inputOptional, StateFinalSummary},
}

func stepForState(state string) (formStep, bool) {
	for _, s := range orderSteps {
		if s.state == state {
			return s, true
		}
	}
	return formStep{}, false
}

func stepForField(field string) (formStep, bool) {
	for _, s := range orderSteps {
		if s.field == field {
			return s, true
		}
	}
	return formStep{}, false
}

func isFormState(state string) bool {
	if state == StateFinalSummary {
		return true
	}
	_, ok := stepForState(state)
	return ok
}

func (b *Bot) startOrder(ctx context.Context, r *request) {
	b.leaveContactStep(ctx, r)
	r.sess.Reset()
	r.sess.State = orderSteps[0].state
	b.promptStep(ctx, r, orderSteps[0])
}

func (b *Bot) promptStep(ctx context.Context, r *request, step formStep) {
	text := b.t(r.lang, "order.prompt."+step.field)

	switch step.input {
	case inputChoice:
		b.render(ctx, r, text, b.paymentKeyboard(r.lang))
	case inputPhone:
		b.send(ctx, r, text, b.contactKeyboard(r.lang))
	case inputOptional:
		b.render(ctx, r, text, b.notesKeyboard(r.lang))
	default:
		b.render(ctx, r, text, b.cancelKeyboard(r.lang))
	}
}

// handleFormInput captures free text or a shared contact for the current field.
func (b *Bot) handleFormInput(ctx context.Context, r *request) {
	step, ok := stepForState(r.sess.State)
	if !ok {
		b.sessionExpired(ctx, r)
		return
	}

	if field := r.sess.Get(keyAwaiting); field != "" {
		b.send(ctx, r, b.t(r.lang, "order.use_buttons"), b.echoKeyboard(r.lang, field))
		return
	}

	text := strings.TrimSpace(r.ev.Text)

	switch step.input {
	case inputChoice:
		b.send(ctx, r, b.t(r.lang, "order.use_buttons"), b.paymentKeyboard(r.lang))
		return

	case inputPhone:
		if r.ev.Kind == EventContact {
			text = normalizeContactPhone(r.ev.ContactPhone)
		} else if !IsValidPhone(text) {
			b.send(ctx, r, b.t(r.lang, "order.invalid_phone"), nil)
			return
		}

	default:
		if r.ev.Kind == EventContact || text == "" {
			b.send(ctx, r, b.t(r.lang, "order.empty_value"), b.cancelKeyboard(r.lang))
			return
		}
	}

	b.capture(ctx, r, step, text)
}

// capture stores the value and asks the user to confirm it before advancing.
func (b *Bot) capture(ctx context.Context, r *request, step formStep, value string) {
	r.sess.Set(step.field, value)
	r.sess.Set(keyAwaiting, step.field)

	if step.input == inputPhone {
		b.send(ctx, r, b.t(r.lang, "order.phone_received", "phone", value), removeKeyboard)
	}
	if step.input == inputChoice {
		value = b.paymentLabel(r.lang, value)
	}

	text := b.t(r.lang, "order.echo", "field", b.t(r.lang, "field."+step.field), "value", value)
	b.render(ctx, r, text, b.echoKeyboard(r.lang, step.field))
}

// activeStep resolves the form step a button refers to, or alerts that the button is stale.
func (b *Bot) activeStep(ctx context.Context, r *request, field string) (formStep, bool) {
	step, ok := stepForField(field)
	if !ok || r.sess.State != step.state {
		b.alert(ctx, r, b.t(r.lang, "order.stale"))
		return formStep{}, false
	}
	return step, true
}

func (b *Bot) confirmField(ctx context.Context, r *request, field string) {
	step, ok := b.activeStep(ctx, r, field)
	if !ok {
		return
	}
	if r.sess.Get(keyAwaiting) != field {
		b.alert(ctx, r, b.t(r.lang, "order.stale"))
		return
	}

	r.sess.Del(keyAwaiting)
	b.advance(ctx, r, step)
}

func (b *Bot) advance(ctx context.Context, r *request, step formStep) {
	r.sess.State = step.next
	if step.next == StateFinalSummary {
		b.showSummary(ctx, r, "")
		return
	}

	next, _ := stepForState(step.next)
	b.promptStep(ctx, r, next)
}

func (b *Bot) reenterField(ctx context.Context, r *request, field string) {
	step, ok := b.activeStep(ctx, r, field)
	if !ok {
		return
	}

	r.sess.Del(step.field, keyAwaiting)
	b.promptStep(ctx, r, step)
}

func (b *Bot) choosePayment(ctx context.Context, r *request, method string) {
	step, ok := b.activeStep(ctx, r, fieldPaymentMethod)
	if !ok {
		return
	}
	if r.sess.Get(keyAwaiting) != "" {
		b.alert(ctx, r, b.t(r.lang, "order.stale"))
		return
	}
	if !slices.Contains(storage.PaymentMethods, method) {
		b.alert(ctx, r, b.t(r.lang, "error.invalid_action"))
		return
	}

	b.capture(ctx, r, step, method)
}

func (b *Bot) skipNotes(ctx context.Context, r *request) {
	step, ok := b.activeStep(ctx, r, fieldDeliveryNotes)
	if !ok {
		return
	}

	r.sess.Del(step.field, keyAwaiting)
	b.advance(ctx, r, step)
}

func (b *Bot) showSummary(ctx context.Context, r *request, notice string) {
	text := b.t(r.lang, "order.summary", "details", b.formDetails(r.lang, r.sess))
	if notice != "" {
		text = notice + "\n\n" + text
	}
	b.render(ctx, r, text, b.summaryKeyboard(r.lang))
}

func (b *Bot) handleSummaryInput(ctx context.Context, r *request) {
	b.send(ctx, r, b.t(r.lang, "order.use_buttons"), b.summaryKeyboard(r.lang))
}

// submitOrder is the only place an order becomes durable.
func (b *Bot) submitOrder(ctx context.Context, r *request) {
	if r.sess.State != StateFinalSummary {
		b.alert(ctx, r, b.t(r.lang, "order.stale"))
		return
	}
	if r.sess.Get(fieldOrderText) == "" {
		b.sessionExpired(ctx, r)
		return
	}

	order, err := b.store.CreateOrder(ctx, newOrderFromSession(r.ev, r.sess))
	if err != nil {
		b.logger.Error("Failed to create order",
			zap.Int64("chat_id", r.ev.ChatID),
			zap.Int64("user_id", r.ev.UserID),
			zap.Error(err))
		b.showSummary(ctx, r, b.t(r.lang, "error.generic"))
		return
	}

	b.logger.Info("Order created",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", order.UserID))

	r.sess.Reset()
	b.render(ctx, r, b.t(r.lang, "order.created", "id", order.ID), inline(
		row(btn(b.t(r.lang, "btn.my_orders"), Command{Action: ActMyOrders, Page: 1, Flag: true})),
		row(btn(b.t(r.lang, "btn.main_menu"), Command{Action: ActMainMenu})),
	))

	b.notifyAdmins(ctx, order)
	b.forwardToCRM(ctx, order)
}

// cancelFlow clears the session from any state.
func (b *Bot) cancelFlow(ctx context.Context, r *request) {
	prev := r.sess.State
	if !isFormState(prev) {
		b.showMainMenu(ctx, r, "")
		return
	}

	b.logger.Debug("Order form cancelled",
		zap.Int64("chat_id", r.ev.ChatID),
		zap.String("state", prev))

	// The keyboard removal message already reports the cancellation.
	if contactKeyboardShown(r.sess) {
		b.showMainMenu(ctx, r, "")
		return
	}
	b.showMainMenu(ctx, r, b.t(r.lang, "order.cancelled"))
}

// contactKeyboardShown reports whether the phone prompt's reply keyboard is on screen.
func contactKeyboardShown(s *session.Session) bool {
	return s.State == StateCollectingContactPhone && s.Get(keyAwaiting) == ""
}

// leaveContactStep removes the contact reply keyboard before the phone step is abandoned.
func (b *Bot) leaveContactStep(ctx context.Context, r *request) {
	if contactKeyboardShown(r.sess) && !r.replyRemoved {
		b.dropContactKeyboard(ctx, r)
	}
}

func (b *Bot) dropContactKeyboard(ctx context.Context, r *request) {
	b.send(ctx, r, b.t(r.lang, "order.cancelled"), removeKeyboard)
}
