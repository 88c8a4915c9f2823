package bot

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"orderbot/internal/session"
	"orderbot/internal/storage"
)

const dateLayout = "02.01.2006 15:04"

// truncate shortens s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-1]) + "…"
}

func formatTime(t time.Time) string {
	return t.Local().Format(dateLayout)
}

func (b *Bot) statusLabel(lang, status string) string {
	return b.t(lang, "status."+status)
}

func (b *Bot) paymentLabel(lang, method string) string {
	if method == "" {
		return b.t(lang, "order.none")
	}
	return b.t(lang, "payment."+method)
}

func (b *Bot) orNone(lang, s string) string {
	if strings.TrimSpace(s) == "" {
		return b.t(lang, "order.none")
	}
	return s
}

func (b *Bot) line(sb *strings.Builder, lang, field, value string) {
	sb.WriteString(b.t(lang, "field."+field))
	sb.WriteString(": ")
	sb.WriteString(value)
	sb.WriteByte('\n')
}

// orderDetails renders every field of a stored order.
func (b *Bot) orderDetails(lang string, o *storage.Order) string {
	var sb strings.Builder

	user := o.Username
	if user != "" {
		user = "@" + user + " "
	}
	b.line(&sb, lang, "user", user+"("+strconv.FormatInt(o.UserID, 10)+")")
	b.line(&sb, lang, fieldOrderText, o.OrderText)
	b.line(&sb, lang, fieldFullName, b.orNone(lang, o.FullName))
	b.line(&sb, lang, fieldDeliveryAddress, b.orNone(lang, o.DeliveryAddress))
	b.line(&sb, lang, fieldPaymentMethod, b.paymentLabel(lang, o.PaymentMethod))
	b.line(&sb, lang, fieldContactPhone, b.orNone(lang, o.ContactPhone))
	b.line(&sb, lang, fieldDeliveryNotes, b.orNone(lang, o.DeliveryNotes))
	b.line(&sb, lang, "status", b.statusLabel(lang, o.Status))
	b.line(&sb, lang, "created_at", formatTime(o.CreatedAt))
	if o.SentAt != nil {
		b.line(&sb, lang, "sent_at", formatTime(*o.SentAt))
	}
	if o.ReceivedAt != nil {
		b.line(&sb, lang, "received_at", formatTime(*o.ReceivedAt))
	}

	return strings.TrimRight(sb.String(), "\n")
}

// formDetails renders the values captured so far in the order form.
func (b *Bot) formDetails(lang string, s *session.Session) string {
	var sb strings.Builder
	for _, step := range orderSteps {
		value := s.Get(step.field)
		if step.field == fieldPaymentMethod {
			value = b.paymentLabel(lang, value)
		} else {
			value = b.orNone(lang, value)
		}
		b.line(&sb, lang, step.field, value)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// newOrderFromSession builds the order to commit from the form fields.
func newOrderFromSession(ev Event, s *session.Session) storage.NewOrder {
	return storage.NewOrder{
		UserID:          ev.UserID,
		Username:        ev.Profile.Username,
		OrderText:       s.Get(fieldOrderText),
		FullName:        s.Get(fieldFullName),
		DeliveryAddress: s.Get(fieldDeliveryAddress),
		PaymentMethod:   s.Get(fieldPaymentMethod),
		ContactPhone:    s.Get(fieldContactPhone),
		DeliveryNotes:   s.Get(fieldDeliveryNotes),
	}
}
