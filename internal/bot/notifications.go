package bot

import (
	"context"

	"go.uber.org/zap"

	"orderbot/internal/storage"
	"orderbot/pkg/api"
)

// notifyAdmins sends every admin a summary of a new order in the admin's language.
func (b *Bot) notifyAdmins(ctx context.Context, order *storage.Order) {
	for _, adminID := range b.adminIDs {
		lang, err := b.store.GetUserLanguage(ctx, adminID)
		if err != nil {
			b.logger.Warn("Failed to get admin language",
				zap.Int64("admin_id", adminID),
				zap.Error(err))
			lang = b.lang
		}

		text := b.t(lang, "admin.notify.new_order", "id", order.ID, "details", b.orderDetails(lang, order))
		kb := inline(row(btn(b.t(lang, "btn.view_order"), Command{Action: ActAdminView, ID: order.ID, Mode: ModeAll, Page: 1})))

		// Private chats share the user's id.
		if _, err := b.out.Render(ctx, adminID, 0, text, kb); err != nil {
			b.logger.Error("Failed to notify admin",
				zap.Int64("admin_id", adminID),
				zap.Int64("order_id", order.ID),
				zap.Error(err))
		}
	}
}

// notifyOwner tells the order owner about a status change unless they opted out.
func (b *Bot) notifyOwner(ctx context.Context, order *storage.Order) {
	owner, err := b.store.GetUser(ctx, order.UserID)
	if err != nil {
		b.logger.Warn("Failed to load order owner",
			zap.Int64("order_id", order.ID),
			zap.Int64("user_id", order.UserID),
			zap.Error(err))
		return
	}
	if !owner.NotificationsEnabled {
		return
	}

	lang := owner.LanguageCode
	text := b.t(lang, "notify.status", "id", order.ID, "status", b.statusLabel(lang, order.Status))
	kb := inline(row(btn(b.t(lang, "btn.my_orders"), Command{Action: ActMyOrders, Page: 1, Flag: true})))

	if _, err := b.out.Render(ctx, owner.ID, 0, text, kb); err != nil {
		b.logger.Error("Failed to notify order owner",
			zap.Int64("user_id", owner.ID),
			zap.Int64("order_id", order.ID),
			zap.Error(err))
	}
}

// forwardToCRM pushes a committed order to the CRM. Failures are logged only;
// the order stays committed.
func (b *Bot) forwardToCRM(ctx context.Context, order *storage.Order) {
	if b.crm == nil {
		return
	}

	req := api.OrderRequest{
		ID:              order.ID,
		UserID:          order.UserID,
		Username:        order.Username,
		Text:            order.OrderText,
		FullName:        order.FullName,
		DeliveryAddress: order.DeliveryAddress,
		PaymentMethod:   order.PaymentMethod,
		Contact:         order.ContactPhone,
		Notes:           order.DeliveryNotes,
		Status:          order.Status,
		CreatedAt:       order.CreatedAt,
	}

	if err := b.crm.CreateOrder(ctx, req); err != nil {
		b.logger.Error("Failed to forward order to CRM",
			zap.Int64("order_id", order.ID),
			zap.Error(err))
		return
	}

	b.logger.Debug("Order forwarded to CRM", zap.Int64("order_id", order.ID))
}
