package bot

// Order form states, in form order.
const (
	StateCollectingOrderText       = "collecting_order_text"
	StateCollectingFullName        = "collecting_full_name"
	StateCollectingDeliveryAddress = "collecting_delivery_address"
	StateCollectingPaymentMethod   = "collecting_payment_method"
	StateCollectingContactPhone    = "collecting_contact_phone"
	StateCollectingDeliveryNotes   = "collecting_delivery_notes"
	StateFinalSummary              = "final_summary"
)

// Admin input states. Any button press outside the flow leaves them.
const (
	StateWaitingForOrderTextEdit = "waiting_for_order_text_edit"
	StateWaitingForSearchQuery   = "waiting_for_search_query"
	StateWaitingForHelpText      = "waiting_for_help_text"
	StateWaitingForHelpActivate  = "waiting_for_help_activation"
)

// Session scratch keys.
const (
	// keyAwaiting names the field whose captured value waits for confirmation.
	keyAwaiting = "awaiting_confirm"

	keySearchQuery     = "search_query"
	keyAdminMode       = "admin_mode"
	keyAdminPage       = "admin_page"
	keyEditOrderID     = "edit_order_id"
	keyReturnChatID    = "return_chat_id"
	keyReturnMessageID = "return_message_id"
	keyHelpText        = "help_text"
)

// Order form field keys double as scratch keys and field label suffixes.
const (
	fieldOrderText       = "order_text"
	fieldFullName        = "full_name"
	fieldDeliveryAddress = "delivery_address"
	fieldPaymentMethod   = "payment_method"
	fieldContactPhone    = "contact_phone"
	fieldDeliveryNotes   = "delivery_notes"
)

func isAdminInputState(state string) bool {
	switch state {
	case StateWaitingForOrderTextEdit, StateWaitingForSearchQuery, StateWaitingForHelpText, StateWaitingForHelpActivate:
		return true
	}
	return false
}
