package bot

import (
	"context"

	"orderbot/internal/storage"
	"orderbot/pkg/api"
)

type EventKind int

const (
	EventText EventKind = iota
	EventCommand
	EventButton
	EventContact
)

// Event is a transport-neutral inbound update.
type Event struct {
	Kind       EventKind
	ChatID     int64
	UserID     int64
	MessageID  int // message the button belongs to
	CallbackID string
	Text       string // message text, or the command name without the slash
	Data       string // callback payload
	// ContactPhone is set for EventContact; the transport only emits it for the sender's own contact.
	ContactPhone string
	Profile      storage.UserProfile
}

type Button struct {
	Text           string
	Data           string
	RequestContact bool
}

// Keyboard is either an inline keyboard (default), a reply keyboard, or a
// request to remove the reply keyboard.
type Keyboard struct {
	Rows   [][]Button
	Reply  bool
	Remove bool
}

// Renderer delivers output to the messaging platform.
type Renderer interface {
	// Render edits messageID in place, or sends a new message when messageID is 0.
	// It returns the id of the rendered message.
	Render(ctx context.Context, chatID int64, messageID int, text string, kb *Keyboard) (int, error)
	SendDocument(ctx context.Context, chatID int64, name string, data []byte, caption string) error
	// Alert answers a button press; an empty text only acknowledges it.
	Alert(ctx context.Context, callbackID, text string) error
}

type Translator interface {
	T(key, lang string, params map[string]any) string
}

type Exporter interface {
	Export(orders []storage.Order, lang string) ([]byte, error)
	FileExt() string
}

// OrderForwarder pushes committed orders to an external system.
type OrderForwarder interface {
	CreateOrder(ctx context.Context, req api.OrderRequest) error
}

type Store interface {
	CreateOrder(ctx context.Context, o storage.NewOrder) (*storage.Order, error)
	GetOrder(ctx context.Context, id int64) (*storage.Order, error)
	ListOrders(ctx context.Context, offset, limit int) ([]storage.Order, int, error)
	ListUserOrders(ctx context.Context, userID int64, activeOnly bool, offset, limit int) ([]storage.Order, error)
	CountUserOrders(ctx context.Context, userID int64, activeOnly bool) (int, error)
	SearchOrders(ctx context.Context, query string, offset, limit int) ([]storage.Order, int, error)
	UpdateOrderStatus(ctx context.Context, id int64, status string) (*storage.Order, error)
	UpdateOrderText(ctx context.Context, id int64, text string) (*storage.Order, error)
	DeleteOrder(ctx context.Context, id int64) (bool, error)
	GetOrderStats(ctx context.Context) (*storage.OrderStats, error)

	GetOrCreateUser(ctx context.Context, p storage.UserProfile) (*storage.User, error)
	GetUser(ctx context.Context, id int64) (*storage.User, error)
	GetUserLanguage(ctx context.Context, id int64) (string, error)
	SetUserLanguage(ctx context.Context, id int64, code string) error
	SetUserNotifications(ctx context.Context, id int64, enabled bool) error

	AddHelpMessage(ctx context.Context, text string, activate bool) (*storage.HelpMessage, error)
	GetHelpMessage(ctx context.Context, id int64) (*storage.HelpMessage, error)
	GetActiveHelpMessage(ctx context.Context) (*storage.HelpMessage, error)
	SetActiveHelpMessage(ctx context.Context, id int64) error
	DeleteHelpMessage(ctx context.Context, id int64) (bool, error)
	ListHelpMessages(ctx context.Context) ([]storage.HelpMessage, error)
}

var _ Store = (*storage.Storage)(nil)
