package storage

import (
	"errors"
	"time"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrNoActiveHelpMessage = errors.New("no active help message")
	ErrInvalidStatus       = errors.New("invalid order status")
	ErrEmptyText           = errors.New("text must not be empty")
)

// Unlimited disables the LIMIT clause of list queries.
const Unlimited = 0

const (
	StatusNew        = "new"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

// Statuses is the order status enumeration in display order.
var Statuses = []string{
	StatusNew,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

// ActiveStatuses are statuses of orders that are still in progress.
var ActiveStatuses = []string{
	StatusNew,
	StatusProcessing,
	StatusShipped,
}

func IsValidStatus(status string) bool {
	for _, s := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}

const (
	PaymentCash           = "cash"
	PaymentCardOnDelivery = "card_on_delivery"
)

var PaymentMethods = []string{PaymentCash, PaymentCardOnDelivery}

type Order struct {
	ID              int64      `db:"id"`
	UserID          int64      `db:"user_id"`
	Username        string     `db:"username"`
	OrderText       string     `db:"order_text"`
	FullName        string     `db:"full_name"`
	DeliveryAddress string     `db:"delivery_address"`
	PaymentMethod   string     `db:"payment_method"`
	ContactPhone    string     `db:"contact_phone"`
	DeliveryNotes   string     `db:"delivery_notes"`
	Status          string     `db:"status"`
	CreatedAt       time.Time  `db:"created_at"`
	SentAt          *time.Time `db:"sent_at"`
	ReceivedAt      *time.Time `db:"received_at"`
}

// OrderStats counts orders per status and by creation period.
// Periods are rolling except Today, which starts at UTC midnight.
type OrderStats struct {
	Total    int
	Today    int
	Week     int
	Month    int
	ByStatus map[string]int
}

// NewOrder holds the fields captured by the order form. Status is always "new".
type NewOrder struct {
	UserID          int64
	Username        string
	OrderText       string
	FullName        string
	DeliveryAddress string
	PaymentMethod   string
	ContactPhone    string
	DeliveryNotes   string
}

type User struct {
	ID                   int64     `db:"id"`
	Username             string    `db:"username"`
	FirstName            string    `db:"first_name"`
	LastName             string    `db:"last_name"`
	LanguageCode         string    `db:"language_code"`
	NotificationsEnabled bool      `db:"notifications_enabled"`
	CreatedAt            time.Time `db:"created_at"`
	LastActivityAt       time.Time `db:"last_activity_at"`
}

// UserProfile is the platform profile snapshot used by GetOrCreateUser.
type UserProfile struct {
	ID           int64
	Username     string
	FirstName    string
	LastName     string
	LanguageCode string
}

type HelpMessage struct {
	ID          int64     `db:"id"`
	MessageText string    `db:"message_text"`
	IsActive    bool      `db:"is_active"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}
