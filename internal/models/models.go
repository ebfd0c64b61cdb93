package models

import "strings"

// Order statuses
const (
	OrderStatusNew         = "new"
	OrderStatusForDelivery = "for_delivery"
	OrderStatusRealized    = "realized"
)

// DueDateLayout is the wire format for order due dates (DD.MM.YYYY).
const DueDateLayout = "02.01.2006"

// DefaultLocation is the fallback storage location for lager items.
const DefaultLocation = "House"

// DefaultDaysBefore is the notification threshold used when no settings row exists.
const DefaultDaysBefore = 2

// Order represents a customer order tracked through the fulfillment lifecycle.
// LagerID is set when the order was created by drawing down a lager item.
type Order struct {
	ID          int64   `db:"id" json:"id"`
	Name        string  `db:"name" json:"name"`
	Price       float64 `db:"price" json:"price"`
	Paid        bool    `db:"paid" json:"paid"`
	Customer    string  `db:"customer" json:"customer"`
	DueDate     string  `db:"due_date" json:"due_date"`
	Quantity    int     `db:"quantity" json:"quantity"`
	Color       string  `db:"color" json:"color"`
	Description string  `db:"description" json:"description"`
	Image       string  `db:"image" json:"image"`
	Status      string  `db:"status" json:"status"`
	LagerID     *int64  `db:"lager_id" json:"lager_id,omitempty"`
}

// LagerItem represents a stocked good with a quantity on hand.
type LagerItem struct {
	ID       int64   `db:"id" json:"id"`
	Name     string  `db:"name" json:"name"`
	Price    float64 `db:"price" json:"price"`
	Color    string  `db:"color" json:"color"`
	Quantity int     `db:"quantity" json:"quantity"`
	Location string  `db:"location" json:"location"`
	Image    string  `db:"image" json:"image"`
}

// EmailSettings is the singleton notification configuration.
type EmailSettings struct {
	ID            int64  `db:"id" json:"-"`
	Enabled       bool   `db:"enabled" json:"enabled"`
	SenderEmail   string `db:"sender_email" json:"sender_email"`
	AppPassword   string `db:"app_password" json:"-"`
	ReceiverEmail string `db:"receiver_email" json:"receiver_email"`
	DaysBefore    int    `db:"days_before" json:"days_before"`
}

// Recipients splits the comma-separated receiver list into addresses.
func (s *EmailSettings) Recipients() []string {
	parts := strings.Split(s.ReceiverEmail, ",")
	recipients := make([]string, 0, len(parts))
	for _, p := range parts {
		if addr := strings.TrimSpace(p); addr != "" {
			recipients = append(recipients, addr)
		}
	}
	return recipients
}

// IsValidStatus reports whether s is one of the known order statuses.
func IsValidStatus(s string) bool {
	switch s {
	case OrderStatusNew, OrderStatusForDelivery, OrderStatusRealized:
		return true
	}
	return false
}
