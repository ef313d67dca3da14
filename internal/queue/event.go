// Package queue defines the storefront's broker messages and the consumer
// that turns them into shopper notifications.
package queue

import (
    "fmt"
    "strings"
)

// NotificationQueue is the durable queue every storefront event goes to.
const NotificationQueue = "storefront.notifications"

// Event types.
const (
    BookingCreated          = "booking.created"
    BookingStatusChanged    = "booking.status_changed"
    BookingPaymentRequested = "booking.payment_requested"
    OrderCreated            = "order.created"
    OrderConfirmed          = "order.confirmed"
    OrderStatusChanged      = "order.status_changed"
)

// Event is published after a booking or order change commits.  It carries
// enough for a notifier to address the shopper without querying MySQL.
type Event struct {
    Type        string `json:"type"`
    BookingID   string `json:"booking_id,omitempty"`
    OrderID     uint64 `json:"order_id,omitempty"`
    UserID      uint64 `json:"user_id"`
    UserName    string `json:"user_name,omitempty"`
    Email       string `json:"email,omitempty"`
    Status      string `json:"status,omitempty"`
    ProductName string `json:"product_name,omitempty"`
    PaymentQR   string `json:"payment_qr,omitempty"`
    TotalAmount string `json:"total_amount,omitempty"`
    OccurredAt  string `json:"occurred_at"`
}

// Line renders the event as one human-friendly log line.
func (e Event) Line() string {
    var b strings.Builder
    fmt.Fprintf(&b, "[%s] %s | user_id=%d", e.OccurredAt, e.Type, e.UserID)
    if e.Email != "" {
        fmt.Fprintf(&b, " | email=%s", e.Email)
    }
    if e.BookingID != "" {
        fmt.Fprintf(&b, " | booking_id=%s", e.BookingID)
    }
    if e.OrderID != 0 {
        fmt.Fprintf(&b, " | order_id=%d", e.OrderID)
    }
    if e.Status != "" {
        fmt.Fprintf(&b, " | status=%s", e.Status)
    }
    if e.ProductName != "" {
        fmt.Fprintf(&b, " | product=%q", e.ProductName)
    }
    if e.TotalAmount != "" {
        fmt.Fprintf(&b, " | total=%s", e.TotalAmount)
    }
    if e.PaymentQR != "" {
        fmt.Fprintf(&b, " | payment_qr=%s", e.PaymentQR)
    }
    b.WriteByte('\n')
    return b.String()
}
