package model

import (
    "time"

    "github.com/shopspring/decimal"
)

const (
    OrderPending   = "pending"
    OrderConfirmed = "confirmed"
    OrderDelivered = "delivered"
    OrderRejected  = "rejected"

    PaymentOffline      = "offline"
    PaymentContactAdmin = "contact-admin"

    PaymentPending   = "pending"
    PaymentConfirmed = "confirmed"
    PaymentPaid      = "paid"
)

// PurchasedStatuses are the order statuses that unlock product reviews.
var PurchasedStatuses = []string{OrderConfirmed, OrderDelivered}

// Order is the canonical purchase record, produced by cart checkout or as
// the shadow of a booking.  TotalAmount is always computed server side from
// Items.
type Order struct {
    ID              uint64          `json:"id"`
    UserID          uint64          `json:"userId"`
    CartID          *uint64         `json:"cartId,omitempty"`
    BookingID       *string         `json:"bookingId,omitempty"`
    Items           []OrderItem     `json:"cartItems"`
    AddressInfo     AddressInfo     `json:"addressInfo"`
    OrderStatus     string          `json:"orderStatus"`
    PaymentMethod   string          `json:"paymentMethod"`
    PaymentStatus   string          `json:"paymentStatus"`
    TotalAmount     decimal.Decimal `json:"totalAmount"`
    OrderDate       time.Time       `json:"orderDate"`
    OrderUpdateDate time.Time       `json:"orderUpdateDate"`
}

// OrderItem is one line of an order.  Title, image and size pass through
// from the source; price and quantity are validated numbers.
type OrderItem struct {
    ProductID uint64          `json:"productId"`
    Title     string          `json:"title"`
    Image     string          `json:"image"`
    Size      string          `json:"size"`
    Price     decimal.Decimal `json:"price"`
    Quantity  int             `json:"quantity"`
}

// Subtotal is price × quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
    return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// AddressInfo is the shipping snapshot stored on an order.
type AddressInfo struct {
    AddressID *uint64 `json:"addressId,omitempty"`
    Address   string  `json:"address"`
    City      string  `json:"city"`
    Pincode   string  `json:"pincode"`
    Phone     string  `json:"phone"`
    Notes     string  `json:"notes"`
}

// SumItems returns Σ price × quantity over items.
func SumItems(items []OrderItem) decimal.Decimal {
    total := decimal.Zero
    for _, it := range items {
        total = total.Add(it.Subtotal())
    }
    return total
}

type OrderFilter struct {
    UserID uint64
    Status string
    Limit  uint64
    Offset uint64
}

func ValidOrderStatus(s string) bool {
    switch s {
    case OrderPending, OrderConfirmed, OrderDelivered, OrderRejected:
        return true
    }
    return false
}

// CanTransitionOrder: pending → confirmed|delivered|rejected, confirmed →
// delivered.  Delivered and rejected are terminal.
func CanTransitionOrder(from, to string) bool {
    switch from {
    case OrderPending:
        return to == OrderConfirmed || to == OrderDelivered || to == OrderRejected
    case OrderConfirmed:
        return to == OrderDelivered
    }
    return false
}
