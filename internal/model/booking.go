package model

import "time"

// Booking lifecycle.  Confirmed, cancelled and deleted-by-user are terminal.
const (
    BookingPending       = "pending"
    BookingContacted     = "contacted"
    BookingConfirmed     = "confirmed"
    BookingCancelled     = "cancelled"
    BookingDeletedByUser = "deleted-by-user"
)

// Booking is a shopper's reservation of one product in one size, handled
// manually by an admin.  Shopper identity, shipping and product fields are
// snapshots taken at creation; OrderID points at the order derived from it.
//
// Fields:
//  ID            – surrogate primary key.
//  BookingID     – human readable identifier (BK-xxxxxxyyy), unique and immutable.
//  OrderID       – order created together with the booking.
//  IsUserDeleted – soft delete flag set by the owning shopper.
//  PaymentQR     – stored path of the admin-uploaded payment artifact.
type Booking struct {
    ID            uint64    `json:"id"`            // bookings.id
    BookingID     string    `json:"bookingId"`     // bookings.booking_id
    OrderID       *uint64   `json:"orderId"`       // bookings.order_id (nullable)
    UserID        uint64    `json:"userId"`        // bookings.user_id
    UserName      string    `json:"userName"`      // bookings.user_name
    Email         string    `json:"email"`         // bookings.email
    Phone         string    `json:"phone"`         // bookings.phone
    Address       string    `json:"address"`       // bookings.address
    City          string    `json:"city"`          // bookings.city
    Pincode       string    `json:"pincode"`       // bookings.pincode
    Notes         string    `json:"notes"`         // bookings.notes
    ProductID     uint64    `json:"productId"`     // bookings.product_id
    ProductName   string    `json:"productName"`   // bookings.product_name
    ProductImage  string    `json:"productImage"`  // bookings.product_image
    Size          string    `json:"size"`          // bookings.size
    Status        string    `json:"status"`        // bookings.status
    IsUserDeleted bool      `json:"isUserDeleted"` // bookings.is_user_deleted
    PaymentQR     *string   `json:"paymentQr"`     // bookings.payment_qr (nullable)
    CreatedAt     time.Time `json:"createdAt"`     // bookings.created_at
    UpdatedAt     time.Time `json:"updatedAt"`     // bookings.updated_at
}

// BookingFilter narrows admin and shopper listings.  Zero values match all.
type BookingFilter struct {
    UserID         uint64
    Status         string
    IncludeDeleted bool
    Limit          uint64
    Offset         uint64
}

// ValidBookingStatus reports whether s is a status an admin may request.
// deleted-by-user is reserved for the shopper's soft delete.
func ValidBookingStatus(s string) bool {
    switch s {
    case BookingPending, BookingContacted, BookingConfirmed, BookingCancelled:
        return true
    }
    return false
}

// CanTransitionBooking reports whether an admin may move a booking from one
// status to another.  contacted → contacted is allowed so that payment
// instructions can be sent again.
func CanTransitionBooking(from, to string) bool {
    switch from {
    case BookingPending:
        return to == BookingContacted || to == BookingConfirmed || to == BookingCancelled
    case BookingContacted:
        return to == BookingContacted || to == BookingConfirmed || to == BookingCancelled
    }
    return false
}
