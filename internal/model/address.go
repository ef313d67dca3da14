package model

import "time"

// Address is one of a shopper's saved shipping profiles.  The most recently
// created address is the canonical one for booking and order snapshots.
type Address struct {
    ID        uint64    `json:"id"`        // addresses.id
    UserID    uint64    `json:"userId"`    // addresses.user_id
    Address   string    `json:"address"`   // addresses.address
    City      string    `json:"city"`      // addresses.city
    Pincode   string    `json:"pincode"`   // addresses.pincode
    Phone     string    `json:"phone"`     // addresses.phone
    Notes     string    `json:"notes"`     // addresses.notes
    CreatedAt time.Time `json:"createdAt"` // addresses.created_at
}
