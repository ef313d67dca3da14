package model

import "time"

const (
    ReviewPending  = "pending"
    ReviewApproved = "approved"
    ReviewRejected = "rejected"
)

// ProductReview is a moderated review.  Only approved reviews are public.
// A user holds at most one review per product.
type ProductReview struct {
    ID            uint64    `json:"id"`
    ProductID     uint64    `json:"productId"`
    UserID        uint64    `json:"userId"`
    UserName      string    `json:"userName"`
    ReviewMessage string    `json:"reviewMessage"`
    ReviewValue   int       `json:"reviewValue"`
    Status        string    `json:"status"`
    AdminReply    *string   `json:"adminReply,omitempty"`
    CreatedAt     time.Time `json:"createdAt"`
}

type ReviewFilter struct {
    ProductID uint64
    Status    string
    Limit     uint64
    Offset    uint64
}
