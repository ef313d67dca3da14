package model

// Cart is a shopper's cart.  Orders placed from a cart keep its id so that
// confirmation can discard it.
type Cart struct {
    ID     uint64     `json:"id"`
    UserID uint64     `json:"userId"`
    Items  []CartItem `json:"items"`
}

type CartItem struct {
    ProductID uint64 `json:"productId"`
    Size      string `json:"size"`
    Quantity  int    `json:"quantity"`
}
