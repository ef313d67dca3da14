package repository

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/mrperfect/storefront/internal/model"
)

// CartRepo stores one cart per shopper.  Carts are discarded when an order
// placed from them is confirmed.
type CartRepo struct{ db sqlx.ExtContext }

func NewCartRepo(db sqlx.ExtContext) *CartRepo { return &CartRepo{db: db} }

// Get loads a cart and its items.
func (r *CartRepo) Get(ctx context.Context, id uint64) (model.Cart, error) {
	var c model.Cart
	var head struct {
		ID     uint64 `db:"id"`
		UserID uint64 `db:"user_id"`
	}
	if err := sqlx.GetContext(ctx, r.db, &head, "SELECT id, user_id FROM carts WHERE id=?", id); err != nil {
		return c, notFound(err)
	}
	c.ID, c.UserID = head.ID, head.UserID
	var items []struct {
		ProductID uint64 `db:"product_id"`
		Size      string `db:"size"`
		Quantity  int    `db:"quantity"`
	}
	if err := sqlx.SelectContext(ctx, r.db, &items,
		"SELECT product_id, size, quantity FROM cart_items WHERE cart_id=? ORDER BY product_id, size", id); err != nil {
		return c, err
	}
	c.Items = make([]model.CartItem, 0, len(items))
	for _, it := range items {
		c.Items = append(c.Items, model.CartItem{ProductID: it.ProductID, Size: it.Size, Quantity: it.Quantity})
	}
	return c, nil
}

// GetByUser returns the shopper's cart, or ErrNotFound when none exists.
func (r *CartRepo) GetByUser(ctx context.Context, userID uint64) (model.Cart, error) {
	var id uint64
	if err := sqlx.GetContext(ctx, r.db, &id,
		"SELECT id FROM carts WHERE user_id=? ORDER BY id DESC LIMIT 1", userID); err != nil {
		return model.Cart{UserID: userID}, notFound(err)
	}
	return r.Get(ctx, id)
}

// Replace sets the shopper's cart contents, creating the cart on first use.
// Callers run it inside a transaction.
func (r *CartRepo) Replace(ctx context.Context, userID uint64, items []model.CartItem) (model.Cart, error) {
	cart, err := r.GetByUser(ctx, userID)
	switch {
	case errors.Is(err, ErrNotFound):
		res, err := r.db.ExecContext(ctx, "INSERT INTO carts (user_id) VALUES (?)", userID)
		if err != nil {
			return cart, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return cart, err
		}
		cart.ID = uint64(id)
	case err != nil:
		return cart, err
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM cart_items WHERE cart_id=?", cart.ID); err != nil {
		return cart, err
	}
	if len(items) > 0 {
		b := qb.Insert("cart_items").Columns("cart_id", "product_id", "size", "quantity").
			Suffix("ON DUPLICATE KEY UPDATE quantity = quantity + VALUES(quantity)")
		for _, it := range items {
			b = b.Values(cart.ID, it.ProductID, it.Size, it.Quantity)
		}
		q, args, err := b.ToSql()
		if err != nil {
			return cart, err
		}
		if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
			return cart, err
		}
	}
	return r.Get(ctx, cart.ID)
}

// Delete removes a cart and, through the foreign key, its items.
func (r *CartRepo) Delete(ctx context.Context, id uint64) error {
	return mustAffect(r.db.ExecContext(ctx, "DELETE FROM carts WHERE id=?", id))
}
