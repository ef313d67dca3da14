package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/mrperfect/storefront/internal/model"
	"github.com/mrperfect/storefront/internal/repository"
)

// CartService keeps one cart per shopper.  Checkout references the cart by
// id so that confirmation can discard it.
type CartService struct {
	store Store
}

func NewCartService(store Store) *CartService { return &CartService{store: store} }

// Get returns the caller's cart; a shopper without one gets an empty cart
// with a zero id.
func (s *CartService) Get(ctx context.Context, who Identity) (model.Cart, error) {
	if !who.Authenticated() {
		return model.Cart{}, ErrNotAuthenticated
	}
	c, err := s.store.Carts().GetByUser(ctx, who.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Cart{UserID: who.ID, Items: []model.CartItem{}}, nil
	}
	return c, err
}

// Replace overwrites the caller's cart.  Lines for the same product and
// size are merged; every product must exist and offer the size.
func (s *CartService) Replace(ctx context.Context, who Identity, items []model.CartItem) (model.Cart, error) {
	if !who.Authenticated() {
		return model.Cart{}, ErrNotAuthenticated
	}
	merged := make([]model.CartItem, 0, len(items))
	index := map[string]int{}
	for i, it := range items {
		it.Size = strings.TrimSpace(it.Size)
		switch {
		case it.ProductID == 0:
			return model.Cart{}, ValidationError("items[%d]: productId is required", i)
		case it.Quantity < 1:
			return model.Cart{}, ValidationError("items[%d]: quantity must be at least 1", i)
		}
		key := strings.ToUpper(it.Size) + "/" + strconv.FormatUint(it.ProductID, 10)
		if j, seen := index[key]; seen {
			merged[j].Quantity += it.Quantity
			continue
		}
		index[key] = len(merged)
		merged = append(merged, it)
	}

	var cart model.Cart
	err := s.store.WithinTx(ctx, func(tx Store) error {
		for _, it := range merged {
			p, err := tx.Products().GetByID(ctx, it.ProductID)
			if errors.Is(err, repository.ErrNotFound) {
				return ErrProductNotFound
			}
			if err != nil {
				return err
			}
			if !p.HasSize(it.Size) {
				return ValidationError("size %q is not available for %s", it.Size, p.Title)
			}
		}
		var err error
		cart, err = tx.Carts().Replace(ctx, who.ID, merged)
		return err
	})
	return cart, err
}
