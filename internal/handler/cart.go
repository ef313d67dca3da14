package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mrperfect/storefront/internal/middleware"
	"github.com/mrperfect/storefront/internal/model"
	"github.com/mrperfect/storefront/internal/service"
)

type Carts interface {
	Get(ctx context.Context, who service.Identity) (model.Cart, error)
	Replace(ctx context.Context, who service.Identity, items []model.CartItem) (model.Cart, error)
}

type CartHandler struct {
	Carts Carts
}

func NewCartHandler(c Carts) *CartHandler { return &CartHandler{Carts: c} }

func (h *CartHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	cart, err := h.Carts.Get(ctx, middleware.IdentityFrom(c))
	if err != nil {
		return respondErr(c, err)
	}
	return ok(c, http.StatusOK, cart)
}

type cartReq struct {
	Items []model.CartItem `json:"items"`
}

// Put replaces the whole cart; an empty list empties it.
func (h *CartHandler) Put(c echo.Context) error {
	var req cartReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	cart, err := h.Carts.Replace(ctx, middleware.IdentityFrom(c), req.Items)
	if err != nil {
		return respondErr(c, err)
	}
	return okMsg(c, http.StatusOK, "Cart updated", cart)
}
