package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mrperfect/storefront/internal/model"
	"github.com/mrperfect/storefront/internal/repository"
)

type ShopperStore interface {
	ListShoppers(ctx context.Context) ([]model.UserWithAddress, error)
	Delete(ctx context.Context, id uint64) error
}

// UserHandler is the admin view of shopper accounts.
type UserHandler struct {
	Users ShopperStore
}

func NewUserHandler(u ShopperStore) *UserHandler { return &UserHandler{Users: u} }

func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Users.ListShoppers(ctx)
	if err != nil {
		return respondErr(c, err)
	}
	return ok(c, http.StatusOK, list)
}

// Delete removes a shopper.  Admin accounts cannot be deleted here.
func (h *UserHandler) Delete(c echo.Context) error {
	id, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid user id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	switch err := h.Users.Delete(ctx, id); {
	case err == nil:
		return okMsg(c, http.StatusOK, "User deleted", nil)
	case errors.Is(err, repository.ErrForbidden):
		return fail(c, http.StatusForbidden, "admin accounts cannot be deleted")
	case errors.Is(err, repository.ErrNotFound):
		return fail(c, http.StatusNotFound, "user not found")
	default:
		return respondErr(c, err)
	}
}
