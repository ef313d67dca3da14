package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mrperfect/storefront/internal/middleware"
	"github.com/mrperfect/storefront/internal/model"
)

type AddressStore interface {
	Create(ctx context.Context, a *model.Address) error
	ListByUser(ctx context.Context, userID uint64) ([]model.Address, error)
}

// AddressHandler manages the shopper's saved addresses.  The newest one is
// what bookings snapshot.
type AddressHandler struct {
	Addresses AddressStore
}

func NewAddressHandler(a AddressStore) *AddressHandler { return &AddressHandler{Addresses: a} }

type addressReq struct {
	Address string `json:"address"`
	City    string `json:"city"`
	Pincode string `json:"pincode"`
	Phone   string `json:"phone"`
	Notes   string `json:"notes"`
}

func (h *AddressHandler) Create(c echo.Context) error {
	var req addressReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	who := middleware.IdentityFrom(c)
	a := model.Address{
		UserID:  who.ID,
		Address: strings.TrimSpace(req.Address),
		City:    strings.TrimSpace(req.City),
		Pincode: strings.TrimSpace(req.Pincode),
		Phone:   strings.TrimSpace(req.Phone),
		Notes:   strings.TrimSpace(req.Notes),
	}
	if a.Address == "" || a.City == "" || a.Pincode == "" {
		return fail(c, http.StatusBadRequest, "address, city and pincode are required")
	}
	if a.Phone == "" {
		a.Phone = who.Phone
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Addresses.Create(ctx, &a); err != nil {
		return respondErr(c, err)
	}
	return okMsg(c, http.StatusCreated, "Address added", a)
}

func (h *AddressHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Addresses.ListByUser(ctx, middleware.IdentityFrom(c).ID)
	if err != nil {
		return respondErr(c, err)
	}
	return ok(c, http.StatusOK, list)
}
