package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/tealeg/xlsx"

	"github.com/mrperfect/storefront/internal/middleware"
	"github.com/mrperfect/storefront/internal/model"
	"github.com/mrperfect/storefront/internal/service"
)

// Orders is what OrderHandler needs from service.OrderService.
type Orders interface {
	CreateOrder(ctx context.Context, who service.Identity, req service.CheckoutRequest) (model.Order, error)
	ConfirmOrder(ctx context.Context, id uint64) (service.ConfirmResult, error)
	UpdateStatus(ctx context.Context, id uint64, status string) (model.Order, error)
	ListMine(ctx context.Context, who service.Identity) ([]model.Order, error)
	GetMine(ctx context.Context, who service.Identity, id uint64) (model.Order, error)
	ListAll(ctx context.Context, f model.OrderFilter) ([]model.Order, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Order, error)
	Get(ctx context.Context, id uint64) (model.Order, error)
	Delete(ctx context.Context, id uint64) error
}

type OrderHandler struct {
	Orders Orders
}

func NewOrderHandler(o Orders) *OrderHandler { return &OrderHandler{Orders: o} }

// Create checks out a cart.  Any userId, totalAmount or status in the body
// is ignored; the caller and the totals come from the server.
func (h *OrderHandler) Create(c echo.Context) error {
	var req service.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	o, err := h.Orders.CreateOrder(ctx, middleware.IdentityFrom(c), req)
	if err != nil {
		return respondErr(c, err)
	}
	return okMsg(c, http.StatusCreated, "Order placed successfully", o)
}

func (h *OrderHandler) ListMine(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Orders.ListMine(ctx, middleware.IdentityFrom(c))
	if err != nil {
		return respondErr(c, err)
	}
	return ok(c, http.StatusOK, list)
}

func (h *OrderHandler) GetMine(c echo.Context) error {
	id, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid order id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	o, err := h.Orders.GetMine(ctx, middleware.IdentityFrom(c), id)
	if err != nil {
		return respondErr(c, err)
	}
	return ok(c, http.StatusOK, o)
}

type confirmReq struct {
	OrderID uint64 `json:"orderId"`
}

// Confirm runs order confirmation.  Repeating it on a confirmed order is a
// 200 with alreadyConfirmed set and no stock change.
func (h *OrderHandler) Confirm(c echo.Context) error {
	var req confirmReq
	if err := c.Bind(&req); err != nil || req.OrderID == 0 {
		return fail(c, http.StatusBadRequest, "orderId is required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Orders.ConfirmOrder(ctx, req.OrderID)
	if err != nil {
		return respondErr(c, err)
	}
	msg := "Order confirmed"
	if res.AlreadyConfirmed {
		msg = "Order already confirmed"
	}
	return okMsg(c, http.StatusOK, msg, res)
}

func (h *OrderHandler) ListAll(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Orders.ListAll(ctx, orderFilter(c))
	if err != nil {
		return respondErr(c, err)
	}
	return ok(c, http.StatusOK, list)
}

func orderFilter(c echo.Context) model.OrderFilter {
	return model.OrderFilter{
		Status: strings.ToLower(strings.TrimSpace(c.QueryParam("status"))),
		UserID: queryUint(c, "userId", 0),
		Limit:  queryUint(c, "limit", 0),
		Offset: queryUint(c, "offset", 0),
	}
}

// ListByUser backs GET /users/:id/orders.
func (h *OrderHandler) ListByUser(c echo.Context) error {
	id, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid user id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Orders.ListByUser(ctx, id)
	if err != nil {
		return respondErr(c, err)
	}
	return ok(c, http.StatusOK, list)
}

func (h *OrderHandler) Get(c echo.Context) error {
	id, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid order id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	o, err := h.Orders.Get(ctx, id)
	if err != nil {
		return respondErr(c, err)
	}
	return ok(c, http.StatusOK, o)
}

type orderStatusReq struct {
	OrderStatus string `json:"orderStatus"`
}

func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	id, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid order id")
	}
	var req orderStatusReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	o, err := h.Orders.UpdateStatus(ctx, id, req.OrderStatus)
	if err != nil {
		return respondErr(c, err)
	}
	return okMsg(c, http.StatusOK, "Order status updated", o)
}

func (h *OrderHandler) Delete(c echo.Context) error {
	id, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid order id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Orders.Delete(ctx, id); err != nil {
		return respondErr(c, err)
	}
	return okMsg(c, http.StatusOK, "Order deleted", nil)
}

var orderSheetHeaders = []string{
	"ID", "Booking", "User", "Status", "Payment Method", "Payment Status",
	"Total", "Items", "Address", "City", "Pincode", "Phone", "Ordered At", "Updated At",
}

// Export streams the filtered order list as an .xlsx workbook, one row per
// order.
func (h *OrderHandler) Export(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Orders.ListAll(ctx, orderFilter(c))
	if err != nil {
		return respondErr(c, err)
	}
	file, err := ordersWorkbook(list)
	if err != nil {
		return respondErr(c, err)
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=orders-%s.xlsx", time.Now().UTC().Format("20060102")))
	res.Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	res.WriteHeader(http.StatusOK)
	return file.Write(res)
}

func ordersWorkbook(orders []model.Order) (*xlsx.File, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return nil, err
	}
	header := sheet.AddRow()
	for _, h := range orderSheetHeaders {
		header.AddCell().SetValue(h)
	}
	for _, o := range orders {
		items := make([]string, 0, len(o.Items))
		for _, it := range o.Items {
			items = append(items, fmt.Sprintf("%s [%s] x%d @ %s", it.Title, it.Size, it.Quantity, it.Price.StringFixed(2)))
		}
		booking := ""
		if o.BookingID != nil {
			booking = *o.BookingID
		}
		row := sheet.AddRow()
		row.AddCell().SetValue(o.ID)
		row.AddCell().SetValue(booking)
		row.AddCell().SetValue(o.UserID)
		row.AddCell().SetValue(o.OrderStatus)
		row.AddCell().SetValue(o.PaymentMethod)
		row.AddCell().SetValue(o.PaymentStatus)
		row.AddCell().SetValue(o.TotalAmount.InexactFloat64())
		row.AddCell().SetValue(strings.Join(items, "; "))
		row.AddCell().SetValue(o.AddressInfo.Address)
		row.AddCell().SetValue(o.AddressInfo.City)
		row.AddCell().SetValue(o.AddressInfo.Pincode)
		row.AddCell().SetValue(o.AddressInfo.Phone)
		row.AddCell().SetValue(o.OrderDate.Format("2006-01-02 15:04:05"))
		row.AddCell().SetValue(o.OrderUpdateDate.Format("2006-01-02 15:04:05"))
	}
	return file, nil
}
