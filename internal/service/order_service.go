package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/shopspring/decimal"

	"github.com/mrperfect/storefront/internal/model"
	"github.com/mrperfect/storefront/internal/queue"
	"github.com/mrperfect/storefront/internal/repository"
)

// CheckoutRequest is the cart checkout payload.  Totals and statuses sent by
// the client have no field here and are therefore ignored.
type CheckoutRequest struct {
	CartID        *uint64           `json:"cartId"`
	CartItems     []CheckoutItem    `json:"cartItems"`
	AddressInfo   model.AddressInfo `json:"addressInfo"`
	PaymentMethod string            `json:"paymentMethod"`
}

type CheckoutItem struct {
	ProductID uint64          `json:"productId"`
	Title     string          `json:"title"`
	Image     string          `json:"image"`
	Size      string          `json:"size"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Stock outcomes recorded per line by ConfirmOrder.
const (
	StockDecremented    = "decremented"
	StockProductMissing = "product-missing"
	StockFailed         = "failed"
)

type StockOutcome struct {
	ProductID uint64 `json:"productId"`
	Quantity  int    `json:"quantity"`
	Result    string `json:"result"`
}

// ConfirmResult is what ConfirmOrder did.  AlreadyConfirmed means the order
// was confirmed or delivered before the call and nothing changed.
type ConfirmResult struct {
	Order            model.Order    `json:"order"`
	Stock            []StockOutcome `json:"stock"`
	AlreadyConfirmed bool           `json:"alreadyConfirmed"`
}

type OrderService struct {
	store  Store
	events EventPublisher
	log    *log.Logger
	now    func() time.Time
}

func NewOrderService(store Store, events EventPublisher) *OrderService {
	if events == nil {
		events = NoopPublisher{}
	}
	return &OrderService{store: store, events: events, log: log.New("order"), now: time.Now}
}

// CreateOrder places a cart checkout for the caller.  The total is
// recomputed from the line items.
func (s *OrderService) CreateOrder(ctx context.Context, who Identity, req CheckoutRequest) (model.Order, error) {
	if !who.Authenticated() {
		return model.Order{}, ErrNotAuthenticated
	}
	if len(req.CartItems) == 0 {
		return model.Order{}, ErrEmptyCart
	}
	items := make([]model.OrderItem, 0, len(req.CartItems))
	for i, it := range req.CartItems {
		switch {
		case it.ProductID == 0:
			return model.Order{}, ValidationError("cartItems[%d]: productId is required", i)
		case it.Quantity < 1:
			return model.Order{}, ValidationError("cartItems[%d]: quantity must be at least 1", i)
		case it.Price.IsNegative():
			return model.Order{}, ValidationError("cartItems[%d]: price must not be negative", i)
		}
		items = append(items, model.OrderItem{
			ProductID: it.ProductID,
			Title:     it.Title,
			Image:     it.Image,
			Size:      strings.TrimSpace(it.Size),
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}
	method := model.PaymentContactAdmin
	if strings.EqualFold(strings.TrimSpace(req.PaymentMethod), model.PaymentOffline) {
		method = model.PaymentOffline
	}
	addr := req.AddressInfo
	if addr.Phone == "" {
		addr.Phone = who.Phone
	}

	order := model.Order{
		UserID:        who.ID,
		CartID:        req.CartID,
		Items:         items,
		AddressInfo:   addr,
		OrderStatus:   model.OrderPending,
		PaymentMethod: method,
		PaymentStatus: model.PaymentPending,
		TotalAmount:   model.SumItems(items),
	}
	err := s.store.WithinTx(ctx, func(tx Store) error {
		if req.CartID != nil {
			cart, err := tx.Carts().Get(ctx, *req.CartID)
			if errors.Is(err, repository.ErrNotFound) {
				return ValidationError("cart %d not found", *req.CartID)
			}
			if err != nil {
				return err
			}
			if cart.UserID != who.ID {
				return ErrForbidden
			}
		}
		return tx.Orders().Create(ctx, &order)
	})
	if err != nil {
		return model.Order{}, err
	}
	publish(s.events, s.log, queue.Event{
		Type:        queue.OrderCreated,
		OrderID:     order.ID,
		UserID:      who.ID,
		UserName:    who.UserName,
		Email:       who.Email,
		Status:      order.OrderStatus,
		TotalAmount: order.TotalAmount.String(),
	})
	return order, nil
}

// ConfirmOrder confirms the order, decrements stock once per line and
// discards the originating cart, all in one transaction.  The order row is
// locked first, so a concurrent second confirmation sees the order already
// confirmed and changes nothing.
func (s *OrderService) ConfirmOrder(ctx context.Context, id uint64) (ConfirmResult, error) {
	var res ConfirmResult
	err := s.store.WithinTx(ctx, func(tx Store) error {
		o, err := tx.Orders().GetForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		switch o.OrderStatus {
		case model.OrderConfirmed, model.OrderDelivered:
			res = ConfirmResult{Order: o, Stock: []StockOutcome{}, AlreadyConfirmed: true}
			return nil
		case model.OrderRejected:
			return transitionError(o.OrderStatus, model.OrderConfirmed)
		}

		now := s.now().UTC()
		if err := tx.Orders().UpdateStatus(ctx, id, model.OrderConfirmed, model.PaymentConfirmed, now); err != nil {
			return err
		}
		o.OrderStatus = model.OrderConfirmed
		o.PaymentStatus = model.PaymentConfirmed
		o.OrderUpdateDate = now

		res = ConfirmResult{Order: o, Stock: make([]StockOutcome, 0, len(o.Items))}
		for _, it := range o.Items {
			res.Stock = append(res.Stock, s.decrement(ctx, tx, o.ID, it))
		}

		if o.CartID != nil {
			if err := tx.Carts().Delete(ctx, *o.CartID); err != nil && !errors.Is(err, repository.ErrNotFound) {
				s.log.Warnj(log.JSON{"event": "order.cart_cleanup_failed", "orderId": o.ID, "cartId": *o.CartID, "error": err.Error()})
			}
		}
		return nil
	})
	if err != nil {
		return ConfirmResult{}, err
	}
	if !res.AlreadyConfirmed {
		publish(s.events, s.log, queue.Event{
			Type:        queue.OrderConfirmed,
			OrderID:     res.Order.ID,
			BookingID:   deref(res.Order.BookingID),
			UserID:      res.Order.UserID,
			Status:      res.Order.OrderStatus,
			TotalAmount: res.Order.TotalAmount.String(),
		})
	}
	return res, nil
}

// decrement applies one line's stock change.  Failures are logged and
// reported in the outcome; they never abort the confirmation.
func (s *OrderService) decrement(ctx context.Context, tx Store, orderID uint64, it model.OrderItem) StockOutcome {
	out := StockOutcome{ProductID: it.ProductID, Quantity: it.Quantity, Result: StockDecremented}
	err := tx.Products().DecrementStock(ctx, it.ProductID, it.Quantity)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		out.Result = StockProductMissing
		s.log.Warnj(log.JSON{"event": "stock.product_missing", "orderId": orderID, "productId": it.ProductID, "quantity": it.Quantity})
	default:
		out.Result = StockFailed
		s.log.Errorj(log.JSON{"event": "stock.decrement_failed", "orderId": orderID, "productId": it.ProductID, "quantity": it.Quantity, "error": err.Error()})
	}
	return out
}

// UpdateStatus is the admin status change.  Confirming, and delivering a
// pending order, go through ConfirmOrder so stock is decremented exactly
// once.  Delivery marks the payment paid.
func (s *OrderService) UpdateStatus(ctx context.Context, id uint64, status string) (model.Order, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if !model.ValidOrderStatus(status) {
		return model.Order{}, ValidationError("unknown order status %q", status)
	}
	switch status {
	case model.OrderConfirmed:
		res, err := s.ConfirmOrder(ctx, id)
		if err != nil {
			return model.Order{}, err
		}
		if res.Order.OrderStatus != model.OrderConfirmed {
			return model.Order{}, transitionError(res.Order.OrderStatus, status)
		}
		return res.Order, nil
	case model.OrderDelivered:
		// no-op when already confirmed or delivered; rejected fails here
		if _, err := s.ConfirmOrder(ctx, id); err != nil {
			return model.Order{}, err
		}
	}

	var o model.Order
	err := s.store.WithinTx(ctx, func(tx Store) error {
		cur, err := tx.Orders().GetForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if cur.OrderStatus == status {
			o = cur
			return nil
		}
		if !model.CanTransitionOrder(cur.OrderStatus, status) {
			return transitionError(cur.OrderStatus, status)
		}
		payment := cur.PaymentStatus
		if status == model.OrderDelivered {
			payment = model.PaymentPaid
		}
		now := s.now().UTC()
		if err := tx.Orders().UpdateStatus(ctx, id, status, payment, now); err != nil {
			return err
		}
		cur.OrderStatus = status
		cur.PaymentStatus = payment
		cur.OrderUpdateDate = now
		o = cur
		return nil
	})
	if err != nil {
		return model.Order{}, err
	}
	publish(s.events, s.log, queue.Event{
		Type:      queue.OrderStatusChanged,
		OrderID:   o.ID,
		BookingID: deref(o.BookingID),
		UserID:    o.UserID,
		Status:    o.OrderStatus,
	})
	return o, nil
}

func (s *OrderService) ListMine(ctx context.Context, who Identity) ([]model.Order, error) {
	if !who.Authenticated() {
		return nil, ErrNotAuthenticated
	}
	return s.store.Orders().List(ctx, model.OrderFilter{UserID: who.ID})
}

// GetMine returns one of the caller's orders; other shoppers' orders are
// reported as not found.
func (s *OrderService) GetMine(ctx context.Context, who Identity, id uint64) (model.Order, error) {
	if !who.Authenticated() {
		return model.Order{}, ErrNotAuthenticated
	}
	o, err := s.Get(ctx, id)
	if err != nil {
		return o, err
	}
	if o.UserID != who.ID {
		return model.Order{}, ErrOrderNotFound
	}
	return o, nil
}

func (s *OrderService) ListAll(ctx context.Context, f model.OrderFilter) ([]model.Order, error) {
	if f.Status != "" && !model.ValidOrderStatus(f.Status) {
		return nil, ValidationError("unknown order status %q", f.Status)
	}
	return s.store.Orders().List(ctx, f)
}

// ListByUser is the admin view of one shopper's orders.  A shopper without
// orders yields ErrOrderNotFound.
func (s *OrderService) ListByUser(ctx context.Context, userID uint64) ([]model.Order, error) {
	orders, err := s.store.Orders().List(ctx, model.OrderFilter{UserID: userID})
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, ErrOrderNotFound
	}
	return orders, nil
}

func (s *OrderService) Get(ctx context.Context, id uint64) (model.Order, error) {
	o, err := s.store.Orders().Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return o, ErrOrderNotFound
	}
	return o, err
}

func (s *OrderService) Delete(ctx context.Context, id uint64) error {
	err := s.store.Orders().Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrOrderNotFound
	}
	return err
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
