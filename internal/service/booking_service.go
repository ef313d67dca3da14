package service

import (
	"context"
	"errors"
	"strings"

	"github.com/labstack/gommon/log"

	"github.com/mrperfect/storefront/internal/model"
	"github.com/mrperfect/storefront/internal/queue"
	"github.com/mrperfect/storefront/internal/repository"
)

// maxBookingIDAttempts bounds identifier regeneration after a unique-key
// collision on bookings.booking_id.
const maxBookingIDAttempts = 5

const defaultOrderNote = "Created from booking"

// BookingRequest is the shopper's booking payload.  The shipping fields are
// only used when the shopper has no saved address; notes always win when set.
type BookingRequest struct {
	ProductID uint64 `json:"productId"`
	Size      string `json:"size"`
	Address   string `json:"address"`
	City      string `json:"city"`
	Pincode   string `json:"pincode"`
	Notes     string `json:"notes"`
}

// BookingService owns the booking lifecycle and the order derived from
// each booking.
type BookingService struct {
	store  Store
	ids    *BookingIDGenerator
	events EventPublisher
	log    *log.Logger

	// StrictProduct rejects bookings for products that no longer exist.
	// When false the booking proceeds with a zero-priced order line.
	StrictProduct bool
}

func NewBookingService(store Store, ids *BookingIDGenerator, events EventPublisher, strictProduct bool) *BookingService {
	if ids == nil {
		ids = NewBookingIDGenerator()
	}
	if events == nil {
		events = NoopPublisher{}
	}
	return &BookingService{
		store:         store,
		ids:           ids,
		events:        events,
		log:           log.New("booking"),
		StrictProduct: strictProduct,
	}
}

// shipping is the address snapshot written to both the booking and its
// order.
type shipping struct {
	addressID *uint64
	address   string
	city      string
	pincode   string
	phone     string
	notes     string
}

// resolveShipping picks the latest saved address when there is one and the
// request's fields otherwise.
func resolveShipping(latest *model.Address, req BookingRequest, who Identity) (shipping, error) {
	var s shipping
	if latest != nil {
		id := latest.ID
		s = shipping{
			addressID: &id,
			address:   latest.Address,
			city:      latest.City,
			pincode:   latest.Pincode,
			phone:     latest.Phone,
			notes:     latest.Notes,
		}
	} else {
		s = shipping{
			address: strings.TrimSpace(req.Address),
			city:    strings.TrimSpace(req.City),
			pincode: strings.TrimSpace(req.Pincode),
		}
		if s.address == "" || s.city == "" || s.pincode == "" {
			return s, ValidationError("no saved address: address, city and pincode are required")
		}
	}
	if s.phone == "" {
		s.phone = who.Phone
	}
	if n := strings.TrimSpace(req.Notes); n != "" {
		s.notes = n
	}
	return s, nil
}

// CreateBooking records the shopper's booking together with a pending,
// offline-payment order for one unit of the product.  Both rows are
// written in one transaction.
func (s *BookingService) CreateBooking(ctx context.Context, who Identity, req BookingRequest) (model.Booking, model.Order, error) {
	var booking model.Booking
	var order model.Order
	if !who.Authenticated() {
		return booking, order, ErrNotAuthenticated
	}
	req.Size = strings.TrimSpace(req.Size)
	if req.ProductID == 0 {
		return booking, order, ValidationError("productId is required")
	}
	if req.Size == "" {
		return booking, order, ValidationError("size is required")
	}

	err := s.store.WithinTx(ctx, func(tx Store) error {
		latest, err := tx.Addresses().Latest(ctx, who.ID)
		if err != nil {
			return err
		}
		ship, err := resolveShipping(latest, req, who)
		if err != nil {
			return err
		}

		item := model.OrderItem{ProductID: req.ProductID, Size: req.Size, Quantity: 1}
		product, err := tx.Products().GetByID(ctx, req.ProductID)
		switch {
		case err == nil:
			if !product.HasSize(req.Size) {
				return ValidationError("size %q is not available for this product", req.Size)
			}
			item.Title = product.Title
			item.Image = product.Image
			item.Price = product.EffectivePrice()
		case errors.Is(err, repository.ErrNotFound):
			if s.StrictProduct {
				return ErrProductNotFound
			}
			s.log.Warnj(log.JSON{"event": "booking.product_missing", "productId": req.ProductID, "userId": who.ID})
		default:
			return err
		}

		orderNotes := ship.notes
		if orderNotes == "" {
			orderNotes = defaultOrderNote
		}
		order = model.Order{
			UserID: who.ID,
			Items:  []model.OrderItem{item},
			AddressInfo: model.AddressInfo{
				AddressID: ship.addressID,
				Address:   ship.address,
				City:      ship.city,
				Pincode:   ship.pincode,
				Phone:     ship.phone,
				Notes:     orderNotes,
			},
			OrderStatus:   model.OrderPending,
			PaymentMethod: model.PaymentOffline,
			PaymentStatus: model.PaymentPending,
		}
		order.TotalAmount = model.SumItems(order.Items)
		if err := tx.Orders().Create(ctx, &order); err != nil {
			return err
		}

		phone := who.Phone
		if phone == "" {
			phone = ship.phone
		}
		orderID := order.ID
		booking = model.Booking{
			OrderID:      &orderID,
			UserID:       who.ID,
			UserName:     who.UserName,
			Email:        who.Email,
			Phone:        phone,
			Address:      ship.address,
			City:         ship.city,
			Pincode:      ship.pincode,
			Notes:        ship.notes,
			ProductID:    req.ProductID,
			ProductName:  item.Title,
			ProductImage: item.Image,
			Size:         req.Size,
			Status:       model.BookingPending,
		}
		if err := s.insertBooking(ctx, tx, &booking); err != nil {
			return err
		}
		if err := tx.Orders().SetBookingRef(ctx, order.ID, booking.BookingID); err != nil {
			return err
		}
		order.BookingID = &booking.BookingID
		return nil
	})
	if err != nil {
		return model.Booking{}, model.Order{}, err
	}

	publish(s.events, s.log, queue.Event{
		Type:        queue.BookingCreated,
		BookingID:   booking.BookingID,
		OrderID:     order.ID,
		UserID:      who.ID,
		UserName:    who.UserName,
		Email:       who.Email,
		Status:      booking.Status,
		ProductName: booking.ProductName,
		TotalAmount: order.TotalAmount.String(),
	})
	return booking, order, nil
}

func (s *BookingService) insertBooking(ctx context.Context, tx Store, b *model.Booking) error {
	for attempt := 1; attempt <= maxBookingIDAttempts; attempt++ {
		b.BookingID = s.ids.Next()
		err := tx.Bookings().Insert(ctx, b)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return err
		}
		s.log.Warnj(log.JSON{"event": "booking.id_collision", "bookingId": b.BookingID, "attempt": attempt})
	}
	return ErrConflict
}

// ListMine returns the shopper's bookings that they have not deleted.
func (s *BookingService) ListMine(ctx context.Context, who Identity) ([]model.Booking, error) {
	if !who.Authenticated() {
		return nil, ErrNotAuthenticated
	}
	return s.store.Bookings().List(ctx, model.BookingFilter{UserID: who.ID})
}

// ListAll is the admin listing.  Soft-deleted bookings are included so
// that admins see what shoppers withdrew.
func (s *BookingService) ListAll(ctx context.Context, f model.BookingFilter) ([]model.Booking, error) {
	if f.Status != "" && !model.ValidBookingStatus(f.Status) && f.Status != model.BookingDeletedByUser {
		return nil, ValidationError("unknown booking status %q", f.Status)
	}
	return s.store.Bookings().List(ctx, f)
}

// UpdateStatus moves a booking along its admin lifecycle.
func (s *BookingService) UpdateStatus(ctx context.Context, id uint64, status string) (model.Booking, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if !model.ValidBookingStatus(status) {
		return model.Booking{}, ValidationError("unknown booking status %q", status)
	}
	b, err := s.transition(ctx, id, status, nil)
	if err != nil {
		return b, err
	}
	publish(s.events, s.log, queue.Event{
		Type:        queue.BookingStatusChanged,
		BookingID:   b.BookingID,
		UserID:      b.UserID,
		UserName:    b.UserName,
		Email:       b.Email,
		Status:      b.Status,
		ProductName: b.ProductName,
	})
	return b, nil
}

// AttachPaymentQR records the uploaded payment instructions and marks the
// booking contacted.
func (s *BookingService) AttachPaymentQR(ctx context.Context, id uint64, path string) (model.Booking, error) {
	if strings.TrimSpace(path) == "" {
		return model.Booking{}, ValidationError("payment QR file is required")
	}
	b, err := s.transition(ctx, id, model.BookingContacted, &path)
	if err != nil {
		return b, err
	}
	publish(s.events, s.log, queue.Event{
		Type:        queue.BookingPaymentRequested,
		BookingID:   b.BookingID,
		UserID:      b.UserID,
		UserName:    b.UserName,
		Email:       b.Email,
		Status:      b.Status,
		ProductName: b.ProductName,
		PaymentQR:   path,
	})
	return b, nil
}

func (s *BookingService) transition(ctx context.Context, id uint64, to string, qr *string) (model.Booking, error) {
	var b model.Booking
	err := s.store.WithinTx(ctx, func(tx Store) error {
		cur, err := tx.Bookings().GetForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrBookingNotFound
			}
			return err
		}
		if !model.CanTransitionBooking(cur.Status, to) {
			return transitionError(cur.Status, to)
		}
		if err := tx.Bookings().UpdateStatus(ctx, id, to, qr); err != nil {
			return err
		}
		b, err = tx.Bookings().Get(ctx, id)
		return err
	})
	return b, err
}

// DeleteByUser soft-deletes the shopper's own booking.  Bookings of other
// shoppers are reported as not found.  Deleting twice is a no-op.
func (s *BookingService) DeleteByUser(ctx context.Context, who Identity, id uint64) (model.Booking, error) {
	if !who.Authenticated() {
		return model.Booking{}, ErrNotAuthenticated
	}
	var b model.Booking
	err := s.store.WithinTx(ctx, func(tx Store) error {
		cur, err := tx.Bookings().GetForUpdate(ctx, id)
		if errors.Is(err, repository.ErrNotFound) || (err == nil && cur.UserID != who.ID) {
			return ErrBookingNotFound
		}
		if err != nil {
			return err
		}
		if cur.IsUserDeleted {
			b = cur
			return nil
		}
		if err := tx.Bookings().SoftDelete(ctx, id); err != nil {
			return err
		}
		b, err = tx.Bookings().Get(ctx, id)
		return err
	})
	return b, err
}

// DeleteByAdmin removes the booking row.  The derived order is kept.
func (s *BookingService) DeleteByAdmin(ctx context.Context, id uint64) error {
	err := s.store.Bookings().Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrBookingNotFound
	}
	return err
}
