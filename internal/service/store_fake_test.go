package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mrperfect/storefront/internal/model"
	"github.com/mrperfect/storefront/internal/queue"
	"github.com/mrperfect/storefront/internal/repository"
)

// memStore is an in-memory Store.  WithinTx snapshots the state and
// restores it when fn fails, which is what a rolled back MySQL transaction
// looks like to the services.
type memStore struct {
	addresses []model.Address
	products  map[uint64]model.Product
	carts     map[uint64]model.Cart
	bookings  map[uint64]model.Booking
	orders    map[uint64]model.Order
	reviews   map[uint64]model.ProductReview
	nextID    uint64

	// decrementErr forces DecrementStock to fail for a product.
	decrementErr map[uint64]error
	// failBookingRef makes SetBookingRef fail, to exercise rollback.
	failBookingRef error
	decrements     int
}

func newMemStore() *memStore {
	return &memStore{
		products:     map[uint64]model.Product{},
		carts:        map[uint64]model.Cart{},
		bookings:     map[uint64]model.Booking{},
		orders:       map[uint64]model.Order{},
		reviews:      map[uint64]model.ProductReview{},
		decrementErr: map[uint64]error{},
	}
}

func (m *memStore) id() uint64 { m.nextID++; return m.nextID }

func (m *memStore) Addresses() AddressRepository { return memAddresses{m} }
func (m *memStore) Products() ProductRepository  { return memProducts{m} }
func (m *memStore) Carts() CartRepository        { return memCarts{m} }
func (m *memStore) Bookings() BookingRepository  { return memBookings{m} }
func (m *memStore) Orders() OrderRepository      { return memOrders{m} }
func (m *memStore) Reviews() ReviewRepository    { return memReviews{m} }

func (m *memStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	snap := m.snapshot()
	if err := fn(m); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

type memSnapshot struct {
	addresses []model.Address
	products  map[uint64]model.Product
	carts     map[uint64]model.Cart
	bookings  map[uint64]model.Booking
	orders    map[uint64]model.Order
	reviews   map[uint64]model.ProductReview
	nextID    uint64
}

func cloneMap[V any](in map[uint64]V) map[uint64]V {
	out := make(map[uint64]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (m *memStore) snapshot() memSnapshot {
	orders := make(map[uint64]model.Order, len(m.orders))
	for k, o := range m.orders {
		o.Items = append([]model.OrderItem(nil), o.Items...)
		orders[k] = o
	}
	return memSnapshot{
		addresses: append([]model.Address(nil), m.addresses...),
		products:  cloneMap(m.products),
		carts:     cloneMap(m.carts),
		bookings:  cloneMap(m.bookings),
		orders:    orders,
		reviews:   cloneMap(m.reviews),
		nextID:    m.nextID,
	}
}

func (m *memStore) restore(s memSnapshot) {
	m.addresses, m.products, m.carts = s.addresses, s.products, s.carts
	m.bookings, m.orders, m.reviews, m.nextID = s.bookings, s.orders, s.reviews, s.nextID
}

type memAddresses struct{ m *memStore }

func (r memAddresses) Latest(_ context.Context, userID uint64) (*model.Address, error) {
	var latest *model.Address
	for i := range r.m.addresses {
		a := r.m.addresses[i]
		if a.UserID != userID {
			continue
		}
		if latest == nil || a.CreatedAt.After(latest.CreatedAt) ||
			(a.CreatedAt.Equal(latest.CreatedAt) && a.ID > latest.ID) {
			latest = &a
		}
	}
	return latest, nil
}

type memProducts struct{ m *memStore }

func (r memProducts) GetByID(_ context.Context, id uint64) (model.Product, error) {
	p, ok := r.m.products[id]
	if !ok {
		return model.Product{}, repository.ErrNotFound
	}
	return p, nil
}

func (r memProducts) DecrementStock(_ context.Context, id uint64, qty int) error {
	if err := r.m.decrementErr[id]; err != nil {
		return err
	}
	p, ok := r.m.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.TotalStock -= qty
	r.m.products[id] = p
	r.m.decrements++
	return nil
}

type memCarts struct{ m *memStore }

func (r memCarts) Get(_ context.Context, id uint64) (model.Cart, error) {
	c, ok := r.m.carts[id]
	if !ok {
		return model.Cart{}, repository.ErrNotFound
	}
	return c, nil
}

func (r memCarts) GetByUser(ctx context.Context, userID uint64) (model.Cart, error) {
	var best uint64
	for id, c := range r.m.carts {
		if c.UserID == userID && id > best {
			best = id
		}
	}
	if best == 0 {
		return model.Cart{UserID: userID}, repository.ErrNotFound
	}
	return r.Get(ctx, best)
}

func (r memCarts) Replace(ctx context.Context, userID uint64, items []model.CartItem) (model.Cart, error) {
	c, err := r.GetByUser(ctx, userID)
	if err != nil {
		c = model.Cart{ID: r.m.id(), UserID: userID}
	}
	c.Items = append([]model.CartItem(nil), items...)
	r.m.carts[c.ID] = c
	return c, nil
}

func (r memCarts) Delete(_ context.Context, id uint64) error {
	if _, ok := r.m.carts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.m.carts, id)
	return nil
}

type memBookings struct{ m *memStore }

func (r memBookings) Insert(_ context.Context, b *model.Booking) error {
	for _, other := range r.m.bookings {
		if other.BookingID == b.BookingID {
			return repository.ErrDuplicate
		}
	}
	b.ID = r.m.id()
	now := time.Now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now
	r.m.bookings[b.ID] = *b
	return nil
}

func (r memBookings) Get(_ context.Context, id uint64) (model.Booking, error) {
	b, ok := r.m.bookings[id]
	if !ok {
		return model.Booking{}, repository.ErrNotFound
	}
	return b, nil
}

func (r memBookings) GetForUpdate(ctx context.Context, id uint64) (model.Booking, error) {
	return r.Get(ctx, id)
}

func (r memBookings) List(_ context.Context, f model.BookingFilter) ([]model.Booking, error) {
	out := []model.Booking{}
	for _, b := range r.m.bookings {
		if f.UserID != 0 && b.UserID != f.UserID {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		if !f.IncludeDeleted && b.IsUserDeleted {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memBookings) UpdateStatus(_ context.Context, id uint64, status string, qr *string) error {
	b, ok := r.m.bookings[id]
	if !ok {
		return repository.ErrNotFound
	}
	b.Status = status
	if qr != nil {
		v := *qr
		b.PaymentQR = &v
	}
	r.m.bookings[id] = b
	return nil
}

func (r memBookings) SoftDelete(_ context.Context, id uint64) error {
	b, ok := r.m.bookings[id]
	if !ok {
		return repository.ErrNotFound
	}
	b.IsUserDeleted = true
	b.Status = model.BookingDeletedByUser
	r.m.bookings[id] = b
	return nil
}

func (r memBookings) Delete(_ context.Context, id uint64) error {
	if _, ok := r.m.bookings[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.m.bookings, id)
	return nil
}

type memOrders struct{ m *memStore }

func (r memOrders) Create(_ context.Context, o *model.Order) error {
	o.ID = r.m.id()
	now := time.Now().UTC()
	o.OrderDate, o.OrderUpdateDate = now, now
	stored := *o
	stored.Items = append([]model.OrderItem(nil), o.Items...)
	r.m.orders[o.ID] = stored
	return nil
}

func (r memOrders) SetBookingRef(_ context.Context, id uint64, bookingID string) error {
	if r.m.failBookingRef != nil {
		return r.m.failBookingRef
	}
	o, ok := r.m.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	o.BookingID = &bookingID
	r.m.orders[id] = o
	return nil
}

func (r memOrders) Get(_ context.Context, id uint64) (model.Order, error) {
	o, ok := r.m.orders[id]
	if !ok {
		return model.Order{}, repository.ErrNotFound
	}
	o.Items = append([]model.OrderItem(nil), o.Items...)
	return o, nil
}

func (r memOrders) GetForUpdate(ctx context.Context, id uint64) (model.Order, error) {
	return r.Get(ctx, id)
}

func (r memOrders) List(_ context.Context, f model.OrderFilter) ([]model.Order, error) {
	out := []model.Order{}
	for _, o := range r.m.orders {
		if f.UserID != 0 && o.UserID != f.UserID {
			continue
		}
		if f.Status != "" && o.OrderStatus != f.Status {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memOrders) UpdateStatus(_ context.Context, id uint64, orderStatus, paymentStatus string, at time.Time) error {
	o, ok := r.m.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	o.OrderStatus, o.PaymentStatus, o.OrderUpdateDate = orderStatus, paymentStatus, at
	r.m.orders[id] = o
	return nil
}

func (r memOrders) Delete(_ context.Context, id uint64) error {
	if _, ok := r.m.orders[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.m.orders, id)
	return nil
}

func (r memOrders) HasPurchased(_ context.Context, userID, productID uint64, statuses []string) (bool, error) {
	for _, o := range r.m.orders {
		if o.UserID != userID {
			continue
		}
		qualifies := false
		for _, s := range statuses {
			if o.OrderStatus == s {
				qualifies = true
			}
		}
		if !qualifies {
			continue
		}
		for _, it := range o.Items {
			if it.ProductID == productID {
				return true, nil
			}
		}
	}
	return false, nil
}

type memReviews struct{ m *memStore }

func (r memReviews) Create(_ context.Context, rv *model.ProductReview) error {
	for _, other := range r.m.reviews {
		if other.UserID == rv.UserID && other.ProductID == rv.ProductID {
			return repository.ErrDuplicate
		}
	}
	rv.ID = r.m.id()
	rv.CreatedAt = time.Now().UTC()
	r.m.reviews[rv.ID] = *rv
	return nil
}

func (r memReviews) Exists(_ context.Context, userID, productID uint64) (bool, error) {
	for _, rv := range r.m.reviews {
		if rv.UserID == userID && rv.ProductID == productID {
			return true, nil
		}
	}
	return false, nil
}

func (r memReviews) Get(_ context.Context, id uint64) (model.ProductReview, error) {
	rv, ok := r.m.reviews[id]
	if !ok {
		return model.ProductReview{}, repository.ErrNotFound
	}
	return rv, nil
}

func (r memReviews) List(_ context.Context, f model.ReviewFilter) ([]model.ProductReview, error) {
	out := []model.ProductReview{}
	for _, rv := range r.m.reviews {
		if f.ProductID != 0 && rv.ProductID != f.ProductID {
			continue
		}
		if f.Status != "" && rv.Status != f.Status {
			continue
		}
		out = append(out, rv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memReviews) SetStatus(_ context.Context, id uint64, status string) error {
	rv, ok := r.m.reviews[id]
	if !ok {
		return repository.ErrNotFound
	}
	rv.Status = status
	r.m.reviews[id] = rv
	return nil
}

func (r memReviews) SetReply(_ context.Context, id uint64, reply string) error {
	rv, ok := r.m.reviews[id]
	if !ok {
		return repository.ErrNotFound
	}
	rv.AdminReply = &reply
	r.m.reviews[id] = rv
	return nil
}

func (r memReviews) Delete(_ context.Context, id uint64) error {
	if _, ok := r.m.reviews[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.m.reviews, id)
	return nil
}

// recorder captures published events.
type recorder struct {
	mu     sync.Mutex
	events []queue.Event
	err    error
}

func (r *recorder) Publish(_ context.Context, ev queue.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}
