package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mrperfect/storefront/internal/model"
	"github.com/mrperfect/storefront/internal/repository"
)

type AddressRepository interface {
	// Latest returns nil without error when the user has no address.
	Latest(ctx context.Context, userID uint64) (*model.Address, error)
}

type ProductRepository interface {
	GetByID(ctx context.Context, id uint64) (model.Product, error)
	DecrementStock(ctx context.Context, id uint64, qty int) error
}

type CartRepository interface {
	Get(ctx context.Context, id uint64) (model.Cart, error)
	GetByUser(ctx context.Context, userID uint64) (model.Cart, error)
	Replace(ctx context.Context, userID uint64, items []model.CartItem) (model.Cart, error)
	Delete(ctx context.Context, id uint64) error
}

type BookingRepository interface {
	Insert(ctx context.Context, b *model.Booking) error
	Get(ctx context.Context, id uint64) (model.Booking, error)
	GetForUpdate(ctx context.Context, id uint64) (model.Booking, error)
	List(ctx context.Context, f model.BookingFilter) ([]model.Booking, error)
	UpdateStatus(ctx context.Context, id uint64, status string, qr *string) error
	SoftDelete(ctx context.Context, id uint64) error
	Delete(ctx context.Context, id uint64) error
}

type OrderRepository interface {
	Create(ctx context.Context, o *model.Order) error
	SetBookingRef(ctx context.Context, id uint64, bookingID string) error
	Get(ctx context.Context, id uint64) (model.Order, error)
	GetForUpdate(ctx context.Context, id uint64) (model.Order, error)
	List(ctx context.Context, f model.OrderFilter) ([]model.Order, error)
	UpdateStatus(ctx context.Context, id uint64, orderStatus, paymentStatus string, at time.Time) error
	Delete(ctx context.Context, id uint64) error
	HasPurchased(ctx context.Context, userID, productID uint64, statuses []string) (bool, error)
}

type ReviewRepository interface {
	Create(ctx context.Context, rv *model.ProductReview) error
	Exists(ctx context.Context, userID, productID uint64) (bool, error)
	Get(ctx context.Context, id uint64) (model.ProductReview, error)
	List(ctx context.Context, f model.ReviewFilter) ([]model.ProductReview, error)
	SetStatus(ctx context.Context, id uint64, status string) error
	SetReply(ctx context.Context, id uint64, reply string) error
	Delete(ctx context.Context, id uint64) error
}

// Store hands out repositories bound to one connection or transaction.
// WithinTx runs fn against a Store bound to a single transaction, commits
// when fn returns nil and rolls back otherwise.
type Store interface {
	Addresses() AddressRepository
	Products() ProductRepository
	Carts() CartRepository
	Bookings() BookingRepository
	Orders() OrderRepository
	Reviews() ReviewRepository
	WithinTx(ctx context.Context, fn func(Store) error) error
}

// SQLStore is the MySQL Store.
type SQLStore struct {
	db  *sqlx.DB
	ext sqlx.ExtContext
	tx  *sqlx.Tx
}

func NewSQLStore(db *sqlx.DB) *SQLStore { return &SQLStore{db: db, ext: db} }

func (s *SQLStore) Addresses() AddressRepository { return repository.NewAddressRepo(s.ext) }
func (s *SQLStore) Products() ProductRepository  { return repository.NewProductRepo(s.ext) }
func (s *SQLStore) Carts() CartRepository        { return repository.NewCartRepo(s.ext) }
func (s *SQLStore) Bookings() BookingRepository  { return repository.NewBookingRepo(s.ext) }
func (s *SQLStore) Orders() OrderRepository      { return repository.NewOrderRepo(s.ext) }
func (s *SQLStore) Reviews() ReviewRepository    { return repository.NewReviewRepo(s.ext) }

// WithinTx joins the current transaction when called on a transactional
// store.
func (s *SQLStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&SQLStore{db: s.db, ext: tx, tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
