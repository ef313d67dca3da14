package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/mrperfect/storefront/internal/model"
)

// BookingRepo persists bookings.  The booking_id column carries a unique
// key; Insert reports a collision as ErrDuplicate so the caller can
// regenerate the identifier.
type BookingRepo struct{ db sqlx.ExtContext }

func NewBookingRepo(db sqlx.ExtContext) *BookingRepo { return &BookingRepo{db: db} }

type bookingRow struct {
	ID            uint64         `db:"id"`
	BookingID     string         `db:"booking_id"`
	OrderID       sql.NullInt64  `db:"order_id"`
	UserID        uint64         `db:"user_id"`
	UserName      string         `db:"user_name"`
	Email         string         `db:"email"`
	Phone         string         `db:"phone"`
	Address       string         `db:"address"`
	City          string         `db:"city"`
	Pincode       string         `db:"pincode"`
	Notes         string         `db:"notes"`
	ProductID     uint64         `db:"product_id"`
	ProductName   string         `db:"product_name"`
	ProductImage  string         `db:"product_image"`
	Size          string         `db:"size"`
	Status        string         `db:"status"`
	IsUserDeleted bool           `db:"is_user_deleted"`
	PaymentQR     sql.NullString `db:"payment_qr"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func (r bookingRow) model() model.Booking {
	return model.Booking{
		ID:            r.ID,
		BookingID:     r.BookingID,
		OrderID:       uintPtr(r.OrderID),
		UserID:        r.UserID,
		UserName:      r.UserName,
		Email:         r.Email,
		Phone:         r.Phone,
		Address:       r.Address,
		City:          r.City,
		Pincode:       r.Pincode,
		Notes:         r.Notes,
		ProductID:     r.ProductID,
		ProductName:   r.ProductName,
		ProductImage:  r.ProductImage,
		Size:          r.Size,
		Status:        r.Status,
		IsUserDeleted: r.IsUserDeleted,
		PaymentQR:     stringPtr(r.PaymentQR),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

const bookingCols = `id, booking_id, order_id, user_id, user_name, email, phone, address, city, pincode, notes,
product_id, product_name, product_image, size, status, is_user_deleted, payment_qr, created_at, updated_at`

// Insert stores b and fills in its surrogate ID.
func (r *BookingRepo) Insert(ctx context.Context, b *model.Booking) error {
	now := time.Now().UTC()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = b.CreatedAt
	q, args, err := qb.Insert("bookings").SetMap(map[string]any{
		"booking_id":      b.BookingID,
		"order_id":        nullUint(b.OrderID),
		"user_id":         b.UserID,
		"user_name":       b.UserName,
		"email":           b.Email,
		"phone":           b.Phone,
		"address":         b.Address,
		"city":            b.City,
		"pincode":         b.Pincode,
		"notes":           b.Notes,
		"product_id":      b.ProductID,
		"product_name":    b.ProductName,
		"product_image":   b.ProductImage,
		"size":            b.Size,
		"status":          b.Status,
		"is_user_deleted": b.IsUserDeleted,
		"payment_qr":      nullString(b.PaymentQR),
		"created_at":      b.CreatedAt,
		"updated_at":      b.UpdatedAt,
	}).ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

func (r *BookingRepo) Get(ctx context.Context, id uint64) (model.Booking, error) {
	return r.get(ctx, "SELECT "+bookingCols+" FROM bookings WHERE id=?", id)
}

// GetForUpdate locks the booking row until the surrounding transaction ends.
func (r *BookingRepo) GetForUpdate(ctx context.Context, id uint64) (model.Booking, error) {
	return r.get(ctx, "SELECT "+bookingCols+" FROM bookings WHERE id=? FOR UPDATE", id)
}

func (r *BookingRepo) get(ctx context.Context, q string, id uint64) (model.Booking, error) {
	var row bookingRow
	err := sqlx.GetContext(ctx, r.db, &row, q, id)
	return row.model(), notFound(err)
}

// List returns bookings matching f, newest first.
func (r *BookingRepo) List(ctx context.Context, f model.BookingFilter) ([]model.Booking, error) {
	b := qb.Select(bookingCols).From("bookings").OrderBy("created_at DESC", "id DESC")
	if f.UserID != 0 {
		b = b.Where(squirrel.Eq{"user_id": f.UserID})
	}
	if f.Status != "" {
		b = b.Where(squirrel.Eq{"status": f.Status})
	}
	if !f.IncludeDeleted {
		b = b.Where(squirrel.Eq{"is_user_deleted": false})
	}
	q, args, err := paginate(b, f.Limit, f.Offset).ToSql()
	if err != nil {
		return nil, err
	}
	var rows []bookingRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, q, args...); err != nil {
		return nil, err
	}
	out := make([]model.Booking, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out, nil
}

// UpdateStatus sets the status and, when qr is non-nil, the payment QR path.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id uint64, status string, qr *string) error {
	b := qb.Update("bookings").
		Set("status", status).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id})
	if qr != nil {
		b = b.Set("payment_qr", *qr)
	}
	q, args, err := b.ToSql()
	if err != nil {
		return err
	}
	return mustAffect(r.db.ExecContext(ctx, q, args...))
}

// SoftDelete hides the booking from its owner; the row is kept for admins.
func (r *BookingRepo) SoftDelete(ctx context.Context, id uint64) error {
	return mustAffect(r.db.ExecContext(ctx,
		"UPDATE bookings SET is_user_deleted=1, status=?, updated_at=? WHERE id=?",
		model.BookingDeletedByUser, time.Now().UTC(), id))
}

func (r *BookingRepo) Delete(ctx context.Context, id uint64) error {
	return mustAffect(r.db.ExecContext(ctx, "DELETE FROM bookings WHERE id=?", id))
}
