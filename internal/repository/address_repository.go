package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mrperfect/storefront/internal/model"
)

type AddressRepo struct{ db sqlx.ExtContext }

func NewAddressRepo(db sqlx.ExtContext) *AddressRepo { return &AddressRepo{db: db} }

type addressRow struct {
	ID        uint64    `db:"id"`
	UserID    uint64    `db:"user_id"`
	Address   string    `db:"address"`
	City      string    `db:"city"`
	Pincode   string    `db:"pincode"`
	Phone     string    `db:"phone"`
	Notes     string    `db:"notes"`
	CreatedAt time.Time `db:"created_at"`
}

func (r addressRow) model() model.Address { return model.Address(r) }

const addressCols = "id, user_id, address, city, pincode, phone, notes, created_at"

// Create inserts a and fills in its ID and creation time.
func (r *AddressRepo) Create(ctx context.Context, a *model.Address) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO addresses (user_id, address, city, pincode, phone, notes, created_at) VALUES (?,?,?,?,?,?,?)",
		a.UserID, a.Address, a.City, a.Pincode, a.Phone, a.Notes, a.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}

// ListByUser returns a user's addresses, newest first.
func (r *AddressRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Address, error) {
	var rows []addressRow
	err := sqlx.SelectContext(ctx, r.db, &rows,
		"SELECT "+addressCols+" FROM addresses WHERE user_id=? ORDER BY created_at DESC, id DESC", userID)
	if err != nil {
		return nil, err
	}
	out := make([]model.Address, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out, nil
}

// Latest returns the user's most recently created address, or nil when
// the user has none.
func (r *AddressRepo) Latest(ctx context.Context, userID uint64) (*model.Address, error) {
	var row addressRow
	err := sqlx.GetContext(ctx, r.db, &row,
		"SELECT "+addressCols+" FROM addresses WHERE user_id=? ORDER BY created_at DESC, id DESC LIMIT 1", userID)
	if err != nil {
		if errors.Is(notFound(err), ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	a := row.model()
	return &a, nil
}
