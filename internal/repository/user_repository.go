package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mrperfect/storefront/internal/model"
	"github.com/mrperfect/storefront/internal/utils"
)

type UserRepo struct{ db sqlx.ExtContext }

func NewUserRepo(db sqlx.ExtContext) *UserRepo { return &UserRepo{db: db} }

type userRow struct {
	ID           uint64         `db:"id"`
	UserName     string         `db:"user_name"`
	Email        string         `db:"email"`
	Phone        sql.NullString `db:"phone"`
	PasswordHash string         `db:"password_hash"`
	Role         string         `db:"role"`
	CreatedAt    time.Time      `db:"created_at"`
}

func (r userRow) model() model.User {
	return model.User{
		ID:           r.ID,
		UserName:     r.UserName,
		Email:        r.Email,
		Phone:        stringPtr(r.Phone),
		PasswordHash: r.PasswordHash,
		Role:         r.Role,
		CreatedAt:    r.CreatedAt,
	}
}

const userCols = "id, user_name, email, phone, password_hash, role, created_at"

// Create inserts a shopper and returns its ID.  A taken user name, email or
// phone yields ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, userName, email, phone, password string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	var ph sql.NullString
	if p := strings.TrimSpace(phone); p != "" {
		ph = sql.NullString{String: p, Valid: true}
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (user_name, email, phone, password_hash, role) VALUES (?,?,?,?,?)",
		strings.TrimSpace(userName), email, ph, hash, model.RoleShopper)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var row userRow
	err := sqlx.GetContext(ctx, r.db, &row, "SELECT "+userCols+" FROM users WHERE email=? LIMIT 1", email)
	return row.model(), notFound(err)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var row userRow
	err := sqlx.GetContext(ctx, r.db, &row, "SELECT "+userCols+" FROM users WHERE id=? LIMIT 1", id)
	return row.model(), notFound(err)
}

// ListShoppers returns every shopper, newest first, each with the latest
// address they saved.
func (r *UserRepo) ListShoppers(ctx context.Context) ([]model.UserWithAddress, error) {
	const q = `SELECT u.id, u.user_name, u.email, u.phone, u.password_hash, u.role, u.created_at,
       a.id AS a_id, a.address AS a_address, a.city AS a_city, a.pincode AS a_pincode,
       a.phone AS a_phone, a.notes AS a_notes, a.created_at AS a_created_at
FROM users u
LEFT JOIN addresses a ON a.id = (
    SELECT a2.id FROM addresses a2 WHERE a2.user_id = u.id
    ORDER BY a2.created_at DESC, a2.id DESC LIMIT 1)
WHERE u.role = ?
ORDER BY u.created_at DESC, u.id DESC`
	var rows []struct {
		userRow
		AID        sql.NullInt64  `db:"a_id"`
		AAddress   sql.NullString `db:"a_address"`
		ACity      sql.NullString `db:"a_city"`
		APincode   sql.NullString `db:"a_pincode"`
		APhone     sql.NullString `db:"a_phone"`
		ANotes     sql.NullString `db:"a_notes"`
		ACreatedAt sql.NullTime   `db:"a_created_at"`
	}
	if err := sqlx.SelectContext(ctx, r.db, &rows, q, model.RoleShopper); err != nil {
		return nil, err
	}
	out := make([]model.UserWithAddress, 0, len(rows))
	for _, row := range rows {
		u := model.UserWithAddress{User: row.userRow.model()}
		if row.AID.Valid {
			u.Address = &model.Address{
				ID:        uint64(row.AID.Int64),
				UserID:    row.ID,
				Address:   row.AAddress.String,
				City:      row.ACity.String,
				Pincode:   row.APincode.String,
				Phone:     row.APhone.String,
				Notes:     row.ANotes.String,
				CreatedAt: row.ACreatedAt.Time,
			}
		}
		out = append(out, u)
	}
	return out, nil
}

// Delete removes a shopper.  Admin accounts are refused with ErrForbidden.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if u.Role == model.RoleAdmin {
		return ErrForbidden
	}
	return mustAffect(r.db.ExecContext(ctx, "DELETE FROM users WHERE id=?", id))
}
