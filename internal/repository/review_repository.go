package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/mrperfect/storefront/internal/model"
)

type ReviewRepo struct{ db sqlx.ExtContext }

func NewReviewRepo(db sqlx.ExtContext) *ReviewRepo { return &ReviewRepo{db: db} }

type reviewRow struct {
	ID         uint64         `db:"id"`
	ProductID  uint64         `db:"product_id"`
	UserID     uint64         `db:"user_id"`
	UserName   string         `db:"user_name"`
	Message    string         `db:"message"`
	Rating     int            `db:"rating"`
	Status     string         `db:"status"`
	AdminReply sql.NullString `db:"admin_reply"`
	CreatedAt  time.Time      `db:"created_at"`
}

func (r reviewRow) model() model.ProductReview {
	return model.ProductReview{
		ID:            r.ID,
		ProductID:     r.ProductID,
		UserID:        r.UserID,
		UserName:      r.UserName,
		ReviewMessage: r.Message,
		ReviewValue:   r.Rating,
		Status:        r.Status,
		AdminReply:    stringPtr(r.AdminReply),
		CreatedAt:     r.CreatedAt,
	}
}

const reviewCols = "id, product_id, user_id, user_name, message, rating, status, admin_reply, created_at"

// Create inserts rv.  The (user_id, product_id) unique key turns a racing
// second review into ErrDuplicate.
func (r *ReviewRepo) Create(ctx context.Context, rv *model.ProductReview) error {
	if rv.CreatedAt.IsZero() {
		rv.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO reviews (product_id, user_id, user_name, message, rating, status, created_at) VALUES (?,?,?,?,?,?,?)",
		rv.ProductID, rv.UserID, rv.UserName, rv.ReviewMessage, rv.ReviewValue, rv.Status, rv.CreatedAt)
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
	rv.ID = uint64(id)
	return nil
}

// Exists reports whether the user already reviewed the product.
func (r *ReviewRepo) Exists(ctx context.Context, userID, productID uint64) (bool, error) {
	var n int
	err := sqlx.GetContext(ctx, r.db, &n,
		"SELECT COUNT(*) FROM reviews WHERE user_id=? AND product_id=?", userID, productID)
	return n > 0, err
}

func (r *ReviewRepo) Get(ctx context.Context, id uint64) (model.ProductReview, error) {
	var row reviewRow
	err := sqlx.GetContext(ctx, r.db, &row, "SELECT "+reviewCols+" FROM reviews WHERE id=?", id)
	return row.model(), notFound(err)
}

// List returns reviews matching f, newest first.
func (r *ReviewRepo) List(ctx context.Context, f model.ReviewFilter) ([]model.ProductReview, error) {
	b := qb.Select(reviewCols).From("reviews").OrderBy("created_at DESC", "id DESC")
	if f.ProductID != 0 {
		b = b.Where(squirrel.Eq{"product_id": f.ProductID})
	}
	if f.Status != "" {
		b = b.Where(squirrel.Eq{"status": f.Status})
	}
	q, args, err := paginate(b, f.Limit, f.Offset).ToSql()
	if err != nil {
		return nil, err
	}
	var rows []reviewRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, q, args...); err != nil {
		return nil, err
	}
	out := make([]model.ProductReview, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out, nil
}

func (r *ReviewRepo) SetStatus(ctx context.Context, id uint64, status string) error {
	return mustAffect(r.db.ExecContext(ctx, "UPDATE reviews SET status=? WHERE id=?", status, id))
}

func (r *ReviewRepo) SetReply(ctx context.Context, id uint64, reply string) error {
	return mustAffect(r.db.ExecContext(ctx, "UPDATE reviews SET admin_reply=? WHERE id=?", reply, id))
}

func (r *ReviewRepo) Delete(ctx context.Context, id uint64) error {
	return mustAffect(r.db.ExecContext(ctx, "DELETE FROM reviews WHERE id=?", id))
}
