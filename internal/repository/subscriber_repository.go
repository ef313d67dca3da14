package repository

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mrperfect/storefront/internal/model"
)

type SubscriberRepo struct{ db sqlx.ExtContext }

type subscriberRow struct {
	ID        uint64    `db:"id"`
	Email     string    `db:"email"`
	CreatedAt time.Time `db:"created_at"`
}

func NewSubscriberRepo(db sqlx.ExtContext) *SubscriberRepo { return &SubscriberRepo{db: db} }

// Create subscribes email; an address already on the list yields ErrDuplicate.
func (r *SubscriberRepo) Create(ctx context.Context, email string) (model.Subscriber, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.db.ExecContext(ctx, "INSERT INTO subscribers (email) VALUES (?)", email)
	if err != nil {
		if isDuplicate(err) {
			return model.Subscriber{}, ErrDuplicate
		}
		return model.Subscriber{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Subscriber{}, err
	}
	var row subscriberRow
	err = sqlx.GetContext(ctx, r.db, &row, "SELECT id, email, created_at FROM subscribers WHERE id=?", id)
	return model.Subscriber(row), err
}

func (r *SubscriberRepo) List(ctx context.Context) ([]model.Subscriber, error) {
	var rows []subscriberRow
	if err := sqlx.SelectContext(ctx, r.db, &rows,
		"SELECT id, email, created_at FROM subscribers ORDER BY created_at DESC, id DESC"); err != nil {
		return nil, err
	}
	out := make([]model.Subscriber, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.Subscriber(row))
	}
	return out, nil
}

func (r *SubscriberRepo) Delete(ctx context.Context, id uint64) error {
	return mustAffect(r.db.ExecContext(ctx, "DELETE FROM subscribers WHERE id=?", id))
}
