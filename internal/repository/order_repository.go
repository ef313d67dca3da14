package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/mrperfect/storefront/internal/model"
)

// OrderRepo persists orders and their line items.  Writes that span both
// tables must run inside a transaction; the service layer hands the
// repository a *sqlx.Tx for that.
type OrderRepo struct{ db sqlx.ExtContext }

func NewOrderRepo(db sqlx.ExtContext) *OrderRepo { return &OrderRepo{db: db} }

type orderRow struct {
	ID              uint64          `db:"id"`
	UserID          uint64          `db:"user_id"`
	CartID          sql.NullInt64   `db:"cart_id"`
	BookingID       sql.NullString  `db:"booking_id"`
	AddressID       sql.NullInt64   `db:"address_id"`
	Address         string          `db:"address"`
	City            string          `db:"city"`
	Pincode         string          `db:"pincode"`
	Phone           string          `db:"phone"`
	Notes           string          `db:"notes"`
	OrderStatus     string          `db:"order_status"`
	PaymentMethod   string          `db:"payment_method"`
	PaymentStatus   string          `db:"payment_status"`
	TotalAmount     decimal.Decimal `db:"total_amount"`
	OrderDate       time.Time       `db:"order_date"`
	OrderUpdateDate time.Time       `db:"order_update_date"`
}

func (r orderRow) model() model.Order {
	return model.Order{
		ID:        r.ID,
		UserID:    r.UserID,
		CartID:    uintPtr(r.CartID),
		BookingID: stringPtr(r.BookingID),
		AddressInfo: model.AddressInfo{
			AddressID: uintPtr(r.AddressID),
			Address:   r.Address,
			City:      r.City,
			Pincode:   r.Pincode,
			Phone:     r.Phone,
			Notes:     r.Notes,
		},
		OrderStatus:     r.OrderStatus,
		PaymentMethod:   r.PaymentMethod,
		PaymentStatus:   r.PaymentStatus,
		TotalAmount:     r.TotalAmount,
		OrderDate:       r.OrderDate,
		OrderUpdateDate: r.OrderUpdateDate,
		Items:           []model.OrderItem{},
	}
}

type orderItemRow struct {
	OrderID   uint64          `db:"order_id"`
	ProductID uint64          `db:"product_id"`
	Title     string          `db:"title"`
	Image     string          `db:"image"`
	Size      string          `db:"size"`
	Price     decimal.Decimal `db:"price"`
	Quantity  int             `db:"quantity"`
}

const orderCols = `id, user_id, cart_id, booking_id, address_id, address, city, pincode, phone, notes,
order_status, payment_method, payment_status, total_amount, order_date, order_update_date`

// Create inserts the order header and its line items, filling in o.ID.
// TotalAmount is stored as given; the service computes it.
func (r *OrderRepo) Create(ctx context.Context, o *model.Order) error {
	now := time.Now().UTC()
	if o.OrderDate.IsZero() {
		o.OrderDate = now
	}
	if o.OrderUpdateDate.IsZero() {
		o.OrderUpdateDate = o.OrderDate
	}
	q, args, err := qb.Insert("orders").SetMap(map[string]any{
		"user_id":           o.UserID,
		"cart_id":           nullUint(o.CartID),
		"booking_id":        nullString(o.BookingID),
		"address_id":        nullUint(o.AddressInfo.AddressID),
		"address":           o.AddressInfo.Address,
		"city":              o.AddressInfo.City,
		"pincode":           o.AddressInfo.Pincode,
		"phone":             o.AddressInfo.Phone,
		"notes":             o.AddressInfo.Notes,
		"order_status":      o.OrderStatus,
		"payment_method":    o.PaymentMethod,
		"payment_status":    o.PaymentStatus,
		"total_amount":      o.TotalAmount,
		"order_date":        o.OrderDate,
		"order_update_date": o.OrderUpdateDate,
	}).ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	if len(o.Items) == 0 {
		return nil
	}
	ib := qb.Insert("order_items").Columns("order_id", "product_id", "title", "image", "size", "price", "quantity")
	for _, it := range o.Items {
		ib = ib.Values(o.ID, it.ProductID, it.Title, it.Image, it.Size, it.Price, it.Quantity)
	}
	q, args, err = ib.ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	return err
}

// SetBookingRef links an order to the booking it was derived from.
func (r *OrderRepo) SetBookingRef(ctx context.Context, id uint64, bookingID string) error {
	return mustAffect(r.db.ExecContext(ctx, "UPDATE orders SET booking_id=? WHERE id=?", bookingID, id))
}

func (r *OrderRepo) Get(ctx context.Context, id uint64) (model.Order, error) {
	return r.get(ctx, "SELECT "+orderCols+" FROM orders WHERE id=?", id)
}

// GetForUpdate locks the order row so concurrent confirmations serialize.
func (r *OrderRepo) GetForUpdate(ctx context.Context, id uint64) (model.Order, error) {
	return r.get(ctx, "SELECT "+orderCols+" FROM orders WHERE id=? FOR UPDATE", id)
}

func (r *OrderRepo) get(ctx context.Context, q string, id uint64) (model.Order, error) {
	var row orderRow
	if err := sqlx.GetContext(ctx, r.db, &row, q, id); err != nil {
		return model.Order{}, notFound(err)
	}
	orders := []model.Order{row.model()}
	if err := r.attachItems(ctx, orders); err != nil {
		return model.Order{}, err
	}
	return orders[0], nil
}

// List returns orders matching f, newest first, with their line items.
func (r *OrderRepo) List(ctx context.Context, f model.OrderFilter) ([]model.Order, error) {
	b := qb.Select(orderCols).From("orders").OrderBy("order_date DESC", "id DESC")
	if f.UserID != 0 {
		b = b.Where(squirrel.Eq{"user_id": f.UserID})
	}
	if f.Status != "" {
		b = b.Where(squirrel.Eq{"order_status": f.Status})
	}
	q, args, err := paginate(b, f.Limit, f.Offset).ToSql()
	if err != nil {
		return nil, err
	}
	var rows []orderRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, q, args...); err != nil {
		return nil, err
	}
	out := make([]model.Order, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	if err := r.attachItems(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// attachItems loads the line items of every order in one query.
func (r *OrderRepo) attachItems(ctx context.Context, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]uint64, 0, len(orders))
	idx := make(map[uint64]int, len(orders))
	for i, o := range orders {
		ids = append(ids, o.ID)
		idx[o.ID] = i
	}
	q, args, err := qb.Select("order_id", "product_id", "title", "image", "size", "price", "quantity").
		From("order_items").
		Where(squirrel.Eq{"order_id": ids}).
		OrderBy("order_id", "id").
		ToSql()
	if err != nil {
		return err
	}
	var rows []orderItemRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, q, args...); err != nil {
		return err
	}
	for _, it := range rows {
		i := idx[it.OrderID]
		orders[i].Items = append(orders[i].Items, model.OrderItem{
			ProductID: it.ProductID,
			Title:     it.Title,
			Image:     it.Image,
			Size:      it.Size,
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}
	return nil
}

// UpdateStatus writes the order and payment status and stamps
// order_update_date.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id uint64, orderStatus, paymentStatus string, at time.Time) error {
	return mustAffect(r.db.ExecContext(ctx,
		"UPDATE orders SET order_status=?, payment_status=?, order_update_date=? WHERE id=?",
		orderStatus, paymentStatus, at, id))
}

func (r *OrderRepo) Delete(ctx context.Context, id uint64) error {
	return mustAffect(r.db.ExecContext(ctx, "DELETE FROM orders WHERE id=?", id))
}

// HasPurchased reports whether the user holds an order in one of statuses
// with a line for productID.
func (r *OrderRepo) HasPurchased(ctx context.Context, userID, productID uint64, statuses []string) (bool, error) {
	q, args, err := qb.Select("1").
		From("orders o").
		Join("order_items i ON i.order_id = o.id").
		Where(squirrel.Eq{"o.user_id": userID, "i.product_id": productID, "o.order_status": statuses}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, err
	}
	var one int
	if err := sqlx.GetContext(ctx, r.db, &one, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
