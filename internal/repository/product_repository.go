package repository

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/mrperfect/storefront/internal/model"
)

type ProductRepo struct{ db sqlx.ExtContext }

func NewProductRepo(db sqlx.ExtContext) *ProductRepo { return &ProductRepo{db: db} }

type productRow struct {
	ID          uint64              `db:"id"`
	Title       string              `db:"title"`
	Description string              `db:"description"`
	Image       string              `db:"image"`
	Category    string              `db:"category"`
	Brand       string              `db:"brand"`
	Price       decimal.Decimal     `db:"price"`
	SalePrice   decimal.NullDecimal `db:"sale_price"`
	Sizes       string              `db:"sizes"`
	TotalStock  int                 `db:"total_stock"`
	CreatedAt   time.Time           `db:"created_at"`
}

func (r productRow) model() model.Product {
	return model.Product{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Image:       r.Image,
		Category:    r.Category,
		Brand:       r.Brand,
		Price:       r.Price,
		SalePrice:   r.SalePrice,
		Sizes:       model.SplitSizes(r.Sizes),
		TotalStock:  r.TotalStock,
		CreatedAt:   r.CreatedAt,
	}
}

const productCols = "id, title, description, image, category, brand, price, sale_price, sizes, total_stock, created_at"

// ProductFilter narrows the public catalog listing.
type ProductFilter struct {
	Category string
	Brand    string
	Limit    uint64
	Offset   uint64
}

func (r *ProductRepo) Create(ctx context.Context, p *model.Product) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO products (title, description, image, category, brand, price, sale_price, sizes, total_stock)
VALUES (?,?,?,?,?,?,?,?,?)`,
		p.Title, p.Description, p.Image, p.Category, p.Brand, p.Price, p.SalePrice, model.JoinSizes(p.Sizes), p.TotalStock)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// Update overwrites every editable column of p.
func (r *ProductRepo) Update(ctx context.Context, p *model.Product) error {
	return mustAffect(r.db.ExecContext(ctx,
		`UPDATE products SET title=?, description=?, image=?, category=?, brand=?, price=?, sale_price=?, sizes=?, total_stock=?
WHERE id=?`,
		p.Title, p.Description, p.Image, p.Category, p.Brand, p.Price, p.SalePrice, model.JoinSizes(p.Sizes), p.TotalStock, p.ID))
}

func (r *ProductRepo) Delete(ctx context.Context, id uint64) error {
	return mustAffect(r.db.ExecContext(ctx, "DELETE FROM products WHERE id=?", id))
}

func (r *ProductRepo) GetByID(ctx context.Context, id uint64) (model.Product, error) {
	var row productRow
	err := sqlx.GetContext(ctx, r.db, &row, "SELECT "+productCols+" FROM products WHERE id=?", id)
	return row.model(), notFound(err)
}

func (r *ProductRepo) List(ctx context.Context, f ProductFilter) ([]model.Product, error) {
	b := qb.Select(productCols).From("products").OrderBy("created_at DESC", "id DESC")
	if f.Category != "" {
		b = b.Where(squirrel.Eq{"category": f.Category})
	}
	if f.Brand != "" {
		b = b.Where(squirrel.Eq{"brand": f.Brand})
	}
	q, args, err := paginate(b, f.Limit, f.Offset).ToSql()
	if err != nil {
		return nil, err
	}
	var rows []productRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, q, args...); err != nil {
		return nil, err
	}
	out := make([]model.Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out, nil
}

// DecrementStock subtracts qty from the product's stock in one statement.
// A missing product yields ErrNotFound.  Stock may go negative; the
// storefront does not reserve inventory.
func (r *ProductRepo) DecrementStock(ctx context.Context, id uint64, qty int) error {
	return mustAffect(r.db.ExecContext(ctx,
		"UPDATE products SET total_stock = total_stock - ? WHERE id = ?", qty, id))
}
