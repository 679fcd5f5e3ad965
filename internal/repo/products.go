package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Product is the catalog read model. Meta is an opaque attribute bag; the
// pricing layer knows which keys it cares about.
type Product struct {
	ID    pgtype.UUID
	Slug  string
	Title string
	Price float64
	Meta  map[string]json.RawMessage
}

// ProductRepo reads products with hand-written pgx queries.
type ProductRepo struct {
	DB DBTX
}

const productColumns = `id, slug, title, price, meta`

func scanProduct(row pgx.Row) (Product, error) {
	var (
		p   Product
		raw []byte
	)
	if err := row.Scan(&p.ID, &p.Slug, &p.Title, &p.Price, &raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p.Meta); err != nil {
			// A broken attribute bag must not hide the product itself.
			p.Meta = nil
		}
	}
	return p, nil
}

// GetBySlug returns a single published product by its slug.
func (r ProductRepo) GetBySlug(ctx context.Context, slug string) (Product, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE slug = $1 AND published`, slug)
	return scanProduct(row)
}

// GetByID returns a single product by id regardless of publication state;
// checkout needs to re-price lines even when a product was unpublished after
// it entered a cart.
func (r ProductRepo) GetByID(ctx context.Context, id pgtype.UUID) (Product, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

// List returns a page of published products ordered by title.
func (r ProductRepo) List(ctx context.Context, limit, offset int32) ([]Product, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE published ORDER BY title LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// Count returns the number of published products.
func (r ProductRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB.QueryRow(ctx, `SELECT count(*) FROM products WHERE published`).Scan(&count)
	return count, err
}
