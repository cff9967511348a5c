package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dukaan-labs/backend-dukaan/internal/pricing"
)

const productColumns = `id, vendor_id, name, description, base_price, discounted_price,
	bulk_price, bulk_min_units, large_qty_price, large_qty_min_units, stock, active, created_at, updated_at`

// ProductRow is a catalog product as stored, including fields the pricing
// snapshot does not carry.
type ProductRow struct {
	pricing.Product
	Name        string
	Description string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewProductInput holds the fields a vendor supplies when creating or
// updating a product.
type NewProductInput struct {
	VendorID         string
	Name             string
	Description      string
	BasePrice        pricing.Money
	DiscountedPrice  *pricing.Money
	BulkPrice        *pricing.Money
	BulkMinUnits     *int
	LargeQtyPrice    *pricing.Money
	LargeQtyMinUnits *int
	Stock            int
}

// ProductsRepo reads and writes catalog products.
type ProductsRepo struct {
	DB DB
}

// List returns active products ordered by creation time, newest first.
func (r ProductsRepo) List(ctx context.Context, limit, offset int) ([]ProductRow, error) {
	rows, err := r.DB.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM products WHERE active ORDER BY created_at DESC LIMIT $1 OFFSET $2`, productColumns),
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

// ListByVendor returns all products owned by a vendor, including inactive ones.
func (r ProductsRepo) ListByVendor(ctx context.Context, vendorID string, limit, offset int) ([]ProductRow, error) {
	vid, err := uuidValue(vendorID)
	if err != nil {
		return nil, err
	}
	rows, err := r.DB.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM products WHERE vendor_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, productColumns),
		vid, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

// Get returns a single product by id.
func (r ProductsRepo) Get(ctx context.Context, id string) (ProductRow, error) {
	pid, err := uuidValue(id)
	if err != nil {
		return ProductRow{}, err
	}
	row := r.DB.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns), pid)
	p, err := scanProduct(row)
	if err != nil {
		return ProductRow{}, mapNoRows(err)
	}
	return p, nil
}

// GetMany returns the products for the given ids keyed by id. Missing ids
// are simply absent from the result.
func (r ProductsRepo) GetMany(ctx context.Context, ids []string) (map[string]ProductRow, error) {
	if len(ids) == 0 {
		return map[string]ProductRow{}, nil
	}
	params := make([]pgtype.UUID, 0, len(ids))
	for _, id := range ids {
		v, err := uuidValue(id)
		if err != nil {
			return nil, err
		}
		params = append(params, v)
	}
	rows, err := r.DB.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM products WHERE id = ANY($1)`, productColumns), params)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list, err := scanProducts(rows)
	if err != nil {
		return nil, err
	}
	out := make(map[string]ProductRow, len(list))
	for _, p := range list {
		out[p.ID] = p
	}
	return out, nil
}

// Create inserts a new product and returns its id.
func (r ProductsRepo) Create(ctx context.Context, in NewProductInput) (string, error) {
	vid, err := uuidValue(in.VendorID)
	if err != nil {
		return "", err
	}
	var id pgtype.UUID
	err = r.DB.QueryRow(ctx,
		`INSERT INTO products (vendor_id, name, description, base_price, discounted_price,
			bulk_price, bulk_min_units, large_qty_price, large_qty_min_units, stock)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		vid, in.Name, in.Description, in.BasePrice, in.DiscountedPrice,
		in.BulkPrice, in.BulkMinUnits, in.LargeQtyPrice, in.LargeQtyMinUnits, in.Stock,
	).Scan(&id)
	if err != nil {
		return "", err
	}
	return uuidString(id), nil
}

// Update rewrites a product's mutable fields. Only the owning vendor may update.
func (r ProductsRepo) Update(ctx context.Context, id string, in NewProductInput) error {
	pid, err := uuidValue(id)
	if err != nil {
		return err
	}
	vid, err := uuidValue(in.VendorID)
	if err != nil {
		return err
	}
	tag, err := r.DB.Exec(ctx,
		`UPDATE products SET name = $3, description = $4, base_price = $5, discounted_price = $6,
			bulk_price = $7, bulk_min_units = $8, large_qty_price = $9, large_qty_min_units = $10,
			stock = $11, updated_at = now()
		WHERE id = $1 AND vendor_id = $2`,
		pid, vid, in.Name, in.Description, in.BasePrice, in.DiscountedPrice,
		in.BulkPrice, in.BulkMinUnits, in.LargeQtyPrice, in.LargeQtyMinUnits, in.Stock)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DecrementStock reduces stock for a product, failing when not enough is left.
func (r ProductsRepo) DecrementStock(ctx context.Context, id string, qty int) error {
	pid, err := uuidValue(id)
	if err != nil {
		return err
	}
	tag, err := r.DB.Exec(ctx,
		`UPDATE products SET stock = stock - $2, updated_at = now() WHERE id = $1 AND stock >= $2`,
		pid, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientStock
	}
	return nil
}

func scanProducts(rows pgx.Rows) ([]ProductRow, error) {
	var out []ProductRow
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanProduct(row pgx.Row) (ProductRow, error) {
	var (
		p          ProductRow
		id, vendor pgtype.UUID
	)
	err := row.Scan(&id, &vendor, &p.Name, &p.Description, &p.BasePrice, &p.DiscountedPrice,
		&p.BulkPrice, &p.BulkMinUnits, &p.LargeQtyPrice, &p.LargeQtyMinUnits,
		&p.Stock, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return ProductRow{}, err
	}
	p.ID = uuidString(id)
	p.VendorID = uuidString(vendor)
	return p, nil
}
