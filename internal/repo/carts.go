package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// CartItem is a cart line joined with the product fields needed for pricing.
type CartItem struct {
	ID        string
	ProductID string
	Qty       int
	Product   ProductRow
	CreatedAt time.Time
}

// Cart is a customer's cart header.
type Cart struct {
	ID         string
	CustomerID string
	UpdatedAt  time.Time
}

// CartsRepo reads and writes carts and their items.
type CartsRepo struct {
	DB DB
}

// GetOrCreate returns the customer's cart, creating one when absent.
func (r CartsRepo) GetOrCreate(ctx context.Context, customerID string) (Cart, error) {
	cid, err := uuidValue(customerID)
	if err != nil {
		return Cart{}, err
	}
	var (
		id, owner pgtype.UUID
		c         Cart
	)
	err = r.DB.QueryRow(ctx,
		`INSERT INTO carts (customer_id) VALUES ($1)
		ON CONFLICT (customer_id) DO UPDATE SET updated_at = now()
		RETURNING id, customer_id, updated_at`,
		cid).Scan(&id, &owner, &c.UpdatedAt)
	if err != nil {
		return Cart{}, err
	}
	c.ID = uuidString(id)
	c.CustomerID = uuidString(owner)
	return c, nil
}

// Items lists the cart's lines in insertion order with product snapshots.
func (r CartsRepo) Items(ctx context.Context, cartID string) ([]CartItem, error) {
	cid, err := uuidValue(cartID)
	if err != nil {
		return nil, err
	}
	rows, err := r.DB.Query(ctx,
		`SELECT ci.id, ci.qty, ci.created_at,
			p.id, p.vendor_id, p.name, p.description, p.base_price, p.discounted_price,
			p.bulk_price, p.bulk_min_units, p.large_qty_price, p.large_qty_min_units,
			p.stock, p.active, p.created_at, p.updated_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.created_at, ci.id`,
		cid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CartItem
	for rows.Next() {
		var (
			item       CartItem
			itemID     pgtype.UUID
			pid, vid   pgtype.UUID
			p          ProductRow
		)
		err := rows.Scan(&itemID, &item.Qty, &item.CreatedAt,
			&pid, &vid, &p.Name, &p.Description, &p.BasePrice, &p.DiscountedPrice,
			&p.BulkPrice, &p.BulkMinUnits, &p.LargeQtyPrice, &p.LargeQtyMinUnits,
			&p.Stock, &p.Active, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, err
		}
		p.ID = uuidString(pid)
		p.VendorID = uuidString(vid)
		item.ID = uuidString(itemID)
		item.ProductID = p.ID
		item.Product = p
		out = append(out, item)
	}
	return out, rows.Err()
}

// UpsertItem adds a product to the cart, adding quantities when the line
// already exists.
func (r CartsRepo) UpsertItem(ctx context.Context, cartID, productID string, qty int) error {
	cid, err := uuidValue(cartID)
	if err != nil {
		return err
	}
	pid, err := uuidValue(productID)
	if err != nil {
		return err
	}
	_, err = r.DB.Exec(ctx,
		`INSERT INTO cart_items (cart_id, product_id, qty) VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, product_id) DO UPDATE SET qty = cart_items.qty + EXCLUDED.qty`,
		cid, pid, qty)
	return err
}

// SetItemQty overwrites the quantity for an existing cart line.
func (r CartsRepo) SetItemQty(ctx context.Context, cartID, productID string, qty int) error {
	cid, err := uuidValue(cartID)
	if err != nil {
		return err
	}
	pid, err := uuidValue(productID)
	if err != nil {
		return err
	}
	tag, err := r.DB.Exec(ctx,
		`UPDATE cart_items SET qty = $3 WHERE cart_id = $1 AND product_id = $2`,
		cid, pid, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveItem deletes a cart line.
func (r CartsRepo) RemoveItem(ctx context.Context, cartID, productID string) error {
	cid, err := uuidValue(cartID)
	if err != nil {
		return err
	}
	pid, err := uuidValue(productID)
	if err != nil {
		return err
	}
	tag, err := r.DB.Exec(ctx,
		`DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`, cid, pid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Clear removes every line from the cart.
func (r CartsRepo) Clear(ctx context.Context, cartID string) error {
	cid, err := uuidValue(cartID)
	if err != nil {
		return err
	}
	_, err = r.DB.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cid)
	return err
}
