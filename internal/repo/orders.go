package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dukaan-labs/backend-dukaan/internal/pricing"
)

// Known order statuses. The set is open; unrecognised values are stored as-is.
const (
	OrderPlaced    = "placed"
	OrderAccepted  = "accepted"
	OrderShipped   = "shipped"
	OrderDelivered = "delivered"
	OrderCancelled = "cancelled"
	OrderRejected  = "rejected"
)

// Order is a persisted per-vendor order with its cost breakdown.
type Order struct {
	ID         string
	CheckoutID string
	CustomerID string
	VendorID   string
	Status     string
	Currency   string
	Breakdown  pricing.Breakdown
	Items      []OrderItem
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// OrderItem is a priced order line frozen at placement time.
type OrderItem struct {
	ID            string
	ProductID     string
	Name          string
	Qty           int
	ListUnitPrice pricing.Money
	UnitPrice     pricing.Money
	LineTotal     pricing.Money
}

// NewOrderItem is an order line to persist.
type NewOrderItem struct {
	ProductID     string
	Name          string
	Qty           int
	ListUnitPrice pricing.Money
	UnitPrice     pricing.Money
	LineTotal     pricing.Money
}

// NewOrderParams captures everything needed to persist one vendor order.
type NewOrderParams struct {
	CheckoutID string
	CustomerID string
	VendorID   string
	Currency   string
	Breakdown  pricing.Breakdown
	Items      []NewOrderItem
}

// OrdersRepo reads and writes orders and their lines.
type OrdersRepo struct {
	DB DB
}

// Create persists an order, its items, and a pending delivery record.
// Callers run it inside a transaction together with stock decrements.
func (r OrdersRepo) Create(ctx context.Context, p NewOrderParams) (string, error) {
	checkoutID, err := uuidValue(p.CheckoutID)
	if err != nil {
		return "", err
	}
	customerID, err := uuidValue(p.CustomerID)
	if err != nil {
		return "", err
	}
	vendorID, err := uuidValue(p.VendorID)
	if err != nil {
		return "", err
	}
	var orderID pgtype.UUID
	b := p.Breakdown
	err = r.DB.QueryRow(ctx,
		`INSERT INTO orders (checkout_id, customer_id, vendor_id, currency,
			list_subtotal, subtotal, savings, delivery_charge, platform_fee, gst, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		checkoutID, customerID, vendorID, p.Currency,
		b.ListSubtotal, b.Subtotal, b.Savings, b.DeliveryCharge, b.PlatformFee, b.GST, b.Total,
	).Scan(&orderID)
	if err != nil {
		return "", err
	}
	for _, item := range p.Items {
		pid, err := uuidValue(item.ProductID)
		if err != nil {
			return "", err
		}
		_, err = r.DB.Exec(ctx,
			`INSERT INTO order_items (order_id, product_id, name, qty, list_unit_price, unit_price, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			orderID, pid, item.Name, item.Qty, item.ListUnitPrice, item.UnitPrice, item.LineTotal)
		if err != nil {
			return "", err
		}
	}
	_, err = r.DB.Exec(ctx, `INSERT INTO deliveries (order_id) VALUES ($1)`, orderID)
	if err != nil {
		return "", err
	}
	return uuidString(orderID), nil
}

const orderColumns = `id, checkout_id, customer_id, vendor_id, status, currency,
	list_subtotal, subtotal, savings, delivery_charge, platform_fee, gst, total, created_at, updated_at`

// Get returns an order with its items.
func (r OrdersRepo) Get(ctx context.Context, id string) (Order, error) {
	oid, err := uuidValue(id)
	if err != nil {
		return Order{}, err
	}
	row := r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, oid)
	o, err := scanOrder(row)
	if err != nil {
		return Order{}, mapNoRows(err)
	}
	items, err := r.items(ctx, oid)
	if err != nil {
		return Order{}, err
	}
	o.Items = items
	return o, nil
}

// ListByCustomer returns a customer's orders, newest first.
func (r OrdersRepo) ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]Order, error) {
	cid, err := uuidValue(customerID)
	if err != nil {
		return nil, err
	}
	return r.list(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE customer_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		cid, limit, offset)
}

// ListByVendor returns a vendor's orders, newest first.
func (r OrdersRepo) ListByVendor(ctx context.Context, vendorID string, limit, offset int) ([]Order, error) {
	vid, err := uuidValue(vendorID)
	if err != nil {
		return nil, err
	}
	return r.list(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE vendor_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		vid, limit, offset)
}

func (r OrdersRepo) list(ctx context.Context, sql string, args ...any) ([]Order, error) {
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// UpdateStatus moves an order to a new status scoped to the owning vendor.
func (r OrdersRepo) UpdateStatus(ctx context.Context, id, vendorID, status string) error {
	oid, err := uuidValue(id)
	if err != nil {
		return err
	}
	vid, err := uuidValue(vendorID)
	if err != nil {
		return err
	}
	tag, err := r.DB.Exec(ctx,
		`UPDATE orders SET status = $3, updated_at = now() WHERE id = $1 AND vendor_id = $2`,
		oid, vid, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CancelByCustomer cancels an order while it is still only placed.
func (r OrdersRepo) CancelByCustomer(ctx context.Context, id, customerID string) error {
	oid, err := uuidValue(id)
	if err != nil {
		return err
	}
	cid, err := uuidValue(customerID)
	if err != nil {
		return err
	}
	tag, err := r.DB.Exec(ctx,
		`UPDATE orders SET status = $3, updated_at = now()
		WHERE id = $1 AND customer_id = $2 AND status = $4`,
		oid, cid, OrderCancelled, OrderPlaced)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PayoutLines returns the priced lines of a vendor's delivered orders in the
// given window, ready for payout aggregation.
func (r OrdersRepo) PayoutLines(ctx context.Context, vendorID string, from, to time.Time) ([]pricing.Line, error) {
	vid, err := uuidValue(vendorID)
	if err != nil {
		return nil, err
	}
	rows, err := r.DB.Query(ctx,
		`SELECT oi.product_id, o.vendor_id, oi.qty, oi.list_unit_price, oi.unit_price, oi.line_total
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.vendor_id = $1 AND o.status = $2 AND o.updated_at >= $3 AND o.updated_at < $4
		ORDER BY o.created_at, oi.id`,
		vid, OrderDelivered, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []pricing.Line
	for rows.Next() {
		var (
			line     pricing.Line
			pid, vnd pgtype.UUID
		)
		if err := rows.Scan(&pid, &vnd, &line.Qty, &line.ListUnitPrice, &line.UnitPrice, &line.LineTotal); err != nil {
			return nil, err
		}
		line.ProductID = uuidString(pid)
		line.VendorID = uuidString(vnd)
		out = append(out, line)
	}
	return out, rows.Err()
}

func (r OrdersRepo) items(ctx context.Context, orderID pgtype.UUID) ([]OrderItem, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, product_id, name, qty, list_unit_price, unit_price, line_total
		FROM order_items WHERE order_id = $1 ORDER BY id`,
		orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []OrderItem
	for rows.Next() {
		var (
			item    OrderItem
			id, pid pgtype.UUID
		)
		if err := rows.Scan(&id, &pid, &item.Name, &item.Qty, &item.ListUnitPrice, &item.UnitPrice, &item.LineTotal); err != nil {
			return nil, err
		}
		item.ID = uuidString(id)
		item.ProductID = uuidString(pid)
		out = append(out, item)
	}
	return out, rows.Err()
}

func scanOrder(row interface{ Scan(dest ...any) error }) (Order, error) {
	var (
		o                       Order
		id, checkout, cust, vnd pgtype.UUID
	)
	b := &o.Breakdown
	err := row.Scan(&id, &checkout, &cust, &vnd, &o.Status, &o.Currency,
		&b.ListSubtotal, &b.Subtotal, &b.Savings, &b.DeliveryCharge, &b.PlatformFee, &b.GST, &b.Total,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return Order{}, err
	}
	o.ID = uuidString(id)
	o.CheckoutID = uuidString(checkout)
	o.CustomerID = uuidString(cust)
	o.VendorID = uuidString(vnd)
	return o, nil
}
