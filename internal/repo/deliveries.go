package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Known delivery statuses.
const (
	DeliveryPending   = "pending_assignment"
	DeliveryAssigned  = "assigned"
	DeliveryPickedUp  = "picked_up"
	DeliveryDelivered = "delivered"
)

// Delivery tracks the fulfilment of a single order.
type Delivery struct {
	ID          string
	OrderID     string
	CourierID   string
	Status      string
	AssignedAt  *time.Time
	DeliveredAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DeliveriesRepo reads and writes delivery assignments.
type DeliveriesRepo struct {
	DB DB
}

const deliveryColumns = `id, order_id, courier_id, status, assigned_at, delivered_at, created_at, updated_at`

// ListUnassigned returns deliveries waiting for a courier, oldest first.
func (r DeliveriesRepo) ListUnassigned(ctx context.Context, limit, offset int) ([]Delivery, error) {
	return r.list(ctx,
		`SELECT `+deliveryColumns+` FROM deliveries WHERE status = $1 ORDER BY created_at LIMIT $2 OFFSET $3`,
		DeliveryPending, limit, offset)
}

// ListByCourier returns the courier's deliveries, newest first.
func (r DeliveriesRepo) ListByCourier(ctx context.Context, courierID string, limit, offset int) ([]Delivery, error) {
	cid, err := uuidValue(courierID)
	if err != nil {
		return nil, err
	}
	return r.list(ctx,
		`SELECT `+deliveryColumns+` FROM deliveries WHERE courier_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		cid, limit, offset)
}

// Get returns a delivery by id.
func (r DeliveriesRepo) Get(ctx context.Context, id string) (Delivery, error) {
	did, err := uuidValue(id)
	if err != nil {
		return Delivery{}, err
	}
	row := r.DB.QueryRow(ctx, `SELECT `+deliveryColumns+` FROM deliveries WHERE id = $1`, did)
	d, err := scanDelivery(row)
	if err != nil {
		return Delivery{}, mapNoRows(err)
	}
	return d, nil
}

// Claim assigns a pending delivery to a courier. It fails with ErrNotFound
// when the delivery is missing or already claimed.
func (r DeliveriesRepo) Claim(ctx context.Context, id, courierID string) error {
	did, err := uuidValue(id)
	if err != nil {
		return err
	}
	cid, err := uuidValue(courierID)
	if err != nil {
		return err
	}
	tag, err := r.DB.Exec(ctx,
		`UPDATE deliveries SET courier_id = $2, status = $3, assigned_at = now(), updated_at = now()
		WHERE id = $1 AND status = $4`,
		did, cid, DeliveryAssigned, DeliveryPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatus advances a courier's own delivery to the given status,
// stamping delivered_at on completion.
func (r DeliveriesRepo) UpdateStatus(ctx context.Context, id, courierID, status string) error {
	did, err := uuidValue(id)
	if err != nil {
		return err
	}
	cid, err := uuidValue(courierID)
	if err != nil {
		return err
	}
	tag, err := r.DB.Exec(ctx,
		`UPDATE deliveries SET status = $3,
			delivered_at = CASE WHEN $3 = $4 THEN now() ELSE delivered_at END,
			updated_at = now()
		WHERE id = $1 AND courier_id = $2`,
		did, cid, status, DeliveryDelivered)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r DeliveriesRepo) list(ctx context.Context, sql string, args ...any) ([]Delivery, error) {
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Delivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanDelivery(row interface{ Scan(dest ...any) error }) (Delivery, error) {
	var (
		d            Delivery
		id, oid, cid pgtype.UUID
	)
	err := row.Scan(&id, &oid, &cid, &d.Status, &d.AssignedAt, &d.DeliveredAt, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return Delivery{}, err
	}
	d.ID = uuidString(id)
	d.OrderID = uuidString(oid)
	d.CourierID = uuidString(cid)
	return d, nil
}
