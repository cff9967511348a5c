package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// WebhookEndpoint is a registered outbound webhook target. VendorID is
// empty for platform-wide endpoints; vendor-owned endpoints only
// receive events about that vendor's orders.
type WebhookEndpoint struct {
	ID        string
	VendorID  string
	URL       string
	Secret    string
	Topics    []string
	Active    bool
	CreatedAt time.Time
}

// WebhooksRepo reads and writes webhook endpoint registrations.
type WebhooksRepo struct {
	DB DB
}

const webhookColumns = `id, vendor_id, url, secret, topics, active, created_at`

// Create registers a new endpoint and returns its id. vendorID may be
// empty for a platform-wide endpoint.
func (r WebhooksRepo) Create(ctx context.Context, vendorID, url, secret string, topics []string) (string, error) {
	var vid pgtype.UUID
	if vendorID != "" {
		parsed, err := uuidValue(vendorID)
		if err != nil {
			return "", err
		}
		vid = parsed
	}
	var id pgtype.UUID
	err := r.DB.QueryRow(ctx,
		`INSERT INTO webhook_endpoints (vendor_id, url, secret, topics) VALUES ($1, $2, $3, $4) RETURNING id`,
		vid, url, secret, topics).Scan(&id)
	if err != nil {
		return "", err
	}
	return uuidString(id), nil
}

// ListActiveForTopic returns endpoints subscribed to the topic.
func (r WebhooksRepo) ListActiveForTopic(ctx context.Context, topic string) ([]WebhookEndpoint, error) {
	return r.list(ctx,
		`SELECT `+webhookColumns+` FROM webhook_endpoints WHERE active AND $1 = ANY(topics)`,
		topic)
}

// ListByVendor returns all of a vendor's endpoints, active or not.
func (r WebhooksRepo) ListByVendor(ctx context.Context, vendorID string) ([]WebhookEndpoint, error) {
	vid, err := uuidValue(vendorID)
	if err != nil {
		return nil, err
	}
	return r.list(ctx,
		`SELECT `+webhookColumns+` FROM webhook_endpoints WHERE vendor_id = $1 ORDER BY created_at`,
		vid)
}

// Get returns an endpoint by id.
func (r WebhooksRepo) Get(ctx context.Context, id string) (WebhookEndpoint, error) {
	eid, err := uuidValue(id)
	if err != nil {
		return WebhookEndpoint{}, err
	}
	row := r.DB.QueryRow(ctx, `SELECT `+webhookColumns+` FROM webhook_endpoints WHERE id = $1`, eid)
	e, err := scanWebhookEndpoint(row)
	if err != nil {
		return WebhookEndpoint{}, mapNoRows(err)
	}
	return e, nil
}

// Deactivate disables a vendor's endpoint without deleting its history.
func (r WebhooksRepo) Deactivate(ctx context.Context, id, vendorID string) error {
	eid, err := uuidValue(id)
	if err != nil {
		return err
	}
	vid, err := uuidValue(vendorID)
	if err != nil {
		return err
	}
	tag, err := r.DB.Exec(ctx,
		`UPDATE webhook_endpoints SET active = false WHERE id = $1 AND vendor_id = $2`, eid, vid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r WebhooksRepo) list(ctx context.Context, sql string, args ...any) ([]WebhookEndpoint, error) {
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []WebhookEndpoint
	for rows.Next() {
		e, err := scanWebhookEndpoint(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanWebhookEndpoint(row interface{ Scan(dest ...any) error }) (WebhookEndpoint, error) {
	var (
		e       WebhookEndpoint
		id, vid pgtype.UUID
	)
	err := row.Scan(&id, &vid, &e.URL, &e.Secret, &e.Topics, &e.Active, &e.CreatedAt)
	if err != nil {
		return WebhookEndpoint{}, err
	}
	e.ID = uuidString(id)
	e.VendorID = uuidString(vid)
	return e, nil
}
