// Package repo contains the pgx-backed persistence layer.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientStock indicates a stock decrement would go negative.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// DB is the subset of pgxpool.Pool the repositories need. pgx.Tx also
// satisfies it, so repository methods can run inside transactions.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxBeginner is satisfied by pgxpool.Pool and used where repositories
// need to open their own transactions.
type TxBeginner interface {
	DB
	Begin(ctx context.Context) (pgx.Tx, error)
}

func uuidValue(id string) (pgtype.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return pgtype.UUID{}, fmt.Errorf("invalid id %q: %w", id, err)
	}
	var v pgtype.UUID
	v.Bytes = parsed
	v.Valid = true
	return v, nil
}

func uuidString(v pgtype.UUID) string {
	if !v.Valid {
		return ""
	}
	return uuid.UUID(v.Bytes).String()
}

func mapNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
