package main

import (
	"context"
	"log"
	"os"

	"github.com/alexedwards/argon2id"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

// Development seeder. Creates demo accounts for every role plus a small
// catalog with volume pricing so checkout flows can be exercised locally.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("ping database: %v", err)
	}

	vendors := seedUsers(ctx, pool)
	seedProducts(ctx, pool, vendors)

	log.Println("seeding completed")
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool) map[string]string {
	users := []struct {
		Name  string
		Email string
		Role  string
	}{
		{"Asha Patel", "asha@example.com", "customer"},
		{"Rohan Mehta", "rohan@example.com", "customer"},
		{"Priya Nair", "priya@example.com", "customer"},
		{"Kirana General Store", "kirana@example.com", "vendor"},
		{"Fresh Farm Produce", "freshfarm@example.com", "vendor"},
		{"City Stationers", "stationers@example.com", "vendor"},
		{"Vikram Singh", "vikram@example.com", "courier"},
		{"Lakshmi Rao", "lakshmi@example.com", "courier"},
	}

	hash, err := argon2id.CreateHash("password123", argon2id.DefaultParams)
	if err != nil {
		log.Fatalf("hash seed password: %v", err)
	}

	vendors := map[string]string{}
	log.Println("seeding users...")
	for _, u := range users {
		var id string
		err := pool.QueryRow(ctx, `
			INSERT INTO users (email, password_hash, name, role)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
			RETURNING id
		`, u.Email, hash, u.Name, u.Role).Scan(&id)
		if err != nil {
			log.Fatalf("seed user %s: %v", u.Email, err)
		}
		if u.Role == "vendor" {
			vendors[u.Email] = id
		}
	}
	return vendors
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, vendors map[string]string) {
	type tier struct {
		Price    *int64
		MinUnits *int
	}
	products := []struct {
		Vendor     string
		Name       string
		BasePrice  int64
		Discounted *int64
		Bulk       tier
		Large      tier
		Stock      int
	}{
		{
			Vendor:     "kirana@example.com",
			Name:       "Toor Dal 1kg",
			BasePrice:  18000,
			Discounted: int64Ptr(16500),
			Bulk:       tier{Price: int64Ptr(15500), MinUnits: intPtr(5)},
			Large:      tier{Price: int64Ptr(14000), MinUnits: intPtr(20)},
			Stock:      500,
		},
		{
			Vendor:    "kirana@example.com",
			Name:      "Basmati Rice 5kg",
			BasePrice: 62000,
			Bulk:      tier{Price: int64Ptr(58000), MinUnits: intPtr(4)},
			Stock:     200,
		},
		{
			Vendor:     "freshfarm@example.com",
			Name:       "Alphonso Mango Box",
			BasePrice:  95000,
			Discounted: int64Ptr(89000),
			Stock:      60,
		},
		{
			Vendor:    "freshfarm@example.com",
			Name:      "Organic Tomatoes 1kg",
			BasePrice: 6500,
			Large:     tier{Price: int64Ptr(5200), MinUnits: intPtr(25)},
			Stock:     300,
		},
		{
			Vendor:     "stationers@example.com",
			Name:       "Ballpoint Pens (pack of 10)",
			BasePrice:  12000,
			Discounted: int64Ptr(11000),
			Bulk:       tier{Price: int64Ptr(9500), MinUnits: intPtr(10)},
			Large:      tier{Price: int64Ptr(8000), MinUnits: intPtr(50)},
			Stock:      1000,
		},
	}

	log.Println("seeding products...")
	for _, p := range products {
		vendorID, ok := vendors[p.Vendor]
		if !ok {
			log.Fatalf("seed product %q: vendor %s missing", p.Name, p.Vendor)
		}
		_, err := pool.Exec(ctx, `
			INSERT INTO products (
				vendor_id, name, base_price, discounted_price,
				bulk_price, bulk_min_units, large_qty_price, large_qty_min_units,
				stock, active
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, true)
			ON CONFLICT DO NOTHING
		`, vendorID, p.Name, p.BasePrice, p.Discounted,
			p.Bulk.Price, p.Bulk.MinUnits, p.Large.Price, p.Large.MinUnits, p.Stock)
		if err != nil {
			log.Fatalf("seed product %q: %v", p.Name, err)
		}
	}
}

func int64Ptr(v int64) *int64 { return &v }
func intPtr(v int) *int       { return &v }
