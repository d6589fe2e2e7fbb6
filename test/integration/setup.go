package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"mini-shop/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container and connection pool.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	// Create PostgreSQL container
	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	// Get connection string
	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	// Create connection pool
	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		t.Fatalf("failed to parse connection string: %v", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	// Create schema
	createSchema(t, pool)

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// createSchema creates the database schema for testing.
func createSchema(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	schema := `
		CREATE TABLE IF NOT EXISTS skus (
			id TEXT PRIMARY KEY,
			product_id TEXT NOT NULL,
			title TEXT NOT NULL,
			price_cents BIGINT NOT NULL CHECK (price_cents >= 0),
			stock INTEGER NOT NULL CHECK (stock >= 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS addresses (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			full_address TEXT NOT NULL,
			zip TEXT NOT NULL,
			contact_name TEXT NOT NULL,
			contact_phone TEXT NOT NULL,
			last_used_at TIMESTAMPTZ
		);

		CREATE TABLE IF NOT EXISTS coupon_codes (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			code TEXT NOT NULL UNIQUE,
			type TEXT NOT NULL,
			value BIGINT NOT NULL,
			total INTEGER NOT NULL,
			used INTEGER NOT NULL DEFAULT 0,
			min_amount_cents BIGINT NOT NULL DEFAULT 0,
			not_before TIMESTAMPTZ,
			not_after TIMESTAMPTZ,
			enabled BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CHECK (used >= 0 AND used <= total)
		);

		CREATE TABLE IF NOT EXISTS orders (
			id UUID PRIMARY KEY,
			user_id TEXT NOT NULL,
			address JSONB NOT NULL,
			remark TEXT NOT NULL DEFAULT '',
			total_cents BIGINT NOT NULL DEFAULT 0,
			paid_at TIMESTAMPTZ,
			ship_status TEXT NOT NULL DEFAULT 'pending',
			refund_status TEXT NOT NULL DEFAULT 'pending',
			refund_reason TEXT,
			closed BOOLEAN NOT NULL DEFAULT FALSE,
			reviewed BOOLEAN NOT NULL DEFAULT FALSE,
			coupon_id UUID REFERENCES coupon_codes(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS order_items (
			id UUID PRIMARY KEY,
			order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			sku_id TEXT NOT NULL REFERENCES skus(id),
			product_id TEXT NOT NULL,
			title TEXT NOT NULL,
			price_cents BIGINT NOT NULL,
			quantity INTEGER NOT NULL CHECK (quantity > 0),
			rating INTEGER,
			review TEXT,
			reviewed_at TIMESTAMPTZ
		);

		CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id);
		CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders(user_id);
	`

	_, err := pool.Exec(ctx, schema)
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
}

// SeedSkus inserts test SKU data into the database.
func SeedSkus(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	skus := []struct {
		id         string
		productID  string
		title      string
		priceCents int64
		stock      int
	}{
		{"S001", "P001", "Test SKU 1", 1000, 100},
		{"S002", "P002", "Test SKU 2", 2500, 50},
		{"S003", "P003", "Test SKU 3", 9999, 10},
		{"S004", "P004", "Test SKU 4", 50, 5},
		{"S005", "P005", "Scarce SKU", 19900, 3},
	}

	for _, s := range skus {
		_, err := pool.Exec(ctx,
			"INSERT INTO skus (id, product_id, title, price_cents, stock) VALUES ($1, $2, $3, $4, $5)",
			s.id, s.productID, s.title, s.priceCents, s.stock,
		)
		if err != nil {
			t.Fatalf("failed to seed sku %s: %v", s.id, err)
		}
	}
}

// SeedAddress inserts a shipping address for the given user.
func SeedAddress(t *testing.T, pool *pgxpool.Pool, id, userID string) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		`INSERT INTO addresses (id, user_id, full_address, zip, contact_name, contact_phone)
		 VALUES ($1, $2, '42 Integration Way', '54321', 'Iris Tester', '555-0142')`,
		id, userID,
	)
	if err != nil {
		t.Fatalf("failed to seed address %s: %v", id, err)
	}
}

// SeedCoupon inserts a coupon and returns its ID.
func SeedCoupon(t *testing.T, pool *pgxpool.Pool, code string, couponType model.CouponType, value int64, total int, minAmountCents int64) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO coupon_codes (id, name, code, type, value, total, min_amount_cents, enabled)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)`,
		id, "Seeded "+code, code, couponType, value, total, minAmountCents,
	)
	if err != nil {
		t.Fatalf("failed to seed coupon %s: %v", code, err)
	}
	return id
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{"order_items", "orders", "coupon_codes", "addresses", "skus"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}
