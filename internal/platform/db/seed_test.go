package db

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"timeoff/internal/platform/config"
)

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := Connect(ctx, config.Config{DatabaseURL: dbURL})
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := Migrate(ctx, pool, "../../../migrations"); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return pool
}

func TestSeedIsRepeatable(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()

	cfg := config.Config{
		SeedOrgName:       fmt.Sprintf("Seed Test %d", time.Now().UnixNano()),
		SeedAdminEmail:    fmt.Sprintf("seed-%d@example.com", time.Now().UnixNano()),
		SeedAdminPassword: "ChangeMe123!",
	}

	if err := Seed(ctx, pool, cfg); err != nil {
		t.Fatalf("first seed failed: %v", err)
	}
	if err := Seed(ctx, pool, cfg); err != nil {
		t.Fatalf("second seed failed: %v", err)
	}

	var orgs int
	if err := pool.QueryRow(ctx, "SELECT COUNT(1) FROM organizations WHERE name = $1", cfg.SeedOrgName).Scan(&orgs); err != nil {
		t.Fatalf("failed to count organizations: %v", err)
	}
	if orgs != 1 {
		t.Fatalf("expected 1 organization, got %d", orgs)
	}

	var admins int
	if err := pool.QueryRow(ctx, "SELECT COUNT(1) FROM users WHERE email = $1", cfg.SeedAdminEmail).Scan(&admins); err != nil {
		t.Fatalf("failed to count users: %v", err)
	}
	if admins != 1 {
		t.Fatalf("expected 1 admin user, got %d", admins)
	}
}

func TestSeedReportsQueryErrors(t *testing.T) {
	pool := testPool(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := Seed(ctx, pool, config.Config{SeedOrgName: "Cancelled Org"}); err == nil {
		t.Fatal("expected an error from a cancelled context")
	}
}
