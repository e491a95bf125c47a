package seed

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectProductsQuotesTable(t *testing.T) {
	q := selectProducts(`prod"ucts`)
	assert.Equal(t, `SELECT id, name, price, quantity, color, "unique", city FROM "prod""ucts" ORDER BY id`, q)
}

// TestLoadPostgres runs against a real database when CATALOG_TEST_DATABASE_URL is set.
func TestLoadPostgres(t *testing.T) {
	url := os.Getenv("CATALOG_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("CATALOG_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close(ctx) })

	_, err = conn.Exec(ctx, `
		DROP TABLE IF EXISTS seed_products_test;
		CREATE TABLE seed_products_test (
			id       BIGINT NOT NULL,
			name     TEXT NOT NULL,
			price    NUMERIC(12, 2) NOT NULL,
			quantity NUMERIC(12, 3) NOT NULL,
			color    TEXT NOT NULL,
			"unique" BOOLEAN NOT NULL,
			city     TEXT NOT NULL
		);
		INSERT INTO seed_products_test VALUES
			(2, 'Table', 120.50, 4.5, 'white', true, 'Barcelona'),
			(1, 'Chair', 20, 15, 'brown', false, 'Madrid');
	`)
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = conn.Exec(ctx, `DROP TABLE IF EXISTS seed_products_test`) })

	rows, err := LoadPostgres(ctx, url, "seed_products_test")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, int64(1), rows[0].ID)
	assert.Equal(t, "Chair", rows[0].Name)
	assert.True(t, rows[1].Price.Equal(decimal.RequireFromString("120.5")))
	assert.True(t, rows[1].Quantity.Equal(decimal.RequireFromString("4.5")))
	assert.True(t, rows[1].Unique)
}
