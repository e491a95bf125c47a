package seed

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ProductStore/internal/catalog"
)

const queryTimeout = 10 * time.Second

// LoadPostgres reads every row of table ordered by id. The table needs the
// columns id, name, price, quantity, color, unique and city; price and
// quantity may be NUMERIC or any integer type.
func LoadPostgres(ctx context.Context, databaseURL, table string) ([]catalog.Product, error) {
	pool, err := newPool(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := pool.Query(ctx, selectProducts(table))
	if err != nil {
		return nil, errors.Wrap(err, "query products")
	}

	products, err := pgx.CollectRows(rows, pgx.RowToStructByPos[catalog.Product])
	if err != nil {
		return nil, errors.Wrap(err, "scan products")
	}
	return products, nil
}

func selectProducts(table string) string {
	return `SELECT id, name, price, quantity, color, "unique", city FROM ` +
		pgx.Identifier{table}.Sanitize() + ` ORDER BY id`
}

func newPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse database url")
	}

	cfg.AfterConnect = func(_ context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "create pool")
	}
	return pool, nil
}
