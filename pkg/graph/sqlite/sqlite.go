// Package sqlite provides a SQLite-backed graph driver for embedded and
// single-node deployments.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/quietgrove/dossier/pkg/graph/sqldriver"
)

// Driver implements graph.Driver using SQLite via the shared SQL driver.
type Driver struct {
	*sqldriver.SQLDriver
}

// NewDriver creates a new SQLite-backed graph driver. The dbPath can be a
// file path or ":memory:" for an in-memory database.
func NewDriver(ctx context.Context, dbPath string) (*Driver, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite-specific pragmas
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	d := &Driver{
		SQLDriver: &sqldriver.SQLDriver{
			DB:      db,
			Dialect: sqldriver.DialectSQLite,
		},
	}

	if err := d.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return d, nil
}
