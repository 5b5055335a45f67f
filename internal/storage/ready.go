package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaTables are created by the embedded migrations.
var schemaTables = []string{"holdings", "import_log"}

// Ready reports whether the database is reachable and migrated. A missing
// table surfaces as the driver's "relation does not exist" error.
func Ready(ctx context.Context, db *sql.DB) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	for _, table := range schemaTables {
		rows, err := db.QueryContext(ctx, "SELECT 1 FROM "+table+" LIMIT 0")
		if err != nil {
			return fmt.Errorf("schema check %s: %w", table, err)
		}
		err = rows.Err()
		_ = rows.Close()
		if err != nil {
			return fmt.Errorf("schema check %s: %w", table, err)
		}
	}
	return nil
}
