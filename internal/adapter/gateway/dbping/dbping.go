package dbping

import (
	"context"
	"database/sql"
	"errors"
)

// DBPing checks the journal database: the connection and the journal table.
type DBPing struct {
	DB    *sql.DB
	Table string // defaults to snapshot_journal
}

func (DBPing) Name() string { return "postgres" }

func (d DBPing) Ping(ctx context.Context) error {
	if d.DB == nil {
		return errors.New("no database configured")
	}
	if err := d.DB.PingContext(ctx); err != nil {
		return err
	}
	table := d.Table
	if table == "" {
		table = "snapshot_journal"
	}
	var ok bool
	if err := d.DB.QueryRowContext(ctx, `SELECT to_regclass($1) IS NOT NULL`, table).Scan(&ok); err != nil {
		return err
	}
	if !ok {
		return errors.New("table " + table + " is missing")
	}
	return nil
}
