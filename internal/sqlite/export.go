package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/myrjola/gympal/internal/errors"
)

// userTablesQuery lists the users table followed by every table carrying a user_id column.
const userTablesQuery = `
SELECT m.name, m.sql
FROM sqlite_schema m
WHERE m.type = 'table'
  AND (m.name = 'users'
    OR EXISTS (SELECT 1 FROM pragma_table_info(m.name) p WHERE p.name = 'user_id'))
ORDER BY m.name <> 'users', m.name`

type exportTable struct {
	name   string
	schema string
}

// ExportUser writes every row belonging to userID into a standalone SQLite database at path.
//
// Sessions are excluded because they hold no user_id column. The export is consistent as it runs in a single read
// transaction.
func (db *Database) ExportUser(ctx context.Context, userID int, path string) (err error) {
	conn, err := db.ReadOnly.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get db connection: %w", err)
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close db connection: %w", closeErr)
		}
	}()

	if err = setExportPragmas(ctx, conn, true); err != nil {
		return err
	}
	defer func() {
		// The connection returns to the read pool so it must be read-only again.
		if restoreErr := setExportPragmas(context.WithoutCancel(ctx), conn, false); restoreErr != nil && err == nil {
			err = restoreErr
		}
	}()

	if _, err = conn.ExecContext(ctx, `ATTACH DATABASE ? AS export`, fmt.Sprintf("file:%s?mode=rwc", path)); err != nil {
		return fmt.Errorf("attach export database: %w", err)
	}
	defer func() {
		if _, detachErr := conn.ExecContext(context.WithoutCancel(ctx), `DETACH DATABASE export`); detachErr != nil &&
			err == nil {
			err = fmt.Errorf("detach export database: %w", detachErr)
		}
	}()

	var rows int64
	if rows, err = copyUserRows(ctx, conn, userID); err != nil {
		return err
	}
	db.logger.LogAttrs(ctx, slog.LevelInfo, "exported user database",
		slog.Int("user_id", userID), slog.Int64("rows", rows))
	return nil
}

func setExportPragmas(ctx context.Context, conn *sql.Conn, writable bool) error {
	queryOnly, foreignKeys := "TRUE", "ON"
	if writable {
		queryOnly, foreignKeys = "FALSE", "OFF"
	}
	if _, err := conn.ExecContext(ctx, `PRAGMA QUERY_ONLY = `+queryOnly); err != nil {
		return fmt.Errorf("set query only %s: %w", queryOnly, err)
	}
	if _, err := conn.ExecContext(ctx, `PRAGMA FOREIGN_KEYS = `+foreignKeys); err != nil {
		return fmt.Errorf("set foreign keys %s: %w", foreignKeys, err)
	}
	return nil
}

func copyUserRows(ctx context.Context, conn *sql.Conn, userID int) (_ int64, err error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin export transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	tables, err := listUserTables(ctx, tx)
	if err != nil {
		return 0, err
	}
	if len(tables) == 0 || tables[0].name != "users" {
		return 0, errors.New("users table does not exist")
	}

	var total int64
	for _, table := range tables {
		ddl := strings.Replace(table.schema, "CREATE TABLE "+table.name, "CREATE TABLE export."+table.name, 1)
		if ddl == table.schema {
			return 0, errors.Wrap(errors.New("unexpected table definition"), "create export table",
				slog.String("table", table.name))
		}
		if _, err = tx.ExecContext(ctx, ddl); err != nil {
			return 0, errors.Wrap(err, "create export table", slog.String("table", table.name))
		}
		column := "user_id"
		if table.name == "users" {
			column = "id"
		}
		//nolint:gosec // Table names come from sqlite_schema.
		query := fmt.Sprintf(`INSERT INTO export.%[1]s SELECT * FROM main.%[1]s WHERE %[2]s = ?`, table.name, column)
		var res sql.Result
		if res, err = tx.ExecContext(ctx, query, userID); err != nil {
			return 0, errors.Wrap(err, "copy user rows", slog.String("table", table.name))
		}
		n, _ := res.RowsAffected()
		total += n
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit export: %w", err)
	}
	return total, nil
}

func listUserTables(ctx context.Context, tx *sql.Tx) ([]exportTable, error) {
	rows, err := tx.QueryContext(ctx, userTablesQuery)
	if err != nil {
		return nil, fmt.Errorf("list user tables: %w", err)
	}
	defer rows.Close()
	var tables []exportTable
	for rows.Next() {
		var t exportTable
		if err = rows.Scan(&t.name, &t.schema); err != nil {
			return nil, fmt.Errorf("scan user table: %w", err)
		}
		tables = append(tables, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user tables: %w", err)
	}
	return tables, nil
}
