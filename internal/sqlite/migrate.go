package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/myrjola/gympal/internal/errors"
)

// objectType is a kind of entry in sqlite_schema.
type objectType string

const (
	objectTable   objectType = "table"
	objectIndex   objectType = "index"
	objectTrigger objectType = "trigger"
)

// Internal objects of SQLite and Litestream are never migrated.
const (
	liveIgnored   = `live.name NOT LIKE 'sqlite_%' AND live.name NOT LIKE '_litestream_%'`
	targetIgnored = `t.name NOT LIKE 'sqlite_%' AND t.name NOT LIKE '_litestream_%'`
)

const droppedObjectsQuery = `SELECT live.name
FROM main.sqlite_schema AS live
WHERE live.type = :type AND ` + liveIgnored + `
  AND NOT EXISTS (SELECT 1 FROM target.sqlite_schema AS t WHERE t.type = live.type AND t.name = live.name)`

const addedObjectsQuery = `SELECT t.sql
FROM target.sqlite_schema AS t
WHERE t.type = :type AND ` + targetIgnored + ` AND t.sql IS NOT NULL
  AND NOT EXISTS (SELECT 1 FROM main.sqlite_schema AS live WHERE live.type = t.type AND live.name = t.name)`

// Renaming a table quotes its name in sqlite_schema, so quotes are ignored when comparing definitions.
const changedObjectsQuery = `SELECT live.name, live.sql, t.sql
FROM main.sqlite_schema AS live
JOIN target.sqlite_schema AS t ON t.type = live.type AND t.name = live.name
WHERE live.type = :type AND ` + liveIgnored + `
  AND REPLACE(live.sql, '"', '') <> REPLACE(t.sql, '"', '')`

type changedObject struct {
	name    string
	liveSQL string
	newSQL  string
}

// migrateTo makes the live schema match schemaDefinition.
//
// The target schema is built in a scratch in-memory database attached as "target". Dropped objects are dropped,
// new ones created, and changed tables are rebuilt following https://www.sqlite.org/lang_altertable.html#otheralter
// while keeping the columns both definitions share. Changed indexes and triggers are recreated.
//
// See https://david.rothlis.net/declarative-schema-migration-for-sqlite/.
func (db *Database) migrateTo(ctx context.Context, schemaDefinition string) error {
	start := time.Now()

	detach, err := db.attachTarget(ctx, schemaDefinition)
	if err != nil {
		return err
	}
	defer detach()

	if _, err = db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("disable foreign keys: %w", err)
	}
	defer db.restoreForeignKeys(ctx)

	tx, err := db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer db.rollback(ctx, tx)()

	if err = db.migrateTables(ctx, tx); err != nil {
		return err
	}
	for _, typ := range []objectType{objectTrigger, objectIndex} {
		if err = db.syncObjects(ctx, tx, typ); err != nil {
			return err
		}
	}

	var violations []string
	if violations, err = queryStrings(ctx, tx, "SELECT DISTINCT \"table\" FROM pragma_foreign_key_check"); err != nil {
		return fmt.Errorf("check foreign keys: %w", err)
	}
	if len(violations) > 0 {
		return fmt.Errorf("foreign key violations in %s", strings.Join(violations, ", "))
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	db.logger.LogAttrs(ctx, slog.LevelInfo, "migrated database", slog.Duration("duration", time.Since(start)))
	return nil
}

// restoreForeignKeys turns foreign key enforcement back on. Running without it would silently corrupt data, so the
// process is interrupted when that fails.
func (db *Database) restoreForeignKeys(ctx context.Context) {
	if _, err := db.ReadWrite.ExecContext(context.WithoutCancel(ctx), "PRAGMA foreign_keys = ON"); err != nil {
		db.logger.LogAttrs(ctx, slog.LevelError, "foreign keys left disabled, shutting down", slog.Any("error", err))
		if err = syscall.Kill(syscall.Getpid(), syscall.SIGINT); err != nil {
			os.Exit(1)
		}
	}
}

// attachTarget creates the target schema in a scratch database and attaches it to the write connection. The
// returned function detaches it.
func (db *Database) attachTarget(ctx context.Context, schemaDefinition string) (func(), error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", rand.Text())
	scratch, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open target schema: %w", err)
	}
	// The shared-cache database lives as long as one connection to it is open.
	defer func() {
		if closeErr := scratch.Close(); closeErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "close target schema", slog.Any("error", closeErr))
		}
	}()
	if _, err = scratch.ExecContext(ctx, schemaDefinition); err != nil {
		return nil, fmt.Errorf("build target schema: %w", err)
	}
	if _, err = db.ReadWrite.ExecContext(ctx, "ATTACH DATABASE ? AS target", dsn); err != nil {
		return nil, fmt.Errorf("attach target schema: %w", err)
	}
	return func() {
		if _, detachErr := db.ReadWrite.ExecContext(context.WithoutCancel(ctx), "DETACH DATABASE target"); detachErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "detach target schema", slog.Any("error", detachErr))
		}
	}, nil
}

// rollback returns a function that rolls tx back unless it has already been committed.
func (db *Database) rollback(ctx context.Context, tx *sql.Tx) func() {
	return func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			db.logger.LogAttrs(ctx, slog.LevelError, "rollback transaction", slog.Any("error", err))
		}
	}
}

func (db *Database) migrateTables(ctx context.Context, tx *sql.Tx) error {
	dropped, err := queryStrings(ctx, tx, droppedObjectsQuery, sql.Named("type", objectTable))
	if err != nil {
		return fmt.Errorf("query dropped tables: %w", err)
	}
	for _, name := range dropped {
		if err = db.exec(ctx, tx, "dropping table", "DROP TABLE "+name); err != nil {
			return err
		}
	}

	added, err := queryStrings(ctx, tx, addedObjectsQuery, sql.Named("type", objectTable))
	if err != nil {
		return fmt.Errorf("query added tables: %w", err)
	}
	for _, ddl := range added {
		if err = db.exec(ctx, tx, "creating table", ddl); err != nil {
			return err
		}
	}

	changed, err := queryChanged(ctx, tx, objectTable)
	if err != nil {
		return fmt.Errorf("query changed tables: %w", err)
	}
	for _, table := range changed {
		if err = db.rebuildTable(ctx, tx, table); err != nil {
			return fmt.Errorf("rebuild table %s: %w", table.name, err)
		}
	}
	return nil
}

// rebuildTable creates the new definition under a temporary name, copies the shared columns over and swaps the
// tables.
func (db *Database) rebuildTable(ctx context.Context, tx *sql.Tx, table changedObject) error {
	db.logger.LogAttrs(ctx, slog.LevelInfo, "migrating table",
		slog.String("table", table.name),
		slog.String("live_sql", table.liveSQL),
		slog.String("new_sql", table.newSQL))

	temp := table.name + "_migration_temp"
	if err := db.exec(ctx, tx, "creating rebuilt table", strings.Replace(table.newSQL, table.name, temp, 1)); err != nil {
		return err
	}

	// Quoted so that columns named after keywords survive.
	columns, err := queryStrings(ctx, tx, `SELECT '"' || t.name || '"'
FROM pragma_table_info(:table) AS live
JOIN pragma_table_info(:table, 'target') AS t ON t.name = live.name`, sql.Named("table", table.name))
	if err != nil {
		return fmt.Errorf("query shared columns: %w", err)
	}
	shared := strings.Join(columns, ", ")

	steps := []string{
		fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s", temp, shared, shared, table.name),
		"DROP TABLE " + table.name,
		fmt.Sprintf("ALTER TABLE %s RENAME TO %s", temp, table.name),
	}
	for _, step := range steps {
		if err = db.exec(ctx, tx, "rebuilding table", step); err != nil {
			return err
		}
	}
	return nil
}

// syncObjects drops, creates and recreates the indexes or triggers that differ from the target schema.
func (db *Database) syncObjects(ctx context.Context, tx *sql.Tx, typ objectType) error {
	keyword := strings.ToUpper(string(typ))

	dropped, err := queryStrings(ctx, tx, droppedObjectsQuery, sql.Named("type", typ))
	if err != nil {
		return fmt.Errorf("query dropped %s: %w", typ, err)
	}
	for _, name := range dropped {
		if err = db.exec(ctx, tx, "dropping "+string(typ), fmt.Sprintf("DROP %s %s", keyword, name)); err != nil {
			return err
		}
	}

	added, err := queryStrings(ctx, tx, addedObjectsQuery, sql.Named("type", typ))
	if err != nil {
		return fmt.Errorf("query added %s: %w", typ, err)
	}
	for _, ddl := range added {
		if err = db.exec(ctx, tx, "creating "+string(typ), ddl); err != nil {
			return err
		}
	}

	changed, err := queryChanged(ctx, tx, typ)
	if err != nil {
		return fmt.Errorf("query changed %s: %w", typ, err)
	}
	for _, object := range changed {
		if err = db.exec(ctx, tx, "recreating "+string(typ), fmt.Sprintf("DROP %s %s", keyword, object.name)); err != nil {
			return err
		}
		if err = db.exec(ctx, tx, "recreating "+string(typ), object.newSQL); err != nil {
			return err
		}
	}
	return nil
}

func (db *Database) exec(ctx context.Context, tx *sql.Tx, msg string, query string) error {
	db.logger.LogAttrs(ctx, slog.LevelInfo, msg, slog.String("query", query))
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return nil
}

// queryStrings collects the first column of every row.
func queryStrings(ctx context.Context, tx *sql.Tx, query string, args ...any) (_ []string, err error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer func() { err = errors.Join(err, rows.Close()) }()
	var out []string
	for rows.Next() {
		var s string
		if err = rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func queryChanged(ctx context.Context, tx *sql.Tx, typ objectType) (_ []changedObject, err error) {
	rows, err := tx.QueryContext(ctx, changedObjectsQuery, sql.Named("type", typ))
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer func() { err = errors.Join(err, rows.Close()) }()
	var out []changedObject
	for rows.Next() {
		var c changedObject
		if err = rows.Scan(&c.name, &c.liveSQL, &c.newSQL); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
