// Package sqlite owns the GymPal database: connection pools, declarative schema migration, periodic optimisation
// and per-user export.
package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/myrjola/gympal/internal/errors"

	_ "embed"
)

//go:embed schema.sql
var schemaDefinition string

//go:embed fixtures.sql
var fixtures string

const (
	driverName   = "sqlite3gympal"
	readConns    = 10
	connLifetime = time.Hour
)

// connectionPragmas run on every new connection. Litestream takes care of WAL checkpoints.
const connectionPragmas = `PRAGMA temp_store = memory;
PRAGMA mmap_size = 30000000000;
PRAGMA wal_autocheckpoint = 0;`

//nolint:gochecknoglobals // database/sql panics when a driver name is registered twice.
var registerDriver sync.Once

// Database holds two pools over the same file. ReadWrite has a single connection whose transactions begin
// immediately so that writers queue up instead of failing with SQLITE_BUSY. ReadOnly serves concurrent readers.
type Database struct {
	ReadWrite *sql.DB
	ReadOnly  *sql.DB
	logger    *slog.Logger
}

// NewDatabase opens the database at path, migrates it to schema.sql, loads fixtures and starts the background
// optimizer. Use ":memory:" for a private in-memory database.
func NewDatabase(ctx context.Context, path string, logger *slog.Logger) (*Database, error) {
	db, err := connect(ctx, path, logger)
	if err != nil {
		return nil, errors.Wrap(err, "connect", slog.String("path", path))
	}
	if err = db.migrateTo(ctx, schemaDefinition); err != nil {
		return nil, errors.Join(errors.Wrap(err, "migrate"), db.Close())
	}
	if _, err = db.ReadWrite.ExecContext(ctx, fixtures); err != nil {
		return nil, errors.Join(errors.Wrap(err, "apply fixtures"), db.Close())
	}
	go db.startDatabaseOptimizer(ctx)
	return db, nil
}

// dsn builds a go-sqlite3 connection string. Parameters with a leading underscore are driver options, the rest are
// SQLite URI parameters.
func dsn(file string, params ...string) string {
	common := []string{
		"_loc=auto",
		"_defer_foreign_keys=1",
		"_journal_mode=wal",
		"_busy_timeout=5000",
		"_synchronous=normal",
		"_foreign_keys=on",
	}
	return "file:" + file + "?" + strings.Join(append(params, common...), "&")
}

func connect(ctx context.Context, path string, logger *slog.Logger) (*Database, error) {
	registerDriver.Do(func() {
		sql.Register(driverName, &sqlite3.SQLiteDriver{
			Extensions: nil,
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				if _, err := conn.Exec(connectionPragmas, nil); err != nil {
					return fmt.Errorf("exec connection pragmas: %w", err)
				}
				return nil
			},
		})
	})

	file := path
	var shared []string
	if strings.Contains(path, ":memory:") {
		// Both pools must see the same data while parallel tests stay isolated.
		file = "gympal-" + rand.Text()
		shared = []string{"mode=memory", "cache=shared"}
	}
	readWriteDSN := dsn(file, append([]string{"mode=rwc", "_txlock=immediate"}, shared...)...)
	readOnlyDSN := dsn(file, append([]string{"mode=ro", "_txlock=deferred", "_query_only=true"}, shared...)...)

	readWrite, err := openPool(ctx, readWriteDSN, 1)
	if err != nil {
		return nil, errors.Wrap(err, "open read-write pool")
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "opened database", slog.String("sqlDsn", readWriteDSN))

	readOnly, err := openPool(ctx, readOnlyDSN, readConns)
	if err != nil {
		return nil, errors.Join(errors.Wrap(err, "open read-only pool"), readWrite.Close())
	}

	return &Database{ReadWrite: readWrite, ReadOnly: readOnly, logger: logger}, nil
}

// openPool opens and pings a pool. The ping forces the first connection so configuration errors surface here.
func openPool(ctx context.Context, dataSource string, conns int) (*sql.DB, error) {
	pool, err := sql.Open(driverName, dataSource)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	pool.SetMaxOpenConns(conns)
	pool.SetMaxIdleConns(conns)
	pool.SetConnMaxLifetime(connLifetime)
	pool.SetConnMaxIdleTime(connLifetime)
	if err = pool.PingContext(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("ping: %w", err), pool.Close())
	}
	return pool, nil
}

// InTx runs fn in a write transaction. The transaction is committed when fn returns nil and rolled back
// otherwise.
func (db *Database) InTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer db.rollback(ctx, tx)()
	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Close closes both pools.
func (db *Database) Close() error {
	return errors.Join(db.ReadOnly.Close(), db.ReadWrite.Close())
}
