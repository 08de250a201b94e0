package sqlite

import (
	"database/sql"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/gympal/internal/testhelpers"
)

func TestDatabase_ExportUser(t *testing.T) {
	t.Parallel()
	const schema = `
		CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT);
		CREATE TABLE user_documents (user_id INTEGER PRIMARY KEY REFERENCES users (id), document TEXT);
		CREATE TABLE coach_messages (id TEXT PRIMARY KEY, user_id INTEGER REFERENCES users (id), text TEXT);
		CREATE TABLE sessions (token TEXT PRIMARY KEY, data BLOB);
	`
	tests := []struct {
		name       string
		userID     int
		schema     string
		data       []string
		wantCounts map[string]int
		wantErr    bool
	}{
		{
			name:   "only the user's rows",
			userID: 1,
			schema: schema,
			data: []string{
				"INSERT INTO users (id, name) VALUES (1, 'Alex'), (2, 'Sam')",
				`INSERT INTO user_documents (user_id, document) VALUES (1, '{"weekCount": 3}'), (2, '{}')`,
				"INSERT INTO coach_messages (id, user_id, text) VALUES ('a', 1, 'hi'), ('b', 1, 'hello'), ('c', 2, 'hey')",
				"INSERT INTO sessions (token, data) VALUES ('t', x'00')",
			},
			wantCounts: map[string]int{"users": 1, "user_documents": 1, "coach_messages": 2},
			wantErr:    false,
		},
		{
			name:       "unknown user",
			userID:     999,
			schema:     schema,
			data:       []string{"INSERT INTO users (id, name) VALUES (1, 'Alex')"},
			wantCounts: map[string]int{"users": 0, "user_documents": 0, "coach_messages": 0},
			wantErr:    false,
		},
		{
			name:       "no users table",
			userID:     1,
			schema:     "CREATE TABLE user_documents (user_id INTEGER PRIMARY KEY, document TEXT);",
			data:       nil,
			wantCounts: nil,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := t.Context()
			logger := testhelpers.NewLogger(testhelpers.NewWriter(t))
			db, err := connect(ctx, ":memory:", logger)
			if err != nil {
				t.Fatalf("Failed to connect to database: %v", err)
			}
			defer func(db *Database) {
				if err = db.Close(); err != nil {
					t.Errorf("Failed to close database: %v", err)
				}
			}(db)

			if _, err = db.ReadWrite.ExecContext(ctx, tt.schema); err != nil {
				t.Fatalf("Failed to create schema: %v", err)
			}
			for _, query := range tt.data {
				if _, err = db.ReadWrite.ExecContext(ctx, query); err != nil {
					t.Fatalf("Failed to insert test data: %v", err)
				}
			}

			path := filepath.Join(t.TempDir(), "export.sqlite3")
			err = db.ExportUser(ctx, tt.userID, path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExportUser() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if _, err = os.Stat(path); err != nil {
				t.Fatalf("Expected the export file: %v", err)
			}

			exported, err := sql.Open("sqlite3", path)
			if err != nil {
				t.Fatalf("Failed to open export: %v", err)
			}
			defer exported.Close()

			var tables []string
			rows, err := exported.QueryContext(ctx, "SELECT name FROM sqlite_schema WHERE type = 'table'")
			if err != nil {
				t.Fatalf("Failed to list tables: %v", err)
			}
			for rows.Next() {
				var name string
				if err = rows.Scan(&name); err != nil {
					t.Fatalf("Failed to scan table name: %v", err)
				}
				tables = append(tables, name)
			}
			_ = rows.Close()
			slices.Sort(tables)
			if diff := cmp.Diff([]string{"coach_messages", "user_documents", "users"}, tables); diff != "" {
				t.Errorf("Exported tables mismatch (-want +got):\n%s", diff)
			}

			got := make(map[string]int, len(tables))
			for _, table := range tables {
				var count int
				if err = exported.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
					t.Fatalf("Failed to count %s: %v", table, err)
				}
				got[table] = count
			}
			if diff := cmp.Diff(tt.wantCounts, got); diff != "" {
				t.Errorf("Row counts mismatch (-want +got):\n%s", diff)
			}

			t.Run("connection is read-only again", func(t *testing.T) {
				if _, err = db.ReadOnly.ExecContext(ctx, "INSERT INTO users (id, name) VALUES (3, 'Kim')"); err == nil {
					t.Error("Expected the read pool to reject writes")
				}
			})
		})
	}
}
