package sqlite

import (
	"testing"

	"github.com/myrjola/gympal/internal/testhelpers"
)

const (
	exercisesV1 = "CREATE TABLE exercises (id INTEGER PRIMARY KEY, name TEXT NOT NULL) STRICT"
	exercisesV2 = "CREATE TABLE exercises (id INTEGER PRIMARY KEY, name TEXT NOT NULL, category TEXT) STRICT"
	byName      = "CREATE INDEX exercises_name ON exercises (name)"
	rejectAll   = `CREATE TRIGGER exercises_frozen BEFORE INSERT ON exercises
BEGIN SELECT RAISE(ABORT, 'frozen'); END`
	acceptAll = "CREATE TRIGGER exercises_frozen BEFORE INSERT ON exercises BEGIN SELECT 1; END"
)

// step migrates to schema and then runs seed, if any, against the migrated database.
type step struct {
	schema string
	seed   string
}

func TestDatabase_migrateTo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		steps      []step
		wantErr    bool
		check      string
		checkFails bool
	}{
		{
			name:  "empty schema",
			steps: []step{{schema: ""}},
			check: "SELECT count(*) FROM sqlite_schema",
		},
		{
			name:  "create table",
			steps: []step{{schema: exercisesV1}},
			check: "INSERT INTO exercises (name) VALUES ('Squat')",
		},
		{
			name:       "drop table",
			steps:      []step{{schema: exercisesV1}, {schema: ""}},
			check:      "SELECT * FROM exercises",
			checkFails: true,
		},
		{
			name: "add column keeps rows",
			steps: []step{
				{schema: exercisesV1, seed: "INSERT INTO exercises (id, name) VALUES (1, 'Squat')"},
				{schema: exercisesV2},
			},
			check:      "INSERT INTO exercises (id, name, category) VALUES (1, 'Squat', 'legs')",
			checkFails: true,
		},
		{
			name: "drop column keeps rows",
			steps: []step{
				{schema: exercisesV2, seed: "INSERT INTO exercises (id, name, category) VALUES (1, 'Squat', 'legs')"},
				{schema: exercisesV1},
			},
			check:      "INSERT INTO exercises (id, name) VALUES (1, 'Squat')",
			checkFails: true,
		},
		{
			name:  "create index",
			steps: []step{{schema: exercisesV1 + ";" + byName}},
			check: "DROP INDEX exercises_name",
		},
		{
			name:       "drop index",
			steps:      []step{{schema: exercisesV1 + ";" + byName}, {schema: exercisesV1}},
			check:      "DROP INDEX exercises_name",
			checkFails: true,
		},
		{
			name: "change index",
			steps: []step{
				{schema: exercisesV1 + ";" + byName},
				{schema: exercisesV1 + "; CREATE INDEX exercises_name ON exercises (name, id)"},
			},
			check: "DROP INDEX exercises_name",
		},
		{
			name:       "create trigger",
			steps:      []step{{schema: exercisesV1 + ";" + rejectAll}},
			check:      "INSERT INTO exercises (name) VALUES ('Squat')",
			checkFails: true,
		},
		{
			name:  "drop trigger",
			steps: []step{{schema: exercisesV1 + ";" + rejectAll}, {schema: exercisesV1}},
			check: "INSERT INTO exercises (name) VALUES ('Squat')",
		},
		{
			name:  "change trigger",
			steps: []step{{schema: exercisesV1 + ";" + rejectAll}, {schema: exercisesV1 + ";" + acceptAll}},
			check: "INSERT INTO exercises (name) VALUES ('Squat')",
		},
		{
			name: "add check constraint",
			steps: []step{
				{schema: "CREATE TABLE user_documents (user_id INTEGER PRIMARY KEY, document TEXT NOT NULL) STRICT"},
				{schema: `CREATE TABLE user_documents (user_id INTEGER PRIMARY KEY,
                 document TEXT NOT NULL CHECK (json_valid(document))) STRICT`},
			},
			check:      "INSERT INTO user_documents (user_id, document) VALUES (1, 'not json')",
			checkFails: true,
		},
		{
			name: "new foreign key must hold for existing rows",
			steps: []step{
				{
					schema: `CREATE TABLE users (id INTEGER PRIMARY KEY) STRICT;
CREATE TABLE user_documents (user_id INTEGER PRIMARY KEY, document TEXT NOT NULL) STRICT`,
					seed: "INSERT INTO user_documents (user_id, document) VALUES (7, '{}')",
				},
				{schema: `CREATE TABLE users (id INTEGER PRIMARY KEY) STRICT;
CREATE TABLE user_documents (user_id INTEGER PRIMARY KEY REFERENCES users (id) ON DELETE CASCADE,
                             document TEXT NOT NULL) STRICT`},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := t.Context()
			db, err := connect(ctx, ":memory:", testhelpers.NewLogger(testhelpers.NewWriter(t)))
			if err != nil {
				t.Fatalf("connect: %v", err)
			}
			t.Cleanup(func() {
				if closeErr := db.Close(); closeErr != nil {
					t.Errorf("close: %v", closeErr)
				}
			})

			for i, s := range tt.steps {
				err = db.migrateTo(ctx, s.schema)
				if last := i == len(tt.steps)-1; last && tt.wantErr {
					if err == nil {
						t.Fatal("migrateTo() succeeded, want error")
					}
					return
				}
				if err != nil {
					t.Fatalf("migrateTo() step %d: %v", i, err)
				}
				if s.seed != "" {
					if _, err = db.ReadWrite.ExecContext(ctx, s.seed); err != nil {
						t.Fatalf("seed step %d: %v", i, err)
					}
				}
			}

			_, err = db.ReadWrite.ExecContext(ctx, tt.check)
			switch {
			case tt.checkFails && err == nil:
				t.Errorf("check %q succeeded, want error", tt.check)
			case !tt.checkFails && err != nil:
				t.Errorf("check %q: %v", tt.check, err)
			}
		})
	}
}

func TestDatabase_migrateTo_idempotent(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	db, err := connect(ctx, ":memory:", testhelpers.NewLogger(testhelpers.NewWriter(t)))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	for i := range 2 {
		if err = db.migrateTo(ctx, schemaDefinition); err != nil {
			t.Fatalf("migrateTo() run %d: %v", i, err)
		}
	}
	var tables int
	if err = db.ReadOnly.QueryRowContext(ctx,
		"SELECT count(*) FROM sqlite_schema WHERE type = 'table' AND name = 'user_documents'").Scan(&tables); err != nil {
		t.Fatalf("count tables: %v", err)
	}
	if tables != 1 {
		t.Errorf("user_documents tables = %d, want 1", tables)
	}
}
