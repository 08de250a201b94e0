package main

import (
	"testing"

	"github.com/myrjola/gympal/internal/e2etest"
	"github.com/myrjola/gympal/internal/testhelpers"
)

// testEnv runs every server on a private in-memory database, a free port and a fixed rotation seed.
//
//nolint:gochecknoglobals // read-only test configuration.
var testEnv = map[string]string{
	"GYMPAL_SQLITE_URL":  ":memory:",
	"GYMPAL_ADDR":        "localhost:0",
	"GYMPAL_RANDOM_SEED": "42",
}

func testLookupEnv(key string) (string, bool) {
	v, ok := testEnv[key]
	return v, ok
}

func newTestServer(t *testing.T) *e2etest.Server {
	t.Helper()
	server, err := e2etest.StartServer(t, testhelpers.NewWriter(t), testLookupEnv, run)
	if err != nil {
		t.Fatalf("start server: %v", err)
	}
	return server
}

// newRegisteredClient starts a server and returns a client signed in as a freshly registered user.
func newRegisteredClient(t *testing.T) (*e2etest.Server, *e2etest.Client) {
	t.Helper()
	server := newTestServer(t)
	client := server.Client()
	if _, err := client.Register(t.Context()); err != nil {
		t.Fatalf("register: %v", err)
	}
	return server, client
}
