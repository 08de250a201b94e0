package e2etest

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/myrjola/gympal/internal/logging"
)

// LogAddrKey is the log attribute carrying the address the server listens on.
const LogAddrKey = "addr"

// LogDsnKey is the log attribute carrying the SQLite DSN of the server's database.
const LogDsnKey = "sqlDsn"

// Server is a GymPal server running in the test process.
type Server struct {
	url    string
	client *Client
	db     *sql.DB
	cancel context.CancelCauseFunc
	done   chan struct{}
}

// RunFunc starts a server and blocks until ctx is done. It must log LogAddrKey and LogDsnKey on startup.
type RunFunc func(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error

// StartServer runs the server in the background and returns once /api/healthy answers. The server is shut down
// when the test finishes.
//
// Server logs go to logSink, usually testhelpers.NewWriter(t).
func StartServer(t *testing.T, logSink io.Writer, lookupEnv func(string) (string, bool), run RunFunc) (*Server, error) {
	ctx, cancel := context.WithCancelCause(t.Context())
	done := make(chan struct{})
	t.Cleanup(func() {
		cancel(nil)
		<-done
	})

	// The listening address and the database are only known once the server has logged them.
	addrCh := make(chan string, 1)
	dsnCh := make(chan string, 1)
	capture := func(_ []string, a slog.Attr) slog.Attr {
		switch a.Key {
		case LogAddrKey:
			sendOnce(addrCh, a.Value.String())
		case LogDsnKey:
			sendOnce(dsnCh, a.Value.String())
		}
		return a
	}
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(logSink, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: capture,
	})))

	go func() {
		defer close(done)
		if err := run(ctx, logger, lookupEnv); err != nil {
			cancel(err)
		}
	}()

	var addr, dsn string
	for addr == "" || dsn == "" {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("server stopped during startup: %w", context.Cause(ctx))
		case addr = <-addrCh:
		case dsn = <-dsnCh:
		}
	}

	serverURL := "http://" + addr
	client, err := NewClient(serverURL, "localhost", "http://localhost:0")
	if err != nil {
		return nil, fmt.Errorf("new client: %w", err)
	}
	if err = client.WaitForReady(ctx, "/api/healthy"); err != nil {
		return nil, fmt.Errorf("wait for ready: %w", err)
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return &Server{url: serverURL, client: client, db: db, cancel: cancel, done: done}, nil
}

func sendOnce(ch chan string, v string) {
	select {
	case ch <- v:
	default:
	}
}

// Client returns the client used for the readiness check.
func (s *Server) Client() *Client {
	return s.client
}

// URL is the base URL of the server.
func (s *Server) URL() string {
	return s.url
}

// DB gives direct access to the server's database for assertions.
func (s *Server) DB() *sql.DB {
	return s.db
}

// Shutdown stops the server and waits for it to exit.
func (s *Server) Shutdown() {
	s.cancel(nil)
	<-s.done
}
