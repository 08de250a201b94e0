// Package flightrecorder keeps a rolling execution trace in memory and dumps it to disk when a request
// misses its deadline.
package flightrecorder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/trace"
	"sync/atomic"
	"time"

	"github.com/myrjola/gympal/internal/errors"
)

const (
	defaultWindow   = 2 * time.Minute
	defaultMaxBytes = 32 << 20
	defaultCooldown = 15 * time.Minute
)

// Config configures a Recorder. Zero durations and sizes fall back to defaults.
type Config struct {
	// Directory receives the trace files. It is created when missing.
	Directory string
	// Window is how far back a dump reaches.
	Window time.Duration
	// MaxBytes caps the in-memory trace buffer.
	MaxBytes uint64
	// Cooldown is the minimum time between two dumps.
	Cooldown time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// Recorder dumps the recent execution trace of the process on demand.
type Recorder struct {
	logger    *slog.Logger
	fr        *trace.FlightRecorder
	directory string
	cooldown  time.Duration
	now       func() time.Time
	lastDump  atomic.Int64
	dumps     atomic.Int64
}

// New creates a Recorder writing into cfg.Directory. Call Start to begin recording.
func New(cfg Config, logger *slog.Logger) (*Recorder, error) {
	if cfg.Directory == "" {
		return nil, errors.New("trace directory is required")
	}
	if err := os.MkdirAll(cfg.Directory, 0o700); err != nil { //nolint:mnd // owner only
		return nil, errors.Wrap(err, "create trace directory", slog.String("directory", cfg.Directory))
	}
	if cfg.Window == 0 {
		cfg.Window = defaultWindow
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = defaultMaxBytes
	}
	if cfg.Cooldown == 0 {
		cfg.Cooldown = defaultCooldown
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Recorder{
		logger:    logger,
		fr:        trace.NewFlightRecorder(trace.FlightRecorderConfig{MinAge: cfg.Window, MaxBytes: cfg.MaxBytes}),
		directory: cfg.Directory,
		cooldown:  cfg.Cooldown,
		now:       cfg.Now,
		lastDump:  atomic.Int64{},
		dumps:     atomic.Int64{},
	}, nil
}

// Start begins recording.
func (r *Recorder) Start(ctx context.Context) error {
	if err := r.fr.Start(); err != nil {
		return errors.Wrap(err, "start flight recorder")
	}
	r.logger.LogAttrs(ctx, slog.LevelInfo, "flight recorder started", slog.String("directory", r.directory))
	return nil
}

// Stop ends recording.
func (r *Recorder) Stop(ctx context.Context) {
	r.fr.Stop()
	r.logger.LogAttrs(ctx, slog.LevelInfo, "flight recorder stopped", slog.Int64("dumps", r.dumps.Load()))
}

// Dumps returns the number of trace files written so far.
func (r *Recorder) Dumps() int64 {
	return r.dumps.Load()
}

// Capture writes the recorded trace to a file named after reason. Calls within the cooldown of the previous
// dump are dropped. It returns the path of the written file, or "" when nothing was written.
func (r *Recorder) Capture(ctx context.Context, reason string) string {
	now := r.now()
	last := r.lastDump.Load()
	if last != 0 && now.Sub(time.Unix(0, last)) < r.cooldown {
		r.logger.LogAttrs(ctx, slog.LevelDebug, "trace capture cooling down", slog.String("reason", reason))
		return ""
	}
	if !r.lastDump.CompareAndSwap(last, now.UnixNano()) {
		return ""
	}
	if !r.fr.Enabled() {
		r.logger.LogAttrs(ctx, slog.LevelWarn, "flight recorder not running", slog.String("reason", reason))
		return ""
	}

	path := filepath.Join(r.directory, fmt.Sprintf("%s-%s.trace", reason, now.UTC().Format("20060102-150405")))
	f, err := os.Create(path)
	if err != nil {
		r.logger.LogAttrs(ctx, slog.LevelError, "create trace file", errors.SlogError(err))
		return ""
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			r.logger.LogAttrs(ctx, slog.LevelError, "close trace file", errors.SlogError(closeErr))
		}
	}()
	n, err := r.fr.WriteTo(f)
	if err != nil {
		r.logger.LogAttrs(ctx, slog.LevelError, "write trace file", errors.SlogError(err))
		return ""
	}
	r.dumps.Add(1)
	r.logger.LogAttrs(ctx, slog.LevelWarn, "captured trace",
		slog.String("reason", reason), slog.String("file", path), slog.Int64("bytes", n))
	return path
}
