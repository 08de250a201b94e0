// Package testhelpers routes application logs into the test log so they only show up for failing tests.
package testhelpers

import (
	"bytes"
	"io"
	"sync/atomic"
	"testing"
)

type testWriter struct {
	t    testing.TB
	done atomic.Bool
}

// NewWriter returns an io.Writer that forwards each write to t.Log. Writing after t has finished panics, which
// catches servers that outlive their test.
func NewWriter(t testing.TB) io.Writer {
	w := &testWriter{t: t}
	t.Cleanup(func() { w.done.Store(true) })
	return w
}

func (w *testWriter) Write(p []byte) (int, error) {
	if w.done.Load() {
		panic("testhelpers: log written after the test finished; shut the server down in t.Cleanup")
	}
	if line := bytes.TrimRight(p, "\n"); len(line) > 0 {
		w.t.Log(string(line))
	}
	return len(p), nil
}
