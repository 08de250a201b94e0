// Package errors extends the standard library errors with call-site capture and slog annotations.
//
// Wrap an error with Wrap to add a message and structured context, and log it with SlogError to get the
// annotations of the whole chain together with the source location where the error was first wrapped.
package errors

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
)

// These are re-exported so that callers only need to import this package.
var (
	New    = stderrors.New
	Is     = stderrors.Is
	As     = stderrors.As
	Unwrap = stderrors.Unwrap
	Join   = stderrors.Join
)

type annotatedError struct {
	msg         string
	cause       error
	annotations []slog.Attr
	pc          uintptr
	// source overrides pc when the location is already resolved.
	source string
}

func (e *annotatedError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return fmt.Sprintf("%s: %s", e.msg, e.cause.Error())
}

func (e *annotatedError) Unwrap() error {
	return e.cause
}

// NewSentinel creates an error meant to be compared with Is. It does not capture a call site.
func NewSentinel(msg string) error {
	return &annotatedError{msg: msg, cause: nil, annotations: nil, pc: 0, source: ""}
}

// Wrap annotates err with msg and attrs and records the caller as the error source.
func Wrap(err error, msg string, attrs ...slog.Attr) error {
	var pcs [1]uintptr
	// Skip runtime.Callers and Wrap.
	runtime.Callers(2, pcs[:]) //nolint:mnd // see above.
	return &annotatedError{msg: msg, cause: err, annotations: attrs, pc: pcs[0], source: ""}
}

// DecoratePanic converts a recovered panic value to an error pointing at the line that panicked.
func DecoratePanic(recovered any) error {
	if recovered == nil {
		return nil
	}
	pcs := make([]uintptr, 32) //nolint:mnd // deep enough to get past the runtime frames.
	n := runtime.Callers(1, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	var (
		source     string
		fallback   string
		afterPanic bool
	)
	for {
		frame, more := frames.Next()
		location := fmt.Sprintf("%s:%d", frame.File, frame.Line)
		if fallback == "" && !strings.HasSuffix(frame.Function, "errors.DecoratePanic") {
			fallback = location
		}
		if afterPanic {
			source = location
			break
		}
		afterPanic = frame.Function == "runtime.gopanic"
		if !more {
			break
		}
	}
	if source == "" {
		source = fallback
	}
	return &annotatedError{msg: fmt.Sprintf("panic: %v", recovered), cause: nil, annotations: nil, pc: 0, source: source}
}

// SlogError returns an attribute grouping the error message, the annotations collected from every wrapped
// layer and the source of the innermost annotated layer.
func SlogError(err error) slog.Attr {
	if err == nil {
		return slog.Group("error", slog.String("message", "<nil>"))
	}
	var (
		annotations []slog.Attr
		source      string
	)
	for current := err; current != nil; current = Unwrap(current) {
		var ae *annotatedError
		if !As(current, &ae) {
			break
		}
		annotations = append(annotations, ae.annotations...)
		switch {
		case ae.source != "":
			source = ae.source
		case ae.pc != 0:
			frame, _ := runtime.CallersFrames([]uintptr{ae.pc}).Next()
			source = fmt.Sprintf("%s:%d", frame.File, frame.Line)
		}
		current = ae
	}
	attrs := []any{slog.String("message", err.Error())}
	if len(annotations) > 0 {
		attrs = append(attrs, slog.Group("annotations", attrsToAny(annotations)...))
	}
	if source != "" {
		attrs = append(attrs, slog.String("source", source))
	}
	return slog.Group("error", attrs...)
}

func attrsToAny(attrs []slog.Attr) []any {
	out := make([]any, len(attrs))
	for i, a := range attrs {
		out[i] = a
	}
	return out
}
