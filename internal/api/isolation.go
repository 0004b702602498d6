package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"quarry/internal/errors"
	"quarry/internal/logging"
)

// Isolate runs the wrapped handler as a supervised unit: the handler
// executes in its own goroutine against an in-memory response buffer,
// racing a hard deadline. A unit that overruns the deadline is
// abandoned and the client gets a 504; a unit that panics is logged
// and turned into a 500. The listener and other in-flight requests are
// unaffected either way.
func Isolate(timeout time.Duration, logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		unit := newUnitWriter()
		done := make(chan bool, 1)

		go func() {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("Request panicked", map[string]interface{}{
						"error":     fmt.Sprintf("%v", err),
						"stack":     string(debug.Stack()),
						"path":      r.URL.Path,
						"requestID": GetRequestID(r.Context()),
					})
					done <- false
					return
				}
				done <- true
			}()
			next.ServeHTTP(unit, r.WithContext(ctx))
		}()

		timer := time.NewTimer(timeout)
		defer timer.Stop()

		select {
		case completed := <-done:
			if !completed {
				WriteQuarryError(w, errors.New(errors.InternalError, "internal server error", nil))
				return
			}
			unit.copyTo(w)

		case <-timer.C:
			// Abandon the unit: cancel its context and never read its
			// buffer again. The goroutine may keep writing until it
			// notices the cancellation; nobody is listening.
			cancel()
			logger.Warn("Request timed out", map[string]interface{}{
				"path":      r.URL.Path,
				"timeout":   timeout.String(),
				"requestID": GetRequestID(r.Context()),
			})
			WriteQuarryError(w, errors.New(errors.Timeout, "request timed out", nil))
		}
	})
}

// unitWriter is the in-memory response the supervised unit writes to.
// Only the unit goroutine touches it until the unit signals completion.
type unitWriter struct {
	header      http.Header
	buf         bytes.Buffer
	status      int
	wroteHeader bool
}

func newUnitWriter() *unitWriter {
	return &unitWriter{header: make(http.Header), status: http.StatusOK}
}

func (u *unitWriter) Header() http.Header { return u.header }

func (u *unitWriter) WriteHeader(code int) {
	if !u.wroteHeader {
		u.status = code
		u.wroteHeader = true
	}
}

func (u *unitWriter) Write(b []byte) (int, error) {
	return u.buf.Write(b)
}

func (u *unitWriter) copyTo(w http.ResponseWriter) {
	for k, vs := range u.header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(u.status)
	w.Write(u.buf.Bytes())
}
