package stream

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// Conditional wraps the streaming responder with ETag negotiation. The
// cache key is computed before any enumeration work; when the client's
// conditional header matches it exactly, the listing source is never
// queried and the response is 304. Otherwise status and caching headers
// are committed up front and the full pipeline runs.
type Conditional struct {
	logger *zap.Logger
}

// NewConditional creates a conditional response controller.
func NewConditional(logger *zap.Logger) *Conditional {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Conditional{logger: logger}
}

// ETag formats an opaque cache key as a quoted entity tag.
func ETag(version uint64) string {
	return fmt.Sprintf("%q", fmt.Sprintf("%d", version))
}

// Respond makes the conditional decision exactly once and, on a miss, runs
// the producer against a fresh responder. The producer is expected to
// finish with a terminal event; if it returns without one, the controller
// completes or fails the stream on its behalf so the body is always
// terminated. The returned responder is nil on a conditional hit.
func (c *Conditional) Respond(w http.ResponseWriter, r *http.Request, etag string, produce func(*Responder) error) *Responder {
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		c.logger.Debug("conditional hit, skipping enumeration",
			zap.String("etag", etag),
			zap.String("path", r.URL.Path),
		)
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return nil
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("ETag", etag)
	w.WriteHeader(http.StatusOK)

	resp := NewResponder(w)
	err := produce(resp)
	if resp.Closed() {
		return resp
	}
	// Producer returned without a terminal event.
	if err != nil {
		c.logger.Warn("enumeration failed mid-stream",
			zap.String("path", r.URL.Path),
			zap.Int64("rows_written", resp.Rows()),
			zap.Error(err),
		)
		_ = resp.Fail(err)
		return resp
	}
	_ = resp.Complete()
	return resp
}
