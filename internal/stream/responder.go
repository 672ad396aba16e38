// Package stream turns push-style enumeration events into correctly framed
// chunked JSON array responses, with ETag-conditional short-circuiting.
package stream

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/quillstore/admind/internal/model"
)

// ErrClosed is returned for any event handed to a responder after its
// terminal event, or after a transport write failure.
var ErrClosed = errors.New("stream: responder closed")

// Responder converts an ordered sequence of stream events into one
// syntactically valid JSON array sent as a chunked body. It is owned by a
// single in-flight request and must not be shared; every event causes
// exactly one write to the underlying transport.
//
// On an error event the failure reason is written as the terminal chunk in
// place of the closing bracket, leaving the body truncated on purpose:
// clients must treat an array that does not end in `]` as a mid-stream
// failure.
type Responder struct {
	w       http.ResponseWriter
	flusher http.Flusher

	opened     bool // opening bracket written
	rowWritten bool // separator needed before the next row
	closed     bool // terminal event handled or transport failed
	rows       int64
}

// NewResponder wraps a response writer whose status and headers have
// already been committed by the caller.
func NewResponder(w http.ResponseWriter) *Responder {
	r := &Responder{w: w}
	if f, ok := w.(http.Flusher); ok {
		r.flusher = f
	}
	return r
}

// Apply handles one stream event. It is intended to be passed as the
// enumeration callback; a non-nil return tells the producer to stop.
func (r *Responder) Apply(ev model.StreamEvent) error {
	if r.closed {
		return ErrClosed
	}
	switch ev.Kind {
	case model.EventMeta:
		return r.open()
	case model.EventRow:
		return r.Row(ev.Row)
	case model.EventComplete:
		return r.Complete()
	case model.EventError:
		return r.Fail(ev.Err)
	default:
		return r.Fail(errors.New("unknown stream event"))
	}
}

// open emits the opening bracket. Safe to call only once; producers that
// skip the meta event get the equivalent open from the first row or the
// terminal event.
func (r *Responder) open() error {
	if r.opened {
		return nil
	}
	r.opened = true
	return r.write([]byte("["))
}

// Row emits one serialized record, preceded by a separator for every row
// after the first. The open bracket, separator and record go out as a
// single write.
func (r *Responder) Row(record json.RawMessage) error {
	if r.closed {
		return ErrClosed
	}
	buf := make([]byte, 0, len(record)+2)
	if !r.opened {
		r.opened = true
		buf = append(buf, '[')
	}
	if r.rowWritten {
		buf = append(buf, ',')
	}
	buf = append(buf, record...)
	if err := r.write(buf); err != nil {
		return err
	}
	r.rowWritten = true
	r.rows++
	return nil
}

// Complete emits the closing bracket and finalizes the response. No
// further writes are permitted afterward.
func (r *Responder) Complete() error {
	if r.closed {
		return ErrClosed
	}
	body := []byte("]")
	if !r.opened {
		body = []byte("[]")
	}
	err := r.write(body)
	r.closed = true
	return err
}

// Fail emits the failure reason as the terminal chunk and finalizes the
// response, intentionally leaving the array unclosed.
func (r *Responder) Fail(reason error) error {
	if r.closed {
		return ErrClosed
	}
	msg := "unknown error"
	if reason != nil {
		msg = reason.Error()
	}
	payload, _ := json.Marshal(map[string]string{"error": "stream_failure", "reason": msg})
	buf := make([]byte, 0, len(payload)+2)
	if !r.opened {
		r.opened = true
		buf = append(buf, '[')
	}
	if r.rowWritten {
		buf = append(buf, ',')
	}
	buf = append(buf, payload...)
	err := r.write(buf)
	r.closed = true
	return err
}

// Closed reports whether a terminal event has been handled or the
// transport has failed.
func (r *Responder) Closed() bool {
	return r.closed
}

// Rows returns the number of rows written so far.
func (r *Responder) Rows() int64 {
	return r.rows
}

// write performs the single transport write for one event. A write failure
// closes the responder for good; the handle is disposed, never retried.
func (r *Responder) write(p []byte) error {
	if _, err := r.w.Write(p); err != nil {
		r.closed = true
		return err
	}
	if r.flusher != nil {
		r.flusher.Flush()
	}
	return nil
}
