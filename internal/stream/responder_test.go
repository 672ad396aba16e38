package stream

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillstore/admind/internal/model"
)

func TestResponderFramesRows(t *testing.T) {
	rec := httptest.NewRecorder()
	r := NewResponder(rec)

	require.NoError(t, r.Apply(model.MetaEvent()))
	require.NoError(t, r.Apply(model.RowEvent(json.RawMessage(`"a"`))))
	require.NoError(t, r.Apply(model.RowEvent(json.RawMessage(`"b"`))))
	require.NoError(t, r.Apply(model.RowEvent(json.RawMessage(`"c"`))))
	require.NoError(t, r.Apply(model.CompleteEvent()))

	assert.Equal(t, `["a","b","c"]`, rec.Body.String())
	assert.Equal(t, int64(3), r.Rows())
	assert.True(t, r.Closed())

	var decoded []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	assert.Equal(t, []string{"a", "b", "c"}, decoded)
}

func TestResponderEmptyListing(t *testing.T) {
	rec := httptest.NewRecorder()
	r := NewResponder(rec)

	require.NoError(t, r.Apply(model.MetaEvent()))
	require.NoError(t, r.Apply(model.CompleteEvent()))

	assert.Equal(t, `[]`, rec.Body.String())
	assert.Equal(t, int64(0), r.Rows())
}

func TestResponderCompleteWithoutMeta(t *testing.T) {
	rec := httptest.NewRecorder()
	r := NewResponder(rec)

	require.NoError(t, r.Complete())
	assert.Equal(t, `[]`, rec.Body.String())
}

func TestResponderSingleRow(t *testing.T) {
	rec := httptest.NewRecorder()
	r := NewResponder(rec)

	require.NoError(t, r.Apply(model.MetaEvent()))
	require.NoError(t, r.Apply(model.RowEvent(json.RawMessage(`{"key":"x"}`))))
	require.NoError(t, r.Apply(model.CompleteEvent()))

	assert.Equal(t, `[{"key":"x"}]`, rec.Body.String())
}

func TestResponderErrorLeavesBodyTruncated(t *testing.T) {
	rec := httptest.NewRecorder()
	r := NewResponder(rec)

	require.NoError(t, r.Apply(model.MetaEvent()))
	require.NoError(t, r.Apply(model.RowEvent(json.RawMessage(`"a"`))))
	require.NoError(t, r.Apply(model.ErrorEvent(errors.New("iterator broke"))))

	body := rec.Body.String()
	assert.NotEqual(t, byte(']'), body[len(body)-1])
	assert.Contains(t, body, `"error":"stream_failure"`)
	assert.Contains(t, body, "iterator broke")

	// The truncated body must not parse as a complete array.
	var decoded []json.RawMessage
	assert.Error(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
}

func TestResponderRejectsEventsAfterTerminal(t *testing.T) {
	rec := httptest.NewRecorder()
	r := NewResponder(rec)

	require.NoError(t, r.Complete())

	assert.ErrorIs(t, r.Apply(model.RowEvent(json.RawMessage(`"late"`))), ErrClosed)
	assert.ErrorIs(t, r.Complete(), ErrClosed)
	assert.ErrorIs(t, r.Fail(errors.New("late")), ErrClosed)
	assert.Equal(t, `[]`, rec.Body.String())
}

// failingWriter fails every write, standing in for a disconnected client.
type failingWriter struct {
	header http.Header
}

func (f *failingWriter) Header() http.Header {
	if f.header == nil {
		f.header = make(http.Header)
	}
	return f.header
}

func (f *failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func (f *failingWriter) WriteHeader(int) {}

func TestResponderWriteFailureClosesStream(t *testing.T) {
	r := NewResponder(&failingWriter{})

	err := r.Apply(model.RowEvent(json.RawMessage(`"a"`)))
	require.Error(t, err)
	assert.True(t, r.Closed())
	assert.ErrorIs(t, r.Apply(model.RowEvent(json.RawMessage(`"b"`))), ErrClosed)
}
