package cluster

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adminerrors "github.com/quillstore/admind/internal/errors"
)

func TestCallDecodesReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/_node/replicate", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "x", body["source"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	}))
	defer srv.Close()

	client := NewPeerClient(5*time.Second, nil)
	member := Member{Name: "node1", AdminURL: srv.URL}

	var out map[string]bool
	err := client.Call(context.Background(), member, http.MethodPost, "/_node/replicate",
		map[string]string{"source": "x"}, &out)
	require.NoError(t, err)
	assert.True(t, out["ok"])
}

func TestCallSurfacesRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(adminerrors.ErrorResponse{
			Status:    "error",
			ErrorCode: adminerrors.CodeNotFound,
			Message:   "replication job not found",
		})
	}))
	defer srv.Close()

	client := NewPeerClient(5*time.Second, nil)
	err := client.Call(context.Background(), Member{Name: "node1", AdminURL: srv.URL},
		http.MethodPost, "/_node/replicate", nil, nil)

	require.Error(t, err)
	assert.Equal(t, adminerrors.CodeNotFound, adminerrors.CodeOf(err))
}

func TestCallUnreachableMember(t *testing.T) {
	client := NewPeerClient(500*time.Millisecond, nil)
	member := Member{Name: "ghost", AdminURL: "http://127.0.0.1:1"}

	err := client.Call(context.Background(), member, http.MethodGet, "/_node/tasks", nil, nil)
	require.Error(t, err)
	assert.Equal(t, adminerrors.CodeRemoteUnavailable, adminerrors.CodeOf(err))
}

func TestBroadcastCollectsAllReplies(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"from": "ok"})
	}))
	defer ok.Close()

	members := []Member{
		{Name: "node1", AdminURL: ok.URL},
		{Name: "node2", AdminURL: "http://127.0.0.1:1"},
		{Name: "node3", AdminURL: ok.URL},
	}

	client := NewPeerClient(500*time.Millisecond, nil)
	results := client.Broadcast(context.Background(), members, http.MethodGet, "/x", nil, 2)

	require.Len(t, results, 3)
	// Results stay in member order regardless of completion order.
	assert.Equal(t, "node1", results[0].Member.Name)
	assert.Equal(t, "node2", results[1].Member.Name)
	assert.Equal(t, "node3", results[2].Member.Name)

	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
	assert.NoError(t, results[2].Err)
	assert.JSONEq(t, `{"from":"ok"}`, string(results[0].Body))
}
