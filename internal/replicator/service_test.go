package replicator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillstore/admind/internal/cluster"
	adminerrors "github.com/quillstore/admind/internal/errors"
	"github.com/quillstore/admind/internal/model"
)

func newTestService(self string, view cluster.View) *Service {
	peers := cluster.NewPeerClient(2*time.Second, nil)
	registry := NewRegistry(self, nil)
	return NewService(self, view, peers, registry, 4, nil)
}

func notFoundPeer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(adminerrors.ErrorResponse{
			Status:    "error",
			ErrorCode: adminerrors.CodeNotFound,
			Message:   "replication job not found",
		})
	}))
}

func TestReplicateRequiresSourceAndTarget(t *testing.T) {
	svc := newTestService("node1", cluster.NewStaticView(nil))

	_, err := svc.Replicate(context.Background(), model.ReplicationCommand{Target: "b"})
	require.Error(t, err)
	assert.Equal(t, adminerrors.CodeValidation, adminerrors.CodeOf(err))
	assert.Contains(t, err.Error(), "source is required")

	_, err = svc.Replicate(context.Background(), model.ReplicationCommand{Source: "a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target is required")
}

func TestReplicateNoMembers(t *testing.T) {
	svc := newTestService("node1", cluster.NewStaticView(nil))

	_, err := svc.Replicate(context.Background(), model.ReplicationCommand{Source: "a", Target: "b"})
	require.Error(t, err)
	assert.Equal(t, adminerrors.CodeNoClusterMembers, adminerrors.CodeOf(err))
}

func TestReplicateLocalOneShot(t *testing.T) {
	view := cluster.NewStaticView([]cluster.Member{{Name: "node1"}})
	svc := newTestService("node1", view)

	out, err := svc.Replicate(context.Background(), model.ReplicationCommand{Source: "a", Target: "b"})
	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.Equal(t, ReplyCompleted, out.Kind)
	assert.NotEmpty(t, out.JobID)
}

func TestReplicateLocalContinuous(t *testing.T) {
	view := cluster.NewStaticView([]cluster.Member{{Name: "node1"}})
	svc := newTestService("node1", view)

	out, err := svc.Replicate(context.Background(),
		model.ReplicationCommand{Source: "a", Target: "b", Continuous: true})
	require.NoError(t, err)
	assert.Equal(t, ReplyStarted, out.Kind)
	require.Len(t, svc.Registry().Tasks(), 1)
}

func TestReplicateRoutesToRemoteOwner(t *testing.T) {
	var gotCmd model.ReplicationCommand
	owner := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/_node/replicate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotCmd))
		json.NewEncoder(w).Encode(Outcome{OK: true, JobID: "remote1", Kind: ReplyCompleted})
	}))
	defer owner.Close()

	// With a single remote member, routing has exactly one destination.
	view := cluster.NewStaticView([]cluster.Member{{Name: "node2", AdminURL: owner.URL}})
	svc := newTestService("node1", view)

	cmd := model.ReplicationCommand{Source: "a", Target: "b"}
	out, err := svc.Replicate(context.Background(), cmd)
	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.Equal(t, "remote1", out.JobID)
	assert.Equal(t, cmd.Source, gotCmd.Source)
}

func TestCancelReconcilesAcrossMembers(t *testing.T) {
	miss1 := notFoundPeer(t)
	defer miss1.Close()
	miss2 := notFoundPeer(t)
	defer miss2.Close()

	hit := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Outcome{OK: true, JobID: "rep1", Kind: ReplyCancelled})
	}))
	defer hit.Close()

	view := cluster.NewStaticView([]cluster.Member{
		{Name: "node1", AdminURL: miss1.URL},
		{Name: "node2", AdminURL: miss2.URL},
		{Name: "node3", AdminURL: hit.URL},
	})
	svc := newTestService("coordinator", view)

	out, err := svc.Replicate(context.Background(),
		model.ReplicationCommand{Source: "a", Target: "b", Cancel: true})
	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.Equal(t, "rep1", out.JobID)
	assert.Equal(t, ReplyCancelled, out.Kind)
}

func TestCancelNowhereFoundIsBadRPC(t *testing.T) {
	miss := notFoundPeer(t)
	defer miss.Close()

	view := cluster.NewStaticView([]cluster.Member{
		{Name: "node2", AdminURL: miss.URL},
		{Name: "node3", AdminURL: "http://127.0.0.1:1"},
	})
	svc := newTestService("node1", view) // not in the view; all calls remote

	_, err := svc.Replicate(context.Background(),
		model.ReplicationCommand{Source: "a", Target: "b", Cancel: true})
	require.Error(t, err)
	assert.Equal(t, adminerrors.CodeRemoteUnavailable, adminerrors.CodeOf(err))
	assert.Contains(t, err.Error(), "badrpc")
}

func TestCancelFindsLocalJob(t *testing.T) {
	view := cluster.NewStaticView([]cluster.Member{{Name: "node1"}})
	svc := newTestService("node1", view)

	cmd := model.ReplicationCommand{Source: "a", Target: "b", Continuous: true}
	started, err := svc.Replicate(context.Background(), cmd)
	require.NoError(t, err)

	cmd.Cancel = true
	out, err := svc.Replicate(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, ReplyCancelled, out.Kind)
	assert.Equal(t, started.JobID, out.JobID)
	assert.Empty(t, svc.Registry().Tasks())
}

func TestExecuteLocalCancelNotFound(t *testing.T) {
	svc := newTestService("node1", cluster.NewStaticView(nil))

	_, err := svc.ExecuteLocal(model.ReplicationCommand{Source: "a", Target: "b", Cancel: true})
	require.Error(t, err)
	assert.Equal(t, adminerrors.CodeNotFound, adminerrors.CodeOf(err))
}

func TestActiveTasksMergesMembers(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/_node/tasks", r.URL.Path)
		json.NewEncoder(w).Encode([]model.TaskRecord{
			{Member: "node2", JobID: "bbb", State: "running"},
		})
	}))
	defer remote.Close()

	view := cluster.NewStaticView([]cluster.Member{
		{Name: "node1"},
		{Name: "node2", AdminURL: remote.URL},
		{Name: "node3", AdminURL: "http://127.0.0.1:1"}, // skipped, unreachable
	})
	svc := newTestService("node1", view)
	svc.Registry().Start(model.ReplicationCommand{Source: "a", Target: "b", Continuous: true})

	tasks := svc.ActiveTasks(context.Background())
	require.Len(t, tasks, 2)
	assert.Equal(t, "node1", tasks[0].Member)
	assert.Equal(t, "node2", tasks[1].Member)
}
