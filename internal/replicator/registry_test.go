package replicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adminerrors "github.com/quillstore/admind/internal/errors"
	"github.com/quillstore/admind/internal/model"
)

func TestJobIDDeterministic(t *testing.T) {
	cmd := model.ReplicationCommand{Source: "a", Target: "b"}
	assert.Equal(t, JobID(cmd), JobID(cmd))

	other := model.ReplicationCommand{Source: "a", Target: "c"}
	assert.NotEqual(t, JobID(cmd), JobID(other))
}

func TestJobIDContinuousSuffix(t *testing.T) {
	oneShot := model.ReplicationCommand{Source: "a", Target: "b"}
	continuous := model.ReplicationCommand{Source: "a", Target: "b", Continuous: true}

	assert.NotContains(t, JobID(oneShot), "+continuous")
	assert.Contains(t, JobID(continuous), "+continuous")
}

func TestJobIDFilterChangesIdentity(t *testing.T) {
	plain := model.ReplicationCommand{Source: "a", Target: "b"}
	filtered := model.ReplicationCommand{Source: "a", Target: "b", Filter: "docs/recent"}

	assert.NotEqual(t, JobID(plain), JobID(filtered))
}

func TestRegistryStartStates(t *testing.T) {
	reg := NewRegistry("node1", nil)

	oneShot := reg.Start(model.ReplicationCommand{Source: "a", Target: "b"})
	assert.Equal(t, "completed", oneShot.State)

	continuous := reg.Start(model.ReplicationCommand{Source: "a", Target: "c", Continuous: true})
	assert.Equal(t, "running", continuous.State)
}

func TestRegistryCancel(t *testing.T) {
	reg := NewRegistry("node1", nil)
	cmd := model.ReplicationCommand{Source: "a", Target: "b", Continuous: true}
	started := reg.Start(cmd)

	job, err := reg.Cancel(cmd)
	require.NoError(t, err)
	assert.Equal(t, started.ID, job.ID)
	assert.Equal(t, "cancelled", job.State)

	// Cancelled jobs leave the registry; a second cancel is not-found.
	_, err = reg.Cancel(cmd)
	require.Error(t, err)
	assert.Equal(t, adminerrors.CodeNotFound, adminerrors.CodeOf(err))
}

func TestRegistryCancelUnknownJob(t *testing.T) {
	reg := NewRegistry("node1", nil)

	_, err := reg.Cancel(model.ReplicationCommand{Source: "x", Target: "y"})
	require.Error(t, err)
	assert.Equal(t, adminerrors.CodeNotFound, adminerrors.CodeOf(err))
}

func TestRegistryTasksSorted(t *testing.T) {
	reg := NewRegistry("node1", nil)
	reg.Start(model.ReplicationCommand{Source: "m", Target: "n", Continuous: true})
	reg.Start(model.ReplicationCommand{Source: "a", Target: "b", Continuous: true})
	reg.Start(model.ReplicationCommand{Source: "x", Target: "y", Continuous: true})

	tasks := reg.Tasks()
	require.Len(t, tasks, 3)
	for i := 1; i < len(tasks); i++ {
		assert.LessOrEqual(t, tasks[i-1].JobID, tasks[i].JobID)
	}
	for _, task := range tasks {
		assert.Equal(t, "node1", task.Member)
		assert.Equal(t, "replication", task.Type)
		assert.Equal(t, "running", task.State)
	}
}

func TestRegistryResubmitRefreshes(t *testing.T) {
	reg := NewRegistry("node1", nil)
	cmd := model.ReplicationCommand{Source: "a", Target: "b", Continuous: true}

	first := reg.Start(cmd)
	second := reg.Start(cmd)
	assert.Equal(t, first.ID, second.ID)
	require.Len(t, reg.Tasks(), 1)
}
