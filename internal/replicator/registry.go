// Package replicator routes replication commands to their owning cluster
// member, reconciles broadcast cancellation replies, and keeps the
// node-local replication job registry.
package replicator

import (
	"fmt"
	"hash/crc32"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	adminerrors "github.com/quillstore/admind/internal/errors"
	"github.com/quillstore/admind/internal/model"
)

// JobID derives the deterministic identifier of a replication job from
// the command content, so retries and cancels address the same job
// without coordination.
func JobID(cmd model.ReplicationCommand) string {
	sum := crc32.ChecksumIEEE([]byte(cmd.Source + "|" + cmd.Target + "|" + cmd.Filter))
	id := fmt.Sprintf("%08x", sum)
	if cmd.Continuous {
		id += "+continuous"
	}
	return id
}

// Job is one tracked replication job on this node. The transfer itself is
// executed by the replication engine; the registry only tracks lifecycle.
type Job struct {
	ID         string
	Source     string
	Target     string
	Continuous bool
	State      string
	StartedAt  time.Time
	UpdatedAt  time.Time
}

// Registry tracks the replication jobs owned by this node.
type Registry struct {
	node   string
	logger *zap.Logger

	mu   sync.Mutex
	jobs map[string]*Job
}

// NewRegistry creates an empty registry for the named node.
func NewRegistry(node string, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		node:   node,
		logger: logger,
		jobs:   make(map[string]*Job),
	}
}

// Start registers the job for cmd, or refreshes it when the same command
// is resubmitted. Continuous jobs stay running; one-shot jobs complete as
// soon as the engine finishes (modelled here as immediate completion).
func (r *Registry) Start(cmd model.ReplicationCommand) *Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := JobID(cmd)
	nowTS := time.Now().UTC()

	job, ok := r.jobs[id]
	if !ok {
		job = &Job{
			ID:         id,
			Source:     cmd.Source,
			Target:     cmd.Target,
			Continuous: cmd.Continuous,
			StartedAt:  nowTS,
		}
		r.jobs[id] = job
	}
	if cmd.Continuous {
		job.State = "running"
	} else {
		job.State = "completed"
	}
	job.UpdatedAt = nowTS

	r.logger.Info("replication job registered",
		zap.String("job_id", id),
		zap.String("state", job.State),
	)
	return job
}

// Cancel stops the job for cmd. Cancellation is idempotent; a job unknown
// to this node reports not-found, the expected answer from every member
// that was not the job's owner.
func (r *Registry) Cancel(cmd model.ReplicationCommand) (*Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := JobID(cmd)
	job, ok := r.jobs[id]
	if !ok {
		return nil, adminerrors.NotFound("replication job " + id)
	}

	job.State = "cancelled"
	job.UpdatedAt = time.Now().UTC()
	delete(r.jobs, id)

	r.logger.Info("replication job cancelled", zap.String("job_id", id))
	return job, nil
}

// Tasks returns this node's task records sorted by job id.
func (r *Registry) Tasks() []model.TaskRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	tasks := make([]model.TaskRecord, 0, len(r.jobs))
	for _, job := range r.jobs {
		tasks = append(tasks, model.TaskRecord{
			Member:     r.node,
			JobID:      job.ID,
			Type:       "replication",
			Source:     job.Source,
			Target:     job.Target,
			State:      job.State,
			Continuous: job.Continuous,
			StartedAt:  job.StartedAt.Format(time.RFC3339),
			UpdatedAt:  job.UpdatedAt.Format(time.RFC3339),
		})
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].JobID < tasks[j].JobID })
	return tasks
}
