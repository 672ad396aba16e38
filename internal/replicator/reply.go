package replicator

// ReplyKind classifies one member's answer to a replication command.
type ReplyKind string

const (
	// ReplyCancelled confirms the member stopped the job.
	ReplyCancelled ReplyKind = "cancelled"
	// ReplyStarted confirms a continuous job was registered.
	ReplyStarted ReplyKind = "started"
	// ReplyCompleted confirms a one-shot job ran to completion.
	ReplyCompleted ReplyKind = "completed"
	// ReplyStopped confirms an already-stopped job.
	ReplyStopped ReplyKind = "stopped"
	// ReplyNotFound means the member never owned the job.
	ReplyNotFound ReplyKind = "not_found"
	// ReplyUnreachable means the member could not be called at all.
	ReplyUnreachable ReplyKind = "unreachable"
	// ReplyError is any other per-member failure.
	ReplyError ReplyKind = "error"
	// ReplyBadRPC is the reconciliation verdict when the only replies were
	// not-found and transport failures: no member ever started the job.
	ReplyBadRPC ReplyKind = "badrpc"
)

// Reply is one member's answer in a reconciliation set.
type Reply struct {
	Member string    `json:"node,omitempty"`
	Kind   ReplyKind `json:"kind"`
	JobID  string    `json:"_local_id,omitempty"`
	Reason string    `json:"reason,omitempty"`
}

// IsError reports whether the reply is a failure of any kind.
func (r Reply) IsError() bool {
	switch r.Kind {
	case ReplyNotFound, ReplyUnreachable, ReplyError, ReplyBadRPC:
		return true
	}
	return false
}

// same reports whether two replies carry the same outcome, ignoring which
// member produced them.
func (r Reply) same(other Reply) bool {
	return r.Kind == other.Kind && r.JobID == other.JobID
}
