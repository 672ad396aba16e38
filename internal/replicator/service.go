package replicator

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"

	"go.uber.org/zap"

	"github.com/quillstore/admind/internal/cluster"
	adminerrors "github.com/quillstore/admind/internal/errors"
	"github.com/quillstore/admind/internal/model"
)

const (
	nodeReplicatePath = "/_node/replicate"
	nodeTasksPath     = "/_node/tasks"
)

// Outcome is the client-facing result of a replication command.
type Outcome struct {
	OK    bool      `json:"ok"`
	JobID string    `json:"_local_id,omitempty"`
	Kind  ReplyKind `json:"kind,omitempty"`
}

// Service orchestrates replication commands across the cluster: routed
// dispatch for start commands, broadcast plus reconciliation for cancels,
// and cluster-wide task collection.
type Service struct {
	self     string
	view     cluster.View
	router   *cluster.Router
	peers    *cluster.PeerClient
	registry *Registry
	fanout   int
	logger   *zap.Logger
}

// NewService creates the replication orchestration service. self names
// this node in the membership view so local dispatch skips the network.
func NewService(self string, view cluster.View, peers *cluster.PeerClient, registry *Registry, fanout int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		self:     self,
		view:     view,
		router:   cluster.NewRouter(view),
		peers:    peers,
		registry: registry,
		fanout:   fanout,
		logger:   logger,
	}
}

// Registry exposes the node-local job registry for the node-internal
// endpoints.
func (s *Service) Registry() *Registry {
	return s.registry
}

// Replicate validates and dispatches one replication command. Start
// commands go to exactly one deterministically chosen member and the
// single reply is passed through, with remote-invocation failure
// surfaced as-is — retry policy belongs to the caller. Cancel commands
// are broadcast to every member and the replies reconciled.
func (s *Service) Replicate(ctx context.Context, cmd model.ReplicationCommand) (*Outcome, error) {
	if cmd.Source == "" {
		return nil, adminerrors.Validation("source is required")
	}
	if cmd.Target == "" {
		return nil, adminerrors.Validation("target is required")
	}

	if cmd.Cancel {
		return s.cancel(ctx, cmd)
	}

	member, err := s.router.Route(cmd)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("routed replication command",
		zap.String("source", cmd.Source),
		zap.String("target", cmd.Target),
		zap.String("member", member.Name),
	)

	if member.Name == s.self {
		job := s.registry.Start(cmd)
		return outcomeForStart(job), nil
	}

	var out Outcome
	if err := s.peers.Call(ctx, member, http.MethodPost, nodeReplicatePath, cmd, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExecuteLocal runs cmd against this node's registry. It backs the
// node-internal replicate endpoint that routed and broadcast calls hit.
func (s *Service) ExecuteLocal(cmd model.ReplicationCommand) (*Outcome, error) {
	if cmd.Cancel {
		job, err := s.registry.Cancel(cmd)
		if err != nil {
			return nil, err
		}
		return &Outcome{OK: true, JobID: job.ID, Kind: ReplyCancelled}, nil
	}
	return outcomeForStart(s.registry.Start(cmd)), nil
}

// cancel broadcasts the cancellation to every member and reduces the
// reply set. Individual member unavailability is absorbed into the set;
// the operation fails outright only when routing has no members at all.
func (s *Service) cancel(ctx context.Context, cmd model.ReplicationCommand) (*Outcome, error) {
	members := s.view.Members()
	if len(members) == 0 {
		return nil, adminerrors.NoClusterMembers()
	}

	replies := make([]Reply, 0, len(members))
	var remote []cluster.Member
	for _, m := range members {
		if m.Name == s.self {
			replies = append(replies, s.localCancelReply(cmd))
			continue
		}
		remote = append(remote, m)
	}

	for _, res := range s.peers.Broadcast(ctx, remote, http.MethodPost, nodeReplicatePath, cmd, s.fanout) {
		replies = append(replies, replyFromBroadcast(res))
	}

	verdict := Reconcile(replies, s.logger)
	switch verdict.Kind {
	case ReplyCancelled, ReplyStopped, ReplyCompleted, ReplyStarted:
		return &Outcome{OK: true, JobID: verdict.JobID, Kind: verdict.Kind}, nil
	case ReplyBadRPC:
		return nil, &adminerrors.AdminError{
			Code:    adminerrors.CodeRemoteUnavailable,
			Message: "badrpc: " + verdict.Reason,
		}
	default:
		return nil, adminerrors.Ambiguous(verdict.Reason)
	}
}

func (s *Service) localCancelReply(cmd model.ReplicationCommand) Reply {
	out, err := s.ExecuteLocal(cmd)
	if err != nil {
		if adminerrors.Is(err, adminerrors.CodeNotFound) {
			return Reply{Member: s.self, Kind: ReplyNotFound}
		}
		return Reply{Member: s.self, Kind: ReplyError, Reason: err.Error()}
	}
	return Reply{Member: s.self, Kind: out.Kind, JobID: out.JobID}
}

// replyFromBroadcast folds one broadcast result into the reconciliation
// set: transport failures become unreachable replies, remote not-found
// stays not-found, everything else decodes as the member's outcome.
func replyFromBroadcast(res cluster.BroadcastResult) Reply {
	if res.Err != nil {
		switch adminerrors.CodeOf(res.Err) {
		case adminerrors.CodeNotFound:
			return Reply{Member: res.Member.Name, Kind: ReplyNotFound}
		case adminerrors.CodeRemoteUnavailable:
			return Reply{Member: res.Member.Name, Kind: ReplyUnreachable, Reason: res.Err.Error()}
		default:
			return Reply{Member: res.Member.Name, Kind: ReplyError, Reason: res.Err.Error()}
		}
	}
	var out Outcome
	if err := decodeOutcome(res.Body, &out); err != nil {
		return Reply{Member: res.Member.Name, Kind: ReplyError, Reason: err.Error()}
	}
	return Reply{Member: res.Member.Name, Kind: out.Kind, JobID: out.JobID}
}

// ActiveTasks collects task records from every member, tolerating
// unreachable members, and returns them sorted by (member, job id) since
// cross-member arrival order is not meaningful.
func (s *Service) ActiveTasks(ctx context.Context) []model.TaskRecord {
	var tasks []model.TaskRecord
	var remote []cluster.Member
	for _, m := range s.view.Members() {
		if m.Name == s.self {
			tasks = append(tasks, s.registry.Tasks()...)
			continue
		}
		remote = append(remote, m)
	}

	for _, res := range s.peers.Broadcast(ctx, remote, http.MethodGet, nodeTasksPath, nil, s.fanout) {
		if res.Err != nil {
			s.logger.Warn("task collection skipped unreachable member",
				zap.String("member", res.Member.Name),
				zap.Error(res.Err),
			)
			continue
		}
		var memberTasks []model.TaskRecord
		if err := decodeOutcome(res.Body, &memberTasks); err != nil {
			s.logger.Warn("task collection got malformed reply",
				zap.String("member", res.Member.Name),
				zap.Error(err),
			)
			continue
		}
		tasks = append(tasks, memberTasks...)
	}

	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].Member != tasks[j].Member {
			return tasks[i].Member < tasks[j].Member
		}
		return tasks[i].JobID < tasks[j].JobID
	})
	return tasks
}

func decodeOutcome(raw []byte, out interface{}) error {
	if len(raw) == 0 {
		return adminerrors.Internal("empty peer reply", nil)
	}
	return json.Unmarshal(raw, out)
}

func outcomeForStart(job *Job) *Outcome {
	kind := ReplyCompleted
	if job.Continuous {
		kind = ReplyStarted
	}
	return &Outcome{OK: true, JobID: job.ID, Kind: kind}
}
