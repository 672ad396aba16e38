package replicator

import (
	"go.uber.org/zap"
)

// Reconcile reduces the replies of a broadcast cancellation to one
// canonical outcome, favoring a confirmed success over ambiguity:
//
//  1. any cancelled reply wins — cancellation is idempotent across
//     members, one confirmation is sufficient;
//  2. unanimous agreement of the non-error replies wins;
//  3. nothing but not-found and transport failures means no member ever
//     started the job — a badrpc verdict;
//  4. otherwise one arbitrary error reply, excluding not-found values when
//     possible since not-found is the expected answer from every
//     non-owner and says nothing about the failure cause.
//
// The step-4 pick is intentionally imprecise; the full reply set is
// logged before reduction so nothing is silently dropped. The set is
// consumed once and discarded.
func Reconcile(replies []Reply, logger *zap.Logger) Reply {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug("reconciling broadcast replies", zap.Any("replies", replies))

	if len(replies) == 0 {
		return Reply{Kind: ReplyBadRPC, Reason: "no replies received"}
	}

	// Step 1: success dominates.
	for _, r := range replies {
		if r.Kind == ReplyCancelled {
			return r
		}
	}

	// Step 2: universal agreement of the non-error replies.
	var agreed *Reply
	unanimous := true
	for i := range replies {
		if replies[i].IsError() {
			continue
		}
		if agreed == nil {
			agreed = &replies[i]
		} else if !agreed.same(replies[i]) {
			unanimous = false
			break
		}
	}
	if agreed != nil && unanimous {
		return *agreed
	}

	// Step 3: only not-found and transport failures remain.
	onlyBenign := true
	for _, r := range replies {
		if r.Kind != ReplyNotFound && r.Kind != ReplyUnreachable {
			onlyBenign = false
			break
		}
	}
	if agreed == nil && onlyBenign {
		return Reply{Kind: ReplyBadRPC, Reason: "replication job not found on any reachable member"}
	}

	// Step 4: arbitrary error reply, preferring anything over not-found.
	var fallback *Reply
	for i := range replies {
		if !replies[i].IsError() {
			continue
		}
		if replies[i].Kind != ReplyNotFound {
			return replies[i]
		}
		if fallback == nil {
			fallback = &replies[i]
		}
	}
	if fallback != nil {
		return *fallback
	}
	// Mixed non-error replies with no dominant success.
	return Reply{Kind: ReplyError, Reason: "members disagree on replication outcome"}
}
