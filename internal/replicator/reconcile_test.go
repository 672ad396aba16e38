package replicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReconcileCancelledDominates(t *testing.T) {
	replies := []Reply{
		{Member: "node1", Kind: ReplyNotFound},
		{Member: "node2", Kind: ReplyCancelled, JobID: "rep1"},
		{Member: "node3", Kind: ReplyNotFound},
	}

	verdict := Reconcile(replies, nil)
	assert.Equal(t, ReplyCancelled, verdict.Kind)
	assert.Equal(t, "rep1", verdict.JobID)
}

func TestReconcileCancelledBeatsErrors(t *testing.T) {
	replies := []Reply{
		{Member: "node1", Kind: ReplyError, Reason: "disk on fire"},
		{Member: "node2", Kind: ReplyUnreachable},
		{Member: "node3", Kind: ReplyCancelled, JobID: "rep9"},
	}

	verdict := Reconcile(replies, nil)
	assert.Equal(t, ReplyCancelled, verdict.Kind)
	assert.Equal(t, "rep9", verdict.JobID)
}

func TestReconcileUnanimousAgreement(t *testing.T) {
	replies := []Reply{
		{Member: "node1", Kind: ReplyStopped, JobID: "rep2"},
		{Member: "node2", Kind: ReplyStopped, JobID: "rep2"},
		{Member: "node3", Kind: ReplyStopped, JobID: "rep2"},
	}

	verdict := Reconcile(replies, nil)
	assert.Equal(t, ReplyStopped, verdict.Kind)
	assert.Equal(t, "rep2", verdict.JobID)
}

func TestReconcileAgreementIgnoresErrorReplies(t *testing.T) {
	replies := []Reply{
		{Member: "node1", Kind: ReplyNotFound},
		{Member: "node2", Kind: ReplyCompleted, JobID: "rep3"},
		{Member: "node3", Kind: ReplyUnreachable},
	}

	verdict := Reconcile(replies, nil)
	assert.Equal(t, ReplyCompleted, verdict.Kind)
	assert.Equal(t, "rep3", verdict.JobID)
}

func TestReconcileOnlyNotFoundIsBadRPC(t *testing.T) {
	replies := []Reply{
		{Member: "node1", Kind: ReplyNotFound},
		{Member: "node2", Kind: ReplyNotFound},
	}

	verdict := Reconcile(replies, nil)
	assert.Equal(t, ReplyBadRPC, verdict.Kind)
	assert.NotEmpty(t, verdict.Reason)
}

func TestReconcileNotFoundPlusUnreachableIsBadRPC(t *testing.T) {
	replies := []Reply{
		{Member: "node1", Kind: ReplyNotFound},
		{Member: "node2", Kind: ReplyUnreachable, Reason: "dial refused"},
		{Member: "node3", Kind: ReplyNotFound},
	}

	verdict := Reconcile(replies, nil)
	assert.Equal(t, ReplyBadRPC, verdict.Kind)
}

func TestReconcilePrefersInformativeError(t *testing.T) {
	// The not-found replies are the expected answer from non-owners and
	// must not mask the real failure.
	replies := []Reply{
		{Member: "node1", Kind: ReplyNotFound},
		{Member: "node2", Kind: ReplyError, Reason: "registry corrupted"},
		{Member: "node3", Kind: ReplyNotFound},
	}

	verdict := Reconcile(replies, nil)
	assert.Equal(t, ReplyError, verdict.Kind)
	assert.Equal(t, "registry corrupted", verdict.Reason)
}

func TestReconcileDisagreeingSuccesses(t *testing.T) {
	replies := []Reply{
		{Member: "node1", Kind: ReplyStopped, JobID: "rep1"},
		{Member: "node2", Kind: ReplyCompleted, JobID: "rep1"},
	}

	verdict := Reconcile(replies, nil)
	assert.Equal(t, ReplyError, verdict.Kind)
	assert.NotEmpty(t, verdict.Reason)
}

func TestReconcileEmptySet(t *testing.T) {
	verdict := Reconcile(nil, nil)
	assert.Equal(t, ReplyBadRPC, verdict.Kind)
}
