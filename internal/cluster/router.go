package cluster

import (
	"hash/crc32"
	"sort"

	adminerrors "github.com/quillstore/admind/internal/errors"
	"github.com/quillstore/admind/internal/model"
)

// crcTable is precomputed for routing key checksums.
var crcTable = crc32.MakeTable(crc32.IEEE)

// Router deterministically picks the cluster member that owns a
// replication command, without any coordination round-trip: a CRC32 of
// the command's routing key, mod the member count over a name-sorted
// list. Client retries of the same command land on the same member.
//
// This is static hash placement, not a consistent-hash ring; a membership
// change reshuffles ownership of in-flight commands, which only moves
// where a command is dispatched, never the correctness of its result.
type Router struct {
	view View
}

// NewRouter creates a router over the given membership view.
func NewRouter(view View) *Router {
	return &Router{view: view}
}

// Route selects the owning member for cmd. Routing fails when the
// membership view is empty; callers surface that as service-unavailable
// and never dispatch to a null destination.
func (r *Router) Route(cmd model.ReplicationCommand) (Member, error) {
	members := r.view.Members()
	if len(members) == 0 {
		return Member{}, adminerrors.NoClusterMembers()
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Name < members[j].Name })

	sum := crc32.Checksum(cmd.RoutingKey(), crcTable)
	return members[int(sum%uint32(len(members)))], nil
}
