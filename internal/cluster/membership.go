// Package cluster provides the membership view, the deterministic
// replication command router, and member-to-member calls.
package cluster

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/hashicorp/memberlist"
	"go.uber.org/zap"
)

// Member identifies one cluster member and where its admin API listens.
type Member struct {
	Name     string `json:"name"`
	AdminURL string `json:"admin_url"`
}

// View is the read-only cluster membership consulted at routing time.
// Implementations return members sorted by name; the core never mutates
// membership.
type View interface {
	Members() []Member
	Lookup(name string) (Member, bool)
}

// StaticView is a fixed membership, used for single-node deployments and
// tests.
type StaticView struct {
	members []Member
}

// NewStaticView creates a view over a fixed member set.
func NewStaticView(members []Member) *StaticView {
	sorted := append([]Member(nil), members...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return &StaticView{members: sorted}
}

func (v *StaticView) Members() []Member {
	return append([]Member(nil), v.members...)
}

func (v *StaticView) Lookup(name string) (Member, bool) {
	for _, m := range v.members {
		if m.Name == name {
			return m, true
		}
	}
	return Member{}, false
}

// GossipConfig holds memberlist configuration for the gossip view.
type GossipConfig struct {
	NodeName       string
	BindPort       int
	SeedNodes      []string
	AdminURL       string
	GossipInterval time.Duration
	ProbeTimeout   time.Duration
	ProbeInterval  time.Duration
}

// nodeMeta is gossiped as each node's memberlist metadata so peers can
// resolve a member name to its admin endpoint.
type nodeMeta struct {
	AdminURL string `json:"admin_url"`
}

// GossipView is a memberlist-backed membership view. Membership is read
// fresh on every Members call; it may change between calls.
type GossipView struct {
	ml     *memberlist.Memberlist
	meta   nodeMeta
	logger *zap.Logger
}

// NewGossipView creates the gossip view and joins the seed nodes.
func NewGossipView(cfg GossipConfig, logger *zap.Logger) (*GossipView, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	v := &GossipView{
		meta:   nodeMeta{AdminURL: cfg.AdminURL},
		logger: logger,
	}

	mlConfig := memberlist.DefaultLocalConfig()
	mlConfig.Name = cfg.NodeName
	mlConfig.BindPort = cfg.BindPort
	if cfg.GossipInterval > 0 {
		mlConfig.GossipInterval = cfg.GossipInterval
	}
	if cfg.ProbeTimeout > 0 {
		mlConfig.ProbeTimeout = cfg.ProbeTimeout
	}
	if cfg.ProbeInterval > 0 {
		mlConfig.ProbeInterval = cfg.ProbeInterval
	}
	mlConfig.Delegate = v
	mlConfig.Events = &gossipEvents{logger: logger}

	ml, err := memberlist.Create(mlConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create memberlist: %w", err)
	}
	v.ml = ml

	if len(cfg.SeedNodes) > 0 {
		if _, err := ml.Join(cfg.SeedNodes); err != nil {
			logger.Warn("failed to join some seed nodes", zap.Error(err))
		}
	}

	return v, nil
}

// Members returns the current alive members sorted by name.
func (v *GossipView) Members() []Member {
	nodes := v.ml.Members()
	members := make([]Member, 0, len(nodes))
	for _, n := range nodes {
		members = append(members, memberFromNode(n))
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Name < members[j].Name })
	return members
}

// Lookup resolves one member by name.
func (v *GossipView) Lookup(name string) (Member, bool) {
	for _, n := range v.ml.Members() {
		if n.Name == name {
			return memberFromNode(n), true
		}
	}
	return Member{}, false
}

func memberFromNode(n *memberlist.Node) Member {
	m := Member{Name: n.Name}
	var meta nodeMeta
	if len(n.Meta) > 0 && json.Unmarshal(n.Meta, &meta) == nil {
		m.AdminURL = meta.AdminURL
	}
	return m
}

// Shutdown leaves the cluster.
func (v *GossipView) Shutdown() error {
	return v.ml.Shutdown()
}

// NodeMeta implements memberlist.Delegate.
func (v *GossipView) NodeMeta(limit int) []byte {
	data, _ := json.Marshal(v.meta)
	if len(data) > limit {
		return data[:limit]
	}
	return data
}

// NotifyMsg implements memberlist.Delegate.
func (v *GossipView) NotifyMsg(data []byte) {}

// GetBroadcasts implements memberlist.Delegate.
func (v *GossipView) GetBroadcasts(overhead, limit int) [][]byte {
	return nil
}

// LocalState implements memberlist.Delegate.
func (v *GossipView) LocalState(join bool) []byte {
	return nil
}

// MergeRemoteState implements memberlist.Delegate.
func (v *GossipView) MergeRemoteState(buf []byte, join bool) {}

// gossipEvents logs membership changes.
type gossipEvents struct {
	logger *zap.Logger
}

func (e *gossipEvents) NotifyJoin(node *memberlist.Node) {
	e.logger.Info("member joined",
		zap.String("name", node.Name),
		zap.String("addr", node.Addr.String()),
	)
}

func (e *gossipEvents) NotifyLeave(node *memberlist.Node) {
	e.logger.Info("member left", zap.String("name", node.Name))
}

func (e *gossipEvents) NotifyUpdate(node *memberlist.Node) {
	e.logger.Debug("member updated", zap.String("name", node.Name))
}
