package model

// ReplicationCommand is an administrative replication request. Source and
// target are opaque identifiers; the router only uses them as hash
// material and never interprets them.
type ReplicationCommand struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	Cancel       bool   `json:"cancel,omitempty"`
	Continuous   bool   `json:"continuous,omitempty"`
	CreateTarget bool   `json:"create_target,omitempty"`
	Filter       string `json:"filter,omitempty"`
}

// RoutingKey returns the byte material the cluster router hashes to pick
// an owning member. Same command content, same key.
func (c ReplicationCommand) RoutingKey() []byte {
	return []byte(c.Source + c.Target)
}

// TaskRecord is one entry of a member's replication task registry, as
// returned by the broadcast task collection.
type TaskRecord struct {
	Member     string `json:"node"`
	JobID      string `json:"replication_id"`
	Type       string `json:"type"`
	Source     string `json:"source"`
	Target     string `json:"target"`
	State      string `json:"state"`
	Continuous bool   `json:"continuous"`
	StartedAt  string `json:"started_on"`
	UpdatedAt  string `json:"updated_on"`
}
