package model

// DatabaseInfo is the metadata record the catalog keeps per database.
type DatabaseInfo struct {
	Name        string `json:"db_name"`
	DocCount    int64  `json:"doc_count"`
	DocDelCount int64  `json:"doc_del_count"`
	SizeBytes   int64  `json:"size_bytes"`
	CreatedAt   string `json:"created_at"`
	UpdateSeq   uint64 `json:"update_seq"`
}

// KeyedInfo is one element of a databases-info listing. Exactly one of
// Info and Error is set; a failed per-key lookup is isolated to its own
// element instead of aborting the listing.
type KeyedInfo struct {
	Key   string        `json:"key"`
	Info  *DatabaseInfo `json:"info,omitempty"`
	Error string        `json:"error,omitempty"`
}

// DeletedDatabaseRecord is a tombstone left behind by a soft delete. It is
// created by the catalog when a database is deleted with retention enabled
// and destroyed by undelete or a timestamped hard remove; nothing else
// mutates it.
type DeletedDatabaseRecord struct {
	Name      string       `json:"key"`
	DeletedAt string       `json:"timestamp"`
	Info      DatabaseInfo `json:"info"`
}

// DeletedVersion is one retained deletion of a database name, used by the
// per-name tombstone lookup.
type DeletedVersion struct {
	Timestamp string       `json:"timestamp"`
	Info      DatabaseInfo `json:"info"`
}
