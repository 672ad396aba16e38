// Package health provides liveness and readiness endpoints.
package health

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/quillstore/admind/internal/cluster"
)

// Check serves the liveness and readiness endpoints. Maintenance mode
// only changes the liveness status code; the rest of the API keeps
// serving.
type Check struct {
	view        cluster.View
	logger      *zap.Logger
	maintenance atomic.Bool
}

// New creates the health check handlers.
func New(view cluster.View, maintenance bool, logger *zap.Logger) *Check {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Check{view: view, logger: logger}
	c.maintenance.Store(maintenance)
	return c
}

// SetMaintenance flips maintenance mode at runtime.
func (c *Check) SetMaintenance(on bool) {
	c.maintenance.Store(on)
}

// UpHandler handles GET /_up. A node in maintenance mode answers 404 so
// load balancers drain it.
func (c *Check) UpHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if c.maintenance.Load() {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"status": "maintenance_mode"})
		return
	}
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// ReadyHandler handles GET /_ready: the node is ready once it can see at
// least one cluster member (itself included).
func (c *Check) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if len(c.view.Members()) == 0 {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "no_cluster_members"})
		return
	}
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}
