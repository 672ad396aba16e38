package handler

import (
	"encoding/json"
	"net/http"

	"github.com/quillstore/admind/internal/model"
	"github.com/quillstore/admind/internal/replicator"
)

// Replicate handles POST /_replicate. Start commands are routed to their
// deterministically chosen owner; cancels are broadcast and reconciled.
// Continuous starts answer 202, everything else 200.
func (h *Handlers) Replicate(w http.ResponseWriter, r *http.Request) {
	var cmd model.ReplicationCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		h.errorHandler.WriteValidation(w, "invalid request body", requestID(r))
		return
	}

	out, err := h.repl.Replicate(r.Context(), cmd)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if h.metrics != nil {
		if cmd.Cancel {
			h.metrics.RecordReconcile(string(out.Kind))
		} else {
			h.metrics.RoutedCommands.Inc()
		}
	}

	status := http.StatusOK
	if out.Kind == replicator.ReplyStarted {
		status = http.StatusAccepted
	}
	h.writeJSON(w, status, out)
}

// ActiveTasks handles GET /_active_tasks: a broadcast task collection
// over every member, sorted by (member, job id).
func (h *Handlers) ActiveTasks(w http.ResponseWriter, r *http.Request) {
	tasks := h.repl.ActiveTasks(r.Context())
	if tasks == nil {
		tasks = []model.TaskRecord{}
	}
	h.writeJSON(w, http.StatusOK, tasks)
}

// Membership handles GET /_membership.
func (h *Handlers) Membership(w http.ResponseWriter, r *http.Request) {
	members := h.view.Members()
	names := make([]string, 0, len(members))
	for _, m := range members {
		names = append(names, m.Name)
	}
	h.writeJSON(w, http.StatusOK, map[string][]string{"cluster_nodes": names})
}

// NodeReplicate handles POST /_node/replicate, the member-to-member
// execute target of routed and broadcast replication commands.
func (h *Handlers) NodeReplicate(w http.ResponseWriter, r *http.Request) {
	var cmd model.ReplicationCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		h.errorHandler.WriteValidation(w, "invalid request body", requestID(r))
		return
	}

	out, err := h.repl.ExecuteLocal(cmd)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, out)
}

// NodeTasks handles GET /_node/tasks, the member-to-member task
// collection target.
func (h *Handlers) NodeTasks(w http.ResponseWriter, r *http.Request) {
	tasks := h.repl.Registry().Tasks()
	if tasks == nil {
		tasks = []model.TaskRecord{}
	}
	h.writeJSON(w, http.StatusOK, tasks)
}
