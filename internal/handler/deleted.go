package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/quillstore/admind/internal/catalog"
	"github.com/quillstore/admind/internal/model"
)

// DeletedDatabases handles GET /_deleted_dbs: either the full tombstone
// listing (conditional, paginated) or, with ?key=, the retained versions
// of one database name.
func (h *Handlers) DeletedDatabases(w http.ResponseWriter, r *http.Request) {
	if key := r.URL.Query().Get("key"); key != "" {
		versions, err := h.catalog.DeletedVersions(key)
		if err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		h.writeJSON(w, http.StatusOK, versions)
		return
	}

	h.conditionalListing(w, r, func(opts model.PageOptions, emit catalog.EmitFunc) error {
		return h.catalog.EnumerateDeleted(r.Context(), opts, emit)
	})
}

// undeleteRequest is the POST /_deleted_dbs body.
type undeleteRequest struct {
	Undelete *struct {
		Source          string `json:"source"`
		SourceTimestamp string `json:"source_timestamp"`
		Target          string `json:"target"`
	} `json:"undelete"`
}

// UndeleteDatabase handles POST /_deleted_dbs. Required fields are
// validated before the catalog is touched.
func (h *Handlers) UndeleteDatabase(w http.ResponseWriter, r *http.Request) {
	var body undeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.errorHandler.WriteValidation(w, "invalid request body", requestID(r))
		return
	}
	if body.Undelete == nil {
		h.errorHandler.WriteValidation(w, "undelete is required", requestID(r))
		return
	}
	if body.Undelete.Source == "" {
		h.errorHandler.WriteValidation(w, "source is required", requestID(r))
		return
	}
	if body.Undelete.SourceTimestamp == "" {
		h.errorHandler.WriteValidation(w, "source_timestamp is required", requestID(r))
		return
	}

	err := h.catalog.Undelete(body.Undelete.Source, body.Undelete.Target, body.Undelete.SourceTimestamp)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordCatalogMutation("undelete")
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// RemoveDeletedDatabase handles DELETE /_deleted_dbs/{name}: the
// timestamp-qualified hard delete of one tombstone.
func (h *Handlers) RemoveDeletedDatabase(w http.ResponseWriter, r *http.Request) {
	name := pathVar(r, "name")
	timestamp := r.URL.Query().Get("timestamp")
	if timestamp == "" {
		h.errorHandler.WriteValidation(w, "timestamp is required", requestID(r))
		return
	}

	if err := h.catalog.Remove(name, timestamp); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordCatalogMutation("remove")
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func pathVar(r *http.Request, name string) string {
	return mux.Vars(r)[name]
}
