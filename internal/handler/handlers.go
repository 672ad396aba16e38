// Package handler provides the HTTP handlers of the admin API.
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/quillstore/admind/internal/catalog"
	"github.com/quillstore/admind/internal/cluster"
	adminerrors "github.com/quillstore/admind/internal/errors"
	"github.com/quillstore/admind/internal/metrics"
	"github.com/quillstore/admind/internal/model"
	"github.com/quillstore/admind/internal/replicator"
	"github.com/quillstore/admind/internal/stream"
)

// Handlers contains all admin API handlers and their dependencies.
type Handlers struct {
	catalog      *catalog.Catalog
	repl         *replicator.Service
	view         cluster.View
	conditional  *stream.Conditional
	errorHandler *adminerrors.Handler
	metrics      *metrics.Metrics
	maxInfoKeys  int
	logger       *zap.Logger
}

// NewHandlers creates a Handlers instance.
func NewHandlers(
	cat *catalog.Catalog,
	repl *replicator.Service,
	view cluster.View,
	errorHandler *adminerrors.Handler,
	m *metrics.Metrics,
	maxInfoKeys int,
	logger *zap.Logger,
) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		catalog:      cat,
		repl:         repl,
		view:         view,
		conditional:  stream.NewConditional(logger),
		errorHandler: errorHandler,
		metrics:      m,
		maxInfoKeys:  maxInfoKeys,
		logger:       logger,
	}
}

// parsePageOptions reads pagination query parameters. Parsed once per
// request; the result is passed through unchanged.
func parsePageOptions(r *http.Request) (model.PageOptions, error) {
	q := r.URL.Query()
	opts := model.PageOptions{
		StartKey:  q.Get("start_key"),
		EndKey:    q.Get("end_key"),
		Direction: model.DirectionForward,
	}
	if q.Get("descending") == "true" {
		opts.Direction = model.DirectionReverse
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return opts, adminerrors.Validation("invalid limit %q", s)
		}
		opts.Limit = n
	}
	if s := q.Get("skip"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return opts, adminerrors.Validation("invalid skip %q", s)
		}
		opts.Skip = n
	}
	if err := opts.Validate(); err != nil {
		return opts, adminerrors.Validation("%v", err)
	}
	return opts, nil
}

// conditionalListing runs one conditional streaming enumeration keyed by
// the catalog metadata version.
func (h *Handlers) conditionalListing(
	w http.ResponseWriter,
	r *http.Request,
	enumerate func(model.PageOptions, catalog.EmitFunc) error,
) {
	opts, err := parsePageOptions(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	etag := stream.ETag(h.catalog.Version())
	resp := h.conditional.Respond(w, r, etag, func(resp *stream.Responder) error {
		return enumerate(opts, resp.Apply)
	})
	if h.metrics != nil {
		if resp == nil {
			h.metrics.RecordConditional(true, 0)
		} else {
			h.metrics.RecordConditional(false, resp.Rows())
		}
	}
}

// AllDatabases handles GET /_all_dbs.
func (h *Handlers) AllDatabases(w http.ResponseWriter, r *http.Request) {
	h.conditionalListing(w, r, func(opts model.PageOptions, emit catalog.EmitFunc) error {
		return h.catalog.EnumerateNames(r.Context(), opts, emit)
	})
}

// DatabasesInfo handles GET /_dbs_info.
func (h *Handlers) DatabasesInfo(w http.ResponseWriter, r *http.Request) {
	h.conditionalListing(w, r, func(opts model.PageOptions, emit catalog.EmitFunc) error {
		return h.catalog.EnumerateInfo(r.Context(), opts, emit)
	})
}

// DatabasesInfoPost handles POST /_dbs_info: an explicit key list, capped
// at the configured maximum. A failed lookup is isolated to its key
// inside the array instead of aborting the listing.
func (h *Handlers) DatabasesInfoPost(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Keys []string `json:"keys"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.errorHandler.WriteValidation(w, "invalid request body", requestID(r))
		return
	}
	if body.Keys == nil {
		h.errorHandler.WriteValidation(w, "keys is required", requestID(r))
		return
	}
	if len(body.Keys) > h.maxInfoKeys {
		h.errorHandler.WriteValidation(w,
			"too many keys: maximum is "+strconv.Itoa(h.maxInfoKeys), requestID(r))
		return
	}

	results := make([]model.KeyedInfo, 0, len(body.Keys))
	for _, key := range body.Keys {
		info, err := h.catalog.Info(key)
		if err != nil {
			results = append(results, model.KeyedInfo{Key: key, Error: "not_found"})
			continue
		}
		results = append(results, model.KeyedInfo{Key: key, Info: info})
	}
	h.writeJSON(w, http.StatusOK, results)
}

// CreateDatabase handles POST /_dbs.
func (h *Handlers) CreateDatabase(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.errorHandler.WriteValidation(w, "invalid request body", requestID(r))
		return
	}
	if err := h.catalog.Create(body.Name); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordCatalogMutation("create")
	}
	h.writeJSON(w, http.StatusCreated, map[string]bool{"ok": true})
}

// DeleteDatabase handles DELETE /_dbs/{name}: a soft delete leaving a
// tombstone behind.
func (h *Handlers) DeleteDatabase(w http.ResponseWriter, r *http.Request) {
	name := pathVar(r, "name")
	if err := h.catalog.SoftDelete(name); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordCatalogMutation("soft_delete")
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// writeJSON writes a JSON response.
func (h *Handlers) writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

func requestID(r *http.Request) string {
	return r.Header.Get("X-Request-ID")
}
