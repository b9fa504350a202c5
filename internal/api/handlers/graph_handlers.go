// Package handlers adapts graph.Engine operations to HTTP, following the
// respondJSON/respondError envelope.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/lineagehub/graphd/internal/api/middleware"
	"github.com/lineagehub/graphd/internal/graph"
)

// GraphHandlers adapts graph.Engine operations to HTTP handlers.
type GraphHandlers struct {
	Engine *graph.Engine
}

// NewGraphHandlers wires a GraphHandlers around the given engine.
func NewGraphHandlers(e *graph.Engine) *GraphHandlers {
	return &GraphHandlers{Engine: e}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError maps an error to the taxonomy: NotFound -> 404,
// BadRequest -> 400, everything else (DependencyFailure and unexpected
// errors) -> 500 with a correlating requestId.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var notFound *graph.NotFoundError
	if errors.As(err, &notFound) {
		respondJSON(w, http.StatusNotFound, map[string]string{"error": "Not Found"})
		return
	}

	var badRequest *graph.BadRequestError
	if errors.As(err, &badRequest) {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": badRequest.Message})
		return
	}

	requestID := chimw.GetReqID(r.Context())
	log.Error().Err(err).Str("request_id", requestID).Str("path", r.URL.Path).Msg("request failed")
	respondJSON(w, http.StatusInternalServerError, map[string]string{
		"error":   err.Error(),
		"requestId": requestID,
	})
}

func (h *GraphHandlers) GetNode(w http.ResponseWriter, r *http.Request) {
	org := middleware.GetOrg(r.Context())
	id := chi.URLParam(r, "id")

	n, status, err := h.Engine.GetNode(r.Context(), org, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.Header().Set("X-Node-Cache", string(status))
	respondJSON(w, http.StatusOK, n)
}

func (h *GraphHandlers) ListNodes(w http.ResponseWriter, r *http.Request) {
	org := middleware.GetOrg(r.Context())
	q := r.URL.Query()
	filter := graph.NodeFilter{
		Type:   q.Get("type"),
		CreatedBy: q.Get("created_by"),
		UpdatedBy: q.Get("updated_by"),
		Page:   queryInt(q, "page", 1),
		Limit:   queryInt(q, "limit", 100),
		SortBy:  q.Get("sort_by"),
		SortOrder: q.Get("sort_order"),
	}

	result, err := h.Engine.ListNodes(r.Context(), org, filter)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *GraphHandlers) CreateNode(w http.ResponseWriter, r *http.Request) {
	org := middleware.GetOrg(r.Context())
	var n graph.Node
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "malformed request body"})
		return
	}

	created, err := h.Engine.CreateNode(r.Context(), org, &n, middleware.PrincipalFromRequest(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, created)
}

func (h *GraphHandlers) UpdateNode(w http.ResponseWriter, r *http.Request) {
	org := middleware.GetOrg(r.Context())
	id := chi.URLParam(r, "id")
	var n graph.Node
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "malformed request body"})
		return
	}

	updated, err := h.Engine.UpdateNode(r.Context(), org, id, &n, middleware.PrincipalFromRequest(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *GraphHandlers) DeleteNode(w http.ResponseWriter, r *http.Request) {
	org := middleware.GetOrg(r.Context())
	id := chi.URLParam(r, "id")

	result, err := h.Engine.DeleteNode(r.Context(), org, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *GraphHandlers) CreateEdge(w http.ResponseWriter, r *http.Request) {
	org := middleware.GetOrg(r.Context())
	var e graph.Edge
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "malformed request body"})
		return
	}

	created, err := h.Engine.CreateEdge(r.Context(), org, &e, middleware.PrincipalFromRequest(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, created)
}

func (h *GraphHandlers) GetEdge(w http.ResponseWriter, r *http.Request) {
	org := middleware.GetOrg(r.Context())
	id := chi.URLParam(r, "id")

	e, err := h.Engine.GetEdge(r.Context(), org, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, e)
}

func (h *GraphHandlers) ListEdges(w http.ResponseWriter, r *http.Request) {
	org := middleware.GetOrg(r.Context())
	q := r.URL.Query()
	filter := graph.EdgeFilter{
		Type: q.Get("type"),
		From: q.Get("from"),
		To:  q.Get("to"),
		Limit: queryInt(q, "limit", 20),
	}

	result, err := h.Engine.ListEdges(r.Context(), org, filter)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *GraphHandlers) UpdateEdge(w http.ResponseWriter, r *http.Request) {
	org := middleware.GetOrg(r.Context())
	id := chi.URLParam(r, "id")
	var e graph.Edge
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "malformed request body"})
		return
	}

	updated, err := h.Engine.UpdateEdge(r.Context(), org, id, &e, middleware.PrincipalFromRequest(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *GraphHandlers) DeleteEdge(w http.ResponseWriter, r *http.Request) {
	org := middleware.GetOrg(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.Engine.DeleteEdge(r.Context(), org, id); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

func (h *GraphHandlers) Query(w http.ResponseWriter, r *http.Request) {
	org := middleware.GetOrg(r.Context())
	var req graph.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "malformed request body"})
		return
	}

	result, err := h.Engine.Query(r.Context(), org, req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *GraphHandlers) Traverse(w http.ResponseWriter, r *http.Request) {
	org := middleware.GetOrg(r.Context())
	var req graph.TraverseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "malformed request body"})
		return
	}

	result, err := h.Engine.Traverse(r.Context(), org, req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *GraphHandlers) Export(w http.ResponseWriter, r *http.Request) {
	org := middleware.GetOrg(r.Context())

	snap, err := h.Engine.Export(r.Context(), org)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (h *GraphHandlers) Import(w http.ResponseWriter, r *http.Request) {
	org := middleware.GetOrg(r.Context())
	var body struct {
		Nodes []graph.Node `json:"nodes"`
		Edges []graph.Edge `json:"edges"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "malformed request body"})
		return
	}

	result, err := h.Engine.Import(r.Context(), org, body.Nodes, body.Edges, middleware.PrincipalFromRequest(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func queryInt(q map[string][]string, key string, fallback int) int {
	v := firstOr(q[key], "")
	if v == "" {
		return fallback
	}
	if i, err := strconv.Atoi(v); err == nil {
		return i
	}
	return fallback
}

func firstOr(vals []string, fallback string) string {
	if len(vals) == 0 {
		return fallback
	}
	return vals[0]
}
