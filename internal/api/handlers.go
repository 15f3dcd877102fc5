package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/zk/internal/zettelservice"
)

const maxBodyBytes = 10 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *zettelservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *zettelservice.Service) *Handler {
	return &Handler{svc: svc}
}

// ListZettels handles GET /api/zettels?limit=&offset=.
func (h *Handler) ListZettels(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.svc.ListZettels(r.Context(), limit, offset)
	if err != nil {
		writeError(w, "list zettels", err)
		return
	}
	writeJSON(w, http.StatusOK, ZettelListResponse{Zettels: items, Total: total})
}

// GetZettel handles GET /api/zettels/{id}.
func (h *Handler) GetZettel(w http.ResponseWriter, r *http.Request) {
	z, err := h.svc.GetZettel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get zettel", err)
		return
	}
	writeJSON(w, http.StatusOK, z)
}

// SaveZettel handles PUT /api/zettels/{id}. An If-Match header carrying
// the current checksum guards against lost updates.
func (h *Handler) SaveZettel(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req SaveZettelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`)

	z, err := h.svc.SaveZettel(r.Context(), chi.URLParam(r, "id"), []byte(req.Content), ifMatch)
	if err != nil {
		writeError(w, "save zettel", err)
		return
	}
	writeJSON(w, http.StatusOK, z)
}

// DeleteZettel handles DELETE /api/zettels/{id}.
func (h *Handler) DeleteZettel(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteZettel(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete zettel", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Prepare handles POST /api/zettels/{id}/prepare.
func (h *Handler) Prepare(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Prepare(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "prepare zettel", err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, res)
}

// Rename handles POST /api/zettels/{id}/rename.
func (h *Handler) Rename(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req RenameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.To == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("body must be {\"to\": \"<new id>\"}"))
		return
	}
	rewritten, err := h.svc.Rename(r.Context(), chi.URLParam(r, "id"), req.To)
	if err != nil {
		writeError(w, "rename zettel", err)
		return
	}
	if rewritten == nil {
		rewritten = []string{}
	}
	writeJSON(w, http.StatusOK, RenameResponse{ID: req.To, Rewritten: rewritten})
}

// Neighbors handles GET /api/zettels/{id}/neighbors.
func (h *Handler) Neighbors(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Neighbors(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "neighbors", err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// Search handles GET /api/search?q=&limit=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Graph handles GET /api/graph.
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	nodes, links, err := h.svc.Graph(r.Context())
	if err != nil {
		writeError(w, "graph", err)
		return
	}
	writeJSON(w, http.StatusOK, GraphResponse{Nodes: nodes, Links: links})
}
