package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ksyq12/vhostctl/internal/driver"
	"github.com/ksyq12/vhostctl/internal/host"
)

// Response messages.
const (
	MsgCreated   = "Virtual host has been created."
	MsgDeleted   = "Virtual host has been deleted."
	MsgCommandOK = "Command has been completed successfully."
)

// Service is the part of the lifecycle orchestrator the API needs.
type Service interface {
	Create(ctx context.Context, domain string, ownerID int64) (*host.Host, error)
	Delete(ctx context.Context, f host.Filter) error
	Get(ctx context.Context, f host.Filter) (*host.Host, error)
	List(ctx context.Context, ownerID int64, page int) (host.Page, error)
	Control(ctx context.Context, verb driver.Verb) error
	Ping(ctx context.Context) error
}

// HostResource is the public view of a host.
type HostResource struct {
	ID     int64  `json:"id"`
	Domain string `json:"domain"`
	Port   int    `json:"port"`
	URL    string `json:"url"`
}

func newHostResource(h *host.Host) HostResource {
	return HostResource{ID: h.ID, Domain: h.Domain, Port: h.Port, URL: h.URL()}
}

// Pager describes the page returned by the list endpoint.
type Pager struct {
	Total       int `json:"total"`
	LastPage    int `json:"lastPage"`
	PerPage     int `json:"perPage"`
	CurrentPage int `json:"currentPage"`
}

// ListResponse is the body of GET /vhosts.
type ListResponse struct {
	Hosts []HostResource `json:"hosts"`
	Meta  struct {
		Pager Pager `json:"pager"`
	} `json:"meta"`
}

// HostResponse is the body of GET /vhost/{id}.
type HostResponse struct {
	Host HostResource `json:"host"`
}

// CreateRequest is the body of POST /vhost/create.
type CreateRequest struct {
	Name string `json:"name"`
}

// CreateResponse is the body of a successful create.
type CreateResponse struct {
	Message string       `json:"message"`
	Host    HostResource `json:"host"`
}

// DeleteRequest is the body of DELETE /vhost/delete.
type DeleteRequest struct {
	ID int64 `json:"id"`
}

// Handler serves the host and webserver endpoints.
type Handler struct {
	svc    Service
	logger *zap.Logger
}

// NewHandler creates a new handler
func NewHandler(svc Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// List handles GET /vhosts
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	p, err := h.svc.List(r.Context(), OwnerFrom(r.Context()), page)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	var resp ListResponse
	resp.Hosts = make([]HostResource, 0, len(p.Items))
	for i := range p.Items {
		resp.Hosts = append(resp.Hosts, newHostResource(&p.Items[i]))
	}
	resp.Meta.Pager = Pager{
		Total:       p.Total,
		LastPage:    p.LastPage,
		PerPage:     p.PerPage,
		CurrentPage: p.CurrentPage,
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// Get handles GET /vhost/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		respondWithMessage(w, http.StatusNotFound, "Virtual host is not found.")
		return
	}

	vh, err := h.svc.Get(r.Context(), host.Filter{ID: id, OwnerID: OwnerFrom(r.Context())})
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, HostResponse{Host: newHostResource(vh)})
}

// Create handles POST /vhost/create
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode create request", zap.Error(err))
		respondWithMessage(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	vh, err := h.svc.Create(r.Context(), req.Name, OwnerFrom(r.Context()))
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, CreateResponse{Message: MsgCreated, Host: newHostResource(vh)})
}

// Delete handles DELETE /vhost/delete
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	var req DeleteRequest
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode delete request", zap.Error(err))
		respondWithMessage(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if req.ID < 1 {
		respondWithErrors(w, http.StatusUnprocessableEntity, "The id field is required.")
		return
	}

	err := h.svc.Delete(r.Context(), host.Filter{ID: req.ID, OwnerID: OwnerFrom(r.Context())})
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithMessage(w, http.StatusOK, MsgDeleted)
}

// Webserver handles GET /webserver/{verb}
func (h *Handler) Webserver(w http.ResponseWriter, r *http.Request) {
	verb := driver.Verb(chi.URLParam(r, "verb"))
	switch verb {
	case driver.VerbStart, driver.VerbStop, driver.VerbRestart, driver.VerbReload:
	default:
		respondWithMessage(w, http.StatusNotFound, "Not found.")
		return
	}

	if err := h.svc.Control(r.Context(), verb); err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithMessage(w, http.StatusOK, MsgCommandOK)
}

// Health handles GET /healthz. It never depends on the store.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready handles GET /readyz
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Ping(r.Context()); err != nil {
		h.logger.Error("readiness check failed: store unavailable", zap.Error(err))
		respondWithMessage(w, http.StatusServiceUnavailable, "Service unavailable.")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
