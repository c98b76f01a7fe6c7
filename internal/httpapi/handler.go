// Package httpapi exposes the thin HTTP boundary of the discovery service.
//
// Routes:
//
//	GET /jobs/search → tiered retrieval for a search query
//	GET /health      → liveness probe
//
// The presentation layer proper lives outside this service; this handler
// only translates query parameters to a SearchSpec and maps the
// coordinator's single caller-visible error to a status code.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/CredenceNG/jobs-matching-sub002/internal/coordinator"
	"github.com/CredenceNG/jobs-matching-sub002/internal/model"
)

// Retriever is the coordinator contract the handler consumes.
type Retriever interface {
	Retrieve(ctx context.Context, spec model.SearchSpec) (*coordinator.Result, error)
}

// Handler holds shared dependencies.
type Handler struct {
	retriever Retriever
	version   string
	log       zerolog.Logger
}

// NewHandler returns a configured Handler.
func NewHandler(retriever Retriever, version string, log zerolog.Logger) *Handler {
	return &Handler{
		retriever: retriever,
		version:   version,
		log:       log.With().Str("component", "httpapi").Logger(),
	}
}

// RegisterRoutes mounts all discovery-service routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/jobs/search", h.handleSearch)
	mux.HandleFunc("/health", h.handleHealth)
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	spec, err := specFromQuery(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.retriever.Retrieve(r.Context(), spec)
	if err != nil {
		if errors.Is(err, coordinator.ErrUpstreamExhausted) {
			jsonError(w, "no job source could answer this search, try again later", http.StatusBadGateway)
			return
		}
		h.log.Error().Err(err).Msg("retrieve failed")
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	jsonOK(w, result)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	jsonOK(w, map[string]string{
		"status":  "ok",
		"service": "discovery-service",
		"version": h.version,
	})
}

// specFromQuery builds a SearchSpec from URL query parameters. The
// coordinator normalises it; only structurally invalid values are
// rejected here.
func specFromQuery(r *http.Request) (model.SearchSpec, error) {
	q := r.URL.Query()

	spec := model.SearchSpec{
		Keywords:       q.Get("keywords"),
		Location:       q.Get("location"),
		EmploymentType: q.Get("employmentType"),
		Remote:         strings.EqualFold(q.Get("remote"), "true"),
		Page:           1,
	}

	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return spec, errors.New("page must be a positive integer")
		}
		spec.Page = page
	}
	if v := q.Get("salaryMin"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return spec, errors.New("salaryMin must be an integer")
		}
		spec.SalaryMin = &n
	}
	if v := q.Get("salaryMax"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return spec, errors.New("salaryMax must be an integer")
		}
		spec.SalaryMax = &n
	}

	return spec, nil
}

func jsonOK(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
