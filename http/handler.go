// Package http serves the gateway API: a capability-protected read proxy
// for the backing stores and a credential-protected management API for
// listing, uploading and batching file actions.
package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mediafold/mediafold"
	"github.com/mediafold/mediafold/metrics"
	"github.com/mediafold/mediafold/vault"
)

// Service is the gateway surface the HTTP layer exposes. It matches the
// vault so the handler can be wired straight onto one, while tests supply
// a fake.
type Service interface {
	// List returns the contents of a directory in the primary store.
	List(ctx context.Context, dirKey string, recursive bool) (mediafold.DirectoryListing, error)

	// Upload stores a batch of files under a target directory and
	// registers them.
	Upload(ctx context.Context, targetDir string, uploads []mediafold.UploadEntry) ([]mediafold.FileEntry, error)

	// Copy copies or moves each mapping independently.
	Copy(ctx context.Context, mappings []mediafold.FileKeyMapping, deleteSource bool) ([]mediafold.FileActionResult, error)

	// Delete removes each key independently.
	Delete(ctx context.Context, keys []string) (mediafold.DeleteReport, error)

	// ReadonlyURLs mints capability URLs for the given keys.
	ReadonlyURLs(ctx context.Context, storeName string, keys []string) (mediafold.ReadonlyURLs, error)

	// FilesInfo returns registry state for each key, materializing
	// records and thumbnails for files the registry has not seen.
	FilesInfo(ctx context.Context, keys []string) ([]mediafold.FileEntry, error)

	// Entries pages through the registry's live file states.
	Entries(ctx context.Context, q mediafold.ListQuery) (mediafold.ListResult, error)

	// Populate walks a directory tree and reconciles the registry with it.
	Populate(ctx context.Context, dirKey string) (int, error)

	// Sweep removes cached thumbnails whose source no longer exists.
	Sweep(ctx context.Context) (int, error)

	// Store resolves a backing store by its public name.
	Store(name string) (mediafold.Store, error)
}

// HandlerConfig holds the configuration for creating a Handler.
type HandlerConfig struct {
	Service  Service
	Verifier *mediafold.Verifier
	Auth     BasicAuthConfig

	// Translator, when set, rewrites the base URL of issued capability
	// URLs for clients on the external side of a split-horizon setup.
	Translator *mediafold.AddressTranslator

	// CORSAllowedOrigins enables CORS on the API when non-empty.
	CORSAllowedOrigins []string

	// EnableMetrics exposes Prometheus metrics on /metrics.
	EnableMetrics bool
}

// Handler serves the read proxy and the management API.
type Handler struct {
	service    Service
	verifier   *mediafold.Verifier
	translator *mediafold.AddressTranslator
	router     chi.Router
}

// NewHandler creates an HTTP handler over the given service.
func NewHandler(config HandlerConfig) *Handler {
	h := &Handler{
		service:    config.Service,
		verifier:   config.Verifier,
		translator: config.Translator,
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(metrics.Middleware)

	if len(config.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   config.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "HEAD", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.HandleFunc(vault.ReadPrefix+"/{store}/*", h.serveRead)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(BasicAuthMiddleware(config.Auth))

		r.Get("/files", h.handleList)
		r.Post("/files", h.handleUpload)
		r.Post("/files/info", h.handleFilesInfo)
		r.Get("/registry", h.handleRegistry)
		r.Post("/actions", h.handleAction)
		r.Post("/urls", h.handleURLs)
		r.Post("/populate", h.handlePopulate)
		r.Post("/sweep", h.handleSweep)
	})

	if config.EnableMetrics {
		r.Handle("/metrics", metrics.Handler())
	}

	h.router = r
	return h
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	dir := r.URL.Query().Get("dir")
	recursive := r.URL.Query().Get("recursive") == "true"

	listing, err := h.service.List(r.Context(), dir, recursive)
	if err != nil {
		HandleError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, listing); err != nil {
		HandleError(w, err)
	}
}

type uploadRequest struct {
	TargetDir string                  `json:"target_dir"`
	Files     []mediafold.UploadEntry `json:"files"`
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_input", "Invalid JSON body")
		return
	}

	entries, err := h.service.Upload(r.Context(), req.TargetDir, req.Files)
	if err != nil {
		HandleError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, entries); err != nil {
		HandleError(w, err)
	}
}

type actionResponse struct {
	Results []mediafold.FileActionResult `json:"results"`
}

// handleAction validates a batched file action and dispatches it. Copy and
// move share a code path; delete returns its per-key report reshaped into
// the common results form.
func (h *Handler) handleAction(w http.ResponseWriter, r *http.Request) {
	var req mediafold.FileActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_input", "Invalid JSON body")
		return
	}

	if err := req.Validate(); err != nil {
		HandleError(w, err)
		return
	}

	var results []mediafold.FileActionResult
	var err error

	switch req.Operation {
	case mediafold.OpCopy, mediafold.OpMove:
		results, err = h.service.Copy(r.Context(), req.Mappings(), req.Operation == mediafold.OpMove)
	case mediafold.OpDelete:
		var report mediafold.DeleteReport
		report, err = h.service.Delete(r.Context(), req.Sources)
		if err == nil {
			for _, key := range report.Succeeded {
				results = append(results, mediafold.FileActionResult{Key: key, Success: true})
			}
			results = append(results, report.Failed...)
		}
	}
	if err != nil {
		HandleError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, actionResponse{Results: results}); err != nil {
		HandleError(w, err)
	}
}

type urlsRequest struct {
	Store string   `json:"store"`
	Keys  []string `json:"keys"`
}

func (h *Handler) handleURLs(w http.ResponseWriter, r *http.Request) {
	var req urlsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_input", "Invalid JSON body")
		return
	}

	urls, err := h.service.ReadonlyURLs(r.Context(), req.Store, req.Keys)
	if err != nil {
		HandleError(w, err)
		return
	}

	if h.translator != nil {
		urls.BaseURL = h.translator.Translate(urls.BaseURL)
	}

	metrics.RecordCapabilitiesIssued(len(urls.Paths))

	if err := WriteJSON(w, http.StatusOK, urls); err != nil {
		HandleError(w, err)
	}
}

type filesInfoRequest struct {
	Keys []string `json:"keys"`
}

func (h *Handler) handleFilesInfo(w http.ResponseWriter, r *http.Request) {
	var req filesInfoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_input", "Invalid JSON body")
		return
	}

	entries, err := h.service.FilesInfo(r.Context(), req.Keys)
	if err != nil {
		HandleError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, entries); err != nil {
		HandleError(w, err)
	}
}

type registryResponse struct {
	Items      []mediafold.FileEntry `json:"items"`
	NextCursor string                `json:"next_cursor,omitempty"`
}

func (h *Handler) handleRegistry(w http.ResponseWriter, r *http.Request) {
	q := mediafold.ListQuery{
		KeyPrefix: r.URL.Query().Get("dir"),
		Cursor:    r.URL.Query().Get("cursor"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			WriteError(w, http.StatusBadRequest, "invalid_input", "Invalid limit")
			return
		}
		q.Limit = limit
	}

	result, err := h.service.Entries(r.Context(), q)
	if err != nil {
		HandleError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, registryResponse{Items: result.Items, NextCursor: result.NextCursor}); err != nil {
		HandleError(w, err)
	}
}

type populateRequest struct {
	Dir string `json:"dir"`
}

type countResponse struct {
	Count int `json:"count"`
}

func (h *Handler) handlePopulate(w http.ResponseWriter, r *http.Request) {
	var req populateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_input", "Invalid JSON body")
		return
	}

	count, err := h.service.Populate(r.Context(), req.Dir)
	if err != nil {
		HandleError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, countResponse{Count: count}); err != nil {
		HandleError(w, err)
	}
}

func (h *Handler) handleSweep(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.Sweep(r.Context())
	if err != nil {
		HandleError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, countResponse{Count: count}); err != nil {
		HandleError(w, err)
	}
}
