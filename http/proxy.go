package http

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mediafold/mediafold"
	"github.com/mediafold/mediafold/metrics"
)

// serveRead handles capability-protected reads under /read/{store}/*.
// The method allow-list is checked before the capability so that probing
// with other verbs never learns whether a capability would have verified.
func (h *Handler) serveRead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Only GET and HEAD are supported")
		return
	}

	outcome := h.verifier.VerifyQuery(r.URL.Path, r.URL.Query(), time.Now())
	metrics.RecordCapabilityCheck(outcome)

	switch outcome {
	case mediafold.OutcomeInvalid:
		WriteError(w, http.StatusForbidden, "forbidden", "Invalid signature")
		return
	case mediafold.OutcomeExpired:
		WriteError(w, http.StatusGone, "gone", "Capability expired")
		return
	}

	storeName := chi.URLParam(r, "store")
	key := chi.URLParam(r, "*")

	store, err := h.service.Store(storeName)
	if err != nil {
		HandleError(w, err)
		return
	}

	content, contentType, err := store.Get(r.Context(), key)
	if err != nil {
		HandleError(w, err)
		return
	}
	defer content.Close()

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.Header().Set("Cache-Control", "private, max-age=3600")

	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}

	n, err := io.Copy(w, content)
	metrics.RecordReadBytes(storeName, n)
	if err != nil {
		// Headers are already out; all we can do is log the broken stream.
		slog.Debug("read stream interrupted", "store", storeName, "key", key, "error", err)
	}
}
