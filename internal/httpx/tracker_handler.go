package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/ariefcatur/go-checkout-session/internal/tracker"
	"github.com/go-chi/chi/v5"
)

// StatusReader is the read side of the tracker projection.
type StatusReader interface {
	Status(ctx context.Context, reference string) (tracker.TxStatus, error)
}

type TrackerHandler struct {
	Statuses StatusReader
}

func (h *TrackerHandler) Register(r chi.Router) {
	r.Get("/transactions/{reference}/status", h.getStatus)
}

func (h *TrackerHandler) getStatus(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "reference")
	st, err := h.Statuses.Status(r.Context(), ref)
	if errors.Is(err, tracker.ErrUnknownReference) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, st)
}
