package http

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"
)

// Pinger reports whether the backing store answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db        Pinger
	responder responder
	logger    zerolog.Logger
}

func NewHealthHandler(db Pinger, logger zerolog.Logger) *HealthHandler {
	return &HealthHandler{db: db, responder: newResponder(logger), logger: logger}
}

// Check answers 200 while the process is up and the database responds, 503
// otherwise. Load balancers poll it.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if h == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			logger := handlerLogger(r.Context(), h.logger, "HealthHandler", "Check")
			logger.Error().Err(err).Msg("database ping failed")
			h.responder.writeJSON(r.Context(), w, http.StatusServiceUnavailable, healthResponse{Status: "degraded"})
			return
		}
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, healthResponse{Status: "ok"})
}

type healthResponse struct {
	Status string `json:"status"`
}
