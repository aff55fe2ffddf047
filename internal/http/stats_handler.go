package http

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/example/booking-portal/internal/application"
)

type statsService interface {
	Snapshot(ctx context.Context) (application.Stats, error)
}

type StatsHandler struct {
	stats     statsService
	responder responder
	logger    zerolog.Logger
}

func NewStatsHandler(stats statsService, logger zerolog.Logger) *StatsHandler {
	return &StatsHandler{stats: stats, responder: newResponder(logger), logger: logger}
}

// Get returns the dashboard aggregates, recomputed per request.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.stats == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	stats, err := h.stats.Snapshot(r.Context())
	if err != nil {
		logger := handlerLogger(r.Context(), h.logger, "StatsHandler", "Get")
		logger.Error().Err(err).Str("error_kind", application.ErrorKind(err)).Msg("stats snapshot failed")
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, statsResponse{
		TotalRooms:      stats.TotalRooms,
		AvailableRooms:  stats.AvailableRooms,
		TodayBookings:   stats.TodayBookings,
		UtilizationRate: stats.UtilizationRate,
	})
}

type statsResponse struct {
	TotalRooms      int `json:"totalRooms"`
	AvailableRooms  int `json:"availableRooms"`
	TodayBookings   int `json:"todayBookings"`
	UtilizationRate int `json:"utilizationRate"`
}
