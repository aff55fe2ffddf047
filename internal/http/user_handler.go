package http

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/example/booking-portal/internal/application"
)

type userService interface {
	ListUsers(ctx context.Context, principal application.Principal) ([]application.User, error)
}

type UserHandler struct {
	users     userService
	responder responder
	logger    zerolog.Logger
}

func NewUserHandler(users userService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{users: users, responder: newResponder(logger), logger: logger}
}

func (h *UserHandler) log(ctx context.Context, operation string) zerolog.Logger {
	if h == nil {
		return zerolog.Nop()
	}
	return handlerLogger(ctx, h.logger, "UserHandler", operation)
}

// List returns every account, ordered by username. Accounts are created by
// registration or directory logins, never through this handler. Admin only.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.users == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List").With().Str("principal_id", principal.UserID).Logger()

	users, err := h.users.ListUsers(r.Context(), principal)
	if err != nil {
		logger.Error().Err(err).Str("error_kind", application.ErrorKind(err)).Msg("user list failed")
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.Info().Int("result_count", len(users)).Msg("users listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listUsersResponse{Users: toUserDTOs(users)})
}

type listUsersResponse struct {
	Users []userDTO `json:"users"`
}
