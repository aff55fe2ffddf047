package http

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/example/booking-portal/internal/logging"
)

// handlerLogger derives a handler-scoped logger, preferring the
// request-scoped logger installed by RequestLogger over the fallback.
func handlerLogger(ctx context.Context, fallback zerolog.Logger, handlerName, operation string) zerolog.Logger {
	logger := logging.FromContext(ctx)
	if logger.GetLevel() == zerolog.Disabled {
		logger = fallback
	}

	lc := logger.With().Str("handler", handlerName)
	if operation != "" {
		lc = lc.Str("operation", operation)
	}
	return lc.Logger()
}
