package application

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/booking-portal/internal/availability"
)

// StatsSource aggregates the counters behind the dashboard snapshot.
type StatsSource interface {
	CountActiveRooms(ctx context.Context) (int, error)
	CountConfirmedOn(ctx context.Context, date string) (int, error)
	CountRoomsBusyAt(ctx context.Context, date, clock string) (int, error)
}

const defaultWorkdayHours = 8

// StatsService computes the dashboard snapshot per request; nothing is
// cached. "Today" and "now" are taken from the service clock in the
// configured timezone.
type StatsService struct {
	source       StatsSource
	workdayHours int
	location     *time.Location
	now          func() time.Time
	logger       zerolog.Logger
}

// NewStatsService constructs a stats service with the provided dependencies.
func NewStatsService(source StatsSource, workdayHours int, location *time.Location, now func() time.Time) *StatsService {
	return NewStatsServiceWithLogger(source, workdayHours, location, now, zerolog.Nop())
}

// NewStatsServiceWithLogger constructs a stats service with a specified logger.
func NewStatsServiceWithLogger(source StatsSource, workdayHours int, location *time.Location, now func() time.Time, logger zerolog.Logger) *StatsService {
	if workdayHours <= 0 {
		workdayHours = defaultWorkdayHours
	}
	if location == nil {
		location = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &StatsService{
		source:       source,
		workdayHours: workdayHours,
		location:     location,
		now:          now,
		logger:       logger,
	}
}

// Snapshot reports the room counts and utilization for the current moment.
// A room is unavailable when a confirmed booking's interval contains "now";
// utilization is today's confirmed bookings against the active rooms' workday
// capacity.
func (s *StatsService) Snapshot(ctx context.Context) (stats Stats, err error) {
	if s == nil {
		err = fmt.Errorf("StatsService is nil")
		return
	}
	if s.source == nil {
		err = fmt.Errorf("stats source not configured")
		return
	}

	logger := serviceLogger(ctx, s.logger, "StatsService", "Snapshot")
	defer func() {
		if err != nil {
			logger.Error().Err(err).Str("error_kind", ErrorKind(err)).Msg("failed to compute stats")
			return
		}
		logger.Info().
			Int("total_rooms", stats.TotalRooms).
			Int("available_rooms", stats.AvailableRooms).
			Int("today_bookings", stats.TodayBookings).
			Int("utilization_rate", stats.UtilizationRate).
			Msg("stats computed")
	}()

	localNow := s.now().In(s.location)
	today := availability.FormatDate(localNow)
	clock := availability.FormatClock(localNow.Hour()*60 + localNow.Minute())

	total, err := s.source.CountActiveRooms(ctx)
	if err != nil {
		err = fmt.Errorf("count active rooms: %w", err)
		return
	}

	busy, err := s.source.CountRoomsBusyAt(ctx, today, clock)
	if err != nil {
		err = fmt.Errorf("count busy rooms: %w", err)
		return
	}

	todayBookings, err := s.source.CountConfirmedOn(ctx, today)
	if err != nil {
		err = fmt.Errorf("count today's bookings: %w", err)
		return
	}

	available := total - busy
	if available < 0 {
		available = 0
	}

	utilization := 0
	if total > 0 {
		utilization = int(math.Round(float64(todayBookings) / float64(total*s.workdayHours) * 100))
	}

	stats = Stats{
		TotalRooms:      total,
		AvailableRooms:  available,
		TodayBookings:   todayBookings,
		UtilizationRate: utilization,
	}
	return
}
