package application

import (
	"context"
	"errors"
	"testing"
	"time"
)

type statsSourceStub struct {
	rooms int
	busy  int
	today int

	roomsErr error
	busyErr  error
	todayErr error

	gotDate  string
	gotClock string
}

func (s *statsSourceStub) CountActiveRooms(context.Context) (int, error) {
	return s.rooms, s.roomsErr
}

func (s *statsSourceStub) CountConfirmedOn(_ context.Context, date string) (int, error) {
	s.gotDate = date
	return s.today, s.todayErr
}

func (s *statsSourceStub) CountRoomsBusyAt(_ context.Context, date, clock string) (int, error) {
	s.gotDate = date
	s.gotClock = clock
	return s.busy, s.busyErr
}

func newStatsServiceForTest(source *statsSourceStub, workdayHours int, location *time.Location) *StatsService {
	return NewStatsService(source, workdayHours, location, func() time.Time {
		return time.Date(2024, time.January, 10, 9, 30, 0, 0, time.UTC)
	})
}

func TestStatsService_Snapshot(t *testing.T) {
	t.Parallel()

	t.Run("computes the dashboard counters", func(t *testing.T) {
		t.Parallel()

		source := &statsSourceStub{rooms: 2, busy: 1, today: 1}
		svc := newStatsServiceForTest(source, 8, time.UTC)

		stats, err := svc.Snapshot(context.Background())
		if err != nil {
			t.Fatalf("Snapshot failed: %v", err)
		}
		want := Stats{TotalRooms: 2, AvailableRooms: 1, TodayBookings: 1, UtilizationRate: 6}
		if stats != want {
			t.Fatalf("expected %+v, got %+v", want, stats)
		}
		if source.gotDate != "2024-01-10" || source.gotClock != "09:30" {
			t.Fatalf("expected today's date and clock, got %q %q", source.gotDate, source.gotClock)
		}
	})

	t.Run("reports zero utilization without active rooms", func(t *testing.T) {
		t.Parallel()

		source := &statsSourceStub{rooms: 0, busy: 0, today: 3}
		svc := newStatsServiceForTest(source, 8, time.UTC)

		stats, err := svc.Snapshot(context.Background())
		if err != nil {
			t.Fatalf("Snapshot failed: %v", err)
		}
		if stats.UtilizationRate != 0 || stats.AvailableRooms != 0 {
			t.Fatalf("expected zeroed rates, got %+v", stats)
		}
	})

	t.Run("never reports negative availability", func(t *testing.T) {
		t.Parallel()

		source := &statsSourceStub{rooms: 2, busy: 3}
		svc := newStatsServiceForTest(source, 8, time.UTC)

		stats, err := svc.Snapshot(context.Background())
		if err != nil {
			t.Fatalf("Snapshot failed: %v", err)
		}
		if stats.AvailableRooms != 0 {
			t.Fatalf("expected availability to clamp at zero, got %d", stats.AvailableRooms)
		}
	})

	t.Run("rounds the utilization rate", func(t *testing.T) {
		t.Parallel()

		source := &statsSourceStub{rooms: 1, busy: 0, today: 1}
		svc := newStatsServiceForTest(source, 8, time.UTC)

		stats, err := svc.Snapshot(context.Background())
		if err != nil {
			t.Fatalf("Snapshot failed: %v", err)
		}
		// 1 / (1 room x 8 hours) = 12.5%, rounded half away from zero.
		if stats.UtilizationRate != 13 {
			t.Fatalf("expected 13, got %d", stats.UtilizationRate)
		}
	})

	t.Run("applies the configured timezone", func(t *testing.T) {
		t.Parallel()

		source := &statsSourceStub{rooms: 1}
		svc := NewStatsService(source, 8, time.FixedZone("east", 17*3600/2), func() time.Time {
			return time.Date(2024, time.January, 10, 23, 30, 0, 0, time.UTC)
		})

		if _, err := svc.Snapshot(context.Background()); err != nil {
			t.Fatalf("Snapshot failed: %v", err)
		}
		// UTC 23:30 plus 8h30m lands on the next local day.
		if source.gotDate != "2024-01-11" || source.gotClock != "08:00" {
			t.Fatalf("expected the local date and clock, got %q %q", source.gotDate, source.gotClock)
		}
	})

	t.Run("propagates counter failures", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("database is locked")
		source := &statsSourceStub{roomsErr: boom}
		svc := newStatsServiceForTest(source, 8, time.UTC)

		if _, err := svc.Snapshot(context.Background()); !errors.Is(err, boom) {
			t.Fatalf("expected the source error, got %v", err)
		}
	})
}
