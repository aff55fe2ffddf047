package testfixtures

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/example/booking-portal/internal/persistence"
	"github.com/example/booking-portal/internal/persistence/sqlite"
)

// SQLiteHarness exposes every repository over a migrated in-memory database
// for integration-style persistence tests.
type SQLiteHarness struct {
	Pool        *sqlite.ConnectionPool
	Users       persistence.UserRepository
	Rooms       persistence.RoomRepository
	Bookings    persistence.BookingRepository
	Sessions    persistence.SessionRepository
	AuthConfigs persistence.AuthConfigRepository

	cleanup func()
}

// Close releases the underlying connection pool. Safe to call more than once.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness opens an in-memory database, applies the embedded
// migrations, and registers cleanup with tb.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	pool, err := sqlite.Open(sqlite.MemoryConfig())
	if err != nil {
		tb.Fatalf("open database: %v", err)
	}
	if err := pool.Migrate(context.Background(), "", zerolog.Nop()); err != nil {
		_ = pool.Close()
		tb.Fatalf("migrate database: %v", err)
	}

	harness := &SQLiteHarness{
		Pool:        pool,
		Users:       sqlite.NewUserRepository(pool),
		Rooms:       sqlite.NewRoomRepository(pool),
		Bookings:    sqlite.NewBookingRepository(pool),
		Sessions:    sqlite.NewSessionRepository(pool),
		AuthConfigs: sqlite.NewAuthConfigRepository(pool),
		cleanup: func() {
			_ = pool.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}
