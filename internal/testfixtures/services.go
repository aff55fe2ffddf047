package testfixtures

import (
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/booking-portal/internal/application"
)

// fixtureTokenSecret signs test tokens; never use outside tests.
const fixtureTokenSecret = "fixture-token-secret"

// ServiceFactory assembles application services with a shared deterministic
// clock and ID sequence so tests can assert on generated IDs and timestamps.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
}

// FactoryOption configures the service factory.
type FactoryOption func(*ServiceFactory)

// NewServiceFactory returns a factory seeded with the reference clock and a
// fresh "id-N" sequence.
func NewServiceFactory(opts ...FactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(referenceTime),
		IDGenerator: NewIDGenerator("id"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	return factory
}

// WithClock replaces the factory clock.
func WithClock(clock *Clock) FactoryOption {
	return func(f *ServiceFactory) {
		f.Clock = clock
	}
}

// WithIDGenerator replaces the factory ID generator.
func WithIDGenerator(generator *IDGenerator) FactoryOption {
	return func(f *ServiceFactory) {
		f.IDGenerator = generator
	}
}

// AuthServiceDeps carries the collaborators for an auth service under test.
// Zero-value fields fall back to factory defaults; BcryptCost is pinned to
// the minimum so login tests stay fast.
type AuthServiceDeps struct {
	Credentials      application.CredentialStore
	Sessions         application.SessionStore
	Configs          application.AuthConfigStore
	Directory        application.DirectoryClient
	TokenSecret      string
	TokenTTL         time.Duration
	MaxLoginAttempts int
	LockoutWindow    time.Duration
	IDGenerator      func() string
	Now              func() time.Time
	Logger           zerolog.Logger
}

// NewAuthService builds an application.AuthService wired to the factory's
// clock and ID sequence.
func (f *ServiceFactory) NewAuthService(deps AuthServiceDeps) *application.AuthService {
	secret := deps.TokenSecret
	if secret == "" {
		secret = fixtureTokenSecret
	}
	idGenerator := deps.IDGenerator
	if idGenerator == nil {
		idGenerator = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewAuthServiceWithLogger(application.AuthServiceConfig{
		Credentials:      deps.Credentials,
		Sessions:         deps.Sessions,
		Configs:          deps.Configs,
		Directory:        deps.Directory,
		TokenSecret:      secret,
		TokenTTL:         deps.TokenTTL,
		BcryptCost:       bcrypt.MinCost,
		MaxLoginAttempts: deps.MaxLoginAttempts,
		LockoutWindow:    deps.LockoutWindow,
		IDGenerator:      idGenerator,
		Now:              now,
	}, deps.Logger)
}

// BookingServiceDeps carries the collaborators for a booking service under
// test. A nil Notifier disables notifications.
type BookingServiceDeps struct {
	Bookings    application.BookingStore
	Rooms       application.RoomCatalog
	Notifier    application.Notifier
	Limits      application.BookingLimits
	IDGenerator func() string
	Now         func() time.Time
	Logger      zerolog.Logger
}

// NewBookingService builds an application.BookingService wired to the
// factory's clock and ID sequence.
func (f *ServiceFactory) NewBookingService(deps BookingServiceDeps) *application.BookingService {
	idGenerator := deps.IDGenerator
	if idGenerator == nil {
		idGenerator = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewBookingServiceWithLogger(deps.Bookings, deps.Rooms, deps.Notifier, deps.Limits, idGenerator, now, deps.Logger)
}

// RoomServiceDeps carries the collaborators for a room service under test.
type RoomServiceDeps struct {
	Rooms       application.RoomStore
	IDGenerator func() string
	Now         func() time.Time
	Logger      zerolog.Logger
}

// NewRoomService builds an application.RoomService wired to the factory's
// clock and ID sequence.
func (f *ServiceFactory) NewRoomService(deps RoomServiceDeps) *application.RoomService {
	idGenerator := deps.IDGenerator
	if idGenerator == nil {
		idGenerator = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewRoomServiceWithLogger(deps.Rooms, idGenerator, now, deps.Logger)
}

// UserServiceDeps carries the collaborators for a user service under test.
type UserServiceDeps struct {
	Users  application.UserStore
	Logger zerolog.Logger
}

// NewUserService builds an application.UserService.
func (f *ServiceFactory) NewUserService(deps UserServiceDeps) *application.UserService {
	return application.NewUserServiceWithLogger(deps.Users, deps.Logger)
}

// StatsServiceDeps carries the collaborators for a stats service under test.
// Zero WorkdayHours and a nil Location take the service defaults.
type StatsServiceDeps struct {
	Source       application.StatsSource
	WorkdayHours int
	Location     *time.Location
	Now          func() time.Time
	Logger       zerolog.Logger
}

// NewStatsService builds an application.StatsService wired to the factory's
// clock.
func (f *ServiceFactory) NewStatsService(deps StatsServiceDeps) *application.StatsService {
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewStatsServiceWithLogger(deps.Source, deps.WorkdayHours, deps.Location, now, deps.Logger)
}
