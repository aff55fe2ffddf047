package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/example/booking-portal/internal/application"
)

const (
	adminToken = "admin-token"
	userToken  = "user-token"
)

var (
	adminAccount = application.User{
		ID:          "admin-1",
		Username:    "root",
		Email:       "root@example.com",
		DisplayName: "Root",
		Role:        application.RoleAdmin,
		AuthType:    application.AuthTypeJWT,
		CreatedAt:   time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
	}
	aliceAccount = application.User{
		ID:          "user-1",
		Username:    "alice",
		Email:       "alice@example.com",
		DisplayName: "Alice",
		Role:        application.RoleUser,
		AuthType:    application.AuthTypeJWT,
		CreatedAt:   time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC),
	}
)

type authServiceStub struct {
	loginResult application.LoginResult
	loginErr    error
	loginCalls  int
	gotLogin    application.LoginParams

	logoutErr      error
	gotLogoutToken string

	registered    application.User
	registerErr   error
	registerCalls int
	gotRegister   application.RegisterParams

	active  application.AuthType
	methods []application.AuthType

	config    application.AuthConfig
	configErr error

	setResult application.AuthConfig
	setErr    error
	gotSet    application.SetAuthConfigParams
}

func (s *authServiceStub) Login(_ context.Context, params application.LoginParams) (application.LoginResult, error) {
	s.loginCalls++
	s.gotLogin = params
	return s.loginResult, s.loginErr
}

func (s *authServiceStub) Logout(_ context.Context, token string) error {
	s.gotLogoutToken = token
	return s.logoutErr
}

func (s *authServiceStub) Register(_ context.Context, params application.RegisterParams) (application.User, error) {
	s.registerCalls++
	s.gotRegister = params
	return s.registered, s.registerErr
}

func (s *authServiceStub) Methods() []application.AuthType { return s.methods }

func (s *authServiceStub) ActiveMethod() application.AuthType { return s.active }

func (s *authServiceStub) ActiveConfig(context.Context, application.Principal) (application.AuthConfig, error) {
	return s.config, s.configErr
}

func (s *authServiceStub) SetActiveConfig(_ context.Context, params application.SetAuthConfigParams) (application.AuthConfig, error) {
	s.gotSet = params
	if s.setErr != nil {
		return application.AuthConfig{}, s.setErr
	}
	return s.setResult, nil
}

type profileServiceStub struct {
	user         application.User
	err          error
	gotPrincipal application.Principal
}

func (s *profileServiceStub) Profile(_ context.Context, principal application.Principal) (application.User, error) {
	s.gotPrincipal = principal
	if s.err != nil {
		return application.User{}, s.err
	}
	return s.user, nil
}

type roomServiceStub struct {
	created     application.Room
	createErr   error
	createCalls int
	gotCreate   application.CreateRoomParams

	updated   application.Room
	updateErr error
	gotUpdate application.UpdateRoomParams

	deactivateErr   error
	gotDeactivateID string

	room     application.Room
	getErr   error
	gotGetID string

	rooms              []application.Room
	listErr            error
	gotListPrincipal   application.Principal
	gotIncludeInactive bool
}

func (s *roomServiceStub) CreateRoom(_ context.Context, params application.CreateRoomParams) (application.Room, error) {
	s.createCalls++
	s.gotCreate = params
	if s.createErr != nil {
		return application.Room{}, s.createErr
	}
	return s.created, nil
}

func (s *roomServiceStub) UpdateRoom(_ context.Context, params application.UpdateRoomParams) (application.Room, error) {
	s.gotUpdate = params
	if s.updateErr != nil {
		return application.Room{}, s.updateErr
	}
	return s.updated, nil
}

func (s *roomServiceStub) DeactivateRoom(_ context.Context, _ application.Principal, roomID string) error {
	s.gotDeactivateID = roomID
	return s.deactivateErr
}

func (s *roomServiceStub) GetRoom(_ context.Context, roomID string) (application.Room, error) {
	s.gotGetID = roomID
	if s.getErr != nil {
		return application.Room{}, s.getErr
	}
	return s.room, nil
}

func (s *roomServiceStub) ListRooms(_ context.Context, principal application.Principal, includeInactive bool) ([]application.Room, error) {
	s.gotListPrincipal = principal
	s.gotIncludeInactive = includeInactive
	return s.rooms, s.listErr
}

type statsServiceStub struct {
	stats application.Stats
	err   error
}

func (s *statsServiceStub) Snapshot(context.Context) (application.Stats, error) {
	return s.stats, s.err
}

type userServiceStub struct {
	users        []application.User
	err          error
	listCalls    int
	gotPrincipal application.Principal
}

func (s *userServiceStub) ListUsers(_ context.Context, principal application.Principal) ([]application.User, error) {
	s.listCalls++
	s.gotPrincipal = principal
	return s.users, s.err
}

type pingerStub struct {
	err error
}

func (s *pingerStub) Ping(context.Context) error { return s.err }

// routerFixture wires every handler onto a real router so tests exercise the
// full middleware chain, not handlers in isolation.
type routerFixture struct {
	auth     *authServiceStub
	profiles *profileServiceStub
	rooms    *roomServiceStub
	bookings *bookingServiceStub
	users    *userServiceStub
	stats    *statsServiceStub
	db       *pingerStub
	handler  http.Handler
}

func newRouterFixture() *routerFixture {
	logger := zerolog.Nop()
	f := &routerFixture{
		auth: &authServiceStub{
			active:  application.AuthTypeJWT,
			methods: []application.AuthType{application.AuthTypeJWT, application.AuthTypeLDAP, application.AuthTypeOIDC},
		},
		profiles: &profileServiceStub{user: aliceAccount},
		rooms:    &roomServiceStub{},
		bookings: &bookingServiceStub{},
		users:    &userServiceStub{},
		stats:    &statsServiceStub{},
		db:       &pingerStub{},
	}
	verifier := &tokenVerifierStub{users: map[string]application.User{
		adminToken: adminAccount,
		userToken:  aliceAccount,
	}}
	f.handler = NewRouter(RouterConfig{
		Auth:     NewAuthHandler(f.auth, f.profiles, logger),
		Rooms:    NewRoomHandler(f.rooms, f.bookings, logger),
		Bookings: NewBookingHandler(f.bookings, logger),
		Stats:    NewStatsHandler(f.stats, logger),
		Users:    NewUserHandler(f.users, logger),
		Health:   NewHealthHandler(f.db, logger),
		Verifier: verifier,
		Logger:   logger,
	})
	return f
}

func (f *routerFixture) do(t *testing.T, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response body %q: %v", rec.Body.String(), err)
	}
}

func findCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

func roomFixture(id, name string) application.Room {
	return application.Room{
		ID:        id,
		Name:      name,
		Floor:     4,
		Capacity:  8,
		Equipment: []string{"display", "vc"},
		IsActive:  true,
		CreatedAt: time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC),
	}
}

func TestAuthEndpoints(t *testing.T) {
	t.Parallel()

	t.Run("login returns the bearer token and sets the session cookie", func(t *testing.T) {
		t.Parallel()
		f := newRouterFixture()
		f.auth.loginResult = application.LoginResult{
			User:      aliceAccount,
			Token:     "tok-123",
			ExpiresAt: time.Date(2024, 1, 11, 9, 0, 0, 0, time.UTC),
		}

		rec := f.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{
			"username": "alice",
			"password": "hunter2-secret",
		})

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
		}
		var resp loginResponse
		decodeBody(t, rec, &resp)
		if resp.Token != "tok-123" {
			t.Fatalf("token = %q, want %q", resp.Token, "tok-123")
		}
		if resp.ExpiresAt != "2024-01-11T09:00:00Z" {
			t.Fatalf("expiresAt = %q", resp.ExpiresAt)
		}
		if resp.User.Username != "alice" || resp.User.Role != "user" {
			t.Fatalf("user = %+v", resp.User)
		}
		if f.auth.gotLogin != (application.LoginParams{Username: "alice", Password: "hunter2-secret"}) {
			t.Fatalf("login params = %+v", f.auth.gotLogin)
		}
		cookie := findCookie(t, rec, sessionCookieName)
		if cookie.Value != "tok-123" {
			t.Fatalf("cookie value = %q", cookie.Value)
		}
		if !cookie.HttpOnly || !cookie.Secure || cookie.Path != "/" {
			t.Fatalf("cookie attributes = %+v", cookie)
		}
	})

	t.Run("credential and configuration failures share one envelope", func(t *testing.T) {
		t.Parallel()
		for _, cause := range []error{application.ErrInvalidCredentials, application.ErrAuthNotConfigured} {
			f := newRouterFixture()
			f.auth.loginErr = cause

			rec := f.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{
				"username": "alice",
				"password": "wrong",
			})

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("cause %v: status = %d, want %d", cause, rec.Code, http.StatusUnauthorized)
			}
			body := decodeErrorBody(t, rec)
			if body.Error != codeInvalidCredentials {
				t.Fatalf("cause %v: error = %q", cause, body.Error)
			}
			if body.Message != "invalid username or password" {
				t.Fatalf("cause %v: message = %q", cause, body.Message)
			}
		}
	})

	t.Run("login surfaces the lockout", func(t *testing.T) {
		t.Parallel()
		f := newRouterFixture()
		f.auth.loginErr = application.ErrTooManyAttempts

		rec := f.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{
			"username": "alice",
			"password": "wrong",
		})

		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusTooManyRequests)
		}
		if body := decodeErrorBody(t, rec); body.Error != codeTooManyAttempts {
			t.Fatalf("error = %q", body.Error)
		}
	})

	t.Run("login rejects a missing password before reaching the service", func(t *testing.T) {
		t.Parallel()
		f := newRouterFixture()

		rec := f.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{"username": "alice"})

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
		body := decodeErrorBody(t, rec)
		if body.Error != codeValidationFailed {
			t.Fatalf("error = %q", body.Error)
		}
		if body.Fields["password"] != "is required" {
			t.Fatalf("fields = %+v", body.Fields)
		}
		if f.auth.loginCalls != 0 {
			t.Fatalf("login calls = %d, want 0", f.auth.loginCalls)
		}
	})

	t.Run("register creates an account", func(t *testing.T) {
		t.Parallel()
		f := newRouterFixture()
		f.auth.registered = adminAccount

		rec := f.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
			"username":    "root",
			"email":       "root@example.com",
			"password":    "first-password",
			"displayName": "Root",
		})

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var resp userResponse
		decodeBody(t, rec, &resp)
		if resp.User.Role != "admin" {
			t.Fatalf("role = %q, want admin", resp.User.Role)
		}
		want := application.RegisterParams{Username: "root", Email: "root@example.com", Password: "first-password", DisplayName: "Root"}
		if f.auth.gotRegister != want {
			t.Fatalf("register params = %+v", f.auth.gotRegister)
		}
	})

	t.Run("register validates the email shape", func(t *testing.T) {
		t.Parallel()
		f := newRouterFixture()

		rec := f.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
			"username": "bob",
			"email":    "not-an-address",
			"password": "pw-123456",
		})

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
		body := decodeErrorBody(t, rec)
		if body.Fields["email"] == "" {
			t.Fatalf("fields = %+v, want an email entry", body.Fields)
		}
		if f.auth.registerCalls != 0 {
			t.Fatalf("register calls = %d, want 0", f.auth.registerCalls)
		}
	})

	t.Run("logout revokes the token and clears the cookie", func(t *testing.T) {
		t.Parallel()
		f := newRouterFixture()

		rec := f.do(t, http.MethodPost, "/api/auth/logout", userToken, nil)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
		}
		if f.auth.gotLogoutToken != userToken {
			t.Fatalf("logout token = %q", f.auth.gotLogoutToken)
		}
		cookie := findCookie(t, rec, sessionCookieName)
		if cookie.Value != "" || cookie.MaxAge >= 0 {
			t.Fatalf("cookie not cleared: %+v", cookie)
		}
	})

	t.Run("logout without a token is unauthorized", func(t *testing.T) {
		t.Parallel()
		f := newRouterFixture()

		rec := f.do(t, http.MethodPost, "/api/auth/logout", "", nil)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
		if body := decodeErrorBody(t, rec); body.Error != codeAuthRequired {
			t.Fatalf("error = %q", body.Error)
		}
	})

	t.Run("current user resolves the caller's profile", func(t *testing.T) {
		t.Parallel()
		f := newRouterFixture()

		rec := f.do(t, http.MethodGet, "/api/auth/user", userToken, nil)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		var resp userResponse
		decodeBody(t, rec, &resp)
		if resp.User.ID != "user-1" || resp.User.Email != "alice@example.com" {
			t.Fatalf("user = %+v", resp.User)
		}
		if f.profiles.gotPrincipal.UserID != "user-1" {
			t.Fatalf("principal = %+v", f.profiles.gotPrincipal)
		}
	})

	t.Run("methods is reachable without a session", func(t *testing.T) {
		t.Parallel()
		f := newRouterFixture()

		rec := f.do(t, http.MethodGet, "/api/auth/methods", "", nil)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		var resp authMethodsResponse
		decodeBody(t, rec, &resp)
		if resp.Active != "jwt" {
			t.Fatalf("active = %q", resp.Active)
		}
		if want := []string{"jwt", "ldap", "oidc"}; !reflect.DeepEqual(resp.Methods, want) {
			t.Fatalf("methods = %v, want %v", resp.Methods, want)
		}
	})
}

func TestAuthConfigEndpoints(t *testing.T) {
	t.Parallel()

	ldapConfig := application.AuthConfig{
		ID:   "cfg-1",
		Type: application.AuthTypeLDAP,
		LDAP: &application.LDAPSettings{
			URL:          "ldaps://directory.example.com",
			BindDN:       "cn=portal,dc=example,dc=com",
			BindPassword: "s3cret-bind",
			BaseDN:       "ou=people,dc=example,dc=com",
			UserFilter:   "(uid=%s)",
		},
		IsActive:  true,
		CreatedBy: "admin-1",
		CreatedAt: time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC),
	}

	t.Run("reading the config is admin only", func(t *testing.T) {
		t.Parallel()
		f := newRouterFixture()

		rec := f.do(t, http.MethodGet, "/api/auth/config", userToken, nil)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
		}
	})

	t.Run("the response omits stored secrets", func(t *testing.T) {
		t.Parallel()
		f := newRouterFixture()
		f.auth.config = ldapConfig

		rec := f.do(t, http.MethodGet, "/api/auth/config", adminToken, nil)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		body := rec.Body.String()
		if !strings.Contains(body, "ldaps://directory.example.com") {
			t.Fatalf("body missing directory url: %s", body)
		}
		if strings.Contains(body, "s3cret-bind") || strings.Contains(body, "bindPassword") {
			t.Fatalf("body leaks the bind secret: %s", body)
		}
	})

	t.Run("activating a strategy forwards the secret without echoing it", func(t *testing.T) {
		t.Parallel()
		f := newRouterFixture()
		f.auth.setResult = ldapConfig

		rec := f.do(t, http.MethodPost, "/api/auth/config", adminToken, map[string]any{
			"type": "ldap",
			"ldap": map[string]any{
				"url":          "ldaps://directory.example.com",
				"bindDn":       "cn=portal,dc=example,dc=com",
				"bindPassword": "s3cret-bind",
				"baseDn":       "ou=people,dc=example,dc=com",
			},
		})

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
		}
		if f.auth.gotSet.Type != application.AuthTypeLDAP {
			t.Fatalf("set type = %q", f.auth.gotSet.Type)
		}
		if f.auth.gotSet.LDAP == nil || f.auth.gotSet.LDAP.BindPassword != "s3cret-bind" {
			t.Fatalf("ldap settings = %+v", f.auth.gotSet.LDAP)
		}
		if f.auth.gotSet.Principal.UserID != "admin-1" {
			t.Fatalf("principal = %+v", f.auth.gotSet.Principal)
		}
		if strings.Contains(rec.Body.String(), "s3cret-bind") {
			t.Fatalf("response echoes the secret: %s", rec.Body.String())
		}
	})

	t.Run("unknown strategy names fail structural validation", func(t *testing.T) {
		t.Parallel()
		f := newRouterFixture()

		rec := f.do(t, http.MethodPost, "/api/auth/config", adminToken, map[string]any{"type": "saml"})

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
		body := decodeErrorBody(t, rec)
		if body.Fields["type"] != "must be one of: jwt, ldap, oidc" {
			t.Fatalf("fields = %+v", body.Fields)
		}
	})
}

func TestRoomEndpoints(t *testing.T) {
	t.Parallel()

	t.Run("listing requires a session", func(t *testing.T) {
		t.Parallel()
		f := newRouterFixture()

		rec := f.do(t, http.MethodGet, "/api/rooms", "", nil)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("listing forwards the inactive filter", func(t *testing.T) {
		t.Parallel()
		f := newRouterFixture()
		f.rooms.rooms = []application.Room{roomFixture("room-1", "Aurora")}

		rec := f.do(t, http.MethodGet, "/api/rooms?includeInactive=true", adminToken, nil)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		var resp listRoomsResponse
		decodeBody(t, rec, &resp)
		if len(resp.Rooms) != 1 || resp.Rooms[0].Name != "Aurora" {
			t.Fatalf("rooms = %+v", resp.Rooms)
		}
		if !f.rooms.gotIncludeInactive {
			t.Fatal("includeInactive not forwarded")
		}
		if f.rooms.gotListPrincipal.UserID != "admin-1" {
			t.Fatalf("principal = %+v", f.rooms.gotListPrincipal)
		}
	})

	t.Run("fetching one room returns it", func(t *testing.T) {
		t.Parallel()
		f := newRouterFixture()
		f.rooms.room = roomFixture("room-1", "Aurora")

		rec := f.do(t, http.MethodGet, "/api/rooms/room-1", userToken, nil)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		var resp roomResponse
		decodeBody(t, rec, &resp)
		if resp.Room.ID != "room-1" || resp.Room.Capacity != 8 {
			t.Fatalf("room = %+v", resp.Room)
		}
		if f.rooms.gotGetID != "room-1" {
			t.Fatalf("room id = %q", f.rooms.gotGetID)
		}
	})

	t.Run("fetching with a date returns the day schedule", func(t *testing.T) {
		t.Parallel()
		f := newRouterFixture()
		f.bookings.schedule = application.RoomSchedule{
			Room:     roomFixture("room-1", "Aurora"),
			Date:     "2024-01-10",
			Bookings: []application.BookingDetails{bookingDetailsFixture("bk-1", "user-1", "room-1")},
		}

		rec := f.do(t, http.MethodGet, "/api/rooms/room-1?date=2024-01-10", userToken, nil)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		var resp roomScheduleResponse
		decodeBody(t, rec, &resp)
		if resp.Date != "2024-01-10" || resp.Room.ID != "room-1" {
			t.Fatalf("schedule = %+v", resp)
		}
		if len(resp.Bookings) != 1 || resp.Bookings[0].Owner.Username != "alice" {
			t.Fatalf("bookings = %+v", resp.Bookings)
		}
		if f.bookings.gotScheduleRoom != "room-1" || f.bookings.gotScheduleDate != "2024-01-10" {
			t.Fatalf("schedule args = %q %q", f.bookings.gotScheduleRoom, f.bookings.gotScheduleDate)
		}
	})

	t.Run("unknown rooms answer not found", func(t *testing.T) {
		t.Parallel()
		f := newRouterFixture()
		f.rooms.getErr = application.ErrNotFound

		rec := f.do(t, http.MethodGet, "/api/rooms/ghost", userToken, nil)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
		if body := decodeErrorBody(t, rec); body.Error != codeNotFound {
			t.Fatalf("error = %q", body.Error)
		}
	})

	t.Run("mutations are admin only", func(t *testing.T) {
		t.Parallel()
		f := newRouterFixture()

		rec := f.do(t, http.MethodPost, "/api/rooms", userToken, map[string]any{
			"name":     "Aurora",
			"capacity": 8,
		})

		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
		}
		if f.rooms.createCalls != 0 {
			t.Fatalf("create calls = %d, want 0", f.rooms.createCalls)
		}
	})

	t.Run("create returns the new room", func(t *testing.T) {
		t.Parallel()
		f := newRouterFixture()
		f.rooms.created = roomFixture("room-9", "Borealis")

		rec := f.do(t, http.MethodPost, "/api/rooms", adminToken, map[string]any{
			"name":      "Borealis",
			"floor":     2,
			"capacity":  12,
			"equipment": []string{"whiteboard"},
		})

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var resp roomResponse
		decodeBody(t, rec, &resp)
		if resp.Room.ID != "room-9" {
			t.Fatalf("room = %+v", resp.Room)
		}
		wantInput := application.RoomInput{Name: "Borealis", Floor: 2, Capacity: 12, Equipment: []string{"whiteboard"}}
		if !reflect.DeepEqual(f.rooms.gotCreate.Input, wantInput) {
			t.Fatalf("input = %+v, want %+v", f.rooms.gotCreate.Input, wantInput)
		}
		if f.rooms.gotCreate.Principal.UserID != "admin-1" {
			t.Fatalf("principal = %+v", f.rooms.gotCreate.Principal)
		}
	})

	t.Run("create validates the shape before the service runs", func(t *testing.T) {
		t.Parallel()
		f := newRouterFixture()

		rec := f.do(t, http.MethodPost, "/api/rooms", adminToken, map[string]any{"floor": 2})

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
		body := decodeErrorBody(t, rec)
		if body.Fields["name"] != "is required" || body.Fields["capacity"] != "is required" {
			t.Fatalf("fields = %+v", body.Fields)
		}
		if f.rooms.createCalls != 0 {
			t.Fatalf("create calls = %d, want 0", f.rooms.createCalls)
		}
	})

	t.Run("duplicate names conflict", func(t *testing.T) {
		t.Parallel()
		f := newRouterFixture()
		f.rooms.createErr = application.ErrAlreadyExists

		rec := f.do(t, http.MethodPost, "/api/rooms", adminToken, map[string]any{
			"name":     "Aurora",
			"capacity": 8,
		})

		if rec.Code != http.StatusConflict {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
		}
		if body := decodeErrorBody(t, rec); body.Error != codeAlreadyExists {
			t.Fatalf("error = %q", body.Error)
		}
	})

	t.Run("update forwards the room id", func(t *testing.T) {
		t.Parallel()
		f := newRouterFixture()
		f.rooms.updated = roomFixture("room-1", "Aurora XL")

		rec := f.do(t, http.MethodPut, "/api/rooms/room-1", adminToken, map[string]any{
			"name":     "Aurora XL",
			"floor":    4,
			"capacity": 10,
		})

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		if f.rooms.gotUpdate.RoomID != "room-1" {
			t.Fatalf("room id = %q", f.rooms.gotUpdate.RoomID)
		}
		if f.rooms.gotUpdate.Input.Name != "Aurora XL" || f.rooms.gotUpdate.Input.Capacity != 10 {
			t.Fatalf("input = %+v", f.rooms.gotUpdate.Input)
		}
	})

	t.Run("delete deactivates instead of removing", func(t *testing.T) {
		t.Parallel()
		f := newRouterFixture()

		rec := f.do(t, http.MethodDelete, "/api/rooms/room-1", adminToken, nil)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
		}
		if f.rooms.gotDeactivateID != "room-1" {
			t.Fatalf("room id = %q", f.rooms.gotDeactivateID)
		}
	})
}

func TestUserEndpoints(t *testing.T) {
	t.Parallel()

	t.Run("the listing is admin only", func(t *testing.T) {
		t.Parallel()
		f := newRouterFixture()

		rec := f.do(t, http.MethodGet, "/api/users", userToken, nil)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
		}
		if f.users.listCalls != 0 {
			t.Fatalf("list calls = %d, want 0", f.users.listCalls)
		}
	})

	t.Run("admins see every account", func(t *testing.T) {
		t.Parallel()
		f := newRouterFixture()
		f.users.users = []application.User{adminAccount, aliceAccount}

		rec := f.do(t, http.MethodGet, "/api/users", adminToken, nil)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		var resp listUsersResponse
		decodeBody(t, rec, &resp)
		if len(resp.Users) != 2 {
			t.Fatalf("users = %+v", resp.Users)
		}
		if f.users.gotPrincipal.Role != application.RoleAdmin {
			t.Fatalf("principal = %+v", f.users.gotPrincipal)
		}
	})
}

func TestStatsEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("requires a session", func(t *testing.T) {
		t.Parallel()
		f := newRouterFixture()

		rec := f.do(t, http.MethodGet, "/api/stats", "", nil)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("returns the snapshot", func(t *testing.T) {
		t.Parallel()
		f := newRouterFixture()
		f.stats.stats = application.Stats{TotalRooms: 5, AvailableRooms: 3, TodayBookings: 7, UtilizationRate: 40}

		rec := f.do(t, http.MethodGet, "/api/stats", userToken, nil)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		var resp statsResponse
		decodeBody(t, rec, &resp)
		want := statsResponse{TotalRooms: 5, AvailableRooms: 3, TodayBookings: 7, UtilizationRate: 40}
		if resp != want {
			t.Fatalf("stats = %+v, want %+v", resp, want)
		}
	})

	t.Run("hides backend failure detail", func(t *testing.T) {
		t.Parallel()
		f := newRouterFixture()
		f.stats.err = errors.New("disk exploded")

		rec := f.do(t, http.MethodGet, "/api/stats", userToken, nil)

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
		}
		body := decodeErrorBody(t, rec)
		if body.Message != "internal server error" {
			t.Fatalf("message = %q", body.Message)
		}
		if strings.Contains(rec.Body.String(), "disk") {
			t.Fatalf("response leaks the failure: %s", rec.Body.String())
		}
	})
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("answers ok without a session", func(t *testing.T) {
		t.Parallel()
		f := newRouterFixture()

		rec := f.do(t, http.MethodGet, "/api/health", "", nil)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		var resp healthResponse
		decodeBody(t, rec, &resp)
		if resp.Status != "ok" {
			t.Fatalf("status = %q", resp.Status)
		}
	})

	t.Run("degrades when the database is unreachable", func(t *testing.T) {
		t.Parallel()
		f := newRouterFixture()
		f.db.err = errors.New("database is locked")

		rec := f.do(t, http.MethodGet, "/api/health", "", nil)

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
		}
		var resp healthResponse
		decodeBody(t, rec, &resp)
		if resp.Status != "degraded" {
			t.Fatalf("status = %q", resp.Status)
		}
	})
}

func TestRouterUnknownRoute(t *testing.T) {
	t.Parallel()

	f := newRouterFixture()
	rec := f.do(t, http.MethodGet, "/api/unknown", userToken, nil)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
