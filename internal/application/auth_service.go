package application

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/example/booking-portal/internal/metrics"
	"github.com/example/booking-portal/internal/persistence"
)

// CredentialStore exposes the account operations the auth service needs.
type CredentialStore interface {
	CreateUser(ctx context.Context, user User, passwordHash string) error
	GetUser(ctx context.Context, id string) (User, error)
	GetCredentials(ctx context.Context, username string) (UserCredentials, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	CountUsers(ctx context.Context) (int, error)
	// UpsertDirectoryUser inserts a shadow account on first directory login
	// and refreshes its email and display name afterwards. The stored role
	// survives re-logins.
	UpsertDirectoryUser(ctx context.Context, user User) (User, error)
}

// SessionStore tracks issued bearer sessions by their jti claim.
type SessionStore interface {
	CreateSession(ctx context.Context, session SessionRecord) error
	GetSession(ctx context.Context, id string) (SessionRecord, error)
	RevokeSession(ctx context.Context, id string, revokedAt time.Time) error
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// AuthConfigStore persists the authentication strategy audit trail.
type AuthConfigStore interface {
	GetActiveConfig(ctx context.Context) (AuthConfig, error)
	// ActivateConfig deactivates the previous row and inserts the new active
	// one in a single transaction.
	ActivateConfig(ctx context.Context, config AuthConfig) error
}

// DirectoryClient binds against an external directory. A nil identity with a
// nil error is a credential failure; a non-nil error is a configuration
// problem (unreachable or misconfigured directory).
type DirectoryClient interface {
	Authenticate(ctx context.Context, settings LDAPSettings, username, password string) (*DirectoryIdentity, error)
}

// UserCredentials pairs an account with its stored password hash. The hash is
// empty for accounts that never had a local password.
type UserCredentials struct {
	User         User
	PasswordHash string
}

// SessionRecord is one issued session; ID equals the token's jti claim.
type SessionRecord struct {
	ID        string
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// DirectoryIdentity is the attribute set mapped from a directory entry.
type DirectoryIdentity struct {
	Username    string
	Email       string
	DisplayName string
}

const (
	tokenIssuer = "booking-portal"

	// shadowEmailDomain backfills an address for directory accounts whose
	// entry carries no mail attribute.
	shadowEmailDomain = "directory.local"

	minUsernameLength = 3
	maxUsernameLength = 50
	minPasswordLength = 8
	maxDisplayName    = 100
	maxEmailLength    = 255
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// tokenClaims is the JWT payload; sub carries the user ID and jti the session ID.
type tokenClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	AuthType string `json:"authType"`
	jwt.RegisteredClaims
}

// AuthServiceConfig collects the dependencies and tuning knobs of the auth service.
type AuthServiceConfig struct {
	Credentials CredentialStore
	Sessions    SessionStore
	Configs     AuthConfigStore
	Directory   DirectoryClient

	TokenSecret      string
	TokenTTL         time.Duration
	BcryptCost       int
	MaxLoginAttempts int
	LockoutWindow    time.Duration

	// IDGenerator defaults to uuid.NewString; Now defaults to time.Now.
	IDGenerator func() string
	Now         func() time.Time
}

// AuthService owns login, token issuance and verification, registration, and
// the active authentication strategy.
type AuthService struct {
	credentials CredentialStore
	sessions    SessionStore
	configs     AuthConfigStore
	directory   DirectoryClient

	hasher      PasswordHasher
	throttle    *loginThrottle
	tokenSecret []byte
	tokenTTL    time.Duration
	idGenerator func() string
	now         func() time.Time
	logger      zerolog.Logger

	mu     sync.RWMutex
	active AuthConfig
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(cfg AuthServiceConfig) *AuthService {
	return NewAuthServiceWithLogger(cfg, zerolog.Nop())
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
func NewAuthServiceWithLogger(cfg AuthServiceConfig, logger zerolog.Logger) *AuthService {
	idGenerator := cfg.IDGenerator
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &AuthService{
		credentials: cfg.Credentials,
		sessions:    cfg.Sessions,
		configs:     cfg.Configs,
		directory:   cfg.Directory,
		hasher:      NewPasswordHasher(cfg.BcryptCost),
		throttle:    newLoginThrottle(cfg.MaxLoginAttempts, cfg.LockoutWindow, now),
		tokenSecret: []byte(cfg.TokenSecret),
		tokenTTL:    ttl,
		idGenerator: idGenerator,
		now:         now,
		logger:      logger,
		active:      AuthConfig{Type: AuthTypeJWT, IsActive: true},
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string) zerolog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation)
}

// Login authenticates the credentials and issues a bearer token in one step.
func (s *AuthService) Login(ctx context.Context, params LoginParams) (result LoginResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}

	var user User
	user, err = s.Authenticate(ctx, params.Username, params.Password)
	if err != nil {
		return
	}

	var token string
	var expiresAt time.Time
	token, expiresAt, err = s.GenerateToken(ctx, user)
	if err != nil {
		return
	}

	result = LoginResult{User: user, Token: token, ExpiresAt: expiresAt}
	return
}

// Authenticate validates a username/password pair against the active
// strategy. Credential mismatches return ErrInvalidCredentials regardless of
// strategy; directory configuration problems return ErrAuthNotConfigured with
// the cause attached for the logs.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (user User, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.credentials == nil {
		err = fmt.Errorf("credential store not configured")
		return
	}

	username = strings.TrimSpace(username)

	logger := s.loggerWith(ctx, "Authenticate").With().Str("username", username).Logger()
	defer func() {
		switch {
		case err == nil:
			metrics.RecordLogin(metrics.LoginOutcomeSuccess)
			logger.Info().Str("user_id", user.ID).Str("auth_type", string(user.AuthType)).Msg("authentication succeeded")
		case errors.Is(err, ErrTooManyAttempts):
			metrics.RecordLogin(metrics.LoginOutcomeThrottled)
			logger.Error().Err(err).Str("error_kind", ErrorKind(err)).Msg("authentication failed")
		case errors.Is(err, ErrInvalidCredentials):
			metrics.RecordLogin(metrics.LoginOutcomeInvalid)
			logger.Error().Err(err).Str("error_kind", ErrorKind(err)).Msg("authentication failed")
		default:
			metrics.RecordLogin(metrics.LoginOutcomeError)
			logger.Error().Err(err).Str("error_kind", ErrorKind(err)).Msg("authentication failed")
		}
	}()

	if username == "" || password == "" {
		err = ErrInvalidCredentials
		return
	}
	if s.throttle.Locked(username) {
		err = ErrTooManyAttempts
		return
	}

	switch s.ActiveMethod() {
	case AuthTypeJWT:
		user, err = s.authenticateLocal(ctx, username, password)
	case AuthTypeLDAP:
		user, err = s.authenticateDirectory(ctx, username, password)
	default:
		err = fmt.Errorf("%w: password login is not supported by the active strategy", ErrAuthNotConfigured)
	}

	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			s.throttle.RecordFailure(username)
		}
		return
	}

	s.throttle.Reset(username)
	return
}

func (s *AuthService) authenticateLocal(ctx context.Context, username, password string) (User, error) {
	creds, err := s.credentials.GetCredentials(ctx, username)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if creds.PasswordHash == "" {
		return User{}, ErrInvalidCredentials
	}
	if err := s.hasher.Verify(creds.PasswordHash, password); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return creds.User, nil
}

func (s *AuthService) authenticateDirectory(ctx context.Context, username, password string) (User, error) {
	settings := s.activeSnapshot().LDAP
	if s.directory == nil || settings == nil {
		return User{}, fmt.Errorf("%w: directory strategy is active but not configured", ErrAuthNotConfigured)
	}

	identity, err := s.directory.Authenticate(ctx, *settings, username, password)
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrAuthNotConfigured, err)
	}
	if identity == nil {
		return User{}, ErrInvalidCredentials
	}

	email := strings.TrimSpace(identity.Email)
	if email == "" {
		email = identity.Username + "@" + shadowEmailDomain
	}
	displayName := strings.TrimSpace(identity.DisplayName)
	if displayName == "" {
		displayName = identity.Username
	}

	now := s.now()
	shadow := User{
		ID:          s.idGenerator(),
		Username:    identity.Username,
		Email:       email,
		DisplayName: displayName,
		Role:        RoleUser,
		AuthType:    AuthTypeLDAP,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	user, err := s.credentials.UpsertDirectoryUser(ctx, shadow)
	if err != nil {
		return User{}, mapAuthRepoError(err)
	}
	return user, nil
}

// GenerateToken signs an HS256 bearer token for the user and records the
// backing session row.
func (s *AuthService) GenerateToken(ctx context.Context, user User) (token string, expiresAt time.Time, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.sessions == nil {
		err = fmt.Errorf("session store not configured")
		return
	}
	if len(s.tokenSecret) == 0 {
		err = fmt.Errorf("token secret not configured")
		return
	}
	if user.ID == "" {
		err = fmt.Errorf("cannot issue a token for a user without an id")
		return
	}

	logger := s.loggerWith(ctx, "GenerateToken").With().Str("user_id", user.ID).Logger()

	now := s.now()
	expiresAt = now.Add(s.tokenTTL)
	sessionID := s.idGenerator()

	claims := tokenClaims{
		Username: user.Username,
		Role:     string(user.Role),
		AuthType: string(user.AuthType),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        sessionID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.tokenSecret)
	if err != nil {
		logger.Error().Err(err).Msg("token signing failed")
		return
	}

	if err = s.sessions.CreateSession(ctx, SessionRecord{
		ID:        sessionID,
		UserID:    user.ID,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	}); err != nil {
		err = mapAuthRepoError(err)
		logger.Error().Err(err).Str("error_kind", ErrorKind(err)).Msg("session persistence failed")
		token = ""
		return
	}

	logger.Info().Str("session_id", sessionID).Time("expires_at", expiresAt).Msg("token issued")
	return
}

// VerifyToken checks the token signature and claims, requires the backing
// session to be live, and returns the account it belongs to. Every
// token-semantic failure maps to ErrUnauthorized.
func (s *AuthService) VerifyToken(ctx context.Context, token string) (user User, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.sessions == nil || s.credentials == nil {
		err = fmt.Errorf("auth service stores not configured")
		return
	}

	claims, err := s.parseToken(token)
	if err != nil {
		return
	}

	var record SessionRecord
	record, err = s.sessions.GetSession(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrUnauthorized
		}
		return
	}

	now := s.now()
	if record.RevokedAt != nil && !record.RevokedAt.IsZero() {
		err = ErrUnauthorized
		return
	}
	if !record.ExpiresAt.After(now) {
		err = ErrUnauthorized
		return
	}

	user, err = s.credentials.GetUser(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrUnauthorized
		}
		return
	}
	return
}

// Logout revokes the session behind the token. Revoking an already revoked or
// pruned session succeeds.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	if s.sessions == nil {
		return fmt.Errorf("session store not configured")
	}

	logger := s.loggerWith(ctx, "Logout")

	claims, err := s.parseToken(token)
	if err != nil {
		logger.Error().Err(err).Str("error_kind", ErrorKind(err)).Msg("logout rejected")
		return err
	}

	if err := s.sessions.RevokeSession(ctx, claims.ID, s.now()); err != nil && !errors.Is(err, persistence.ErrNotFound) {
		logger.Error().Err(err).Msg("session revocation failed")
		return mapAuthRepoError(err)
	}

	if err := s.sessions.DeleteExpiredSessions(ctx, s.now()); err != nil {
		logger.Error().Err(err).Msg("expired session prune failed")
		return err
	}

	logger.Info().Str("session_id", claims.ID).Msg("session revoked")
	return nil
}

func (s *AuthService) parseToken(token string) (*tokenClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrUnauthorized
	}

	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.tokenSecret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return nil, ErrUnauthorized
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || claims.ID == "" || claims.Subject == "" {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

// Register creates a local account. The first account on an empty portal
// becomes the administrator.
func (s *AuthService) Register(ctx context.Context, params RegisterParams) (user User, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.credentials == nil {
		err = fmt.Errorf("credential store not configured")
		return
	}

	username := strings.TrimSpace(params.Username)
	email := strings.ToLower(strings.TrimSpace(params.Email))
	displayName := strings.TrimSpace(params.DisplayName)

	logger := s.loggerWith(ctx, "Register").With().Str("username", username).Logger()
	defer func() {
		if err != nil {
			logger.Error().Err(err).Str("error_kind", ErrorKind(err)).Msg("registration failed")
			return
		}
		logger.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("account registered")
	}()

	if s.ActiveMethod() != AuthTypeJWT {
		err = fmt.Errorf("%w: registration is only available for local accounts", ErrAuthNotConfigured)
		return
	}

	vErr := validateRegisterInput(username, email, params.Password, displayName)
	if err = s.checkRegistrationUniqueness(ctx, username, email, vErr); err != nil {
		return
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var count int
	count, err = s.credentials.CountUsers(ctx)
	if err != nil {
		return
	}
	role := RoleUser
	if count == 0 {
		role = RoleAdmin
	}

	var hash string
	hash, err = s.hasher.Hash(params.Password)
	if err != nil {
		return
	}

	if displayName == "" {
		displayName = username
	}

	now := s.now()
	user = User{
		ID:          s.idGenerator(),
		Username:    username,
		Email:       email,
		DisplayName: displayName,
		Role:        role,
		AuthType:    AuthTypeJWT,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err = s.credentials.CreateUser(ctx, user, hash); err != nil {
		err = mapAuthRepoError(err)
		user = User{}
		return
	}
	return
}

// checkRegistrationUniqueness folds taken usernames and emails into the
// validation error so callers see them alongside format problems. Write races
// still surface as ErrAlreadyExists from CreateUser.
func (s *AuthService) checkRegistrationUniqueness(ctx context.Context, username, email string, vErr *ValidationError) error {
	if username != "" {
		if _, err := s.credentials.GetCredentials(ctx, username); err == nil {
			vErr.add("username", "username is already taken")
		} else if !errors.Is(err, persistence.ErrNotFound) {
			return err
		}
	}
	if email != "" {
		if _, err := s.credentials.GetUserByEmail(ctx, email); err == nil {
			vErr.add("email", "email is already registered")
		} else if !errors.Is(err, persistence.ErrNotFound) {
			return err
		}
	}
	return nil
}

func validateRegisterInput(username, email, password, displayName string) *ValidationError {
	vErr := &ValidationError{}

	switch {
	case username == "":
		vErr.add("username", "username is required")
	case len(username) < minUsernameLength:
		vErr.add("username", fmt.Sprintf("username must be at least %d characters", minUsernameLength))
	case len(username) > maxUsernameLength:
		vErr.add("username", fmt.Sprintf("username must be at most %d characters", maxUsernameLength))
	case !usernamePattern.MatchString(username):
		vErr.add("username", "username may only contain letters, digits, dots, underscores, and hyphens")
	}

	switch {
	case email == "":
		vErr.add("email", "email is required")
	case len(email) > maxEmailLength:
		vErr.add("email", fmt.Sprintf("email must be at most %d characters", maxEmailLength))
	default:
		if _, err := mail.ParseAddress(email); err != nil {
			vErr.add("email", "email is not a valid address")
		}
	}

	switch {
	case password == "":
		vErr.add("password", "password is required")
	case len(password) < minPasswordLength:
		vErr.add("password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	case len(password) > MaxPasswordLength:
		vErr.add("password", fmt.Sprintf("password must be at most %d characters", MaxPasswordLength))
	}

	if len(displayName) > maxDisplayName {
		vErr.add("displayName", fmt.Sprintf("display name must be at most %d characters", maxDisplayName))
	}

	return vErr
}

// Methods lists the strategies the portal can be configured with.
func (s *AuthService) Methods() []AuthType {
	return []AuthType{AuthTypeJWT, AuthTypeLDAP, AuthTypeOIDC}
}

// ActiveMethod returns the type of the active strategy.
func (s *AuthService) ActiveMethod() AuthType {
	if s == nil {
		return AuthTypeJWT
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active.Type == "" {
		return AuthTypeJWT
	}
	return s.active.Type
}

// ActiveConfig returns the active strategy configuration. Admin only; secret
// redaction is the transport layer's concern.
func (s *AuthService) ActiveConfig(ctx context.Context, principal Principal) (config AuthConfig, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if !principal.IsAdmin() {
		err = ErrForbidden
		return
	}
	config = s.activeSnapshot()
	return
}

// SetActiveConfig validates and activates a new authentication strategy. The
// audit row and the active flag flip commit in one transaction; the in-memory
// singleton swaps only after the commit, so readers never observe a gap.
func (s *AuthService) SetActiveConfig(ctx context.Context, params SetAuthConfigParams) (config AuthConfig, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.configs == nil {
		err = fmt.Errorf("auth config store not configured")
		return
	}

	logger := s.loggerWith(ctx, "SetActiveConfig").With().Str("auth_type", string(params.Type)).Logger()
	defer func() {
		if err != nil {
			logger.Error().Err(err).Str("error_kind", ErrorKind(err)).Msg("strategy activation failed")
			return
		}
		logger.Info().Str("config_id", config.ID).Msg("strategy activated")
	}()

	if !params.Principal.IsAdmin() {
		err = ErrForbidden
		return
	}

	if vErr := validateAuthConfigInput(params); vErr.HasErrors() {
		err = vErr
		return
	}

	candidate := AuthConfig{
		ID:        s.idGenerator(),
		Type:      params.Type,
		IsActive:  true,
		CreatedBy: params.Principal.UserID,
		CreatedAt: s.now(),
	}
	switch params.Type {
	case AuthTypeLDAP:
		settings := *params.LDAP
		candidate.LDAP = &settings
	case AuthTypeOIDC:
		settings := *params.OIDC
		candidate.OIDC = &settings
	}

	if err = s.configs.ActivateConfig(ctx, candidate); err != nil {
		err = mapAuthRepoError(err)
		return
	}

	s.swapActive(candidate)
	config = candidate
	return
}

func validateAuthConfigInput(params SetAuthConfigParams) *ValidationError {
	vErr := &ValidationError{}

	switch params.Type {
	case AuthTypeJWT:
	case AuthTypeLDAP:
		if params.LDAP == nil {
			vErr.add("ldap", "ldap settings are required")
			return vErr
		}
		settings := params.LDAP
		if strings.TrimSpace(settings.URL) == "" {
			vErr.add("ldap.url", "directory URL is required")
		} else if parsed, err := url.Parse(settings.URL); err != nil || (parsed.Scheme != "ldap" && parsed.Scheme != "ldaps" && parsed.Scheme != "ldapi") {
			vErr.add("ldap.url", "directory URL must use the ldap, ldaps, or ldapi scheme")
		}
		if strings.TrimSpace(settings.BindDN) == "" {
			vErr.add("ldap.bindDn", "service bind DN is required")
		}
		if strings.TrimSpace(settings.BaseDN) == "" {
			vErr.add("ldap.baseDn", "search base DN is required")
		}
		filter := strings.TrimSpace(settings.UserFilter)
		if filter == "" {
			vErr.add("ldap.userFilter", "user filter is required")
		} else if !strings.Contains(filter, "%s") {
			vErr.add("ldap.userFilter", "user filter must contain a %s username placeholder")
		}
	case AuthTypeOIDC:
		if params.OIDC == nil {
			vErr.add("oidc", "oidc settings are required")
			return vErr
		}
		if strings.TrimSpace(params.OIDC.Issuer) == "" {
			vErr.add("oidc.issuer", "issuer is required")
		}
		if strings.TrimSpace(params.OIDC.ClientID) == "" {
			vErr.add("oidc.clientId", "client id is required")
		}
	default:
		vErr.add("type", "authentication type must be one of jwt, ldap, oidc")
	}

	return vErr
}

// LoadActiveConfig primes the in-memory strategy from storage at startup. A
// portal that was never configured runs with local accounts.
func (s *AuthService) LoadActiveConfig(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	if s.configs == nil {
		return nil
	}

	config, err := s.configs.GetActiveConfig(ctx)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil
		}
		return err
	}

	s.swapActive(config)
	logger := s.loggerWith(ctx, "LoadActiveConfig")
	logger.Info().Str("auth_type", string(config.Type)).Str("config_id", config.ID).Msg("active strategy loaded")
	return nil
}

// PurgeExpiredSessions removes sessions whose expiry has passed. Called
// periodically from the server loop.
func (s *AuthService) PurgeExpiredSessions(ctx context.Context) error {
	if s == nil || s.sessions == nil {
		return nil
	}
	return s.sessions.DeleteExpiredSessions(ctx, s.now())
}

func (s *AuthService) activeSnapshot() AuthConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *AuthService) swapActive(config AuthConfig) {
	s.mu.Lock()
	s.active = config
	s.mu.Unlock()
}

func mapAuthRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("input", "input violates a storage constraint")
		return vErr
	}
	return err
}
