package http

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/booking-portal/internal/application"
)

type authService interface {
	Login(ctx context.Context, params application.LoginParams) (application.LoginResult, error)
	Logout(ctx context.Context, token string) error
	Register(ctx context.Context, params application.RegisterParams) (application.User, error)
	Methods() []application.AuthType
	ActiveMethod() application.AuthType
	ActiveConfig(ctx context.Context, principal application.Principal) (application.AuthConfig, error)
	SetActiveConfig(ctx context.Context, params application.SetAuthConfigParams) (application.AuthConfig, error)
}

type profileService interface {
	Profile(ctx context.Context, principal application.Principal) (application.User, error)
}

type AuthHandler struct {
	auth         authService
	profiles     profileService
	responder    responder
	logger       zerolog.Logger
	cookieSecure bool
}

func NewAuthHandler(auth authService, profiles profileService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, profiles: profiles, responder: newResponder(logger), logger: logger, cookieSecure: true}
}

// SetCookieSecure controls the Secure attribute on the session cookie.
// Deployments serving plain HTTP must turn it off or browsers drop the cookie.
func (h *AuthHandler) SetCookieSecure(secure bool) {
	if h == nil {
		return
	}
	h.cookieSecure = secure
}

func (h *AuthHandler) log(ctx context.Context, operation string) zerolog.Logger {
	if h == nil {
		return zerolog.Nop()
	}
	return handlerLogger(ctx, h.logger, "AuthHandler", operation)
}

// Login authenticates a credential pair and opens a session. The token is
// returned in the body and mirrored into the session cookie for browser
// clients.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.auth == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req loginRequest
	if err := decodeRequest(r, &req); err != nil {
		logger := h.log(r.Context(), "Login")
		logger.Error().Err(err).Msg("failed to decode login request")
		h.responder.writeDecodeError(r.Context(), w, err)
		return
	}

	logger := h.log(r.Context(), "Login").With().Str("username", req.Username).Logger()

	result, err := h.auth.Login(r.Context(), req.toParams())
	if err != nil {
		logger.Error().Err(err).Str("error_kind", application.ErrorKind(err)).Msg("login rejected")
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.setSessionCookie(w, result.Token, result.ExpiresAt)

	logger.Info().Str("user_id", result.User.ID).Msg("user authenticated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, loginResponse{
		Token:     result.Token,
		ExpiresAt: formatTime(result.ExpiresAt),
		User:      toUserDTO(result.User),
	})
}

// Register creates a local account. The operation is only available while
// the jwt strategy is active.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.auth == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req registerRequest
	if err := decodeRequest(r, &req); err != nil {
		logger := h.log(r.Context(), "Register")
		logger.Error().Err(err).Msg("failed to decode registration request")
		h.responder.writeDecodeError(r.Context(), w, err)
		return
	}

	logger := h.log(r.Context(), "Register").With().Str("username", req.Username).Logger()

	user, err := h.auth.Register(r.Context(), req.toParams())
	if err != nil {
		logger.Error().Err(err).Str("error_kind", application.ErrorKind(err)).Msg("registration rejected")
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("account registered")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, userResponse{User: toUserDTO(user)})
}

// Logout revokes the presented session and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.auth == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	token := extractToken(r)
	if token == "" {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, codeAuthRequired, "authentication required")
		return
	}

	logger := h.log(r.Context(), "Logout")

	if err := h.auth.Logout(r.Context(), token); err != nil {
		logger.Error().Err(err).Str("error_kind", application.ErrorKind(err)).Msg("failed to revoke session")
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.clearSessionCookie(w)
	logger.Info().Msg("session revoked")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// CurrentUser returns the account behind the authenticated principal.
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.profiles == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, codeAuthRequired, "authentication required")
		return
	}

	user, err := h.profiles.Profile(r.Context(), principal)
	if err != nil {
		logger := h.log(r.Context(), "CurrentUser")
		logger.Error().Err(err).Str("error_kind", application.ErrorKind(err)).Msg("failed to load profile")
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, userResponse{User: toUserDTO(user)})
}

// Methods reports the active strategy and everything the portal can be
// switched to. The endpoint is public so the login page can pick its form.
func (h *AuthHandler) Methods(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.auth == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	methods := h.auth.Methods()
	names := make([]string, len(methods))
	for i, method := range methods {
		names[i] = string(method)
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, authMethodsResponse{
		Active:  string(h.auth.ActiveMethod()),
		Methods: names,
	})
}

// GetConfig returns the active strategy configuration with secrets redacted.
func (h *AuthHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.auth == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, codeAuthRequired, "authentication required")
		return
	}

	config, err := h.auth.ActiveConfig(r.Context(), principal)
	if err != nil {
		logger := h.log(r.Context(), "GetConfig")
		logger.Error().Err(err).Str("error_kind", application.ErrorKind(err)).Msg("failed to load auth config")
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, authConfigResponse{Config: toAuthConfigDTO(config)})
}

// SetConfig activates an authentication strategy.
func (h *AuthHandler) SetConfig(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.auth == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req authConfigRequest
	if err := decodeRequest(r, &req); err != nil {
		logger := h.log(r.Context(), "SetConfig")
		logger.Error().Err(err).Msg("failed to decode auth config request")
		h.responder.writeDecodeError(r.Context(), w, err)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, codeAuthRequired, "authentication required")
		return
	}

	logger := h.log(r.Context(), "SetConfig").With().Str("auth_type", req.Type).Logger()

	config, err := h.auth.SetActiveConfig(r.Context(), application.SetAuthConfigParams{
		Principal: principal,
		Type:      application.AuthType(req.Type),
		LDAP:      req.LDAP.toSettings(),
		OIDC:      req.OIDC.toSettings(),
	})
	if err != nil {
		logger.Error().Err(err).Str("error_kind", application.ErrorKind(err)).Msg("strategy activation rejected")
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.Info().Str("config_id", config.ID).Msg("authentication strategy activated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, authConfigResponse{Config: toAuthConfigDTO(config)})
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (req loginRequest) toParams() application.LoginParams {
	return application.LoginParams{Username: req.Username, Password: req.Password}
}

type loginResponse struct {
	Token     string  `json:"token"`
	ExpiresAt string  `json:"expiresAt"`
	User      userDTO `json:"user"`
}

type registerRequest struct {
	Username    string `json:"username" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
	DisplayName string `json:"displayName"`
}

func (req registerRequest) toParams() application.RegisterParams {
	return application.RegisterParams{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	}
}

type userResponse struct {
	User userDTO `json:"user"`
}

type authMethodsResponse struct {
	Active  string   `json:"active"`
	Methods []string `json:"methods"`
}

type authConfigRequest struct {
	Type string               `json:"type" validate:"required,oneof=jwt ldap oidc"`
	LDAP *ldapSettingsRequest `json:"ldap"`
	OIDC *oidcSettingsRequest `json:"oidc"`
}

type ldapSettingsRequest struct {
	URL                  string `json:"url"`
	BindDN               string `json:"bindDn"`
	BindPassword         string `json:"bindPassword"`
	BaseDN               string `json:"baseDn"`
	UserFilter           string `json:"userFilter"`
	EmailAttribute       string `json:"emailAttribute"`
	DisplayNameAttribute string `json:"displayNameAttribute"`
	StartTLS             bool   `json:"startTls"`
	InsecureSkipVerify   bool   `json:"insecureSkipVerify"`
}

func (req *ldapSettingsRequest) toSettings() *application.LDAPSettings {
	if req == nil {
		return nil
	}
	return &application.LDAPSettings{
		URL:                  req.URL,
		BindDN:               req.BindDN,
		BindPassword:         req.BindPassword,
		BaseDN:               req.BaseDN,
		UserFilter:           req.UserFilter,
		EmailAttribute:       req.EmailAttribute,
		DisplayNameAttribute: req.DisplayNameAttribute,
		StartTLS:             req.StartTLS,
		InsecureSkipVerify:   req.InsecureSkipVerify,
	}
}

type oidcSettingsRequest struct {
	Issuer       string   `json:"issuer"`
	ClientID     string   `json:"clientId"`
	ClientSecret string   `json:"clientSecret"`
	RedirectURL  string   `json:"redirectUrl"`
	Scopes       []string `json:"scopes"`
}

func (req *oidcSettingsRequest) toSettings() *application.OIDCSettings {
	if req == nil {
		return nil
	}
	return &application.OIDCSettings{
		Issuer:       req.Issuer,
		ClientID:     req.ClientID,
		ClientSecret: req.ClientSecret,
		RedirectURL:  req.RedirectURL,
		Scopes:       req.Scopes,
	}
}

type authConfigResponse struct {
	Config authConfigDTO `json:"config"`
}

// authConfigDTO carries the active strategy with secrets redacted; the bind
// password and client secret are write-only.
type authConfigDTO struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	LDAP      *ldapSettingsView `json:"ldap,omitempty"`
	OIDC      *oidcSettingsView `json:"oidc,omitempty"`
	IsActive  bool              `json:"isActive"`
	CreatedBy string            `json:"createdBy"`
	CreatedAt string            `json:"createdAt"`
}

type ldapSettingsView struct {
	URL                  string `json:"url"`
	BindDN               string `json:"bindDn"`
	BaseDN               string `json:"baseDn"`
	UserFilter           string `json:"userFilter"`
	EmailAttribute       string `json:"emailAttribute"`
	DisplayNameAttribute string `json:"displayNameAttribute"`
	StartTLS             bool   `json:"startTls"`
	InsecureSkipVerify   bool   `json:"insecureSkipVerify"`
}

type oidcSettingsView struct {
	Issuer      string   `json:"issuer"`
	ClientID    string   `json:"clientId"`
	RedirectURL string   `json:"redirectUrl"`
	Scopes      []string `json:"scopes"`
}

func toAuthConfigDTO(config application.AuthConfig) authConfigDTO {
	dto := authConfigDTO{
		ID:        config.ID,
		Type:      string(config.Type),
		IsActive:  config.IsActive,
		CreatedBy: config.CreatedBy,
		CreatedAt: formatTime(config.CreatedAt),
	}
	if config.LDAP != nil {
		dto.LDAP = &ldapSettingsView{
			URL:                  config.LDAP.URL,
			BindDN:               config.LDAP.BindDN,
			BaseDN:               config.LDAP.BaseDN,
			UserFilter:           config.LDAP.UserFilter,
			EmailAttribute:       config.LDAP.EmailAttribute,
			DisplayNameAttribute: config.LDAP.DisplayNameAttribute,
			StartTLS:             config.LDAP.StartTLS,
			InsecureSkipVerify:   config.LDAP.InsecureSkipVerify,
		}
	}
	if config.OIDC != nil {
		dto.OIDC = &oidcSettingsView{
			Issuer:      config.OIDC.Issuer,
			ClientID:    config.OIDC.ClientID,
			RedirectURL: config.OIDC.RedirectURL,
			Scopes:      config.OIDC.Scopes,
		}
	}
	return dto
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	cookie := &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		Path:     "/",
	}
	if !expires.IsZero() {
		cookie.Expires = expires.UTC()
	}
	http.SetCookie(w, cookie)
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
	})
}
