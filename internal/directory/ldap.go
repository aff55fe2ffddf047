// Package directory authenticates portal users against an LDAP directory
// using the service-bind, search, rebind flow. Connections are dialed per
// attempt; nothing is pooled.
package directory

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog"

	"github.com/example/booking-portal/internal/application"
)

const (
	defaultDialTimeout          = 10 * time.Second
	defaultEmailAttribute       = "mail"
	defaultDisplayNameAttribute = "displayName"

	// searchSizeLimit is two so an ambiguous filter is detectable without
	// pulling the whole subtree.
	searchSizeLimit = 2
	searchTimeLimit = 10
)

// Authenticator verifies a username/password pair against the directory
// described by the active LDAP settings. It implements the auth service's
// DirectoryClient port: a nil identity with a nil error means the credentials
// were rejected, while a non-nil error means the directory itself is
// unreachable or misconfigured.
type Authenticator struct {
	dialTimeout time.Duration
	logger      zerolog.Logger
}

// NewAuthenticator builds a directory authenticator.
func NewAuthenticator(logger zerolog.Logger) *Authenticator {
	return &Authenticator{dialTimeout: defaultDialTimeout, logger: logger}
}

// Authenticate runs the full bind flow. An empty username or password is
// rejected locally: many directories treat a bind with an empty password as
// an anonymous bind that succeeds, which must never count as a login.
func (a *Authenticator) Authenticate(ctx context.Context, settings application.LDAPSettings, username, password string) (*application.DirectoryIdentity, error) {
	if a == nil {
		return nil, fmt.Errorf("directory: authenticator is nil")
	}
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("directory: %w", err)
	}

	logger := a.logger.With().Str("component", "directory").Str("url", settings.URL).Logger()

	conn, err := a.dial(settings)
	if err != nil {
		return nil, fmt.Errorf("directory: dial %s: %w", settings.URL, err)
	}
	defer conn.Close()
	conn.SetTimeout(a.dialTimeout)

	if err := a.serviceBind(conn, settings); err != nil {
		return nil, fmt.Errorf("directory: service bind as %s: %w", settings.BindDN, err)
	}

	entry, err := a.searchUser(conn, settings, username)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		logger.Debug().Str("username", username).Msg("directory search matched no entry")
		return nil, nil
	}

	// Rebind as the located entry; this is the actual credential check.
	if err := conn.Bind(entry.DN, password); err != nil {
		logger.Debug().Str("username", username).Msg("directory rebind rejected")
		return nil, nil
	}

	return identityFromEntry(entry, settings, username), nil
}

func (a *Authenticator) dial(settings application.LDAPSettings) (*ldap.Conn, error) {
	if strings.TrimSpace(settings.URL) == "" {
		return nil, fmt.Errorf("directory url is not configured")
	}

	serverName, err := serverNameFromURL(settings.URL)
	if err != nil {
		return nil, err
	}

	tlsConfig := &tls.Config{
		ServerName:         serverName,
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: settings.InsecureSkipVerify,
	}

	conn, err := ldap.DialURL(settings.URL,
		ldap.DialWithDialer(&net.Dialer{Timeout: a.dialTimeout}),
		ldap.DialWithTLSConfig(tlsConfig),
	)
	if err != nil {
		return nil, err
	}

	if settings.StartTLS {
		if err := conn.StartTLS(tlsConfig); err != nil {
			conn.Close()
			return nil, fmt.Errorf("starttls: %w", err)
		}
	}

	return conn, nil
}

func (a *Authenticator) serviceBind(conn *ldap.Conn, settings application.LDAPSettings) error {
	if strings.TrimSpace(settings.BindDN) == "" {
		return conn.UnauthenticatedBind("")
	}
	return conn.Bind(settings.BindDN, settings.BindPassword)
}

// searchUser locates the unique entry matching the configured filter. Zero
// matches and ambiguous matches both resolve to no entry; only the search
// operation itself failing is reported as an error.
func (a *Authenticator) searchUser(conn *ldap.Conn, settings application.LDAPSettings, username string) (*ldap.Entry, error) {
	request := ldap.NewSearchRequest(
		settings.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		searchSizeLimit,
		searchTimeLimit,
		false,
		renderFilter(settings.UserFilter, username),
		searchAttributes(settings),
		nil,
	)

	result, err := conn.Search(request)
	if err != nil {
		// A size-limit overrun means the filter matched more than one entry,
		// which is a credential failure, not a directory fault.
		if ldap.IsErrorWithCode(err, ldap.LDAPResultSizeLimitExceeded) {
			a.logger.Warn().Str("username", username).Msg("directory filter matched multiple entries")
			return nil, nil
		}
		return nil, fmt.Errorf("directory: search under %s: %w", settings.BaseDN, err)
	}

	switch len(result.Entries) {
	case 0:
		return nil, nil
	case 1:
		return result.Entries[0], nil
	default:
		a.logger.Warn().Str("username", username).Int("matches", len(result.Entries)).Msg("directory filter matched multiple entries")
		return nil, nil
	}
}

// renderFilter substitutes every %s in the configured filter with the
// LDAP-escaped username so filter metacharacters in the input cannot widen
// the search.
func renderFilter(filter, username string) string {
	if strings.TrimSpace(filter) == "" {
		filter = "(uid=%s)"
	}
	return strings.ReplaceAll(filter, "%s", ldap.EscapeFilter(username))
}

func searchAttributes(settings application.LDAPSettings) []string {
	return []string{
		attributeOr(settings.EmailAttribute, defaultEmailAttribute),
		attributeOr(settings.DisplayNameAttribute, defaultDisplayNameAttribute),
	}
}

func attributeOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// identityFromEntry maps the located entry onto the identity handed back to
// the auth service. The presented username is kept; attribute lookups fall
// back to the standard names when unconfigured and may legitimately be empty.
func identityFromEntry(entry *ldap.Entry, settings application.LDAPSettings, username string) *application.DirectoryIdentity {
	return &application.DirectoryIdentity{
		Username:    username,
		Email:       entry.GetAttributeValue(attributeOr(settings.EmailAttribute, defaultEmailAttribute)),
		DisplayName: entry.GetAttributeValue(attributeOr(settings.DisplayNameAttribute, defaultDisplayNameAttribute)),
	}
}

func serverNameFromURL(raw string) (string, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("directory url %q: %w", raw, err)
	}
	switch parsed.Scheme {
	case "ldap", "ldaps", "ldapi":
	default:
		return "", fmt.Errorf("directory url %q: unsupported scheme %q", raw, parsed.Scheme)
	}
	return parsed.Hostname(), nil
}
