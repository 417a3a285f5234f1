package swarm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
)

// sessionCookiePrefix identifies the server-issued session credential
// (express-session names it connect.sid).
const sessionCookiePrefix = "connect"

// maxDashboardBody bounds how much of the dashboard page is read for the
// shape check.
const maxDashboardBody = 4 << 20

// Authenticator performs the login, class-join, dashboard-verify handshake
// for one candidate session.
type Authenticator interface {
	Authenticate(ctx context.Context, displayName string) (*Session, error)
}

// HTTPAuthenticator authenticates guests against the live server. Each
// attempt gets a fresh cookie jar and HTTP client so credential state is
// fully isolated per session.
type HTTPAuthenticator struct {
	baseURL  *url.URL
	classKey string
	logger   zerolog.Logger
}

// NewHTTPAuthenticator creates an authenticator for the target server.
func NewHTTPAuthenticator(baseURL, classKey string, logger zerolog.Logger) (*HTTPAuthenticator, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	return &HTTPAuthenticator{
		baseURL:  u,
		classKey: classKey,
		logger:   logger.With().Str("component", "authenticator").Logger(),
	}, nil
}

// Authenticate runs the four handshake steps. Each step is a precondition
// for the next and each failure is terminal for this attempt only. The
// returned session has no event channel yet; binding is the caller's job.
//
// No timeout is applied to any call: a hung remote call stalls this attempt
// indefinitely but never blocks sibling attempts.
func (a *HTTPAuthenticator) Authenticate(ctx context.Context, displayName string) (*Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	client := &http.Client{Jar: jar}

	// Step 1: guest login.
	status, _, err := a.postForm(ctx, client, "/login", url.Values{
		"displayName": {displayName},
		"loginType":   {"guest"},
	})
	if err != nil {
		return nil, &TransportError{Op: "login", Err: err}
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrLoginRejected, status)
	}

	// Step 2: class join with the credentials from step 1.
	status, _, err = a.postForm(ctx, client, "/selectClass", url.Values{
		"key": {a.classKey},
	})
	if err != nil {
		return nil, &TransportError{Op: "class join", Err: err}
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrJoinRejected, status)
	}

	// Step 3: dashboard fetch and shape check. The "poll" substring is a
	// heuristic proxy for a real post-join dashboard, not a server contract.
	status, body, err := a.get(ctx, client, "/student")
	if err != nil {
		return nil, &TransportError{Op: "dashboard fetch", Err: err}
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrDashboardUnreachable, status)
	}
	if !strings.Contains(strings.ToLower(body), "poll") {
		return nil, ErrDashboardShapeMismatch
	}

	// Step 4: the jar must now hold the session-identifying credential.
	if !hasSessionCookie(jar, a.baseURL) {
		return nil, ErrMissingSessionCredential
	}

	return &Session{Name: displayName, Base: a.baseURL, Jar: jar, HTTP: client}, nil
}

func (a *HTTPAuthenticator) postForm(ctx context.Context, client *http.Client, path string, form url.Values) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL.JoinPath(path).String(),
		strings.NewReader(form.Encode()))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.do(client, req)
}

func (a *HTTPAuthenticator) get(ctx context.Context, client *http.Client, path string) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL.JoinPath(path).String(), nil)
	if err != nil {
		return 0, "", err
	}
	return a.do(client, req)
}

func (a *HTTPAuthenticator) do(client *http.Client, req *http.Request) (int, string, error) {
	resp, err := client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDashboardBody))
	if err != nil {
		return resp.StatusCode, "", err
	}
	return resp.StatusCode, string(body), nil
}

func hasSessionCookie(jar http.CookieJar, target *url.URL) bool {
	for _, ck := range jar.Cookies(target) {
		if strings.HasPrefix(ck.Name, sessionCookiePrefix) {
			return true
		}
	}
	return false
}
