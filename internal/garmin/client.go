package garmin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

const (
	defaultAPIURL = "https://connectapi.garmin.com"
	defaultSSOURL = "https://sso.garmin.com"

	userAgent = "com.garmin.android.apps.connectmobile"
)

// Credentials identify a Garmin Connect account. They are read once at
// startup and only used when the cached session cannot be restored.
type Credentials struct {
	Email    string
	Password string
}

// Client is an authenticated Garmin Connect session. All operations block
// until the service responds and return the payload verbatim.
type Client struct {
	httpc         *http.Client
	apiURL        string
	ssoURL        string
	mfaPrompt     func() (string, error)
	restoreNotice func(error)

	token       OAuth2Token
	displayName string
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// WithBaseURLs overrides the service hosts, mainly for tests.
func WithBaseURLs(api, sso string) Option {
	return func(c *Client) {
		c.apiURL = api
		c.ssoURL = sso
	}
}

// WithRestoreNotice installs a callback invoked with the reason a cached
// session could not be restored, just before the credential login fallback.
// Without it the fallback is silent.
func WithRestoreNotice(f func(error)) Option {
	return func(c *Client) { c.restoreNotice = f }
}

// WithMFAPrompt installs the callback used to obtain a verification code
// when the login flow demands one. Without it, an MFA challenge fails the
// login instead of hanging a non-interactive run.
func WithMFAPrompt(f func() (string, error)) Option {
	return func(c *Client) { c.mfaPrompt = f }
}

func New(opts ...Option) *Client {
	c := &Client{
		apiURL: defaultAPIURL,
		ssoURL: defaultSSOURL,
	}
	for _, o := range opts {
		o(c)
	}
	if c.httpc == nil {
		jar, _ := cookiejar.New(nil)
		c.httpc = &http.Client{Jar: jar, Timeout: 30 * time.Second}
	}
	return c
}

// Connect establishes a session: restore the token cached under tokenDir
// first, fall back to a credential login, and persist the refreshed token
// for the next run. The token directory is threaded explicitly; the login
// path never consults it.
func Connect(ctx context.Context, creds Credentials, tokenDir string, opts ...Option) (*Client, error) {
	c := New(opts...)
	restoreErr := c.Restore(ctx, tokenDir)
	if restoreErr == nil {
		return c, nil
	}
	if c.restoreNotice != nil {
		c.restoreNotice(restoreErr)
	}
	if err := c.Login(ctx, creds); err != nil {
		return nil, err
	}
	if err := c.SaveSession(tokenDir); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	return c, nil
}

// DisplayName is the account handle several endpoints are keyed by. It is
// resolved when the session is established.
func (c *Client) DisplayName() string { return c.displayName }

func (c *Client) getText(ctx context.Context, rawurl string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawurl, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Client) postForm(ctx context.Context, rawurl string, form url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawurl, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
