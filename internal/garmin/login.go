package garmin

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

var (
	csrfRe   = regexp.MustCompile(`name="_csrf"\s+value="([^"]+)"`)
	ticketRe = regexp.MustCompile(`embed\?ticket=([^"]+)"`)
)

// Login runs the SSO credential flow and leaves the client holding a fresh
// OAuth2 token. It ignores any cached session state entirely.
func (c *Client) Login(ctx context.Context, creds Credentials) error {
	if creds.Email == "" || creds.Password == "" {
		return errors.New("email and password are required")
	}

	params := url.Values{
		"service":   {c.ssoURL + "/sso/embed"},
		"gauthHost": {c.ssoURL + "/sso/embed"},
	}
	signinURL := c.ssoURL + "/sso/signin?" + params.Encode()

	page, err := c.getText(ctx, signinURL)
	if err != nil {
		return fmt.Errorf("load signin page: %w", err)
	}
	m := csrfRe.FindStringSubmatch(page)
	if m == nil {
		return errors.New("signin page missing csrf token")
	}

	form := url.Values{
		"username": {creds.Email},
		"password": {creds.Password},
		"embed":    {"true"},
		"_csrf":    {m[1]},
	}
	page, err = c.postForm(ctx, signinURL, form)
	if err != nil {
		return fmt.Errorf("submit credentials: %w", err)
	}

	if strings.Contains(page, `name="mfa-code"`) {
		page, err = c.submitMFA(ctx, params)
		if err != nil {
			return err
		}
	}

	tm := ticketRe.FindStringSubmatch(page)
	if tm == nil {
		return ErrAuthFailed
	}
	return c.exchange(ctx, tm[1])
}

func (c *Client) submitMFA(ctx context.Context, params url.Values) (string, error) {
	if c.mfaPrompt == nil {
		return "", errors.New("mfa code required but no prompt configured")
	}
	code, err := c.mfaPrompt()
	if err != nil {
		return "", fmt.Errorf("read mfa code: %w", err)
	}
	form := url.Values{
		"mfa-code": {code},
		"embed":    {"true"},
		"fromPage": {"setupEnterMfaCode"},
	}
	page, err := c.postForm(ctx, c.ssoURL+"/sso/verifyMFA/loginEnterMfaCode?"+params.Encode(), form)
	if err != nil {
		return "", fmt.Errorf("submit mfa code: %w", err)
	}
	return page, nil
}

// exchange trades the SSO ticket for an OAuth2 bearer token and resolves
// the account display name.
func (c *Client) exchange(ctx context.Context, ticket string) error {
	form := url.Values{"ticket": {ticket}}
	body, err := c.postForm(ctx, c.apiURL+"/oauth-service/oauth/exchange/user/2.0", form)
	if err != nil {
		return fmt.Errorf("exchange ticket: %w", err)
	}
	var tok OAuth2Token
	if err := decodeToken(body, &tok); err != nil {
		return fmt.Errorf("decode token: %w", err)
	}
	if tok.ExpiresAt == 0 && tok.ExpiresIn > 0 {
		tok.ExpiresAt = time.Now().Unix() + int64(tok.ExpiresIn)
	}
	c.token = tok
	return c.loadProfile(ctx)
}
