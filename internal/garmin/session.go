package garmin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const tokenFile = "oauth2_token.json"

// OAuth2Token is the persisted session state, compatible with the
// oauth2_token.json layout other Garmin tooling writes.
type OAuth2Token struct {
	Scope        string `json:"scope,omitempty"`
	TokenType    string `json:"token_type"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	ExpiresAt    int64  `json:"expires_at"`
}

func (t OAuth2Token) Expired() bool {
	return t.AccessToken == "" || time.Now().Unix() >= t.ExpiresAt
}

// Restore loads the token cached under dir and validates it against the
// service. Any failure leaves the client unauthenticated so the caller can
// fall back to a credential login. Read-only: the cache is never touched.
func (c *Client) Restore(ctx context.Context, dir string) error {
	raw, err := os.ReadFile(filepath.Join(dir, tokenFile))
	if err != nil {
		return fmt.Errorf("read token cache: %w", err)
	}
	var tok OAuth2Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		return fmt.Errorf("decode token cache: %w", err)
	}
	if tok.Expired() {
		return ErrSessionExpired
	}
	c.token = tok
	if err := c.loadProfile(ctx); err != nil {
		c.token = OAuth2Token{}
		return err
	}
	return nil
}

// SaveSession persists the current token under dir, creating the directory
// if needed.
func (c *Client) SaveSession(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	data, err := json.MarshalIndent(c.token, "", "  ")
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, tokenFile), data, 0o600); err != nil {
		return fmt.Errorf("write token cache: %w", err)
	}
	return nil
}

func (c *Client) loadProfile(ctx context.Context) error {
	raw, err := c.getJSON(ctx, "/userprofile-service/socialProfile")
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	var p struct {
		DisplayName string `json:"displayName"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("decode profile: %w", err)
	}
	if p.DisplayName == "" {
		return errors.New("profile missing display name")
	}
	c.displayName = p.DisplayName
	return nil
}
