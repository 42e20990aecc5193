// Package backend is the HTTP client for the application's session service: it
// issues application tokens, revokes them, and reports whether a token is still
// valid along with the user and organization subscription flags.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	// ErrInvalidCredentials is returned by Login when the service rejects the pair.
	ErrInvalidCredentials = errors.New("backend: invalid credentials")
	// ErrUnavailable wraps transport failures and 5xx responses that outlived retries.
	ErrUnavailable = errors.New("backend: service unavailable")
	// ErrRejected wraps non-retriable 4xx responses other than 401 on login.
	ErrRejected = errors.New("backend: request rejected")
)

// LoginResult is the outcome of a successful Login.
type LoginResult struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// Validation is the service's verdict on an application token.
type Validation struct {
	Valid               bool `json:"valid"`
	OrganizationExpired bool `json:"organization_expired"`
	UserExpired         bool `json:"user_expired"`
}

// Config configures a [Client].
type Config struct {
	BaseURL string
	// Timeout bounds one HTTP attempt. Defaults to 10s.
	Timeout time.Duration
	// MaxTries bounds attempts for transient failures. Defaults to 3.
	MaxTries uint
	// InitialBackoff is the first retry delay. Defaults to 200ms.
	InitialBackoff time.Duration
	HTTPClient     *http.Client
	Logger         zerolog.Logger
	// Now is used for local token expiry inspection.
	Now func() time.Time
}

// Client talks to the session service over JSON.
type Client struct {
	base   string
	http   *http.Client
	cfg    Config
	logger zerolog.Logger
}

// New validates cfg and returns a Client.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("backend: BaseURL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxTries == 0 {
		cfg.MaxTries = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		base:   base,
		http:   hc,
		cfg:    cfg,
		logger: cfg.Logger.With().Str("component", "backend").Logger(),
	}, nil
}

// Login exchanges credentials for an application token.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var out LoginResult
	body := map[string]string{"email": email, "password": password}

	status, err := c.do(ctx, http.MethodPost, "/auth/login", "", body, &out)
	if err != nil {
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}
	if out.Token == "" {
		return LoginResult{}, fmt.Errorf("%w: login response without token", ErrUnavailable)
	}
	return out, nil
}

// Logout revokes token on the service. An already revoked token is not an error.
func (c *Client) Logout(ctx context.Context, token string) error {
	status, err := c.do(ctx, http.MethodPost, "/auth/logout", token, nil, nil)
	if status == http.StatusUnauthorized {
		return nil
	}
	return err
}

// ValidateSession asks the service whether token is still valid. JWT tokens whose
// exp claim has passed are reported invalid without a round trip.
func (c *Client) ValidateSession(ctx context.Context, token string) (Validation, error) {
	if expired, ok := tokenExpired(token, c.cfg.Now()); ok && expired {
		c.logger.Debug().Msg("token expired locally")
		return Validation{Valid: false}, nil
	}

	var out Validation
	status, err := c.do(ctx, http.MethodPost, "/auth/validate", token, map[string]string{"token": token}, &out)
	if err != nil {
		if status == http.StatusUnauthorized {
			return Validation{Valid: false}, nil
		}
		return Validation{}, err
	}
	return out, nil
}

type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.status, e.body)
}

// do performs one logical request with retries and returns the last HTTP status
// seen (0 when no response arrived).
func (c *Client) do(ctx context.Context, method, path, bearer string, in, out any) (int, error) {
	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("backend: encode request: %w", err)
		}
		payload = b
	}

	requestID := uuid.NewString()
	log := c.logger.With().Str("request_id", requestID).Str("path", path).Logger()

	var lastStatus int
	op := func() (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.base+path, bytes.NewReader(payload))
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-ID", requestID)
		if bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			log.Debug().Err(err).Msg("request attempt failed")
			return struct{}{}, err
		}
		defer resp.Body.Close()
		lastStatus = resp.StatusCode

		if resp.StatusCode >= 500 {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			log.Debug().Int("status", resp.StatusCode).Msg("request attempt failed")
			return struct{}{}, &statusError{status: resp.StatusCode, body: string(msg)}
		}
		if resp.StatusCode >= 400 {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return struct{}{}, backoff.Permanent(&statusError{status: resp.StatusCode, body: string(msg)})
		}
		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return struct{}{}, backoff.Permanent(fmt.Errorf("decode response: %w", err))
			}
		}
		return struct{}{}, nil
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.cfg.InitialBackoff

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(eb),
		backoff.WithMaxTries(c.cfg.MaxTries),
	)
	if err == nil {
		return lastStatus, nil
	}

	var se *statusError
	if errors.As(err, &se) && se.status < 500 {
		return lastStatus, fmt.Errorf("%w: %s", ErrRejected, se.Error())
	}
	return lastStatus, fmt.Errorf("%w: %v", ErrUnavailable, err)
}
