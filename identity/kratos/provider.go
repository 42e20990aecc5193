// Package kratos adapts Ory Kratos' native (API) flows to identity.Provider.
//
// Kratos has no push channel, so the provider emits change notifications itself
// for the operations it performs and, when [Provider.Watch] runs, for sessions that
// disappear server-side.
package kratos

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/MrEthical07/goSession/identity"
	"github.com/MrEthical07/goSession/tokenstore"
	kratos "github.com/ory/kratos-client-go"
	"github.com/rs/zerolog"
)

// DefaultTokenKey is where the provider keeps its own session token. It follows the
// "kratos." naming convention purged on sign-out.
const DefaultTokenKey = "kratos.session_token"

// TokenPrefix is the provider-token naming convention.
const TokenPrefix = "kratos."

// Config configures a [Provider].
type Config struct {
	PublicURL string
	Timeout   time.Duration
	TokenKey  string
	Logger    zerolog.Logger
}

// Provider implements identity.Provider against the Kratos public API.
type Provider struct {
	api      *kratos.APIClient
	kv       tokenstore.KV
	tokenKey string
	log      zerolog.Logger

	mu        sync.Mutex
	listeners map[int]func(identity.Event)
	nextID    int
}

// New creates a [Provider] that stores its session token in kv.
func New(cfg Config, kv tokenstore.KV) (*Provider, error) {
	if cfg.PublicURL == "" {
		return nil, errors.New("kratos: public URL required")
	}
	if kv == nil {
		return nil, errors.New("kratos: token storage required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.TokenKey == "" {
		cfg.TokenKey = DefaultTokenKey
	}

	configuration := kratos.NewConfiguration()
	configuration.Servers = []kratos.ServerConfiguration{
		{URL: cfg.PublicURL},
	}
	configuration.HTTPClient = &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        16,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &Provider{
		api:       kratos.NewAPIClient(configuration),
		kv:        kv,
		tokenKey:  cfg.TokenKey,
		log:       cfg.Logger.With().Str("component", "kratos").Logger(),
		listeners: make(map[int]func(identity.Event)),
	}, nil
}

// CurrentSession resolves the stored session token against Kratos. A token Kratos
// no longer accepts is removed and reported as no session.
func (p *Provider) CurrentSession(ctx context.Context) (*identity.Session, error) {
	token, ok, err := p.kv.Get(ctx, p.tokenKey)
	if err != nil {
		return nil, err
	}
	if !ok || token == "" {
		return nil, nil
	}

	sess, httpResp, err := p.api.FrontendAPI.ToSession(ctx).XSessionToken(token).Execute()
	if err != nil {
		switch statusOf(httpResp) {
		case http.StatusUnauthorized, http.StatusForbidden:
			if rmErr := p.kv.Remove(ctx, p.tokenKey); rmErr != nil {
				p.log.Warn().Err(rmErr).Msg("stale session token removal failed")
			}
			return nil, nil
		}
		return nil, unavailable(err, httpResp)
	}
	if sess.Active != nil && !*sess.Active {
		return nil, nil
	}

	out := toSession(sess, token)
	return &out, nil
}

// Subscribe registers fn. Matching the convention of hosted identity providers, a
// new subscriber first receives an initial-session notification describing the
// current session.
func (p *Provider) Subscribe(fn func(identity.Event)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		sess, err := p.CurrentSession(ctx)
		if err != nil {
			p.log.Debug().Err(err).Msg("initial session lookup failed")
		}
		fn(identity.Event{Kind: identity.EventInitialSession, Session: sess})
	}()

	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

// SignIn runs a native password login flow and stores the returned session token.
func (p *Provider) SignIn(ctx context.Context, email, password string) (*identity.Session, error) {
	flow, httpResp, err := p.api.FrontendAPI.CreateNativeLoginFlow(ctx).Execute()
	if err != nil {
		return nil, unavailable(err, httpResp)
	}

	body := kratos.UpdateLoginFlowWithPasswordMethod{
		Method:     "password",
		Identifier: email,
		Password:   password,
	}
	result, httpResp, err := p.api.FrontendAPI.
		UpdateLoginFlow(ctx).
		Flow(flow.Id).
		UpdateLoginFlowBody(kratos.UpdateLoginFlowWithPasswordMethodAsUpdateLoginFlowBody(&body)).
		Execute()
	if err != nil {
		switch statusOf(httpResp) {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
			return nil, identity.ErrInvalidCredentials
		}
		return nil, unavailable(err, httpResp)
	}

	token := result.GetSessionToken()
	if token == "" {
		return nil, fmt.Errorf("%w: login returned no session token", identity.ErrUnavailable)
	}
	if err := p.kv.Set(ctx, p.tokenKey, token); err != nil {
		return nil, err
	}

	sess := result.GetSession()
	out := toSession(&sess, token)
	p.emit(identity.Event{Kind: identity.EventSignedIn, Session: &out})
	return &out, nil
}

// SignOut revokes the stored session token with Kratos and removes it locally.
// The local token is removed even when revocation fails.
func (p *Provider) SignOut(ctx context.Context) error {
	token, ok, err := p.kv.Get(ctx, p.tokenKey)
	if err != nil {
		return err
	}
	if !ok || token == "" {
		return nil
	}

	var revokeErr error
	httpResp, err := p.api.FrontendAPI.
		PerformNativeLogout(ctx).
		PerformNativeLogoutBody(*kratos.NewPerformNativeLogoutBody(token)).
		Execute()
	if err != nil {
		switch statusOf(httpResp) {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusBadRequest:
		default:
			revokeErr = unavailable(err, httpResp)
		}
	}

	if err := p.kv.Remove(ctx, p.tokenKey); err != nil {
		return err
	}
	p.emit(identity.Event{Kind: identity.EventSignedOut})
	return revokeErr
}

// RefreshSession re-reads the session from Kratos and announces the result.
func (p *Provider) RefreshSession(ctx context.Context) (*identity.Session, error) {
	sess, err := p.CurrentSession(ctx)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		p.emit(identity.Event{Kind: identity.EventSignedOut})
		return nil, identity.ErrNoSession
	}
	cp := *sess
	p.emit(identity.Event{Kind: identity.EventTokenRefreshed, Session: &cp})
	return sess, nil
}

// Watch polls Kratos every interval until ctx is done and emits a signed-out
// notification when a previously live session disappears.
func (p *Provider) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	live := false
	if sess, err := p.CurrentSession(ctx); err == nil {
		live = sess != nil
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sess, err := p.CurrentSession(ctx)
			if err != nil {
				p.log.Debug().Err(err).Msg("session poll failed")
				continue
			}
			if live && sess == nil {
				p.emit(identity.Event{Kind: identity.EventSignedOut})
			}
			live = sess != nil
		}
	}
}

func (p *Provider) emit(ev identity.Event) {
	p.mu.Lock()
	fns := make([]func(identity.Event), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func toSession(s *kratos.Session, token string) identity.Session {
	out := identity.Session{
		ID:    s.Id,
		Token: token,
	}
	if s.ExpiresAt != nil {
		out.ExpiresAt = *s.ExpiresAt
	}
	if s.Identity == nil {
		return out
	}

	out.Identity.ID = s.Identity.Id
	out.Identity.Metadata = map[string]string{}
	if traits, ok := s.Identity.Traits.(map[string]interface{}); ok {
		for k, v := range traits {
			if str, ok := v.(string); ok {
				out.Identity.Metadata[k] = str
			}
		}
		out.Identity.Email = out.Identity.Metadata["email"]
	}
	if meta, ok := s.Identity.MetadataPublic.(map[string]interface{}); ok {
		for k, v := range meta {
			if str, ok := v.(string); ok {
				out.Identity.Metadata[k] = str
			}
		}
	}
	return out
}

func statusOf(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}

func unavailable(err error, resp *http.Response) error {
	if resp != nil {
		return fmt.Errorf("%w: kratos returned status %d", identity.ErrUnavailable, resp.StatusCode)
	}
	return fmt.Errorf("%w: %w", identity.ErrUnavailable, err)
}
