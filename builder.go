package goSession

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/identity"
	"github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/profile"
	"github.com/MrEthical07/goSession/tokenstore"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Builder assembles a [SessionStore]. A Builder is single-use.
type Builder struct {
	config Config
	kv     tokenstore.KV

	backend   BackendSessionService
	provider  IdentityProvider
	dataStore DataStore
	cache     *profile.Cache
	auditSink AuditSink
	logger    zerolog.Logger
	now       func() time.Time

	built bool
}

// New returns a Builder with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
		logger: zerolog.Nop(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithKV sets the durable key-value storage for tokens.
func (b *Builder) WithKV(kv tokenstore.KV) *Builder {
	b.kv = kv
	return b
}

// WithRedis stores tokens in Redis under namespace.
func (b *Builder) WithRedis(client redis.UniversalClient, namespace string) *Builder {
	if client != nil {
		b.kv = tokenstore.NewRedisKV(client, namespace)
	}
	return b
}

func (b *Builder) WithBackend(svc BackendSessionService) *Builder {
	b.backend = svc
	return b
}

// WithIdentityProvider sets the identity provider. Without one the store relies
// on the application token alone.
func (b *Builder) WithIdentityProvider(p IdentityProvider) *Builder {
	b.provider = p
	return b
}

func (b *Builder) WithDataStore(ds DataStore) *Builder {
	b.dataStore = ds
	return b
}

// WithProfileCache shares a profile cache with other components.
func (b *Builder) WithProfileCache(c *profile.Cache) *Builder {
	b.cache = c
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithLogger(l zerolog.Logger) *Builder {
	b.logger = l
	return b
}

// WithClock overrides time.Now for expiry computation and checks.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the store. The event bridge is
// subscribed immediately but forwards nothing until Initialize completes.
func (b *Builder) Build() (*SessionStore, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.kv == nil {
		return nil, errors.New("token storage required")
	}
	if b.backend == nil {
		return nil, errors.New("backend session service required")
	}
	if b.dataStore == nil {
		return nil, errors.New("profile data store required")
	}

	now := b.now
	if now == nil {
		now = time.Now
	}
	logger := b.logger.With().Str("component", "session").Logger()

	resolver := profile.NewResolver(b.dataStore, b.cache, profile.Config{
		FallbackRole: cfg.Profile.FallbackRole,
		DefaultRole:  cfg.Profile.DefaultRole,
		Now:          now,
		Logger:       logger,
	})

	rootCtx, rootCancel := context.WithCancel(context.Background())
	s := &SessionStore{
		config:     cfg,
		logger:     logger,
		now:        now,
		tokens:     tokenstore.NewStore(b.kv, cfg.Session.TokenKey, cfg.Session.ProviderTokenPrefix),
		backend:    b.backend,
		provider:   b.provider,
		resolver:   resolver,
		audit:      newAuditQueue(cfg.Audit, b.auditSink),
		metrics:    NewMetrics(cfg.Metrics),
		rootCtx:    rootCtx,
		rootCancel: rootCancel,
		listeners:  make(map[int]func(State)),
	}
	s.flows = flows.New(s.flowDeps())

	if b.provider != nil {
		s.bridge = identity.NewBridge(b.provider, bridgeSink{s: s}, identity.BridgeConfig{
			BufferSize: cfg.Bridge.BufferSize,
			OnDrop:     s.onBridgeDrop,
		})
	}

	b.built = true
	return s, nil
}

func (s *SessionStore) flowDeps() flows.Deps {
	deps := flows.Deps{
		Token: flows.TokenDeps{
			LoadToken: s.tokens.Load,
			ValidateToken: func(ctx context.Context, token string) (flows.TokenCheck, error) {
				v, err := s.backend.ValidateSession(ctx, token)
				return flows.TokenCheck{
					Valid:               v.Valid,
					OrganizationExpired: v.OrganizationExpired,
					UserExpired:         v.UserExpired,
				}, err
			},
		},
		SignIn: flows.SignInDeps{
			Login: func(ctx context.Context, email, password string) (string, string, error) {
				res, err := s.backend.Login(ctx, email, password)
				return res.ApplicationToken, res.UserID, err
			},
			IsInvalidCredentials: func(err error) bool {
				return errors.Is(err, ErrInvalidCredentials) || errors.Is(err, identity.ErrInvalidCredentials)
			},
			SaveToken:      s.tokens.Save,
			ResolveProfile: s.resolver.Resolve,
			Rollback:       s.rollbackSignIn,
			Now:            s.now,
			Lifetime:       s.config.Session.Lifetime,
		},
		Teardown: flows.TeardownDeps{
			LoadToken:           s.tokens.Load,
			BackendLogout:       s.backend.Logout,
			ClearToken:          s.tokens.Clear,
			PurgeProviderTokens: s.tokens.PurgeProviderTokens,
		},
		Restore: flows.RestoreDeps{
			ResolveProfile: s.resolver.Resolve,
			Now:            s.now,
		},
		Validity: flows.ValidityDeps{
			Now: s.now,
		},
	}

	if s.provider != nil {
		deps.SignIn.ProviderSignIn = s.provider.SignIn
		deps.Teardown.ProviderSignOut = s.provider.SignOut
		deps.Validity.ProviderHasSession = func(ctx context.Context) (bool, error) {
			sess, err := s.provider.CurrentSession(ctx)
			return sess != nil, err
		}
	}
	if strings.TrimSpace(s.config.Session.ProviderTokenPrefix) == "" {
		deps.Teardown.PurgeProviderTokens = nil
	}
	return deps
}
