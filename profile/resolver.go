package profile

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goSession/identity"
	"github.com/MrEthical07/goSession/roles"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// ErrNotFound is returned by a [DataStore] when no profile row exists.
var ErrNotFound = errors.New("profile not found")

// DataStore reads and provisions profile rows.
type DataStore interface {
	// FetchProfile returns the profile joined with its organization.
	FetchProfile(ctx context.Context, userID string) (User, error)
	// InsertProfile creates a profile row and returns it as stored.
	InsertProfile(ctx context.Context, p Profile) (User, error)
}

// Outcome reports how a [Result] was produced.
type Outcome uint8

const (
	OutcomeCached Outcome = iota
	OutcomeFetched
	OutcomeCreated
	OutcomeFallback
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCached:
		return "cached"
	case OutcomeFetched:
		return "fetched"
	case OutcomeCreated:
		return "created"
	case OutcomeFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Result is the outcome of a resolution. Err is set only for OutcomeFallback and
// carries the failure that forced the placeholder.
type Result struct {
	User    User
	Outcome Outcome
	Err     error
}

// Config tunes a [Resolver].
type Config struct {
	// FallbackRole is the role given to placeholder profiles. Defaults to roles.User.
	FallbackRole roles.Role
	// DefaultRole is the role of profiles provisioned on first sign-up. Defaults to
	// roles.User.
	DefaultRole roles.Role
	Now         func() time.Time
	Logger      zerolog.Logger
}

// Resolver resolves identities to users through a [Cache] and a [DataStore].
type Resolver struct {
	store DataStore
	cache *Cache
	cfg   Config
	group singleflight.Group
}

// NewResolver creates a [Resolver]. A nil cache gets a fresh one.
func NewResolver(store DataStore, cache *Cache, cfg Config) *Resolver {
	if cache == nil {
		cache = NewCache()
	}
	if cfg.FallbackRole == "" {
		cfg.FallbackRole = roles.User
	}
	if cfg.DefaultRole == "" {
		cfg.DefaultRole = roles.User
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Resolver{store: store, cache: cache, cfg: cfg}
}

// Cache returns the resolver's cache.
func (r *Resolver) Cache() *Cache {
	return r.cache
}

// Resolve returns the user for ident, serving from cache when possible. Concurrent
// misses for the same id share one Data Store round trip.
func (r *Resolver) Resolve(ctx context.Context, ident identity.Identity) Result {
	if u, ok := r.cache.Get(ident.ID); ok {
		return Result{User: u, Outcome: OutcomeCached}
	}
	return r.load(ctx, "resolve:"+ident.ID, ident)
}

// Refresh bypasses the cache and re-reads the user for ident.
func (r *Resolver) Refresh(ctx context.Context, ident identity.Identity) Result {
	return r.load(ctx, "refresh:"+ident.ID, ident)
}

func (r *Resolver) load(ctx context.Context, key string, ident identity.Identity) Result {
	gen := r.cache.Generation()

	v, _, _ := r.group.Do(key, func() (interface{}, error) {
		return r.fetch(ctx, gen, ident), nil
	})
	res := v.(Result)
	res.User = res.User.Clone()
	return res
}

func (r *Resolver) fetch(ctx context.Context, gen uint64, ident identity.Identity) Result {
	log := r.cfg.Logger.With().Str("user_id", ident.ID).Logger()

	u, err := r.store.FetchProfile(ctx, ident.ID)
	if err == nil {
		r.cache.PutIf(gen, u)
		return Result{User: u, Outcome: OutcomeFetched}
	}

	if !errors.Is(err, ErrNotFound) {
		log.Warn().Err(err).Msg("profile fetch failed, using placeholder")
		return Result{User: r.placeholder(ident), Outcome: OutcomeFallback, Err: err}
	}

	created, createErr := r.store.InsertProfile(ctx, r.defaultProfile(ident))
	if createErr != nil {
		log.Warn().Err(createErr).Msg("profile provisioning failed, using placeholder")
		return Result{User: r.placeholder(ident), Outcome: OutcomeFallback, Err: createErr}
	}

	log.Info().Msg("profile provisioned")
	r.cache.PutIf(gen, created)
	return Result{User: created, Outcome: OutcomeCreated}
}

func (r *Resolver) defaultProfile(ident identity.Identity) Profile {
	now := r.cfg.Now().UTC()
	return Profile{
		ID:        ident.ID,
		Email:     ident.Email,
		Username:  ident.Metadata["username"],
		Role:      r.cfg.DefaultRole,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (r *Resolver) placeholder(ident identity.Identity) User {
	p := r.defaultProfile(ident)
	p.Role = r.cfg.FallbackRole
	p.Placeholder = true
	return User{Profile: p}
}
