package commands

import (
	"context"
	"fmt"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/backend"
	"github.com/MrEthical07/goSession/identity/kratos"
	"github.com/MrEthical07/goSession/internal/logging"
	"github.com/MrEthical07/goSession/profile/pgstore"
	"github.com/MrEthical07/goSession/tokenstore"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Globals are the connection flags shared by every command.
type Globals struct {
	Debug       bool   `help:"Enable debug logging."`
	Config      string `help:"YAML configuration file." type:"existingfile" env:"GOSESSION_CONFIG"`
	RedisAddr   string `help:"Redis address holding session tokens." default:"localhost:6379" env:"GOSESSION_REDIS_ADDR"`
	Namespace   string `help:"Redis key namespace." default:"gosession" env:"GOSESSION_NAMESPACE"`
	KratosURL   string `help:"Kratos public API URL." default:"http://localhost:4433" env:"GOSESSION_KRATOS_URL"`
	BackendURL  string `help:"Backend session service URL." default:"http://localhost:8080" env:"GOSESSION_BACKEND_URL"`
	DatabaseURL string `help:"PostgreSQL connection string for profiles." env:"GOSESSION_DATABASE_URL" required:""`
}

// runtime is an opened session store and everything it holds open.
type runtime struct {
	store    *goSession.SessionStore
	provider *kratos.Provider
	log      zerolog.Logger
	close    func()
}

func open(ctx context.Context, g *Globals, audit bool) (*runtime, error) {
	logger := logging.Setup(g.Debug)

	cfg := goSession.DefaultConfig()
	if g.Config != "" {
		loaded, err := goSession.LoadConfig(g.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.Metrics.Enabled = true
	cfg.Audit.Enabled = cfg.Audit.Enabled || audit

	rdb := redis.NewClient(&redis.Options{Addr: g.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	kv := tokenstore.NewRedisKV(rdb, g.Namespace)

	pool, err := pgxpool.New(ctx, g.DatabaseURL)
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	provider, err := kratos.New(kratos.Config{PublicURL: g.KratosURL, Logger: logger}, kv)
	if err != nil {
		pool.Close()
		_ = rdb.Close()
		return nil, err
	}

	client, err := backend.New(backend.Config{BaseURL: g.BackendURL, Logger: logger})
	if err != nil {
		pool.Close()
		_ = rdb.Close()
		return nil, err
	}

	b := goSession.New().
		WithConfig(cfg).
		WithKV(kv).
		WithIdentityProvider(provider).
		WithBackend(goSession.HTTPBackend(client)).
		WithDataStore(pgstore.New(pool)).
		WithLogger(logger)
	if cfg.Audit.Enabled {
		b = b.WithAuditSink(goSession.NewJSONWriterSink(stdout))
	}

	store, err := b.Build()
	if err != nil {
		pool.Close()
		_ = rdb.Close()
		return nil, err
	}

	return &runtime{
		store:    store,
		provider: provider,
		log:      logger,
		close: func() {
			store.Close()
			pool.Close()
			_ = rdb.Close()
		},
	}, nil
}

// initialize opens the store and runs its startup restore.
func initialize(ctx context.Context, g *Globals, audit bool) (*runtime, error) {
	rt, err := open(ctx, g, audit)
	if err != nil {
		return nil, err
	}
	if err := rt.store.Initialize(ctx); err != nil {
		rt.close()
		return nil, err
	}
	return rt, nil
}

func printState(s goSession.State) {
	if s.User == nil {
		fmt.Fprintf(stdout, "%-16s signed out (generation %d)\n", s.Phase, s.Generation)
		return
	}
	expiry := "none"
	if !s.Expiry.IsZero() {
		expiry = s.Expiry.Format(time.RFC3339)
	}
	org := "-"
	if s.User.Organization != nil {
		org = s.User.Organization.Name
	}
	fmt.Fprintf(stdout, "%-16s %s <%s> role=%s org=%s expiry=%s\n",
		s.Phase, s.User.ID, s.User.Email, s.User.Role, org, expiry)
}
