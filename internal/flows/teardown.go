package flows

import (
	"context"
	"errors"
)

// TeardownDeps captures the durable and remote cleanup performed on sign-out and
// on invalidation. BackendLogout is nil when the token must not be revoked
// remotely.
type TeardownDeps struct {
	LoadToken           func(context.Context) (string, bool, error)
	BackendLogout       func(context.Context, string) error
	ProviderSignOut     func(context.Context) error
	ClearToken          func(context.Context) error
	PurgeProviderTokens func(context.Context) (int, error)
}

// TeardownResult reports best-effort cleanup. Err joins every step failure; a
// failing step never prevents the following ones.
type TeardownResult struct {
	Purged int
	Err    error
}

// RunTeardown revokes and clears every durable session artifact.
func RunTeardown(ctx context.Context, deps TeardownDeps) TeardownResult {
	var errs []error

	if deps.BackendLogout != nil && deps.LoadToken != nil {
		if token, ok, err := deps.LoadToken(ctx); err != nil {
			errs = append(errs, err)
		} else if ok {
			if err := deps.BackendLogout(ctx, token); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if deps.ProviderSignOut != nil {
		if err := deps.ProviderSignOut(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := deps.ClearToken(ctx); err != nil {
		errs = append(errs, err)
	}

	var purged int
	if deps.PurgeProviderTokens != nil {
		n, err := deps.PurgeProviderTokens(ctx)
		if err != nil {
			errs = append(errs, err)
		}
		purged = n
	}
	return TeardownResult{Purged: purged, Err: errors.Join(errs...)}
}
