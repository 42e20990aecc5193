package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/goSession/identity"
	"github.com/MrEthical07/goSession/profile"
)

// RestoreDeps captures dependencies for adopting a provider session, either at
// startup or from a change notification.
type RestoreDeps struct {
	Token          TokenDeps
	ResolveProfile func(context.Context, identity.Identity) profile.Result
	Now            func() time.Time

	// Expiry is the expiry already held for the same user, zero otherwise.
	Expiry time.Time
}

// RestoreResult is an accepted user, a rejection reason, or Aborted when ctx
// ended first.
type RestoreResult struct {
	Accepted bool
	Aborted  bool
	User     profile.User
	Outcome  profile.Outcome
	Reason   Reason
	Err      error
}

// RunRestore checks the stored application token backing sess and resolves the
// user's profile. A rejected restore means the provider session must be signed out
// and provider-side tokens purged.
func RunRestore(ctx context.Context, sess identity.Session, deps RestoreDeps) RestoreResult {
	_, reason, err := checkToken(ctx, deps.Token)
	if ctx.Err() != nil {
		return RestoreResult{Aborted: true, Err: ctx.Err()}
	}
	if reason == ReasonTokenMissing {
		// A provider session with no application token behind it.
		reason = ReasonInconsistent
	}
	if reason != ReasonNone {
		return RestoreResult{Reason: reason, Err: err}
	}
	if !deps.Expiry.IsZero() && !deps.Now().Before(deps.Expiry) {
		return RestoreResult{Reason: ReasonSessionExpired}
	}

	res := deps.ResolveProfile(ctx, sess.Identity)
	if ctx.Err() != nil {
		return RestoreResult{Aborted: true, Err: ctx.Err()}
	}
	return RestoreResult{
		Accepted: true,
		User:     res.User,
		Outcome:  res.Outcome,
		Err:      res.Err,
	}
}
