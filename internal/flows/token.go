package flows

import (
	"context"
)

// TokenCheck is the Backend Session Service verdict on an application token.
type TokenCheck struct {
	Valid               bool
	OrganizationExpired bool
	UserExpired         bool
}

// TokenDeps reads and validates the stored application token.
type TokenDeps struct {
	LoadToken     func(context.Context) (string, bool, error)
	ValidateToken func(context.Context, string) (TokenCheck, error)
}

// checkToken runs the shared token presence and validity steps. It returns an
// empty reason when the token is present, valid, and neither the user nor the
// organization has lapsed.
func checkToken(ctx context.Context, deps TokenDeps) (string, Reason, error) {
	token, ok, err := deps.LoadToken(ctx)
	if err != nil {
		return "", ReasonBackendUnavailable, err
	}
	if !ok {
		return "", ReasonTokenMissing, nil
	}

	check, err := deps.ValidateToken(ctx, token)
	if err != nil {
		return token, ReasonBackendUnavailable, err
	}
	switch {
	case !check.Valid:
		return token, ReasonTokenInvalid, nil
	case check.OrganizationExpired:
		return token, ReasonOrganizationExpired, nil
	case check.UserExpired:
		return token, ReasonUserExpired, nil
	}
	return token, ReasonNone, nil
}
