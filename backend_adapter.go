package goSession

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goSession/backend"
)

type httpBackend struct {
	client *backend.Client
}

// HTTPBackend adapts a [backend.Client] to [BackendSessionService].
func HTTPBackend(client *backend.Client) BackendSessionService {
	return httpBackend{client: client}
}

func (b httpBackend) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	res, err := b.client.Login(ctx, email, password)
	if err != nil {
		return LoginResponse{}, mapBackendErr(err)
	}
	return LoginResponse{ApplicationToken: res.Token, UserID: res.UserID}, nil
}

func (b httpBackend) Logout(ctx context.Context, token string) error {
	return mapBackendErr(b.client.Logout(ctx, token))
}

func (b httpBackend) ValidateSession(ctx context.Context, token string) (SessionValidation, error) {
	v, err := b.client.ValidateSession(ctx, token)
	if err != nil {
		return SessionValidation{}, mapBackendErr(err)
	}
	return SessionValidation{
		Valid:               v.Valid,
		OrganizationExpired: v.OrganizationExpired,
		UserExpired:         v.UserExpired,
	}, nil
}

func mapBackendErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, backend.ErrInvalidCredentials):
		return ErrInvalidCredentials
	default:
		return fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}
}
