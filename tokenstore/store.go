package tokenstore

import (
	"context"
	"errors"
	"strings"
)

// DefaultTokenKey is the well-known key holding the application session token.
const DefaultTokenKey = "custom_session_token"

// ErrEmptyToken is returned by [Store.Save] for an empty token.
var ErrEmptyToken = errors.New("empty session token")

// Store owns the application session token and the provider-token purge.
type Store struct {
	kv             KV
	tokenKey       string
	providerPrefix string
}

// NewStore creates a [Store]. tokenKey defaults to [DefaultTokenKey]. An empty
// providerPrefix disables [Store.PurgeProviderTokens].
func NewStore(kv KV, tokenKey, providerPrefix string) *Store {
	if tokenKey == "" {
		tokenKey = DefaultTokenKey
	}
	return &Store{
		kv:             kv,
		tokenKey:       tokenKey,
		providerPrefix: providerPrefix,
	}
}

// Load returns the stored application token. ok is false when no token is stored.
func (s *Store) Load(ctx context.Context) (string, bool, error) {
	token, ok, err := s.kv.Get(ctx, s.tokenKey)
	if err != nil {
		return "", false, err
	}
	if !ok || strings.TrimSpace(token) == "" {
		return "", false, nil
	}
	return token, true, nil
}

// Save replaces the stored application token.
func (s *Store) Save(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return ErrEmptyToken
	}
	return s.kv.Set(ctx, s.tokenKey, token)
}

// Clear removes the stored application token. Clearing an absent token is a no-op.
func (s *Store) Clear(ctx context.Context) error {
	return s.kv.Remove(ctx, s.tokenKey)
}

// ClearIf removes the stored token only when it still equals token. It reports
// whether a removal happened.
func (s *Store) ClearIf(ctx context.Context, token string) (bool, error) {
	current, ok, err := s.Load(ctx)
	if err != nil {
		return false, err
	}
	if !ok || current != token {
		return false, nil
	}
	return true, s.Clear(ctx)
}

// PurgeProviderTokens removes every key following the identity provider's token
// naming convention. The application token is never matched, even if its key
// happens to share the prefix.
func (s *Store) PurgeProviderTokens(ctx context.Context) (int, error) {
	if s.providerPrefix == "" {
		return 0, nil
	}

	if strings.HasPrefix(s.tokenKey, s.providerPrefix) {
		token, ok, err := s.Load(ctx)
		if err != nil {
			return 0, err
		}
		removed, err := s.kv.RemoveMatching(ctx, s.providerPrefix)
		if err != nil {
			return removed, err
		}
		if ok {
			if err := s.Save(ctx, token); err != nil {
				return removed, err
			}
			removed--
		}
		return removed, nil
	}

	return s.kv.RemoveMatching(ctx, s.providerPrefix)
}

// ProviderPrefix returns the provider-token key prefix.
func (s *Store) ProviderPrefix() string {
	return s.providerPrefix
}
