package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/bookshelf/account-service/internal/core/domain"
	"github.com/bookshelf/account-service/internal/core/ports"
)

// SessionVerifier resolves bearer tokens to cached session snapshots. It
// requires the session cache: there is no fallback to the identity store, so
// a missing snapshot means the request is unauthenticated.
type SessionVerifier struct {
	tokens ports.TokenIssuer
	cache  ports.SessionCache
	log    zerolog.Logger
}

func NewSessionVerifier(tokens ports.TokenIssuer, cache ports.SessionCache, log zerolog.Logger) *SessionVerifier {
	return &SessionVerifier{tokens: tokens, cache: cache, log: log}
}

func (v *SessionVerifier) Resolve(ctx context.Context, role domain.Role, token string) (*domain.SessionSnapshot, error) {
	username, err := v.tokens.Verify(token, role)
	if err != nil {
		v.log.Debug().Err(err).Str("role", string(role)).Msg("token rejected")
		return nil, nil
	}

	snap, err := v.cache.Get(ctx, username)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		v.log.Debug().Str("username", username).Msg("no cached session for token subject")
		return nil, nil
	}
	return snap, nil
}
