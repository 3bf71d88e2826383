package push

import (
	"context"
	"errors"
	"strings"

	"github.com/go-push-dispatch/internal/domain"
)

type profileReader interface {
	Get(ctx context.Context, userID string) (*domain.Profile, error)
}

// TokenResolver looks up a recipient's current push token.
type TokenResolver struct {
	profiles profileReader
}

func NewTokenResolver(profiles profileReader) *TokenResolver {
	return &TokenResolver{profiles: profiles}
}

// Resolve returns the recipient's token. ok is false when the profile is
// missing or has no token; that is a normal outcome, not an error.
func (r *TokenResolver) Resolve(ctx context.Context, userID string) (token string, ok bool, err error) {
	p, err := r.profiles.Get(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if p.PushToken == nil || strings.TrimSpace(*p.PushToken) == "" {
		return "", false, nil
	}
	return *p.PushToken, true, nil
}
