package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationList records token IDs invalidated before their natural expiry,
// keyed in Redis with a TTL equal to the token's remaining lifetime. Signed
// tokens cannot otherwise be torn down server-side, so logout pushes the
// token here and the guard checks membership.
type RevocationList struct {
	client *redis.Client
}

// NewRevocationList constructs a RevocationList backed by the given client.
func NewRevocationList(client *redis.Client) *RevocationList {
	return &RevocationList{client: client}
}

// Revoke marks the token ID as invalid until the token would have expired.
func (l *RevocationList) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if l == nil || l.client == nil || tokenID == "" {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return l.client.Set(ctx, revocationKey(tokenID), "1", ttl).Err()
}

// Revoked reports whether the token ID has been revoked.
func (l *RevocationList) Revoked(ctx context.Context, tokenID string) (bool, error) {
	if l == nil || l.client == nil || tokenID == "" {
		return false, nil
	}
	if err := l.client.Get(ctx, revocationKey(tokenID)).Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func revocationKey(tokenID string) string {
	return "revoked:" + tokenID
}
