package session

import "time"

// Identity is the per-request view of an authenticated user, reconstructed
// from a validated session token. It is never persisted; a role or
// permission change only becomes visible after the next login.
type Identity struct {
	ID                int64
	Name              string
	Username          string
	Role              string
	CustomPermissions string

	// TokenID and ExpiresAt describe the token the identity was derived
	// from, so logout can revoke exactly that token for its remaining
	// lifetime.
	TokenID   string
	ExpiresAt time.Time
}
