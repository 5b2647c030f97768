package session

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTTL is the fixed session lifetime when none is configured.
const DefaultTTL = 30 * time.Minute

var (
	// ErrNoSigningSecret indicates the issuer was constructed without a
	// secret. The process must refuse to serve protected routes in that
	// state rather than sign tokens with an empty key.
	ErrNoSigningSecret = errors.New("session: signing secret not configured")
	// ErrExpired indicates a structurally valid token past its lifetime.
	ErrExpired = errors.New("session: token expired")
	// ErrInvalid indicates a token that fails signature or structure checks.
	ErrInvalid = errors.New("session: token invalid")
)

// Claims is the identity payload embedded in a session token.
type Claims struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Perms    string `json:"perms,omitempty"`
	jwt.RegisteredClaims
}

// Issuer mints and resolves signed session tokens. Expiry is absolute from
// issuance; there is no sliding renewal, re-authentication is the only
// renewal path.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer constructs an Issuer. An empty secret is a configuration error.
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, ErrNoSigningSecret
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{secret: []byte(secret), ttl: ttl}, nil
}

// TTL exposes the configured token lifetime.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue signs a token carrying the identity's claims. Claims are immutable
// once issued; authorization changes require a fresh login.
func (i *Issuer) Issue(identity *Identity) (string, error) {
	now := time.Now()
	claims := Claims{
		Name:     identity.Name,
		Username: identity.Username,
		Role:     identity.Role,
		Perms:    identity.CustomPermissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(identity.ID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("session: sign token: %w", err)
	}
	return token, nil
}

// Resolve verifies signature and expiry and reconstructs the identity with
// the fields it was issued with. Claims are never refreshed from the
// credential store.
func (i *Issuer) Resolve(token string) (*Identity, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}
	if !parsed.Valid {
		return nil, ErrInvalid
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrInvalid
	}
	identity := &Identity{
		ID:                id,
		Name:              claims.Name,
		Username:          claims.Username,
		Role:              claims.Role,
		CustomPermissions: claims.Perms,
		TokenID:           claims.RegisteredClaims.ID,
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}
	return identity, nil
}
