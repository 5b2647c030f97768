package auth

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

// Scheme identifies which hashing scheme certified a password.
type Scheme int

const (
	// SchemeLegacyDigest is the predecessor system's unsalted MD5 digest,
	// stored as 32 lowercase hex characters. Retained for backward
	// compatibility only; records matching it are due for re-hash.
	SchemeLegacyDigest Scheme = iota
	// SchemeModernHash is the salted bcrypt scheme used for newly set or
	// migrated passwords.
	SchemeModernHash
)

func (s Scheme) String() string {
	if s == SchemeLegacyDigest {
		return "legacy-digest"
	}
	return "modern-hash"
}

type strategy struct {
	scheme Scheme
	match  func(stored, password string) bool
}

// strategies are tried in declaration order; the first match wins. A
// well-formed record is valid under at most one scheme, so order only
// decides which comparison runs first.
var strategies = []strategy{
	{SchemeLegacyDigest, matchLegacyDigest},
	{SchemeModernHash, matchModernHash},
}

func matchLegacyDigest(stored, password string) bool {
	return subtle.ConstantTimeCompare([]byte(LegacyDigest(password)), []byte(stored)) == 1
}

// matchModernHash fails safely when the stored secret is not a well-formed
// bcrypt hash; bcrypt reports that as an ordinary error.
func matchModernHash(stored, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
}

// LegacyDigest computes the legacy scheme's digest of a password. Exposed
// for provisioning fixtures and tests.
func LegacyDigest(password string) string {
	sum := md5.Sum([]byte(password))
	return hex.EncodeToString(sum[:])
}

// UpgradeHash derives a modern-scheme hash for credential migration.
func UpgradeHash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
