package auth

// Credential is a stored login record. Records are provisioned externally
// and mutated only by password flows; verification never writes them.
type Credential struct {
	ID                int64
	Name              string
	Username          string
	Secret            string // 32-char lowercase hex digest or bcrypt hash
	Role              string
	CustomPermissions string
}

// VerifiedIdentity is the successful outcome of credential verification.
// NeedsUpgrade signals that the record still carries a legacy digest and
// should be opportunistically re-hashed by the caller.
type VerifiedIdentity struct {
	ID                int64
	Name              string // display name, uppercased with Turkish casing
	Username          string
	Role              string
	CustomPermissions string
	Scheme            Scheme
	NeedsUpgrade      bool
}
