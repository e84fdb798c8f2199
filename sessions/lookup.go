package sessions

// HashField selects which stored hash a bearer token is compared against.
type HashField int

const (
	AccessHash HashField = iota
	RefreshHash
)

// FindByToken returns the first session whose selected hash verifies against
// bearer, or nil. Hashes are salted, so this is a linear scan by design of the
// storage format; callers keep the candidate set to one user's sessions.
func FindByToken(candidates []*Session, field HashField, bearer string, verify func(secret, hashed string) bool) *Session {
	for _, s := range candidates {
		hashed := s.AccessTokenHash
		if field == RefreshHash {
			hashed = s.RefreshTokenHash
		}
		if verify(bearer, hashed) {
			return s
		}
	}
	return nil
}
