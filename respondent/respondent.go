// Package respondent identifies anonymous survey respondents by a random
// token the client keeps between requests.
package respondent

import "github.com/google/uuid"

// Valid reports whether token is a random (version 4, RFC 4122 variant) UUID.
func Valid(token string) bool {
	id, err := uuid.Parse(token)
	if err != nil {
		return false
	}
	return id.Version() == 4 && id.Variant() == uuid.RFC4122
}

// Resolve returns the respondent identifier for a request carrying token.
// A valid token is reused and existing is true; an absent or garbled token is
// replaced by a freshly minted one, and the caller is expected to hand the new
// value back to the client.
func Resolve(token string) (id string, existing bool) {
	if token != "" && Valid(token) {
		return token, true
	}
	return uuid.NewString(), false
}
