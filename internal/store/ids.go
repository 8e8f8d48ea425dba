package store

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// Kinds of workspace records with generated ids. Span ids are integer row ids,
// as on the backend.
const (
	kindText   = "text"
	kindReview = "rev"
)

// newPersistedID returns <kind>-<10 hex chars> taken from a random UUID.
// Persisted ids never start with the client's optimistic prefix.
func newPersistedID(kind string) (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return kind + "-" + hex.EncodeToString(u[:5]), nil
}
