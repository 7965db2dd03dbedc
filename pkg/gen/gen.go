// Package gen provides utility functions for generating stable identifiers.
package gen

import (
	"fmt"

	"github.com/google/uuid"
)

const sep = "|"

// Key generates a composite key from the provided strings a and b.
func Key(a, b string) string {
	return fmt.Sprintf("%s%s%s", a, sep, b)
}

// UUIDv5 generates a deterministic UUIDv5 from the provided strings a and b.
// The same pair always yields the same UUID, so a task keeps its identity
// across runs.
func UUIDv5(a, b string) string {
	key := Key(a, b)

	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()
}
