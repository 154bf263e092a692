// Package identity derives stable node identifiers from free-text
// names. The same logical entity always maps to the same UUID within
// and across process runs, which is what makes re-ingestion idempotent.
package identity

import (
	"strings"

	"github.com/google/uuid"
)

// Namespace under which all node ids are derived. Changing it changes
// every persisted identity, so it is fixed for the lifetime of a store.
var Namespace = uuid.MustParse("8db4ab44-55b6-4e61-b1cf-3f1c853770f6")

// Normalize folds a raw name into its canonical key form: lower-case,
// spaces replaced with underscores, apostrophes stripped. Names that
// normalize identically are the same node; callers needing
// case-sensitive distinctness must pre-disambiguate.
func Normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "'", "")
	return s
}

// DeriveID maps a raw name to its stable node id: a UUIDv5 of the
// normalized name under the fixed namespace.
func DeriveID(raw string) uuid.UUID {
	return uuid.NewSHA1(Namespace, []byte(Normalize(raw)))
}
