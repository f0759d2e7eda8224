package imdb

import (
	"errors"
	"strings"
)

const idPrefix = "tt"

// ErrInvalidID marks identifiers that fail the syntactic sanity check.
var ErrInvalidID = errors.New("invalid IMDb id")

// NormalizeID prepends the tt prefix when missing. Idempotent.
func NormalizeID(raw string) string {
	if !strings.HasPrefix(raw, idPrefix) {
		return idPrefix + raw
	}
	return raw
}

// ValidateID checks the raw, pre-normalization identifier. It rejects empty
// or too-short tokens before any network call; it does not guarantee the
// identifier resolves to a real title.
func ValidateID(raw string) error {
	if raw == "" || len(raw) < 7 {
		return ErrInvalidID
	}
	return nil
}
