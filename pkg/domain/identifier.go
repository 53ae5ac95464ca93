package domain

import (
	"regexp"
	"strings"
)

// uuidPrefixPattern matches a well-formed UUID at the start of an identifier,
// ignoring any trailing decoration. Defective legacy seeding produced compound
// ids of the form "<uuid>-<suffix>"; the UUID portion is the canonical value.
var uuidPrefixPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)

// hexFragmentPattern matches a bare hexadecimal fragment long enough to be an
// unambiguous prefix of a UUID's first segment.
var hexFragmentPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}$`)

// rawIDPattern bounds the characters accepted in an externally supplied task
// identifier before any lookup is attempted.
var rawIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:-]*$`)

// maxRawIDLength bounds identifier length; nothing legitimate comes close.
const maxRawIDLength = 128

// CanonicalUUID extracts the canonical UUID portion from a possibly
// decorated identifier. It returns the lower-cased UUID and true when the
// identifier begins with a well-formed UUID, or ("", false) otherwise.
// Extraction is grammar-based rather than positional so that non-UUID
// identifiers (for example "sf-42") are never silently mangled.
func CanonicalUUID(raw string) (string, bool) {
	m := uuidPrefixPattern.FindString(raw)
	if m == "" {
		return "", false
	}
	return strings.ToLower(m), true
}

// CanonicalPrefix derives the identifier prefix used by the resolver's
// loosest match step. For a UUID-bearing identifier this is the canonical
// UUID; for a bare eight-character hex fragment (a complete first UUID
// segment) it is the fragment itself. Identifiers with neither shape have no
// canonical prefix.
func CanonicalPrefix(raw string) (string, bool) {
	if canonical, ok := CanonicalUUID(raw); ok {
		return canonical, true
	}
	if hexFragmentPattern.MatchString(raw) {
		return strings.ToLower(raw), true
	}
	return "", false
}

// ValidRawID reports whether an externally supplied identifier is
// structurally acceptable for lookup. Identifiers failing this check are a
// client defect (400), distinct from a well-formed identifier that simply
// matches nothing (404).
func ValidRawID(raw string) bool {
	if raw == "" || len(raw) > maxRawIDLength {
		return false
	}
	return rawIDPattern.MatchString(raw)
}
