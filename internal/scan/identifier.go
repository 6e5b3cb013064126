package scan

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// IdentifierLength is the exact length of a valid resource identifier.
// Hardware readers emit exactly this many characters per tag.
const IdentifierLength = 8

var identifierPattern = regexp.MustCompile(`^[A-Z0-9]{8}$`)

// FormatError reports input that is not a well-formed identifier.
// It is rejected before any lookup and has no side effects.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid identifier %q: %s", e.Input, e.Reason)
}

// NormalizeIdentifier canonicalizes raw input into identifier form:
// Unicode NFC, surrounding whitespace trimmed, upper-cased (identifiers
// are case-insensitive on the wire).
//
// Returns a FormatError unless the result is exactly 8 alphanumeric
// characters. Invalid input never reaches lookup.
func NormalizeIdentifier(raw string) (string, error) {
	s := norm.NFC.String(strings.TrimSpace(raw))
	s = strings.ToUpper(s)

	if len(s) != IdentifierLength {
		return "", &FormatError{Input: raw, Reason: fmt.Sprintf("want %d characters, got %d", IdentifierLength, len(s))}
	}
	if !identifierPattern.MatchString(s) {
		return "", &FormatError{Input: raw, Reason: "only A-Z and 0-9 allowed"}
	}
	return s, nil
}
