// Package id mints the opaque identifiers used for items, sessions and
// token IDs. Each identifier is a kind prefix, a hyphen and a 21 character
// NanoID, e.g. "item-V1StGXR8_Z5jdHi6B-myT".
package id

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Kind is the prefix that tags what an identifier names.
type Kind string

// Identifier kinds.
const (
	Item    Kind = "item"
	Session Kind = "session"
	Token   Kind = "token"
)

const nanoLength = 21

// New returns a fresh identifier of the given kind.
func New(kind Kind) (string, error) {
	n, err := gonanoid.New(nanoLength)
	if err != nil {
		return "", fmt.Errorf("generate %s id: %w", kind, err)
	}
	return string(kind) + "-" + n, nil
}

// Is reports whether s has the shape of an identifier minted for kind.
// It does not check that the record exists.
func Is(kind Kind, s string) bool {
	rest, ok := strings.CutPrefix(s, string(kind)+"-")
	if !ok || len(rest) != nanoLength {
		return false
	}
	for _, c := range rest {
		if !isURLSafe(c) {
			return false
		}
	}
	return true
}

func isURLSafe(c rune) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' || c == '-'
}
