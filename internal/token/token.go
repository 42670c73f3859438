// Package token generates placeholder credentials for
// identity-provider-originated profiles.
package token

import (
	"strings"

	"github.com/google/uuid"
)

// Generator produces URL-safe random tokens.
type Generator struct{}

// New returns a Generator.
func New() *Generator {
	return &Generator{}
}

// Generate returns a random token of the requested length, built from
// hex-encoded v4 UUIDs.
func (g *Generator) Generate(length int) string {
	if length <= 0 {
		return ""
	}
	var b strings.Builder
	for b.Len() < length {
		b.WriteString(strings.ReplaceAll(uuid.New().String(), "-", ""))
	}
	return b.String()[:length]
}
