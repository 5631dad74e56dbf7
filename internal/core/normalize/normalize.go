// Package normalize canonicalizes coordinate text read from index segments.
// Pipeline order
// 1 Sanitize drops invalid UTF-8 and control characters
// 2 Unicode NFC composition
// 3 Remove format characters (zero-width joiners, BOM)
// 4 Trim surrounding whitespace
package normalize

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizer is safe for concurrent use
type Normalizer struct{}

var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFC,
			runes.Remove(runes.In(unicode.Cf)),
		)
	},
}

// New constructs a Normalizer
func New() *Normalizer { return &Normalizer{} }

// Normalize returns the canonical form of s. The result may be empty
func (n *Normalizer) Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = Sanitize(s)

	if !isPlainASCII(s) {
		tr := chainPool.Get().(transform.Transformer)
		out, _, err := transform.String(tr, s)
		tr.Reset()
		chainPool.Put(tr)
		if err == nil {
			s = out
		}
	}
	return strings.TrimSpace(s)
}

// Coordinate normalizes the three identity parts of a coordinate.
// ok is false when any part is empty afterwards
func (n *Normalizer) Coordinate(group, artifact, version string) (g, a, v string, ok bool) {
	g, a, v = n.Normalize(group), n.Normalize(artifact), n.Normalize(version)
	return g, a, v, g != "" && a != "" && v != ""
}

// isPlainASCII is the fast path for the overwhelmingly common coordinate
func isPlainASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
