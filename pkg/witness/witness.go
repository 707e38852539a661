// Package witness reduces raw witness sigla to canonical base witnesses.
//
// A collation attests readings with sigla that carry sub-witness markers
// (first hand, correctors, alternate text, multiple attestation, defects,
// versional branches). The normalizers in this package strip those markers so
// that every sub-witness collapses onto one base witness column.
package witness

import (
	"strings"
)

// Normalizer splits a raw support attribute into witness tokens and reduces
// each token to its base siglum.
type Normalizer interface {
	// Tokens splits a raw support attribute into the witness tokens that
	// should receive support.
	Tokens(support string) []string

	// Normalize reduces one witness token to its base siglum. Implementations
	// must be idempotent.
	Normalize(token string) string
}

// stripSuffix removes the first configured suffix that the siglum ends with.
// Suffixes that would consume the whole siglum are not stripped, so that an
// odd token still maps to some witness.
func stripSuffix(siglum string, suffixes []string) (string, bool) {
	for _, suffix := range suffixes {
		if suffix == "" {
			continue
		}
		if len(siglum) > len(suffix) && strings.HasSuffix(siglum, suffix) {
			return siglum[:len(siglum)-len(suffix)], true
		}
	}
	return siglum, false
}

// fixedPoint applies step until it stops changing the siglum.
func fixedPoint(siglum string, step func(string) string) string {
	for {
		next := step(siglum)
		if next == siglum {
			return siglum
		}
		siglum = next
	}
}

// TEI normalizes witness pointers from TEI XML apparatus markup, where the
// wit attribute holds whitespace-separated references such as "#01C2".
type TEI struct {
	// Suffixes are the sub-witness suffixes, checked in order.
	Suffixes []string
}

// NewTEI creates a TEI normalizer for the given sub-witness suffixes.
func NewTEI(suffixes []string) *TEI {
	return &TEI{Suffixes: suffixes}
}

// Tokens splits a wit attribute on whitespace.
func (teiNormalizer *TEI) Tokens(support string) []string {
	return strings.Fields(support)
}

// Normalize strips the leading "#" pointer marker and any stacked
// sub-witness suffixes.
func (teiNormalizer *TEI) Normalize(token string) string {
	return fixedPoint(token, func(siglum string) string {
		if trimmed := strings.TrimLeft(siglum, "#"); trimmed != "" && trimmed != siglum {
			return trimmed
		}
		stripped, _ := stripSuffix(siglum, teiNormalizer.Suffixes)
		return stripped
	})
}
