// Package reading classifies candidate readings at a variation unit.
//
// Every candidate carries a type name: the verbatim type attribute of a TEI
// reading, or the type inferred from a VMR reading label. A Policy resolves
// that name into the Kind that decides how the reading enters the matrix.
package reading

import (
	"regexp"
	"strings"
)

// Kind is the semantic role of a candidate reading.
type Kind int

const (
	// Substantive readings become matrix rows.
	Substantive Kind = iota
	// Trivial readings are configured to collapse away; they get no row.
	Trivial
	// Ignored readings are excluded entirely.
	Ignored
	// Ambiguous readings split their support across the substantive
	// readings they could denote.
	Ambiguous
	// Lacunose readings mark a witness that is not extant here.
	Lacunose
	// Overlap readings mark a witness covered by an overlapping unit.
	Overlap
)

// String returns the name of the kind.
func (kind Kind) String() string {
	switch kind {
	case Substantive:
		return "substantive"
	case Trivial:
		return "trivial"
	case Ignored:
		return "ignored"
	case Ambiguous:
		return "ambiguous"
	case Lacunose:
		return "lacunose"
	case Overlap:
		return "overlap"
	default:
		return "unknown"
	}
}

// Retained reports whether readings of this kind become matrix rows.
func (kind Kind) Retained() bool {
	return kind == Substantive || kind == Lacunose || kind == Overlap
}

// Reading type names shared by both grammars.
const (
	TypeSubstantive  = ""
	TypeAmbiguous    = "ambiguous"
	TypeLacunose     = "lac"
	TypeOverlap      = "overlap"
	TypeOrthographic = "orthographic"
	TypeDefective    = "defective"
)

// Policy holds the caller-configured trivial and ignored reading types.
type Policy struct {
	Trivial map[string]bool
	Ignored map[string]bool
}

// NewPolicy builds a Policy from lists of type names.
func NewPolicy(trivialTypes, ignoredTypes []string) Policy {
	policy := Policy{
		Trivial: make(map[string]bool, len(trivialTypes)),
		Ignored: make(map[string]bool, len(ignoredTypes)),
	}
	for _, typeName := range trivialTypes {
		policy.Trivial[typeName] = true
	}
	for _, typeName := range ignoredTypes {
		policy.Ignored[typeName] = true
	}
	return policy
}

// Resolve maps a type name to a Kind. The ignored set is consulted first,
// then the trivial set, then the built-in ambiguous, lacunose and overlap
// names. Any other name, including unknown ones, is substantive.
func (policy Policy) Resolve(typeName string) Kind {
	switch {
	case policy.Ignored[typeName]:
		return Ignored
	case policy.Trivial[typeName]:
		return Trivial
	case typeName == TypeAmbiguous:
		return Ambiguous
	case typeName == TypeLacunose:
		return Lacunose
	case typeName == TypeOverlap:
		return Overlap
	default:
		return Substantive
	}
}

// labelRule infers a type name from a cleaned VMR reading label.
type labelRule struct {
	typeName string
	matches  func(label string) bool
}

func exactLabel(sentinel string) func(string) bool {
	return func(label string) bool { return label == sentinel }
}

var (
	orthographicLabelPattern = regexp.MustCompile(`^[a-z]+o\d*$`)
	defectiveLabelPattern    = regexp.MustCompile(`^[a-z]+f\d*$`)
)

// labelRules are evaluated in order and the first match wins. The sentinel
// labels come first; the shape patterns are only consulted for labels that
// are not sentinels.
var labelRules = []labelRule{
	{TypeLacunose, exactLabel("zz")},
	{TypeAmbiguous, exactLabel("zw")},
	{TypeOverlap, exactLabel("zu")},
	{TypeOrthographic, orthographicLabelPattern.MatchString},
	{TypeDefective, defectiveLabelPattern.MatchString},
}

// CleanLabel removes the diamond markers the VMR puts around some labels
// and trims surrounding whitespace.
func CleanLabel(label string) string {
	return strings.TrimSpace(strings.ReplaceAll(label, "♦", ""))
}

// ClassifyLabel infers the type name of a VMR reading from its label.
// Labels that match no rule are substantive.
func ClassifyLabel(label string) string {
	cleaned := CleanLabel(label)
	for _, rule := range labelRules {
		if rule.matches(cleaned) {
			return rule.typeName
		}
	}
	return TypeSubstantive
}
