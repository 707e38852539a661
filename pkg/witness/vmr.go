package witness

import (
	"regexp"
	"strings"
)

var (
	// manuscriptPattern recognizes Greek manuscript sigla: papyri (P),
	// lectionaries (L), majuscules and minuscules all start with digits
	// after an optional prefix.
	manuscriptPattern = regexp.MustCompile(`^[PL]*\d+`)

	// defectPattern matches the trailing "f" (Fehler) marker with an
	// optional counter.
	defectPattern = regexp.MustCompile(`f\d*$`)

	// parentheticalPattern matches a siglum followed by a parenthesized,
	// comma-separated suffix list, e.g. "2805(S, T)".
	parentheticalPattern = regexp.MustCompile(`(\S+)\(([^()]*)\)`)

	bracketReplacer = strings.NewReplacer("[", "", "]", "", ">", "")
)

// IsManuscript reports whether a siglum denotes a Greek manuscript rather
// than a patristic or versional witness.
func IsManuscript(siglum string) bool {
	return manuscriptPattern.MatchString(siglum)
}

// VMR normalizes witness strings from the New Testament Virtual Manuscript
// Room apparatus API.
type VMR struct {
	// Suffixes are the sub-witness suffixes, checked in order.
	Suffixes []string
}

// NewVMR creates a VMR normalizer for the given sub-witness suffixes.
func NewVMR(suffixes []string) *VMR {
	return &VMR{Suffixes: suffixes}
}

// Preprocess rewrites a raw witnesses attribute: it drops the square
// brackets around supplied sigla and the angle brackets after versional
// sigla, expands parenthetical suffix lists into one siglum per suffix and
// removes "ms"/"mss" collection markers from non-manuscript sigla.
func (vmrNormalizer *VMR) Preprocess(support string) string {
	processed := bracketReplacer.Replace(support)
	processed = vmrNormalizer.expandParentheticalSuffixes(processed)

	sigla := strings.Fields(processed)
	for index, siglum := range sigla {
		if !IsManuscript(siglum) {
			sigla[index] = trimCollectionMarker(siglum)
		}
	}
	return strings.Join(sigla, " ")
}

// Tokens preprocesses a witnesses attribute and returns its manuscript
// tokens. Parsing stops at the first patristic or versional siglum: their
// notation cannot be split unambiguously, so only the manuscript witnesses
// that precede them are returned.
func (vmrNormalizer *VMR) Tokens(support string) []string {
	var tokens []string
	for _, siglum := range strings.Fields(vmrNormalizer.Preprocess(support)) {
		if !IsManuscript(siglum) {
			break
		}
		tokens = append(tokens, siglum)
	}
	return tokens
}

// Normalize strips configured sub-witness suffixes, defect markers and
// versional branch markers until none remain.
func (vmrNormalizer *VMR) Normalize(token string) string {
	return fixedPoint(token, vmrNormalizer.stripOnce)
}

func (vmrNormalizer *VMR) stripOnce(siglum string) string {
	if cleaned := bracketReplacer.Replace(siglum); cleaned != "" && cleaned != siglum {
		return cleaned
	}
	if stripped, ok := stripSuffix(siglum, vmrNormalizer.Suffixes); ok {
		return stripped
	}
	if location := defectPattern.FindStringIndex(siglum); location != nil && location[0] > 0 {
		return siglum[:location[0]]
	}
	if len(siglum) > 1 && strings.HasSuffix(siglum, "V") {
		return siglum[:len(siglum)-1]
	}
	if !IsManuscript(siglum) {
		return trimCollectionMarker(siglum)
	}
	return siglum
}

// expandParentheticalSuffixes turns "X(a, b)" into "Xa Xb", normalizing X
// first so that "X(a)" and "Xf(a)" expand to the same witnesses.
func (vmrNormalizer *VMR) expandParentheticalSuffixes(support string) string {
	expanded := support
	for _, match := range parentheticalPattern.FindAllStringSubmatch(support, -1) {
		baseWitness := vmrNormalizer.Normalize(match[1])
		suffixes := strings.Split(strings.ReplaceAll(match[2], " ", ""), ",")

		expandedSigla := make([]string, 0, len(suffixes))
		for _, suffix := range suffixes {
			expandedSigla = append(expandedSigla, baseWitness+suffix)
		}
		expanded = strings.ReplaceAll(expanded, match[0], strings.Join(expandedSigla, " "))
	}
	return expanded
}

// trimCollectionMarker removes a trailing "mss" or "ms".
func trimCollectionMarker(siglum string) string {
	switch {
	case len(siglum) > 3 && strings.HasSuffix(siglum, "mss"):
		return siglum[:len(siglum)-3]
	case len(siglum) > 2 && strings.HasSuffix(siglum, "ms"):
		return siglum[:len(siglum)-2]
	}
	return siglum
}
