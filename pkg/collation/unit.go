package collation

import (
	"fmt"
	"strings"

	"github.com/coolbeans/collatrix/pkg/reading"
	"github.com/coolbeans/collatrix/pkg/witness"
)

// VariationUnit is a location in the text where witnesses disagree.
type VariationUnit struct {
	// ID is unique within a document.
	ID string

	// Candidates are the readings declared at this unit, in document order.
	Candidates []Candidate
}

// Candidate is one reading option declared at a variation unit, already
// translated out of its source grammar.
type Candidate struct {
	// RawLabel is the per-unit reading number or label ("a", "b", "1").
	RawLabel string

	// TypeName is the declared or inferred reading type; "" is substantive.
	TypeName string

	// Text is the serialized reading text.
	Text string

	// Support holds the raw witness tokens attesting this reading.
	Support []string

	// Alternatives are the raw labels an ambiguous reading could denote.
	Alternatives []string
}

// Label returns the document-wide reading label: unit ID, raw label and
// text joined by spaces.
func (candidate Candidate) Label(unitID string) string {
	return strings.Join([]string{unitID, candidate.RawLabel, candidate.Text}, " ")
}

// UnitSupport is the parsed support at one variation unit.
type UnitSupport struct {
	// UnitID identifies the variation unit.
	UnitID string

	// Readings are the labels of the retained readings, in document order.
	Readings []string

	// Witnesses are the base witnesses with support here, in first-seen order.
	Witnesses []string

	// Coefficients maps base witness to reading label to coefficient.
	Coefficients map[string]map[string]float64

	// Unresolved holds the raw labels of ambiguous readings that denote no
	// known reading and were dropped.
	Unresolved []string
}

// supportAccumulator collects coefficients per (witness, reading) for one
// unit. Sub-witness tokens that collapse onto the same base witness add up.
type supportAccumulator struct {
	witnesses    []string
	coefficients map[string]map[string]float64
}

func newSupportAccumulator() *supportAccumulator {
	return &supportAccumulator{coefficients: make(map[string]map[string]float64)}
}

func (accumulator *supportAccumulator) add(baseWitness string, weights map[string]float64) {
	witnessCoefficients, exists := accumulator.coefficients[baseWitness]
	if !exists {
		witnessCoefficients = make(map[string]float64, len(weights))
		accumulator.coefficients[baseWitness] = witnessCoefficients
		accumulator.witnesses = append(accumulator.witnesses, baseWitness)
	}
	for label, weight := range weights {
		witnessCoefficients[label] += weight
	}
}

// ParseUnit classifies the candidates of a unit, resolves ambiguous readings
// into fractional support and distributes coefficients to base witnesses.
//
// Readings are labeled in a first pass so that ambiguous readings can refer
// to any substantive reading of the unit, wherever it is declared. Trivial
// readings get no row and their support is discarded.
func ParseUnit(unit VariationUnit, policy reading.Policy, normalizer witness.Normalizer) (UnitSupport, error) {
	support := UnitSupport{UnitID: unit.ID}

	kinds := make([]reading.Kind, len(unit.Candidates))
	labelsByRawLabel := make(map[string]string)
	seenReadings := make(map[string]bool)

	for index, candidate := range unit.Candidates {
		kind := policy.Resolve(candidate.TypeName)
		kinds[index] = kind
		if !kind.Retained() {
			continue
		}
		if candidate.RawLabel == "" {
			return UnitSupport{}, fmt.Errorf("%w: unit %q has a %s reading without a label", ErrMalformedDocument, unit.ID, kind)
		}

		label := candidate.Label(unit.ID)
		labelsByRawLabel[candidate.RawLabel] = label
		if !seenReadings[label] {
			seenReadings[label] = true
			support.Readings = append(support.Readings, label)
		}
	}

	accumulator := newSupportAccumulator()
	for index, candidate := range unit.Candidates {
		var weights map[string]float64

		switch kinds[index] {
		case reading.Ignored, reading.Trivial:
			continue
		case reading.Ambiguous:
			weights = resolveAmbiguity(candidate.Alternatives, labelsByRawLabel)
			if len(weights) == 0 {
				support.Unresolved = append(support.Unresolved, candidate.RawLabel)
				continue
			}
		default:
			weights = map[string]float64{candidate.Label(unit.ID): 1}
		}

		for _, token := range candidate.Support {
			accumulator.add(normalizer.Normalize(token), weights)
		}
	}

	support.Witnesses = accumulator.witnesses
	support.Coefficients = accumulator.coefficients
	return support, nil
}

// resolveAmbiguity splits one unit of support evenly across every known
// reading an ambiguous reading could denote. It returns nil if none is known.
func resolveAmbiguity(alternatives []string, labelsByRawLabel map[string]string) map[string]float64 {
	weights := make(map[string]float64)
	for _, rawLabel := range alternatives {
		if label, known := labelsByRawLabel[rawLabel]; known {
			weights[label] = 1
		}
	}
	if len(weights) == 0 {
		return nil
	}

	share := 1 / float64(len(weights))
	for label := range weights {
		weights[label] = share
	}
	return weights
}
