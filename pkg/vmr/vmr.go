// Package vmr reads the XML apparatus served by the New Testament Virtual
// Manuscript Room.
//
// Each segment element is a variation unit identified by its verse and word
// segment range. Its segmentReading descendants carry a label such as "a",
// "bf" or "zw", the reading text, and a compound witness list like
// "P45 03 2805(S,T) [33] vgms".
package vmr

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/coolbeans/collatrix/pkg/collation"
	"github.com/coolbeans/collatrix/pkg/markup"
	"github.com/coolbeans/collatrix/pkg/reading"
	"github.com/coolbeans/collatrix/pkg/witness"
)

// Adapter parses VMR apparatus documents.
type Adapter struct {
	normalizer *witness.VMR
}

// NewAdapter creates an adapter using the subwitness suffixes of the options.
func NewAdapter(options collation.Options) *Adapter {
	return &Adapter{normalizer: witness.NewVMR(options.SubwitnessSuffixes)}
}

// Name returns "vmr".
func (adapter *Adapter) Name() string {
	return "vmr"
}

// Normalizer returns the VMR witness normalizer.
func (adapter *Adapter) Normalizer() witness.Normalizer {
	return adapter.normalizer
}

// ParseDocument returns every segment of the document as a variation unit,
// in document order.
func (adapter *Adapter) ParseDocument(source io.Reader) ([]collation.VariationUnit, error) {
	root, err := markup.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", collation.ErrMalformedDocument, err)
	}

	segments := root.DescendantsNamed("segment")
	if root.Name.Local == "segment" {
		segments = append([]*markup.Element{root}, segments...)
	}

	units := make([]collation.VariationUnit, 0, len(segments))
	for _, segment := range segments {
		unit, err := adapter.parseSegment(segment)
		if err != nil {
			return nil, err
		}
		units = append(units, unit)
	}
	return units, nil
}

func (adapter *Adapter) parseSegment(segment *markup.Element) (collation.VariationUnit, error) {
	verse, hasVerse := segment.Attribute("verse")
	wordSegments, hasWordSegments := segment.Attribute("wordsegs")
	if !hasVerse || !hasWordSegments {
		return collation.VariationUnit{}, fmt.Errorf("%w: segment is missing verse or wordsegs", collation.ErrMalformedDocument)
	}

	unit := collation.VariationUnit{ID: verse + "/" + wordSegments}
	for _, segmentReading := range segment.DescendantsNamed("segmentReading") {
		candidate, err := adapter.parseReading(unit.ID, segmentReading)
		if err != nil {
			return collation.VariationUnit{}, err
		}
		unit.Candidates = append(unit.Candidates, candidate)
	}
	return unit, nil
}

func (adapter *Adapter) parseReading(unitID string, segmentReading *markup.Element) (collation.Candidate, error) {
	rawLabel, ok := segmentReading.Attribute("label")
	if !ok {
		return collation.Candidate{}, fmt.Errorf("%w: reading in segment %s has no label", collation.ErrMalformedDocument, unitID)
	}
	text, ok := segmentReading.Attribute("reading")
	if !ok {
		return collation.Candidate{}, fmt.Errorf("%w: reading %s in segment %s has no reading text", collation.ErrMalformedDocument, rawLabel, unitID)
	}

	label := reading.CleanLabel(rawLabel)
	candidate := collation.Candidate{
		RawLabel: label,
		TypeName: reading.ClassifyLabel(label),
		Text:     norm.NFC.String(text),
		Support:  adapter.normalizer.Tokens(segmentReading.AttributeOr("witnesses", "")),
	}
	if candidate.TypeName == reading.TypeAmbiguous {
		candidate.Alternatives = strings.Split(strings.ReplaceAll(candidate.Text, "_f", ""), "/")
	}
	return candidate, nil
}
