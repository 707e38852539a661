// Package tei reads critical apparatus encoded in TEI XML.
//
// Each app element is a variation unit and each of its rdg children a
// candidate reading. Witness support comes from the wit attribute, whose
// tokens are pointers such as "#01C2".
package tei

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

// Namespace is the TEI P5 namespace.
const Namespace = "http://www.tei-c.org/ns/1.0"

// Adapter parses TEI apparatus documents.
type Adapter struct {
	ambiguousPrefix string
	normalizer      *witness.TEI
}

// NewAdapter creates an adapter using the ambiguous reading prefix and
// subwitness suffixes of the options.
func NewAdapter(options collation.Options) *Adapter {
	return &Adapter{
		ambiguousPrefix: options.AmbiguousReadingPrefix,
		normalizer:      witness.NewTEI(options.SubwitnessSuffixes),
	}
}

// Name returns "tei".
func (adapter *Adapter) Name() string {
	return "tei"
}

// Normalizer returns the TEI witness normalizer.
func (adapter *Adapter) Normalizer() witness.Normalizer {
	return adapter.normalizer
}

// ParseDocument returns every app element of the document as a variation
// unit, in document order.
func (adapter *Adapter) ParseDocument(source io.Reader) ([]collation.VariationUnit, error) {
	root, err := markup.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", collation.ErrMalformedDocument, err)
	}

	var units []collation.VariationUnit
	for _, app := range root.Descendants(isTEIElement("app")) {
		unit, err := adapter.parseApp(app)
		if err != nil {
			return nil, err
		}
		units = append(units, unit)
	}
	if isTEIElement("app")(root) {
		unit, err := adapter.parseApp(root)
		if err != nil {
			return nil, err
		}
		units = append([]collation.VariationUnit{unit}, units...)
	}

	return units, nil
}

func (adapter *Adapter) parseApp(app *markup.Element) (collation.VariationUnit, error) {
	unitID, ok := app.ID()
	if !ok {
		unitID, ok = app.Attribute("n")
	}
	if !ok {
		return collation.VariationUnit{}, fmt.Errorf("%w: app element has neither xml:id nor n", collation.ErrMalformedDocument)
	}

	unit := collation.VariationUnit{ID: unitID}
	for _, rdg := range app.Children {
		if !isTEIElement("rdg")(rdg) {
			continue
		}
		unit.Candidates = append(unit.Candidates, adapter.parseReading(rdg))
	}
	return unit, nil
}

func (adapter *Adapter) parseReading(rdg *markup.Element) collation.Candidate {
	candidate := collation.Candidate{
		RawLabel: rdg.AttributeOr("n", ""),
		TypeName: rdg.AttributeOr("type", reading.TypeSubstantive),
		Text:     norm.NFC.String(Serialize(rdg)),
		Support:  adapter.normalizer.Tokens(rdg.AttributeOr("wit", "")),
	}
	if candidate.TypeName == reading.TypeAmbiguous {
		candidate.Alternatives = strings.Split(strings.TrimPrefix(candidate.RawLabel, adapter.ambiguousPrefix), "/")
	}
	return candidate
}

func isTEIElement(local string) func(*markup.Element) bool {
	return func(element *markup.Element) bool {
		return element.Is(Namespace, local) || element.Is("", local)
	}
}
