package tei

import (
	"strings"

	"github.com/coolbeans/collatrix/pkg/markup"
)

// Serialize flattens the markup of a reading into one line of text.
//
// Words, abbreviations and highlighted spans contribute their text. Spaces
// and gaps become bracketed notes, expansions are parenthesized, unclear and
// supplied text is bracketed, and the options of a choice are bracketed and
// separated by slashes. Elements outside the TEI vocabulary contribute
// nothing.
func Serialize(element *markup.Element) string {
	if element.Name.Space != Namespace && element.Name.Space != "" {
		return ""
	}

	switch element.Name.Local {
	case "rdg":
		return element.Text + serializeChildren(element, " ")

	case "w", "abbr", "hi":
		return element.Text + serializeChildren(element, "") + element.Tail

	case "space":
		return bracketedNote("space", element, false) + element.Tail

	case "gap":
		return bracketedNote("gap", element, true) + element.Tail

	case "ex":
		return "(" + element.Text + serializeChildren(element, " ") + ")" + element.Tail

	case "unclear", "supplied":
		return "[" + element.Text + serializeChildren(element, " ") + "]" + element.Tail

	case "choice":
		return "[" + element.Text + serializeChildren(element, "/") + "]" + element.Tail

	case "ref":
		return "[" + element.Text + "]" + element.Tail
	}

	return ""
}

func serializeChildren(element *markup.Element, separator string) string {
	parts := make([]string, len(element.Children))
	for index, child := range element.Children {
		parts[index] = Serialize(child)
	}
	return strings.Join(parts, separator)
}

// bracketedNote renders a space or gap as "[name (reason), extent unit]".
// Gaps repeat the reason after the parentheses, as existing collation
// labels do.
func bracketedNote(name string, element *markup.Element, repeatReason bool) string {
	var builder strings.Builder
	builder.WriteString("[")
	builder.WriteString(name)

	if reason, ok := element.Attribute("reason"); ok {
		builder.WriteString(" (")
		builder.WriteString(reason)
		builder.WriteString(")")
		if repeatReason {
			builder.WriteString(reason)
		}
	}

	unit, hasUnit := element.Attribute("unit")
	extent, hasExtent := element.Attribute("extent")
	if hasUnit && hasExtent {
		builder.WriteString(", ")
		builder.WriteString(extent)
		builder.WriteString(" ")
		builder.WriteString(unit)
	}

	builder.WriteString("]")
	return builder.String()
}
