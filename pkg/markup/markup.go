// Package markup builds a small mixed-content element tree from XML.
//
// encoding/xml either decodes into fixed structs or streams tokens; neither
// keeps the text that follows a child element attached to that child. The
// collation grammars need exactly that to serialize readings, so Parse keeps
// every run of character data as the Text of its parent (before the first
// child) or the Tail of the preceding sibling.
package markup

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

// XMLNamespace is the namespace bound to the reserved xml prefix.
const XMLNamespace = "http://www.w3.org/XML/1998/namespace"

// ErrNoRoot is returned for input that contains no element at all.
var ErrNoRoot = errors.New("document has no root element")

// Element is one XML element with its attributes, children and the text
// around them.
type Element struct {
	Name     xml.Name
	Attr     []xml.Attr
	Text     string
	Tail     string
	Children []*Element
}

// Parse reads a whole XML document and returns its root element. Unknown
// entities and mismatched end tags are tolerated; truncated input is not.
func Parse(reader io.Reader) (*Element, error) {
	decoder := xml.NewDecoder(reader)
	decoder.Strict = false
	decoder.Entity = xml.HTMLEntity

	var root *Element
	var stack []*Element

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse XML: %w", err)
		}

		switch typed := token.(type) {
		case xml.StartElement:
			element := &Element{
				Name: typed.Name,
				Attr: append([]xml.Attr(nil), typed.Attr...),
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("failed to parse XML: second root element <%s>", typed.Name.Local)
				}
				root = element
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, element)
			}
			stack = append(stack, element)

		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("failed to parse XML: unexpected end element </%s>", typed.Name.Local)
			}
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			parent := stack[len(stack)-1]
			if len(parent.Children) == 0 {
				parent.Text += string(typed)
			} else {
				last := parent.Children[len(parent.Children)-1]
				last.Tail += string(typed)
			}
		}
	}

	if len(stack) > 0 {
		return nil, fmt.Errorf("failed to parse XML: unclosed element <%s>", stack[len(stack)-1].Name.Local)
	}
	if root == nil {
		return nil, ErrNoRoot
	}
	return root, nil
}

// ParseBytes parses an in-memory document.
func ParseBytes(data []byte) (*Element, error) {
	return Parse(bytes.NewReader(data))
}

// Is reports whether the element has the given local name and namespace.
func (element *Element) Is(space, local string) bool {
	return element.Name.Space == space && element.Name.Local == local
}

// Attribute returns the value of an unqualified attribute.
func (element *Element) Attribute(local string) (string, bool) {
	for _, attr := range element.Attr {
		if attr.Name.Space == "" && attr.Name.Local == local {
			return attr.Value, true
		}
	}
	return "", false
}

// AttributeOr returns the value of an unqualified attribute, or fallback if
// the attribute is absent.
func (element *Element) AttributeOr(local, fallback string) string {
	if value, ok := element.Attribute(local); ok {
		return value
	}
	return fallback
}

// ID returns the xml:id attribute.
func (element *Element) ID() (string, bool) {
	for _, attr := range element.Attr {
		if attr.Name.Local != "id" {
			continue
		}
		if attr.Name.Space == XMLNamespace || attr.Name.Space == "xml" {
			return attr.Value, true
		}
	}
	return "", false
}

// ChildrenNamed returns the direct children with the given local name, in
// document order.
func (element *Element) ChildrenNamed(local string) []*Element {
	var children []*Element
	for _, child := range element.Children {
		if child.Name.Local == local {
			children = append(children, child)
		}
	}
	return children
}

// Walk visits the element's descendants in document order. Returning false
// from visit skips the subtree of that descendant.
func (element *Element) Walk(visit func(*Element) bool) {
	for _, child := range element.Children {
		if visit(child) {
			child.Walk(visit)
		}
	}
}

// Descendants returns every descendant for which match returns true, in
// document order.
func (element *Element) Descendants(match func(*Element) bool) []*Element {
	var found []*Element
	element.Walk(func(descendant *Element) bool {
		if match(descendant) {
			found = append(found, descendant)
		}
		return true
	})
	return found
}

// DescendantsNamed returns every descendant with the given local name.
func (element *Element) DescendantsNamed(local string) []*Element {
	return element.Descendants(func(descendant *Element) bool {
		return descendant.Name.Local == local
	})
}
