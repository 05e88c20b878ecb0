// =============================================================================
// ASYCUDA XML Converter - XML Writer Module
// =============================================================================
//
// This module holds the document tree produced by the builder and the
// serializer that turns it into indented XML text.
//
// XML STRUCTURE:
//   A tree is a plain hierarchy of named nodes. A node carries either text
//   or children, never both. A node with neither is written self-closed:
//
//   <ASYCUDA>
//     <SAD>
//       <Identification>
//         <Manifest_reference_number>LV02 2025 6241</Manifest_reference_number>
//         <Office_segment>
//           <Customs_clearance_office_code>LV01</Customs_clearance_office_code>
//         </Office_segment>
//       </Identification>
//     </SAD>
//     <Items>
//       <Item>
//         <Packages>
//           <Marks2_of_packages/>
//         </Packages>
//       </Item>
//     </Items>
//   </ASYCUDA>
//
// =============================================================================

package xmlwriter

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// =============================================================================
// DOCUMENT TREE
// =============================================================================

// Node is one element of a document tree.
type Node struct {
	Name     string
	Text     string
	Children []*Node
}

// NewNode creates a container element.
func NewNode(name string, children ...*Node) *Node {
	return &Node{Name: name, Children: children}
}

// Leaf creates a text element. An empty text yields an empty element.
func Leaf(name, text string) *Node {
	return &Node{Name: name, Text: text}
}

// Append adds children in order and returns n.
func (n *Node) Append(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Child returns the first direct child called name, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns every direct child called name, in order.
func (n *Node) ChildrenNamed(name string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Find follows a slash separated path of child names starting below n.
// It returns nil when any step is missing.
func (n *Node) Find(path string) *Node {
	cur := n
	for _, step := range strings.Split(path, "/") {
		if step == "" {
			continue
		}
		cur = cur.Child(step)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// Walk visits n and its descendants depth first. depth is 0 for n.
func (n *Node) Walk(fn func(node *Node, depth int)) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(*Node, int), depth int) {
	fn(n, depth)
	for _, c := range n.Children {
		c.walk(fn, depth+1)
	}
}

// Equal reports whether two trees have the same names, texts and child order.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	if n.Name != other.Name || n.Text != other.Text || len(n.Children) != len(other.Children) {
		return false
	}
	for i := range n.Children {
		if !n.Children[i].Equal(other.Children[i]) {
			return false
		}
	}
	return true
}

// =============================================================================
// XML GENERATION OPTIONS
// =============================================================================

// GenerateOptions contains options for XML generation.
type GenerateOptions struct {
	// Indent is the string used for indentation.
	// Default: "  " (two spaces)
	Indent string

	// IncludeXMLDeclaration determines whether to include the XML declaration.
	// Default: true
	IncludeXMLDeclaration bool

	// XMLVersion is the XML version for the declaration.
	// Default: "1.0"
	XMLVersion string

	// Encoding is the encoding for the XML declaration.
	// Default: "UTF-8"
	Encoding string
}

// DefaultGenerateOptions returns the default generation options.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Indent:                "  ",
		IncludeXMLDeclaration: true,
		XMLVersion:            "1.0",
		Encoding:              "UTF-8",
	}
}

// =============================================================================
// XML GENERATION FUNCTIONS
// =============================================================================

// Marshal serializes root with the default options.
func Marshal(root *Node) ([]byte, error) {
	return MarshalWithOptions(root, DefaultGenerateOptions())
}

// MarshalWithOptions serializes root into a byte slice.
func MarshalWithOptions(root *Node, options GenerateOptions) ([]byte, error) {
	var buffer bytes.Buffer
	if err := Write(&buffer, root, options); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// Write serializes root to w.
//
// PARAMETERS:
//   - w: The destination.
//   - root: The document root. Must not be nil.
//   - options: The generation options.
//
// RETURNS:
//   - An error if the tree is malformed or the write fails.
func Write(w io.Writer, root *Node, options GenerateOptions) error {
	if root == nil {
		return fmt.Errorf("xmlwriter: nil document")
	}

	var buffer bytes.Buffer

	if options.IncludeXMLDeclaration {
		fmt.Fprintf(&buffer, "<?xml version=\"%s\" encoding=\"%s\"?>\n",
			options.XMLVersion, options.Encoding)
	}

	if err := writeElement(&buffer, root, options.Indent, 0); err != nil {
		return err
	}

	if _, err := w.Write(buffer.Bytes()); err != nil {
		return fmt.Errorf("failed to write XML: %w", err)
	}
	return nil
}

// writeElement writes an XML element to the buffer with indentation.
func writeElement(buffer *bytes.Buffer, element *Node, indent string, level int) error {
	if !isValidName(element.Name) {
		return fmt.Errorf("xmlwriter: invalid element name %q", element.Name)
	}
	if element.Text != "" && len(element.Children) > 0 {
		return fmt.Errorf("xmlwriter: element %s has both text and children", element.Name)
	}

	writeIndent(buffer, indent, level)

	buffer.WriteString("<")
	buffer.WriteString(element.Name)

	if len(element.Children) == 0 && element.Text == "" {
		buffer.WriteString("/>\n")
		return nil
	}

	buffer.WriteString(">")

	if element.Text != "" {
		buffer.WriteString(escapeXML(element.Text))
	} else {
		buffer.WriteString("\n")
		for _, child := range element.Children {
			if err := writeElement(buffer, child, indent, level+1); err != nil {
				return err
			}
		}
		writeIndent(buffer, indent, level)
	}

	buffer.WriteString("</")
	buffer.WriteString(element.Name)
	buffer.WriteString(">\n")
	return nil
}

func writeIndent(buffer *bytes.Buffer, indent string, level int) {
	for i := 0; i < level; i++ {
		buffer.WriteString(indent)
	}
}

// isValidName accepts the element names used by the ASYCUDA schema:
// letters, digits, underscore, hyphen and dot, not starting with a digit.
func isValidName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case i > 0 && (r == '-' || r == '.' || (r >= '0' && r <= '9')):
		default:
			return false
		}
	}
	return true
}

// IsXMLChar reports whether r may appear in XML 1.0 character data.
func IsXMLChar(r rune) bool {
	return r == 0x09 ||
		r == 0x0A ||
		r == 0x0D ||
		r >= 0x20 && r <= 0xD7FF ||
		r >= 0xE000 && r <= 0xFFFD ||
		r >= 0x10000 && r <= 0x10FFFF
}

// escapeXML escapes special characters for XML. Characters XML does not
// allow are replaced with U+FFFD, as encoding/xml does.
func escapeXML(s string) string {
	var buffer bytes.Buffer

	for _, r := range s {
		switch r {
		case '&':
			buffer.WriteString("&amp;")
		case '<':
			buffer.WriteString("&lt;")
		case '>':
			buffer.WriteString("&gt;")
		case '"':
			buffer.WriteString("&quot;")
		case '\'':
			buffer.WriteString("&apos;")
		default:
			if !IsXMLChar(r) {
				r = '\uFFFD'
			}
			buffer.WriteRune(r)
		}
	}

	return buffer.String()
}
