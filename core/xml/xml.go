// Package xml provides typed access to parsed XML documents.
//
// Documents are parsed with xmlquery and queried either by walking element
// children or with XPath. Node accessors never fail: absent or malformed
// attributes and child values fall back to the default supplied by the caller,
// which is how MusicXML laxity is absorbed before it reaches the interpreter.
//
// Security Notes:
//   - XXE (External Entity) attacks are mitigated by using Go's xml.Decoder
//     which doesn't fetch external entities by default, and we explicitly
//     disable entity expansion in validation functions.
//   - The xmlquery library is used for parsing, which uses Go's encoding/xml
//     internally and inherits its security properties.
package xml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// Document represents a parsed XML document.
type Document struct {
	root *xmlquery.Node
}

// Node represents an XML element. The zero Node and a nil *Node are both
// valid and behave as an empty element.
type Node struct {
	node *xmlquery.Node
}

// ValidationResult contains the result of XML validation.
type ValidationResult struct {
	Valid  bool
	Errors []ValidationError
}

// ValidationError represents a single validation error.
type ValidationError struct {
	Line    int
	Column  int
	Message string
}

// Parse parses XML data and returns a Document.
func Parse(data []byte) (*Document, error) {
	return ParseReader(bytes.NewReader(data))
}

// ParseReader parses XML from r and returns a Document.
func ParseReader(r io.Reader) (*Document, error) {
	root, err := xmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing XML: %w", err)
	}
	return &Document{root: root}, nil
}

// Validate validates XML data and returns a ValidationResult.
// If schema is nil, only well-formedness is checked.
//
// Security: This function is protected against XXE (XML External Entity) attacks
// by disabling entity expansion.
func Validate(data []byte, schema []byte) ValidationResult {
	result := ValidationResult{Valid: true}

	decoder := xml.NewDecoder(bytes.NewReader(data))

	// XXE Protection (CWE-611): Disable entity expansion to prevent XXE attacks.
	decoder.Entity = map[string]string{}

	for {
		_, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			line, _ := decoder.InputPos()
			result.Valid = false
			result.Errors = append(result.Errors, ValidationError{
				Line:    line,
				Column:  0,
				Message: err.Error(),
			})
			break
		}
	}

	return result
}

// Root returns the root element of the document.
func (d *Document) Root() *Node {
	if d == nil || d.root == nil {
		return nil
	}
	for child := d.root.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			return &Node{node: child}
		}
	}
	return nil
}

// XPath executes an XPath query and returns matching nodes.
func (d *Document) XPath(expr string) ([]*Node, error) {
	return queryAll(d.root, expr)
}

// XPathFirst executes an XPath query and returns the first matching node.
func (d *Document) XPathFirst(expr string) (*Node, error) {
	return queryFirst(d.root, expr)
}

// Serialize converts the document back to XML bytes.
func (d *Document) Serialize() []byte {
	if d.root == nil {
		return nil
	}
	return []byte(d.root.OutputXML(true))
}

func queryAll(root *xmlquery.Node, expr string) ([]*Node, error) {
	// Compile the expression to check for errors
	if _, err := xpath.Compile(expr); err != nil {
		return nil, fmt.Errorf("invalid xpath: %w", err)
	}

	nodes, err := xmlquery.QueryAll(root, expr)
	if err != nil {
		return nil, fmt.Errorf("xpath query failed: %w", err)
	}

	result := make([]*Node, len(nodes))
	for i, n := range nodes {
		result[i] = &Node{node: n}
	}
	return result, nil
}

func queryFirst(root *xmlquery.Node, expr string) (*Node, error) {
	if _, err := xpath.Compile(expr); err != nil {
		return nil, fmt.Errorf("invalid xpath: %w", err)
	}

	node, err := xmlquery.Query(root, expr)
	if err != nil {
		return nil, fmt.Errorf("xpath query failed: %w", err)
	}
	if node == nil {
		return nil, nil
	}
	return &Node{node: node}, nil
}

// IsZero reports whether the node is absent.
func (n *Node) IsZero() bool {
	return n == nil || n.node == nil
}

// Name returns the element name.
func (n *Node) Name() string {
	if n.IsZero() {
		return ""
	}
	return n.node.Data
}

// Text returns the trimmed text content of the node.
func (n *Node) Text() string {
	if n.IsZero() {
		return ""
	}
	return strings.TrimSpace(n.node.InnerText())
}

// InnerXML returns the inner XML of the node.
func (n *Node) InnerXML() string {
	if n.IsZero() {
		return ""
	}
	var buf bytes.Buffer
	for child := n.node.FirstChild; child != nil; child = child.NextSibling {
		buf.WriteString(child.OutputXML(true))
	}
	return buf.String()
}

// Children returns the child element nodes in document order.
func (n *Node) Children() []*Node {
	if n.IsZero() {
		return nil
	}

	var children []*Node
	for child := n.node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			children = append(children, &Node{node: child})
		}
	}
	return children
}

// ChildrenNamed returns the child elements called name in document order.
func (n *Node) ChildrenNamed(name string) []*Node {
	if n.IsZero() {
		return nil
	}

	var children []*Node
	for child := n.node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode && child.Data == name {
			children = append(children, &Node{node: child})
		}
	}
	return children
}

// First returns the first child element called name, or nil.
func (n *Node) First(name string) *Node {
	if n.IsZero() {
		return nil
	}
	for child := n.node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode && child.Data == name {
			return &Node{node: child}
		}
	}
	return nil
}

// Has reports whether a child element called name exists.
func (n *Node) Has(name string) bool {
	return n.First(name) != nil
}

// Descendant follows a path of child element names, returning nil as soon as
// one step is missing.
func (n *Node) Descendant(path ...string) *Node {
	cur := n
	for _, name := range path {
		cur = cur.First(name)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// XPath runs an XPath query relative to this node.
func (n *Node) XPath(expr string) ([]*Node, error) {
	if n.IsZero() {
		return nil, nil
	}
	return queryAll(n.node, expr)
}

// Attributes returns all attributes of the node.
func (n *Node) Attributes() map[string]string {
	if n.IsZero() {
		return nil
	}

	attrs := make(map[string]string)
	for _, attr := range n.node.Attr {
		attrs[attr.Name.Local] = attr.Value
	}
	return attrs
}

// HasAttr reports whether the attribute is present.
func (n *Node) HasAttr(name string) bool {
	if n.IsZero() {
		return false
	}
	for _, attr := range n.node.Attr {
		if attr.Name.Local == name {
			return true
		}
	}
	return false
}

// Attr returns the value of a specific attribute.
func (n *Node) Attr(name string) string {
	if n.IsZero() {
		return ""
	}
	return n.node.SelectAttr(name)
}

// AttrDefault returns the attribute value, or def when absent or empty.
func (n *Node) AttrDefault(name, def string) string {
	if v := strings.TrimSpace(n.Attr(name)); v != "" {
		return v
	}
	return def
}

// AttrInt returns the attribute as an int, or def when absent or invalid.
func (n *Node) AttrInt(name string, def int) int {
	if p := n.AttrIntPtr(name); p != nil {
		return *p
	}
	return def
}

// AttrIntPtr returns the attribute as an int, or nil when absent or invalid.
func (n *Node) AttrIntPtr(name string) *int {
	return parseIntPtr(n.Attr(name))
}

// AttrFloat returns the attribute as a float64, or def when absent or invalid.
func (n *Node) AttrFloat(name string, def float64) float64 {
	if p := n.AttrFloatPtr(name); p != nil {
		return *p
	}
	return def
}

// AttrFloatPtr returns the attribute as a float64, or nil when absent or invalid.
func (n *Node) AttrFloatPtr(name string) *float64 {
	return parseFloatPtr(n.Attr(name))
}

// AttrBool interprets MusicXML yes-no attributes, returning def when the
// attribute is absent or holds anything else.
func (n *Node) AttrBool(name string, def bool) bool {
	return parseYesNo(n.Attr(name), def)
}

// ChildText returns the trimmed text of the first child called name, or def.
func (n *Node) ChildText(name, def string) string {
	if c := n.First(name); c != nil {
		if v := c.Text(); v != "" {
			return v
		}
	}
	return def
}

// ChildInt returns the first child called name as an int, or def.
func (n *Node) ChildInt(name string, def int) int {
	if p := n.ChildIntPtr(name); p != nil {
		return *p
	}
	return def
}

// ChildIntPtr returns the first child called name as an int, or nil.
func (n *Node) ChildIntPtr(name string) *int {
	return parseIntPtr(n.ChildText(name, ""))
}

// ChildFloat returns the first child called name as a float64, or def.
func (n *Node) ChildFloat(name string, def float64) float64 {
	if p := parseFloatPtr(n.ChildText(name, "")); p != nil {
		return *p
	}
	return def
}

// IntText returns the node text as an int, or def.
func (n *Node) IntText(def int) int {
	if p := parseIntPtr(n.Text()); p != nil {
		return *p
	}
	return def
}

// FloatText returns the node text as a float64, or def.
func (n *Node) FloatText(def float64) float64 {
	if p := parseFloatPtr(n.Text()); p != nil {
		return *p
	}
	return def
}

func parseIntPtr(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		// MusicXML allows decimals in several integer-ish slots (e.g. "2.0").
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return nil
		}
		v = int(f)
	}
	return &v
}

func parseFloatPtr(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseYesNo(s string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true":
		return true
	case "no", "false":
		return false
	default:
		return def
	}
}
