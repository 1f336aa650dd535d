package xml

import (
	"testing"
)

const sampleNote = `<?xml version="1.0"?>
<measure number="3" width="212.5" implicit="no">
	<note default-x="12">
		<pitch><step>C</step><alter>-1</alter><octave>4</octave></pitch>
		<duration>2</duration>
		<voice>1</voice>
		<type>quarter</type>
		<dot/>
		<notations>
			<slur number="2" type="start"/>
		</notations>
	</note>
	<backup><duration>2</duration></backup>
</measure>`

// TestParseValidXML verifies parsing of well-formed XML.
func TestParseValidXML(t *testing.T) {
	doc, err := Parse([]byte(sampleNote))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	root := doc.Root()
	if root == nil {
		t.Fatal("Root() returned nil")
	}
	if root.Name() != "measure" {
		t.Errorf("Root().Name() = %q, want measure", root.Name())
	}
}

// TestParseInvalidXML verifies error handling for malformed XML.
func TestParseInvalidXML(t *testing.T) {
	tests := []struct {
		name string
		xml  string
	}{
		{"unclosed tag", "<root><element></root>"},
		{"mismatched tags", "<root></other>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.xml)); err == nil {
				t.Error("Parse should fail for invalid XML")
			}
		})
	}
}

// TestValidateWellFormed verifies well-formedness validation.
func TestValidateWellFormed(t *testing.T) {
	if result := Validate([]byte(sampleNote), nil); !result.Valid {
		t.Errorf("Valid XML should pass: %v", result.Errors)
	}
	result := Validate([]byte("<score><part></score>"), nil)
	if result.Valid {
		t.Error("malformed XML should not validate")
	}
	if len(result.Errors) != 1 {
		t.Errorf("len(Errors) = %d, want 1", len(result.Errors))
	}
}

func TestNodeNavigation(t *testing.T) {
	doc, err := Parse([]byte(sampleNote))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	root := doc.Root()

	children := root.Children()
	if len(children) != 2 {
		t.Fatalf("len(Children()) = %d, want 2", len(children))
	}
	if children[0].Name() != "note" || children[1].Name() != "backup" {
		t.Errorf("children = %s, %s", children[0].Name(), children[1].Name())
	}

	note := root.First("note")
	if got := note.Descendant("pitch", "step").Text(); got != "C" {
		t.Errorf("step = %q, want C", got)
	}
	if note.Descendant("pitch", "missing", "deeper") != nil {
		t.Error("Descendant through a missing step should be nil")
	}
	if !note.Has("dot") {
		t.Error("Has(dot) = false, want true")
	}
	if got := len(note.ChildrenNamed("dot")); got != 1 {
		t.Errorf("ChildrenNamed(dot) = %d, want 1", got)
	}
	if root.First("forward") != nil {
		t.Error("First(forward) should be nil")
	}
}

func TestTypedAccessors(t *testing.T) {
	doc, err := Parse([]byte(sampleNote))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	root := doc.Root()
	note := root.First("note")
	pitch := note.First("pitch")
	slur := note.Descendant("notations", "slur")

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"attr int", root.AttrInt("number", 0), 3},
		{"attr float", root.AttrFloat("width", 0), 212.5},
		{"attr bool no", root.AttrBool("implicit", true), false},
		{"attr bool missing", root.AttrBool("print-object", true), true},
		{"attr default", slur.AttrDefault("placement", "above"), "above"},
		{"attr int missing", slur.AttrInt("bezier-x", -1), -1},
		{"child int", pitch.ChildInt("alter", 0), -1},
		{"child int default", pitch.ChildInt("missing", 7), 7},
		{"child text", note.ChildText("type", ""), "quarter"},
		{"child text default", note.ChildText("stem", "auto"), "auto"},
		{"child float", note.ChildFloat("duration", 0), 2.0},
		{"int text", note.First("voice").IntText(0), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}

	if p := root.AttrIntPtr("nope"); p != nil {
		t.Errorf("AttrIntPtr(nope) = %v, want nil", *p)
	}
	if !slur.HasAttr("number") || slur.HasAttr("orientation") {
		t.Error("HasAttr mismatch")
	}
}

func TestNilNodeIsSafe(t *testing.T) {
	var n *Node
	if !n.IsZero() {
		t.Error("nil node should be zero")
	}
	if n.Name() != "" || n.Text() != "" || n.Attr("x") != "" {
		t.Error("nil node accessors should return empty values")
	}
	if n.Children() != nil || n.First("x") != nil {
		t.Error("nil node should have no children")
	}
	if got := n.AttrInt("x", 4); got != 4 {
		t.Errorf("AttrInt default = %d, want 4", got)
	}
	if got := n.ChildText("x", "def"); got != "def" {
		t.Errorf("ChildText default = %q, want def", got)
	}
}

func TestDecimalIntegers(t *testing.T) {
	doc, err := Parse([]byte(`<divisions>2.0</divisions>`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := doc.Root().IntText(0); got != 2 {
		t.Errorf("IntText() = %d, want 2", got)
	}
}

func TestXPath(t *testing.T) {
	doc, err := Parse([]byte(`<score-partwise><part id="P1"><measure number="1"/><measure number="2"/></part><part id="P2"><measure number="1"/></part></score-partwise>`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	measures, err := doc.XPath("//part[@id='P1']/measure")
	if err != nil {
		t.Fatalf("XPath failed: %v", err)
	}
	if len(measures) != 2 {
		t.Errorf("len(measures) = %d, want 2", len(measures))
	}

	first, err := doc.XPathFirst("//part[@id='P2']")
	if err != nil || first == nil {
		t.Fatalf("XPathFirst failed: %v", err)
	}
	if first.Attr("id") != "P2" {
		t.Errorf("id = %q, want P2", first.Attr("id"))
	}

	none, err := doc.XPathFirst("//part[@id='P9']")
	if err != nil {
		t.Fatalf("XPathFirst failed: %v", err)
	}
	if none != nil {
		t.Error("XPathFirst for a missing part should be nil")
	}

	if _, err := doc.XPath("//part[@id="); err == nil {
		t.Error("invalid xpath should fail")
	}

	local, err := first.XPath("measure")
	if err != nil || len(local) != 1 {
		t.Errorf("relative XPath = %d, %v", len(local), err)
	}
}
