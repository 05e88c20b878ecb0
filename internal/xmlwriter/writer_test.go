package xmlwriter

import (
	"bytes"
	"encoding/xml"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() *Node {
	return NewNode("ASYCUDA",
		NewNode("SAD",
			NewNode("Identification",
				Leaf("Manifest_reference_number", "LV02 2025 6241"),
				Leaf("CAP", ""),
			),
		),
		NewNode("Items",
			NewNode("Item", Leaf("Description_of_goods", "Tools & <parts>")),
		),
	)
}

func TestMarshal(t *testing.T) {
	out, err := Marshal(sampleTree())
	require.NoError(t, err)

	want := `<?xml version="1.0" encoding="UTF-8"?>
<ASYCUDA>
  <SAD>
    <Identification>
      <Manifest_reference_number>LV02 2025 6241</Manifest_reference_number>
      <CAP/>
    </Identification>
  </SAD>
  <Items>
    <Item>
      <Description_of_goods>Tools &amp; &lt;parts&gt;</Description_of_goods>
    </Item>
  </Items>
</ASYCUDA>
`
	assert.Equal(t, want, string(out))
}

func TestMarshal_WellFormed(t *testing.T) {
	out, err := Marshal(sampleTree())
	require.NoError(t, err)

	dec := xml.NewDecoder(bytes.NewReader(out))
	for {
		_, err := dec.Token()
		if err != nil {
			assert.ErrorIs(t, err, io.EOF)
			break
		}
	}
}

func TestMarshalWithOptions_NoDeclaration(t *testing.T) {
	out, err := MarshalWithOptions(Leaf("Empty", ""), GenerateOptions{Indent: "\t"})
	require.NoError(t, err)
	assert.Equal(t, "<Empty/>\n", string(out))
}

func TestMarshal_Errors(t *testing.T) {
	tests := []struct {
		name string
		root *Node
	}{
		{"nil root", nil},
		{"blank name", NewNode("A", Leaf("", "x"))},
		{"name starting with digit", Leaf("1st", "x")},
		{"text and children", &Node{Name: "A", Text: "x", Children: []*Node{Leaf("B", "")}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Marshal(tt.root)
			assert.Error(t, err)
		})
	}
}

func TestNodeNavigation(t *testing.T) {
	root := sampleTree()

	assert.Equal(t, "LV02 2025 6241", root.Find("SAD/Identification/Manifest_reference_number").Text)
	assert.Nil(t, root.Find("SAD/Transport"))
	assert.Len(t, root.Child("Items").ChildrenNamed("Item"), 1)
	assert.True(t, root.Find("SAD/Identification/CAP").IsLeaf())

	var names []string
	root.Child("SAD").Walk(func(n *Node, depth int) {
		if depth == 1 {
			names = append(names, n.Name)
		}
	})
	assert.Equal(t, []string{"Identification"}, names)
}

func TestNodeEqual(t *testing.T) {
	assert.True(t, sampleTree().Equal(sampleTree()))

	changed := sampleTree()
	changed.Find("SAD/Identification/CAP").Text = "x"
	assert.False(t, sampleTree().Equal(changed))

	var nilNode *Node
	assert.True(t, nilNode.Equal(nil))
	assert.False(t, sampleTree().Equal(nil))
}

func TestMarshal_ReplacesIllegalCharacters(t *testing.T) {
	root := NewNode("Item", Leaf("Description_of_goods", "Phone\x0bcase\x00\tok\uFFFE"))

	out, err := MarshalWithOptions(root, GenerateOptions{Indent: "  "})
	require.NoError(t, err)
	assert.Equal(t, "<Item>\n  <Description_of_goods>Phone\uFFFDcase\uFFFD\tok\uFFFD</Description_of_goods>\n</Item>\n", string(out))

	dec := xml.NewDecoder(bytes.NewReader(out))
	for {
		_, err := dec.Token()
		if err != nil {
			assert.ErrorIs(t, err, io.EOF)
			break
		}
	}
}

func TestIsXMLChar(t *testing.T) {
	for _, r := range []rune{'\t', '\n', '\r', ' ', 'é', 0xFFFD, 0x10000} {
		assert.True(t, IsXMLChar(r), "%U", r)
	}
	for _, r := range []rune{0x00, 0x08, 0x0B, 0x0C, 0x1F, 0xD800, 0xFFFE, 0xFFFF} {
		assert.False(t, IsXMLChar(r), "%U", r)
	}
}
