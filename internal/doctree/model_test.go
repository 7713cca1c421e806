package doctree

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/goliatone/go-pagesync/block"
)

func TestParseValidDocument(t *testing.T) {
	raw := []byte(`{
		"type": "doc",
		"version": 1,
		"content": [
			{"type": "paragraph", "attrs": {"localId": "p1"}, "content": [{"type": "text", "text": "Hello"}]}
		]
	}`)

	doc, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Version != 1 || len(doc.Content) != 1 {
		t.Fatalf("decoded document: %+v", doc)
	}
	if doc.Content[0].LocalID() != "p1" {
		t.Errorf("localId: %q", doc.Content[0].LocalID())
	}
}

func TestParseRejectsWrongRootType(t *testing.T) {
	_, err := Parse([]byte(`{"type": "page", "content": []}`))
	if err == nil {
		t.Fatal("expected structural error")
	}
	var structural *block.StructuralError
	if !errors.As(err, &structural) {
		t.Fatalf("expected StructuralError, got %T: %v", err, err)
	}
}

func TestParseRejectsMalformedJSON(t *testing.T) {
	if _, err := Parse([]byte(`{"type": "doc"`)); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestAttrsRoundTripUnknownAttributes(t *testing.T) {
	raw := []byte(`{"localId": "n1", "level": 2, "colwidth": [120, 80], "panelType": "info"}`)

	var attrs Attrs
	if err := json.Unmarshal(raw, &attrs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if attrs.LocalID != "n1" || attrs.Level != 2 {
		t.Errorf("known attrs: %+v", attrs)
	}
	if len(attrs.Extra) != 2 {
		t.Errorf("extra attrs: %v", attrs.Extra)
	}

	out, err := json.Marshal(&attrs)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var round map[string]any
	if err := json.Unmarshal(out, &round); err != nil {
		t.Fatalf("re-unmarshal: %v", err)
	}
	if round["localId"] != "n1" {
		t.Errorf("localId lost: %v", round)
	}
	if round["panelType"] != "info" {
		t.Errorf("unknown attribute lost: %v", round)
	}
	if _, ok := round["colwidth"]; !ok {
		t.Errorf("colwidth lost: %v", round)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	doc := &Document{
		Type:    TypeDoc,
		Version: 1,
		Content: []*Node{{
			Type:  TypeParagraph,
			Attrs: &Attrs{LocalID: "p1"},
			Content: []*Node{
				{Type: TypeText, Text: "original", Marks: []json.RawMessage{json.RawMessage(`{"type":"strong"}`)}},
			},
		}},
	}

	clone := doc.Clone()
	clone.Content[0].Content[0].Text = "changed"
	clone.Content[0].Attrs.LocalID = "other"

	if doc.Content[0].Content[0].Text != "original" {
		t.Error("clone shares text with source")
	}
	if doc.Content[0].Attrs.LocalID != "p1" {
		t.Error("clone shares attrs with source")
	}
}

func TestTextOf(t *testing.T) {
	cases := []struct {
		name string
		node *Node
		want string
	}{
		{
			name: "inline concatenation",
			node: &Node{Type: TypeParagraph, Content: []*Node{
				{Type: TypeText, Text: "Hello "},
				{Type: TypeText, Text: "world"},
			}},
			want: "Hello world",
		},
		{
			name: "hard break",
			node: &Node{Type: TypeParagraph, Content: []*Node{
				{Type: TypeText, Text: "one"},
				{Type: TypeHardBreak},
				{Type: TypeText, Text: "two"},
			}},
			want: "one\ntwo",
		},
		{
			name: "mention display text",
			node: &Node{Type: TypeParagraph, Content: []*Node{
				{Type: TypeText, Text: "by "},
				{Type: TypeMention, Attrs: &Attrs{Text: "@sam"}},
			}},
			want: "by @sam",
		},
		{
			name: "block children join with space",
			node: &Node{Type: TypeTableCell, Content: []*Node{
				{Type: TypeParagraph, Content: []*Node{{Type: TypeText, Text: "first"}}},
				{Type: TypeParagraph, Content: []*Node{{Type: TypeText, Text: "second"}}},
			}},
			want: "first second",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := TextOf(tc.node); got != tc.want {
				t.Errorf("TextOf = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSyntheticMacroText(t *testing.T) {
	n := &Node{Type: TypeExtension, Attrs: &Attrs{ExtensionKey: "chart"}}
	if got := SyntheticMacroText(n); got != "extension:chart" {
		t.Errorf("synthetic text: %q", got)
	}
	bare := &Node{Type: TypeBodiedExtension}
	if got := SyntheticMacroText(bare); got != "bodiedExtension" {
		t.Errorf("bare synthetic text: %q", got)
	}
}

func TestOpaqueCount(t *testing.T) {
	doc := &Document{Type: TypeDoc, Content: []*Node{
		{Type: TypeParagraph},
		{Type: TypeExtension},
		{Type: TypePanel, Content: []*Node{{Type: TypeInlineExtension}}},
	}}
	if got := OpaqueCount(doc); got != 2 {
		t.Errorf("opaque count: %d", got)
	}
}
