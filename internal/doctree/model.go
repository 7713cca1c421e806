package doctree

import (
	"encoding/json"
	"errors"
	"strings"

	deep "github.com/brunoga/deep/v2"

	"github.com/goliatone/go-pagesync/block"
	"github.com/goliatone/go-pagesync/internal/validation"
)

// ErrNilDocument guards editor and extractor entry points.
var ErrNilDocument = errors.New("doctree: nil document")

// Node type names. The set is closed at the modelling level; unknown types
// parse fine and flow through as plain containers.
const (
	TypeDoc             = "doc"
	TypeParagraph       = "paragraph"
	TypeHeading         = "heading"
	TypeText            = "text"
	TypeHardBreak       = "hardBreak"
	TypeTable           = "table"
	TypeTableRow        = "tableRow"
	TypeTableHeader     = "tableHeader"
	TypeTableCell       = "tableCell"
	TypeBulletList      = "bulletList"
	TypeOrderedList     = "orderedList"
	TypeListItem        = "listItem"
	TypeCodeBlock       = "codeBlock"
	TypeBlockquote      = "blockquote"
	TypePanel           = "panel"
	TypeMention         = "mention"
	TypeEmoji           = "emoji"
	TypeExtension       = "extension"
	TypeInlineExtension = "inlineExtension"
	TypeBodiedExtension = "bodiedExtension"
)

// IsOpaqueType reports whether nodes of this type are vendor-owned and
// must never be created, mutated, or removed by surgical operations.
func IsOpaqueType(t string) bool {
	switch t {
	case TypeExtension, TypeInlineExtension, TypeBodiedExtension:
		return true
	}
	return false
}

// Document is the root of a node-id tree.
type Document struct {
	Type    string  `json:"type"`
	Version int     `json:"version"`
	Content []*Node `json:"content"`
}

// Node is one tree node. Marks are carried verbatim; the engine moves
// them but never interprets them.
type Node struct {
	Type    string            `json:"type"`
	Attrs   *Attrs            `json:"attrs,omitempty"`
	Text    string            `json:"text,omitempty"`
	Marks   []json.RawMessage `json:"marks,omitempty"`
	Content []*Node           `json:"content,omitempty"`
}

// Attrs carries the attributes the engine reads, plus a verbatim bag for
// everything else so unknown attributes round-trip losslessly. JSON
// encoding goes through the custom (Un)MarshalJSON below.
type Attrs struct {
	LocalID       string
	Level         int
	ExtensionType string
	ExtensionKey  string
	Text          string
	Parameters    json.RawMessage
	Extra         map[string]json.RawMessage
}

// UnmarshalJSON lifts the known attributes out of the raw object and
// keeps the remainder verbatim in Extra.
func (a *Attrs) UnmarshalJSON(data []byte) error {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if v, ok := raw["localId"]; ok {
		if err := json.Unmarshal(v, &a.LocalID); err != nil {
			return err
		}
		delete(raw, "localId")
	}
	if v, ok := raw["level"]; ok {
		if err := json.Unmarshal(v, &a.Level); err != nil {
			return err
		}
		delete(raw, "level")
	}
	if v, ok := raw["extensionType"]; ok {
		if err := json.Unmarshal(v, &a.ExtensionType); err != nil {
			return err
		}
		delete(raw, "extensionType")
	}
	if v, ok := raw["extensionKey"]; ok {
		if err := json.Unmarshal(v, &a.ExtensionKey); err != nil {
			return err
		}
		delete(raw, "extensionKey")
	}
	if v, ok := raw["text"]; ok {
		if err := json.Unmarshal(v, &a.Text); err != nil {
			return err
		}
		delete(raw, "text")
	}
	if v, ok := raw["parameters"]; ok {
		a.Parameters = v
		delete(raw, "parameters")
	}
	if len(raw) > 0 {
		a.Extra = raw
	}
	return nil
}

// MarshalJSON folds Extra back in with the known attributes. Zero-valued
// known attributes are omitted so serialized documents stay minimal.
func (a *Attrs) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(a.Extra)+6)
	for k, v := range a.Extra {
		out[k] = v
	}
	put := func(key string, value any) error {
		data, err := json.Marshal(value)
		if err != nil {
			return err
		}
		out[key] = data
		return nil
	}
	if a.LocalID != "" {
		if err := put("localId", a.LocalID); err != nil {
			return nil, err
		}
	}
	if a.Level != 0 {
		if err := put("level", a.Level); err != nil {
			return nil, err
		}
	}
	if a.ExtensionType != "" {
		if err := put("extensionType", a.ExtensionType); err != nil {
			return nil, err
		}
	}
	if a.ExtensionKey != "" {
		if err := put("extensionKey", a.ExtensionKey); err != nil {
			return nil, err
		}
	}
	if a.Text != "" {
		if err := put("text", a.Text); err != nil {
			return nil, err
		}
	}
	if len(a.Parameters) > 0 {
		out["parameters"] = a.Parameters
	}
	return json.Marshal(out)
}

// Parse validates raw JSON against the document schema and decodes it.
// Violations are structural: the caller gets an error, not a partial
// document.
func Parse(data []byte) (*Document, error) {
	if err := validation.ValidateDocument(data); err != nil {
		return nil, &block.StructuralError{Format: "nodedoc", Reason: "schema validation", Cause: err}
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &block.StructuralError{Format: "nodedoc", Reason: "decode", Cause: err}
	}
	if doc.Type != TypeDoc {
		return nil, &block.StructuralError{Format: "nodedoc", Reason: "root type must be doc"}
	}
	return &doc, nil
}

// Marshal serializes a document back to JSON.
func Marshal(doc *Document) ([]byte, error) {
	return json.Marshal(doc)
}

// Clone deep-copies the document. Editors clone before any mutation so
// the non-mutation invariant holds by construction.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	if copied, err := deep.Copy(d); err == nil && copied != nil {
		return copied
	}
	out := &Document{Type: d.Type, Version: d.Version}
	for _, n := range d.Content {
		out.Content = append(out.Content, n.Clone())
	}
	return out
}

// Clone deep-copies a node.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{Type: n.Type, Text: n.Text}
	if n.Attrs != nil {
		attrs := Attrs{
			LocalID:       n.Attrs.LocalID,
			Level:         n.Attrs.Level,
			ExtensionType: n.Attrs.ExtensionType,
			ExtensionKey:  n.Attrs.ExtensionKey,
			Text:          n.Attrs.Text,
		}
		if n.Attrs.Parameters != nil {
			attrs.Parameters = append(json.RawMessage(nil), n.Attrs.Parameters...)
		}
		if n.Attrs.Extra != nil {
			attrs.Extra = make(map[string]json.RawMessage, len(n.Attrs.Extra))
			for k, v := range n.Attrs.Extra {
				attrs.Extra[k] = append(json.RawMessage(nil), v...)
			}
		}
		out.Attrs = &attrs
	}
	for _, mark := range n.Marks {
		out.Marks = append(out.Marks, append(json.RawMessage(nil), mark...))
	}
	for _, child := range n.Content {
		out.Content = append(out.Content, child.Clone())
	}
	return out
}

// LocalID returns the node's stable identifier, or "".
func (n *Node) LocalID() string {
	if n == nil || n.Attrs == nil {
		return ""
	}
	return n.Attrs.LocalID
}

// IsOpaque reports whether the node is vendor-owned.
func (n *Node) IsOpaque() bool {
	return n != nil && IsOpaqueType(n.Type)
}

// isInlineType marks node types whose text concatenates without
// separators inside a parent block.
func isInlineType(t string) bool {
	switch t {
	case TypeText, TypeHardBreak, TypeMention, TypeEmoji, TypeInlineExtension:
		return true
	}
	return false
}

// TextOf flattens a node's visible text. Inline children concatenate with
// no separator; block children join with one space, emulating how the
// Markdown extractor merges multi-line paragraphs. hardBreak contributes a
// newline; mention and emoji contribute their display text.
func TextOf(n *Node) string {
	if n == nil {
		return ""
	}
	switch n.Type {
	case TypeText:
		return n.Text
	case TypeHardBreak:
		return "\n"
	case TypeMention, TypeEmoji:
		if n.Attrs != nil {
			return n.Attrs.Text
		}
		return ""
	}

	var sb strings.Builder
	for _, child := range n.Content {
		part := TextOf(child)
		if part == "" {
			continue
		}
		if sb.Len() > 0 && !isInlineType(child.Type) {
			sb.WriteString(" ")
		}
		sb.WriteString(part)
	}
	return sb.String()
}

// SyntheticMacroText is the position-bookkeeping text for an opaque node:
// type plus the shortest identifying key available. It never textually
// matches Markdown content.
func SyntheticMacroText(n *Node) string {
	key := ""
	if n.Attrs != nil {
		switch {
		case n.Attrs.ExtensionKey != "":
			key = n.Attrs.ExtensionKey
		case n.Attrs.ExtensionType != "":
			key = n.Attrs.ExtensionType
		default:
			key = n.Attrs.LocalID
		}
	}
	if key == "" {
		return n.Type
	}
	return n.Type + ":" + key
}

// OpaqueCount counts opaque nodes at any depth. Tests use it to assert
// the preservation invariant.
func OpaqueCount(doc *Document) int {
	count := 0
	var walk func(nodes []*Node)
	walk = func(nodes []*Node) {
		for _, n := range nodes {
			if n.IsOpaque() {
				count++
			}
			walk(n.Content)
		}
	}
	walk(doc.Content)
	return count
}
