package markup

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/goliatone/go-pagesync/block"
)

// Reserved vendor namespace. The parser lowercases tag names, so the
// constants are lowercase too.
const (
	TagMacro      = "wiki:macro"
	TagParam      = "wiki:param"
	TagRichBody   = "wiki:rich-text-body"
	TagPlainBody  = "wiki:plain-text-body"
	TagAnnotation = "wiki:annotation"

	AttrMacroName     = "name"
	AttrAnnotationRef = "ref"
)

// Fragment is a parsed markup body: an ordered list of detached top-level
// nodes. Every editor call works on its own Fragment, so callers can run
// independent apply cycles concurrently.
type Fragment struct {
	nodes []*html.Node
}

var fragmentContext = &html.Node{
	Type:     html.ElementNode,
	Data:     "body",
	DataAtom: atom.Body,
}

// Parse reads a markup body fragment. The parser is error-tolerant;
// failures here mean the input could not be read at all.
func Parse(content string) (*Fragment, error) {
	nodes, err := html.ParseFragment(strings.NewReader(content), fragmentContext)
	if err != nil {
		return nil, &block.StructuralError{Format: "markup", Reason: "parse fragment", Cause: err}
	}
	return &Fragment{nodes: nodes}, nil
}

// Nodes exposes the top-level nodes in document order.
func (f *Fragment) Nodes() []*html.Node {
	return f.nodes
}

// Render serialises the fragment back to markup text.
func (f *Fragment) Render() (string, error) {
	var sb strings.Builder
	for _, n := range f.nodes {
		if err := html.Render(&sb, n); err != nil {
			return "", fmt.Errorf("markup: render fragment: %w", err)
		}
	}
	return sb.String(), nil
}

// insertAfter places n immediately after anchor. Top-level anchors splice
// into the node list; nested anchors become tree siblings.
func (f *Fragment) insertAfter(anchor, n *html.Node) {
	if anchor.Parent != nil {
		anchor.Parent.InsertBefore(n, anchor.NextSibling)
		return
	}
	for i, top := range f.nodes {
		if top == anchor {
			f.nodes = append(f.nodes[:i+1], append([]*html.Node{n}, f.nodes[i+1:]...)...)
			return
		}
	}
	f.nodes = append(f.nodes, n)
}

// append adds n at the end of the fragment.
func (f *Fragment) append(n *html.Node) {
	f.nodes = append(f.nodes, n)
}

// Replace swaps old for repl, keeping the document position. Used by the
// preserver to stand placeholders in for macro containers.
func (f *Fragment) Replace(old, repl *html.Node) {
	if old.Parent != nil {
		old.Parent.InsertBefore(repl, old)
		old.Parent.RemoveChild(old)
		return
	}
	for i, top := range f.nodes {
		if top == old {
			f.nodes[i] = repl
			return
		}
	}
}

// Unwrap hoists n's children into its place and drops n itself. Used to
// flatten annotation markers to their visible text.
func (f *Fragment) Unwrap(n *html.Node) {
	var children []*html.Node
	for n.FirstChild != nil {
		child := n.FirstChild
		n.RemoveChild(child)
		children = append(children, child)
	}
	if parent := n.Parent; parent != nil {
		for _, child := range children {
			parent.InsertBefore(child, n)
		}
		parent.RemoveChild(n)
		return
	}
	for i, top := range f.nodes {
		if top == n {
			f.nodes = append(f.nodes[:i], append(children, f.nodes[i+1:]...)...)
			return
		}
	}
}

// remove detaches n from the fragment, wherever it sits.
func (f *Fragment) remove(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
		return
	}
	for i, top := range f.nodes {
		if top == n {
			f.nodes = append(f.nodes[:i], f.nodes[i+1:]...)
			return
		}
	}
}

// IsOpaque reports whether n belongs to the vendor-owned element family
// that surgical edits must never touch. Annotation markers are not opaque;
// they are transparent inline wrappers.
func IsOpaque(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	switch n.Data {
	case TagMacro, TagParam, TagRichBody, TagPlainBody:
		return true
	}
	return false
}

// IsAnnotation reports whether n is a transparent inline annotation marker.
func IsAnnotation(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode && n.Data == TagAnnotation
}

// ContainsOpaque reports whether n or any descendant is opaque.
func ContainsOpaque(n *html.Node) bool {
	found := false
	walk(n, func(node *html.Node) bool {
		if IsOpaque(node) {
			found = true
			return false
		}
		return !found
	})
	return found
}

// OpaqueCount counts vendor macro containers in the fragment, at any depth.
// Editors use it to assert the preservation invariant in tests.
func OpaqueCount(f *Fragment) int {
	count := 0
	for _, top := range f.nodes {
		walk(top, func(n *html.Node) bool {
			if n.Type == html.ElementNode && n.Data == TagMacro {
				count++
			}
			return true
		})
	}
	return count
}

// Attr returns the value of the named attribute, or "".
func Attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// walk visits n and its descendants in document order. The visitor returns
// false to skip a subtree.
func walk(n *html.Node, visit func(*html.Node) bool) {
	if n == nil {
		return
	}
	if !visit(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

var (
	spaceBeforePunctRe = regexp.MustCompile(`\s+([.,;:!?)\]])`)
	spaceAfterOpenRe   = regexp.MustCompile(`([(\[])\s+`)
)

// Text flattens the visible text of a node: text pieces joined with a
// single space, whitespace collapsed, and the space the joining introduces
// around punctuation removed. Opaque subtrees contribute nothing;
// annotation markers contribute their visible text.
func Text(n *html.Node) string {
	var parts []string
	walk(n, func(node *html.Node) bool {
		if node != n && IsOpaque(node) {
			return false
		}
		if node.Type == html.TextNode {
			if t := strings.TrimSpace(node.Data); t != "" {
				parts = append(parts, t)
			}
		}
		return true
	})
	return cleanFlattened(strings.Join(parts, " "))
}

func cleanFlattened(s string) string {
	s = block.NormalizeText(s)
	s = spaceBeforePunctRe.ReplaceAllString(s, "$1")
	s = spaceAfterOpenRe.ReplaceAllString(s, "$1")
	return s
}

// rawText concatenates descendant text nodes verbatim, used for code
// elements where whitespace is meaningful.
func rawText(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(node *html.Node) bool {
		if node != n && IsOpaque(node) {
			return false
		}
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		return true
	})
	return sb.String()
}

// newElement builds a detached element node for the given lowercase tag.
func newElement(tag string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
}

// newText builds a detached text node.
func newText(text string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: text}
}
