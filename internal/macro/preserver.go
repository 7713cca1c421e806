package macro

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-pagesync/internal/logging"
	"github.com/goliatone/go-pagesync/internal/markup"
	"github.com/goliatone/go-pagesync/pkg/interfaces"
)

// placeholderFormat is the visible token left behind for a preserved block
// macro. It must survive a trip through Markdown, so it is plain text
// rather than a comment.
const placeholderFormat = "{{macro:%d}}"

var placeholderRe = regexp.MustCompile(`\{\{macro:(\d+)\}\}`)

// Info records one piece of vendor-owned content lifted out of a document
// before full conversion. Block macros are restorable from NativeHTML;
// inline annotations are flattened for good — once their visible text has
// been through an editor the marker can no longer be trusted to cover it.
type Info = interfaces.MacroRecord

// Preserver lifts vendor content out of markup before conversion and puts
// block macros back afterwards.
type Preserver struct {
	log interfaces.Logger
}

// Option configures a Preserver.
type Option func(*Preserver)

// WithLogger attaches a logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(p *Preserver) {
		if logger != nil {
			p.log = logger
		}
	}
}

// New constructs a Preserver.
func New(opts ...Option) *Preserver {
	p := &Preserver{log: logging.NoOp()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Placeholder formats the token for the nth preserved macro.
func Placeholder(n int) string {
	return fmt.Sprintf(placeholderFormat, n)
}

// IsPlaceholder reports whether s is exactly one preserved-macro token.
func IsPlaceholder(s string) bool {
	return placeholderRe.FindString(s) == strings.TrimSpace(s) && strings.TrimSpace(s) != ""
}

// Preserve replaces macro containers with placeholder paragraphs and
// unwraps annotation markers to their visible text, recording both so the
// caller can carry them through a Markdown round trip. Only the recorded
// block macros are restorable.
func (p *Preserver) Preserve(ctx context.Context, content string) (string, []Info, error) {
	frag, err := markup.Parse(content)
	if err != nil {
		return "", nil, err
	}
	log := p.log.WithContext(ctx)

	var infos []Info

	// Macro pass: outermost containers only; nested macros travel inside
	// their parent's recorded markup.
	for _, container := range topOpaque(frag) {
		native, err := renderNode(container)
		if err != nil {
			return "", nil, err
		}
		placeholder := Placeholder(len(infos))
		infos = append(infos, Info{
			Placeholder:  placeholder,
			NativeMarkup: native,
			Name:         markup.Attr(container, markup.AttrMacroName),
			Category:     interfaces.MacroCategoryBlock,
		})
		replaceWithParagraph(frag, container, placeholder)
	}

	// Annotation pass: unwrap the marker, keep its visible text in place.
	for _, marker := range annotations(frag) {
		native, err := renderNode(marker)
		if err != nil {
			return "", nil, err
		}
		infos = append(infos, Info{
			NativeMarkup: native,
			Category:     interfaces.MacroCategoryInlineAnnotation,
			Ref:          markup.Attr(marker, markup.AttrAnnotationRef),
			VisibleText:  markup.Text(marker),
		})
		frag.Unwrap(marker)
	}

	out, err := frag.Render()
	if err != nil {
		return "", nil, err
	}
	log.Debug("macro.preserve", "macros", len(infos))
	return out, infos, nil
}

// Restore puts recorded block macros back in place of their placeholders.
// The placeholder may arrive bare or wrapped in a single paragraph, which
// is how Markdown rendering emits a placeholder line. Inline annotations
// are skipped: the flattening is one-way and the remote side re-anchors
// annotations itself.
func (p *Preserver) Restore(ctx context.Context, content string, infos []Info) (string, error) {
	log := p.log.WithContext(ctx)

	restored := 0
	for _, info := range infos {
		if info.Category != interfaces.MacroCategoryBlock || info.Placeholder == "" {
			continue
		}
		wrapped := "<p>" + info.Placeholder + "</p>"
		switch {
		case strings.Contains(content, wrapped):
			content = strings.Replace(content, wrapped, info.NativeMarkup, 1)
			restored++
		case strings.Contains(content, info.Placeholder):
			content = strings.Replace(content, info.Placeholder, info.NativeMarkup, 1)
			restored++
		default:
			log.Warn("macro.restore.placeholder_missing", "placeholder", info.Placeholder, "name", info.Name)
		}
	}

	// Leftover tokens mean the recorded set and the document disagree; they
	// stay in place rather than being guessed at.
	if leftovers := placeholderRe.FindAllString(content, -1); len(leftovers) > 0 {
		log.Warn("macro.restore.unmatched_placeholders", "count", len(leftovers))
	}

	log.Debug("macro.restore", "restored", restored, "records", len(infos))
	return content, nil
}

// topOpaque lists macro containers not nested inside another macro, in
// document order.
func topOpaque(frag *markup.Fragment) []*html.Node {
	var containers []*html.Node
	for _, top := range frag.Nodes() {
		collectTopOpaque(top, &containers)
	}
	return containers
}

func collectTopOpaque(n *html.Node, out *[]*html.Node) {
	if markup.IsOpaque(n) {
		*out = append(*out, n)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectTopOpaque(c, out)
	}
}

// annotations lists annotation markers outside opaque subtrees.
func annotations(frag *markup.Fragment) []*html.Node {
	var markers []*html.Node
	for _, top := range frag.Nodes() {
		collectAnnotations(top, &markers)
	}
	return markers
}

func collectAnnotations(n *html.Node, out *[]*html.Node) {
	if markup.IsOpaque(n) {
		return
	}
	if markup.IsAnnotation(n) {
		*out = append(*out, n)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectAnnotations(c, out)
	}
}

func renderNode(n *html.Node) (string, error) {
	var sb strings.Builder
	if err := html.Render(&sb, n); err != nil {
		return "", fmt.Errorf("macro: render element: %w", err)
	}
	return sb.String(), nil
}

// replaceWithParagraph swaps node for <p>placeholder</p> in place.
func replaceWithParagraph(frag *markup.Fragment, node *html.Node, placeholder string) {
	p := &html.Node{Type: html.ElementNode, Data: "p"}
	p.AppendChild(&html.Node{Type: html.TextNode, Data: placeholder})
	frag.Replace(node, p)
}
