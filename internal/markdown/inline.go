package markdown

import (
	"regexp"
	"strings"
)

var (
	imageRe       = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	linkRe        = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	refLinkRe     = regexp.MustCompile(`\[([^\]]*)\]\[[^\]]*\]`)
	autoLinkRe    = regexp.MustCompile(`<(https?://[^>]+)>`)
	codeSpanRe    = regexp.MustCompile("`([^`]*)`")
	strongStarRe  = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	strongUnderRe = regexp.MustCompile(`__([^_]+)__`)
	strikeRe      = regexp.MustCompile(`~~([^~]+)~~`)
	emStarRe      = regexp.MustCompile(`\*([^*]+)\*`)
	emUnderRe     = regexp.MustCompile(`(^|[\s(])_([^_]+)_([\s).,!?:;]|$)`)
	headingAttrRe = regexp.MustCompile(`\s*\{#[^}]*\}\s*$`)
	closingHashRe = regexp.MustCompile(`\s+#+\s*$`)
)

// StripInline reduces Markdown inline syntax to its visible text so block
// text can be compared against native extractions.
func StripInline(s string) string {
	for i := 0; i < 2; i++ {
		out := imageRe.ReplaceAllString(s, "$1")
		out = linkRe.ReplaceAllString(out, "$1")
		out = refLinkRe.ReplaceAllString(out, "$1")
		out = autoLinkRe.ReplaceAllString(out, "$1")
		out = codeSpanRe.ReplaceAllString(out, "$1")
		out = strongStarRe.ReplaceAllString(out, "$1")
		out = strongUnderRe.ReplaceAllString(out, "$1")
		out = strikeRe.ReplaceAllString(out, "$1")
		out = emStarRe.ReplaceAllString(out, "$1")
		out = emUnderRe.ReplaceAllString(out, "$1$2$3")
		if out == s {
			break
		}
		s = out
	}
	return s
}

func stripHeadingDecorations(text string) string {
	text = headingAttrRe.ReplaceAllString(text, "")
	text = closingHashRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
