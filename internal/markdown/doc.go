// Package markdown turns Markdown text into the canonical block list used
// by the diff analyzer. Classification is line-oriented with named states
// so dialect precedence (code fences, the three table dialects, lists,
// paragraphs) stays auditable; inline emphasis, links and code spans are
// stripped so block text is format-neutral.
package markdown
