// Package markup parses, extracts and surgically edits the HTML-like wiki
// markup format. A reserved wiki:* namespace marks vendor-owned elements:
// macro containers and their parameter/body children are opaque and are
// never created, mutated or removed here; inline annotation markers are
// transparent and edits flow through them.
package markup
