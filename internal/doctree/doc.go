// Package doctree models the node-id document format: a JSON tree whose
// blocks carry stable localId attributes. The extractor projects a
// document onto the canonical block list and the editor applies surgical
// operations by resolving target text to localIds, always working on a
// deep copy so the caller's document is never mutated. Extension node
// types are opaque and survive every batch untouched.
package doctree
