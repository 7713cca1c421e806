// Package diff compares two canonical block lists and plans surgical
// operations. Matching runs in fixed passes over normalized text: exact keys,
// positional alignment, fuzzy word overlap, then inserts and deletes for
// whatever remains. Macro blocks only ever match exactly, so the plan never
// touches opaque vendor content.
package diff
