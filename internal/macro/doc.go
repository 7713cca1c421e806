// Package macro keeps vendor-owned content alive across full-document
// conversion. Block macros hide behind {{macro:N}} placeholders and come
// back verbatim on restore; inline annotation markers flatten to their
// visible text and deliberately stay that way.
package macro
