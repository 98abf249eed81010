// Package diag defines the diagnostic model shared by the parser, the
// address analysis and the validators.
//
// Diagnostic is a plain record: severity, numeric code with a stable string
// ID, message, primary span and optional notes. Producers emit through a
// Reporter so they do not depend on storage; BagReporter collects into a Bag
// which supports sorting, deduplication and filtering.
//
// Code ranges:
//
//   - 1xxx LEX – lexing of textual IR
//   - 2xxx SYN – parsing and name resolution of textual IR
//   - 3xxx IR  – structural validation
//   - 4xxx NCL – no-cloning findings
//   - 5xxx ADR – address analysis resolution failures
//   - 6xxx PRJ – project configuration
//   - 7xxx IO  – file loading
//   - 8xxx OBS – observability
//
// Rendering lives in internal/diagfmt.
package diag
