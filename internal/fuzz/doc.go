// Package fuzztests houses Go fuzz harnesses for the qir pipeline
// (source -> parser -> address analysis -> no-cloning -> schedule). They
// smoke test robustness and guard against panics or runaway loops on
// arbitrary inputs.
//
// Seeds come from the repository testdata directory plus a few inline
// programs. The package writes no files and runs no CLI.
package fuzztests
