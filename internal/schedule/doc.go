// Package schedule builds per-block dependency graphs of qubit-touching
// statements from an address analysis result.
package schedule
