// Package orchestrator wires the catalog → schema tree loader → session →
// renderer pipeline, providing dependency injection friendly helpers for
// consumers that prefer a single entry point.
package orchestrator
