// Package fixtures holds the compiled-in test suites the harness runs.
//
// Each suite is a small set of loop-shaped operations (bitwise reductions,
// checksums, division and bounds faults) registered into a catalog.Registry.
// The bodies are deliberately trivial; what matters is that they succeed or
// fault in a fixed, reproducible way.
//
// Suites are built fresh per run from Limits, so iteration counts can be
// lowered from the run manifest without touching the code.
package fixtures
