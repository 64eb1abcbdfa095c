// Package ir defines the values exchanged between the harness and the test
// operations it drives.
//
// This package imports nothing internal. Every other internal package builds
// on it: catalog descriptors declare parameter kinds, the invoker checks
// arguments against them, and the reporter and run history render and store
// results through the same sealed Value interface.
//
// Key constraints:
//   - Value is sealed; only the primitive-or-string types in value.go implement it
//   - Canonical JSON wraps every Value in a {"kind","value"} envelope so stored
//     bytes are reproducible across runs and platforms
//   - Digests are domain separated and versioned
package ir
