// Package testutil provides deterministic species record generators for
// tests and benchmarks. All generation is seeded and reproducible.
package testutil
