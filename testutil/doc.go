// Package testutil provides testing utilities for recgo.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seedable thread-safe RNG and synthetic interaction
// datasets.
//
// # Synthetic Data
//
//	rng := testutil.NewRNG(seed)
//	ds, err := rng.ClusteredInteractions(100, 60, 3, 8)
//
// Interned keys are the decimal entity numbers, and entities are numbered
// by first appearance, so the local id of user u is u whenever users appear
// in ascending order.
package testutil
