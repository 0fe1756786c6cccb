// Package testutil provides fixtures shared by package tests: tally
// archives written on the fly and deterministic run identifiers.
//
// It imports nothing internal so any package may use it from its tests.
package testutil
