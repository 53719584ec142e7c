// Package features provides the read-only feature-vector collections that
// kernels and solvers index into.
//
// A Set hands out vector i by index without exposing whether it is stored as
// dense gonum rows or as sorted sparse index/value pairs. Subset builds a
// logical view over an index selection without copying; CopySubset and Merge
// materialize new sets. Sets must not be mutated while bound to a kernel
// session.
package features
