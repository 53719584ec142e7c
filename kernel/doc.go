// Package kernel computes pairwise similarities and distances between feature
// vectors and caches them for iterative solvers.
//
// A Function evaluates one pair of vectors. A Session binds a Function to a
// left-hand and right-hand feature set and answers index queries, optionally
// from a fully materialized symmetric cache stored in triangular-packed form.
//
//	sess := kernel.NewSession(kernel.Gaussian{Gamma: 0.5}, kernel.WithPrecompute(true))
//	if err := sess.Init(X, X); err != nil {
//		return err
//	}
//	k01 := sess.Get(0, 1)
//
// Sessions are cheap. Rebind returns a new Session over different feature
// views without touching the original, so cross-validation folds and
// multiclass submachines each own one.
package kernel
