// Package svm trains support vector machines with a working-set
// decomposition (SMO) solver.
//
// The solver works on
//
//	min ½ αᵀQα + pᵀα   s.t.  yᵀα = Δ,  0 ≤ α_i ≤ C_i
//
// where Q_ij = y_i y_j k(x_i, x_j) is never materialized: columns are
// fetched on demand from a kernel.Session through an LRU column cache.
// SVC, OneClassSVM and SVR map their duals onto the same solver.
//
//	clf := svm.NewSVC(svm.WithC(1), svm.WithKernel(kernel.Gaussian{Gamma: 0.5}))
//	if err := clf.Fit(ctx, X, y); err != nil {
//		return err
//	}
//	pred, err := clf.Predict(Xtest)
package svm
