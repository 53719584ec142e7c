/*
Package multiclass composes binary support vector classifiers into
one-vs-rest and one-vs-one ensembles.

Submachines are trained concurrently, each on its own kernel session over
the training vectors. Once every submachine has finished, their support
vectors are merged into a single deduplicated set and every submachine's
indices are rewritten to point into it. Prediction then evaluates one shared
kernel session whose lhs holds only that compacted set, so its cost grows
with the number of distinct support vectors rather than with the sum over
submachines.

Example:

	ens := multiclass.New(multiclass.OneVsRest, func() *svm.SVC {
		return svm.NewSVC(svm.WithC(10))
	})
	if err := ens.Fit(ctx, X, y); err != nil {
		return err
	}
	pred, err := ens.Predict(Xtest)

Labels must be the integers 0..C-1.
*/
package multiclass
