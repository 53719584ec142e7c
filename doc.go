// Package kernelmachine provides kernel-based support vector machines for Go,
// designed for backend services that train and serve classifiers in-process.
//
// kernelmachine offers a scikit-learn-like API over a LIBSVM-style
// working-set solver, with dense and sparse inputs, a shared kernel cache
// and one-vs-rest / one-vs-one multiclass ensembles that store each
// support vector once.
//
// # Features
//
//   - Kernels: linear, polynomial, gaussian (RBF), sigmoid, tanimoto and precomputed Gram matrices
//   - Solvers: C-SVC, ν-one-class SVM and ε-SVR on one SMO core with shrinking
//   - Kernel cache: triangular packing for square Gram matrices, LRU column cache otherwise
//   - Multiclass: concurrent submachine training with support vector deduplication
//   - Persistence: gob snapshots and JSON weights through core/model
//
// # Installation
//
//	go get github.com/YuminosukeSato/kernelmachine
//
// # Quick Start
//
//	package main
//
//	import (
//	    "context"
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/kernelmachine/core/features"
//	    "github.com/YuminosukeSato/kernelmachine/kernel"
//	    "github.com/YuminosukeSato/kernelmachine/sklearn/svm"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    X := features.NewDenseSet(mat.NewDense(4, 2, []float64{
//	        -1, -1,
//	        -2, -1,
//	        1, 1,
//	        2, 1,
//	    }))
//	    y := features.NewLabels([]float64{0, 0, 1, 1})
//
//	    clf := svm.NewSVC(svm.WithC(1), svm.WithKernel(kernel.Gaussian{Gamma: 0.5}))
//	    if err := clf.Fit(context.Background(), X, y); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    pred, err := clf.Predict(X)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println("Predictions:", pred)
//	}
//
// # Packages
//
//   - core/features: dense, sparse and view feature sets and label vectors
//   - core/model: estimator interfaces, state management and persistence
//   - core/parallel: range splitting and bounded concurrent task execution
//   - kernel: similarity functions, kernel sessions and the kernel cache
//   - sklearn/svm: SVC, OneClassSVM, SVR and the working-set solver
//   - sklearn/multiclass: one-vs-rest and one-vs-one ensembles
//   - sklearn/model_selection: KFold, StratifiedKFold and cross-validation
//   - preprocessing: StandardScaler and MinMaxScaler over feature sets
//   - metrics: classification and regression metrics
//   - pkg/errors, pkg/log: typed errors and structured logging
//
// # License
//
// kernelmachine is released under the MIT License.
package kernelmachine
