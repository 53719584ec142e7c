package multiclass

import (
	"strconv"

	"github.com/YuminosukeSato/kernelmachine/core/features"
	"github.com/YuminosukeSato/kernelmachine/core/model"
	"github.com/YuminosukeSato/kernelmachine/kernel"
	"github.com/YuminosukeSato/kernelmachine/pkg/errors"
	"github.com/YuminosukeSato/kernelmachine/sklearn/svm"
)

// ExportWeights stores the compacted support vectors once and one submodel
// per submachine whose indices point into them.
func (e *Ensemble) ExportWeights() (*model.ModelWeights, error) {
	w := &model.ModelWeights{
		ModelType: e.strategy.String(),
		Version:   model.WeightsVersion,
		Metadata:  map[string]string{"strategy": e.strategy.String()},
		IsFitted:  e.state.IsFitted(),
	}
	if !w.IsFitted {
		return w, nil
	}

	nFeatures, _ := e.state.GetDimensions()
	w.Classes = e.Classes()
	w.Hyperparameters = map[string]float64{
		"n_classes":  float64(e.numClasses),
		"n_features": float64(nFeatures),
	}
	w.Metadata["naive_sv_count"] = strconv.Itoa(e.naiveSV)
	if e.session != nil {
		fn := e.session.Function()
		if _, ok := fn.(kernel.Precomputed); ok {
			return nil, errors.NewConfigError(e.strategy.String()+".ExportWeights", "precomputed kernels cannot be exported")
		}
		w.Kernel = model.KernelSpec{Name: fn.Name(), Params: fn.Params()}
		lhs := e.session.LHS()
		all := make([]int, lhs.NumVectors())
		for i := range all {
			all[i] = i
		}
		w.SupportVectors = svm.DenseVectors(lhs, all)
	}
	for i, mdl := range e.models {
		t := e.tasks[i]
		classes := []float64{float64(t.pos)}
		if t.neg >= 0 {
			classes = []float64{float64(t.neg), float64(t.pos)}
		}
		w.Submodels = append(w.Submodels, &model.ModelWeights{
			ModelType:      "SVC",
			Version:        model.WeightsVersion,
			SupportIndices: mdl.GetSupportVectors(),
			Coefficients:   mdl.GetAlphas(),
			Intercept:      mdl.GetBias(),
			Classes:        classes,
			IsFitted:       true,
		})
	}
	return w, nil
}

// ImportWeights restores an ensemble saved by ExportWeights. The original
// training indices of the compacted slots are not persisted.
func (e *Ensemble) ImportWeights(w *model.ModelWeights) error {
	op := e.strategy.String() + ".ImportWeights"
	if w == nil {
		return errors.NewConfigError(op, "weights are nil")
	}
	if err := w.Validate(); err != nil {
		return err
	}
	strategy, ok := ParseStrategy(w.ModelType)
	if !ok {
		return errors.NewConfigErrorf(op, "weights are for %s", w.ModelType)
	}
	e.reset()
	e.strategy = strategy
	if !w.IsFitted {
		return nil
	}

	numClasses := int(w.Hyperparameters["n_classes"])
	tasks := tasksFor(strategy, numClasses)
	if numClasses < 2 || len(tasks) != len(w.Submodels) {
		return errors.NewConfigErrorf(op, "%d submodels do not match %d classes", len(w.Submodels), numClasses)
	}
	models := make([]*svm.Model, len(w.Submodels))
	for i, sub := range w.Submodels {
		mdl, err := svm.NewModelFromParts(sub.SupportIndices, sub.Coefficients, sub.Intercept)
		if err != nil {
			return err
		}
		models[i] = mdl
	}

	nFeatures := int(w.Hyperparameters["n_features"])
	var sess *kernel.Session
	if len(w.SupportVectors) > 0 {
		fn, err := kernel.FromSpec(w.Kernel.Name, w.Kernel.Params)
		if err != nil {
			return err
		}
		svs, err := features.FromRows(w.SupportVectors)
		if err != nil {
			return err
		}
		sess = kernel.NewSession(fn)
		if err := sess.Init(svs, svs); err != nil {
			return err
		}
		nFeatures = svs.Dim()
	}

	e.numClasses = numClasses
	e.tasks = tasks
	e.models = models
	e.session = sess
	if n, err := strconv.Atoi(w.Metadata["naive_sv_count"]); err == nil {
		e.naiveSV = n
	}
	e.state.SetDimensions(nFeatures, 0)
	e.state.SetConverged(true)
	e.state.SetFitted()
	return nil
}
