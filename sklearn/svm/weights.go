package svm

import (
	"github.com/YuminosukeSato/kernelmachine/core/features"
	"github.com/YuminosukeSato/kernelmachine/core/model"
	"github.com/YuminosukeSato/kernelmachine/kernel"
	"github.com/YuminosukeSato/kernelmachine/pkg/errors"
)

// exportWeights captures the persisted triple, the support vectors and the
// kernel parameters.
func (m *machine) exportWeights() (*model.ModelWeights, error) {
	op := m.name + ".ExportWeights"
	if _, ok := m.cfg.kernelFn.(kernel.Precomputed); ok {
		return nil, errors.NewConfigError(op, "precomputed kernels cannot be exported")
	}
	w := &model.ModelWeights{
		ModelType: m.name,
		Version:   model.WeightsVersion,
		Kernel:    model.KernelSpec{Name: m.cfg.kernelFn.Name(), Params: m.cfg.kernelFn.Params()},
		Hyperparameters: map[string]float64{
			"C":       m.cfg.c,
			"tol":     m.cfg.eps,
			"nu":      m.cfg.nu,
			"epsilon": m.cfg.epsilonSVR,
		},
		IsFitted: m.state.IsFitted(),
	}
	if !w.IsFitted {
		return w, nil
	}
	fn := m.session.Function()
	w.Kernel = model.KernelSpec{Name: fn.Name(), Params: fn.Params()}
	nFeatures, _ := m.state.GetDimensions()
	w.Hyperparameters["n_features"] = float64(nFeatures)
	w.SupportIndices = m.model.GetSupportVectors()
	w.Coefficients = m.model.GetAlphas()
	w.Intercept = m.model.GetBias()
	w.SupportVectors = DenseVectors(m.session.LHS(), w.SupportIndices)
	return w, nil
}

// importWeights restores a model whose session lhs holds only the support
// vectors, re-indexed 0..k-1.
func (m *machine) importWeights(w *model.ModelWeights) error {
	op := m.name + ".ImportWeights"
	if w == nil {
		return errors.NewConfigError(op, "weights are nil")
	}
	if err := w.Validate(); err != nil {
		return err
	}
	if w.ModelType != m.name {
		return errors.NewConfigErrorf(op, "weights are for %s", w.ModelType)
	}
	fn, err := kernel.FromSpec(w.Kernel.Name, w.Kernel.Params)
	if err != nil {
		return err
	}
	cfg := m.cfg
	cfg.kernelFn = fn
	if v, ok := w.Hyperparameters["C"]; ok {
		cfg.c = v
	}
	if v, ok := w.Hyperparameters["tol"]; ok {
		cfg.eps = v
	}
	if v, ok := w.Hyperparameters["nu"]; ok {
		cfg.nu = v
	}
	if v, ok := w.Hyperparameters["epsilon"]; ok {
		cfg.epsilonSVR = v
	}
	if !w.IsFitted {
		m.state.Reset()
		m.cfg = cfg
		return nil
	}

	k := len(w.Coefficients)
	indices := make([]int, k)
	for i := range indices {
		indices[i] = i
	}
	mdl, err := NewModelFromParts(indices, w.Coefficients, w.Intercept)
	if err != nil {
		return err
	}
	nFeatures := int(w.Hyperparameters["n_features"])
	var sess *kernel.Session
	if k > 0 {
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

	// nothing below can fail
	m.state.Reset()
	m.cfg = cfg
	m.session = sess
	m.model = mdl
	m.solution = nil
	m.state.SetDimensions(nFeatures, k)
	m.state.SetConverged(true)
	m.state.SetFitted()
	return nil
}

// DenseVectors copies the vectors of set at indices into row slices.
func DenseVectors(set features.Set, indices []int) [][]float64 {
	out := make([][]float64, len(indices))
	for k, idx := range indices {
		out[k] = append([]float64(nil), set.Vector(idx).Dense()...)
	}
	return out
}

// ExportWeights implements model.WeightExporter.
func (s *SVC) ExportWeights() (*model.ModelWeights, error) {
	w, err := s.exportWeights()
	if err != nil {
		return nil, err
	}
	w.Classes = s.Classes()
	return w, nil
}

// ImportWeights implements model.WeightExporter.
func (s *SVC) ImportWeights(w *model.ModelWeights) error {
	if w != nil && w.IsFitted && len(w.Classes) != 2 {
		return errors.NewConfigErrorf("SVC.ImportWeights", "expected 2 classes, got %d", len(w.Classes))
	}
	if err := s.importWeights(w); err != nil {
		return err
	}
	s.classes = append([]float64(nil), w.Classes...)
	return nil
}

// ExportWeights implements model.WeightExporter.
func (o *OneClassSVM) ExportWeights() (*model.ModelWeights, error) { return o.exportWeights() }

// ImportWeights implements model.WeightExporter.
func (o *OneClassSVM) ImportWeights(w *model.ModelWeights) error { return o.importWeights(w) }

// ExportWeights implements model.WeightExporter.
func (r *SVR) ExportWeights() (*model.ModelWeights, error) { return r.exportWeights() }

// ImportWeights implements model.WeightExporter.
func (r *SVR) ImportWeights(w *model.ModelWeights) error { return r.importWeights(w) }
