package svm

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/YuminosukeSato/kernelmachine/core/model"
	"github.com/YuminosukeSato/kernelmachine/kernel"
	"github.com/YuminosukeSato/kernelmachine/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSVCExportImport(t *testing.T) {
	X, y := overlapping(t)
	svc := NewSVC(WithC(2))
	require.NoError(t, svc.Fit(context.Background(), X, y))

	w, err := svc.ExportWeights()
	require.NoError(t, err)
	require.NoError(t, w.Validate())
	assert.Equal(t, "SVC", w.ModelType)
	assert.Equal(t, "gaussian", w.Kernel.Name)
	assert.InDelta(t, 0.5, w.Kernel.Params["gamma"], 1e-12, "gamma resolved to 1/dim")
	assert.Len(t, w.SupportVectors, svc.Model().NumSupportVectors())
	assert.Equal(t, []float64{0, 1}, w.Classes)

	restored := NewSVC()
	require.NoError(t, restored.ImportWeights(w))
	assert.True(t, restored.IsFitted())
	assert.Equal(t, 2.0, restored.GetParams()["C"])

	want, err := svc.DecisionFunction(X)
	require.NoError(t, err)
	got, err := restored.DecisionFunction(X)
	require.NoError(t, err)
	assert.InDeltaSlice(t, want, got, 1e-9)
}

func TestSVCSaveLoad(t *testing.T) {
	X, y := separableClusters(t)
	svc := NewSVC(WithKernel(kernel.Polynomial{Degree: 2, Coef0: 1}))
	require.NoError(t, svc.Fit(context.Background(), X, y))

	path := filepath.Join(t.TempDir(), "svc.gob")
	require.NoError(t, model.SaveModel(svc, path))

	loaded := NewSVC()
	require.NoError(t, model.LoadModel(loaded, path))

	want, err := svc.Predict(X)
	require.NoError(t, err)
	got, err := loaded.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRegressorAndOneClassRoundTrip(t *testing.T) {
	X, y := blobs(t, [][]float64{{0, 0}, {1, 1}}, 20, 0.5, 3)
	ctx := context.Background()

	svr := NewSVR()
	require.NoError(t, svr.Fit(ctx, X, y))
	oc := NewOneClassSVM(WithNu(0.2))
	require.NoError(t, oc.Fit(ctx, X))

	var buf bytes.Buffer
	require.NoError(t, model.SaveModelToWriter(svr, &buf))
	svr2 := NewSVR()
	require.NoError(t, model.LoadModelFromReader(svr2, &buf))

	buf.Reset()
	require.NoError(t, model.SaveModelToWriter(oc, &buf))
	oc2 := NewOneClassSVM()
	require.NoError(t, model.LoadModelFromReader(oc2, &buf))

	a, err := svr.Predict(X)
	require.NoError(t, err)
	b, err := svr2.Predict(X)
	require.NoError(t, err)
	assert.InDeltaSlice(t, a, b, 1e-9)

	a, err = oc.DecisionFunction(X)
	require.NoError(t, err)
	b, err = oc2.DecisionFunction(X)
	require.NoError(t, err)
	assert.InDeltaSlice(t, a, b, 1e-9)
}

func TestImportWeightsErrors(t *testing.T) {
	X, y := separableClusters(t)
	svc := NewSVC()
	require.NoError(t, svc.Fit(context.Background(), X, y))
	w, err := svc.ExportWeights()
	require.NoError(t, err)

	var cfgErr *errors.ConfigError
	assert.ErrorAs(t, NewSVR().ImportWeights(w), &cfgErr, "model type mismatch")
	assert.ErrorAs(t, NewSVC().ImportWeights(nil), &cfgErr)

	bad := w.Clone()
	bad.Classes = []float64{1}
	assert.ErrorAs(t, NewSVC().ImportWeights(bad), &cfgErr)

	bad = w.Clone()
	bad.Kernel.Name = "bogus"
	assert.ErrorAs(t, NewSVC().ImportWeights(bad), &cfgErr)

	pre := NewSVC(WithKernel(kernel.Precomputed{}))
	_, err = pre.ExportWeights()
	assert.ErrorAs(t, err, &cfgErr)
}

func TestFailedImportLeavesMachineUnchanged(t *testing.T) {
	X, y := separableClusters(t)
	ctx := context.Background()

	donor := NewSVC(WithC(7), WithKernel(kernel.Polynomial{Degree: 3, Coef0: 1}))
	require.NoError(t, donor.Fit(ctx, X, y))
	w, err := donor.ExportWeights()
	require.NoError(t, err)
	require.Greater(t, len(w.SupportVectors), 1)

	// 次元の揃わないサポートベクトル
	bad := w.Clone()
	bad.SupportVectors[1] = append(bad.SupportVectors[1], 0)

	svc := NewSVC(WithC(2), WithKernel(kernel.Linear{}))
	require.NoError(t, svc.Fit(ctx, X, y))
	before, err := svc.DecisionFunction(X)
	require.NoError(t, err)

	var dimErr *errors.DimensionError
	require.ErrorAs(t, svc.ImportWeights(bad), &dimErr)

	assert.True(t, svc.IsFitted())
	params := svc.GetParams()
	assert.Equal(t, 2.0, params["C"])
	assert.Equal(t, kernel.Linear{}, params["kernel"])
	assert.Equal(t, []float64{0, 1}, svc.Classes())
	after, err := svc.DecisionFunction(X)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	// 未学習のまま失敗しても未学習のまま
	fresh := NewSVC(WithC(3))
	require.ErrorAs(t, fresh.ImportWeights(bad), &dimErr)
	assert.False(t, fresh.IsFitted())
	assert.Equal(t, 3.0, fresh.GetParams()["C"])
}

func TestUnfittedExport(t *testing.T) {
	w, err := NewSVC().ExportWeights()
	require.NoError(t, err)
	assert.False(t, w.IsFitted)

	restored := NewSVC()
	require.NoError(t, restored.ImportWeights(w))
	assert.False(t, restored.IsFitted())
}
