package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigError(t *testing.T) {
	err := NewConfigError("Session.Init", "lhs has 3 features, rhs has 2")

	assert.Equal(t, "kernelmachine: Session.Init: invalid configuration: lhs has 3 features, rhs has 2", err.Error())

	var cfgErr *ConfigError
	require.True(t, As(err, &cfgErr))
	assert.Equal(t, "Session.Init", cfgErr.Op)

	// スタックトレースの存在確認
	assert.Contains(t, fmt.Sprintf("%+v", err), "errors_test.go")
}

func TestNewConfigErrorf(t *testing.T) {
	err := NewConfigErrorf("SVC.Fit", "%d labels for %d vectors", 3, 4)
	assert.Contains(t, err.Error(), "3 labels for 4 vectors")
}

func TestNewInternalConsistencyError(t *testing.T) {
	err := NewInternalConsistencyError("Ensemble.remap", "support vector %d outside [0, %d)", 12, 10)

	var icErr *InternalConsistencyError
	require.True(t, As(err, &icErr))
	assert.Equal(t, "support vector 12 outside [0, 10)", icErr.Detail)
	assert.True(t, strings.HasPrefix(err.Error(), "kernelmachine: Ensemble.remap"))
}

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		kind    string
		err     error
		wantMsg string
	}{
		{
			name:    "with original error",
			op:      "Fit",
			kind:    "invalid input",
			err:     fmt.Errorf("test error"),
			wantMsg: "kernelmachine: Fit: invalid input: test error",
		},
		{
			name:    "without original error",
			op:      "Predict",
			kind:    "not fitted",
			wantMsg: "kernelmachine: Predict: not fitted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)
			assert.Equal(t, tt.wantMsg, err.Error())

			var modelErr *ModelError
			assert.True(t, As(err, &modelErr))
			if tt.err != nil {
				assert.True(t, Is(err, tt.err))
			}
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("SVC.Predict", 2, 3, 1)
	assert.Equal(t, "kernelmachine: SVC.Predict: dimension mismatch on axis 1 (features). Expected 2, got 3", err.Error())

	var dimErr *DimensionError
	assert.True(t, As(err, &dimErr))
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("SVC", "Predict")
	assert.Equal(t, "kernelmachine: SVC: this model is not fitted yet. Call Fit() before using Predict()", err.Error())
}

func TestConvergenceWarning(t *testing.T) {
	w := NewConvergenceWarning("SMO", 500, "")
	assert.Contains(t, w.Error(), "SMO failed to converge after 500 iterations")

	w = NewConvergenceWarning("SMO", 10, "time budget exhausted")
	assert.Equal(t, "SMO failed to converge after 10 iterations: time budget exhausted", w.Error())
}

func TestWarnRoutesToZerolog(t *testing.T) {
	var buf bytes.Buffer
	zl := zerolog.New(&buf)

	SetZerologWarnFunc(func(w error) {
		ev := zl.Warn()
		if m, ok := w.(zerolog.LogObjectMarshaler); ok {
			ev = ev.EmbedObject(m)
		}
		ev.Msg(w.Error())
	})
	defer SetZerologWarnFunc(nil)

	Warn(NewNumericalWarning("Tanimoto.Check", "zero-norm vector"))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "NumericalWarning", entry["type"])
	assert.Equal(t, "Tanimoto.Check", entry["operation"])
	assert.Equal(t, "warn", entry["level"])
}

func TestWarnFallsBackToHandler(t *testing.T) {
	var got []error
	SetWarningHandler(func(w error) { got = append(got, w) })
	defer SetWarningHandler(nil)

	Warn(NewConvergenceWarning("SMO", 1, "cap"))
	require.Len(t, got, 1)

	var cw *ConvergenceWarning
	assert.True(t, As(got[0], &cw))
}

func TestWrapAndIs(t *testing.T) {
	wrapped := Wrapf(ErrEmptyData, "fitting %s", "SVC")
	assert.True(t, Is(wrapped, ErrEmptyData))
	assert.Contains(t, wrapped.Error(), "fitting SVC")
}

func TestCheckNumericalStability(t *testing.T) {
	assert.NoError(t, CheckNumericalStability("gradient", []float64{1, 2, 3}, 0))

	err := CheckNumericalStability("gradient", []float64{1, nan(), 3}, 7)
	var nie *NumericalInstabilityError
	require.True(t, As(err, &nie))
	assert.Equal(t, 7, nie.Iteration)
	assert.Len(t, nie.Values, 1)
}

func nan() float64 {
	var zero float64
	return zero / zero
}
