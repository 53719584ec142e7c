package model

import (
	"encoding/json"

	"github.com/YuminosukeSato/kernelmachine/pkg/errors"
)

// WeightsVersion は現在のModelWeightsフォーマットのバージョン
const WeightsVersion = "1"

// KernelSpec はカーネル関数の名前とパラメータ
type KernelSpec struct {
	Name   string             `json:"name"`
	Params map[string]float64 `json:"params,omitempty"`
}

// ModelWeights はサポートベクターモデルの永続化用表現
//
// 保存される三つ組 (SupportIndices, Coefficients, Intercept) とカーネル
// パラメータ、予測に必要なサポートベクター本体を持つ。多クラスモデルは
// Submodels に二値モデルを入れ、SupportVectors を共有する。
type ModelWeights struct {
	// ModelType はモデルの種類（SVC, OneClassSVM, SVR, OneVsRest等）
	ModelType string `json:"model_type"`

	// Version はフォーマットのバージョン（互換性チェック用）
	Version string `json:"version"`

	// SupportIndices はサポートベクターの訓練データ上のインデックス
	SupportIndices []int `json:"support_indices,omitempty"`

	// Coefficients は各サポートベクターの係数 (alpha·y)
	Coefficients []float64 `json:"coefficients,omitempty"`

	// Intercept はバイアス項
	Intercept float64 `json:"intercept"`

	// SupportVectors はサポートベクターの密な値
	SupportVectors [][]float64 `json:"support_vectors,omitempty"`

	Kernel KernelSpec `json:"kernel"`

	// Classes は元のクラスラベル
	Classes []float64 `json:"classes,omitempty"`

	// Submodels は多クラスモデルの二値モデル
	Submodels []*ModelWeights `json:"submodels,omitempty"`

	// Hyperparameters は数値ハイパーパラメータ
	Hyperparameters map[string]float64 `json:"hyperparameters,omitempty"`

	// Metadata は追加のメタデータ（戦略名等）
	Metadata map[string]string `json:"metadata,omitempty"`

	// IsFitted はモデルが学習済みかどうか
	IsFitted bool `json:"is_fitted"`
}

// ToJSON はModelWeightsをJSON形式にシリアライズ
func (mw *ModelWeights) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(mw, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal model weights")
	}
	return data, nil
}

// FromJSON はJSON形式からModelWeightsをデシリアライズ
func (mw *ModelWeights) FromJSON(data []byte) error {
	if err := json.Unmarshal(data, mw); err != nil {
		return errors.Wrap(err, "failed to unmarshal model weights")
	}
	return nil
}

// Validate はModelWeightsの妥当性を検証
func (mw *ModelWeights) Validate() error {
	const op = "ModelWeights.Validate"
	if mw.ModelType == "" {
		return errors.NewConfigError(op, "model_type is required")
	}
	if mw.Version == "" {
		return errors.NewConfigError(op, "version is required")
	}
	if mw.Version != WeightsVersion {
		return errors.NewConfigErrorf(op, "unsupported version %q", mw.Version)
	}
	if len(mw.SupportIndices) != len(mw.Coefficients) {
		return errors.NewConfigErrorf(op, "%d support indices but %d coefficients",
			len(mw.SupportIndices), len(mw.Coefficients))
	}
	if !mw.IsFitted && (len(mw.Coefficients) > 0 || len(mw.Submodels) > 0) {
		return errors.NewConfigError(op, "unfitted model should not have coefficients")
	}
	if mw.IsFitted && len(mw.Submodels) == 0 && len(mw.SupportVectors) != len(mw.Coefficients) {
		return errors.NewConfigErrorf(op, "%d support vectors for %d coefficients",
			len(mw.SupportVectors), len(mw.Coefficients))
	}
	for _, sub := range mw.Submodels {
		if len(sub.SupportIndices) != len(sub.Coefficients) {
			return errors.NewConfigError(op, "submodel indices and coefficients differ in length")
		}
		for _, idx := range sub.SupportIndices {
			if idx < 0 || idx >= len(mw.SupportVectors) {
				return errors.NewConfigErrorf(op, "submodel index %d outside shared support set of %d", idx, len(mw.SupportVectors))
			}
		}
	}
	return nil
}

// Clone はModelWeightsのディープコピーを作成
func (mw *ModelWeights) Clone() *ModelWeights {
	clone := &ModelWeights{
		ModelType:       mw.ModelType,
		Version:         mw.Version,
		Intercept:       mw.Intercept,
		IsFitted:        mw.IsFitted,
		SupportIndices:  append([]int(nil), mw.SupportIndices...),
		Coefficients:    append([]float64(nil), mw.Coefficients...),
		Classes:         append([]float64(nil), mw.Classes...),
		Kernel:          KernelSpec{Name: mw.Kernel.Name, Params: cloneMap(mw.Kernel.Params)},
		Hyperparameters: cloneMap(mw.Hyperparameters),
		Metadata:        cloneMap(mw.Metadata),
	}
	if mw.SupportVectors != nil {
		clone.SupportVectors = make([][]float64, len(mw.SupportVectors))
		for i, sv := range mw.SupportVectors {
			clone.SupportVectors[i] = append([]float64(nil), sv...)
		}
	}
	for _, sub := range mw.Submodels {
		clone.Submodels = append(clone.Submodels, sub.Clone())
	}
	return clone
}

// cloneMap はnilを保ったままマップをコピーする
func cloneMap[V any](m map[string]V) map[string]V {
	if m == nil {
		return nil
	}
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
