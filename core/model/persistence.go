package model

import (
	"encoding/gob"
	"io"
	"os"

	"github.com/YuminosukeSato/kernelmachine/pkg/errors"
)

// SaveModel はモデルの重みをファイルに保存する
//
// 使用例:
//
//	svc := svm.NewSVC()
//	// ... モデルの学習 ...
//	err := model.SaveModel(svc, "model.gob")
func SaveModel(m WeightExporter, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	defer file.Close()

	return SaveModelToWriter(m, file)
}

// LoadModel はファイルから重みを読み込み、モデルに設定する
//
// 使用例:
//
//	svc := svm.NewSVC()
//	err := model.LoadModel(svc, "model.gob")
func LoadModel(m WeightExporter, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrap(err, "failed to open file")
	}
	defer file.Close()

	return LoadModelFromReader(m, file)
}

// SaveModelToWriter はモデルの重みをio.Writerにgob形式で書き出す
func SaveModelToWriter(m WeightExporter, w io.Writer) error {
	weights, err := m.ExportWeights()
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(w).Encode(weights); err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	return nil
}

// LoadModelFromReader はio.Readerから重みを読み込む
func LoadModelFromReader(m WeightExporter, r io.Reader) error {
	var weights ModelWeights
	if err := gob.NewDecoder(r).Decode(&weights); err != nil {
		return errors.Wrap(err, "failed to decode model")
	}
	return m.ImportWeights(&weights)
}
