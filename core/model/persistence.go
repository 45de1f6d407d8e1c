package model

import (
	"encoding/gob"
	"io"
	"os"
	"path/filepath"

	"github.com/mlbridge/mlbridge/pkg/errors"
)

// SaveModel serializes a fitted model to a gob file. This is the artifact
// format the training commands write and the inference commands, the HTTP
// server, and the queue worker read back.
//
// Example:
//
//	nb := naive_bayes.NewMultinomialNB()
//	// ... fit ...
//	err := model.SaveModel(nb, "models/sentiment_model.gob")
func SaveModel(m interface{}, filename string) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "failed to create model directory")
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "failed to create model file")
	}
	defer file.Close()

	return SaveModelToWriter(m, file)
}

// LoadModel deserializes a model previously written by SaveModel into m,
// which must be a pointer to the same concrete type.
func LoadModel(m interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewModelError("LoadModel",
				"model file not found at "+filename+". Run the training command first", err)
		}
		return errors.Wrap(err, "failed to open model file")
	}
	defer file.Close()

	return LoadModelFromReader(m, file)
}

// SaveModelToWriter serializes a model to an io.Writer.
func SaveModelToWriter(m interface{}, w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(m); err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	return nil
}

// LoadModelFromReader deserializes a model from an io.Reader.
func LoadModelFromReader(m interface{}, r io.Reader) error {
	if err := gob.NewDecoder(r).Decode(m); err != nil {
		return errors.Wrap(err, "failed to decode model")
	}
	return nil
}
