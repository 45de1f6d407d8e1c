package model

import "gonum.org/v1/gonum/mat"

// Classifier is the minimal contract shared by every classifier in this
// module. X is (n_samples x n_features); y and predictions are column
// vectors of class indices encoded as float64.
type Classifier interface {
	Fit(X, y mat.Matrix) error
	Predict(X mat.Matrix) (mat.Matrix, error)
	Score(X, y mat.Matrix) (float64, error)
}

// ProbabilisticClassifier is implemented by classifiers that can report
// per-class probabilities.
type ProbabilisticClassifier interface {
	Classifier
	PredictProba(X mat.Matrix) (mat.Matrix, error)
}

// Transformer converts raw inputs into a feature matrix.
type Transformer interface {
	Transform(X mat.Matrix) (mat.Matrix, error)
}
