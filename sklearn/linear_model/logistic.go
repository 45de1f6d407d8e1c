// Package linear_model implements linear classifiers for the sentiment
// pipeline.
package linear_model

import (
	"bytes"
	"encoding/gob"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/mlbridge/mlbridge/core/model"
	"github.com/mlbridge/mlbridge/pkg/errors"
)

// LogisticRegression implements L2-regularized logistic regression trained
// by batch gradient descent. Binary problems use a single weight vector;
// multiclass problems are handled one-vs-rest.
type LogisticRegression struct {
	state *model.StateManager

	// Hyperparameters
	c            float64 // Inverse regularization strength
	fitIntercept bool
	maxIter      int
	learningRate float64
	tol          float64

	// Fitted parameters - public for gob encoding
	Coef      [][]float64 // One weight vector per one-vs-rest problem
	Intercept []float64
	ClassList []int
	NFeatures int
}

// LogisticRegressionOption is a functional option for LogisticRegression.
type LogisticRegressionOption func(*LogisticRegression)

// WithLRC sets the inverse regularization strength.
func WithLRC(c float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.c = c
	}
}

// WithLRMaxIter sets the maximum number of gradient descent iterations.
func WithLRMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.maxIter = maxIter
	}
}

// WithLRTol sets the gradient-norm stopping tolerance.
func WithLRTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.tol = tol
	}
}

// WithLRLearningRate sets the gradient descent step size.
func WithLRLearningRate(rate float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.learningRate = rate
	}
}

// WithLogisticFitIntercept sets whether an intercept term is fitted.
func WithLogisticFitIntercept(fit bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.fitIntercept = fit
	}
}

// NewLogisticRegression creates a LogisticRegression classifier.
// Defaults: C 1.0, max_iter 1000, learning rate 0.5, tol 1e-4, intercept on.
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		state:        model.NewStateManager(),
		c:            1.0,
		fitIntercept: true,
		maxIter:      1000,
		learningRate: 0.5,
		tol:          1e-4,
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// Classes returns the sorted class labels seen during fitting.
func (lr *LogisticRegression) Classes() []int {
	return lr.ClassList
}

// Fit trains the model on X (n_samples x n_features) and a column vector y
// of class labels.
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()

	if nSamples != yRows {
		return errors.NewDimensionError("LogisticRegression.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("LogisticRegression.Fit", "y must be a column vector")
	}
	if nSamples == 0 {
		return errors.NewModelError("LogisticRegression.Fit", "empty data", errors.ErrEmptyData)
	}

	lr.ClassList = extractClasses(y)
	if len(lr.ClassList) < 2 {
		return errors.NewValueError("LogisticRegression.Fit", "need at least 2 classes")
	}
	lr.NFeatures = nFeatures

	// Binary: a single classifier for the greater label.
	// Multiclass: one-vs-rest, one classifier per label.
	problems := lr.ClassList[1:]
	if len(lr.ClassList) > 2 {
		problems = lr.ClassList
	}

	lr.Coef = make([][]float64, len(problems))
	lr.Intercept = make([]float64, len(problems))
	for k, class := range problems {
		targets := make([]float64, nSamples)
		for i := 0; i < nSamples; i++ {
			if int(y.At(i, 0)) == class {
				targets[i] = 1
			}
		}
		w, b := lr.fitBinary(X, targets)
		lr.Coef[k] = w
		lr.Intercept[k] = b
	}

	lr.state.SetDimensions(nFeatures, nSamples)
	lr.state.SetFitted()
	return nil
}

// fitBinary runs gradient descent for one binary subproblem with targets
// in {0, 1}.
func (lr *LogisticRegression) fitBinary(X mat.Matrix, targets []float64) ([]float64, float64) {
	nSamples, nFeatures := X.Dims()
	w := make([]float64, nFeatures)
	b := 0.0
	lambda := 1.0 / (lr.c * float64(nSamples))

	grad := make([]float64, nFeatures)
	for iter := 0; iter < lr.maxIter; iter++ {
		for j := range grad {
			grad[j] = 0
		}
		gradB := 0.0

		for i := 0; i < nSamples; i++ {
			f := b
			for j := 0; j < nFeatures; j++ {
				f += w[j] * X.At(i, j)
			}
			residual := sigmoid(f) - targets[i]
			for j := 0; j < nFeatures; j++ {
				grad[j] += residual * X.At(i, j)
			}
			gradB += residual
		}

		maxGrad := 0.0
		for j := 0; j < nFeatures; j++ {
			g := grad[j]/float64(nSamples) + lambda*w[j]
			w[j] -= lr.learningRate * g
			if a := math.Abs(g); a > maxGrad {
				maxGrad = a
			}
		}
		if lr.fitIntercept {
			g := gradB / float64(nSamples)
			b -= lr.learningRate * g
			if a := math.Abs(g); a > maxGrad {
				maxGrad = a
			}
		}

		if maxGrad < lr.tol {
			break
		}
	}
	return w, b
}

// decision computes the raw linear scores, one column per subproblem.
func (lr *LogisticRegression) decision(X mat.Matrix) (*mat.Dense, error) {
	nSamples, nFeatures := X.Dims()
	if nFeatures != lr.NFeatures {
		return nil, errors.NewDimensionError("LogisticRegression.Predict", lr.NFeatures, nFeatures, 1)
	}

	scores := mat.NewDense(nSamples, len(lr.Coef), nil)
	for i := 0; i < nSamples; i++ {
		for k := range lr.Coef {
			f := lr.Intercept[k]
			for j := 0; j < nFeatures; j++ {
				f += lr.Coef[k][j] * X.At(i, j)
			}
			scores.Set(i, k, f)
		}
	}
	return scores, nil
}

// PredictProba returns per-class probabilities in ClassList order.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.state.RequireFitted("LogisticRegression", "PredictProba"); err != nil {
		return nil, err
	}

	scores, err := lr.decision(X)
	if err != nil {
		return nil, err
	}

	nSamples, _ := scores.Dims()
	nClasses := len(lr.ClassList)
	proba := mat.NewDense(nSamples, nClasses, nil)

	if nClasses == 2 {
		for i := 0; i < nSamples; i++ {
			p := sigmoid(scores.At(i, 0))
			proba.Set(i, 0, 1-p)
			proba.Set(i, 1, p)
		}
		return proba, nil
	}

	// One-vs-rest probabilities normalized to sum to one.
	for i := 0; i < nSamples; i++ {
		var total float64
		for k := 0; k < nClasses; k++ {
			p := sigmoid(scores.At(i, k))
			proba.Set(i, k, p)
			total += p
		}
		if total > 0 {
			for k := 0; k < nClasses; k++ {
				proba.Set(i, k, proba.At(i, k)/total)
			}
		}
	}
	return proba, nil
}

// Predict returns the most likely class label for each sample.
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := lr.PredictProba(X)
	if err != nil {
		return nil, err
	}

	nSamples, nClasses := proba.Dims()
	predictions := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		best := 0
		for k := 1; k < nClasses; k++ {
			if proba.At(i, k) > proba.At(i, best) {
				best = k
			}
		}
		predictions.Set(i, 0, float64(lr.ClassList[best]))
	}
	return predictions, nil
}

// Score returns the mean accuracy on the given test data and labels.
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}

	nSamples, _ := y.Dims()
	if nSamples == 0 {
		return 0, errors.NewModelError("LogisticRegression.Score", "empty data", errors.ErrEmptyData)
	}

	correct := 0
	for i := 0; i < nSamples; i++ {
		if predictions.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(nSamples), nil
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

func extractClasses(y mat.Matrix) []int {
	rows, _ := y.Dims()
	seen := make(map[int]bool)
	for i := 0; i < rows; i++ {
		seen[int(y.At(i, 0))] = true
	}
	classes := make([]int, 0, len(seen))
	for c := range seen {
		classes = append(classes, c)
	}
	sort.Ints(classes)
	return classes
}

// lrGobState is the serialized form of a fitted model.
type lrGobState struct {
	C            float64
	FitIntercept bool
	MaxIter      int
	LearningRate float64
	Tol          float64
	Coef         [][]float64
	Intercept    []float64
	ClassList    []int
	NFeatures    int
	Fitted       bool
}

// GobEncode implements gob.GobEncoder for artifact persistence.
func (lr *LogisticRegression) GobEncode() ([]byte, error) {
	state := lrGobState{
		C:            lr.c,
		FitIntercept: lr.fitIntercept,
		MaxIter:      lr.maxIter,
		LearningRate: lr.learningRate,
		Tol:          lr.tol,
		Coef:         lr.Coef,
		Intercept:    lr.Intercept,
		ClassList:    lr.ClassList,
		NFeatures:    lr.NFeatures,
		Fitted:       lr.state.IsFitted(),
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(state); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder.
func (lr *LogisticRegression) GobDecode(data []byte) error {
	var state lrGobState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); err != nil {
		return err
	}

	lr.state = model.NewStateManager()
	lr.c = state.C
	lr.fitIntercept = state.FitIntercept
	lr.maxIter = state.MaxIter
	lr.learningRate = state.LearningRate
	lr.tol = state.Tol
	lr.Coef = state.Coef
	lr.Intercept = state.Intercept
	lr.ClassList = state.ClassList
	lr.NFeatures = state.NFeatures
	if state.Fitted {
		lr.state.SetDimensions(state.NFeatures, 0)
		lr.state.SetFitted()
	}
	return nil
}
