// Package svm implements a linear support vector classifier trained with
// stochastic gradient descent on the hinge loss.
package svm

import (
	"bytes"
	"encoding/gob"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/mlbridge/mlbridge/core/model"
	"github.com/mlbridge/mlbridge/pkg/errors"
)

// LinearSVC is an L2-regularized linear SVM. Multiclass problems are
// handled one-vs-rest; every problem (including binary) trains one weight
// vector per class so DecisionFunction always has ClassList-aligned columns.
// LinearSVC does not produce probabilities.
type LinearSVC struct {
	state *model.StateManager

	// Hyperparameters
	c            float64 // Inverse regularization strength
	fitIntercept bool
	maxIter      int // Epochs over the training set
	learningRate float64
	randomState  int64

	// Fitted parameters - public for gob encoding
	Coef      [][]float64
	Intercept []float64
	ClassList []int
	NFeatures int
}

// LinearSVCOption is a functional option for LinearSVC.
type LinearSVCOption func(*LinearSVC)

// WithSVCC sets the inverse regularization strength.
func WithSVCC(c float64) LinearSVCOption {
	return func(s *LinearSVC) {
		s.c = c
	}
}

// WithSVCMaxIter sets the number of SGD epochs.
func WithSVCMaxIter(maxIter int) LinearSVCOption {
	return func(s *LinearSVC) {
		s.maxIter = maxIter
	}
}

// WithSVCLearningRate sets the SGD step size.
func WithSVCLearningRate(rate float64) LinearSVCOption {
	return func(s *LinearSVC) {
		s.learningRate = rate
	}
}

// WithSVCRandomState sets the shuffle seed for reproducible training.
func WithSVCRandomState(seed int64) LinearSVCOption {
	return func(s *LinearSVC) {
		s.randomState = seed
	}
}

// NewLinearSVC creates a LinearSVC classifier.
// Defaults: C 1.0, max_iter 200 epochs, learning rate 0.1, seed 42.
func NewLinearSVC(opts ...LinearSVCOption) *LinearSVC {
	s := &LinearSVC{
		state:        model.NewStateManager(),
		c:            1.0,
		fitIntercept: true,
		maxIter:      200,
		learningRate: 0.1,
		randomState:  42,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Classes returns the sorted class labels seen during fitting.
func (s *LinearSVC) Classes() []int {
	return s.ClassList
}

// Fit trains the classifier on X and a column vector y of class labels.
func (s *LinearSVC) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()

	if nSamples != yRows {
		return errors.NewDimensionError("LinearSVC.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("LinearSVC.Fit", "y must be a column vector")
	}
	if nSamples == 0 {
		return errors.NewModelError("LinearSVC.Fit", "empty data", errors.ErrEmptyData)
	}

	s.ClassList = extractClasses(y)
	if len(s.ClassList) < 2 {
		return errors.NewValueError("LinearSVC.Fit", "need at least 2 classes")
	}
	s.NFeatures = nFeatures

	rng := rand.New(rand.NewSource(s.randomState))
	s.Coef = make([][]float64, len(s.ClassList))
	s.Intercept = make([]float64, len(s.ClassList))

	for k, class := range s.ClassList {
		targets := make([]float64, nSamples)
		for i := 0; i < nSamples; i++ {
			if int(y.At(i, 0)) == class {
				targets[i] = 1
			} else {
				targets[i] = -1
			}
		}
		w, b := s.fitBinary(X, targets, rng)
		s.Coef[k] = w
		s.Intercept[k] = b
	}

	s.state.SetDimensions(nFeatures, nSamples)
	s.state.SetFitted()
	return nil
}

// fitBinary runs hinge-loss SGD for one one-vs-rest problem with targets
// in {-1, +1}.
func (s *LinearSVC) fitBinary(X mat.Matrix, targets []float64, rng *rand.Rand) ([]float64, float64) {
	nSamples, nFeatures := X.Dims()
	w := make([]float64, nFeatures)
	b := 0.0
	lambda := 1.0 / (s.c * float64(nSamples))

	order := make([]int, nSamples)
	for i := range order {
		order[i] = i
	}

	for epoch := 0; epoch < s.maxIter; epoch++ {
		rng.Shuffle(nSamples, func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})

		for _, i := range order {
			f := b
			for j := 0; j < nFeatures; j++ {
				f += w[j] * X.At(i, j)
			}

			if targets[i]*f < 1 {
				// Margin violation: shrink weights and step toward the sample.
				for j := 0; j < nFeatures; j++ {
					w[j] -= s.learningRate * (lambda*w[j] - targets[i]*X.At(i, j))
				}
				if s.fitIntercept {
					b += s.learningRate * targets[i]
				}
			} else {
				for j := 0; j < nFeatures; j++ {
					w[j] -= s.learningRate * lambda * w[j]
				}
			}
		}
	}
	return w, b
}

// DecisionFunction returns the margin of each sample for each class, in
// ClassList order.
func (s *LinearSVC) DecisionFunction(X mat.Matrix) (mat.Matrix, error) {
	if err := s.state.RequireFitted("LinearSVC", "DecisionFunction"); err != nil {
		return nil, err
	}

	nSamples, nFeatures := X.Dims()
	if nFeatures != s.NFeatures {
		return nil, errors.NewDimensionError("LinearSVC.DecisionFunction", s.NFeatures, nFeatures, 1)
	}

	scores := mat.NewDense(nSamples, len(s.ClassList), nil)
	for i := 0; i < nSamples; i++ {
		for k := range s.Coef {
			f := s.Intercept[k]
			for j := 0; j < nFeatures; j++ {
				f += s.Coef[k][j] * X.At(i, j)
			}
			scores.Set(i, k, f)
		}
	}
	return scores, nil
}

// Predict returns the class with the largest margin for each sample.
func (s *LinearSVC) Predict(X mat.Matrix) (mat.Matrix, error) {
	scores, err := s.DecisionFunction(X)
	if err != nil {
		return nil, err
	}

	nSamples, nClasses := scores.Dims()
	predictions := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		best := 0
		for k := 1; k < nClasses; k++ {
			if scores.At(i, k) > scores.At(i, best) {
				best = k
			}
		}
		predictions.Set(i, 0, float64(s.ClassList[best]))
	}
	return predictions, nil
}

// Score returns the mean accuracy on the given test data and labels.
func (s *LinearSVC) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := s.Predict(X)
	if err != nil {
		return 0, err
	}

	nSamples, _ := y.Dims()
	if nSamples == 0 {
		return 0, errors.NewModelError("LinearSVC.Score", "empty data", errors.ErrEmptyData)
	}

	correct := 0
	for i := 0; i < nSamples; i++ {
		if predictions.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(nSamples), nil
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

// svcGobState is the serialized form of a fitted model.
type svcGobState struct {
	C            float64
	FitIntercept bool
	MaxIter      int
	LearningRate float64
	RandomState  int64
	Coef         [][]float64
	Intercept    []float64
	ClassList    []int
	NFeatures    int
	Fitted       bool
}

// GobEncode implements gob.GobEncoder for artifact persistence.
func (s *LinearSVC) GobEncode() ([]byte, error) {
	state := svcGobState{
		C:            s.c,
		FitIntercept: s.fitIntercept,
		MaxIter:      s.maxIter,
		LearningRate: s.learningRate,
		RandomState:  s.randomState,
		Coef:         s.Coef,
		Intercept:    s.Intercept,
		ClassList:    s.ClassList,
		NFeatures:    s.NFeatures,
		Fitted:       s.state.IsFitted(),
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(state); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder.
func (s *LinearSVC) GobDecode(data []byte) error {
	var state svcGobState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); err != nil {
		return err
	}

	s.state = model.NewStateManager()
	s.c = state.C
	s.fitIntercept = state.FitIntercept
	s.maxIter = state.MaxIter
	s.learningRate = state.LearningRate
	s.randomState = state.RandomState
	s.Coef = state.Coef
	s.Intercept = state.Intercept
	s.ClassList = state.ClassList
	s.NFeatures = state.NFeatures
	if state.Fitted {
		s.state.SetDimensions(state.NFeatures, 0)
		s.state.SetFitted()
	}
	return nil
}
