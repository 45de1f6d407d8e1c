// Package naive_bayes implements the multinomial naive Bayes classifier used
// by the sentiment pipeline.
package naive_bayes

import (
	"bytes"
	"encoding/gob"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/mlbridge/mlbridge/core/model"
	"github.com/mlbridge/mlbridge/pkg/errors"
)

// MultinomialNB is a naive Bayes classifier for multinomially distributed
// data such as word counts or TF-IDF weights. Features must be non-negative.
type MultinomialNB struct {
	state *model.StateManager

	// Hyperparameters
	alpha    float64 // Additive (Laplace/Lidstone) smoothing
	fitPrior bool    // Learn class priors from data; uniform otherwise

	// Fitted parameters - public for gob encoding
	ClassList    []int       // Sorted class labels
	ClassCount   []float64   // Samples seen per class
	FeatureCount [][]float64 // Per-class feature totals
	NFeatures    int
	SamplesSeen  int

	classIndex map[int]int
}

// Option is a functional option for MultinomialNB.
type Option func(*MultinomialNB)

// WithAlpha sets the additive smoothing parameter.
func WithAlpha(alpha float64) Option {
	return func(nb *MultinomialNB) {
		nb.alpha = alpha
	}
}

// WithFitPrior controls whether class priors are learned from the data.
// When false, a uniform prior is used.
func WithFitPrior(fit bool) Option {
	return func(nb *MultinomialNB) {
		nb.fitPrior = fit
	}
}

// NewMultinomialNB creates a MultinomialNB classifier.
// Defaults: alpha 1.0, fit_prior true.
func NewMultinomialNB(opts ...Option) *MultinomialNB {
	nb := &MultinomialNB{
		state:    model.NewStateManager(),
		alpha:    1.0,
		fitPrior: true,
	}
	for _, opt := range opts {
		opt(nb)
	}
	return nb
}

// Classes returns the sorted class labels seen during fitting.
func (nb *MultinomialNB) Classes() []int {
	return nb.ClassList
}

// NSamplesSeen returns the number of training samples accumulated so far.
func (nb *MultinomialNB) NSamplesSeen() int {
	return nb.SamplesSeen
}

// IsFitted returns whether the model has been fitted.
func (nb *MultinomialNB) IsFitted() bool {
	return nb.state.IsFitted()
}

// Fit trains the classifier from scratch, discarding any previous state.
func (nb *MultinomialNB) Fit(X, y mat.Matrix) error {
	nb.state.Reset()
	nb.ClassList = nil
	nb.ClassCount = nil
	nb.FeatureCount = nil
	nb.classIndex = nil
	nb.SamplesSeen = 0
	return nb.PartialFit(X, y, nil)
}

// PartialFit incrementally trains the classifier on a batch. On the first
// call, classes fixes the label set; if nil, labels are discovered from y.
// Later calls must only contain known labels.
func (nb *MultinomialNB) PartialFit(X, y mat.Matrix, classes []int) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()

	if nSamples != yRows {
		return errors.NewDimensionError("MultinomialNB.PartialFit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("MultinomialNB.PartialFit", "y must be a column vector")
	}
	if nSamples == 0 {
		return errors.NewModelError("MultinomialNB.PartialFit", "empty batch", errors.ErrEmptyData)
	}

	for i := 0; i < nSamples; i++ {
		for j := 0; j < nFeatures; j++ {
			if X.At(i, j) < 0 {
				return errors.NewValueError("MultinomialNB.PartialFit",
					"negative values in data passed to MultinomialNB")
			}
		}
	}

	if !nb.state.IsFitted() {
		if classes == nil {
			classes = extractClasses(y)
		}
		if err := nb.initialize(classes, nFeatures); err != nil {
			return err
		}
	} else if nFeatures != nb.NFeatures {
		return errors.NewDimensionError("MultinomialNB.PartialFit", nb.NFeatures, nFeatures, 1)
	}

	for i := 0; i < nSamples; i++ {
		label := int(y.At(i, 0))
		ci, ok := nb.classIndex[label]
		if !ok {
			return errors.NewValueError("MultinomialNB.PartialFit",
				"unknown class label in y; all labels must appear in the first call's classes")
		}
		nb.ClassCount[ci]++
		for j := 0; j < nFeatures; j++ {
			nb.FeatureCount[ci][j] += X.At(i, j)
		}
	}

	nb.SamplesSeen += nSamples
	nb.state.SetDimensions(nFeatures, nb.SamplesSeen)
	nb.state.SetFitted()
	return nil
}

func (nb *MultinomialNB) initialize(classes []int, nFeatures int) error {
	if len(classes) < 2 {
		return errors.NewValueError("MultinomialNB", "need at least 2 classes")
	}

	sorted := append([]int(nil), classes...)
	sort.Ints(sorted)

	nb.ClassList = sorted
	nb.NFeatures = nFeatures
	nb.ClassCount = make([]float64, len(sorted))
	nb.FeatureCount = make([][]float64, len(sorted))
	nb.classIndex = make(map[int]int, len(sorted))
	for i, c := range sorted {
		nb.FeatureCount[i] = make([]float64, nFeatures)
		nb.classIndex[c] = i
	}
	return nil
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

// jointLogLikelihood computes log P(c) + sum_j x_j * log P(j|c) for every
// sample and class. Zero feature values are skipped so that a -Inf log
// probability (possible when alpha is zero) never produces NaN.
func (nb *MultinomialNB) jointLogLikelihood(X mat.Matrix) (*mat.Dense, error) {
	nSamples, nFeatures := X.Dims()
	if nFeatures != nb.NFeatures {
		return nil, errors.NewDimensionError("MultinomialNB.Predict", nb.NFeatures, nFeatures, 1)
	}

	nClasses := len(nb.ClassList)

	logPrior := make([]float64, nClasses)
	if nb.fitPrior {
		for c := range logPrior {
			logPrior[c] = math.Log(nb.ClassCount[c] / float64(nb.SamplesSeen))
		}
	} else {
		uniform := -math.Log(float64(nClasses))
		for c := range logPrior {
			logPrior[c] = uniform
		}
	}

	featureLogProb := make([][]float64, nClasses)
	for c := 0; c < nClasses; c++ {
		total := 0.0
		for j := 0; j < nb.NFeatures; j++ {
			total += nb.FeatureCount[c][j]
		}
		denom := math.Log(total + nb.alpha*float64(nb.NFeatures))
		featureLogProb[c] = make([]float64, nb.NFeatures)
		for j := 0; j < nb.NFeatures; j++ {
			featureLogProb[c][j] = math.Log(nb.FeatureCount[c][j]+nb.alpha) - denom
		}
	}

	jll := mat.NewDense(nSamples, nClasses, nil)
	for i := 0; i < nSamples; i++ {
		for c := 0; c < nClasses; c++ {
			sum := logPrior[c]
			for j := 0; j < nFeatures; j++ {
				if x := X.At(i, j); x != 0 {
					sum += x * featureLogProb[c][j]
				}
			}
			jll.Set(i, c, sum)
		}
	}
	return jll, nil
}

// Predict returns the most likely class label for each sample as an (n, 1)
// matrix.
func (nb *MultinomialNB) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := nb.state.RequireFitted("MultinomialNB", "Predict"); err != nil {
		return nil, err
	}

	jll, err := nb.jointLogLikelihood(X)
	if err != nil {
		return nil, err
	}

	nSamples, nClasses := jll.Dims()
	predictions := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		best := 0
		for c := 1; c < nClasses; c++ {
			if jll.At(i, c) > jll.At(i, best) {
				best = c
			}
		}
		predictions.Set(i, 0, float64(nb.ClassList[best]))
	}
	return predictions, nil
}

// PredictLogProba returns per-class log probabilities for each sample.
func (nb *MultinomialNB) PredictLogProba(X mat.Matrix) (mat.Matrix, error) {
	if err := nb.state.RequireFitted("MultinomialNB", "PredictLogProba"); err != nil {
		return nil, err
	}

	jll, err := nb.jointLogLikelihood(X)
	if err != nil {
		return nil, err
	}

	nSamples, nClasses := jll.Dims()
	for i := 0; i < nSamples; i++ {
		norm := logSumExp(jll.RawRowView(i))
		for c := 0; c < nClasses; c++ {
			jll.Set(i, c, jll.At(i, c)-norm)
		}
	}
	return jll, nil
}

// PredictProba returns per-class probabilities for each sample.
func (nb *MultinomialNB) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	logProba, err := nb.PredictLogProba(X)
	if err != nil {
		return nil, err
	}

	nSamples, nClasses := logProba.Dims()
	proba := mat.NewDense(nSamples, nClasses, nil)
	for i := 0; i < nSamples; i++ {
		for c := 0; c < nClasses; c++ {
			proba.Set(i, c, math.Exp(logProba.At(i, c)))
		}
	}
	return proba, nil
}

// Score returns the mean accuracy on the given test data and labels.
func (nb *MultinomialNB) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := nb.Predict(X)
	if err != nil {
		return 0, err
	}

	nSamples, _ := y.Dims()
	if nSamples == 0 {
		return 0, errors.NewModelError("MultinomialNB.Score", "empty data", errors.ErrEmptyData)
	}

	correct := 0
	for i := 0; i < nSamples; i++ {
		if predictions.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(nSamples), nil
}

func logSumExp(values []float64) float64 {
	max := math.Inf(-1)
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	if math.IsInf(max, -1) {
		return max
	}

	var sum float64
	for _, v := range values {
		sum += math.Exp(v - max)
	}
	return max + math.Log(sum)
}

// nbGobState is the serialized form of a fitted classifier.
type nbGobState struct {
	Alpha        float64
	FitPrior     bool
	ClassList    []int
	ClassCount   []float64
	FeatureCount [][]float64
	NFeatures    int
	SamplesSeen  int
	Fitted       bool
}

// GobEncode implements gob.GobEncoder for artifact persistence.
func (nb *MultinomialNB) GobEncode() ([]byte, error) {
	state := nbGobState{
		Alpha:        nb.alpha,
		FitPrior:     nb.fitPrior,
		ClassList:    nb.ClassList,
		ClassCount:   nb.ClassCount,
		FeatureCount: nb.FeatureCount,
		NFeatures:    nb.NFeatures,
		SamplesSeen:  nb.SamplesSeen,
		Fitted:       nb.state.IsFitted(),
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(state); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder.
func (nb *MultinomialNB) GobDecode(data []byte) error {
	var state nbGobState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); err != nil {
		return err
	}

	nb.state = model.NewStateManager()
	nb.alpha = state.Alpha
	nb.fitPrior = state.FitPrior
	nb.ClassList = state.ClassList
	nb.ClassCount = state.ClassCount
	nb.FeatureCount = state.FeatureCount
	nb.NFeatures = state.NFeatures
	nb.SamplesSeen = state.SamplesSeen
	nb.classIndex = make(map[int]int, len(state.ClassList))
	for i, c := range state.ClassList {
		nb.classIndex[c] = i
	}
	if state.Fitted {
		nb.state.SetDimensions(state.NFeatures, state.SamplesSeen)
		nb.state.SetFitted()
	}
	return nil
}
