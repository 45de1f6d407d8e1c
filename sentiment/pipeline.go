// Package sentiment implements the text-classification pipeline behind the
// train, predict, compare, server, and worker commands: TF-IDF features in
// front of a pluggable classifier, with gob artifact persistence.
package sentiment

import (
	"encoding/gob"
	"math"
	"path/filepath"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/mlbridge/mlbridge/core/model"
	"github.com/mlbridge/mlbridge/metrics"
	"github.com/mlbridge/mlbridge/pkg/errors"
	"github.com/mlbridge/mlbridge/preprocessing"
	"github.com/mlbridge/mlbridge/sklearn/linear_model"
	"github.com/mlbridge/mlbridge/sklearn/model_selection"
	"github.com/mlbridge/mlbridge/sklearn/naive_bayes"
	"github.com/mlbridge/mlbridge/sklearn/svm"
)

// Artifact file names under the model directory.
const (
	ModelFile      = "sentiment_model.gob"
	VectorizerFile = "vectorizer.gob"
	ComparisonFile = "model_comparison.json"
)

// Training constants shared by Train and Compare.
const (
	testSize = 0.2
	cvFolds  = 5
	seed     = 42
)

// Classifier is the estimator contract the pipeline needs.
type Classifier interface {
	Fit(X, y mat.Matrix) error
	Predict(X mat.Matrix) (mat.Matrix, error)
	Score(X, y mat.Matrix) (float64, error)
	Classes() []int
}

// ProbabilityScorer is implemented by classifiers that produce calibrated
// per-class probabilities.
type ProbabilityScorer interface {
	PredictProba(X mat.Matrix) (mat.Matrix, error)
}

// MarginScorer is implemented by classifiers that only expose decision
// margins. Confidence is derived by softmaxing the margins.
type MarginScorer interface {
	DecisionFunction(X mat.Matrix) (mat.Matrix, error)
}

func init() {
	// Concrete classifier types travel through the gob artifact behind the
	// Classifier interface.
	gob.Register(&naive_bayes.MultinomialNB{})
	gob.Register(&linear_model.LogisticRegression{})
	gob.Register(&svm.LinearSVC{})
}

// Pipeline couples a TF-IDF vectorizer with a classifier over string class
// names. ClassNames is indexed by the integer labels the classifier sees.
type Pipeline struct {
	Vectorizer *preprocessing.TfidfVectorizer
	Classifier Classifier
	ClassNames []string

	newClassifier func() Classifier
}

// NewPipeline creates a pipeline with the default configuration: TF-IDF with
// 1000 max features, unigrams and bigrams, min_df 2, english stop words, in
// front of MultinomialNB with alpha 0.1.
func NewPipeline() *Pipeline {
	return NewPipelineWith(func() Classifier {
		return naive_bayes.NewMultinomialNB(naive_bayes.WithAlpha(0.1))
	})
}

// NewPipelineWith creates a pipeline whose classifier comes from the given
// factory. The factory is also used to build the fresh estimators that
// cross-validation folds require.
func NewPipelineWith(newClassifier func() Classifier) *Pipeline {
	return &Pipeline{
		Vectorizer: preprocessing.NewTfidfVectorizer(
			preprocessing.WithMaxFeatures(1000),
			preprocessing.WithNgramRange(1, 2),
			preprocessing.WithMinDF(2),
			preprocessing.WithStopWords(true),
		),
		newClassifier: newClassifier,
	}
}

// TrainReport summarizes a training run.
type TrainReport struct {
	Accuracy float64 `json:"accuracy"`
	CVMean   float64 `json:"cv_mean"`
	CVStd    float64 `json:"cv_std"`
}

// encodeLabels maps string labels onto integer classes in sorted name order.
func encodeLabels(labels []string) ([]string, []int) {
	seen := make(map[string]bool)
	for _, l := range labels {
		seen[l] = true
	}
	names := make([]string, 0, len(seen))
	for l := range seen {
		names = append(names, l)
	}
	sort.Strings(names)

	index := make(map[string]int, len(names))
	for i, n := range names {
		index[n] = i
	}
	encoded := make([]int, len(labels))
	for i, l := range labels {
		encoded[i] = index[l]
	}
	return names, encoded
}

func labelColumn(labels []int) *mat.Dense {
	y := mat.NewDense(len(labels), 1, nil)
	for i, l := range labels {
		y.Set(i, 0, float64(l))
	}
	return y
}

func selectStrings(texts []string, rows []int) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = texts[r]
	}
	return out
}

// Train fits the vectorizer and classifier on a stratified 80/20 split,
// reporting held-out accuracy and 5-fold cross-validation statistics on the
// training portion.
func (p *Pipeline) Train(texts, labels []string) (*TrainReport, error) {
	if len(texts) == 0 {
		return nil, errors.NewModelError("Pipeline.Train", "empty training data", errors.ErrEmptyData)
	}
	if len(texts) != len(labels) {
		return nil, errors.NewDimensionError("Pipeline.Train", len(texts), len(labels), 0)
	}

	classNames, encoded := encodeLabels(labels)
	if len(classNames) < 2 {
		return nil, errors.NewValueError("Pipeline.Train", "need at least 2 sentiment classes")
	}
	p.ClassNames = classNames

	trainIdx, testIdx, err := model_selection.StratifiedSplitIndices(encoded, testSize, seed)
	if err != nil {
		return nil, err
	}

	trainTexts := selectStrings(texts, trainIdx)
	XTrain, err := p.Vectorizer.FitTransform(trainTexts)
	if err != nil {
		return nil, err
	}
	XTest, err := p.Vectorizer.Transform(selectStrings(texts, testIdx))
	if err != nil {
		return nil, err
	}

	yTrain := labelColumn(selectInts(encoded, trainIdx))
	yTest := labelColumn(selectInts(encoded, testIdx))

	clf := p.newClassifier()
	if err := clf.Fit(XTrain, yTrain); err != nil {
		return nil, err
	}
	p.Classifier = clf

	accuracy, err := clf.Score(XTest, yTest)
	if err != nil {
		return nil, err
	}

	cvScores, err := model_selection.CrossValScore(func() model_selection.Classifier {
		return p.newClassifier()
	}, XTrain, yTrain, cvFolds, seed)
	if err != nil {
		return nil, err
	}

	return &TrainReport{
		Accuracy: accuracy,
		CVMean:   model_selection.Mean(cvScores),
		CVStd:    stddev(cvScores),
	}, nil
}

func selectInts(values []int, rows []int) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = values[r]
	}
	return out
}

func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := model_selection.Mean(values)
	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)))
}

// Prediction is the result of classifying one text.
type Prediction struct {
	Text       string             `json:"text"`
	Sentiment  string             `json:"sentiment"`
	Confidence float64            `json:"confidence"`
	AllScores  map[string]float64 `json:"all_scores"`
}

// Predict classifies a single text.
func (p *Pipeline) Predict(text string) (*Prediction, error) {
	results, err := p.PredictBatch([]string{text})
	if err != nil {
		return nil, err
	}
	return &results[0], nil
}

// PredictBatch classifies texts in one vectorizer pass.
func (p *Pipeline) PredictBatch(texts []string) ([]Prediction, error) {
	if p.Classifier == nil {
		return nil, errors.NewNotFittedError("Pipeline", "PredictBatch")
	}
	if len(texts) == 0 {
		return nil, errors.NewValueError("Pipeline.PredictBatch", "no texts provided")
	}

	X, err := p.Vectorizer.Transform(texts)
	if err != nil {
		return nil, err
	}

	scores, err := p.classScores(X)
	if err != nil {
		return nil, err
	}

	classes := p.Classifier.Classes()
	results := make([]Prediction, len(texts))
	for i := range texts {
		best := 0
		all := make(map[string]float64, len(classes))
		for k, class := range classes {
			all[p.className(class)] = scores.At(i, k)
			if scores.At(i, k) > scores.At(i, best) {
				best = k
			}
		}
		results[i] = Prediction{
			Text:       texts[i],
			Sentiment:  p.className(classes[best]),
			Confidence: scores.At(i, best),
			AllScores:  all,
		}
	}
	return results, nil
}

func (p *Pipeline) className(class int) string {
	if class >= 0 && class < len(p.ClassNames) {
		return p.ClassNames[class]
	}
	return "unknown"
}

// classScores returns per-class confidence scores: calibrated probabilities
// when the classifier provides them, softmaxed margins otherwise.
func (p *Pipeline) classScores(X mat.Matrix) (mat.Matrix, error) {
	if ps, ok := p.Classifier.(ProbabilityScorer); ok {
		return ps.PredictProba(X)
	}

	ms, ok := p.Classifier.(MarginScorer)
	if !ok {
		return nil, errors.NewModelError("Pipeline.classScores",
			"classifier provides neither probabilities nor decision margins", nil)
	}
	margins, err := ms.DecisionFunction(X)
	if err != nil {
		return nil, err
	}

	rows, cols := margins.Dims()
	scores := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		maxM := margins.At(i, 0)
		for k := 1; k < cols; k++ {
			if margins.At(i, k) > maxM {
				maxM = margins.At(i, k)
			}
		}
		var total float64
		for k := 0; k < cols; k++ {
			e := math.Exp(margins.At(i, k) - maxM)
			scores.Set(i, k, e)
			total += e
		}
		for k := 0; k < cols; k++ {
			scores.Set(i, k, scores.At(i, k)/total)
		}
	}
	return scores, nil
}

// predictNames predicts string labels for already-vectorized samples.
func (p *Pipeline) predictNames(clf Classifier, X mat.Matrix) ([]string, error) {
	predictions, err := clf.Predict(X)
	if err != nil {
		return nil, err
	}
	rows, _ := predictions.Dims()
	out := make([]string, rows)
	for i := 0; i < rows; i++ {
		out[i] = p.className(int(predictions.At(i, 0)))
	}
	return out, nil
}

// savedModel is the on-disk form of a trained pipeline's classifier half.
type savedModel struct {
	ClassNames []string
	Classifier Classifier
}

// SaveArtifacts writes the classifier and vectorizer gob blobs under
// modelDir, creating it if needed.
func (p *Pipeline) SaveArtifacts(modelDir string) error {
	if p.Classifier == nil {
		return errors.NewNotFittedError("Pipeline", "SaveArtifacts")
	}
	saved := &savedModel{ClassNames: p.ClassNames, Classifier: p.Classifier}
	if err := model.SaveModel(saved, filepath.Join(modelDir, ModelFile)); err != nil {
		return err
	}
	return model.SaveModel(p.Vectorizer, filepath.Join(modelDir, VectorizerFile))
}

// LoadArtifacts reads a pipeline previously written by SaveArtifacts.
func LoadArtifacts(modelDir string) (*Pipeline, error) {
	var saved savedModel
	if err := model.LoadModel(&saved, filepath.Join(modelDir, ModelFile)); err != nil {
		return nil, err
	}

	vectorizer := &preprocessing.TfidfVectorizer{}
	if err := model.LoadModel(vectorizer, filepath.Join(modelDir, VectorizerFile)); err != nil {
		return nil, err
	}

	return &Pipeline{
		Vectorizer: vectorizer,
		Classifier: saved.Classifier,
		ClassNames: saved.ClassNames,
	}, nil
}

// ModelPath returns the classifier artifact path under modelDir.
func ModelPath(modelDir string) string {
	return filepath.Join(modelDir, ModelFile)
}

// VectorizerPath returns the vectorizer artifact path under modelDir.
func VectorizerPath(modelDir string) string {
	return filepath.Join(modelDir, VectorizerFile)
}

// evaluate computes string-label accuracy and weighted PRF for a fitted
// classifier against test data.
func (p *Pipeline) evaluate(clf Classifier, XTest mat.Matrix, yTestNames []string) (accuracy, precision, recall, f1 float64, err error) {
	predNames, err := p.predictNames(clf, XTest)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	accuracy, err = metrics.AccuracyScore(yTestNames, predNames)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	precision, recall, f1, err = metrics.PrecisionRecallF1Weighted(yTestNames, predNames)
	return accuracy, precision, recall, f1, err
}
