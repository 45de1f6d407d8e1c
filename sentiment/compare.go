package sentiment

import (
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/mlbridge/mlbridge/pkg/errors"
	"github.com/mlbridge/mlbridge/sklearn/linear_model"
	"github.com/mlbridge/mlbridge/sklearn/model_selection"
	"github.com/mlbridge/mlbridge/sklearn/naive_bayes"
	"github.com/mlbridge/mlbridge/sklearn/svm"
)

// ModelResult holds one candidate's evaluation in a comparison run.
type ModelResult struct {
	Name      string  `json:"name"`
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	CVMean    float64 `json:"cv_mean"`
	CVStd     float64 `json:"cv_std"`
}

// Comparison is the outcome of training several classifiers on the same
// split. The winner is the model with the highest weighted F1.
type Comparison struct {
	BestModel string        `json:"best_model"`
	Results   []ModelResult `json:"results"`
}

// candidate pairs a display name with a classifier factory.
type candidate struct {
	name string
	make func() Classifier
}

func defaultCandidates() []candidate {
	return []candidate{
		{"Naive Bayes", func() Classifier {
			return naive_bayes.NewMultinomialNB(naive_bayes.WithAlpha(0.1))
		}},
		{"Logistic Regression", func() Classifier {
			return linear_model.NewLogisticRegression(linear_model.WithLRMaxIter(1000))
		}},
		{"Linear SVM", func() Classifier {
			return svm.NewLinearSVC(svm.WithSVCMaxIter(200), svm.WithSVCRandomState(42))
		}},
	}
}

// Compare trains Naive Bayes, logistic regression, and a linear SVM on the
// same stratified split and TF-IDF features, evaluates each with weighted
// precision/recall/F1 plus 5-fold cross-validation, and returns the
// comparison together with a pipeline wrapping the winning classifier.
func Compare(texts, labels []string) (*Comparison, *Pipeline, error) {
	if len(texts) == 0 {
		return nil, nil, errors.NewModelError("Compare", "empty training data", errors.ErrEmptyData)
	}
	if len(texts) != len(labels) {
		return nil, nil, errors.NewDimensionError("Compare", len(texts), len(labels), 0)
	}

	classNames, encoded := encodeLabels(labels)
	if len(classNames) < 2 {
		return nil, nil, errors.NewValueError("Compare", "need at least 2 sentiment classes")
	}

	p := NewPipeline()
	p.ClassNames = classNames

	trainIdx, testIdx, err := model_selection.StratifiedSplitIndices(encoded, testSize, seed)
	if err != nil {
		return nil, nil, err
	}

	XTrain, err := p.Vectorizer.FitTransform(selectStrings(texts, trainIdx))
	if err != nil {
		return nil, nil, err
	}
	XTest, err := p.Vectorizer.Transform(selectStrings(texts, testIdx))
	if err != nil {
		return nil, nil, err
	}

	yTrain := labelColumn(selectInts(encoded, trainIdx))
	yTestNames := selectStrings(labels, testIdx)

	comparison := &Comparison{}
	var bestClf Classifier
	bestF1 := -1.0

	for _, c := range defaultCandidates() {
		clf := c.make()
		if err := clf.Fit(XTrain, yTrain); err != nil {
			return nil, nil, errors.Wrapf(err, "training %s failed", c.name)
		}

		accuracy, precision, recall, f1, err := p.evaluate(clf, XTest, yTestNames)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "evaluating %s failed", c.name)
		}

		cvScores, err := model_selection.CrossValScore(func() model_selection.Classifier {
			return c.make()
		}, XTrain, yTrain, cvFolds, seed)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "cross-validating %s failed", c.name)
		}

		comparison.Results = append(comparison.Results, ModelResult{
			Name:      c.name,
			Accuracy:  accuracy,
			Precision: precision,
			Recall:    recall,
			F1:        f1,
			CVMean:    model_selection.Mean(cvScores),
			CVStd:     stddev(cvScores),
		})

		if f1 > bestF1 {
			bestF1 = f1
			bestClf = clf
			comparison.BestModel = c.name
		}
	}

	p.Classifier = bestClf
	return comparison, p, nil
}

// WriteComparison saves the comparison summary as JSON under modelDir.
func WriteComparison(c *Comparison, modelDir string) (string, error) {
	if err := os.MkdirAll(modelDir, 0o755); err != nil {
		return "", errors.Wrap(err, "failed to create model directory")
	}

	path := filepath.Join(modelDir, ComparisonFile)
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal comparison")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrap(err, "failed to write comparison file")
	}
	return path, nil
}
