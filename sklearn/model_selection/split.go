// Package model_selection provides dataset splitting and cross-validation
// helpers for evaluating classifiers.
package model_selection

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/mlbridge/mlbridge/pkg/errors"
)

// StratifiedSplitIndices partitions sample indices into train and test sets,
// preserving each label's proportion. Within each label group the split is
// shuffled with the given seed, so the same seed always yields the same split.
func StratifiedSplitIndices(labels []int, testSize float64, seed int64) (train, test []int, err error) {
	if len(labels) == 0 {
		return nil, nil, errors.NewModelError("StratifiedSplitIndices", "empty data", errors.ErrEmptyData)
	}
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, errors.NewValueError("StratifiedSplitIndices", "testSize must be in (0, 1)")
	}

	groups := make(map[int][]int)
	for i, label := range labels {
		groups[label] = append(groups[label], i)
	}

	// Iterate labels in sorted order so the split is deterministic.
	sortedLabels := make([]int, 0, len(groups))
	for label := range groups {
		sortedLabels = append(sortedLabels, label)
	}
	sort.Ints(sortedLabels)

	rng := rand.New(rand.NewSource(seed))
	for _, label := range sortedLabels {
		indices := groups[label]
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})

		nTest := int(float64(len(indices)) * testSize)
		if nTest == 0 && len(indices) > 1 {
			nTest = 1
		}
		test = append(test, indices[:nTest]...)
		train = append(train, indices[nTest:]...)
	}

	sort.Ints(train)
	sort.Ints(test)
	return train, test, nil
}

// KFoldIndices splits n sample indices into k shuffled folds. The folds are
// disjoint and cover every index; sizes differ by at most one.
func KFoldIndices(n, k int, seed int64) ([][]int, error) {
	if k < 2 {
		return nil, errors.NewValueError("KFoldIndices", "k must be at least 2")
	}
	if n < k {
		return nil, errors.NewValueError("KFoldIndices", "cannot split fewer samples than folds")
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(n, func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})

	folds := make([][]int, k)
	for i, idx := range indices {
		folds[i%k] = append(folds[i%k], idx)
	}
	return folds, nil
}

// SelectRows copies the given rows of X into a new dense matrix.
func SelectRows(X mat.Matrix, rows []int) *mat.Dense {
	_, cols := X.Dims()
	out := mat.NewDense(len(rows), cols, nil)
	for i, r := range rows {
		for j := 0; j < cols; j++ {
			out.Set(i, j, X.At(r, j))
		}
	}
	return out
}

// CrossValScore runs k-fold cross-validation and returns the per-fold
// accuracy scores. makeClf must return a fresh unfitted classifier for each
// fold.
func CrossValScore(makeClf func() Classifier, X, y mat.Matrix, k int, seed int64) ([]float64, error) {
	nSamples, _ := X.Dims()
	folds, err := KFoldIndices(nSamples, k, seed)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, 0, k)
	for f := range folds {
		var trainRows []int
		for g, fold := range folds {
			if g != f {
				trainRows = append(trainRows, fold...)
			}
		}

		clf := makeClf()
		XTrain := SelectRows(X, trainRows)
		yTrain := SelectRows(y, trainRows)
		if err := clf.Fit(XTrain, yTrain); err != nil {
			return nil, errors.Wrapf(err, "fold %d training failed", f)
		}

		XTest := SelectRows(X, folds[f])
		yTest := SelectRows(y, folds[f])
		score, err := clf.Score(XTest, yTest)
		if err != nil {
			return nil, errors.Wrapf(err, "fold %d scoring failed", f)
		}
		scores = append(scores, score)
	}
	return scores, nil
}

// Classifier is the minimal estimator contract CrossValScore needs.
type Classifier interface {
	Fit(X, y mat.Matrix) error
	Score(X, y mat.Matrix) (float64, error)
}

// Mean returns the arithmetic mean of the scores.
func Mean(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}
