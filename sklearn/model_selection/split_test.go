package model_selection

import (
	"math"
	"sort"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestStratifiedSplitIndices(t *testing.T) {
	labels := []int{0, 0, 0, 0, 0, 1, 1, 1, 1, 1}
	train, test, err := StratifiedSplitIndices(labels, 0.2, 42)
	if err != nil {
		t.Fatalf("StratifiedSplitIndices failed: %v", err)
	}

	if len(train)+len(test) != len(labels) {
		t.Fatalf("train+test = %d, want %d", len(train)+len(test), len(labels))
	}

	// 20% of 5 per class is 1 per class.
	if len(test) != 2 {
		t.Errorf("test size = %d, want 2", len(test))
	}

	testByLabel := make(map[int]int)
	for _, idx := range test {
		testByLabel[labels[idx]]++
	}
	if testByLabel[0] != 1 || testByLabel[1] != 1 {
		t.Errorf("test split not stratified: %v", testByLabel)
	}

	// No overlap.
	seen := make(map[int]bool)
	for _, idx := range train {
		seen[idx] = true
	}
	for _, idx := range test {
		if seen[idx] {
			t.Errorf("index %d appears in both train and test", idx)
		}
	}
}

func TestStratifiedSplitDeterministic(t *testing.T) {
	labels := []int{0, 1, 0, 1, 0, 1, 0, 1, 2, 2, 2, 2}

	train1, test1, err := StratifiedSplitIndices(labels, 0.25, 42)
	if err != nil {
		t.Fatalf("StratifiedSplitIndices failed: %v", err)
	}
	train2, test2, err := StratifiedSplitIndices(labels, 0.25, 42)
	if err != nil {
		t.Fatalf("StratifiedSplitIndices failed: %v", err)
	}

	if len(train1) != len(train2) || len(test1) != len(test2) {
		t.Fatal("same seed produced different split sizes")
	}
	for i := range test1 {
		if test1[i] != test2[i] {
			t.Fatal("same seed produced different test indices")
		}
	}
}

func TestStratifiedSplitInvalidTestSize(t *testing.T) {
	labels := []int{0, 1}
	if _, _, err := StratifiedSplitIndices(labels, 0, 42); err == nil {
		t.Error("testSize 0 should fail")
	}
	if _, _, err := StratifiedSplitIndices(labels, 1.5, 42); err == nil {
		t.Error("testSize > 1 should fail")
	}
	if _, _, err := StratifiedSplitIndices(nil, 0.2, 42); err == nil {
		t.Error("empty labels should fail")
	}
}

func TestKFoldIndices(t *testing.T) {
	folds, err := KFoldIndices(10, 5, 42)
	if err != nil {
		t.Fatalf("KFoldIndices failed: %v", err)
	}
	if len(folds) != 5 {
		t.Fatalf("got %d folds, want 5", len(folds))
	}

	var all []int
	for _, fold := range folds {
		if len(fold) != 2 {
			t.Errorf("fold size = %d, want 2", len(fold))
		}
		all = append(all, fold...)
	}
	sort.Ints(all)
	for i, idx := range all {
		if idx != i {
			t.Fatalf("folds do not cover all indices exactly once: %v", all)
		}
	}
}

func TestKFoldIndicesErrors(t *testing.T) {
	if _, err := KFoldIndices(10, 1, 42); err == nil {
		t.Error("k=1 should fail")
	}
	if _, err := KFoldIndices(3, 5, 42); err == nil {
		t.Error("n < k should fail")
	}
}

// constantClassifier predicts its training majority regardless of input.
type constantClassifier struct {
	label float64
}

func (c *constantClassifier) Fit(X, y mat.Matrix) error {
	counts := make(map[float64]int)
	rows, _ := y.Dims()
	for i := 0; i < rows; i++ {
		counts[y.At(i, 0)]++
	}
	best := 0
	for label, n := range counts {
		if n > best {
			best = n
			c.label = label
		}
	}
	return nil
}

func (c *constantClassifier) Score(X, y mat.Matrix) (float64, error) {
	rows, _ := y.Dims()
	correct := 0
	for i := 0; i < rows; i++ {
		if y.At(i, 0) == c.label {
			correct++
		}
	}
	return float64(correct) / float64(rows), nil
}

func TestCrossValScore(t *testing.T) {
	// All samples share one label, so every fold scores 1.0.
	X := mat.NewDense(10, 1, nil)
	y := mat.NewDense(10, 1, nil)
	for i := 0; i < 10; i++ {
		X.Set(i, 0, float64(i))
		y.Set(i, 0, 1)
	}

	scores, err := CrossValScore(func() Classifier {
		return &constantClassifier{}
	}, X, y, 5, 42)
	if err != nil {
		t.Fatalf("CrossValScore failed: %v", err)
	}
	if len(scores) != 5 {
		t.Fatalf("got %d scores, want 5", len(scores))
	}
	for f, s := range scores {
		if s != 1.0 {
			t.Errorf("fold %d score = %v, want 1.0", f, s)
		}
	}
	if math.Abs(Mean(scores)-1.0) > 1e-12 {
		t.Errorf("mean = %v, want 1.0", Mean(scores))
	}
}

func TestSelectRows(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 2,
		3, 4,
		5, 6,
		7, 8,
	})
	out := SelectRows(X, []int{2, 0})
	if out.At(0, 0) != 5 || out.At(0, 1) != 6 {
		t.Errorf("row 0 = (%v, %v), want (5, 6)", out.At(0, 0), out.At(0, 1))
	}
	if out.At(1, 0) != 1 || out.At(1, 1) != 2 {
		t.Errorf("row 1 = (%v, %v), want (1, 2)", out.At(1, 0), out.At(1, 1))
	}
}
