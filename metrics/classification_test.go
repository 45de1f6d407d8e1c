package metrics

import (
	"math"
	"testing"
)

func TestAccuracyScore(t *testing.T) {
	yTrue := []string{"positive", "negative", "positive", "negative"}
	yPred := []string{"positive", "negative", "negative", "negative"}

	acc, err := AccuracyScore(yTrue, yPred)
	if err != nil {
		t.Fatalf("AccuracyScore failed: %v", err)
	}
	if math.Abs(acc-0.75) > tol {
		t.Errorf("accuracy = %v, want 0.75", acc)
	}

	if _, err := AccuracyScore(nil, nil); err == nil {
		t.Error("AccuracyScore should fail on empty input")
	}
	if _, err := AccuracyScore(yTrue, yPred[:2]); err == nil {
		t.Error("AccuracyScore should fail on length mismatch")
	}
}

func TestClassificationReport(t *testing.T) {
	yTrue := []string{"pos", "pos", "pos", "neg", "neg"}
	yPred := []string{"pos", "pos", "neg", "neg", "neg"}

	reports, err := ClassificationReport(yTrue, yPred)
	if err != nil {
		t.Fatalf("ClassificationReport failed: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("expected 2 class reports, got %d", len(reports))
	}

	// Sorted by label: neg first.
	neg := reports[0]
	if neg.Label != "neg" {
		t.Fatalf("first report should be neg, got %s", neg.Label)
	}
	// neg: tp=2, fp=1, fn=0
	if math.Abs(neg.Precision-2.0/3.0) > tol {
		t.Errorf("neg precision = %v, want 2/3", neg.Precision)
	}
	if math.Abs(neg.Recall-1.0) > tol {
		t.Errorf("neg recall = %v, want 1.0", neg.Recall)
	}
	if neg.Support != 2 {
		t.Errorf("neg support = %d, want 2", neg.Support)
	}

	pos := reports[1]
	// pos: tp=2, fp=0, fn=1
	if math.Abs(pos.Precision-1.0) > tol {
		t.Errorf("pos precision = %v, want 1.0", pos.Precision)
	}
	if math.Abs(pos.Recall-2.0/3.0) > tol {
		t.Errorf("pos recall = %v, want 2/3", pos.Recall)
	}
}

func TestPrecisionRecallF1Weighted(t *testing.T) {
	yTrue := []string{"a", "a", "a", "b"}
	yPred := []string{"a", "a", "a", "b"}

	p, r, f1, err := PrecisionRecallF1Weighted(yTrue, yPred)
	if err != nil {
		t.Fatalf("PrecisionRecallF1Weighted failed: %v", err)
	}
	if math.Abs(p-1.0) > tol || math.Abs(r-1.0) > tol || math.Abs(f1-1.0) > tol {
		t.Errorf("perfect prediction should give 1.0 everywhere, got p=%v r=%v f1=%v", p, r, f1)
	}
}

func TestClassificationReportUnseenPredictedClass(t *testing.T) {
	yTrue := []string{"a", "a"}
	yPred := []string{"a", "c"}

	reports, err := ClassificationReport(yTrue, yPred)
	if err != nil {
		t.Fatalf("ClassificationReport failed: %v", err)
	}
	// Class c appears only in predictions: recall undefined, reported as 0.
	for _, rep := range reports {
		if rep.Label == "c" {
			if rep.Recall != 0 || rep.Support != 0 {
				t.Errorf("class c: recall=%v support=%d, want 0/0", rep.Recall, rep.Support)
			}
		}
	}
}
