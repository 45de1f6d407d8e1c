package sentiment

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
)

func reviewCorpus() (texts, labels []string) {
	positive := []string{
		"great product love the quality",
		"love this excellent product",
		"wonderful quality highly recommend",
		"great quality recommend this product",
		"excellent and wonderful love it",
		"recommend it great love it",
		"wonderful product excellent quality",
		"love it great and wonderful",
		"excellent quality recommend it",
		"great product wonderful build",
		"love the quality product recommend",
		"excellent great recommend it",
		"wonderful love the quality",
		"great excellent product build",
		"recommend wonderful love this product",
	}
	negative := []string{
		"terrible product broken on arrival",
		"awful quality total waste",
		"broken and terrible waste of money",
		"poor quality awful product",
		"disappointed terrible waste",
		"awful broken product refund",
		"poor terrible quality refund",
		"disappointed awful waste of money",
		"broken poor quality refund",
		"terrible awful disappointed",
		"waste of money poor product",
		"refund this broken terrible product",
		"awful disappointed poor quality",
		"terrible broken refund money",
		"disappointed waste poor terrible",
	}

	for _, text := range positive {
		texts = append(texts, text)
		labels = append(labels, "positive")
	}
	for _, text := range negative {
		texts = append(texts, text)
		labels = append(labels, "negative")
	}
	return texts, labels
}

func TestPipelineTrainAndPredict(t *testing.T) {
	texts, labels := reviewCorpus()

	p := NewPipeline()
	report, err := p.Train(texts, labels)
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	if report.Accuracy < 0 || report.Accuracy > 1 {
		t.Errorf("accuracy = %v, want in [0, 1]", report.Accuracy)
	}
	if report.CVMean < 0 || report.CVMean > 1 {
		t.Errorf("cv_mean = %v, want in [0, 1]", report.CVMean)
	}

	pred, err := p.Predict("great wonderful product love it")
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if pred.Sentiment != "positive" {
		t.Errorf("sentiment = %q, want positive", pred.Sentiment)
	}
	if pred.Confidence <= 0 || pred.Confidence > 1 {
		t.Errorf("confidence = %v, want in (0, 1]", pred.Confidence)
	}
	if len(pred.AllScores) != 2 {
		t.Errorf("all_scores has %d entries, want 2", len(pred.AllScores))
	}
	sum := 0.0
	for _, s := range pred.AllScores {
		sum += s
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("all_scores sum to %v, want 1", sum)
	}

	negPred, err := p.Predict("terrible broken waste refund")
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if negPred.Sentiment != "negative" {
		t.Errorf("sentiment = %q, want negative", negPred.Sentiment)
	}
}

func TestPipelineBatchMatchesSingle(t *testing.T) {
	texts, labels := reviewCorpus()

	p := NewPipeline()
	if _, err := p.Train(texts, labels); err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	inputs := []string{
		"love this excellent quality",
		"awful broken waste",
	}
	batch, err := p.PredictBatch(inputs)
	if err != nil {
		t.Fatalf("PredictBatch failed: %v", err)
	}
	if len(batch) != 2 {
		t.Fatalf("got %d results, want 2", len(batch))
	}

	for i, input := range inputs {
		single, err := p.Predict(input)
		if err != nil {
			t.Fatalf("Predict failed: %v", err)
		}
		if single.Sentiment != batch[i].Sentiment {
			t.Errorf("input %d: single = %q, batch = %q", i, single.Sentiment, batch[i].Sentiment)
		}
		if math.Abs(single.Confidence-batch[i].Confidence) > 1e-12 {
			t.Errorf("input %d: confidence differs: %v vs %v", i, single.Confidence, batch[i].Confidence)
		}
	}
}

func TestPipelineSaveLoadArtifacts(t *testing.T) {
	texts, labels := reviewCorpus()

	p := NewPipeline()
	if _, err := p.Train(texts, labels); err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	dir := t.TempDir()
	if err := p.SaveArtifacts(dir); err != nil {
		t.Fatalf("SaveArtifacts failed: %v", err)
	}
	for _, name := range []string{ModelFile, VectorizerFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("artifact %s not written: %v", name, err)
		}
	}

	loaded, err := LoadArtifacts(dir)
	if err != nil {
		t.Fatalf("LoadArtifacts failed: %v", err)
	}

	input := "love this wonderful product"
	want, err := p.Predict(input)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	got, err := loaded.Predict(input)
	if err != nil {
		t.Fatalf("Predict on loaded pipeline failed: %v", err)
	}
	if got.Sentiment != want.Sentiment {
		t.Errorf("loaded sentiment = %q, want %q", got.Sentiment, want.Sentiment)
	}
	if math.Abs(got.Confidence-want.Confidence) > 1e-9 {
		t.Errorf("loaded confidence = %v, want %v", got.Confidence, want.Confidence)
	}
}

func TestLoadArtifactsMissing(t *testing.T) {
	if _, err := LoadArtifacts(t.TempDir()); err == nil {
		t.Error("LoadArtifacts should fail when artifacts are missing")
	}
}

func TestPipelineUnfitted(t *testing.T) {
	p := NewPipeline()
	if _, err := p.Predict("anything"); err == nil {
		t.Error("Predict should fail before training")
	}
	if err := p.SaveArtifacts(t.TempDir()); err == nil {
		t.Error("SaveArtifacts should fail before training")
	}
}

func TestPipelineTrainValidation(t *testing.T) {
	p := NewPipeline()
	if _, err := p.Train(nil, nil); err == nil {
		t.Error("empty training data should fail")
	}
	if _, err := p.Train([]string{"a", "b"}, []string{"positive"}); err == nil {
		t.Error("mismatched lengths should fail")
	}
	if _, err := p.Train([]string{"a", "b"}, []string{"positive", "positive"}); err == nil {
		t.Error("single class should fail")
	}
}

func TestCompare(t *testing.T) {
	texts, labels := reviewCorpus()

	comparison, p, err := Compare(texts, labels)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if len(comparison.Results) != 3 {
		t.Fatalf("got %d results, want 3", len(comparison.Results))
	}

	bestF1 := -1.0
	bestName := ""
	for _, r := range comparison.Results {
		if r.F1 > bestF1 {
			bestF1 = r.F1
			bestName = r.Name
		}
	}
	if comparison.BestModel != bestName {
		t.Errorf("best_model = %q, want %q (highest F1)", comparison.BestModel, bestName)
	}

	pred, err := p.Predict("great wonderful product love it")
	if err != nil {
		t.Fatalf("winner pipeline Predict failed: %v", err)
	}
	if pred.Sentiment != "positive" {
		t.Errorf("sentiment = %q, want positive", pred.Sentiment)
	}
}

func TestWriteComparison(t *testing.T) {
	c := &Comparison{
		BestModel: "Naive Bayes",
		Results: []ModelResult{
			{Name: "Naive Bayes", Accuracy: 0.9, F1: 0.9},
		},
	}

	dir := t.TempDir()
	path, err := WriteComparison(c, dir)
	if err != nil {
		t.Fatalf("WriteComparison failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading comparison file failed: %v", err)
	}
	var decoded Comparison
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("comparison file is not valid JSON: %v", err)
	}
	if decoded.BestModel != "Naive Bayes" {
		t.Errorf("best_model = %q, want Naive Bayes", decoded.BestModel)
	}
}
