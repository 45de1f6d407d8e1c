package preprocessing

import (
	"bytes"
	"encoding/gob"
	"math"
	"testing"
)

func TestTfidfFitBuildsVocabulary(t *testing.T) {
	docs := []string{
		"great product works great",
		"terrible product",
		"great service",
	}

	v := NewTfidfVectorizer()
	if err := v.Fit(docs); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if !v.IsFitted() {
		t.Error("vectorizer should be fitted after Fit")
	}
	for _, term := range []string{"great", "product", "terrible", "works", "service"} {
		if _, ok := v.Vocabulary[term]; !ok {
			t.Errorf("vocabulary missing term %q", term)
		}
	}
	if len(v.IDF) != len(v.Vocabulary) {
		t.Errorf("IDF length %d != vocabulary size %d", len(v.IDF), len(v.Vocabulary))
	}
}

func TestTfidfStopWordsAndShortTokens(t *testing.T) {
	docs := []string{"this is a great product", "it is the best product"}

	v := NewTfidfVectorizer()
	if err := v.Fit(docs); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	for _, stop := range []string{"this", "is", "the", "it"} {
		if _, ok := v.Vocabulary[stop]; ok {
			t.Errorf("stop word %q should not be in vocabulary", stop)
		}
	}
	// Single-character token "a" is dropped by the token pattern.
	if _, ok := v.Vocabulary["a"]; ok {
		t.Error("single-character tokens should be dropped")
	}
}

func TestTfidfTokenLengthCountsRunes(t *testing.T) {
	docs := []string{"é café bueno", "é café malo"}

	v := NewTfidfVectorizer()
	if err := v.Fit(docs); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	// "é" is one letter even though it is two bytes.
	if _, ok := v.Vocabulary["é"]; ok {
		t.Error("single-rune tokens should be dropped")
	}
	if _, ok := v.Vocabulary["café"]; !ok {
		t.Error("multi-rune token should be kept")
	}
}

func TestTfidfNgramRange(t *testing.T) {
	docs := []string{"waste money", "waste money badly"}

	v := NewTfidfVectorizer(WithNgramRange(1, 2))
	if err := v.Fit(docs); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if _, ok := v.Vocabulary["waste money"]; !ok {
		t.Error("bigram 'waste money' should be in vocabulary")
	}
	if _, ok := v.Vocabulary["waste"]; !ok {
		t.Error("unigram 'waste' should be in vocabulary")
	}
}

func TestTfidfMinDF(t *testing.T) {
	docs := []string{
		"common rare1",
		"common rare2",
		"common rare3",
	}

	v := NewTfidfVectorizer(WithMinDF(2))
	if err := v.Fit(docs); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if len(v.Vocabulary) != 1 {
		t.Errorf("vocabulary size = %d, want 1 (only 'common')", len(v.Vocabulary))
	}
	if _, ok := v.Vocabulary["common"]; !ok {
		t.Error("'common' should survive min_df pruning")
	}
}

func TestTfidfMaxFeatures(t *testing.T) {
	docs := []string{
		"alpha alpha alpha beta beta gamma",
		"alpha beta gamma delta",
	}

	v := NewTfidfVectorizer(WithMaxFeatures(2))
	if err := v.Fit(docs); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if len(v.Vocabulary) != 2 {
		t.Fatalf("vocabulary size = %d, want 2", len(v.Vocabulary))
	}
	// alpha (freq 4) and beta (freq 3) are the most frequent.
	if _, ok := v.Vocabulary["alpha"]; !ok {
		t.Error("'alpha' should be kept by max_features")
	}
	if _, ok := v.Vocabulary["beta"]; !ok {
		t.Error("'beta' should be kept by max_features")
	}
}

func TestTfidfTransformRowsAreL2Normalized(t *testing.T) {
	docs := []string{
		"great amazing wonderful",
		"terrible awful horrible",
		"great terrible mixed",
	}

	v := NewTfidfVectorizer()
	X, err := v.FitTransform(docs)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	rows, cols := X.Dims()
	if rows != 3 || cols != len(v.Vocabulary) {
		t.Fatalf("shape = (%d, %d), want (3, %d)", rows, cols, len(v.Vocabulary))
	}

	for i := 0; i < rows; i++ {
		var norm float64
		for j := 0; j < cols; j++ {
			norm += X.At(i, j) * X.At(i, j)
		}
		if math.Abs(math.Sqrt(norm)-1.0) > 1e-10 {
			t.Errorf("row %d norm = %v, want 1.0", i, math.Sqrt(norm))
		}
	}
}

func TestTfidfTransformUnseenTermsAreZero(t *testing.T) {
	v := NewTfidfVectorizer()
	if err := v.Fit([]string{"known words only", "known words again"}); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	X, err := v.Transform([]string{"completely unseen vocabulary"})
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	_, cols := X.Dims()
	for j := 0; j < cols; j++ {
		if X.At(0, j) != 0 {
			t.Errorf("column %d = %v, want 0 for fully unseen document", j, X.At(0, j))
		}
	}
}

func TestTfidfTransformBeforeFit(t *testing.T) {
	v := NewTfidfVectorizer()
	if _, err := v.Transform([]string{"anything"}); err == nil {
		t.Error("Transform should fail before Fit")
	}
}

func TestTfidfGobRoundTrip(t *testing.T) {
	docs := []string{"great amazing product", "terrible awful product"}

	v := NewTfidfVectorizer(WithNgramRange(1, 2), WithMaxFeatures(100))
	original, err := v.FitTransform(docs)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		t.Fatalf("gob encode failed: %v", err)
	}

	restored := &TfidfVectorizer{}
	if err := gob.NewDecoder(&buf).Decode(restored); err != nil {
		t.Fatalf("gob decode failed: %v", err)
	}

	if !restored.IsFitted() {
		t.Fatal("restored vectorizer should be fitted")
	}

	X, err := restored.Transform(docs)
	if err != nil {
		t.Fatalf("Transform on restored vectorizer failed: %v", err)
	}

	rows, cols := original.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if math.Abs(X.At(i, j)-original.At(i, j)) > 1e-12 {
				t.Fatalf("restored transform differs at (%d, %d)", i, j)
			}
		}
	}
}
