// Package preprocessing provides text feature extraction for the sentiment
// pipeline.
package preprocessing

import (
	"bytes"
	"encoding/gob"
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"gonum.org/v1/gonum/mat"

	"github.com/mlbridge/mlbridge/core/model"
	"github.com/mlbridge/mlbridge/core/parallel"
	"github.com/mlbridge/mlbridge/pkg/errors"
)

// parallelThreshold is the batch size below which Transform stays sequential.
const parallelThreshold = 64

// TfidfVectorizer converts documents into TF-IDF weighted feature vectors.
// It mirrors the common vectorizer contract: Fit learns the vocabulary and
// inverse document frequencies, Transform produces l2-normalized rows, and
// terms unseen during fitting contribute zeros.
type TfidfVectorizer struct {
	state *model.StateManager

	// Hyperparameters
	maxFeatures int
	ngramMin    int
	ngramMax    int
	minDF       int
	stopWords   bool
	lowercase   bool

	// Fitted parameters - public for gob encoding
	Vocabulary map[string]int
	IDF        []float64
	NDocs      int
}

// TfidfOption is a functional option for TfidfVectorizer.
type TfidfOption func(*TfidfVectorizer)

// WithMaxFeatures caps the vocabulary to the most frequent terms.
// Zero means unlimited.
func WithMaxFeatures(n int) TfidfOption {
	return func(v *TfidfVectorizer) {
		v.maxFeatures = n
	}
}

// WithNgramRange sets the inclusive n-gram range, e.g. (1, 2) for unigrams
// and bigrams.
func WithNgramRange(min, max int) TfidfOption {
	return func(v *TfidfVectorizer) {
		v.ngramMin = min
		v.ngramMax = max
	}
}

// WithMinDF drops terms that appear in fewer than n documents.
func WithMinDF(n int) TfidfOption {
	return func(v *TfidfVectorizer) {
		v.minDF = n
	}
}

// WithStopWords toggles english stop word removal.
func WithStopWords(enabled bool) TfidfOption {
	return func(v *TfidfVectorizer) {
		v.stopWords = enabled
	}
}

// NewTfidfVectorizer creates a TfidfVectorizer with the given options.
// Defaults: unigrams only, min_df 1, no feature cap, stop words enabled,
// lowercasing enabled.
func NewTfidfVectorizer(opts ...TfidfOption) *TfidfVectorizer {
	v := &TfidfVectorizer{
		state:     model.NewStateManager(),
		ngramMin:  1,
		ngramMax:  1,
		minDF:     1,
		stopWords: true,
		lowercase: true,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// IsFitted returns whether the vectorizer has been fitted.
func (v *TfidfVectorizer) IsFitted() bool {
	return v.state.IsFitted()
}

// NFeatures returns the vocabulary size.
func (v *TfidfVectorizer) NFeatures() int {
	return len(v.Vocabulary)
}

// tokenize splits a document into word tokens. Tokens must be at least two
// characters long, matching the usual vectorizer token pattern.
func (v *TfidfVectorizer) tokenize(doc string) []string {
	if v.lowercase {
		doc = strings.ToLower(doc)
	}

	words := strings.FieldsFunc(doc, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := words[:0]
	for _, w := range words {
		if utf8.RuneCountInString(w) < 2 {
			continue
		}
		if v.stopWords && englishStopWords[w] {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

// terms produces the n-gram terms of a document within the configured range.
func (v *TfidfVectorizer) terms(doc string) []string {
	tokens := v.tokenize(doc)

	var out []string
	for n := v.ngramMin; n <= v.ngramMax; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}

// Fit learns the vocabulary and inverse document frequencies from docs.
func (v *TfidfVectorizer) Fit(docs []string) error {
	if len(docs) == 0 {
		return errors.NewModelError("TfidfVectorizer.Fit", "empty corpus", errors.ErrEmptyData)
	}
	if v.ngramMin < 1 || v.ngramMax < v.ngramMin {
		return errors.NewValidationError("ngram_range", "must satisfy 1 <= min <= max")
	}

	docFreq := make(map[string]int)
	corpusFreq := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, term := range v.terms(doc) {
			corpusFreq[term]++
			if !seen[term] {
				seen[term] = true
				docFreq[term]++
			}
		}
	}

	selected := make([]string, 0, len(docFreq))
	for term, df := range docFreq {
		if df >= v.minDF {
			selected = append(selected, term)
		}
	}
	if len(selected) == 0 {
		return errors.NewModelError("TfidfVectorizer.Fit",
			"no terms survive min_df pruning", nil)
	}

	if v.maxFeatures > 0 && len(selected) > v.maxFeatures {
		// Keep the most frequent terms; break ties alphabetically so the
		// vocabulary is deterministic.
		sort.Slice(selected, func(i, j int) bool {
			if corpusFreq[selected[i]] != corpusFreq[selected[j]] {
				return corpusFreq[selected[i]] > corpusFreq[selected[j]]
			}
			return selected[i] < selected[j]
		})
		selected = selected[:v.maxFeatures]
	}
	sort.Strings(selected)

	v.Vocabulary = make(map[string]int, len(selected))
	v.IDF = make([]float64, len(selected))
	v.NDocs = len(docs)
	for i, term := range selected {
		v.Vocabulary[term] = i
		// Smoothed idf: ln((1+n)/(1+df)) + 1
		v.IDF[i] = math.Log(float64(1+len(docs))/float64(1+docFreq[term])) + 1
	}

	v.state.SetDimensions(len(selected), len(docs))
	v.state.SetFitted()
	return nil
}

// Transform converts docs into a (len(docs) x NFeatures) TF-IDF matrix with
// l2-normalized rows.
func (v *TfidfVectorizer) Transform(docs []string) (*mat.Dense, error) {
	if err := v.state.RequireFitted("TfidfVectorizer", "Transform"); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, errors.NewModelError("TfidfVectorizer.Transform", "empty input", errors.ErrEmptyData)
	}

	nFeatures := len(v.Vocabulary)
	result := mat.NewDense(len(docs), nFeatures, nil)

	// Rows are disjoint, so workers write without synchronization.
	parallel.ParallelizeWithThreshold(len(docs), parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			v.transformRow(docs[i], result, i)
		}
	})

	return result, nil
}

func (v *TfidfVectorizer) transformRow(doc string, result *mat.Dense, row int) {
	counts := make(map[int]float64)
	for _, term := range v.terms(doc) {
		if j, ok := v.Vocabulary[term]; ok {
			counts[j]++
		}
	}

	var norm float64
	for j, tf := range counts {
		w := tf * v.IDF[j]
		counts[j] = w
		norm += w * w
	}
	if norm == 0 {
		return
	}
	norm = math.Sqrt(norm)

	for j, w := range counts {
		result.Set(row, j, w/norm)
	}
}

// FitTransform fits the vectorizer and transforms docs in one call.
func (v *TfidfVectorizer) FitTransform(docs []string) (*mat.Dense, error) {
	if err := v.Fit(docs); err != nil {
		return nil, err
	}
	return v.Transform(docs)
}

// tfidfGobState is the serialized form of a fitted vectorizer.
type tfidfGobState struct {
	MaxFeatures int
	NgramMin    int
	NgramMax    int
	MinDF       int
	StopWords   bool
	Lowercase   bool
	Vocabulary  map[string]int
	IDF         []float64
	NDocs       int
	Fitted      bool
}

// GobEncode implements gob.GobEncoder so fitted vectorizers survive the
// artifact round trip.
func (v *TfidfVectorizer) GobEncode() ([]byte, error) {
	state := tfidfGobState{
		MaxFeatures: v.maxFeatures,
		NgramMin:    v.ngramMin,
		NgramMax:    v.ngramMax,
		MinDF:       v.minDF,
		StopWords:   v.stopWords,
		Lowercase:   v.lowercase,
		Vocabulary:  v.Vocabulary,
		IDF:         v.IDF,
		NDocs:       v.NDocs,
		Fitted:      v.state.IsFitted(),
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(state); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder.
func (v *TfidfVectorizer) GobDecode(data []byte) error {
	var state tfidfGobState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); err != nil {
		return err
	}

	v.state = model.NewStateManager()
	v.maxFeatures = state.MaxFeatures
	v.ngramMin = state.NgramMin
	v.ngramMax = state.NgramMax
	v.minDF = state.MinDF
	v.stopWords = state.StopWords
	v.lowercase = state.Lowercase
	v.Vocabulary = state.Vocabulary
	v.IDF = state.IDF
	v.NDocs = state.NDocs
	if state.Fitted {
		v.state.SetDimensions(len(state.Vocabulary), state.NDocs)
		v.state.SetFitted()
	}
	return nil
}
