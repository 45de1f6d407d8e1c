package vision

import (
	"math"
	"os"
	"sort"

	"github.com/goccy/go-json"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/mlbridge/mlbridge/pkg/errors"
)

// DefaultTopK is the number of predictions returned when the caller does
// not ask for a specific count.
const DefaultTopK = 5

// ClassPrediction is one entry of a classification result.
type ClassPrediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Classifier wraps an ONNX Runtime session for an ImageNet-style
// classification model together with its label list.
type Classifier struct {
	session *ort.DynamicAdvancedSession
	labels  []string
}

// NewClassifier loads the ONNX model and its JSON label array. libraryPath
// points at the ONNX Runtime shared library; empty means the platform
// default. Callers must Close the classifier when done.
func NewClassifier(modelPath, labelsPath, libraryPath string) (*Classifier, error) {
	labels, err := LoadLabels(labelsPath)
	if err != nil {
		return nil, err
	}

	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, errors.NewModelError("NewClassifier", "failed to initialize ONNX runtime", err)
		}
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, errors.NewModelError("NewClassifier", "failed to inspect ONNX model", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, errors.NewModelError("NewClassifier", "model has no inputs or outputs", nil)
	}

	session, err := ort.NewDynamicAdvancedSession(modelPath,
		[]string{inputs[0].Name}, []string{outputs[0].Name}, nil)
	if err != nil {
		return nil, errors.NewModelError("NewClassifier", "failed to create ONNX session", err)
	}

	return &Classifier{session: session, labels: labels}, nil
}

// Close releases the underlying ONNX session.
func (c *Classifier) Close() error {
	if c.session != nil {
		return c.session.Destroy()
	}
	return nil
}

// Classify runs the model on one image file and returns the top-K labels
// by softmax probability.
func (c *Classifier) Classify(imagePath string, topK int) ([]ClassPrediction, error) {
	if topK < 1 {
		topK = DefaultTopK
	}

	data, err := PreprocessFile(imagePath)
	if err != nil {
		return nil, err
	}

	input, err := ort.NewTensor(ort.NewShape(1, 3, InputSize, InputSize), data)
	if err != nil {
		return nil, errors.NewModelError("Classify", "failed to build input tensor", err)
	}
	defer input.Destroy()

	outputs := []ort.Value{nil}
	if err := c.session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, errors.NewModelError("Classify", "inference failed", err)
	}
	defer outputs[0].Destroy()

	tensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, errors.NewModelError("Classify", "unexpected output tensor type", nil)
	}

	probabilities := Softmax(tensor.GetData())
	return TopK(probabilities, c.labels, topK), nil
}

// LoadLabels reads a JSON array of class label strings.
func LoadLabels(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read labels file")
	}
	var labels []string
	if err := json.Unmarshal(data, &labels); err != nil {
		return nil, errors.NewValidationError("labels", "labels file must be a JSON string array")
	}
	if len(labels) == 0 {
		return nil, errors.NewValidationError("labels", "labels file is empty")
	}
	return labels, nil
}

// Softmax converts raw logits into probabilities.
func Softmax(logits []float32) []float64 {
	if len(logits) == 0 {
		return nil
	}

	maxL := logits[0]
	for _, v := range logits[1:] {
		if v > maxL {
			maxL = v
		}
	}

	probs := make([]float64, len(logits))
	var total float64
	for i, v := range logits {
		probs[i] = math.Exp(float64(v - maxL))
		total += probs[i]
	}
	for i := range probs {
		probs[i] /= total
	}
	return probs
}

// TopK returns the k most probable labeled predictions in descending
// order. Indices past the end of the label list are skipped, matching how
// a short labels file behaves.
func TopK(probabilities []float64, labels []string, k int) []ClassPrediction {
	indices := make([]int, len(probabilities))
	for i := range indices {
		indices[i] = i
	}
	sort.Slice(indices, func(a, b int) bool {
		return probabilities[indices[a]] > probabilities[indices[b]]
	})

	results := make([]ClassPrediction, 0, k)
	for _, idx := range indices {
		if len(results) == k {
			break
		}
		if idx >= len(labels) {
			continue
		}
		results = append(results, ClassPrediction{
			Label:      labels[idx],
			Confidence: probabilities[idx],
		})
	}
	return results
}
