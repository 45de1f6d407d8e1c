package vision

import (
	"image"
	"os"

	pigo "github.com/esimov/pigo/core"

	"github.com/mlbridge/mlbridge/pkg/errors"
)

// DetectMethod names the detection backend in every result.
const DetectMethod = "Pigo Cascade"

// The cascade has no calibrated score, so detections carry a fixed
// confidence the way Haar-based detectors conventionally report.
const cascadeConfidence = 0.85

// BBox is a detection rectangle in pixel coordinates.
type BBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Detection is one detected face.
type Detection struct {
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`
	BBox       BBox    `json:"bbox"`
}

// DetectResult is the full JSON payload of a detection run.
type DetectResult struct {
	Success    bool        `json:"success"`
	Detections []Detection `json:"detections"`
	Count      int         `json:"count"`
	ImagePath  string      `json:"image_path"`
	Method     string      `json:"method"`
}

// Detector runs a pigo cascade over images.
type Detector struct {
	classifier *pigo.Pigo

	shiftFactor      float64
	scaleFactor      float64
	minSize          int
	maxSize          int
	qualityThreshold float32
	overlapThreshold float64
}

// DetectorOption is a functional option for Detector.
type DetectorOption func(*Detector)

// WithScaleFactor sets how much the detection window grows between scales.
func WithScaleFactor(f float64) DetectorOption {
	return func(d *Detector) {
		d.scaleFactor = f
	}
}

// WithShiftFactor sets the detection window stride as a fraction of size.
func WithShiftFactor(f float64) DetectorOption {
	return func(d *Detector) {
		d.shiftFactor = f
	}
}

// WithMinSize sets the smallest detection window in pixels.
func WithMinSize(px int) DetectorOption {
	return func(d *Detector) {
		d.minSize = px
	}
}

// WithQualityThreshold sets the minimum cascade quality a detection must
// reach. Higher values mean fewer false positives.
func WithQualityThreshold(q float32) DetectorOption {
	return func(d *Detector) {
		d.qualityThreshold = q
	}
}

// NewDetector reads and unpacks a binary pigo cascade file.
// Defaults: scale factor 1.1, shift factor 0.1, min size 30px, quality 5.0.
func NewDetector(cascadePath string, opts ...DetectorOption) (*Detector, error) {
	data, err := os.ReadFile(cascadePath)
	if err != nil {
		return nil, errors.NewModelError("NewDetector",
			"cascade file not found at "+cascadePath, err)
	}

	classifier, err := pigo.NewPigo().Unpack(data)
	if err != nil {
		return nil, errors.NewModelError("NewDetector", "failed to unpack cascade", err)
	}

	d := &Detector{
		classifier:       classifier,
		shiftFactor:      0.1,
		scaleFactor:      1.1,
		minSize:          30,
		qualityThreshold: 5.0,
		overlapThreshold: 0.2,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Detect finds faces in a decoded image.
func (d *Detector) Detect(img image.Image) []Detection {
	bounds := img.Bounds()
	cols, rows := bounds.Dx(), bounds.Dy()

	maxSize := d.maxSize
	if maxSize == 0 {
		maxSize = cols
		if rows < cols {
			maxSize = rows
		}
	}

	params := pigo.CascadeParams{
		MinSize:     d.minSize,
		MaxSize:     maxSize,
		ShiftFactor: d.shiftFactor,
		ScaleFactor: d.scaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pigo.RgbToGrayscale(img),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	found := d.classifier.RunCascade(params, 0.0)
	found = d.classifier.ClusterDetections(found, d.overlapThreshold)

	detections := make([]Detection, 0, len(found))
	for _, det := range found {
		if det.Q < d.qualityThreshold {
			continue
		}
		detections = append(detections, toDetection(det))
	}
	return detections
}

// DetectFile loads an image file and runs detection, returning the full
// result payload.
func (d *Detector) DetectFile(imagePath string) (*DetectResult, error) {
	img, err := LoadImage(imagePath)
	if err != nil {
		return nil, err
	}

	detections := d.Detect(img)
	return &DetectResult{
		Success:    true,
		Detections: detections,
		Count:      len(detections),
		ImagePath:  imagePath,
		Method:     DetectMethod,
	}, nil
}

// toDetection converts pigo's center/scale form into a corner rectangle.
func toDetection(det pigo.Detection) Detection {
	return Detection{
		Class:      "face",
		Confidence: cascadeConfidence,
		BBox: BBox{
			X:      det.Col - det.Scale/2,
			Y:      det.Row - det.Scale/2,
			Width:  det.Scale,
			Height: det.Scale,
		},
	}
}
