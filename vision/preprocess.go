// Package vision provides image classification and face detection by
// delegating inference to ONNX Runtime and the pigo cascade engine. The
// package owns the preprocessing and the JSON-friendly result shapes.
package vision

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"

	"github.com/mlbridge/mlbridge/pkg/errors"
)

// Model input geometry and ImageNet normalization constants.
const InputSize = 224

var (
	imagenetMean = [3]float32{0.485, 0.456, 0.406}
	imagenetStd  = [3]float32{0.229, 0.224, 0.225}
)

// LoadImage decodes a JPEG or PNG file.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open image")
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.NewValidationError("image", "failed to decode image: "+err.Error())
	}
	return img, nil
}

// Preprocess resizes an image to the model input size with bilinear
// interpolation, scales pixels to [0, 1], applies ImageNet mean/std
// normalization, and lays the result out channels-first. The returned slice
// has length 3*InputSize*InputSize and is ready to use as a batch of one.
func Preprocess(img image.Image) []float32 {
	resized := image.NewRGBA(image.Rect(0, 0, InputSize, InputSize))
	draw.BiLinear.Scale(resized, resized.Bounds(), img, img.Bounds(), draw.Src, nil)

	data := make([]float32, 3*InputSize*InputSize)
	plane := InputSize * InputSize
	for y := 0; y < InputSize; y++ {
		for x := 0; x < InputSize; x++ {
			r, g, b, _ := resized.At(x, y).RGBA()
			// RGBA returns 16-bit channels.
			rgb := [3]float32{
				float32(r>>8) / 255.0,
				float32(g>>8) / 255.0,
				float32(b>>8) / 255.0,
			}
			for c := 0; c < 3; c++ {
				data[c*plane+y*InputSize+x] = (rgb[c] - imagenetMean[c]) / imagenetStd[c]
			}
		}
	}
	return data
}

// PreprocessFile loads and preprocesses an image file in one step.
func PreprocessFile(path string) ([]float32, error) {
	img, err := LoadImage(path)
	if err != nil {
		return nil, err
	}
	return Preprocess(img), nil
}
