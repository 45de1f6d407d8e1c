// Command classify labels an image with an ONNX classification model.
//
// Usage: classify <model.onnx> <image> <labels.json> [top_k]
package main

import (
	"os"
	"strconv"

	"github.com/mlbridge/mlbridge/internal/config"
	"github.com/mlbridge/mlbridge/internal/envelope"
	"github.com/mlbridge/mlbridge/pkg/errors"
	"github.com/mlbridge/mlbridge/pkg/log"
	"github.com/mlbridge/mlbridge/vision"
)

func main() {
	cfg := config.Load()
	logger := log.New("classify", cfg.LogLevel)

	os.Exit(envelope.Run(os.Stdout, logger, func() (interface{}, error) {
		if len(os.Args) < 4 {
			return nil, errors.NewValueError("classify",
				"usage: classify <model.onnx> <image> <labels.json> [top_k]")
		}

		topK := vision.DefaultTopK
		if len(os.Args) > 4 {
			k, err := strconv.Atoi(os.Args[4])
			if err != nil || k < 1 {
				return nil, errors.NewValueError("classify", "top_k must be a positive integer")
			}
			topK = k
		}

		classifier, err := vision.NewClassifier(os.Args[1], os.Args[3], cfg.ONNXLibraryPath)
		if err != nil {
			return nil, err
		}
		defer classifier.Close()

		return classifier.Classify(os.Args[2], topK)
	}))
}
