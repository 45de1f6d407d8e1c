// Command detect finds faces in an image with a pigo cascade. Unlike the
// other commands it reports failures as {"success": false, "error": ...},
// the contract the detection callers already parse.
//
// Usage: detect <cascade.bin> <image> [scale_factor] [quality_threshold]
package main

import (
	"os"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/mlbridge/mlbridge/internal/config"
	"github.com/mlbridge/mlbridge/pkg/errors"
	"github.com/mlbridge/mlbridge/pkg/log"
	"github.com/mlbridge/mlbridge/vision"
)

func main() {
	cfg := config.Load()
	logger := log.New("detect", cfg.LogLevel)

	result, err := run()
	if err != nil {
		logger.Error().Err(err).Msg("detection failed")
		fail(err)
	}

	data, _ := json.Marshal(result)
	os.Stdout.Write(append(data, '\n'))
}

func run() (result *vision.DetectResult, err error) {
	defer errors.Recover(&err, "detect")

	if len(os.Args) < 3 {
		return nil, errors.NewValueError("detect",
			"usage: detect <cascade.bin> <image> [scale_factor] [quality_threshold]")
	}

	opts := []vision.DetectorOption{}
	if len(os.Args) > 3 {
		scale, perr := strconv.ParseFloat(os.Args[3], 64)
		if perr != nil || scale <= 1 {
			return nil, errors.NewValueError("detect", "scale_factor must be a number > 1")
		}
		opts = append(opts, vision.WithScaleFactor(scale))
	}
	if len(os.Args) > 4 {
		quality, perr := strconv.ParseFloat(os.Args[4], 32)
		if perr != nil || quality < 0 {
			return nil, errors.NewValueError("detect", "quality_threshold must be a non-negative number")
		}
		opts = append(opts, vision.WithQualityThreshold(float32(quality)))
	}

	detector, err := vision.NewDetector(os.Args[1], opts...)
	if err != nil {
		return nil, err
	}
	return detector.DetectFile(os.Args[2])
}

func fail(err error) {
	data, _ := json.Marshal(map[string]interface{}{
		"success": false,
		"error":   err.Error(),
	})
	os.Stdout.Write(append(data, '\n'))
	os.Exit(1)
}
