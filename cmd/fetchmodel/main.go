// Command fetchmodel downloads an ONNX model and its labels file into the
// model directory so classify and the worker can run offline afterwards.
//
// Usage: fetchmodel <model_url> <labels_url>
package main

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/mlbridge/mlbridge/internal/config"
	"github.com/mlbridge/mlbridge/internal/envelope"
	"github.com/mlbridge/mlbridge/pkg/errors"
	"github.com/mlbridge/mlbridge/pkg/log"
	"github.com/mlbridge/mlbridge/vision"
)

// A real classification model is never this small; a tiny download almost
// always means an HTML error page.
const minModelBytes = 1024

func main() {
	cfg := config.Load()
	logger := log.New("fetchmodel", cfg.LogLevel)

	os.Exit(envelope.Run(os.Stdout, logger, func() (interface{}, error) {
		if len(os.Args) < 3 {
			return nil, errors.NewValueError("fetchmodel",
				"usage: fetchmodel <model_url> <labels_url>")
		}
		modelURL, labelsURL := os.Args[1], os.Args[2]

		if err := os.MkdirAll(cfg.ModelDir, 0o755); err != nil {
			return nil, errors.Wrap(err, "failed to create model directory")
		}

		client := &http.Client{Timeout: 5 * time.Minute}

		modelPath := filepath.Join(cfg.ModelDir, "model.onnx")
		modelBytes, err := download(client, modelURL, modelPath)
		if err != nil {
			return nil, err
		}
		if modelBytes < minModelBytes {
			return nil, errors.NewValidationError("model",
				"downloaded model is only "+strconv.FormatInt(modelBytes, 10)+" bytes")
		}
		logger.Info().Str("path", modelPath).Int64("bytes", modelBytes).Msg("model downloaded")

		labelsPath := filepath.Join(cfg.ModelDir, "labels.json")
		labelsBytes, err := download(client, labelsURL, labelsPath)
		if err != nil {
			return nil, err
		}
		// Parsing the labels verifies the download is usable.
		labels, err := vision.LoadLabels(labelsPath)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("path", labelsPath).Int64("bytes", labelsBytes).Int("labels", len(labels)).Msg("labels downloaded")

		return map[string]interface{}{
			"model_path":   modelPath,
			"labels_path":  labelsPath,
			"model_bytes":  modelBytes,
			"labels_bytes": labelsBytes,
			"num_labels":   len(labels),
		}, nil
	}))
}

func download(client *http.Client, url, dest string) (int64, error) {
	resp, err := client.Get(url)
	if err != nil {
		return 0, errors.Wrap(err, "download failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, errors.NewValidationError("download",
			url+" returned status "+strconv.Itoa(resp.StatusCode))
	}

	f, err := os.Create(dest)
	if err != nil {
		return 0, errors.Wrap(err, "failed to create destination file")
	}
	defer f.Close()

	n, err := io.Copy(f, resp.Body)
	if err != nil {
		return 0, errors.Wrap(err, "failed to write download")
	}
	return n, nil
}
