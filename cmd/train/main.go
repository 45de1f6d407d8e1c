// Command train fits the TF-IDF + Naive Bayes sentiment pipeline on a
// labeled CSV and writes the model artifacts.
package main

import (
	"os"

	"github.com/mlbridge/mlbridge/dataset"
	"github.com/mlbridge/mlbridge/internal/config"
	"github.com/mlbridge/mlbridge/internal/envelope"
	"github.com/mlbridge/mlbridge/pkg/errors"
	"github.com/mlbridge/mlbridge/pkg/log"
	"github.com/mlbridge/mlbridge/sentiment"
)

func main() {
	cfg := config.Load()
	logger := log.New("train", cfg.LogLevel)

	os.Exit(envelope.Run(os.Stdout, logger, func() (interface{}, error) {
		if len(os.Args) < 2 {
			return nil, errors.NewValueError("train", "usage: train <data.csv>")
		}

		texts, labels, err := dataset.LoadCSV(os.Args[1])
		if err != nil {
			return nil, err
		}
		logger.Info().Int("reviews", len(texts)).Msg("training data loaded")

		p := sentiment.NewPipeline()
		report, err := p.Train(texts, labels)
		if err != nil {
			return nil, err
		}
		logger.Info().
			Float64("accuracy", report.Accuracy).
			Float64("cv_mean", report.CVMean).
			Msg("training complete")

		if err := p.SaveArtifacts(cfg.ModelDir); err != nil {
			return nil, err
		}

		return map[string]interface{}{
			"accuracy":        report.Accuracy,
			"cv_mean":         report.CVMean,
			"cv_std":          report.CVStd,
			"model_path":      sentiment.ModelPath(cfg.ModelDir),
			"vectorizer_path": sentiment.VectorizerPath(cfg.ModelDir),
		}, nil
	}))
}
