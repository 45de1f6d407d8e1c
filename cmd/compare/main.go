// Command compare trains three classifiers on the same split, keeps the
// one with the best weighted F1, and records the full comparison.
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
	logger := log.New("compare", cfg.LogLevel)

	os.Exit(envelope.Run(os.Stdout, logger, func() (interface{}, error) {
		if len(os.Args) < 2 {
			return nil, errors.NewValueError("compare", "usage: compare <data.csv>")
		}

		texts, labels, err := dataset.LoadCSV(os.Args[1])
		if err != nil {
			return nil, err
		}
		logger.Info().Int("reviews", len(texts)).Msg("training data loaded")

		comparison, p, err := sentiment.Compare(texts, labels)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("best_model", comparison.BestModel).Msg("comparison complete")

		if err := p.SaveArtifacts(cfg.ModelDir); err != nil {
			return nil, err
		}
		if _, err := sentiment.WriteComparison(comparison, cfg.ModelDir); err != nil {
			return nil, err
		}

		var best sentiment.ModelResult
		allResults := make([]map[string]interface{}, len(comparison.Results))
		for i, r := range comparison.Results {
			if r.Name == comparison.BestModel {
				best = r
			}
			allResults[i] = map[string]interface{}{
				"name":     r.Name,
				"accuracy": r.Accuracy,
				"f1":       r.F1,
			}
		}

		return map[string]interface{}{
			"best_model":  comparison.BestModel,
			"accuracy":    best.Accuracy,
			"f1_score":    best.F1,
			"cv_mean":     best.CVMean,
			"model_path":  sentiment.ModelPath(cfg.ModelDir),
			"all_results": allResults,
		}, nil
	}))
}
