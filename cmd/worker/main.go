// Command worker consumes ML tasks from the Redis queue. Run several
// copies for parallel processing; BRPOP keeps them from stepping on each
// other.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mlbridge/mlbridge/internal/config"
	"github.com/mlbridge/mlbridge/pkg/errors"
	"github.com/mlbridge/mlbridge/pkg/log"
	"github.com/mlbridge/mlbridge/queue"
	"github.com/mlbridge/mlbridge/sentiment"
	"github.com/mlbridge/mlbridge/vision"
)

func main() {
	cfg := config.Load()
	logger := log.New("worker", cfg.LogLevel)

	store := queue.NewRedisStore(cfg.RedisAddr, cfg.QueueName, cfg.ResultTTL)
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := store.Ping(ctx); err != nil {
		logger.Error().Err(err).Str("addr", cfg.RedisAddr).Msg("failed to connect to Redis")
		os.Exit(1)
	}
	logger.Info().Str("addr", cfg.RedisAddr).Str("queue", cfg.QueueName).Msg("connected to Redis")

	pipeline, err := sentiment.LoadArtifacts(cfg.ModelDir)
	if err != nil {
		logger.Warn().Err(err).Msg("sentiment model not loaded, sentiment tasks will be simulated")
		pipeline = nil
	} else {
		logger.Info().Msg("sentiment model loaded")
	}

	w := queue.NewWorker(store, logger)
	w.Register("sentiment_analysis", sentimentHandler(pipeline))
	w.Register("image_classification", classifyHandler(cfg.ONNXLibraryPath))

	if err := w.Run(ctx); err != nil && err != context.Canceled {
		logger.Error().Err(err).Msg("worker exited with error")
		os.Exit(1)
	}
}

// sentimentHandler predicts with the trained model, or returns a clearly
// marked simulated answer when no model is on disk.
func sentimentHandler(pipeline *sentiment.Pipeline) queue.Handler {
	return func(ctx context.Context, task *queue.Task) (interface{}, error) {
		text := task.StringField("text")
		if text == "" {
			return nil, errors.NewValidationError("text", "Text field is required")
		}

		if pipeline == nil {
			return map[string]interface{}{
				"text":       text,
				"sentiment":  "positive",
				"confidence": 0.85,
				"note":       "Simulated (model not loaded)",
			}, nil
		}

		pred, err := pipeline.Predict(text)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"text":       pred.Text,
			"sentiment":  pred.Sentiment,
			"confidence": pred.Confidence,
		}, nil
	}
}

// classifyHandler runs ONNX classification when the task carries model,
// image, and labels paths; otherwise it answers with a simulated result.
func classifyHandler(onnxLibraryPath string) queue.Handler {
	return func(ctx context.Context, task *queue.Task) (interface{}, error) {
		modelPath := task.StringField("model_path")
		imagePath := task.StringField("image_path")
		labelsPath := task.StringField("labels_path")

		if modelPath == "" || imagePath == "" || labelsPath == "" {
			return map[string]interface{}{
				"label":      "cat",
				"confidence": 0.92,
				"note":       "Simulated (model not configured)",
			}, nil
		}

		classifier, err := vision.NewClassifier(modelPath, labelsPath, onnxLibraryPath)
		if err != nil {
			return nil, err
		}
		defer classifier.Close()

		results, err := classifier.Classify(imagePath, vision.DefaultTopK)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"predictions": results}, nil
	}
}
