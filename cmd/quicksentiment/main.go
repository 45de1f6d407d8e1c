// Command quicksentiment classifies text with the keyword lexicon. It
// needs no trained model, so it doubles as a smoke test for the bridge.
package main

import (
	"os"
	"strings"

	"github.com/mlbridge/mlbridge/internal/config"
	"github.com/mlbridge/mlbridge/internal/envelope"
	"github.com/mlbridge/mlbridge/pkg/errors"
	"github.com/mlbridge/mlbridge/pkg/log"
	"github.com/mlbridge/mlbridge/sentiment"
)

func main() {
	cfg := config.Load()
	logger := log.New("quicksentiment", cfg.LogLevel)

	os.Exit(envelope.Run(os.Stdout, logger, func() (interface{}, error) {
		data, err := envelope.Read(os.Args[1:], os.Stdin)
		if err != nil {
			return nil, err
		}

		var input struct {
			Text *string `json:"text"`
		}
		if err := envelope.Decode(data, &input); err != nil {
			return nil, err
		}
		if input.Text == nil {
			return nil, errors.NewValidationError("text", `Missing "text" field`)
		}
		if strings.TrimSpace(*input.Text) == "" {
			return nil, errors.NewValidationError("text", "Text cannot be empty")
		}

		return sentiment.AnalyzeLexicon(*input.Text), nil
	}))
}
