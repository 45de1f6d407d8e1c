// Command predict classifies one text with the trained sentiment model.
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
	logger := log.New("predict", cfg.LogLevel)

	os.Exit(envelope.Run(os.Stdout, logger, func() (interface{}, error) {
		data, err := envelope.Read(os.Args[1:], os.Stdin)
		if err != nil {
			return nil, err
		}

		var input struct {
			Text string `json:"text"`
		}
		if err := envelope.Decode(data, &input); err != nil {
			return nil, err
		}
		if strings.TrimSpace(input.Text) == "" {
			return nil, errors.NewValidationError("text", "Text field is required")
		}

		p, err := sentiment.LoadArtifacts(cfg.ModelDir)
		if err != nil {
			return nil, err
		}

		return p.Predict(input.Text)
	}))
}
