// Command hello is the smallest possible bridge script: it echoes a
// greeting for the JSON it was handed, demonstrating the envelope
// convention end to end.
package main

import (
	"os"

	"github.com/mlbridge/mlbridge/internal/config"
	"github.com/mlbridge/mlbridge/internal/envelope"
	"github.com/mlbridge/mlbridge/pkg/log"
)

func main() {
	cfg := config.Load()
	logger := log.New("hello", cfg.LogLevel)

	os.Exit(envelope.Run(os.Stdout, logger, func() (interface{}, error) {
		data, err := envelope.Read(os.Args[1:], os.Stdin)
		if err != nil {
			return nil, err
		}

		var input map[string]interface{}
		if err := envelope.Decode(data, &input); err != nil {
			return nil, err
		}

		name := "World"
		if n, ok := input["name"].(string); ok && n != "" {
			name = n
		}

		return map[string]interface{}{
			"greeting":       "Hello, " + name + "!",
			"processed_by":   "Go",
			"input_received": input,
		}, nil
	}))
}
