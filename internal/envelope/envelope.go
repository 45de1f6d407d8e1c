// Package envelope implements the JSON calling convention every command
// shares: input arrives as one JSON argument or on stdin, the result is a
// single JSON document on stdout, and any failure becomes
// {"error": ..., "type": ...} with a non-zero exit. Logs go to stderr so
// the caller can always parse stdout.
package envelope

import (
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/mlbridge/mlbridge/pkg/errors"
)

// errorEnvelope matches what the PHP side expects on failure.
type errorEnvelope struct {
	Error string `json:"error"`
	Type  string `json:"type"`
}

// Read returns the raw input payload: the first positional argument when
// present, the full stdin otherwise.
func Read(argv []string, stdin io.Reader) ([]byte, error) {
	if len(argv) > 0 && argv[0] != "" {
		return []byte(argv[0]), nil
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read stdin")
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errors.NewValidationError("input", "no input data provided")
	}
	return data, nil
}

// Decode unmarshals the payload, turning syntax errors into validation
// errors so they map to the right envelope type tag.
func Decode(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return errors.NewValidationError("input", "invalid JSON: "+err.Error())
	}
	return nil
}

// WriteResult emits the result document followed by a newline.
func WriteResult(w io.Writer, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "failed to marshal result")
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return errors.Wrap(err, "failed to write result")
	}
	return nil
}

// WriteError emits the error envelope. Marshaling a flat two-string struct
// cannot fail, so the write error is the only one worth reporting.
func WriteError(w io.Writer, err error) error {
	data, _ := json.Marshal(errorEnvelope{
		Error: err.Error(),
		Type:  errors.TypeTag(err),
	})
	data = append(data, '\n')
	_, werr := w.Write(data)
	return werr
}

// Run executes a command body under panic recovery and emits either the
// result or the error envelope on out. The return value is the process
// exit code.
func Run(out io.Writer, logger zerolog.Logger, fn func() (interface{}, error)) int {
	var result interface{}
	err := errors.SafeExecute("command", func() error {
		var ferr error
		result, ferr = fn()
		return ferr
	})
	if err != nil {
		logger.Error().Err(err).Msg("command failed")
		if werr := WriteError(out, err); werr != nil {
			logger.Error().Err(werr).Msg("failed to write error envelope")
		}
		return 1
	}

	if err := WriteResult(out, result); err != nil {
		logger.Error().Err(err).Msg("failed to write result")
		return 1
	}
	return 0
}
