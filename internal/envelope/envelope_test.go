package envelope

import (
	"bytes"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/mlbridge/mlbridge/pkg/errors"
	"github.com/mlbridge/mlbridge/pkg/log"
)

func TestReadFromArgv(t *testing.T) {
	data, err := Read([]string{`{"text":"hi"}`}, strings.NewReader("ignored"))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(data) != `{"text":"hi"}` {
		t.Errorf("data = %q", data)
	}
}

func TestReadFromStdin(t *testing.T) {
	data, err := Read(nil, strings.NewReader(`{"text":"hi"}`))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(data) != `{"text":"hi"}` {
		t.Errorf("data = %q", data)
	}
}

func TestReadEmpty(t *testing.T) {
	if _, err := Read(nil, strings.NewReader("  \n")); err == nil {
		t.Error("blank stdin should fail")
	}
}

func TestDecodeInvalidJSON(t *testing.T) {
	var v map[string]interface{}
	err := Decode([]byte("{not json"), &v)
	if err == nil {
		t.Fatal("invalid JSON should fail")
	}
	if tag := errors.TypeTag(err); tag != "ValidationError" {
		t.Errorf("type tag = %q, want ValidationError", tag)
	}
}

func TestWriteError(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteError(&buf, errors.NewValidationError("text", "Text cannot be empty")); err != nil {
		t.Fatalf("WriteError failed: %v", err)
	}

	var envelope struct {
		Error string `json:"error"`
		Type  string `json:"type"`
	}
	if err := json.Unmarshal(buf.Bytes(), &envelope); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if envelope.Type != "ValidationError" {
		t.Errorf("type = %q, want ValidationError", envelope.Type)
	}
	if !strings.Contains(envelope.Error, "Text cannot be empty") {
		t.Errorf("error = %q, want the message", envelope.Error)
	}
}

func TestRunSuccess(t *testing.T) {
	var buf bytes.Buffer
	code := Run(&buf, log.New("test", "error"), func() (interface{}, error) {
		return map[string]string{"greeting": "Hello, World!"}, nil
	})
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}

	var result map[string]string
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if result["greeting"] != "Hello, World!" {
		t.Errorf("greeting = %q", result["greeting"])
	}
}

func TestRunError(t *testing.T) {
	var buf bytes.Buffer
	code := Run(&buf, log.New("test", "error"), func() (interface{}, error) {
		return nil, errors.NewValueError("test", "bad input")
	})
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(buf.String(), `"error"`) {
		t.Errorf("output missing error envelope: %s", buf.String())
	}
}

func TestRunRecoversPanic(t *testing.T) {
	var buf bytes.Buffer
	code := Run(&buf, log.New("test", "error"), func() (interface{}, error) {
		panic("boom")
	})
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}

	var envelope struct {
		Error string `json:"error"`
		Type  string `json:"type"`
	}
	if err := json.Unmarshal(buf.Bytes(), &envelope); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if envelope.Type != "PanicError" {
		t.Errorf("type = %q, want PanicError", envelope.Type)
	}
}
