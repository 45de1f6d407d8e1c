package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/mlbridge/mlbridge/pkg/errors"
)

func TestDownload(t *testing.T) {
	payload := []byte(`{"0": "tench", "1": "goldfish"}`)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write(payload)
	}))
	defer srv.Close()

	client := srv.Client()

	t.Run("writes the body and reports its size", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "labels.json")
		n, err := download(client, srv.URL+"/labels.json", dest)
		if err != nil {
			t.Fatalf("download() error = %v", err)
		}
		if n != int64(len(payload)) {
			t.Errorf("bytes = %d, want %d", n, len(payload))
		}
		got, err := os.ReadFile(dest)
		if err != nil {
			t.Fatalf("reading destination: %v", err)
		}
		if string(got) != string(payload) {
			t.Errorf("file contents = %q, want %q", got, payload)
		}
	})

	t.Run("non-200 status is a validation error", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "labels.json")
		_, err := download(client, srv.URL+"/missing", dest)
		if err == nil {
			t.Fatal("download() error = nil, want status error")
		}
		var validation *errors.ValidationError
		if !errors.As(err, &validation) {
			t.Errorf("error type = %T, want *ValidationError", err)
		}
		if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
			t.Errorf("destination file created despite failed download")
		}
	})

	t.Run("unreachable host is wrapped", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "labels.json")
		if _, err := download(client, "http://127.0.0.1:1/labels.json", dest); err == nil {
			t.Error("download() error = nil, want connection error")
		}
	})
}
