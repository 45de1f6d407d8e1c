package dataset

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reviews.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeCSV(t, "text,sentiment\ngreat product,positive\nterrible waste,negative\n")

	texts, labels, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("LoadCSV failed: %v", err)
	}
	if len(texts) != 2 || len(labels) != 2 {
		t.Fatalf("got %d texts and %d labels, want 2 each", len(texts), len(labels))
	}
	if texts[0] != "great product" || labels[0] != "positive" {
		t.Errorf("first row = (%q, %q)", texts[0], labels[0])
	}
	if labels[1] != "negative" {
		t.Errorf("second label = %q, want negative", labels[1])
	}
}

func TestLoadCSVQuotedCommas(t *testing.T) {
	path := writeCSV(t, "text,sentiment\n\"good, solid, reliable\",positive\n")

	texts, _, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("LoadCSV failed: %v", err)
	}
	if texts[0] != "good, solid, reliable" {
		t.Errorf("text = %q, quoting not handled", texts[0])
	}
}

func TestLoadCSVErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"wrong header", "body,label\nhello,positive\n"},
		{"empty file", ""},
		{"header only", "text,sentiment\n"},
		{"empty field", "text,sentiment\n,positive\n"},
		{"wrong column count", "text,sentiment\nonly-one-field\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCSV(t, tt.content)
			if _, _, err := LoadCSV(path); err == nil {
				t.Error("LoadCSV should fail")
			}
		})
	}
}

func TestLoadCSVMissingFile(t *testing.T) {
	if _, _, err := LoadCSV(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("missing file should fail")
	}
}
