package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name     string
		op       string
		kind     string
		err      error
		wantMsg  string
		hasStack bool
	}{
		{
			name:     "with original error",
			op:       "Fit",
			kind:     "invalid input",
			err:      fmt.Errorf("test error"),
			wantMsg:  "mlbridge: Fit: invalid input: test error",
			hasStack: true,
		},
		{
			name:     "without original error",
			op:       "Predict",
			kind:     "not fitted",
			err:      nil,
			wantMsg:  "mlbridge: Predict: not fitted",
			hasStack: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			if tt.hasStack {
				formatted := fmt.Sprintf("%+v", err)
				if !strings.Contains(formatted, "errors_test.go") {
					t.Error("Expected stack trace to contain test file name")
				}
			}

			var modelErr *ModelError
			if !As(err, &modelErr) {
				t.Error("Error should be castable to *ModelError")
			}
		})
	}
}

func TestNotFittedError(t *testing.T) {
	err := NewNotFittedError("TfidfVectorizer", "Transform")

	want := "mlbridge: TfidfVectorizer: this model is not fitted yet. Call Fit() before using Transform()"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var notFitted *NotFittedError
	if !As(err, &notFitted) {
		t.Fatal("Error should be castable to *NotFittedError")
	}
	if notFitted.ModelName != "TfidfVectorizer" {
		t.Errorf("ModelName = %v, want TfidfVectorizer", notFitted.ModelName)
	}
}

func TestDimensionError(t *testing.T) {
	err := NewDimensionError("MultinomialNB.Predict", 3, 5, 1)

	if !strings.Contains(err.Error(), "Expected 3, got 5") {
		t.Errorf("unexpected message: %v", err.Error())
	}

	var dim *DimensionError
	if !As(err, &dim) {
		t.Fatal("Error should be castable to *DimensionError")
	}
	if dim.Axis != 1 {
		t.Errorf("Axis = %d, want 1", dim.Axis)
	}
}

func TestTypeTag(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not fitted", NewNotFittedError("m", "Predict"), "NotFittedError"},
		{"dimension", NewDimensionError("op", 1, 2, 0), "DimensionError"},
		{"validation", NewValidationError("text", "must not be empty"), "ValidationError"},
		{"value", NewValueError("op", "bad value"), "ValueError"},
		{"model", NewModelError("op", "load failed", nil), "ModelError"},
		{"plain", New("boom"), "Error"},
		{"wrapped keeps tag", Wrap(NewValueError("op", "bad"), "context"), "ValueError"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TypeTag(tt.err); got != tt.want {
				t.Errorf("TypeTag() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTypeTagPanic(t *testing.T) {
	err := SafeExecute("test", func() error {
		panic("boom")
	})
	if err == nil {
		t.Fatal("expected error from panic")
	}
	if got := TypeTag(err); got != "PanicError" {
		t.Errorf("TypeTag() = %v, want PanicError", got)
	}
}
