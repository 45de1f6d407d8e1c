// Package dataset loads labeled review data for training.
package dataset

import (
	"encoding/csv"
	"os"
	"strconv"
	"strings"

	"github.com/mlbridge/mlbridge/pkg/errors"
)

// LoadCSV reads a reviews file with a `text,sentiment` header and returns
// the texts and labels. Blank rows are skipped; rows with empty text or
// sentiment are rejected.
func LoadCSV(path string) (texts, labels []string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to open training data")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 2

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, errors.NewValidationError("csv", "malformed CSV: "+err.Error())
	}
	if len(records) == 0 {
		return nil, nil, errors.NewValidationError("csv", "file is empty")
	}

	header := records[0]
	if strings.TrimSpace(strings.ToLower(header[0])) != "text" ||
		strings.TrimSpace(strings.ToLower(header[1])) != "sentiment" {
		return nil, nil, errors.NewValidationError("csv",
			"expected header text,sentiment, got "+strings.Join(header, ","))
	}

	for i, record := range records[1:] {
		text := strings.TrimSpace(record[0])
		label := strings.TrimSpace(record[1])
		if text == "" && label == "" {
			continue
		}
		if text == "" || label == "" {
			return nil, nil, errors.NewValidationError("csv",
				"row "+strconv.Itoa(i+2)+" has an empty field")
		}
		texts = append(texts, text)
		labels = append(labels, label)
	}

	if len(texts) == 0 {
		return nil, nil, errors.NewValidationError("csv", "no data rows")
	}
	return texts, labels, nil
}
