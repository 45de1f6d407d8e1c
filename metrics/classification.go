package metrics

import (
	"sort"

	"github.com/mlbridge/mlbridge/pkg/errors"
)

// AccuracyScore returns the fraction of labels predicted exactly right.
func AccuracyScore(yTrue, yPred []string) (float64, error) {
	if len(yTrue) == 0 {
		return 0, errors.NewValueError("AccuracyScore", "empty label slice")
	}
	if len(yPred) != len(yTrue) {
		return 0, errors.NewDimensionError("AccuracyScore", len(yTrue), len(yPred), 0)
	}

	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue)), nil
}

// ClassReport holds per-class precision, recall, F1 and support.
type ClassReport struct {
	Label     string  `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// ClassificationReport computes per-class precision, recall, and F1 over all
// labels observed in yTrue or yPred, sorted by label. Undefined ratios
// (no predicted or no true samples for a class) are reported as zero.
func ClassificationReport(yTrue, yPred []string) ([]ClassReport, error) {
	if len(yTrue) == 0 {
		return nil, errors.NewValueError("ClassificationReport", "empty label slice")
	}
	if len(yPred) != len(yTrue) {
		return nil, errors.NewDimensionError("ClassificationReport", len(yTrue), len(yPred), 0)
	}

	seen := map[string]bool{}
	for _, l := range yTrue {
		seen[l] = true
	}
	for _, l := range yPred {
		seen[l] = true
	}

	labels := make([]string, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	reports := make([]ClassReport, 0, len(labels))
	for _, label := range labels {
		var tp, fp, fn int
		for i := range yTrue {
			switch {
			case yPred[i] == label && yTrue[i] == label:
				tp++
			case yPred[i] == label && yTrue[i] != label:
				fp++
			case yPred[i] != label && yTrue[i] == label:
				fn++
			}
		}

		var precision, recall, f1 float64
		if tp+fp > 0 {
			precision = float64(tp) / float64(tp+fp)
		}
		if tp+fn > 0 {
			recall = float64(tp) / float64(tp+fn)
		}
		if precision+recall > 0 {
			f1 = 2 * precision * recall / (precision + recall)
		}

		reports = append(reports, ClassReport{
			Label:     label,
			Precision: precision,
			Recall:    recall,
			F1:        f1,
			Support:   tp + fn,
		})
	}
	return reports, nil
}

// PrecisionRecallF1Weighted returns precision, recall, and F1 averaged over
// classes, weighted by each class's support.
func PrecisionRecallF1Weighted(yTrue, yPred []string) (precision, recall, f1 float64, err error) {
	reports, err := ClassificationReport(yTrue, yPred)
	if err != nil {
		return 0, 0, 0, err
	}

	total := 0
	for _, r := range reports {
		total += r.Support
	}
	if total == 0 {
		return 0, 0, 0, errors.NewValueError("PrecisionRecallF1Weighted", "no true samples")
	}

	for _, r := range reports {
		w := float64(r.Support) / float64(total)
		precision += w * r.Precision
		recall += w * r.Recall
		f1 += w * r.F1
	}
	return precision, recall, f1, nil
}
