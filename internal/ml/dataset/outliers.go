package dataset

import (
	"github.com/narumiruna/go-iforest/pkg/iforest"
)

// OutlierReport lists rows an isolation forest flags as anomalous, for
// diagnostics only. Flagged rows are never dropped; the cleaning contract
// (dedup + imputation) stays untouched.
type OutlierReport struct {
	Scores  []float64 `json:"scores"`
	Flagged []int     `json:"flagged"`
}

// DetectOutliers scores every row with an isolation forest and flags those
// above the threshold. A threshold <= 0 uses 0.6, a common default for the
// normalized anomaly score.
func DetectOutliers(ds Dataset, threshold float64) OutlierReport {
	if threshold <= 0 {
		threshold = 0.6
	}
	report := OutlierReport{}
	if ds.Len() == 0 {
		return report
	}
	x, _ := ds.Matrix()

	forest := iforest.New()
	forest.Fit(x)
	report.Scores = forest.Score(x)
	for i, score := range report.Scores {
		if score >= threshold {
			report.Flagged = append(report.Flagged, i)
		}
	}
	return report
}
