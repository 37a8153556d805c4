package ranking

import (
	"math"
	"sort"
)

// FeatureScore pairs a feature name with its relevance to the label.
type FeatureScore struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

const defaultBins = 10

// Rank scores each feature column by mutual information with the label and
// returns the scores sorted descending. Ties keep the canonical column order,
// so the ranking is fully deterministic for a given dataset.
func Rank(x [][]float64, y []string, names []string) []FeatureScore {
	scores := make([]FeatureScore, len(names))
	for j, name := range names {
		col := column(x, j)
		scores[j] = FeatureScore{Name: name, Score: mutualInformation(col, y, defaultBins)}
	}
	sort.SliceStable(scores, func(a, b int) bool { return scores[a].Score > scores[b].Score })
	return scores
}

// TopK returns the names of the k highest-ranked features, in ranking order.
func TopK(ranked []FeatureScore, k int) []string {
	if k > len(ranked) {
		k = len(ranked)
	}
	out := make([]string, k)
	for i := 0; i < k; i++ {
		out[i] = ranked[i].Name
	}
	return out
}

func column(x [][]float64, j int) []float64 {
	col := make([]float64, len(x))
	for i := range x {
		if j < len(x[i]) {
			col[i] = x[i][j]
		}
	}
	return col
}

// mutualInformation estimates I(feature; label) by equal-width binning of the
// feature. Binning is affine-invariant, so the estimate is identical before
// and after standard or min-max scaling.
func mutualInformation(col []float64, y []string, bins int) float64 {
	n := len(col)
	if n == 0 || len(y) != n {
		return 0
	}

	min, max := col[0], col[0]
	for _, v := range col {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if max == min {
		return 0
	}

	labelIndex := make(map[string]int)
	for _, label := range y {
		if _, ok := labelIndex[label]; !ok {
			labelIndex[label] = len(labelIndex)
		}
	}
	nLabels := len(labelIndex)

	joint := make([][]float64, bins)
	for b := range joint {
		joint[b] = make([]float64, nLabels)
	}
	binTotals := make([]float64, bins)
	labelTotals := make([]float64, nLabels)

	width := (max - min) / float64(bins)
	for i, v := range col {
		b := int((v - min) / width)
		if b >= bins {
			b = bins - 1
		}
		l := labelIndex[y[i]]
		joint[b][l]++
		binTotals[b]++
		labelTotals[l]++
	}

	total := float64(n)
	mi := 0.0
	for b := 0; b < bins; b++ {
		for l := 0; l < nLabels; l++ {
			if joint[b][l] == 0 {
				continue
			}
			pxy := joint[b][l] / total
			px := binTotals[b] / total
			py := labelTotals[l] / total
			mi += pxy * math.Log(pxy/(px*py))
		}
	}
	if mi < 0 {
		mi = 0
	}
	return mi
}
