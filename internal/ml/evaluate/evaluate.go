package evaluate

// Metrics are the selection metrics computed for every candidate model.
type Metrics struct {
	Accuracy   float64 `json:"accuracy"`
	F1Weighted float64 `json:"f1_weighted"`
}

// Confusion is a serializable confusion matrix. Matrix[i][j] counts rows with
// true label Labels[i] predicted as Labels[j].
type Confusion struct {
	Labels []string `json:"labels"`
	Matrix [][]int  `json:"matrix"`
}

// Evaluate computes accuracy and support-weighted F1 over paired label slices.
func Evaluate(yTrue, yPred []string) Metrics {
	n := len(yTrue)
	if n == 0 || len(yPred) != n {
		return Metrics{}
	}

	correct := 0
	support := make(map[string]int)
	tp := make(map[string]int)
	fp := make(map[string]int)
	fn := make(map[string]int)
	for i := 0; i < n; i++ {
		support[yTrue[i]]++
		if yTrue[i] == yPred[i] {
			correct++
			tp[yTrue[i]]++
		} else {
			fn[yTrue[i]]++
			fp[yPred[i]]++
		}
	}

	f1Sum := 0.0
	for label, count := range support {
		precision := 0.0
		if tp[label]+fp[label] > 0 {
			precision = float64(tp[label]) / float64(tp[label]+fp[label])
		}
		recall := 0.0
		if tp[label]+fn[label] > 0 {
			recall = float64(tp[label]) / float64(tp[label]+fn[label])
		}
		f1 := 0.0
		if precision+recall > 0 {
			f1 = 2 * precision * recall / (precision + recall)
		}
		f1Sum += f1 * float64(count)
	}

	return Metrics{
		Accuracy:   float64(correct) / float64(n),
		F1Weighted: f1Sum / float64(n),
	}
}

// BuildConfusion counts true/predicted pairs against an explicit label order.
// Callers must supply labels; relying on discovery order would make matrices
// incomparable across retrains. Pairs with labels outside the list are ignored.
func BuildConfusion(yTrue, yPred, labels []string) Confusion {
	index := make(map[string]int, len(labels))
	for i, label := range labels {
		index[label] = i
	}
	matrix := make([][]int, len(labels))
	for i := range matrix {
		matrix[i] = make([]int, len(labels))
	}
	for i := range yTrue {
		if i >= len(yPred) {
			break
		}
		ti, ok := index[yTrue[i]]
		if !ok {
			continue
		}
		pi, ok := index[yPred[i]]
		if !ok {
			continue
		}
		matrix[ti][pi]++
	}
	return Confusion{Labels: append([]string(nil), labels...), Matrix: matrix}
}
