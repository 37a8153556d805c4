package dataset

import (
	"math/rand"

	"academic-compass/internal/domain"
	"academic-compass/internal/ml/features"
)

type syntheticSpec struct {
	mean float64
	std  float64
	min  float64
	max  float64
}

// Distributions mirror the indicator profile of the academic population the
// original labeling heuristic was calibrated against.
var syntheticSpecs = map[string]syntheticSpec{
	"promedio":      {7.2, 1.4, 0, 10},
	"asistencia":    {86, 9, 40, 100},
	"horas_estudio": {12, 5, 0, 50},
	"tendencia":     {0.2, 1.2, -3, 3},
	"puntualidad":   {88, 8, 40, 100},
	"habitos":       {7.0, 2.0, 0, 10},
}

// GenerateSyntheticStudents draws n labeled rows from seeded per-feature
// normals. A weighted composite of the six indicators, rescaled to [0, 10],
// is thresholded at 7.5 and 5.5 to assign bajo/medio/alto labels. This is the
// fallback that keeps the service training a plausible demo model when no
// real data exists yet.
func GenerateSyntheticStudents(n int, seed int64) Dataset {
	if n <= 0 {
		n = defaultOptions().SyntheticSamples
	}
	rng := rand.New(rand.NewSource(seed))

	cols := make(map[string][]float64, len(features.Names))
	for _, name := range features.Names {
		spec := syntheticSpecs[name]
		col := make([]float64, n)
		for i := range col {
			col[i] = clamp(rng.NormFloat64()*spec.std+spec.mean, spec.min, spec.max)
		}
		cols[name] = col
	}

	composite := make([]float64, n)
	for i := 0; i < n; i++ {
		composite[i] = cols["promedio"][i]*0.35 +
			cols["asistencia"][i]/10*0.20 +
			cols["horas_estudio"][i]/10*0.15 +
			cols["puntualidad"][i]/10*0.15 +
			cols["habitos"][i]*0.10 +
			cols["tendencia"][i]*0.50
	}
	rescale(composite, 0, 10)

	ds := Dataset{Rows: make([]Row, n)}
	for i := 0; i < n; i++ {
		vals := make([]float64, len(features.Names))
		for j, name := range features.Names {
			vals[j] = cols[name][i]
		}
		ds.Rows[i] = Row{
			Features: features.FromValues(vals),
			Label:    string(labelFromScore(composite[i])),
		}
	}
	return ds
}

func labelFromScore(score float64) domain.RiskLevel {
	switch {
	case score >= 7.5:
		return domain.RiskBajo
	case score >= 5.5:
		return domain.RiskMedio
	default:
		return domain.RiskAlto
	}
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// rescale maps vals linearly onto [lo, hi] using the observed min/max.
func rescale(vals []float64, lo, hi float64) {
	if len(vals) == 0 {
		return
	}
	min, max := vals[0], vals[0]
	for _, v := range vals {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if max == min {
		for i := range vals {
			vals[i] = lo
		}
		return
	}
	for i := range vals {
		vals[i] = lo + (vals[i]-min)/(max-min)*(hi-lo)
	}
}
