package dataset

import (
	"math"
	"sort"

	"academic-compass/internal/ml/features"
)

const labelColumn = "riesgo"

// Row is one prepared observation. Label is empty for unlabeled rows.
type Row struct {
	Features features.Vector
	Label    string
}

// Dataset is an ordered collection of prepared rows. After Prepare it is
// guaranteed to contain exactly the contract features, in canonical order,
// with no missing values.
type Dataset struct {
	Rows []Row
}

// Matrix splits the dataset into a feature matrix and a label slice,
// both aligned with features.Names.
func (d Dataset) Matrix() ([][]float64, []string) {
	x := make([][]float64, len(d.Rows))
	y := make([]string, len(d.Rows))
	for i, row := range d.Rows {
		x[i] = row.Features.Values()
		y[i] = row.Label
	}
	return x, y
}

func (d Dataset) Len() int { return len(d.Rows) }

// Options tune dataset preparation. Zero values fall back to the defaults
// the models were designed around.
type Options struct {
	SyntheticSamples int
	Seed             int64
	SyntheticIfEmpty bool
}

func defaultOptions() Options {
	return Options{SyntheticSamples: 800, Seed: 42, SyntheticIfEmpty: true}
}

// Prepare unifies the supplied sources, cleans the result and guarantees the
// feature contract. With no usable rows it synthesizes a labeled dataset so
// training always has something to fit against.
func Prepare(webRows []map[string]any, csvPaths []string, opts Options) Dataset {
	if opts.SyntheticSamples <= 0 {
		opts.SyntheticSamples = defaultOptions().SyntheticSamples
	}
	if opts.Seed == 0 {
		opts.Seed = defaultOptions().Seed
	}

	table := loadFromSources(webRows, csvPaths)
	table = clean(table)

	if len(table) == 0 && opts.SyntheticIfEmpty {
		return GenerateSyntheticStudents(opts.SyntheticSamples, opts.Seed)
	}

	out := Dataset{Rows: make([]Row, 0, len(table))}
	for _, rec := range table {
		row := Row{Label: rec.label}
		vals := make([]float64, len(features.Names))
		for i, name := range features.Names {
			if v, ok := rec.values[name]; ok && !math.IsNaN(v) {
				vals[i] = v
			}
		}
		row.Features = features.FromValues(vals)
		out.Rows = append(out.Rows, row)
	}
	return out
}

// record is one raw row during unification. values may hold NaN for missing
// cells until imputation fills them.
type record struct {
	values map[string]float64
	label  string
	// hasLabel distinguishes "no label column" from "empty label cell".
	hasLabel bool
}

func loadFromSources(webRows []map[string]any, csvPaths []string) []record {
	out := make([]record, 0, len(webRows))
	for _, raw := range webRows {
		out = append(out, recordFromPayload(raw))
	}
	for _, path := range csvPaths {
		rows, err := readCSV(path)
		if err != nil {
			continue
		}
		out = append(out, rows...)
	}
	return out
}

func recordFromPayload(raw map[string]any) record {
	rec := record{values: make(map[string]float64, len(features.Names))}
	for key, val := range raw {
		if key == labelColumn {
			if s, ok := val.(string); ok && s != "" {
				rec.label = s
				rec.hasLabel = true
			}
			continue
		}
		rec.values[key] = features.CoerceFloat(val)
	}
	return rec
}

// clean removes exact duplicates, then fills missing numeric cells with the
// column median and missing labels with the label mode.
func clean(table []record) []record {
	if len(table) == 0 {
		return table
	}

	deduped := make([]record, 0, len(table))
	seen := make(map[string]struct{}, len(table))
	for _, rec := range table {
		key := dedupKey(rec)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		deduped = append(deduped, rec)
	}

	for _, name := range features.Names {
		med := columnMedian(deduped, name)
		for i := range deduped {
			if v, ok := deduped[i].values[name]; !ok || math.IsNaN(v) {
				deduped[i].values[name] = med
			}
		}
	}

	mode := labelMode(deduped)
	for i := range deduped {
		if deduped[i].hasLabel && deduped[i].label == "" && mode != "" {
			deduped[i].label = mode
		}
	}
	return deduped
}

func dedupKey(rec record) string {
	var b []byte
	for _, name := range features.Names {
		v, ok := rec.values[name]
		if !ok {
			v = math.NaN()
		}
		b = appendFloatKey(b, v)
	}
	b = append(b, '|')
	b = append(b, rec.label...)
	return string(b)
}

func appendFloatKey(b []byte, v float64) []byte {
	bits := math.Float64bits(v)
	for i := 0; i < 8; i++ {
		b = append(b, byte(bits>>(8*i)))
	}
	return b
}

func columnMedian(table []record, name string) float64 {
	vals := make([]float64, 0, len(table))
	for _, rec := range table {
		if v, ok := rec.values[name]; ok && !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return 0
	}
	sort.Float64s(vals)
	mid := len(vals) / 2
	if len(vals)%2 == 1 {
		return vals[mid]
	}
	return (vals[mid-1] + vals[mid]) / 2
}

func labelMode(table []record) string {
	counts := make(map[string]int, 3)
	for _, rec := range table {
		if rec.label != "" {
			counts[rec.label]++
		}
	}
	best := ""
	bestCount := 0
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		if counts[label] > bestCount {
			best = label
			bestCount = counts[label]
		}
	}
	return best
}
