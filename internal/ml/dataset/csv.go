package dataset

import (
	"encoding/csv"
	"math"
	"os"
	"strconv"
	"strings"
)

// readCSV loads one CSV file into records. Unknown columns are ignored,
// unparseable cells stay missing (NaN) so imputation can fill them.
// Unreadable files yield no rows rather than an error; external academic
// exports are best-effort inputs.
func readCSV(path string) ([]record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil || len(rows) < 2 {
		return nil, err
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	out := make([]record, 0, len(rows)-1)
	for _, cells := range rows[1:] {
		rec := record{values: make(map[string]float64, len(header))}
		for i, cell := range cells {
			if i >= len(header) {
				break
			}
			name := header[i]
			cell = strings.TrimSpace(cell)
			if name == labelColumn {
				rec.hasLabel = true
				rec.label = strings.ToLower(cell)
				continue
			}
			if name == "nota_promedio" {
				name = "promedio"
			}
			if cell == "" {
				rec.values[name] = math.NaN()
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				rec.values[name] = math.NaN()
				continue
			}
			rec.values[name] = v
		}
		out = append(out, rec)
	}
	return out, nil
}
