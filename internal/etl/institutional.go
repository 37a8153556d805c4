package etl

import (
	"context"
	"encoding/csv"
	"io"
	"log"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"academic-compass/internal/domain"
	"academic-compass/internal/ml/features"
)

// aliases maps the column names institutional exports are known to use onto
// the canonical feature names. First match wins.
var aliases = map[string][]string{
	"promedio":      {"promedio", "nota_promedio", "prom_general", "media"},
	"asistencia":    {"asistencia", "porc_asistencia", "attendance"},
	"puntualidad":   {"puntualidad", "on_time_pct", "entregas_puntuales"},
	"horas_estudio": {"horas_estudio", "study_hours", "hrs_estudio"},
	"tendencia":     {"tendencia", "trend", "variacion"},
	"habitos":       {"habitos", "habitos_estudio", "study_habits"},
}

// defaults fills columns that are entirely absent from the export.
var defaults = map[string]float64{
	"promedio":      7.0,
	"asistencia":    85.0,
	"puntualidad":   85.0,
	"horas_estudio": 10.0,
	"tendencia":     0.0,
	"habitos":       6.5,
}

const labelColumn = "riesgo"

// Importer maps institutional CSV exports (grades, attendance, activities)
// onto student rows ready for storage and training.
type Importer struct {
	tracer trace.Tracer
}

func NewImporter(tracer trace.Tracer) *Importer {
	return &Importer{tracer: tracer}
}

// ImportPaths reads every path, skipping unreadable files with a log line.
func (im *Importer) ImportPaths(ctx context.Context, paths []string) []*domain.StudentRow {
	_, span := im.tracer.Start(ctx, "etl.import-paths")
	defer span.End()

	var out []*domain.StudentRow
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			log.Printf("etl: skipping %s: %v", path, err)
			continue
		}
		rows, err := im.importReader(f)
		f.Close()
		if err != nil {
			log.Printf("etl: skipping %s: %v", path, err)
			continue
		}
		out = append(out, rows...)
	}
	return out
}

// Import maps a single CSV stream.
func (im *Importer) Import(ctx context.Context, r io.Reader) ([]*domain.StudentRow, error) {
	_, span := im.tracer.Start(ctx, "etl.import")
	defer span.End()

	return im.importReader(r)
}

func (im *Importer) importReader(r io.Reader) ([]*domain.StudentRow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, err
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}

	colFor := make(map[string]int, len(features.Names))
	for name, candidates := range aliases {
		for _, candidate := range candidates {
			if idx := indexOf(header, candidate); idx >= 0 {
				colFor[name] = idx
				break
			}
		}
	}
	labelIdx := indexOf(header, labelColumn)

	type rawRow struct {
		values map[string]float64
		label  string
	}
	var raws []rawRow
	for {
		cells, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := rawRow{values: make(map[string]float64, len(features.Names))}
		for name, idx := range colFor {
			if idx < len(cells) {
				if v, err := strconv.ParseFloat(strings.TrimSpace(cells[idx]), 64); err == nil {
					row.values[name] = v
					continue
				}
			}
			row.values[name] = math.NaN()
		}
		if labelIdx >= 0 && labelIdx < len(cells) {
			row.label = strings.ToLower(strings.TrimSpace(cells[labelIdx]))
		}
		raws = append(raws, row)
	}

	// Column-wise fill: median of the present values, or the conservative
	// default when the export never carried the column.
	for _, name := range features.Names {
		var present []float64
		for _, row := range raws {
			if v, ok := row.values[name]; ok && !math.IsNaN(v) {
				present = append(present, v)
			}
		}
		fill := defaults[name]
		if len(present) > 0 {
			fill = median(present)
		}
		for i := range raws {
			if v, ok := raws[i].values[name]; !ok || math.IsNaN(v) {
				raws[i].values[name] = fill
			}
		}
	}

	out := make([]*domain.StudentRow, 0, len(raws))
	for _, row := range raws {
		s := &domain.StudentRow{
			Promedio:     row.values["promedio"],
			Asistencia:   row.values["asistencia"],
			HorasEstudio: row.values["horas_estudio"],
			Tendencia:    row.values["tendencia"],
			Puntualidad:  row.values["puntualidad"],
			Habitos:      row.values["habitos"],
		}
		if domain.RiskLevel(row.label).IsValid() {
			s.Riesgo = row.label
		}
		out = append(out, s)
	}
	return out, nil
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

func median(vals []float64) float64 {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
