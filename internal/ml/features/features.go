package features

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Names is the canonical feature order. Every pipeline, bundle and payload
// normalization in the system depends on this ordering.
var Names = []string{
	"promedio",
	"asistencia",
	"horas_estudio",
	"tendencia",
	"puntualidad",
	"habitos",
}

// legacyAverageKey is accepted as an alias for "promedio" in raw payloads.
const legacyAverageKey = "nota_promedio"

// Range is the documented valid interval for one indicator.
type Range struct {
	Min float64
	Max float64
}

var ranges = map[string]Range{
	"promedio":      {0, 10},
	"asistencia":    {40, 100},
	"horas_estudio": {0, 50},
	"tendencia":     {-3, 3},
	"puntualidad":   {40, 100},
	"habitos":       {0, 10},
}

// RangeOf returns the valid interval for a feature name.
func RangeOf(name string) (Range, bool) {
	r, ok := ranges[name]
	return r, ok
}

// Vector holds one observation in canonical feature order.
type Vector struct {
	Promedio     float64
	Asistencia   float64
	HorasEstudio float64
	Tendencia    float64
	Puntualidad  float64
	Habitos      float64
}

// Values returns the vector as a slice aligned with Names.
func (v Vector) Values() []float64 {
	return []float64{v.Promedio, v.Asistencia, v.HorasEstudio, v.Tendencia, v.Puntualidad, v.Habitos}
}

// Get returns the value of a feature by its canonical name.
func (v Vector) Get(name string) float64 {
	switch name {
	case "promedio":
		return v.Promedio
	case "asistencia":
		return v.Asistencia
	case "horas_estudio":
		return v.HorasEstudio
	case "tendencia":
		return v.Tendencia
	case "puntualidad":
		return v.Puntualidad
	case "habitos":
		return v.Habitos
	}
	return 0
}

// FromValues builds a Vector from a slice aligned with Names.
func FromValues(vals []float64) Vector {
	var v Vector
	for i, name := range Names {
		if i >= len(vals) {
			break
		}
		setField(&v, name, vals[i])
	}
	return v
}

// FromPayload normalizes a raw payload into a Vector. Missing or unparseable
// values coerce to 0.0 rather than erroring; that leniency is part of the
// prediction contract. The legacy "nota_promedio" key maps to "promedio".
func FromPayload(payload map[string]any) Vector {
	if payload == nil {
		return Vector{}
	}
	if _, ok := payload["promedio"]; !ok {
		if legacy, ok := payload[legacyAverageKey]; ok {
			payload["promedio"] = legacy
		}
	}
	var v Vector
	for _, name := range Names {
		setField(&v, name, CoerceFloat(payload[name]))
	}
	return v
}

func setField(v *Vector, name string, val float64) {
	switch name {
	case "promedio":
		v.Promedio = val
	case "asistencia":
		v.Asistencia = val
	case "horas_estudio":
		v.HorasEstudio = val
	case "tendencia":
		v.Tendencia = val
	case "puntualidad":
		v.Puntualidad = val
	case "habitos":
		v.Habitos = val
	}
}

// CoerceFloat converts arbitrary payload values to float64, defaulting to 0.
func CoerceFloat(raw any) float64 {
	switch val := raw.(type) {
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0
		}
		return f
	case bool:
		if val {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// SortedLabels returns the distinct labels present in y in sorted order.
// Confusion matrices are always built against this order so they stay
// comparable across retrains.
func SortedLabels(y []string) []string {
	seen := make(map[string]struct{}, 3)
	out := make([]string, 0, 3)
	for _, label := range y {
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	sort.Strings(out)
	return out
}

// Validate checks that every feature sits inside its documented range.
// Used at the API boundary only; the engine itself stays lenient.
func Validate(v Vector) error {
	for _, name := range Names {
		r := ranges[name]
		val := v.Get(name)
		if val < r.Min || val > r.Max {
			return fmt.Errorf("campo %s fuera de rango [%g, %g]: %g", name, r.Min, r.Max, val)
		}
	}
	return nil
}
