package features

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestFromPayloadMapsLegacyAverageKey(t *testing.T) {
	v := FromPayload(map[string]any{"nota_promedio": 8.5})
	if v.Promedio != 8.5 {
		t.Fatalf("nota_promedio should map to promedio, got %g", v.Promedio)
	}
}

func TestFromPayloadPrefersCanonicalKeyOverAlias(t *testing.T) {
	v := FromPayload(map[string]any{"promedio": 7.0, "nota_promedio": 9.0})
	if v.Promedio != 7.0 {
		t.Fatalf("promedio should win over the alias, got %g", v.Promedio)
	}
}

func TestFromPayloadCoercesMixedTypes(t *testing.T) {
	v := FromPayload(map[string]any{
		"promedio":      "8.5",
		"asistencia":    95,
		"horas_estudio": json.Number("18"),
		"tendencia":     float32(1.5),
		"puntualidad":   int64(96),
		"habitos":       "not-a-number",
	})
	want := Vector{Promedio: 8.5, Asistencia: 95, HorasEstudio: 18, Tendencia: 1.5, Puntualidad: 96, Habitos: 0}
	if v != want {
		t.Fatalf("coerced vector mismatch: got %+v, want %+v", v, want)
	}
}

func TestFromPayloadNilPayload(t *testing.T) {
	if v := FromPayload(nil); v != (Vector{}) {
		t.Fatalf("nil payload should produce the zero vector, got %+v", v)
	}
}

func TestCoerceFloat(t *testing.T) {
	cases := []struct {
		in   any
		want float64
	}{
		{8.5, 8.5},
		{float32(2), 2},
		{7, 7},
		{int64(3), 3},
		{json.Number("4.25"), 4.25},
		{json.Number("bad"), 0},
		{" 6.5 ", 6.5},
		{"garbage", 0},
		{true, 1},
		{false, 0},
		{nil, 0},
		{[]string{"x"}, 0},
	}
	for _, tc := range cases {
		if got := CoerceFloat(tc.in); got != tc.want {
			t.Fatalf("CoerceFloat(%v) = %g, want %g", tc.in, got, tc.want)
		}
	}
}

func TestValuesFollowCanonicalOrder(t *testing.T) {
	v := Vector{Promedio: 1, Asistencia: 2, HorasEstudio: 3, Tendencia: 4, Puntualidad: 5, Habitos: 6}
	vals := v.Values()
	if len(vals) != len(Names) {
		t.Fatalf("expected %d values, got %d", len(Names), len(vals))
	}
	for i, name := range Names {
		if vals[i] != v.Get(name) {
			t.Fatalf("value %d should be %s=%g, got %g", i, name, v.Get(name), vals[i])
		}
	}
	if got := FromValues(vals); got != v {
		t.Fatalf("FromValues round trip mismatch: %+v vs %+v", got, v)
	}
}

func TestValidateAcceptsInRangeVector(t *testing.T) {
	v := Vector{Promedio: 8, Asistencia: 90, HorasEstudio: 15, Tendencia: 0.5, Puntualidad: 85, Habitos: 7}
	if err := Validate(v); err != nil {
		t.Fatalf("in-range vector rejected: %v", err)
	}
}

func TestValidateRejectsOutOfRangeFeature(t *testing.T) {
	v := Vector{Promedio: 8, Asistencia: 20, HorasEstudio: 15, Tendencia: 0.5, Puntualidad: 85, Habitos: 7}
	err := Validate(v)
	if err == nil {
		t.Fatal("asistencia=20 should fail validation")
	}
	if !strings.Contains(err.Error(), "asistencia") || !strings.Contains(err.Error(), "fuera de rango") {
		t.Fatalf("unexpected validation message: %v", err)
	}
}

func TestRangeOf(t *testing.T) {
	r, ok := RangeOf("tendencia")
	if !ok || r.Min != -3 || r.Max != 3 {
		t.Fatalf("tendencia range = %+v (ok=%v)", r, ok)
	}
	if _, ok := RangeOf("desconocido"); ok {
		t.Fatal("unknown feature should have no range")
	}
}

func TestSortedLabels(t *testing.T) {
	got := SortedLabels([]string{"medio", "bajo", "medio", "alto", "bajo"})
	want := []string{"alto", "bajo", "medio"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("sorted labels = %v, want %v", got, want)
	}
}
