package etl

import (
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

func TestImportMapsAliasedColumns(t *testing.T) {
	csvData := "nota_promedio,attendance,study_hours,trend,on_time_pct,habitos_estudio,riesgo\n" +
		"8.5,92,15,0.5,95,8,bajo\n" +
		"4.2,60,3,-1.2,55,3,alto\n"

	im := NewImporter(testTracer)
	rows, err := im.Import(context.Background(), strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Promedio != 8.5 || rows[0].Asistencia != 92 || rows[0].HorasEstudio != 15 {
		t.Fatalf("aliased columns not mapped: %+v", rows[0])
	}
	if rows[0].Riesgo != "bajo" || rows[1].Riesgo != "alto" {
		t.Fatalf("labels not carried: %s, %s", rows[0].Riesgo, rows[1].Riesgo)
	}
}

func TestImportFillsMissingCellsWithMedian(t *testing.T) {
	csvData := "promedio,asistencia\n7.0,90\n,80\n9.0,\n"

	im := NewImporter(testTracer)
	rows, err := im.Import(context.Background(), strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[1].Promedio != 8.0 {
		t.Fatalf("missing promedio should take column median 8.0, got %f", rows[1].Promedio)
	}
	if rows[2].Asistencia != 85.0 {
		t.Fatalf("missing asistencia should take column median 85.0, got %f", rows[2].Asistencia)
	}
}

func TestImportUsesDefaultsForAbsentColumns(t *testing.T) {
	csvData := "promedio\n7.5\n"

	im := NewImporter(testTracer)
	rows, err := im.Import(context.Background(), strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if rows[0].Asistencia != 85.0 {
		t.Fatalf("absent asistencia column should default to 85, got %f", rows[0].Asistencia)
	}
	if rows[0].Habitos != 6.5 {
		t.Fatalf("absent habitos column should default to 6.5, got %f", rows[0].Habitos)
	}
	if rows[0].Tendencia != 0 {
		t.Fatalf("absent tendencia column should default to 0, got %f", rows[0].Tendencia)
	}
}

func TestImportIgnoresInvalidLabels(t *testing.T) {
	csvData := "promedio,riesgo\n7.5,desconocido\n6.0,MEDIO\n"

	im := NewImporter(testTracer)
	rows, err := im.Import(context.Background(), strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if rows[0].Riesgo != "" {
		t.Fatalf("invalid label should be dropped, got %q", rows[0].Riesgo)
	}
	if rows[1].Riesgo != "medio" {
		t.Fatalf("labels should be lowercased, got %q", rows[1].Riesgo)
	}
}
