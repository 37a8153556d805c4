package recommend

import (
	"testing"

	"academic-compass/internal/domain"
	"academic-compass/internal/ml/features"
)

func TestHighRiskWithWeakIndicators(t *testing.T) {
	v := features.Vector{Promedio: 4, Asistencia: 70, HorasEstudio: 5, Puntualidad: 85, Habitos: 4}
	got := ForStudent(domain.RiskAlto, v)
	want := []string{
		"Agendar tutorias semanales y sesiones de refuerzo en las asignaturas con menor promedio.",
		"Regulariza tu asistencia y solicita seguimiento a docentes para evitar atrasos.",
		"Incrementa progresivamente tus horas de estudio a al menos 10-12 horas semanales.",
		"Implementa técnicas Pomodoro y espacios de estudio sin distracciones para mejorar hábitos.",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d recommendations, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("recommendation %d mismatch:\n got: %s\nwant: %s", i, got[i], want[i])
		}
	}
}

func TestHighRiskWithGoodIndicators(t *testing.T) {
	v := features.Vector{Asistencia: 95, HorasEstudio: 15, Habitos: 8}
	got := ForStudent(domain.RiskAlto, v)
	if len(got) != 1 {
		t.Fatalf("expected only the headline, got %v", got)
	}
}

func TestMediumRiskNegativeTrend(t *testing.T) {
	v := features.Vector{Tendencia: -1.5, Habitos: 7}
	got := ForStudent(domain.RiskMedio, v)
	if len(got) != 3 {
		t.Fatalf("expected 3 recommendations, got %v", got)
	}
	if got[1] != "Revisa unidades pendientes y repasa exámenes previos para revertir la tendencia negativa." {
		t.Fatalf("trend advice missing or out of order: %v", got)
	}
}

func TestLowRiskPunctuality(t *testing.T) {
	v := features.Vector{Puntualidad: 85, Habitos: 9}
	got := ForStudent(domain.RiskBajo, v)
	if len(got) != 3 {
		t.Fatalf("expected 3 recommendations, got %v", got)
	}
	if got[0] != "Excelente desempeño. Continúa con tus hábitos actuales y apóyate en grupos de estudio." {
		t.Fatalf("unexpected headline: %s", got[0])
	}
	if got[1] != "Refuerza la puntualidad para consolidar el buen rendimiento." {
		t.Fatalf("punctuality advice missing: %v", got)
	}
}

func TestHabitsNoteAlwaysLast(t *testing.T) {
	v := features.Vector{Puntualidad: 95, Habitos: 3}
	got := ForStudent(domain.RiskBajo, v)
	last := got[len(got)-1]
	if last != "Implementa técnicas Pomodoro y espacios de estudio sin distracciones para mejorar hábitos." {
		t.Fatalf("habits note should close the list: %v", got)
	}
}
