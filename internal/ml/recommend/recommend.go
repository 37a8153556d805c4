package recommend

import (
	"academic-compass/internal/domain"
	"academic-compass/internal/ml/features"
)

// ForStudent derives the advice list for a predicted risk level. Text order
// is stable: the headline for the level first, then the conditional items in
// a fixed sequence, then the study-habits note when it applies.
func ForStudent(riesgo domain.RiskLevel, v features.Vector) []string {
	recs := make([]string, 0, 4)
	switch riesgo {
	case domain.RiskAlto:
		recs = append(recs, "Agendar tutorias semanales y sesiones de refuerzo en las asignaturas con menor promedio.")
		if v.Asistencia < 80 {
			recs = append(recs, "Regulariza tu asistencia y solicita seguimiento a docentes para evitar atrasos.")
		}
		if v.HorasEstudio < 10 {
			recs = append(recs, "Incrementa progresivamente tus horas de estudio a al menos 10-12 horas semanales.")
		}
	case domain.RiskMedio:
		recs = append(recs, "Mantén constancia con un plan de estudio estructurado y descansos programados.")
		if v.Tendencia < 0 {
			recs = append(recs, "Revisa unidades pendientes y repasa exámenes previos para revertir la tendencia negativa.")
		}
		recs = append(recs, "Prioriza tareas críticas y registra avances en un planner académico.")
	default:
		recs = append(recs, "Excelente desempeño. Continúa con tus hábitos actuales y apóyate en grupos de estudio.")
		if v.Puntualidad < 90 {
			recs = append(recs, "Refuerza la puntualidad para consolidar el buen rendimiento.")
		}
		recs = append(recs, "Explora material avanzado o proyectos extracurriculares para seguir creciendo.")
	}

	if v.Habitos < 6 {
		recs = append(recs, "Implementa técnicas Pomodoro y espacios de estudio sin distracciones para mejorar hábitos.")
	}
	return recs
}
