package advisor

import (
	"fmt"
	"sort"
	"strings"

	"academic-compass/internal/domain"
	"academic-compass/internal/ml/features"
)

const systemPrompt = `Eres un orientador académico universitario. Recibes la evaluación de riesgo
de un estudiante generada por un modelo de clasificación, junto con sus seis
indicadores académicos. Redacta una explicación breve (máximo 120 palabras),
en español, dirigida al tutor del estudiante: qué indicadores pesan más en el
resultado y qué acción concreta tomar primero. No inventes datos que no estén
en el contexto y no menciones al modelo.`

// BuildStudentContext renders the prediction and indicators as the user
// message for the LLM.
func BuildStudentContext(result domain.PredictionResult, v features.Vector) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Nivel de riesgo: %s (score %.2f/100)\n\nIndicadores:\n", result.Riesgo, result.Score)
	for _, name := range features.Names {
		r, _ := features.RangeOf(name)
		fmt.Fprintf(&sb, "- %s: %.2f (rango válido %g a %g)\n", name, v.Get(name), r.Min, r.Max)
	}

	if len(result.Probabilidades) > 0 {
		sb.WriteString("\nProbabilidades por nivel:\n")
		levels := make([]string, 0, len(result.Probabilidades))
		for level := range result.Probabilidades {
			levels = append(levels, level)
		}
		sort.Strings(levels)
		for _, level := range levels {
			fmt.Fprintf(&sb, "- %s: %.3f\n", level, result.Probabilidades[level])
		}
	}

	if len(result.Recomendaciones) > 0 {
		sb.WriteString("\nRecomendaciones ya generadas por reglas:\n")
		for _, rec := range result.Recomendaciones {
			fmt.Fprintf(&sb, "- %s\n", rec)
		}
	}
	return sb.String()
}
