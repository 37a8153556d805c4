package bot

import (
	"strings"
	"testing"

	"academic-compass/internal/domain"
)

func TestStartTelegramBotSkipsWithoutToken(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	StartTelegramBot(nil)
}

func TestFormatPrediction(t *testing.T) {
	msg := formatPrediction(domain.PredictionResult{
		Riesgo: domain.RiskMedio,
		Score:  64.2,
		Modelo: "knn",
		Recomendaciones: []string{
			"Mantén constancia con un plan de estudio estructurado y descansos programados.",
		},
	})
	if !strings.Contains(msg, "Riesgo: MEDIO") {
		t.Fatalf("missing risk line: %s", msg)
	}
	if !strings.Contains(msg, "Score: 64.20 / 100") {
		t.Fatalf("missing score line: %s", msg)
	}
	if !strings.Contains(msg, "• Mantén constancia") {
		t.Fatalf("missing recommendation bullet: %s", msg)
	}
}
