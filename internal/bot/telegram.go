package bot

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"academic-compass/internal/domain"
	"academic-compass/internal/ml/engine"
	"academic-compass/internal/ml/features"
)

// StartTelegramBot exposes the model to teaching staff over Telegram:
// /modelo reports the live model, /predecir scores six indicators inline.
func StartTelegramBot(eng *engine.Engine) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/modelo", func(c tele.Context) error {
		report, err := eng.Report(context.Background())
		if err != nil {
			return c.Send(fmt.Sprintf("Modelo no disponible: %v", err))
		}
		msg := fmt.Sprintf(
			"Modelo: %s\nAccuracy: %.3f\nF1 ponderado: %.3f\nEntrenado: %s\nVariables: %s",
			report.BestModel,
			report.Metrics.Accuracy,
			report.Metrics.F1Weighted,
			report.TrainedAt.Format(time.RFC3339),
			strings.Join(report.SelectedFeatures, ", "),
		)
		return c.Send(msg)
	})

	b.Handle("/predecir", func(c tele.Context) error {
		args := c.Args()
		if len(args) != len(features.Names) {
			return c.Send("Uso: /predecir promedio asistencia horas_estudio tendencia puntualidad habitos\nEjemplo: /predecir 7.5 90 12 0.5 92 7")
		}
		payload := make(map[string]any, len(args))
		for i, name := range features.Names {
			v, err := strconv.ParseFloat(args[i], 64)
			if err != nil {
				return c.Send(fmt.Sprintf("Valor inválido para %s: %s", name, args[i]))
			}
			payload[name] = v
		}
		result, err := eng.Predict(context.Background(), payload)
		if err != nil {
			return c.Send(fmt.Sprintf("Error en la predicción: %v", err))
		}
		return c.Send(formatPrediction(result))
	})

	log.Println("Telegram bot started")
	go b.Start()
}

func formatPrediction(result domain.PredictionResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Riesgo: %s\nScore: %.2f / 100\nModelo: %s\n", strings.ToUpper(string(result.Riesgo)), result.Score, result.Modelo)
	if len(result.Recomendaciones) > 0 {
		sb.WriteString("Recomendaciones:\n")
		for _, rec := range result.Recomendaciones {
			fmt.Fprintf(&sb, "• %s\n", rec)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
