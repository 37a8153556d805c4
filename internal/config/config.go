package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	DatabaseURL string
	RedisURL    string
	APIKey      string
	HTTPPort    int

	TelegramBotToken string

	ModelPath        string
	DatasetCSVPaths  []string
	SyntheticSamples int
	Seed             int64
	TrainHourUTC     int
	ScalerKind       string
	EnableGBM        bool

	OpenAIAPIKey      string
	OpenAIModel       string
	AdvisorMaxHistory int

	SSHEnabled     bool
	SSHBind        string
	SSHPort        int
	SSHHostKeyPath string
}

func Load() *Config {
	cfg := &Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		APIKey:           strings.TrimSpace(os.Getenv("API_KEY")),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}
	if cfg.APIKey == "" {
		log.Println("Warning: API_KEY not set, API auth disabled")
	}
	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set")
	}

	cfg.HTTPPort = 8080
	if v := strings.TrimSpace(os.Getenv("HTTP_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HTTPPort = n
		}
	}

	cfg.ModelPath = strings.TrimSpace(os.Getenv("ML_MODEL_PATH"))
	if cfg.ModelPath == "" {
		cfg.ModelPath = "models/best_model.json"
	}

	if v := strings.TrimSpace(os.Getenv("ML_DATASET_PATHS")); v != "" {
		for _, path := range strings.Split(v, ",") {
			if path = strings.TrimSpace(path); path != "" {
				cfg.DatasetCSVPaths = append(cfg.DatasetCSVPaths, path)
			}
		}
	}

	cfg.SyntheticSamples = 800
	if v := strings.TrimSpace(os.Getenv("ML_SYNTHETIC_SAMPLES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SyntheticSamples = n
		}
	}

	cfg.Seed = 42
	if v := strings.TrimSpace(os.Getenv("ML_SEED")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.Seed = n
		}
	}

	cfg.TrainHourUTC = 3
	if v := strings.TrimSpace(os.Getenv("ML_TRAIN_HOUR_UTC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 23 {
			cfg.TrainHourUTC = n
		}
	}

	cfg.ScalerKind = "standard"
	if v := strings.ToLower(strings.TrimSpace(os.Getenv("ML_SCALER"))); v != "" {
		if v == "standard" || v == "minmax" {
			cfg.ScalerKind = v
		} else {
			log.Printf("Warning: unknown ML_SCALER %q, using standard", v)
		}
	}

	cfg.EnableGBM = strings.EqualFold(strings.TrimSpace(os.Getenv("ML_ENABLE_GBM")), "true")

	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	if cfg.OpenAIAPIKey == "" {
		log.Println("Warning: OPENAI_API_KEY not set, advisor will be disabled")
	}

	cfg.OpenAIModel = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o-mini"
	}

	cfg.AdvisorMaxHistory = 20
	if v := os.Getenv("ADVISOR_MAX_HISTORY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.AdvisorMaxHistory = n
		}
	}

	cfg.SSHEnabled = strings.EqualFold(strings.TrimSpace(os.Getenv("SSH_ENABLED")), "true")

	cfg.SSHBind = strings.TrimSpace(os.Getenv("SSH_BIND"))
	if cfg.SSHBind == "" {
		cfg.SSHBind = "0.0.0.0"
	}

	cfg.SSHPort = 2222
	if v := strings.TrimSpace(os.Getenv("SSH_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SSHPort = n
		}
	}

	cfg.SSHHostKeyPath = strings.TrimSpace(os.Getenv("SSH_HOST_KEY_PATH"))
	if cfg.SSHHostKeyPath == "" {
		cfg.SSHHostKeyPath = ".ssh/academic_compass_ed25519"
	}

	return cfg
}
