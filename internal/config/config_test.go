package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("API_KEY", "")
	t.Setenv("ML_MODEL_PATH", "")
	t.Setenv("ML_SYNTHETIC_SAMPLES", "")
	t.Setenv("ML_SEED", "")
	t.Setenv("ML_TRAIN_HOUR_UTC", "")
	t.Setenv("ML_ENABLE_GBM", "")
	t.Setenv("ML_SCALER", "")
	t.Setenv("SSH_PORT", "")

	cfg := Load()
	if cfg.RedisURL != "localhost:6379" {
		t.Fatalf("expected default redis url, got %s", cfg.RedisURL)
	}
	if cfg.ModelPath != "models/best_model.json" {
		t.Fatalf("expected default model path, got %s", cfg.ModelPath)
	}
	if cfg.SyntheticSamples != 800 || cfg.Seed != 42 {
		t.Fatalf("expected default synthetic settings, got %d/%d", cfg.SyntheticSamples, cfg.Seed)
	}
	if cfg.TrainHourUTC != 3 {
		t.Fatalf("expected default train hour 3, got %d", cfg.TrainHourUTC)
	}
	if cfg.EnableGBM {
		t.Fatal("gbm candidate should be off by default")
	}
	if cfg.SSHPort != 2222 {
		t.Fatalf("expected default ssh port 2222, got %d", cfg.SSHPort)
	}
	if cfg.ScalerKind != "standard" {
		t.Fatalf("expected default scaler standard, got %s", cfg.ScalerKind)
	}
}

func TestLoadScalerKind(t *testing.T) {
	t.Setenv("ML_SCALER", "MinMax")
	if cfg := Load(); cfg.ScalerKind != "minmax" {
		t.Fatalf("expected minmax scaler, got %s", cfg.ScalerKind)
	}

	t.Setenv("ML_SCALER", "robust")
	if cfg := Load(); cfg.ScalerKind != "standard" {
		t.Fatalf("unknown scaler should fall back to standard, got %s", cfg.ScalerKind)
	}
}

func TestLoadWithEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis:6379")
	t.Setenv("API_KEY", "secret")
	t.Setenv("ML_MODEL_PATH", "/tmp/bundle.json")
	t.Setenv("ML_DATASET_PATHS", "a.csv, b.csv ,")
	t.Setenv("ML_SYNTHETIC_SAMPLES", "200")
	t.Setenv("ML_TRAIN_HOUR_UTC", "23")
	t.Setenv("ML_ENABLE_GBM", "true")

	cfg := Load()
	if cfg.DatabaseURL != "postgres://example" || cfg.RedisURL != "redis:6379" || cfg.APIKey != "secret" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.ModelPath != "/tmp/bundle.json" {
		t.Fatalf("expected model path override, got %s", cfg.ModelPath)
	}
	if len(cfg.DatasetCSVPaths) != 2 || cfg.DatasetCSVPaths[0] != "a.csv" || cfg.DatasetCSVPaths[1] != "b.csv" {
		t.Fatalf("unexpected dataset paths: %v", cfg.DatasetCSVPaths)
	}
	if cfg.SyntheticSamples != 200 {
		t.Fatalf("expected 200 synthetic samples, got %d", cfg.SyntheticSamples)
	}
	if cfg.TrainHourUTC != 23 {
		t.Fatalf("expected train hour 23, got %d", cfg.TrainHourUTC)
	}
	if !cfg.EnableGBM {
		t.Fatal("expected gbm candidate enabled")
	}

	t.Setenv("ML_SYNTHETIC_SAMPLES", "bad")
	t.Setenv("ML_TRAIN_HOUR_UTC", "99")
	cfg = Load()
	if cfg.SyntheticSamples != 800 {
		t.Fatalf("invalid sample count should fall back to default, got %d", cfg.SyntheticSamples)
	}
	if cfg.TrainHourUTC != 3 {
		t.Fatalf("out-of-range hour should fall back to default, got %d", cfg.TrainHourUTC)
	}
}
