package config

import (
	"os"
	"strings"
)

// PipelineConfig carries the filesystem locations the verification
// pipeline needs: model files and the scratch directory for per-run
// workspaces.
type PipelineConfig struct {
	WorkingDir   string
	CascadePath  string
	FaceModelDir string
	OCRLanguages []string
}

func NewPipelineConfig() PipelineConfig {
	cfg := PipelineConfig{
		WorkingDir:   envOrDefault("EKYC_WORKING_DIR", "./storage/runs"),
		CascadePath:  envOrDefault("EKYC_FACE_CASCADE", "./assets/haarcascade_frontalface_default.xml"),
		FaceModelDir: envOrDefault("EKYC_FACE_MODELS", "./assets/models"),
	}

	languages := envOrDefault("EKYC_OCR_LANGUAGES", "eng")
	for _, lang := range strings.Split(languages, ",") {
		if lang = strings.TrimSpace(lang); lang != "" {
			cfg.OCRLanguages = append(cfg.OCRLanguages, lang)
		}
	}

	return cfg
}

func envOrDefault(key string, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
