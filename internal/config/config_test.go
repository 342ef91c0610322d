package config_test

import (
	"testing"
	"time"

	"github.com/exambank/qbank/internal/config"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := config.FromEnv()
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.DBDriver != "sqlite" || cfg.BlobDriver != "fs" {
		t.Errorf("drivers = %q/%q", cfg.DBDriver, cfg.BlobDriver)
	}
	if cfg.SessionTTL != 30*time.Minute || cfg.SessionSweep != 5*time.Minute {
		t.Errorf("session timings = %v/%v", cfg.SessionTTL, cfg.SessionSweep)
	}
	if cfg.OCRLangs != "eng+vie" || cfg.OCRDPI != 300 {
		t.Errorf("ocr = %q/%d", cfg.OCRLangs, cfg.OCRDPI)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("BLOB_DRIVER", "minio")
	t.Setenv("IMPORT_SESSION_TTL", "90s")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("OCR_DPI", "150")
	t.Setenv("OCR_ENABLED", "false")

	cfg := config.FromEnv()
	if cfg.HTTPAddr != ":9999" || cfg.BlobDriver != "minio" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.SessionTTL != 90*time.Second {
		t.Errorf("SessionTTL = %v", cfg.SessionTTL)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.OCRDPI != 150 || cfg.OCREnabled {
		t.Errorf("ocr = %d/%v", cfg.OCRDPI, cfg.OCREnabled)
	}
}

func TestFromEnvBadValuesFallBack(t *testing.T) {
	t.Setenv("IMPORT_SESSION_TTL", "not-a-duration")
	t.Setenv("OCR_DPI", "12x")
	cfg := config.FromEnv()
	if cfg.SessionTTL != 30*time.Minute {
		t.Errorf("SessionTTL = %v", cfg.SessionTTL)
	}
	if cfg.OCRDPI != 300 {
		t.Errorf("OCRDPI = %d", cfg.OCRDPI)
	}
}
