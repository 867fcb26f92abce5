package config

import (
	"reflect"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Hotkey != DefaultHotkey {
		t.Errorf("expected default hotkey %q, got %q", DefaultHotkey, cfg.Hotkey)
	}
	if cfg.OCRDeadlineSec != 20 {
		t.Errorf("expected default OCR deadline 20s, got %d", cfg.OCRDeadlineSec)
	}
	if !reflect.DeepEqual(cfg.Languages, []string{"eng"}) {
		t.Errorf("expected default languages [eng], got %v", cfg.Languages)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HOTKEY", "Ctrl+Shift+O")
	t.Setenv("TESSERACT_CMD", "/usr/local/bin/tesseract")
	t.Setenv("OCR_LANGUAGES", "eng, deu,")
	t.Setenv("OCR_DEADLINE_SEC", "45")
	t.Setenv("TESSERACT_PSM", "6")
	t.Setenv("ENABLE_FILE_LOGGING", "TRUE")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Hotkey != "Ctrl+Shift+O" {
		t.Errorf("hotkey = %q", cfg.Hotkey)
	}
	if cfg.TesseractCmd != "/usr/local/bin/tesseract" {
		t.Errorf("tesseract cmd = %q", cfg.TesseractCmd)
	}
	if !reflect.DeepEqual(cfg.Languages, []string{"eng", "deu"}) {
		t.Errorf("languages = %v", cfg.Languages)
	}
	if cfg.OCRDeadlineSec != 45 {
		t.Errorf("deadline = %d", cfg.OCRDeadlineSec)
	}
	if cfg.PSM != 6 {
		t.Errorf("psm = %d", cfg.PSM)
	}
	if !cfg.EnableFileLogging {
		t.Error("expected file logging enabled")
	}
}

func TestLoadInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("OCR_DEADLINE_SEC", "not-a-number")
	t.Setenv("TESSERACT_PSM", "-3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.OCRDeadlineSec != 20 {
		t.Errorf("expected fallback deadline 20, got %d", cfg.OCRDeadlineSec)
	}
	if cfg.PSM != 0 {
		t.Errorf("expected PSM 0 for invalid value, got %d", cfg.PSM)
	}
}

func TestLoadWithOptionsOverridesEnv(t *testing.T) {
	t.Setenv("TESSERACT_CMD", "/usr/bin/tesseract")
	t.Setenv("OCR_LANGUAGES", "eng")

	cfg, err := LoadWithOptions(LoadOptions{
		TesseractCmdOverride: "/opt/tess/bin/tesseract",
		LanguagesOverride:    "jpn+vert",
	})
	if err != nil {
		t.Fatalf("LoadWithOptions failed: %v", err)
	}
	if cfg.TesseractCmd != "/opt/tess/bin/tesseract" {
		t.Errorf("tesseract cmd = %q", cfg.TesseractCmd)
	}
	if !reflect.DeepEqual(cfg.Languages, []string{"jpn+vert"}) {
		t.Errorf("languages = %v", cfg.Languages)
	}
}
