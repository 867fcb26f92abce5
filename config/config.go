package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// EnvFileVar optionally points at an alternate .env file.
	EnvFileVar = "SNIPOCR_ENV"

	DefaultHotkey    = "Shift+Alt+S"
	DefaultLanguages = "eng"
)

type LoadOptions struct {
	TesseractCmdOverride string
	LanguagesOverride    string
}

type Config struct {
	// TesseractCmd is an optional path to a tesseract executable. Empty means
	// use the linked library.
	TesseractCmd      string
	Languages         []string
	PSM               int
	Hotkey            string
	OCRDeadlineSec    int
	EnableFileLogging bool
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Configuration sources in priority order:
	// 1) explicit overrides from the caller (CLI flags)
	// 2) process environment
	// 3) .env next to the executable, or the file named by SNIPOCR_ENV
	if envPath := resolveEnvPath(); envPath != "" {
		_ = godotenv.Load(envPath)
	}

	ocrDeadlineSec := 20
	if v := os.Getenv("OCR_DEADLINE_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ocrDeadlineSec = n
		}
	}

	psm := 0
	if v := os.Getenv("TESSERACT_PSM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			psm = n
		}
	}

	tesseractCmd := os.Getenv("TESSERACT_CMD")
	if override := strings.TrimSpace(opts.TesseractCmdOverride); override != "" {
		tesseractCmd = override
	}

	languages := getEnvWithDefault("OCR_LANGUAGES", DefaultLanguages)
	if override := strings.TrimSpace(opts.LanguagesOverride); override != "" {
		languages = override
	}

	cfg := &Config{
		TesseractCmd:      tesseractCmd,
		Languages:         splitList(languages),
		PSM:               psm,
		Hotkey:            getEnvWithDefault("HOTKEY", DefaultHotkey),
		OCRDeadlineSec:    ocrDeadlineSec,
		EnableFileLogging: strings.ToLower(os.Getenv("ENABLE_FILE_LOGGING")) == "true",
	}

	return cfg, nil
}

func resolveEnvPath() string {
	if alt := os.Getenv(EnvFileVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
	if _, err := os.Stat(exeEnv); err == nil {
		return exeEnv
	}

	return ""
}

// splitList splits a comma-separated value, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
