// Package ocr wires screen captures into a Tesseract OCR engine. The engine
// is pluggable: by default the linked libtesseract is used via gosseract, and
// a TESSERACT_CMD override switches to driving an external tesseract binary.
package ocr

import (
	"context"
	"fmt"
	"log"
	"strings"

	"snipocr/screenshot"
)

// Config selects and parameterizes the OCR engine.
type Config struct {
	// TesseractCmd, when non-empty, is a path to a tesseract executable to
	// shell out to instead of using the linked library.
	TesseractCmd string
	// Languages are Tesseract trained-data names, e.g. "eng", "deu".
	Languages []string
	// PSM is the Tesseract page segmentation mode; 0 keeps the default.
	PSM int
}

// Init installs the default engine per cfg.
func Init(cfg Config) {
	if cfg.TesseractCmd != "" {
		log.Printf("OCR engine: external binary %s", cfg.TesseractCmd)
		SetDefaultEngine(NewExecEngine(cfg.TesseractCmd, cfg.Languages, cfg.PSM))
		return
	}
	log.Printf("OCR engine: linked libtesseract")
	SetDefaultEngine(NewTesseractEngine(cfg.Languages, cfg.PSM))
}

// Recognize captures the given screen region and runs OCR on it. The result
// has surrounding whitespace trimmed.
func Recognize(ctx context.Context, region screenshot.Region) (string, error) {
	log.Printf("Capturing region: X=%d Y=%d Width=%d Height=%d", region.X, region.Y, region.Width, region.Height)

	imageData, err := screenshot.CaptureRegion(region)
	if err != nil {
		return "", err
	}

	return RecognizeImage(ctx, imageData)
}

// RecognizeImage runs OCR on already-captured PNG bytes and returns the
// trimmed text.
func RecognizeImage(ctx context.Context, imageData []byte) (string, error) {
	engine := DefaultEngine()
	if engine == nil {
		return "", fmt.Errorf("no OCR engine configured, call ocr.Init first")
	}

	text, err := engine.Recognize(ctx, imageData)
	if err != nil {
		return "", fmt.Errorf("%s: %w", engine.Name(), err)
	}
	return strings.TrimSpace(text), nil
}
