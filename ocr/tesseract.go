package ocr

import (
	"context"
	"fmt"
	"strconv"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine performs OCR through the linked libtesseract via gosseract.
type TesseractEngine struct {
	languages     []string
	psm           int
	clientFactory func() *gosseract.Client
}

// NewTesseractEngine constructs a library-backed Tesseract engine. languages
// are trained-data names like "eng"; psm <= 0 leaves Tesseract's default page
// segmentation mode in place.
func NewTesseractEngine(languages []string, psm int) *TesseractEngine {
	return &TesseractEngine{
		languages:     languages,
		psm:           psm,
		clientFactory: gosseract.NewClient,
	}
}

func (e *TesseractEngine) Name() string { return "tesseract" }

// Recognize runs OCR on PNG bytes. The underlying C call is not cancellable,
// so the deadline is honored by abandoning the call and letting it finish in
// the background (same approach the worker pool takes).
func (e *TesseractEngine) Recognize(ctx context.Context, png []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type res struct {
		text string
		err  error
	}
	ch := make(chan res, 1)
	go func() {
		text, err := e.recognize(png)
		ch <- res{text: text, err: err}
	}()

	select {
	case r := <-ch:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (e *TesseractEngine) recognize(png []byte) (string, error) {
	c := e.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(png); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	if len(e.languages) > 0 {
		if err := c.SetLanguage(e.languages...); err != nil {
			return "", fmt.Errorf("set languages: %w", err)
		}
	}
	if e.psm > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("tessedit_pageseg_mode"), strconv.Itoa(e.psm)); err != nil {
			return "", fmt.Errorf("set page segmentation mode: %w", err)
		}
	}

	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return text, nil
}
