package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"snipocr/config"
	"snipocr/ocr"
	"snipocr/screenshot"
)

const (
	maxFileSizeMB = 10
	maxFileSize   = maxFileSizeMB * 1024 * 1024
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

type cliOptions struct {
	filePath     string
	jsonOutput   bool
	verbose      bool
	languages    string
	tesseractCmd string
	region       string
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return runWithArgs(os.Args)
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"ocr-file"}
	}

	opts := &cliOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ocr-file",
		Short:         "Run OCR on PNG input",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithOptions(*opts)
		},
	}

	cmd.Flags().StringVar(&opts.filePath, "file", "", "Path to PNG file (use '-' for stdin)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")
	cmd.Flags().StringVar(&opts.languages, "lang", "", "Comma-separated Tesseract languages (highest precedence)")
	cmd.Flags().StringVar(&opts.tesseractCmd, "tesseract-cmd", "", "Path to tesseract executable (highest precedence)")
	cmd.Flags().StringVar(&opts.region, "region", "", "Crop to x,y,w,h before OCR")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runWithOptions(opts cliOptions) error {
	// Configure logging BEFORE any other operations.
	if !opts.verbose {
		log.SetOutput(io.Discard)
	} else {
		log.SetOutput(os.Stderr)
		fmt.Fprintf(os.Stderr, "[verbose] Starting OCR tool\n")
	}

	cfg, err := config.LoadWithOptions(config.LoadOptions{
		TesseractCmdOverride: opts.tesseractCmd,
		LanguagesOverride:    opts.languages,
	})
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if opts.verbose {
		fmt.Fprintf(os.Stderr, "[verbose] Languages: %s\n", strings.Join(cfg.Languages, "+"))
		if cfg.TesseractCmd != "" {
			fmt.Fprintf(os.Stderr, "[verbose] Tesseract binary: %s\n", cfg.TesseractCmd)
		}
	}

	ocr.Init(ocr.Config{
		TesseractCmd: cfg.TesseractCmd,
		Languages:    cfg.Languages,
		PSM:          cfg.PSM,
	})

	return processOCR(opts)
}

func processOCR(opts cliOptions) error {
	var imageData []byte
	var err error

	if opts.filePath == "-" {
		if opts.verbose {
			fmt.Fprintf(os.Stderr, "[verbose] Reading image from stdin\n")
		}
		imageData, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		if opts.verbose {
			fmt.Fprintf(os.Stderr, "[verbose] Reading image from file: %s\n", opts.filePath)
		}
		imageData, err = os.ReadFile(opts.filePath)
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", opts.filePath, err)
		}
	}

	if len(imageData) == 0 {
		return fmt.Errorf("input file is empty")
	}
	if len(imageData) > maxFileSize {
		return fmt.Errorf("input file exceeds maximum size of %d MB", maxFileSizeMB)
	}

	if len(imageData) < len(pngMagic) || !bytes.Equal(imageData[:len(pngMagic)], pngMagic) {
		return fmt.Errorf("input is not a valid PNG file (invalid magic number)")
	}

	if opts.region != "" {
		imageData, err = cropPNG(imageData, opts.region)
		if err != nil {
			return err
		}
		if opts.verbose {
			fmt.Fprintf(os.Stderr, "[verbose] Cropped to region %s\n", opts.region)
		}
	}

	if opts.verbose {
		fmt.Fprintf(os.Stderr, "[verbose] OCR input is %d bytes\n", len(imageData))
	}

	return performOCR(imageData, opts.filePath, opts.jsonOutput, opts.verbose)
}

// cropPNG decodes the PNG, crops it to the "x,y,w,h" region, and re-encodes.
func cropPNG(imageData []byte, spec string) ([]byte, error) {
	region, err := parseRegion(spec)
	if err != nil {
		return nil, err
	}

	img, err := png.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode PNG: %w", err)
	}

	cropped, err := screenshot.Crop(img, region)
	if err != nil {
		return nil, fmt.Errorf("failed to crop: %w", err)
	}

	return screenshot.EncodePNG(cropped)
}

func parseRegion(spec string) (screenshot.Region, error) {
	parts := strings.Split(spec, ",")
	if len(parts) != 4 {
		return screenshot.Region{}, fmt.Errorf("region must be x,y,w,h, got %q", spec)
	}
	vals := make([]int, 4)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return screenshot.Region{}, fmt.Errorf("region component %q is not an integer", p)
		}
		vals[i] = n
	}
	region := screenshot.Region{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}
	if region.Empty() {
		return screenshot.Region{}, fmt.Errorf("region %q has no area", spec)
	}
	return region, nil
}

func performOCR(imageData []byte, sourcePath string, jsonOutput bool, verbose bool) error {
	startTime := time.Now()
	text, err := ocr.RecognizeImage(context.Background(), imageData)
	elapsed := time.Since(startTime)

	if err != nil {
		if verbose {
			fmt.Fprintf(os.Stderr, "[verbose] OCR failed after %v: %v\n", elapsed, err)
		}
		return fmt.Errorf("OCR failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "[verbose] OCR completed in %v, extracted %d characters\n", elapsed, len(text))
	}

	return outputResult(text, sourcePath, elapsed, jsonOutput)
}

type OCRResult struct {
	Text      string  `json:"text"`
	Source    string  `json:"source"`
	Timestamp string  `json:"timestamp"`
	Duration  float64 `json:"duration_seconds"`
	CharCount int     `json:"character_count"`
}

func outputResult(text string, sourcePath string, elapsed time.Duration, jsonOutput bool) error {
	if jsonOutput {
		result := OCRResult{
			Text:      text,
			Source:    sourcePath,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Duration:  elapsed.Seconds(),
			CharCount: len(text),
		}

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			return fmt.Errorf("failed to encode JSON output: %w", err)
		}
	} else {
		fmt.Print(text)
	}

	return nil
}
