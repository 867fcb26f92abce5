package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"snipocr/clipboard"
	"snipocr/config"
	"snipocr/eventloop"
	"snipocr/logutil"
	"snipocr/notification"
	"snipocr/ocr"
	"snipocr/overlay"
	"snipocr/screenshot"
	"snipocr/session"
	"snipocr/singleinstance"
	"snipocr/tray"
)

type appOptions struct {
	runOnce      bool
	runOnceStd   bool
	selectRegion bool
}

func main() {
	// Ensure DPI awareness before creating any windows or querying metrics
	enableDPIAwareness()

	// Lock main goroutine to its own OS thread so overlay and tray message
	// handling are not shuffled across threads
	runtime.LockOSThread()

	if err := runWithArgs(normalizeLegacyArgs(os.Args)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"snipocr"}
	}

	opts := &appOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *appOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "snipocr",
		Short:         "Select a screen region, OCR it, copy the text to the clipboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.selectRegion {
				return overlay.RunSelectionHelper(context.Background(), os.Stdout)
			}
			if opts.runOnce || opts.runOnceStd {
				return runOnceMode(opts.runOnceStd)
			}
			return runResident()
		},
	}

	cmd.Flags().BoolVar(&opts.runOnce, "run-once", false, "Capture once, copy to clipboard, and exit")
	cmd.Flags().BoolVar(&opts.runOnceStd, "run-once-std", false, "Capture once, print text to stdout, and exit")
	// Internal: the resident re-invokes itself with this flag to host one
	// overlay selection per helper process.
	cmd.Flags().BoolVar(&opts.selectRegion, "select-region", false, "Run one interactive region selection and print the result")
	_ = cmd.Flags().MarkHidden("select-region")

	return cmd
}

// normalizeLegacyArgs maps single-dash long flags (-run-once) to the
// double-dash form cobra expects.
func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		switch {
		case arg == "-run-once":
			normalized[i] = "--run-once"
		case strings.HasPrefix(arg, "-run-once="):
			normalized[i] = "--run-once=" + arg[len("-run-once="):]
		case arg == "-run-once-std":
			normalized[i] = "--run-once-std"
		case strings.HasPrefix(arg, "-run-once-std="):
			normalized[i] = "--run-once-std=" + arg[len("-run-once-std="):]
		}
	}

	return normalized
}

// runOnceMode prefers delegating to a resident over loopback TCP and falls
// back to a standalone capture when no resident answers.
func runOnceMode(outputToStdout bool) error {
	// Load .env early so SNIPOCR_PORT_* are applied before the delegation scan
	_, _ = config.Load()

	ctx := context.Background()
	client := singleinstance.NewClient()

	delegated, text, err := client.TryRunOnce(ctx, outputToStdout)
	if err != nil {
		log.Printf("Delegation error: %v; falling back to standalone", err)
		return runOCROnce(outputToStdout)
	}
	if delegated {
		log.Printf("Delegated to resident")
		if outputToStdout {
			fmt.Print(text)
		}
		return nil
	}
	log.Printf("No resident detected, running standalone")
	return runOCROnce(outputToStdout)
}

func runResident() error {
	// Load .env early so SNIPOCR_PORT_* are available for the pre-flight check
	_, _ = config.Load()

	startPort, _ := singleinstance.PortRange()
	addr := fmt.Sprintf("127.0.0.1:%d", startPort)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		log.Printf("Pre-flight: port %d busy, resident already exists", startPort)
		return fmt.Errorf("another instance is already running on port %d", startPort)
	}
	// We claimed the port; release it so the event loop can re-bind.
	_ = listener.Close()
	log.Printf("Pre-flight: port %d free, we are the resident", startPort)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logutil.Setup(cfg.EnableFileLogging)

	screenshot.Init()
	ocr.Init(ocr.Config{
		TesseractCmd: cfg.TesseractCmd,
		Languages:    cfg.Languages,
		PSM:          cfg.PSM,
	})
	if err := clipboard.Init(); err != nil {
		notification.ShowBlockingError("Clipboard unavailable", fmt.Sprintf("Startup check failed: %v", err))
		return fmt.Errorf("failed to initialize clipboard: %w", err)
	}

	log.Printf("snipocr initialized")
	log.Printf("Languages: %s", strings.Join(cfg.Languages, "+"))
	log.Printf("Hotkey: %s", cfg.Hotkey)
	log.Printf("OCR deadline: %ds", cfg.OCRDeadlineSec)

	tray.SetAboutHotkey(cfg.Hotkey)

	loop := eventloop.New(cfg)
	tooltip := fmt.Sprintf("snipocr - Press %s to capture", cfg.Hotkey)
	loop.SetDefaultTooltip(tooltip)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	trayIcon, _ := tray.New(tray.Config{
		Title:     "snipocr",
		Tooltip:   tooltip,
		OnCapture: loop.EnqueueCapture,
		OnExit:    func() { cancel() },
	})
	go trayIcon.Run()
	defer trayIcon.Destroy()

	loop.StartHotkey(cfg.Hotkey)

	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		cancel()
	}()

	if err := loop.Run(ctx); err != nil && err != context.Canceled {
		log.Printf("event loop stopped: %v", err)
	}
	return nil
}

// runOCROnce performs a single standalone capture and exits.
func runOCROnce(outputToStdout bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logutil.Setup(cfg.EnableFileLogging)

	screenshot.Init()
	ocr.Init(ocr.Config{
		TesseractCmd: cfg.TesseractCmd,
		Languages:    cfg.Languages,
		PSM:          cfg.PSM,
	})

	// Clipboard is initialized in both modes for consistent startup behavior
	if err := clipboard.Init(); err != nil {
		return fmt.Errorf("failed to initialize clipboard: %w", err)
	}

	log.Printf("Running OCR once with deadline %ds", cfg.OCRDeadlineSec)

	var target session.ResultTarget
	visible := 3 * time.Second
	if outputToStdout {
		target = session.StdoutTarget{}
		visible = 0
	} else {
		target = session.ClipboardTarget{}
	}

	selector := overlay.NewSelector()
	res, err := session.Execute(context.Background(), session.Options{
		Deadline:               time.Duration(cfg.OCRDeadlineSec) * time.Second,
		SelectRegion:           selector.Select,
		Target:                 target,
		SuccessVisibleDuration: visible,
	})
	if err != nil {
		if err == session.ErrSelectionCancelled {
			log.Printf("Selection cancelled, exiting")
			return nil
		}
		return fmt.Errorf("OCR failed: %w", err)
	}

	log.Printf("OCR completed (%d chars): %q", len(res.Text), logutil.SanitizeForLog(res.Text))
	return nil
}
