// Package tray keeps a system tray icon alive for the resident process and
// exposes tooltip updates for busy/idle feedback.
package tray

import (
	"fmt"
	"log"
	"sync/atomic"

	"github.com/getlantern/systray"
)

type Config struct {
	Title   string
	Tooltip string
	// OnCapture is invoked when the user picks "Capture region" from the menu.
	OnCapture func()
	// OnExit is invoked when the user picks "Quit".
	OnExit func()
}

type Tray struct {
	cfg Config
}

var (
	ready       atomic.Bool
	aboutHotkey atomic.Value // string
	aboutExtra  atomic.Value // string
)

// SetAboutHotkey records the active hotkey for the About text.
func SetAboutHotkey(combo string) { aboutHotkey.Store(combo) }

// SetAboutExtra appends a line to the About text (e.g. resident port).
func SetAboutExtra(extra string) { aboutExtra.Store(extra) }

// UpdateTooltip changes the tray tooltip; a no-op until the tray is ready.
func UpdateTooltip(tooltip string) {
	if ready.Load() {
		systray.SetTooltip(tooltip)
	}
}

func New(cfg Config) (*Tray, error) {
	if cfg.Title == "" {
		cfg.Title = "snipocr"
	}
	return &Tray{cfg: cfg}, nil
}

// Run starts the systray loop. It blocks, so callers run it in a goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Destroy tears the tray icon down.
func (t *Tray) Destroy() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes())
	systray.SetTitle(t.cfg.Title)
	systray.SetTooltip(t.cfg.Tooltip)

	mCapture := systray.AddMenuItem("Capture region", "Select a screen region to OCR")
	mAbout := systray.AddMenuItem("About", "About this tool")
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Quit the application")

	ready.Store(true)

	go func() {
		for {
			select {
			case <-mCapture.ClickedCh:
				if t.cfg.OnCapture != nil {
					t.cfg.OnCapture()
				}
			case <-mAbout.ClickedCh:
				log.Printf("Tray: %s", t.aboutText())
			case <-mQuit.ClickedCh:
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) aboutText() string {
	text := t.cfg.Title
	if combo, ok := aboutHotkey.Load().(string); ok && combo != "" {
		text = fmt.Sprintf("%s - press %s to capture", text, combo)
	}
	if extra, ok := aboutExtra.Load().(string); ok && extra != "" {
		text += " (" + extra + ")"
	}
	return text
}

func (t *Tray) onExit() {
	ready.Store(false)
	if t.cfg.OnExit != nil {
		t.cfg.OnExit()
	}
}
