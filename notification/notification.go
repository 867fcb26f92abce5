// Package notification gives lightweight capture feedback through the tray
// tooltip and the log: a ticking countdown while OCR runs, then the result
// text. Blocking errors use a native dialog where the platform has one.
package notification

import (
	"fmt"
	"log"
	"sync"
	"time"

	"snipocr/logutil"
	"snipocr/tray"
)

var (
	mu        sync.Mutex
	countdown chan struct{}
)

// StartCountdownPopup begins a once-per-second tooltip countdown. A previous
// countdown, if any, is stopped first.
func StartCountdownPopup(timeoutSeconds int) error {
	mu.Lock()
	defer mu.Unlock()

	stopLocked()
	stop := make(chan struct{})
	countdown = stop

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		remaining := timeoutSeconds
		setStatus(fmt.Sprintf("Recognizing... %ds", remaining))
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				remaining--
				if remaining <= 0 {
					setStatus("Recognizing...")
					return
				}
				setStatus(fmt.Sprintf("Recognizing... %ds", remaining))
			}
		}
	}()
	return nil
}

// UpdatePopupText stops the countdown and shows the result text, truncated
// for the tooltip.
func UpdatePopupText(text string) error {
	mu.Lock()
	defer mu.Unlock()

	stopLocked()
	display := text
	if len(display) > 200 {
		display = logutil.TruncateRunes(display, 200) + "..."
	}
	setStatus("Copied: " + display)
	log.Printf("OCR result shown (%d chars)", len(text))
	return nil
}

// ClosePopup stops any countdown and clears the status.
func ClosePopup() error {
	mu.Lock()
	defer mu.Unlock()

	stopLocked()
	setStatus("")
	return nil
}

func stopLocked() {
	if countdown != nil {
		close(countdown)
		countdown = nil
	}
}

func setStatus(status string) {
	if status == "" {
		tray.UpdateTooltip("snipocr")
		return
	}
	tray.UpdateTooltip("snipocr - " + status)
}
