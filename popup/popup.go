package popup

import (
	"log"

	"snipocr/notification"
)

// Show displays a short-lived status popup. Fire-and-forget: the notification
// layer manages its own lifetime.
func Show(text string) error {
	log.Printf("Popup.Show called with %d characters", len(text))
	_ = notification.UpdatePopupText(text)
	return nil
}

// StartCountdown displays a countdown popup that updates every second.
func StartCountdown(timeoutSeconds int) error {
	log.Printf("Popup.StartCountdown called with %d seconds", timeoutSeconds)
	return notification.StartCountdownPopup(timeoutSeconds)
}

// UpdateText updates the text of the current popup (switches from countdown to result).
func UpdateText(text string) error {
	log.Printf("Popup.UpdateText called with %d characters", len(text))
	return notification.UpdatePopupText(text)
}

// Close closes the current popup.
func Close() error {
	log.Printf("Popup.Close called")
	return notification.ClosePopup()
}
