// Package overlay implements the drag-to-select capture overlay: a
// full-screen window frozen on a screenshot that turns a mouse drag into a
// normalized screen region.
package overlay

import (
	"context"

	"snipocr/screenshot"
)

// Selector defines a synchronous region-selection API owned by the event loop.
// The call is blocking and MUST be invoked only from the single event-loop
// goroutine. Returns (region, cancelled, error). If cancelled is true, region
// is undefined and err is nil.
type Selector interface {
	Select(ctx context.Context) (screenshot.Region, bool, error)
}

// NewSelector returns the platform implementation: native win32 on Windows, a
// fyne splash window elsewhere.
func NewSelector() Selector {
	return newPlatformSelector()
}
