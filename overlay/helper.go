package overlay

import (
	"fmt"
	"strings"

	"snipocr/screenshot"
)

// The non-Windows overlay runs in a short-lived helper process because fyne
// supports a single app lifecycle per process. The resident re-invokes its
// own binary with HelperFlag and reads one result line from its stdout.
const (
	// HelperFlag re-invokes the snipocr binary as a selection helper.
	HelperFlag = "--select-region"

	cancelledToken = "CANCELLED"
)

// encodeSelection renders a selection result as the helper's stdout line.
func encodeSelection(region screenshot.Region, cancelled bool) string {
	if cancelled {
		return cancelledToken
	}
	return fmt.Sprintf("%d %d %d %d", region.X, region.Y, region.Width, region.Height)
}

// decodeSelection parses a helper stdout line back into a selection result.
func decodeSelection(line string) (screenshot.Region, bool, error) {
	line = strings.TrimSpace(line)
	if line == cancelledToken {
		return screenshot.Region{}, true, nil
	}
	var r screenshot.Region
	n, err := fmt.Sscanf(line, "%d %d %d %d", &r.X, &r.Y, &r.Width, &r.Height)
	if err != nil || n != 4 {
		return screenshot.Region{}, false, fmt.Errorf("malformed selection result %q", line)
	}
	if r.Empty() {
		return screenshot.Region{}, false, fmt.Errorf("selection result %q has no area", line)
	}
	return r, false, nil
}
