package overlay

import "snipocr/screenshot"

// minSelectionSpan filters out accidental clicks: drags smaller than this in
// either dimension do not complete a selection.
const minSelectionSpan = 5

// dragTracker turns a press/move/release mouse gesture into a normalized
// screen region. It completes at most once; platform code feeds it raw
// coordinates and reads the rubber-band rectangle back for painting.
type dragTracker struct {
	active    bool
	completed bool
	start     screenshot.Point
	current   screenshot.Point
}

// Begin starts a drag at p. Restarting an in-progress drag moves the anchor.
func (t *dragTracker) Begin(p screenshot.Point) {
	if t.completed {
		return
	}
	t.active = true
	t.start = p
	t.current = p
}

// Move updates the floating corner. It is a no-op outside an active drag.
func (t *dragTracker) Move(p screenshot.Point) {
	if !t.active {
		return
	}
	t.current = p
}

// Rubberband returns the current normalized selection rectangle for painting,
// and whether a drag is in progress.
func (t *dragTracker) Rubberband() (screenshot.Region, bool) {
	if !t.active {
		return screenshot.Region{}, false
	}
	return screenshot.RegionFromPoints(t.start, t.current), true
}

// Finish ends the drag at p. It returns the normalized region and true
// exactly once per completed drag; drags below minSelectionSpan report false
// and leave the tracker ready for another attempt.
func (t *dragTracker) Finish(p screenshot.Point) (screenshot.Region, bool) {
	if !t.active || t.completed {
		return screenshot.Region{}, false
	}
	t.active = false
	region := screenshot.RegionFromPoints(t.start, p)
	if region.Width < minSelectionSpan || region.Height < minSelectionSpan {
		return screenshot.Region{}, false
	}
	t.completed = true
	return region, true
}

// Cancel aborts any in-progress drag without completing.
func (t *dragTracker) Cancel() {
	t.active = false
}
