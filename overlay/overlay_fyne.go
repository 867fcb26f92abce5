//go:build !windows

package overlay

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"log"
	"os"
	"os/exec"
	"strings"

	fyne "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"snipocr/screenshot"
)

// fyneSelector runs each selection in a fresh helper process. Fyne allows one
// app lifecycle per process, so the resident cannot host the overlay itself
// and select repeatedly.
type fyneSelector struct{}

func newPlatformSelector() Selector { return &fyneSelector{} }

func (s *fyneSelector) Select(ctx context.Context) (screenshot.Region, bool, error) {
	exe, err := os.Executable()
	if err != nil {
		return screenshot.Region{}, false, err
	}

	cmd := exec.CommandContext(ctx, exe, HelperFlag)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return screenshot.Region{}, false, ctxErr
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return screenshot.Region{}, false, fmt.Errorf("selection helper failed: %v: %s", err, msg)
		}
		return screenshot.Region{}, false, fmt.Errorf("selection helper failed: %w", err)
	}

	return decodeSelection(stdout.String())
}

// RunSelectionHelper drives one interactive selection in this process and
// writes the result line to w. It owns the process's only fyne lifecycle, so
// it must not be called twice.
func RunSelectionHelper(ctx context.Context, w io.Writer) error {
	region, cancelled, err := runFyneSelection(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, encodeSelection(region, cancelled))
	return err
}

// runFyneSelection shows the frozen-screenshot overlay in a borderless
// fullscreen fyne splash window.
func runFyneSelection(ctx context.Context) (screenshot.Region, bool, error) {
	virtual, err := screenshot.VirtualBounds()
	if err != nil {
		return screenshot.Region{}, false, err
	}
	frozen, err := screenshot.Capture()
	if err != nil {
		return screenshot.Region{}, false, fmt.Errorf("failed to capture screen: %v", err)
	}

	a := app.New()
	drv, ok := a.Driver().(desktop.Driver)
	if !ok {
		return screenshot.Region{}, false, fmt.Errorf("region selection requires a desktop driver")
	}

	var (
		result    screenshot.Region
		cancelled bool
	)

	w := drv.CreateSplashWindow()
	w.SetPadded(false)

	area := newSelectionArea(frozen, func(region screenshot.Region, aborted bool) {
		if aborted {
			cancelled = true
		} else {
			// Widget coordinates -> absolute virtual-screen coordinates.
			region.X += virtual.Min.X
			region.Y += virtual.Min.Y
			result = region
		}
		a.Quit()
	})
	w.SetContent(area)
	w.SetFullScreen(true)

	w.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if ev.Name == fyne.KeyEscape {
			log.Printf("Selection cancelled")
			area.abort()
		}
	})

	w.Show()
	area.scale = w.Canvas().Scale()
	a.Run()

	select {
	case <-ctx.Done():
		return screenshot.Region{}, false, ctx.Err()
	default:
	}
	if cancelled || result.Empty() {
		return screenshot.Region{}, true, nil
	}
	log.Printf("Selection completed: %+v", result)
	return result, false, nil
}

// selectionArea is the overlay widget: frozen screen background, dimming
// layer, and a rubber-band rectangle driven by the drag tracker.
type selectionArea struct {
	widget.BaseWidget

	frozen  image.Image
	tracker dragTracker
	scale   float32
	done    func(region screenshot.Region, aborted bool)

	bg   *canvas.Image
	dim  *canvas.Rectangle
	band *canvas.Rectangle
}

var (
	_ desktop.Mouseable = (*selectionArea)(nil)
	_ desktop.Hoverable = (*selectionArea)(nil)
)

func newSelectionArea(frozen image.Image, done func(screenshot.Region, bool)) *selectionArea {
	s := &selectionArea{frozen: frozen, scale: 1, done: done}
	s.ExtendBaseWidget(s)
	return s
}

func (s *selectionArea) abort() {
	s.tracker.Cancel()
	if s.done != nil {
		s.done(screenshot.Region{}, true)
	}
}

func (s *selectionArea) Cursor() desktop.Cursor { return desktop.CrosshairCursor }

func (s *selectionArea) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	s.tracker.Begin(s.toPixel(ev.Position))
	s.Refresh()
}

func (s *selectionArea) MouseUp(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	region, ok := s.tracker.Finish(s.toPixel(ev.Position))
	if !ok {
		log.Printf("Selection too small, ignoring")
		s.Refresh()
		return
	}
	if s.done != nil {
		s.done(region, false)
	}
}

func (s *selectionArea) MouseIn(*desktop.MouseEvent) {}
func (s *selectionArea) MouseOut()                   {}

func (s *selectionArea) MouseMoved(ev *desktop.MouseEvent) {
	if _, active := s.tracker.Rubberband(); !active {
		return
	}
	s.tracker.Move(s.toPixel(ev.Position))
	s.Refresh()
}

// toPixel converts device-independent widget coordinates to screen pixels.
func (s *selectionArea) toPixel(pos fyne.Position) screenshot.Point {
	return screenshot.Point{
		X: int(pos.X * s.scale),
		Y: int(pos.Y * s.scale),
	}
}

// toUnits converts a pixel region back to widget coordinates for painting.
func (s *selectionArea) toUnits(r screenshot.Region) (fyne.Position, fyne.Size) {
	return fyne.NewPos(float32(r.X)/s.scale, float32(r.Y)/s.scale),
		fyne.NewSize(float32(r.Width)/s.scale, float32(r.Height)/s.scale)
}

func (s *selectionArea) CreateRenderer() fyne.WidgetRenderer {
	s.bg = canvas.NewImageFromImage(s.frozen)
	s.bg.FillMode = canvas.ImageFillStretch
	s.dim = canvas.NewRectangle(color.NRGBA{A: 96})
	s.band = canvas.NewRectangle(color.Transparent)
	s.band.StrokeColor = color.NRGBA{R: 255, A: 255}
	s.band.StrokeWidth = 2
	s.band.Hide()
	return &selectionAreaRenderer{area: s}
}

type selectionAreaRenderer struct {
	area *selectionArea
}

func (r *selectionAreaRenderer) Layout(size fyne.Size) {
	r.area.bg.Resize(size)
	r.area.dim.Resize(size)
}

func (r *selectionAreaRenderer) MinSize() fyne.Size { return fyne.NewSize(1, 1) }

func (r *selectionAreaRenderer) Refresh() {
	band, active := r.area.tracker.Rubberband()
	if !active {
		r.area.band.Hide()
		canvas.Refresh(r.area)
		return
	}
	pos, size := r.area.toUnits(band)
	r.area.band.Move(pos)
	r.area.band.Resize(size)
	r.area.band.Show()
	canvas.Refresh(r.area)
}

func (r *selectionAreaRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.area.bg, r.area.dim, r.area.band}
}

func (r *selectionAreaRenderer) Destroy() {}
