//go:build windows

package overlay

import (
	"context"
	"fmt"
	"image"
	"io"
	"log"
	"syscall"
	"time"
	"unsafe"

	"snipocr/screenshot"

	"github.com/lxn/win"
)

// The overlay window is a topmost popup covering the whole virtual screen,
// painted with a frozen screenshot so the desktop appears live underneath.
// wndProc is a C callback, so overlay state lives in package globals guarded
// by the one-selection-at-a-time contract of Selector.
var (
	overlayHwnd    win.HWND
	overlayTracker dragTracker
	overlayResult  chan overlaySelection
	overlayScreen  *image.RGBA
	overlayOriginX int32
	overlayOriginY int32
)

type overlaySelection struct {
	region    screenshot.Region
	cancelled bool
}

var (
	gdi32DLL      = syscall.NewLazyDLL("gdi32.dll")
	procCreatePen = gdi32DLL.NewProc("CreatePen")
	procRectangle = gdi32DLL.NewProc("Rectangle")
)

type windowsSelector struct{}

func newPlatformSelector() Selector { return &windowsSelector{} }

func (s *windowsSelector) Select(ctx context.Context) (screenshot.Region, bool, error) {
	region, cancelled, err := runOverlay()
	if err != nil {
		return screenshot.Region{}, false, err
	}
	select {
	case <-ctx.Done():
		return screenshot.Region{}, false, ctx.Err()
	default:
	}
	return region, cancelled, nil
}

// RunSelectionHelper keeps the helper flag working uniformly; the resident on
// Windows selects in-process, so this only serves explicit invocations.
func RunSelectionHelper(ctx context.Context, w io.Writer) error {
	region, cancelled, err := (&windowsSelector{}).Select(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, encodeSelection(region, cancelled))
	return err
}

func runOverlay() (screenshot.Region, bool, error) {
	// Virtual screen metrics cover all monitors, origin may be negative.
	vx := win.GetSystemMetrics(win.SM_XVIRTUALSCREEN)
	vy := win.GetSystemMetrics(win.SM_YVIRTUALSCREEN)
	vw := win.GetSystemMetrics(win.SM_CXVIRTUALSCREEN)
	vh := win.GetSystemMetrics(win.SM_CYVIRTUALSCREEN)
	log.Printf("Virtual screen: x=%d y=%d w=%d h=%d", vx, vy, vw, vh)

	overlayOriginX = vx
	overlayOriginY = vy

	frozen, err := screenshot.Capture()
	if err != nil {
		return screenshot.Region{}, false, fmt.Errorf("failed to capture screen: %v", err)
	}
	overlayScreen = frozen
	overlayTracker = dragTracker{}
	overlayResult = make(chan overlaySelection, 1)

	// Unique class name per selection avoids RegisterClassEx conflicts.
	classNameStr := fmt.Sprintf("SnipOverlay_%d", time.Now().UnixNano())
	className := syscall.StringToUTF16Ptr(classNameStr)
	wndClass := win.WNDCLASSEX{
		CbSize:        uint32(unsafe.Sizeof(win.WNDCLASSEX{})),
		Style:         win.CS_HREDRAW | win.CS_VREDRAW,
		LpfnWndProc:   syscall.NewCallback(overlayWndProc),
		HInstance:     win.GetModuleHandle(nil),
		HCursor:       win.LoadCursor(0, win.MAKEINTRESOURCE(win.IDC_CROSS)),
		HbrBackground: 0,
		LpszClassName: className,
	}
	if win.RegisterClassEx(&wndClass) == 0 {
		return screenshot.Region{}, false, fmt.Errorf("failed to register window class")
	}
	defer win.UnregisterClass(className)

	overlayHwnd = win.CreateWindowEx(
		win.WS_EX_TOPMOST,
		className,
		syscall.StringToUTF16Ptr("Select region - drag to capture, Esc to cancel"),
		win.WS_POPUP|win.WS_VISIBLE,
		vx, vy, vw, vh,
		0, 0, win.GetModuleHandle(nil), nil,
	)
	if overlayHwnd == 0 {
		return screenshot.Region{}, false, fmt.Errorf("failed to create overlay window")
	}
	defer win.DestroyWindow(overlayHwnd)

	win.ShowWindow(overlayHwnd, win.SW_SHOW)
	win.SetForegroundWindow(overlayHwnd)
	win.SetFocus(overlayHwnd)
	win.UpdateWindow(overlayHwnd)

	var msg win.MSG
	for {
		ret := win.GetMessage(&msg, 0, 0, 0)
		if ret == 0 || ret == -1 {
			break
		}
		win.TranslateMessage(&msg)
		win.DispatchMessage(&msg)

		select {
		case sel := <-overlayResult:
			if sel.cancelled {
				log.Printf("Selection cancelled")
				return screenshot.Region{}, true, nil
			}
			log.Printf("Selection completed: %+v", sel.region)
			return sel.region, false, nil
		default:
		}
	}

	return screenshot.Region{}, true, nil
}

func overlayWndProc(hwnd win.HWND, msg uint32, wParam, lParam uintptr) uintptr {
	switch msg {
	case win.WM_LBUTTONDOWN:
		win.SetCapture(hwnd)
		overlayTracker.Begin(pointFromLParam(lParam))
		win.InvalidateRect(hwnd, nil, false)
		win.UpdateWindow(hwnd)
		return 0

	case win.WM_MOUSEMOVE:
		if _, active := overlayTracker.Rubberband(); active {
			overlayTracker.Move(pointFromLParam(lParam))
			win.InvalidateRect(hwnd, nil, false)
			win.UpdateWindow(hwnd)
		}
		return 0

	case win.WM_LBUTTONUP:
		win.ReleaseCapture()
		region, ok := overlayTracker.Finish(pointFromLParam(lParam))
		if !ok {
			log.Printf("Selection too small, ignoring")
			win.InvalidateRect(hwnd, nil, false)
			return 0
		}
		// Client coordinates -> absolute virtual-screen coordinates.
		region.X += int(overlayOriginX)
		region.Y += int(overlayOriginY)
		overlayResult <- overlaySelection{region: region}
		win.PostQuitMessage(0)
		return 0

	case win.WM_PAINT:
		var ps win.PAINTSTRUCT
		hdc := win.BeginPaint(hwnd, &ps)
		drawFrozenScreen(hdc)
		if band, active := overlayTracker.Rubberband(); active {
			drawRubberband(hdc, band)
		}
		win.EndPaint(hwnd, &ps)
		return 0

	case win.WM_KEYDOWN:
		if wParam == win.VK_ESCAPE {
			overlayTracker.Cancel()
			overlayResult <- overlaySelection{cancelled: true}
			win.PostQuitMessage(0)
		}
		return 0

	case win.WM_NCHITTEST:
		// Force all points to be client area so the window receives mouse events
		return uintptr(win.HTCLIENT)

	case win.WM_DESTROY:
		win.PostQuitMessage(0)
		return 0
	}

	return win.DefWindowProc(hwnd, msg, wParam, lParam)
}

// pointFromLParam extracts signed client coordinates; the int16 casts keep
// negative values from monitors left of or above the primary display intact.
func pointFromLParam(lParam uintptr) screenshot.Point {
	x := int(int16(win.LOWORD(uint32(lParam))))
	y := int(int16(win.HIWORD(uint32(lParam))))
	return screenshot.Point{X: x, Y: y}
}

func drawRubberband(hdc win.HDC, band screenshot.Region) {
	// PS_SOLID width-3 red pen, hollow interior (GDI colors are BGR).
	pen, _, _ := procCreatePen.Call(0, 3, 0x0000FF)
	oldPen := win.SelectObject(hdc, win.HGDIOBJ(pen))
	oldBrush := win.SelectObject(hdc, win.GetStockObject(win.NULL_BRUSH))

	procRectangle.Call(uintptr(hdc),
		uintptr(band.X), uintptr(band.Y),
		uintptr(band.X+band.Width), uintptr(band.Y+band.Height))

	win.SelectObject(hdc, oldPen)
	win.SelectObject(hdc, oldBrush)
	win.DeleteObject(win.HGDIOBJ(pen))
}

// drawFrozenScreen paints the captured screenshot as the window background.
func drawFrozenScreen(hdc win.HDC) {
	if overlayScreen == nil {
		return
	}

	memDC := win.CreateCompatibleDC(hdc)
	defer win.DeleteDC(memDC)

	bounds := overlayScreen.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	bitmapInfo := win.BITMAPINFO{
		BmiHeader: win.BITMAPINFOHEADER{
			BiSize:        uint32(unsafe.Sizeof(win.BITMAPINFOHEADER{})),
			BiWidth:       int32(width),
			BiHeight:      -int32(height), // Negative for top-down
			BiPlanes:      1,
			BiBitCount:    32,
			BiCompression: win.BI_RGB,
		},
	}

	var pBits unsafe.Pointer
	hBitmap := win.CreateDIBSection(memDC, &bitmapInfo.BmiHeader, win.DIB_RGB_COLORS, &pBits, 0, 0)
	if hBitmap == 0 {
		return
	}
	defer win.DeleteObject(win.HGDIOBJ(hBitmap))

	oldBitmap := win.SelectObject(memDC, win.HGDIOBJ(hBitmap))
	defer win.SelectObject(memDC, oldBitmap)

	// RGBA -> BGRA copy into the DIB section
	bitmapData := (*[1 << 30]byte)(pBits)[: width*height*4 : width*height*4]
	src := overlayScreen.Pix
	for i := 0; i+3 < len(src) && i+3 < len(bitmapData); i += 4 {
		bitmapData[i] = src[i+2]
		bitmapData[i+1] = src[i+1]
		bitmapData[i+2] = src[i]
		bitmapData[i+3] = src[i+3]
	}

	win.BitBlt(hdc, 0, 0, int32(width), int32(height), memDC, 0, 0, win.SRCCOPY)
}
