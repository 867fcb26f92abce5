package ocr

import (
	"context"
	"sync"
)

// Engine is the OCR provider contract: one encoded PNG image in, extracted
// text out. Implementations must honor ctx cancellation where the underlying
// engine allows it.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, png []byte) (string, error)
}

var (
	defaultMu     sync.RWMutex
	defaultEngine Engine
)

// SetDefaultEngine installs the engine used by the package-level Recognize
// functions. Tests use this to substitute a fake.
func SetDefaultEngine(e Engine) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultEngine = e
}

// DefaultEngine returns the currently installed engine, or nil.
func DefaultEngine() Engine {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultEngine
}
