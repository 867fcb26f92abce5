package logutil

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"unicode/utf8"
)

const (
	logFileName  = "snipocr_debug.log"
	maxSizeBytes = 10 * 1024 * 1024 // 10 MB
	maxArchives  = 3
)

// Setup enables file logging with basic size-based rotation (10MB, max 3 files).
// When disabled, logs are discarded so clipboard/stdout output stays clean.
func Setup(enableFileLogging bool) {
	if !enableFileLogging {
		log.SetOutput(io.Discard)
		log.SetFlags(log.LstdFlags | log.Lshortfile)
		return
	}
	rotateIfNeeded()
	f, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		return
	}
	log.SetOutput(&rotatingWriter{f: f})
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

type rotatingWriter struct{ f *os.File }

func (w *rotatingWriter) Write(p []byte) (int, error) {
	// naive rotation check per write
	if st, err := w.f.Stat(); err == nil && st.Size()+int64(len(p)) > maxSizeBytes {
		_ = w.f.Close()
		rotateIfNeeded()
		nf, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return 0, err
		}
		w.f = nf
	}
	return w.f.Write(p)
}

func rotateIfNeeded() {
	// If base exceeds max size, rotate: .1, .2, .3 (oldest discarded)
	if st, err := os.Stat(logFileName); err == nil && st.Size() > maxSizeBytes {
		_ = os.Remove(archiveName(maxArchives))
		for i := maxArchives - 1; i >= 1; i-- {
			_ = os.Rename(archiveName(i), archiveName(i+1))
		}
		_ = os.Rename(logFileName, archiveName(1))
	}
}

func archiveName(n int) string { return filepath.Join(".", fmt.Sprintf("%s.%d", logFileName, n)) }

// SanitizeForLog bounds text length and escapes control characters so OCR
// output cannot inject log lines.
func SanitizeForLog(text string) string {
	const maxLogLength = 100
	if len(text) > maxLogLength {
		text = TruncateRunes(text, maxLogLength) + "..."
	}

	sanitized := make([]byte, 0, len(text))
	for _, r := range text {
		switch {
		case r == '\n' || r == '\r':
			sanitized = append(sanitized, '\\', 'n')
		case r == '\t':
			sanitized = append(sanitized, '\\', 't')
		case r < 32 || r == 127:
			sanitized = append(sanitized, '?')
		default:
			sanitized = append(sanitized, string(r)...)
		}
	}
	return string(sanitized)
}

// TruncateRunes cuts text to at most max bytes without splitting a UTF-8
// sequence mid-rune.
func TruncateRunes(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
