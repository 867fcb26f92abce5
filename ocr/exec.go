package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ExecEngine shells out to a tesseract binary instead of linking
// libtesseract. It exists for the TESSERACT_CMD override, where the user
// points the tool at a specific tesseract executable.
type ExecEngine struct {
	binary    string
	languages []string
	psm       int
}

// NewExecEngine constructs an engine around the given tesseract binary path.
func NewExecEngine(binary string, languages []string, psm int) *ExecEngine {
	return &ExecEngine{binary: binary, languages: languages, psm: psm}
}

func (e *ExecEngine) Name() string { return "tesseract-exec" }

// Recognize pipes the PNG through `tesseract stdin stdout`. Cancellation is
// handled by exec.CommandContext killing the child.
func (e *ExecEngine) Recognize(ctx context.Context, png []byte) (string, error) {
	args := []string{"stdin", "stdout"}
	if len(e.languages) > 0 {
		args = append(args, "-l", strings.Join(e.languages, "+"))
	}
	if e.psm > 0 {
		args = append(args, "--psm", strconv.Itoa(e.psm))
	}

	cmd := exec.CommandContext(ctx, e.binary, args...)
	cmd.Stdin = bytes.NewReader(png)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("%s failed: %v: %s", e.binary, err, msg)
		}
		return "", fmt.Errorf("%s failed: %w", e.binary, err)
	}

	return stdout.String(), nil
}
