package extract

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// tesseractOCR shells out to the tesseract binary, feeding the image on stdin
// and reading recognized text from stdout. Default language, no tuning.
func tesseractOCR(cmd string) OCRFunc {
	return func(ctx context.Context, image []byte) (string, error) {
		var stdout, stderr bytes.Buffer
		c := exec.CommandContext(ctx, cmd, "stdin", "stdout")
		c.Stdin = bytes.NewReader(image)
		c.Stdout = &stdout
		c.Stderr = &stderr

		if err := c.Run(); err != nil {
			msg := strings.TrimSpace(stderr.String())
			if msg != "" {
				return "", fmt.Errorf("tesseract: %s: %w", msg, err)
			}
			return "", fmt.Errorf("tesseract: %w", err)
		}
		return stdout.String(), nil
	}
}
