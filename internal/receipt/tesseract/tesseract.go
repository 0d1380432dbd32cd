// Package tesseract recognizes receipt text by running the tesseract CLI.
package tesseract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"conti/internal/ports"
)

var ErrNoText = errors.New("no text found in image")

type Recognizer struct {
	path string
	lang string
}

var _ ports.TextRecognizer = (*Recognizer)(nil)

// New returns a recognizer for the binary at path. It fails when the
// binary cannot be found.
func New(path, lang string) (*Recognizer, error) {
	if path == "" {
		path = "tesseract"
	}
	if lang == "" {
		lang = "ita"
	}
	resolved, err := exec.LookPath(path)
	if err != nil {
		return nil, fmt.Errorf("find tesseract: %w", err)
	}
	return &Recognizer{path: resolved, lang: lang}, nil
}

// Recognize pipes image through `tesseract stdin stdout -l <lang>`.
func (r *Recognizer) Recognize(ctx context.Context, image []byte) (string, error) {
	cmd := exec.CommandContext(ctx, r.path, "stdin", "stdout", "-l", r.lang)
	cmd.Stdin = bytes.NewReader(image)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", fmt.Errorf("run tesseract: %w", err)
		}
		return "", fmt.Errorf("run tesseract: %w: %s", err, msg)
	}

	text := stdout.String()
	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}
	return text, nil
}
