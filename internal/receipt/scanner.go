package receipt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"conti/internal/ports"
)

// MaxImageBytes is the largest accepted receipt photo.
const MaxImageBytes = 10 << 20

var (
	ErrNoRecognizer  = errors.New("no text recognizer configured")
	ErrEmptyImage    = errors.New("empty image")
	ErrImageTooLarge = errors.New("image too large")
)

// Scan is the outcome of a photo scan.
type Scan struct {
	Result
	RawText string `json:"raw_text"`
}

// Scanner runs OCR on a photo and extracts the suggestion from its text.
type Scanner struct {
	recognizer ports.TextRecognizer
}

// NewScanner accepts a nil recognizer; Scan then fails with ErrNoRecognizer.
func NewScanner(r ports.TextRecognizer) *Scanner {
	return &Scanner{recognizer: r}
}

// Enabled reports whether photos can be scanned.
func (s *Scanner) Enabled() bool {
	return s != nil && s.recognizer != nil
}

// Scan recognizes image and extracts amount and description. Recognition
// failures are returned; extraction itself cannot fail.
func (s *Scanner) Scan(ctx context.Context, image []byte) (Scan, error) {
	if !s.Enabled() {
		return Scan{}, ErrNoRecognizer
	}
	if len(image) == 0 {
		return Scan{}, ErrEmptyImage
	}
	if len(image) > MaxImageBytes {
		return Scan{}, ErrImageTooLarge
	}

	text, err := s.recognizer.Recognize(ctx, image)
	if err != nil {
		return Scan{}, fmt.Errorf("recognize receipt: %w", err)
	}
	res := Extract(text)
	slog.DebugContext(ctx, "Receipt scanned",
		"text_length", len(text),
		"amount", res.Amount,
		"amount_found", res.Amount != "")
	return Scan{Result: res, RawText: text}, nil
}
