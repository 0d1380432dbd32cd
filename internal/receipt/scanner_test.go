package receipt

import (
	"context"
	"errors"
	"testing"
)

type stubRecognizer struct {
	text string
	err  error
}

func (s stubRecognizer) Recognize(context.Context, []byte) (string, error) {
	return s.text, s.err
}

func TestScannerScan(t *testing.T) {
	s := NewScanner(stubRecognizer{text: "COOP\nTOTALE 31,70"})
	got, err := s.Scan(context.Background(), []byte{0xff, 0xd8})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if got.Amount != "31.70" || got.Description != "COOP · TOTALE 31,70" {
		t.Fatalf("unexpected result %+v", got)
	}
	if got.RawText == "" {
		t.Fatalf("raw text must be returned")
	}
}

func TestScannerErrors(t *testing.T) {
	ctx := context.Background()
	if _, err := NewScanner(nil).Scan(ctx, []byte{1}); !errors.Is(err, ErrNoRecognizer) {
		t.Fatalf("expected ErrNoRecognizer, got %v", err)
	}
	s := NewScanner(stubRecognizer{})
	if _, err := s.Scan(ctx, nil); !errors.Is(err, ErrEmptyImage) {
		t.Fatalf("expected ErrEmptyImage, got %v", err)
	}
	if _, err := s.Scan(ctx, make([]byte, MaxImageBytes+1)); !errors.Is(err, ErrImageTooLarge) {
		t.Fatalf("expected ErrImageTooLarge, got %v", err)
	}

	boom := errors.New("ocr crashed")
	if _, err := NewScanner(stubRecognizer{err: boom}).Scan(ctx, []byte{1}); !errors.Is(err, boom) {
		t.Fatalf("expected recognizer error, got %v", err)
	}
}

func TestScannerBlankTextStillSucceeds(t *testing.T) {
	got, err := NewScanner(stubRecognizer{text: "   "}).Scan(context.Background(), []byte{1})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if got.Amount != "" || got.Description != DefaultDescription {
		t.Fatalf("unexpected %+v", got)
	}
}
