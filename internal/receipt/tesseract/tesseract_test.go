package tesseract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// fakeBinary writes a shell script standing in for tesseract.
func fakeBinary(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake needs a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "tesseract")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRecognize(t *testing.T) {
	// Echo the arguments and the piped image back as "recognized" text.
	bin := fakeBinary(t, `echo "args: $*"; cat`)
	r, err := New(bin, "ita")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	text, err := r.Recognize(context.Background(), []byte("TOTALE 9,99\n"))
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if !strings.Contains(text, "args: stdin stdout -l ita") {
		t.Errorf("unexpected arguments in %q", text)
	}
	if !strings.Contains(text, "TOTALE 9,99") {
		t.Errorf("image not piped through stdin: %q", text)
	}
}

func TestRecognizeErrors(t *testing.T) {
	ctx := context.Background()

	failing, err := New(fakeBinary(t, `echo "Error opening data file" >&2; exit 1`), "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := failing.Recognize(ctx, []byte{1}); err == nil || !strings.Contains(err.Error(), "Error opening data file") {
		t.Fatalf("err = %v, want stderr in message", err)
	}

	silent, err := New(fakeBinary(t, `cat >/dev/null; echo "   "`), "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := silent.Recognize(ctx, []byte{1}); !errors.Is(err, ErrNoText) {
		t.Fatalf("err = %v, want ErrNoText", err)
	}
}

func TestNewMissingBinary(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "nope"), "ita"); err == nil {
		t.Fatal("expected error for missing binary")
	}
}
