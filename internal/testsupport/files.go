package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"narrasync/internal/subtitle"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, bytes.Repeat([]byte{0x42}, int(size)), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// Cue is shorthand for a subtitle cue with millisecond bounds.
func Cue(index int, startMS, endMS int, text string) subtitle.Cue {
	return subtitle.Cue{
		Index: index,
		Start: time.Duration(startMS) * time.Millisecond,
		End:   time.Duration(endMS) * time.Millisecond,
		Text:  text,
	}
}

// WriteSubtitle renders cues as SRT at path and returns path.
func WriteSubtitle(t testing.TB, path string, cues ...subtitle.Cue) string {
	t.Helper()

	var buf bytes.Buffer
	if err := subtitle.Write(&buf, cues); err != nil {
		t.Fatalf("render subtitle: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
