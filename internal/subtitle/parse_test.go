package subtitle

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"narrasync/internal/services"
)

func TestParseCues(t *testing.T) {
	content := `1
00:05:46,345 --> 00:05:48,514
TACTICAL.

2
00:06:06,282 --> 00:06:07,992
VISUAL.

3
00:06:13,330 --> 00:06:15,833
TACTICAL, STAND BY
ON TORPEDOES.
`
	cues, err := Parse(strings.NewReader(content))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(cues) != 3 {
		t.Fatalf("expected 3 cues, got %d", len(cues))
	}
	if cues[0].Index != 1 {
		t.Errorf("cue 0 index = %d, want 1", cues[0].Index)
	}
	if want := 5*time.Minute + 46*time.Second + 345*time.Millisecond; cues[0].Start != want {
		t.Errorf("cue 0 start = %s, want %s", cues[0].Start, want)
	}
	if cues[0].Text != "TACTICAL." {
		t.Errorf("cue 0 text = %q", cues[0].Text)
	}
	if cues[2].Text != "TACTICAL, STAND BY\nON TORPEDOES." {
		t.Errorf("cue 2 text = %q", cues[2].Text)
	}
	if got := cues[1].Duration(); got != 1710*time.Millisecond {
		t.Errorf("cue 1 duration = %s", got)
	}
}

func TestParseToleratesCRLFAndBOM(t *testing.T) {
	content := "\ufeff1\r\n00:00:00,000 --> 00:00:02,000\r\nhi\r\n\r\n\r\n2\r\n00:00:03,000 --> 00:00:04,000\r\nthere\r\n"
	cues, err := Parse(strings.NewReader(content))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(cues))
	}
	if cues[0].Index != 1 || cues[0].Text != "hi" {
		t.Fatalf("unexpected first cue %+v", cues[0])
	}
	if cues[1].Start != 3*time.Second {
		t.Fatalf("unexpected second cue start %s", cues[1].Start)
	}
}

func TestParseBlockWithoutIndex(t *testing.T) {
	content := "00:00:01,000 --> 00:00:02,000\nno index here\n"
	cues, err := Parse(strings.NewReader(content))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(cues) != 1 || cues[0].Index != 1 {
		t.Fatalf("unexpected cues %+v", cues)
	}
}

func TestParseIgnoresPositionHints(t *testing.T) {
	start, end, err := ParseTimingLine("00:00:01,000 --> 00:00:02,000 X1:40 X2:600 Y1:20 Y2:50")
	if err != nil {
		t.Fatalf("ParseTimingLine: %v", err)
	}
	if start != time.Second || end != 2*time.Second {
		t.Fatalf("got %s -> %s", start, end)
	}
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
		reason  string
	}{
		{"missing timing line", "1\nhello there\n", "missing timing line"},
		{"index only", "1\n", "missing timing line"},
		{"bad index", "one\n00:00:01,000 --> 00:00:02,000\nhi\n", "invalid cue index"},
		{"single timestamp", "1\n00:00:01,000 -->\nhi\n", "no end timestamp"},
		{"double arrow", "1\n00:00:01,000 --> 00:00:02,000 --> 00:00:03,000\nhi\n", "exactly one"},
		{"bad millis", "1\n00:00:01,00 --> 00:00:02,000\nhi\n", "invalid timestamp"},
		{"minutes out of range", "1\n00:61:01,000 --> 00:62:02,000\nhi\n", "out of range"},
		{"letters", "1\n00:0a:01,000 --> 00:00:02,000\nhi\n", "invalid timestamp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation marker, got %v", err)
			}
			var malformed *MalformedError
			if !errors.As(err, &malformed) {
				t.Fatalf("expected *MalformedError, got %T", err)
			}
			if !strings.Contains(malformed.Reason, tt.reason) {
				t.Fatalf("reason %q does not contain %q", malformed.Reason, tt.reason)
			}
		})
	}
}

func TestMalformedReportsBlockNumber(t *testing.T) {
	content := "1\n00:00:01,000 --> 00:00:02,000\nok\n\n2\nbroken\n"
	_, err := Parse(strings.NewReader(content))
	var malformed *MalformedError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected *MalformedError, got %v", err)
	}
	if malformed.Block != 2 || malformed.Line != 6 {
		t.Fatalf("block=%d line=%d, want block 2 line 6", malformed.Block, malformed.Line)
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	for _, value := range []string{
		"00:00:00,000",
		"00:00:00,001",
		"00:00:02,500",
		"00:59:59,999",
		"01:02:03,004",
		"12:00:00,120",
	} {
		d, err := ParseTimestamp(value)
		if err != nil {
			t.Fatalf("ParseTimestamp(%q): %v", value, err)
		}
		if got := FormatTimestamp(d); got != value {
			t.Errorf("round trip %q -> %s -> %q", value, d, got)
		}
	}
}

func TestParseTimestampAcceptsPeriod(t *testing.T) {
	d, err := ParseTimestamp("00:00:01.250")
	if err != nil {
		t.Fatalf("ParseTimestamp: %v", err)
	}
	if d != 1250*time.Millisecond {
		t.Fatalf("got %s", d)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	content := `1
00:00:00,000 --> 00:00:02,000
hi

2
00:00:03,000 --> 00:00:04,250
two
lines
`
	cues, err := Parse(strings.NewReader(content))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	var buf bytes.Buffer
	if err := Write(&buf, cues); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if buf.String() != content {
		t.Fatalf("write output mismatch:\n%s\nwant:\n%s", buf.String(), content)
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "video01_en.srt")
	if err := os.WriteFile(path, []byte("1\n00:00:00,000 --> 00:00:02,000\nhi\n"), 0o644); err != nil {
		t.Fatalf("write srt: %v", err)
	}
	cues, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(cues) != 1 || cues[0].TimingLine() != "00:00:00,000 --> 00:00:02,000" {
		t.Fatalf("unexpected cues %+v", cues)
	}

	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.srt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParseEmptyInput(t *testing.T) {
	cues, err := Parse(strings.NewReader("\n\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(cues) != 0 {
		t.Fatalf("expected no cues, got %d", len(cues))
	}
}
