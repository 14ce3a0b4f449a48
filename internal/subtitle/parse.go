package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

const timingSeparator = " --> "

// ParseFile reads and parses an SRT file.
func ParseFile(path string) ([]Cue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open subtitle: %w", err)
	}
	defer f.Close()
	cues, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cues, nil
}

// Parse reads cue blocks (index, timing line, text lines, blank separator)
// and returns them in file order. A block whose first line is already the
// timing line is accepted and numbered by position.
func Parse(r io.Reader) ([]Cue, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		cues      []Cue
		block     []string
		blockLine int
		lineNo    int
	)
	flush := func() error {
		if len(block) == 0 {
			return nil
		}
		cue, err := parseBlock(len(cues)+1, blockLine, block)
		block = block[:0]
		if err != nil {
			return err
		}
		cues = append(cues, cue)
		return nil
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if strings.TrimSpace(line) == "" {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		if len(block) == 0 {
			blockLine = lineNo
		}
		block = append(block, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read subtitle: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return cues, nil
}

func parseBlock(ordinal, firstLine int, lines []string) (Cue, error) {
	cue := Cue{Index: ordinal}
	timingAt := 1
	if strings.Contains(lines[0], "-->") {
		timingAt = 0
	} else {
		index, err := strconv.Atoi(strings.TrimSpace(lines[0]))
		if err != nil {
			return Cue{}, &MalformedError{Block: ordinal, Line: firstLine, Reason: fmt.Sprintf("invalid cue index %q", lines[0])}
		}
		cue.Index = index
	}
	if timingAt >= len(lines) || !strings.Contains(lines[timingAt], "-->") {
		return Cue{}, &MalformedError{Block: ordinal, Line: firstLine + timingAt, Reason: "missing timing line"}
	}

	start, end, err := ParseTimingLine(lines[timingAt])
	if err != nil {
		return Cue{}, &MalformedError{Block: ordinal, Line: firstLine + timingAt, Reason: err.Error()}
	}
	cue.Start = start
	cue.End = end
	cue.Text = strings.TrimSpace(strings.Join(lines[timingAt+1:], "\n"))
	return cue, nil
}

// ParseTimingLine splits "HH:MM:SS,mmm --> HH:MM:SS,mmm" into two durations.
// Trailing positioning hints after the end timestamp are ignored.
func ParseTimingLine(line string) (time.Duration, time.Duration, error) {
	parts := strings.Split(line, "-->")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("timing line %q must contain exactly one -->", strings.TrimSpace(line))
	}
	start, err := ParseTimestamp(parts[0])
	if err != nil {
		return 0, 0, err
	}
	endFields := strings.Fields(parts[1])
	if len(endFields) == 0 {
		return 0, 0, fmt.Errorf("timing line %q has no end timestamp", strings.TrimSpace(line))
	}
	end, err := ParseTimestamp(endFields[0])
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// ParseTimestamp parses "HH:MM:SS,mmm". A period is accepted in place of the
// comma.
func ParseTimestamp(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	clock, millisText, ok := strings.Cut(strings.Replace(value, ".", ",", 1), ",")
	if !ok || len(millisText) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(clock, ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := atoiDigits(hms[0])
	minutes, errM := atoiDigits(hms[1])
	seconds, errS := atoiDigits(hms[2])
	millis, errMS := atoiDigits(millisText)
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	if minutes > 59 || seconds > 59 {
		return 0, fmt.Errorf("timestamp %q out of range", value)
	}
	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond, nil
}

func atoiDigits(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("empty field")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("non-digit %q", s)
		}
	}
	return strconv.Atoi(s)
}

// FormatTimestamp renders d as "HH:MM:SS,mmm", truncating below a millisecond.
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	hours := ms / 3_600_000
	ms -= hours * 3_600_000
	minutes := ms / 60_000
	ms -= minutes * 60_000
	seconds := ms / 1000
	ms -= seconds * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, ms)
}

// Write serializes cues as SRT text.
func Write(w io.Writer, cues []Cue) error {
	bw := bufio.NewWriter(w)
	for i, cue := range cues {
		if i > 0 {
			if _, err := bw.WriteString("\n"); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(bw, "%d\n%s\n%s\n", cue.Index, cue.TimingLine(), cue.Text); err != nil {
			return err
		}
	}
	return bw.Flush()
}
