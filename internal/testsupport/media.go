package testsupport

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"narrasync/internal/services"
)

// FakeMedia emulates ffmpeg, ffprobe and edge-tts for pipeline tests. The
// edge-tts fake writes the requested text into the media file; the ffmpeg
// decode fake reads it back and returns a tone of the duration registered for
// that text.
type FakeMedia struct {
	SampleRate int
	// Durations maps narration text to the decoded clip length.
	Durations map[string]time.Duration
	// Default is used for text missing from Durations.
	Default time.Duration
	// FailText makes edge-tts fail for the given texts.
	FailText map[string]bool
	// FailFFmpeg makes every ffmpeg call whose last argument contains the
	// substring fail.
	FailFFmpeg string
	// ProbeDuration is reported for every probed stream.
	ProbeDuration string
	// ProbeAudioDuration overrides ProbeDuration for audio streams.
	ProbeAudioDuration string
	// Hook runs before every invocation; it may block or cancel.
	Hook func(name string, args []string)

	mu    sync.Mutex
	calls []Call
}

// Call records one invocation.
type Call struct {
	Name string
	Args []string
}

// Runner returns the fake as a CommandRunner.
func (f *FakeMedia) Runner() services.CommandRunner {
	return f.run
}

// Calls returns a copy of the recorded invocations.
func (f *FakeMedia) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// CallsTo counts invocations of binaries whose name ends with suffix.
func (f *FakeMedia) CallsTo(suffix string) int {
	n := 0
	for _, c := range f.Calls() {
		if strings.HasSuffix(c.Name, suffix) {
			n++
		}
	}
	return n
}

func (f *FakeMedia) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if f.Hook != nil {
		f.Hook(name, args)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.calls = append(f.calls, Call{Name: name, Args: slices.Clone(args)})
	f.mu.Unlock()

	if len(args) == 1 && strings.HasSuffix(args[0], "-version") {
		return []byte(filepath.Base(name) + " version test\n"), nil
	}
	switch {
	case strings.HasSuffix(name, "edge-tts"):
		return f.edgeTTS(args)
	case strings.HasSuffix(name, "ffprobe"):
		return f.ffprobe()
	case strings.HasSuffix(name, "ffmpeg"):
		return f.ffmpeg(args)
	}
	return nil, fmt.Errorf("unexpected binary %s", name)
}

func (f *FakeMedia) edgeTTS(args []string) ([]byte, error) {
	if slices.Contains(args, "--list-voices") {
		return []byte("Name                 Gender\n-------------------  ------\nen-AU-NatashaNeural  Female\nen-US-GuyNeural      Male\n"), nil
	}
	text := argValue(args, "--text")
	if f.FailText[text] {
		return nil, errors.New("exit status 1: service unavailable")
	}
	return nil, os.WriteFile(argAfter(args, "--write-media"), []byte(text), 0o644)
}

func (f *FakeMedia) ffprobe() ([]byte, error) {
	d := f.ProbeDuration
	if d == "" {
		d = "10.000000"
	}
	a := f.ProbeAudioDuration
	if a == "" {
		a = d
	}
	return fmt.Appendf(nil, `{"streams":[{"codec_type":"video","r_frame_rate":"25/1","duration":%q},{"codec_type":"audio","duration":%q}],"format":{"duration":%q,"size":"4096"}}`, d, a, d), nil
}

func (f *FakeMedia) ffmpeg(args []string) ([]byte, error) {
	dest := args[len(args)-1]
	if f.FailFFmpeg != "" && strings.Contains(dest, f.FailFFmpeg) {
		return nil, errors.New("exit status 1: Conversion failed!")
	}
	if dest != "-" {
		return nil, os.WriteFile(dest, []byte("rendered"), 0o644)
	}
	text, err := os.ReadFile(argAfter(args, "-i"))
	if err != nil {
		return nil, err
	}
	d, ok := f.Durations[string(text)]
	if !ok {
		d = f.Default
	}
	rate := f.SampleRate
	if rate <= 0 {
		rate = 1000
	}
	samples := int(d.Seconds() * float64(rate))
	out := make([]byte, samples*2)
	for i := range samples {
		v := int16(8000)
		if i%2 == 1 {
			v = -8000
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out, nil
}

// argValue reads a flag given as "--flag=value" or "--flag value".
func argValue(args []string, flag string) string {
	for _, arg := range args {
		if value, ok := strings.CutPrefix(arg, flag+"="); ok {
			return value
		}
	}
	return argAfter(args, flag)
}

func argAfter(args []string, flag string) string {
	if i := slices.Index(args, flag); i >= 0 && i+1 < len(args) {
		return args[i+1]
	}
	return ""
}
