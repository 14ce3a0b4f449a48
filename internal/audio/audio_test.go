package audio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"narrasync/internal/services"
)

const testRate = 1000

func tone(d time.Duration) []int16 {
	samples := make([]int16, SamplesFor(d, testRate))
	for i := range samples {
		if i%2 == 0 {
			samples[i] = 8000
		} else {
			samples[i] = -8000
		}
	}
	return samples
}

func quiet(d time.Duration) []int16 {
	return make([]int16, SamplesFor(d, testRate))
}

func build(parts ...[]int16) *Clip {
	var samples []int16
	for _, p := range parts {
		samples = append(samples, p...)
	}
	return NewClip(samples, testRate)
}

func testTrimmer() *Trimmer {
	return NewTrimmer(TrimOptions{
		MinSilence:    350 * time.Millisecond,
		ThresholdDBFS: -40,
		KeepSilence:   100 * time.Millisecond,
		Window:        10 * time.Millisecond,
	})
}

func TestClipDurationAndSilence(t *testing.T) {
	clip := Silence(1500*time.Millisecond, DefaultSampleRate)
	if clip.Len() != 36000 {
		t.Fatalf("len = %d, want 36000", clip.Len())
	}
	if clip.Duration() != 1500*time.Millisecond {
		t.Fatalf("duration = %s", clip.Duration())
	}
	var nilClip *Clip
	if nilClip.Duration() != 0 || nilClip.Len() != 0 {
		t.Fatal("nil clip should be empty")
	}
}

func TestPCMRoundTrip(t *testing.T) {
	clip := NewClip([]int16{0, 1, -1, 32767, -32768}, testRate)
	back := FromPCM(clip.PCM(), testRate)
	if back.Len() != clip.Len() {
		t.Fatalf("len = %d", back.Len())
	}
	for i := range clip.Len() {
		if back.Sample(i) != clip.Sample(i) {
			t.Fatalf("sample %d = %d, want %d", i, back.Sample(i), clip.Sample(i))
		}
	}
	if got := FromPCM([]byte{1, 0, 7}, testRate).Len(); got != 1 {
		t.Fatalf("odd byte should be dropped, got %d samples", got)
	}
}

func TestNewClipCopiesInput(t *testing.T) {
	samples := []int16{1, 2, 3}
	clip := NewClip(samples, testRate)
	samples[0] = 99
	if clip.Sample(0) != 1 {
		t.Fatal("clip shares caller buffer")
	}
}

func TestConcat(t *testing.T) {
	joined, err := Concat(testRate, build(tone(time.Second)), nil, Silence(500*time.Millisecond, testRate))
	if err != nil {
		t.Fatalf("Concat: %v", err)
	}
	if joined.Duration() != 1500*time.Millisecond {
		t.Fatalf("duration = %s", joined.Duration())
	}
	if _, err := Concat(testRate, Silence(time.Second, 8000)); err == nil {
		t.Fatal("expected sample rate mismatch error")
	}
}

func TestWritePCMFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.pcm")
	if err := WritePCMFile(path, Silence(10*time.Millisecond, testRate)); err != nil {
		t.Fatalf("WritePCMFile: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() != 20 {
		t.Fatalf("size = %d, want 20", info.Size())
	}
}

func TestTrimRemovesLongSilence(t *testing.T) {
	tests := []struct {
		name string
		clip *Clip
		want time.Duration
	}{
		{"interior long gap", build(tone(time.Second), quiet(time.Second), tone(time.Second)), 2200 * time.Millisecond},
		{"interior short gap kept", build(tone(time.Second), quiet(200*time.Millisecond), tone(time.Second)), 2200 * time.Millisecond},
		{"leading silence", build(quiet(500*time.Millisecond), tone(time.Second)), 1100 * time.Millisecond},
		{"trailing silence", build(tone(time.Second), quiet(800*time.Millisecond)), 1100 * time.Millisecond},
		{"short leading silence kept", build(quiet(300*time.Millisecond), tone(time.Second)), 1300 * time.Millisecond},
		{"no silence", build(tone(700 * time.Millisecond)), 700 * time.Millisecond},
		{"all silent", build(quiet(2 * time.Second)), 0},
	}
	trimmer := testTrimmer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := trimmer.Trim(tt.clip)
			if got.Duration() != tt.want {
				t.Fatalf("duration = %s, want %s", got.Duration(), tt.want)
			}
			if got.SampleRate() != testRate {
				t.Fatalf("sample rate = %d", got.SampleRate())
			}
		})
	}
}

func TestSpeechRangesPadWithoutOverlap(t *testing.T) {
	clip := build(tone(time.Second), quiet(400*time.Millisecond), tone(time.Second))
	got := testTrimmer().SpeechRanges(clip)
	want := [][2]int{{0, 1100}, {1300, 2400}}
	if !slices.Equal(got, want) {
		t.Fatalf("ranges = %v, want %v", got, want)
	}

	// A gap narrower than twice the padding splits at the midpoint.
	trimmer := NewTrimmer(TrimOptions{MinSilence: 350 * time.Millisecond, KeepSilence: 300 * time.Millisecond})
	got = trimmer.SpeechRanges(build(tone(time.Second), quiet(400*time.Millisecond), tone(time.Second)))
	want = [][2]int{{0, 1200}, {1200, 2400}}
	if !slices.Equal(got, want) {
		t.Fatalf("ranges = %v, want %v", got, want)
	}
}

func TestTrimEmptyClip(t *testing.T) {
	if got := testTrimmer().Trim(nil); got.Len() != 0 {
		t.Fatalf("expected empty clip, got %d samples", got.Len())
	}
}

func TestDecodeFileUsesRunner(t *testing.T) {
	var gotName string
	var gotArgs []string
	decoder := NewDecoder("ffmpeg-test", 24000).WithCommandRunner(func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotName, gotArgs = name, args
		return []byte{1, 0, 2, 0, 3, 0}, nil
	})
	clip, err := decoder.DecodeFile(context.Background(), "/tmp/cue-0001.mp3")
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	if gotName != "ffmpeg-test" {
		t.Fatalf("binary = %q", gotName)
	}
	if !slices.Contains(gotArgs, "/tmp/cue-0001.mp3") || !slices.Contains(gotArgs, "s16le") || !slices.Contains(gotArgs, "24000") {
		t.Fatalf("unexpected args %v", gotArgs)
	}
	if clip.Len() != 3 || clip.SampleRate() != 24000 || clip.Sample(2) != 3 {
		t.Fatalf("unexpected clip len=%d rate=%d", clip.Len(), clip.SampleRate())
	}
}

func TestDecodeFileWrapsToolFailure(t *testing.T) {
	decoder := NewDecoder("", 0).WithCommandRunner(func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("exit status 1")
	})
	if decoder.SampleRate() != DefaultSampleRate {
		t.Fatalf("sample rate = %d", decoder.SampleRate())
	}
	_, err := decoder.DecodeFile(context.Background(), "in.mp3")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
}
