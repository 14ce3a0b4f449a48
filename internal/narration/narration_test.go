package narration

import (
	"context"
	"errors"
	"os"
	"slices"
	"testing"
	"time"

	"narrasync/internal/audio"
	"narrasync/internal/services"
)

// fakeEdgeTTS writes a placeholder media file wherever --write-media points.
func fakeEdgeTTS(calls *[][]string) services.CommandRunner {
	return func(_ context.Context, _ string, args ...string) ([]byte, error) {
		*calls = append(*calls, args)
		if i := slices.Index(args, "--write-media"); i >= 0 && i+1 < len(args) {
			if err := os.WriteFile(args[i+1], []byte("ID3"), 0o644); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}
}

func fakeDecoder(samples int) *audio.Decoder {
	return audio.NewDecoder("ffmpeg", 1000).WithCommandRunner(func(context.Context, string, ...string) ([]byte, error) {
		return make([]byte, samples*2), nil
	})
}

func TestEdgeTTSSynthesize(t *testing.T) {
	var calls [][]string
	workDir := t.TempDir()
	provider := NewEdgeTTS(fakeDecoder(1500),
		WithWorkDir(workDir),
		WithCommandRunner(fakeEdgeTTS(&calls)),
	)

	clip, err := provider.Synthesize(context.Background(), "  Hello there.  ", "en-AU-NatashaNeural")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if clip.Duration() != 1500*time.Millisecond {
		t.Fatalf("duration = %s", clip.Duration())
	}
	if len(calls) != 1 {
		t.Fatalf("expected one edge-tts call, got %d", len(calls))
	}
	args := calls[0]
	for _, want := range []string{"--voice", "en-AU-NatashaNeural", "--rate=-4%", "--volume=+0%", "--text=Hello there."} {
		if !slices.Contains(args, want) {
			t.Fatalf("args %v missing %q", args, want)
		}
	}
	entries, err := os.ReadDir(workDir)
	if err != nil {
		t.Fatalf("read work dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected intermediate media to be removed, found %d entries", len(entries))
	}
}

func TestEdgeTTSOptions(t *testing.T) {
	provider := NewEdgeTTS(nil, WithBinary("/opt/edge-tts"), WithRate("+10%"), WithVolume("-5%"))
	if provider.Binary() != "/opt/edge-tts" {
		t.Fatalf("binary = %q", provider.Binary())
	}
	args := provider.SynthesizeArgs("hi", "en-US-GuyNeural", "/tmp/out.mp3")
	want := []string{"--voice", "en-US-GuyNeural", "--rate=+10%", "--volume=-5%", "--text=hi", "--write-media", "/tmp/out.mp3"}
	if !slices.Equal(args, want) {
		t.Fatalf("args = %v, want %v", args, want)
	}

	for _, text := range []string{"--no", "-Wait, what?"} {
		args := provider.SynthesizeArgs(text, "en-US-GuyNeural", "/tmp/out.mp3")
		if !slices.Contains(args, "--text="+text) {
			t.Fatalf("text %q must be bound to --text, got %v", text, args)
		}
		if slices.Contains(args, text) {
			t.Fatalf("text %q passed as a standalone argument: %v", text, args)
		}
	}
}

func TestEdgeTTSFailuresWrapSynthesisError(t *testing.T) {
	failing := func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("exit status 1: 403 Forbidden")
	}
	silentRunner := func(context.Context, string, ...string) ([]byte, error) { return nil, nil }

	tests := []struct {
		name     string
		provider *EdgeTTS
		text     string
		tool     bool
	}{
		{"empty text", NewEdgeTTS(fakeDecoder(10), WithWorkDir(t.TempDir())), "   ", false},
		{"process failure", NewEdgeTTS(fakeDecoder(10), WithWorkDir(t.TempDir()), WithCommandRunner(failing)), "hi", true},
		{"no media written", NewEdgeTTS(fakeDecoder(10), WithWorkDir(t.TempDir()), WithCommandRunner(silentRunner)), "hi", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.provider.Synthesize(context.Background(), tt.text, "en-AU-NatashaNeural")
			if !errors.Is(err, ErrSynthesis) {
				t.Fatalf("expected ErrSynthesis, got %v", err)
			}
			if got := errors.Is(err, services.ErrExternalTool); got != tt.tool {
				t.Fatalf("ErrExternalTool = %v, want %v", got, tt.tool)
			}
		})
	}
}

func TestEdgeTTSCancellationIsNotSynthesisError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runner := func(context.Context, string, ...string) ([]byte, error) {
		cancel()
		return nil, errors.New("signal: killed")
	}
	provider := NewEdgeTTS(fakeDecoder(10), WithWorkDir(t.TempDir()), WithCommandRunner(runner))
	_, err := provider.Synthesize(ctx, "hi", "en-AU-NatashaNeural")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if errors.Is(err, ErrSynthesis) {
		t.Fatal("cancellation must not be reported as a synthesis failure")
	}
}

func TestEdgeTTSTimeout(t *testing.T) {
	runner := func(ctx context.Context, _ string, _ ...string) ([]byte, error) {
		if _, ok := ctx.Deadline(); !ok {
			t.Fatal("expected deadline on synthesis context")
		}
		return nil, errors.New("timed out")
	}
	provider := NewEdgeTTS(fakeDecoder(10), WithWorkDir(t.TempDir()), WithCommandRunner(runner), WithTimeout(time.Minute))
	if _, err := provider.Synthesize(context.Background(), "hi", "en-AU-NatashaNeural"); !errors.Is(err, ErrSynthesis) {
		t.Fatalf("expected ErrSynthesis, got %v", err)
	}
}

func TestProviderFunc(t *testing.T) {
	var provider Provider = ProviderFunc(func(_ context.Context, text, voice string) (*audio.Clip, error) {
		return audio.Silence(time.Duration(len(text))*time.Second, 1000), nil
	})
	clip, err := provider.Synthesize(context.Background(), "abc", "v")
	if err != nil || clip.Duration() != 3*time.Second {
		t.Fatalf("unexpected result %v %v", clip.Duration(), err)
	}
}

func TestParseVoiceListTable(t *testing.T) {
	output := `Name                               Gender    ContentCategories      VoicePersonalities
---------------------------------  --------  ---------------------  --------------------------------------
zh-CN-XiaoxiaoNeural               Female    News, Novel            Warm
en-AU-NatashaNeural                Female    General                Friendly, Positive
en-US-GuyNeural                    Male      News, Novel            Passion
iu-Latn-CA-SiqiniqNeural           Female    General                Friendly, Positive
`
	voices := ParseVoiceList([]byte(output))
	if len(voices) != 4 {
		t.Fatalf("expected 4 voices, got %d: %+v", len(voices), voices)
	}
	if voices[0].Name != "en-AU-NatashaNeural" || voices[0].Gender != "Female" || voices[0].Locale != "en-AU" {
		t.Fatalf("unexpected first voice %+v", voices[0])
	}
	if voices[1].Locale != "en-US" || voices[1].Gender != "Male" {
		t.Fatalf("unexpected second voice %+v", voices[1])
	}
	if voices[2].Locale != "iu-Latn-CA" {
		t.Fatalf("unexpected locale %q", voices[2].Locale)
	}
	if voices[0].LocaleName() != "Australian English" {
		t.Fatalf("locale name = %q", voices[0].LocaleName())
	}
}

func TestParseVoiceListBlocks(t *testing.T) {
	output := `Name: Microsoft Server Speech Text to Speech Voice (en-GB, SoniaNeural)
ShortName: en-GB-SoniaNeural
Gender: Female
Locale: en-GB

Name: Microsoft Server Speech Text to Speech Voice (de-DE, KatjaNeural)
ShortName: de-DE-KatjaNeural
Gender: Female
Locale: de-DE
`
	voices := ParseVoiceList([]byte(output))
	if len(voices) != 2 {
		t.Fatalf("expected 2 voices, got %+v", voices)
	}
	if voices[0].Name != "de-DE-KatjaNeural" || voices[0].Locale != "de-DE" {
		t.Fatalf("unexpected voice %+v", voices[0])
	}
	if got := FilterVoices(voices, "EN"); len(got) != 1 || got[0].Name != "en-GB-SoniaNeural" {
		t.Fatalf("filter = %+v", got)
	}
}

func TestListVoicesUsesRunner(t *testing.T) {
	provider := NewEdgeTTS(nil, WithCommandRunner(func(_ context.Context, name string, args ...string) ([]byte, error) {
		if name != DefaultBinary || !slices.Equal(args, []string{"--list-voices"}) {
			t.Fatalf("unexpected invocation %s %v", name, args)
		}
		return []byte("Name Gender\nen-AU-NatashaNeural Female\n"), nil
	}))
	voices, err := provider.ListVoices(context.Background())
	if err != nil {
		t.Fatalf("ListVoices: %v", err)
	}
	if len(voices) != 1 {
		t.Fatalf("voices = %+v", voices)
	}
}
