package audio

import (
	"encoding/binary"
	"fmt"
	"os"
	"time"
)

// Clip is decoded mono s16 audio. The sample buffer is never modified after
// construction.
type Clip struct {
	samples []int16
	rate    int
}

// NewClip copies samples into a new clip.
func NewClip(samples []int16, sampleRate int) *Clip {
	return &Clip{samples: append([]int16(nil), samples...), rate: sampleRate}
}

// Silence returns a zero-amplitude clip of the given duration.
func Silence(d time.Duration, sampleRate int) *Clip {
	return &Clip{samples: make([]int16, SamplesFor(d, sampleRate)), rate: sampleRate}
}

// FromPCM decodes little-endian s16 bytes. A trailing odd byte is dropped.
func FromPCM(data []byte, sampleRate int) *Clip {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return &Clip{samples: samples, rate: sampleRate}
}

// SamplesFor converts a duration to a sample count, rounding to nearest.
func SamplesFor(d time.Duration, sampleRate int) int {
	if d <= 0 || sampleRate <= 0 {
		return 0
	}
	return int((int64(d)*int64(sampleRate) + int64(time.Second)/2) / int64(time.Second))
}

// SampleRate returns the clip's sample rate in Hz.
func (c *Clip) SampleRate() int {
	if c == nil {
		return 0
	}
	return c.rate
}

// Len returns the number of samples.
func (c *Clip) Len() int {
	if c == nil {
		return 0
	}
	return len(c.samples)
}

// Duration returns the playback length of the clip.
func (c *Clip) Duration() time.Duration {
	if c == nil || c.rate <= 0 {
		return 0
	}
	return time.Duration(int64(len(c.samples)) * int64(time.Second) / int64(c.rate))
}

// Sample returns the i-th sample.
func (c *Clip) Sample(i int) int16 {
	return c.samples[i]
}

// PCM encodes the clip as little-endian s16 bytes.
func (c *Clip) PCM() []byte {
	out := make([]byte, len(c.samples)*2)
	for i, s := range c.samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// Concat joins clips in order. All clips must share a sample rate; nil clips
// are skipped.
func Concat(sampleRate int, clips ...*Clip) (*Clip, error) {
	total := 0
	for i, c := range clips {
		if c == nil {
			continue
		}
		if c.rate != sampleRate {
			return nil, fmt.Errorf("concat clip %d: sample rate %d, want %d", i, c.rate, sampleRate)
		}
		total += len(c.samples)
	}
	samples := make([]int16, 0, total)
	for _, c := range clips {
		if c != nil {
			samples = append(samples, c.samples...)
		}
	}
	return &Clip{samples: samples, rate: sampleRate}, nil
}

// WritePCMFile writes the clip as raw s16le mono PCM.
func WritePCMFile(path string, c *Clip) error {
	if err := os.WriteFile(path, c.PCM(), 0o644); err != nil {
		return fmt.Errorf("write pcm %s: %w", path, err)
	}
	return nil
}
