package audio

import (
	"math"
	"time"
)

// TrimOptions controls silence detection. Zero values fall back to the
// package defaults.
type TrimOptions struct {
	// MinSilence is the shortest quiet run that gets removed.
	MinSilence time.Duration
	// ThresholdDBFS is the level below which a window counts as silent.
	ThresholdDBFS float64
	// KeepSilence is retained on each side of every speech chunk.
	KeepSilence time.Duration
	// Window is the RMS analysis window.
	Window time.Duration
}

// Trimmer removes long silent runs from narration clips and joins the
// remaining speech chunks.
type Trimmer struct {
	opts TrimOptions
}

// NewTrimmer returns a trimmer with defaults applied to unset options.
func NewTrimmer(opts TrimOptions) *Trimmer {
	if opts.MinSilence <= 0 {
		opts.MinSilence = 350 * time.Millisecond
	}
	if opts.ThresholdDBFS == 0 {
		opts.ThresholdDBFS = -40
	}
	if opts.KeepSilence < 0 {
		opts.KeepSilence = 0
	}
	if opts.Window <= 0 {
		opts.Window = 10 * time.Millisecond
	}
	return &Trimmer{opts: opts}
}

// Trim returns the clip with every silent run of at least MinSilence removed,
// keeping KeepSilence of padding around each speech chunk. A clip that is
// silent throughout trims to an empty clip.
func (t *Trimmer) Trim(c *Clip) *Clip {
	if c == nil || c.Len() == 0 {
		return &Clip{rate: c.SampleRate()}
	}
	chunks := t.SpeechRanges(c)
	if len(chunks) == 0 {
		return &Clip{rate: c.rate}
	}
	total := 0
	for _, r := range chunks {
		total += r[1] - r[0]
	}
	samples := make([]int16, 0, total)
	for _, r := range chunks {
		samples = append(samples, c.samples[r[0]:r[1]]...)
	}
	return &Clip{samples: samples, rate: c.rate}
}

// SpeechRanges returns the padded [from, to) sample ranges that survive
// trimming, in order and non-overlapping.
func (t *Trimmer) SpeechRanges(c *Clip) [][2]int {
	window := SamplesFor(t.opts.Window, c.rate)
	if window <= 0 {
		window = 1
	}
	minSilent := SamplesFor(t.opts.MinSilence, c.rate)
	keep := SamplesFor(t.opts.KeepSilence, c.rate)

	silent := t.silentRuns(c, window, minSilent)

	var speech [][2]int
	cursor := 0
	for _, run := range silent {
		if run[0] > cursor {
			speech = append(speech, [2]int{cursor, run[0]})
		}
		cursor = run[1]
	}
	if cursor < c.Len() {
		speech = append(speech, [2]int{cursor, c.Len()})
	}
	if len(speech) == 0 {
		return nil
	}

	// Pad each chunk into the neighbouring silence without crossing the
	// midpoint shared with the next chunk.
	padded := make([][2]int, len(speech))
	for i, r := range speech {
		from := r[0] - keep
		if i > 0 {
			from = max(from, (speech[i-1][1]+r[0])/2)
		}
		to := r[1] + keep
		if i < len(speech)-1 {
			to = min(to, (r[1]+speech[i+1][0])/2)
		}
		padded[i] = [2]int{max(from, 0), min(to, c.Len())}
	}
	return padded
}

// silentRuns finds maximal runs of silent windows lasting at least minSilent
// samples.
func (t *Trimmer) silentRuns(c *Clip, window, minSilent int) [][2]int {
	var runs [][2]int
	runStart := -1
	flush := func(end int) {
		if runStart >= 0 && end-runStart >= minSilent {
			runs = append(runs, [2]int{runStart, end})
		}
		runStart = -1
	}
	for from := 0; from < c.Len(); from += window {
		to := min(from+window, c.Len())
		if dBFS(c.samples[from:to]) < t.opts.ThresholdDBFS {
			if runStart < 0 {
				runStart = from
			}
			continue
		}
		flush(from)
	}
	flush(c.Len())
	return runs
}

// dBFS returns the RMS level of samples relative to full scale. Digital
// silence reports negative infinity.
func dBFS(samples []int16) float64 {
	if len(samples) == 0 {
		return math.Inf(-1)
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	rms := math.Sqrt(sum / float64(len(samples)))
	if rms == 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(rms/32768)
}
