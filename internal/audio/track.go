package audio

import (
	"errors"
	"fmt"
	"math"
)

// Canonical pipeline format. Every asset is sanitized into this format before
// composition, so in-memory operations never need to resample.
const (
	SampleRate = 44100
	Channels   = 2
)

// ErrFormatMismatch is returned when tracks with different sample rates or
// channel counts are combined.
var ErrFormatMismatch = errors.New("audio format mismatch")

// Track is an immutable decoded waveform segment. Samples are interleaved
// float64 in [-1, 1]. Gain is a linear multiplier and the fades are linear
// amplitude ramps applied at render time; operations return new tracks and
// never mutate in place.
type Track struct {
	samples    []float64
	sampleRate int
	channels   int
	gain       float64
	fadeIn     float64 // seconds
	fadeOut    float64 // seconds
}

// NewTrack wraps interleaved samples in a Track with unity gain.
func NewTrack(samples []float64, sampleRate, channels int) Track {
	return Track{
		samples:    samples,
		sampleRate: sampleRate,
		channels:   channels,
		gain:       1,
	}
}

// Silence returns a zero-amplitude track of exactly d seconds at the
// pipeline's standard sample rate and channel count.
func Silence(d float64) Track {
	n := frameCount(d, SampleRate) * Channels
	return NewTrack(make([]float64, n), SampleRate, Channels)
}

func (t Track) SampleRate() int { return t.sampleRate }
func (t Track) ChannelCount() int { return t.channels }

// Duration returns the track length in seconds.
func (t Track) Duration() float64 {
	if t.sampleRate == 0 || t.channels == 0 {
		return 0
	}
	return float64(len(t.samples)/t.channels) / float64(t.sampleRate)
}

// WithGain returns a copy with its linear gain multiplied by g.
func (t Track) WithGain(g float64) Track {
	t.gain *= g
	return t
}

// WithFadeIn returns a copy with a linear fade-in of d seconds. The ramp is
// clamped to half the track's duration so the two edge fades never overlap.
func (t Track) WithFadeIn(d float64) Track {
	t.fadeIn = clampFade(d, t.Duration())
	return t
}

// WithFadeOut returns a copy with a linear fade-out of d seconds, clamped to
// half the track's duration.
func (t Track) WithFadeOut(d float64) Track {
	t.fadeOut = clampFade(d, t.Duration())
	return t
}

// Trim returns a copy truncated to at most d seconds. Gain and fades carry
// over; the fade-out ramp then applies at the new end.
func (t Track) Trim(d float64) Track {
	n := frameCount(d, t.sampleRate) * t.channels
	if n < len(t.samples) {
		t.samples = t.samples[:n]
	}
	t.fadeIn = clampFade(t.fadeIn, t.Duration())
	t.fadeOut = clampFade(t.fadeOut, t.Duration())
	return t
}

// Render materializes the track's samples with gain and edge fades applied.
func (t Track) Render() []float64 {
	out := make([]float64, len(t.samples))
	frames := len(t.samples) / t.channels
	fadeInFrames := frameCount(t.fadeIn, t.sampleRate)
	fadeOutFrames := frameCount(t.fadeOut, t.sampleRate)

	for f := 0; f < frames; f++ {
		amp := t.gain
		if fadeInFrames > 0 && f < fadeInFrames {
			amp *= float64(f) / float64(fadeInFrames)
		}
		if fadeOutFrames > 0 && f >= frames-fadeOutFrames {
			amp *= float64(frames-f) / float64(fadeOutFrames)
		}
		for c := 0; c < t.channels; c++ {
			i := f*t.channels + c
			out[i] = t.samples[i] * amp
		}
	}
	return out
}

// Concatenate joins tracks sequentially. The result's duration is the exact
// sum of the inputs. Per-track gain and fades are baked in before joining.
func Concatenate(tracks ...Track) (Track, error) {
	if len(tracks) == 0 {
		return Track{}, errors.New("no tracks to concatenate")
	}

	first := tracks[0]
	total := 0
	for _, tr := range tracks {
		if tr.sampleRate != first.sampleRate || tr.channels != first.channels {
			return Track{}, fmt.Errorf("%w: %dHz/%dch vs %dHz/%dch",
				ErrFormatMismatch, first.sampleRate, first.channels, tr.sampleRate, tr.channels)
		}
		total += len(tr.samples)
	}

	joined := make([]float64, 0, total)
	for _, tr := range tracks {
		joined = append(joined, tr.Render()...)
	}
	return NewTrack(joined, first.sampleRate, first.channels), nil
}

// loopFade is the edge softening applied to looped ambience beds.
const loopFade = 2.0

// LoopToDuration repeats t enough whole times to cover target seconds, trims
// to exactly target, and softens both edges with a 2-second fade. For targets
// under 4 seconds the fades compress proportionally so they never overlap.
func LoopToDuration(t Track, target float64) Track {
	wantFrames := frameCount(target, t.sampleRate)
	src := t.Render()
	srcFrames := len(src) / t.channels
	if srcFrames == 0 {
		return NewTrack(make([]float64, wantFrames*t.channels), t.sampleRate, t.channels)
	}

	out := make([]float64, wantFrames*t.channels)
	for f := 0; f < wantFrames; f++ {
		sf := f % srcFrames
		for c := 0; c < t.channels; c++ {
			out[f*t.channels+c] = src[sf*t.channels+c]
		}
	}

	looped := NewTrack(out, t.sampleRate, t.channels)
	fade := loopFade
	if target < 2*loopFade {
		fade = target / 2
	}
	return looped.WithFadeIn(fade).WithFadeOut(fade)
}

// ---------------------------------------------------------------------------
// Composite — a named multi-track timeline mixed down by additive overlay.
// ---------------------------------------------------------------------------

type compositeEntry struct {
	name  string
	track Track
	start float64 // offset from timeline start, seconds
}

// Composite maps logical track names to (track, start offset) pairs. Its
// duration is the maximum end time across entries; Mix sums samples after
// offset alignment and gain scaling.
type Composite struct {
	entries []compositeEntry
}

// Add registers a track at the given start offset.
func (c *Composite) Add(name string, t Track, start float64) {
	c.entries = append(c.entries, compositeEntry{name: name, track: t, start: start})
}

// Duration is max(start + track duration) over all entries.
func (c *Composite) Duration() float64 {
	var d float64
	for _, e := range c.entries {
		if end := e.start + e.track.Duration(); end > d {
			d = end
		}
	}
	return d
}

// Mix flattens the composite into one track. Samples are summed after
// per-track alignment and gain/fade application. There is deliberately no
// clipping protection: simultaneous loud tracks may exceed full scale, which
// matches the output loudness the pipeline has always produced.
func (c *Composite) Mix() (Track, error) {
	if len(c.entries) == 0 {
		return Track{}, errors.New("empty composite")
	}

	first := c.entries[0].track
	for _, e := range c.entries {
		if e.track.sampleRate != first.sampleRate || e.track.channels != first.channels {
			return Track{}, fmt.Errorf("%w: track %q is %dHz/%dch, expected %dHz/%dch",
				ErrFormatMismatch, e.name, e.track.sampleRate, e.track.channels,
				first.sampleRate, first.channels)
		}
	}

	totalFrames := frameCount(c.Duration(), first.sampleRate)
	out := make([]float64, totalFrames*first.channels)
	for _, e := range c.entries {
		rendered := e.track.Render()
		offset := frameCount(e.start, first.sampleRate) * first.channels
		for i, s := range rendered {
			if offset+i >= len(out) {
				break
			}
			out[offset+i] += s
		}
	}
	return NewTrack(out, first.sampleRate, first.channels), nil
}

func frameCount(seconds float64, sampleRate int) int {
	if seconds <= 0 {
		return 0
	}
	return int(math.Round(seconds * float64(sampleRate)))
}

func clampFade(d, duration float64) float64 {
	if d < 0 {
		return 0
	}
	if half := duration / 2; d > half {
		return half
	}
	return d
}
