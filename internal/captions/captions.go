// Package captions turns forced-alignment output into per-word caption cues.
package captions

import "context"

// Cue is one word's display window, in seconds from the start of the audio.
// Cues are ordered by start time; gaps between cues are allowed, negative
// times are not.
type Cue struct {
	Word  string  `json:"word"`
	Start float64 `json:"start_time"`
	End   float64 `json:"end_time"`
}

// Aligner computes word-level timing for spoken text. Implementations call
// an external word-timing service on (plain text, audio file) pairs.
type Aligner interface {
	// Align returns ordered cues for text as spoken in the audio file at
	// audioPath. globalOffset shifts every cue; times are clamped to >= 0
	// after the shift, and entries with empty word text are dropped.
	Align(ctx context.Context, text, audioPath string, globalOffset float64) ([]Cue, error)
}

// finalizeCues applies the global offset, clamps to non-negative times, and
// drops empty words. Shared by every Aligner implementation.
func finalizeCues(raw []Cue, globalOffset float64) []Cue {
	out := make([]Cue, 0, len(raw))
	for _, c := range raw {
		if c.Word == "" {
			continue
		}
		c.Start += globalOffset
		c.End += globalOffset
		if c.Start < 0 {
			c.Start = 0
		}
		if c.End < 0 {
			c.End = 0
		}
		out = append(out, c)
	}
	return out
}
