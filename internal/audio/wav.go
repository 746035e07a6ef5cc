package audio

import (
	"fmt"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const pcmBitDepth = 16

// LoadWAV decodes a PCM WAV file into a Track. Inputs are expected to be in
// the canonical pipeline format already (see Processor.Sanitize); the decoder
// keeps whatever rate/channel count the file declares so format mismatches
// surface at composition time instead of being silently resampled.
func LoadWAV(path string) (Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return Track{}, fmt.Errorf("failed to open wav %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Track{}, fmt.Errorf("failed to decode wav %s: %w", path, err)
	}
	if buf.Format == nil || buf.Format.NumChannels == 0 {
		return Track{}, fmt.Errorf("wav %s has no format information", path)
	}

	scale := float64(int(1) << (buf.SourceBitDepth - 1))
	if buf.SourceBitDepth == 0 {
		scale = 1 << (pcmBitDepth - 1)
	}

	samples := make([]float64, len(buf.Data))
	for i, s := range buf.Data {
		samples[i] = float64(s) / scale
	}

	return NewTrack(samples, buf.Format.SampleRate, buf.Format.NumChannels), nil
}

// SaveWAV renders a track and writes it as 16-bit PCM WAV. Mixed composites
// are not normalized first, so out-of-range samples clip at full scale here —
// the same hard ceiling the encoder would apply.
func SaveWAV(t Track, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create wav %s: %w", path, err)
	}
	defer f.Close()

	rendered := t.Render()
	buf := &gaudio.IntBuffer{
		Format: &gaudio.Format{
			NumChannels: t.ChannelCount(),
			SampleRate:  t.SampleRate(),
		},
		Data:           make([]int, len(rendered)),
		SourceBitDepth: pcmBitDepth,
	}

	const full = 1 << (pcmBitDepth - 1)
	for i, s := range rendered {
		v := int(s * full)
		if v > full-1 {
			v = full - 1
		} else if v < -full {
			v = -full
		}
		buf.Data[i] = v
	}

	enc := wav.NewEncoder(f, t.SampleRate(), pcmBitDepth, t.ChannelCount(), 1)
	if err := enc.Write(buf); err != nil {
		enc.Close()
		return fmt.Errorf("failed to write wav %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize wav %s: %w", path, err)
	}
	return nil
}
