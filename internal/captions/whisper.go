package captions

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// WhisperAligner derives word timing from an OpenAI Whisper transcription
// instead of a local forced aligner. Useful on hosts without an MFA install;
// selected by configuration when an OpenAI key is present.
type WhisperAligner struct {
	client *openai.Client
}

func NewWhisperAligner(apiKey string) *WhisperAligner {
	return &WhisperAligner{client: openai.NewClient(apiKey)}
}

var _ Aligner = (*WhisperAligner)(nil)

// Align transcribes the audio with word-level timestamp granularity. The
// provided text is not sent — Whisper re-derives it — so timings may attach
// to slightly different tokens than the source text; downstream overlay
// rendering only needs the per-word windows.
func (a *WhisperAligner) Align(ctx context.Context, text, audioPath string, globalOffset float64) ([]Cue, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio for alignment: %w", err)
	}
	defer f.Close()

	resp, err := a.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		Reader:   f,
		FilePath: filepath.Base(audioPath),
		Format:   openai.AudioResponseFormatVerboseJSON,
		Language: "en",
		TimestampGranularities: []openai.TranscriptionTimestampGranularity{
			openai.TranscriptionTimestampGranularityWord,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: whisper transcription: %v", ErrAlignmentFailed, err)
	}

	if len(resp.Words) == 0 {
		return nil, fmt.Errorf("%w: whisper returned no word timestamps (text: %q)", ErrAlignmentFailed, resp.Text)
	}

	cues := make([]Cue, 0, len(resp.Words))
	for _, w := range resp.Words {
		cues = append(cues, Cue{
			Word:  strings.TrimSpace(w.Word),
			Start: w.Start,
			End:   w.End,
		})
	}

	log.Printf("[Align] whisper timed %d words over %.1fs", len(cues), resp.Duration)
	return finalizeCues(cues, globalOffset), nil
}
