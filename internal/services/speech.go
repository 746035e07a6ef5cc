package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"

	"github.com/fablecast/mediagen/internal/audio"
	"github.com/fablecast/mediagen/internal/models"
)

// ---------------------------------------------------------------------------
// SpeechService — common interface for speech synthesis providers.
// The orchestrator blocks on Synthesize; renders are strictly sequential.
// ---------------------------------------------------------------------------

// SpeechService converts text into a narration audio file on disk.
type SpeechService interface {
	// Synthesize writes narration for text to outputPath using the voice
	// profile selected by the story type.
	Synthesize(ctx context.Context, storyType models.StoryType, text, outputPath string) error
}

// Narration delivery settings shared by both voice profiles: slightly slowed
// and pitched down for storytelling.
const (
	speechRate  = "-10%"
	speechPitch = "-8Hz"
)

// EdgeTTSService shells out to the edge-tts synthesis tool and masters the
// result with the fixed equalization chain.
type EdgeTTSService struct {
	binPath   string
	processor *audio.Processor
}

var _ SpeechService = (*EdgeTTSService)(nil)

func NewEdgeTTSService(binPath string, processor *audio.Processor) *EdgeTTSService {
	if binPath == "" {
		binPath = "edge-tts"
	}
	return &EdgeTTSService{binPath: binPath, processor: processor}
}

// Synthesize runs the synthesis tool and applies the mastering EQ in place.
// Hyphens read poorly as mid-word pauses, so they become sentence breaks
// before synthesis.
func (s *EdgeTTSService) Synthesize(ctx context.Context, storyType models.StoryType, text, outputPath string) error {
	voice := models.ThemeFor(storyType).Voice
	prepared := strings.ReplaceAll(text, "-", ".")

	args := []string{
		"--voice", voice,
		"--rate=" + speechRate,
		"--pitch=" + speechPitch,
		"--text", prepared,
		"--write-media", outputPath,
	}

	log.Printf("[Speech] synthesizing %d chars (voice=%s)", len(prepared), voice)

	cmd := exec.CommandContext(ctx, s.binPath, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("speech synthesis failed: %w: %s", err, out)
	}

	s.masterInPlace(ctx, outputPath)
	return nil
}

// masterInPlace equalizes the synthesized audio. Equalization is best
// effort: if the pass fails the raw synthesis stays in place.
func (s *EdgeTTSService) masterInPlace(ctx context.Context, path string) {
	eqPath := path + ".eq" + ext(path)
	s.processor.Equalize(ctx, path, eqPath)
	if _, err := os.Stat(eqPath); err != nil {
		return
	}
	if err := os.Rename(eqPath, path); err != nil {
		log.Printf("[Speech] could not swap equalized audio into place: %v", err)
		os.Remove(eqPath)
	}
}

func ext(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 {
		return path[i:]
	}
	return ""
}
