package audio

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
)

// ErrSanitizeFailed wraps sanitization failures: missing source asset or a
// nonzero transcoder exit. Callers surface it as a client-visible error.
var ErrSanitizeFailed = errors.New("audio sanitization failed")

// Processor invokes the external audio tools. Paths to the binaries come
// from configuration so deployments can pin specific builds.
type Processor struct {
	ffmpegPath       string
	soundstretchPath string
}

func NewProcessor(ffmpegPath, soundstretchPath string) *Processor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if soundstretchPath == "" {
		soundstretchPath = "soundstretch"
	}
	return &Processor{ffmpegPath: ffmpegPath, soundstretchPath: soundstretchPath}
}

// Sanitize re-encodes an arbitrary audio asset into the pipeline's canonical
// format: 44.1kHz stereo uncompressed PCM with all container metadata
// (chapter markers and the like) stripped. It writes outputPath and returns
// ErrSanitizeFailed when the source is missing or the transcoder exits
// nonzero.
func (p *Processor) Sanitize(ctx context.Context, inputPath, outputPath string) error {
	if _, err := os.Stat(inputPath); err != nil {
		return fmt.Errorf("%w: %s", ErrSanitizeFailed, inputPath)
	}

	args := []string{
		"-y",
		"-i", inputPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", fmt.Sprint(SampleRate),
		"-ac", fmt.Sprint(Channels),
		outputPath,
	}

	cmd := exec.CommandContext(ctx, p.ffmpegPath, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		log.Printf("[Audio] sanitize failed for %s: %v: %s", inputPath, err, tail(out))
		return fmt.Errorf("%w: %s", ErrSanitizeFailed, inputPath)
	}
	return nil
}

// TimeStretch shifts the tempo of an audio file by tempoDeltaPercent
// (e.g. -8 slows playback by 8%) without changing pitch. It reports success
// rather than returning an error: a missing tool or bad path yields false
// and the caller decides whether the stretched variant was essential.
func (p *Processor) TimeStretch(ctx context.Context, inputPath, outputPath string, tempoDeltaPercent float64) bool {
	cmd := exec.CommandContext(ctx, p.soundstretchPath,
		inputPath, outputPath, fmt.Sprintf("-tempo=%g", tempoDeltaPercent))
	if out, err := cmd.CombinedOutput(); err != nil {
		log.Printf("[Audio] time-stretch failed for %s: %v: %s", inputPath, err, tail(out))
		return false
	}
	return true
}

// equalizerChain is the fixed mastering curve applied to synthesized speech:
// 95% pre-attenuation, a bass cut at 74Hz, and five shelving bands shaping
// the mids and highs.
const equalizerChain = "volume=0.95," +
	"lowshelf=g=-23:f=74," +
	"highshelf=g=4.6:f=199," +
	"highshelf=g=-9.5:f=890," +
	"highshelf=g=0:f=1200," +
	"highshelf=g=5.4:f=2780," +
	"highshelf=g=7:f=7400"

// Equalize applies the fixed shelving-filter chain to an audio file. It is a
// best-effort mastering pass: on any failure it logs and leaves outputPath
// unwritten so the caller keeps using the unprocessed artifact.
func (p *Processor) Equalize(ctx context.Context, inputPath, outputPath string) {
	args := []string{
		"-y",
		"-i", inputPath,
		"-af", equalizerChain,
		outputPath,
	}

	cmd := exec.CommandContext(ctx, p.ffmpegPath, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		log.Printf("[Audio] equalization failed for %s: %v: %s", inputPath, err, tail(out))
		os.Remove(outputPath)
	}
}

// tail trims subprocess output to its last lines for log readability.
func tail(out []byte) string {
	const max = 400
	if len(out) <= max {
		return string(out)
	}
	return "..." + string(out[len(out)-max:])
}
