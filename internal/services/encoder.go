package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/fablecast/mediagen/internal/visual"
)

// Fixed encoding profile: 24 fps, high bitrate, slow preset. Matching the
// profile across every render keeps concatenated chapters seamless.
const (
	videoFPS     = 24
	videoBitrate = "8000k"
	videoPreset  = "slow"
)

// Encoder drives ffmpeg/ffprobe: it compiles a visual.Timeline into a
// filtergraph and encodes it, joins rendered clips, and probes durations.
type Encoder struct {
	ffmpegPath  string
	ffprobePath string
	tempDir     string
}

func NewEncoder(ffmpegPath, ffprobePath, tempDir string) *Encoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		panic(fmt.Sprintf("failed to create temp dir: %v", err))
	}
	return &Encoder{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath, tempDir: tempDir}
}

// RenderTimeline composites a timeline over a black background and encodes
// it to outputPath with the fixed profile.
func (e *Encoder) RenderTimeline(ctx context.Context, t *visual.Timeline, outputPath string) error {
	duration := t.Duration()
	if duration <= 0 {
		return fmt.Errorf("timeline has no duration")
	}

	layers := t.ClampedLayers()

	// Input 0 is the black canvas; media layers follow in order, the
	// soundtrack comes last.
	args := []string{
		"-f", "lavfi",
		"-i", fmt.Sprintf("color=c=black:s=%dx%d:r=%d:d=%.3f", t.Width, t.Height, videoFPS, duration),
	}

	inputIndex := 1
	layerInput := make(map[int]int) // layer index -> ffmpeg input index
	for i, l := range layers {
		switch l.Kind {
		case visual.LayerImage:
			args = append(args, "-loop", "1", "-t", fmt.Sprintf("%.3f", l.End-l.Start), "-i", l.Source)
			layerInput[i] = inputIndex
			inputIndex++
		case visual.LayerVideo:
			args = append(args, "-i", l.Source)
			layerInput[i] = inputIndex
			inputIndex++
		}
	}

	audioIndex := -1
	if t.Audio != "" {
		args = append(args, "-i", t.Audio)
		audioIndex = inputIndex
	}

	filter := e.buildFilterGraph(t, layers, layerInput, duration)

	args = append(args, "-filter_complex", filter, "-map", "[vout]")
	if audioIndex >= 0 {
		args = append(args, "-map", fmt.Sprintf("%d:a", audioIndex))
	}
	args = append(args, encodeFlags(duration)...)
	args = append(args, "-y", outputPath)

	log.Printf("[FFmpeg] rendering timeline (%.2fs, %d layers) -> %s", duration, len(layers), outputPath)
	return e.run(ctx, args)
}

// buildFilterGraph chains the per-layer filters onto the black canvas:
// media layers are scaled and overlaid inside their time windows, text
// layers are drawn with fade-in alpha, and the whole frame gets the
// timeline's edge fades.
func (e *Encoder) buildFilterGraph(t *visual.Timeline, layers []visual.Layer, layerInput map[int]int, duration float64) string {
	var chains []string
	current := "[0:v]"
	label := 0

	next := func() string {
		label++
		return fmt.Sprintf("[v%d]", label)
	}

	for i, l := range layers {
		switch l.Kind {
		case visual.LayerImage, visual.LayerVideo:
			in := fmt.Sprintf("[%d:v]", layerInput[i])
			prepared := fmt.Sprintf("[p%d]", i)

			var steps []string
			if l.Kind == visual.LayerVideo {
				steps = append(steps, fmt.Sprintf("trim=end=%.3f", l.End-l.Start))
			}
			if l.FillCanvas {
				steps = append(steps,
					fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase", t.Width, t.Height),
					fmt.Sprintf("crop=%d:%d", t.Width, t.Height))
			} else if l.ScaleHeight > 0 {
				steps = append(steps, fmt.Sprintf("scale=-2:%d", l.ScaleHeight))
			}
			// Shift the layer's frames to its start time on the canvas.
			steps = append(steps, fmt.Sprintf("setpts=PTS-STARTPTS+%.3f/TB", l.Start))
			chains = append(chains, in+strings.Join(steps, ",")+prepared)

			out := next()
			chains = append(chains, fmt.Sprintf("%s%soverlay=%s:%s:enable='between(t,%.3f,%.3f)'%s",
				current, prepared, overlayX(l.Position), overlayY(l.Position), l.Start, l.End, out))
			current = out

		case visual.LayerText:
			out := next()
			chains = append(chains, current+drawtextFilter(l)+out)
			current = out
		}
	}

	final := []string{}
	if t.FadeIn > 0 {
		final = append(final, fmt.Sprintf("fade=t=in:st=0:d=%.3f", t.FadeIn))
	}
	if t.FadeOut > 0 {
		final = append(final, fmt.Sprintf("fade=t=out:st=%.3f:d=%.3f", duration-t.FadeOut, t.FadeOut))
	}
	final = append(final, "format=yuv420p")
	chains = append(chains, current+strings.Join(final, ",")+"[vout]")

	return strings.Join(chains, ";")
}

// drawtextFilter renders a text layer: optional outline, fade-in via the
// alpha expression, visibility bounded by enable.
func drawtextFilter(l visual.Layer) string {
	var b strings.Builder
	fmt.Fprintf(&b, "drawtext=text='%s'", escapeDrawtext(l.Text))
	if l.FontPath != "" {
		fmt.Fprintf(&b, ":fontfile='%s'", escapeFilterPath(l.FontPath))
	}
	fmt.Fprintf(&b, ":fontsize=%d:fontcolor=%s", l.FontSize, l.Color)
	if l.OutlineWidth > 0 {
		fmt.Fprintf(&b, ":bordercolor=%s:borderw=%d", l.OutlineColor, l.OutlineWidth)
	}

	if l.Position.CenterX {
		b.WriteString(":x=(w-text_w)/2")
	} else {
		fmt.Fprintf(&b, ":x=%d", l.Position.X)
	}
	if l.Position.CenterY {
		b.WriteString(":y=(h-text_h)/2")
	} else {
		fmt.Fprintf(&b, ":y=%d", l.Position.Y)
	}

	if l.FadeIn > 0 {
		fmt.Fprintf(&b, ":alpha='if(lt(t,%.3f),0,if(lt(t,%.3f),(t-%.3f)/%.3f,1))'",
			l.Start, l.Start+l.FadeIn, l.Start, l.FadeIn)
	}
	fmt.Fprintf(&b, ":enable='between(t,%.3f,%.3f)'", l.Start, l.End)
	return b.String()
}

func overlayX(p visual.Position) string {
	if p.CenterX {
		return "(W-w)/2"
	}
	return fmt.Sprint(p.X)
}

func overlayY(p visual.Position) string {
	if p.CenterY {
		return "(H-h)/2"
	}
	return fmt.Sprint(p.Y)
}

// Concatenate joins rendered clips end to end, optionally drawing text
// layers over the joined result (used for the full-story title overlay).
// Clips are re-encoded with the fixed profile so mixed sources join cleanly.
func (e *Encoder) Concatenate(ctx context.Context, clipPaths []string, overlays []visual.Layer, outputPath string) error {
	if len(clipPaths) == 0 {
		return fmt.Errorf("no clips to concatenate")
	}

	listPath := filepath.Join(e.tempDir, fmt.Sprintf("concat_%s.txt", uuid.New().String()))
	f, err := os.Create(listPath)
	if err != nil {
		return fmt.Errorf("failed to create concat list: %w", err)
	}
	for _, path := range clipPaths {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		fmt.Fprintf(f, "file '%s'\n", abs)
	}
	f.Close()
	defer os.Remove(listPath)

	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
	}

	if len(overlays) > 0 {
		var filters []string
		for _, l := range overlays {
			filters = append(filters, drawtextFilter(l))
		}
		args = append(args, "-vf", strings.Join(filters, ","))
	}

	args = append(args,
		"-r", fmt.Sprint(videoFPS),
		"-c:v", "libx264",
		"-preset", videoPreset,
		"-b:v", videoBitrate,
		"-c:a", "aac",
		"-pix_fmt", "yuv420p",
		"-y", outputPath,
	)

	log.Printf("[FFmpeg] concatenating %d clips -> %s", len(clipPaths), outputPath)
	return e.run(ctx, args)
}

// ProbeDuration returns a media file's duration in seconds via ffprobe.
func (e *Encoder) ProbeDuration(ctx context.Context, path string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}

	cmd := exec.CommandContext(ctx, e.ffprobePath, args...)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed for %s: %w", path, err)
	}

	var seconds float64
	if _, err := fmt.Sscanf(strings.TrimSpace(string(output)), "%f", &seconds); err != nil {
		return 0, fmt.Errorf("failed to parse duration of %s: %w", path, err)
	}
	return seconds, nil
}

func (e *Encoder) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		trimmed := out
		if len(trimmed) > 800 {
			trimmed = trimmed[len(trimmed)-800:]
		}
		return fmt.Errorf("ffmpeg failed: %w: %s", err, trimmed)
	}
	return nil
}

func encodeFlags(duration float64) []string {
	return []string{
		"-t", fmt.Sprintf("%.3f", duration),
		"-r", fmt.Sprint(videoFPS),
		"-c:v", "libx264",
		"-preset", videoPreset,
		"-b:v", videoBitrate,
		"-c:a", "aac",
	}
}

// escapeDrawtext escapes the characters drawtext treats specially.
func escapeDrawtext(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "'", "\\'")
	s = strings.ReplaceAll(s, ":", "\\:")
	s = strings.ReplaceAll(s, "%", "\\%")
	return s
}

// escapeFilterPath escapes path characters that ffmpeg filter syntax treats
// specially (relevant for Windows paths and colons).
func escapeFilterPath(path string) string {
	path = strings.ReplaceAll(path, "\\", "\\\\")
	path = strings.ReplaceAll(path, ":", "\\:")
	path = strings.ReplaceAll(path, "'", "'\\''")
	return path
}
