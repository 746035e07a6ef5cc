package render

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fablecast/mediagen/internal/audio"
	"github.com/fablecast/mediagen/internal/captions"
	"github.com/fablecast/mediagen/internal/models"
	"github.com/fablecast/mediagen/internal/services"
	"github.com/fablecast/mediagen/internal/visual"
)

// Chapter video timing. The intro always runs ten seconds: the chapter text
// appears at four with a long fade, the title is visible throughout, and the
// narration sits between two-second silences.
const (
	introSilence     = 2.0
	chapterTextStart = 4.0
	chapterTextEnd   = 10.0
	chapterTextFade  = 2.5
	titleTextFade    = 5.0
	introDuration    = 10.0
	introFadeOut     = 2.0

	bedTail          = 5.0  // background bed outlasts the narration by this much
	bedVolume        = 0.25
	contentAudioFade = 2.0
	contentVideoFade = 1.0

	canvasWidth  = 1920
	canvasHeight = 1080
)

// Full-story intro timing, relative to the theme's base time.
const (
	storyTitleVOOffset   = 2.0 // title narration starts at base+2
	storyIntroTailOffset = 5.0 // intro clip ends at base+5
	storyIntroFadeOut    = 2.0
	storyTitleTextStart  = 1.0 // title text visible base+1 .. base+5
	storyTitleTextFade   = 2.0
)

// Short-form timing and canvas.
const (
	shortWidth     = 1080
	shortHeight    = 1920
	shortAudioTail = 2.0
	shortFadeOut   = 1.0
)

const (
	textColor        = "white"
	textOutlineColor = "black"
	textOutlineWidth = 2
)

// Encoder is the slice of the ffmpeg service the renderer needs.
type Encoder interface {
	RenderTimeline(ctx context.Context, t *visual.Timeline, outputPath string) error
	Concatenate(ctx context.Context, clipPaths []string, overlays []visual.Layer, outputPath string) error
	ProbeDuration(ctx context.Context, path string) (float64, error)
}

// Sanitizer converts arbitrary audio (or a video's soundtrack) to canonical
// PCM WAV.
type Sanitizer interface {
	Sanitize(ctx context.Context, inputPath, outputPath string) error
}

// Renderer orchestrates the full generation pipelines: speech, audio
// composition, visual timelines, and encoding. One Renderer serves all
// requests; every render keeps its state on the stack and in a Scratch.
type Renderer struct {
	speech    services.SpeechService
	encoder   Encoder
	sanitizer Sanitizer
	aligner   captions.Aligner

	assetsDir string
	outputDir string
	tempDir   string
}

// Config carries the directory layout the renderer works in.
type Config struct {
	AssetsDir string
	OutputDir string
	TempDir   string
}

func NewRenderer(speech services.SpeechService, encoder Encoder, sanitizer Sanitizer, aligner captions.Aligner, cfg Config) *Renderer {
	return &Renderer{
		speech:    speech,
		encoder:   encoder,
		sanitizer: sanitizer,
		aligner:   aligner,
		assetsDir: cfg.AssetsDir,
		outputDir: cfg.OutputDir,
		tempDir:   cfg.TempDir,
	}
}

func (r *Renderer) fontPath() string {
	return filepath.Join(r.assetsDir, "fonts", "Caveat_Brush", "CaveatBrush-Regular.ttf")
}

// RenderChapter builds a chapter video: a ten-second title/chapter intro
// followed by the narrated content over the vignetted background image,
// joined and encoded to the requested filename.
func (r *Renderer) RenderChapter(ctx context.Context, req models.ChapterRequest) (string, error) {
	log.Printf("[Render] chapter video: type=%s title=%q chapter=%q content=%d chars",
		req.Type, req.Title, req.Chapter, len(req.Content))

	scratch := NewScratch(r.tempDir)
	defer scratch.Close()

	fontSize := req.FontSize
	if fontSize <= 0 {
		fontSize = models.DefaultFontSize
	}

	introPath, err := r.renderChapterIntro(ctx, scratch, req, fontSize)
	if err != nil {
		return "", err
	}

	contentPath, err := r.renderChapterContent(ctx, scratch, req)
	if err != nil {
		return "", err
	}

	clips := []string{introPath, contentPath}
	outputPath := filepath.Join(r.outputDir, req.OutputFilename)
	if err := r.encoder.Concatenate(ctx, clips, nil, outputPath); err != nil {
		log.Printf("[Render] chapter concatenation failed, clip durations: %s", r.clipDurations(ctx, clips))
		return "", newError(KindEncoding, "Failed to export the video", err)
	}

	log.Printf("[Render] chapter video exported to %s", outputPath)
	return outputPath, nil
}

// clipDurations probes each clip for the failure log, so a bad concatenation
// can be traced to the sub-timeline that produced the odd duration.
func (r *Renderer) clipDurations(ctx context.Context, paths []string) string {
	parts := make([]string, 0, len(paths))
	for _, p := range paths {
		d, err := r.encoder.ProbeDuration(ctx, p)
		if err != nil {
			parts = append(parts, fmt.Sprintf("%s=?", filepath.Base(p)))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%.2fs", filepath.Base(p), d))
	}
	return strings.Join(parts, " ")
}

func (r *Renderer) renderChapterIntro(ctx context.Context, scratch *Scratch, req models.ChapterRequest, fontSize int) (string, error) {
	titleVO, _, err := r.synthesizeTrack(ctx, scratch, req.Type, req.Title)
	if err != nil {
		return "", err
	}
	chapterVO, _, err := r.synthesizeTrack(ctx, scratch, req.Type, req.Chapter)
	if err != nil {
		return "", err
	}

	introAudio, err := audio.Concatenate(audio.Silence(introSilence), titleVO, audio.Silence(introSilence), chapterVO)
	if err != nil {
		return "", newError(KindInternal, "Failed to assemble intro narration", err)
	}
	if introAudio.Duration() > introDuration {
		introAudio = introAudio.Trim(introDuration)
	}

	audioPath := scratch.Path(".wav")
	if err := audio.SaveWAV(introAudio, audioPath); err != nil {
		return "", newError(KindInternal, "Failed to write intro audio", err)
	}

	tl := &visual.Timeline{Width: canvasWidth, Height: canvasHeight, FadeOut: introFadeOut, Audio: audioPath}
	tl.Add(visual.Layer{
		Kind:     visual.LayerText,
		Text:     req.Chapter,
		FontPath: r.fontPath(),
		FontSize: fontSize,
		Color:    textColor,
		Position: visual.Center,
		Start:    chapterTextStart,
		End:      chapterTextEnd,
		FadeIn:   chapterTextFade,
	})
	// Title sits below the chapter line, roughly one text height down.
	tl.Add(visual.Layer{
		Kind:     visual.LayerText,
		Text:     req.Title,
		FontPath: r.fontPath(),
		FontSize: fontSize,
		Color:    textColor,
		Position: visual.Position{CenterX: true, Y: fontSize + 100},
		Start:    0,
		End:      introDuration,
		FadeIn:   titleTextFade,
	})
	tl.SetDuration(introDuration)

	introPath := scratch.Path(".mp4")
	if err := r.encoder.RenderTimeline(ctx, tl, introPath); err != nil {
		return "", newError(KindEncoding,
			fmt.Sprintf("Failed to create the first part of the video (%.2fs)", tl.Duration()), err)
	}
	return introPath, nil
}

func (r *Renderer) renderChapterContent(ctx context.Context, scratch *Scratch, req models.ChapterRequest) (string, error) {
	voice, _, err := r.synthesizeTrack(ctx, scratch, req.Type, req.Content)
	if err != nil {
		return "", err
	}

	bed, err := r.loadBackgroundBed(ctx, scratch, req.Type, req.BackgroundSound)
	if err != nil {
		return "", err
	}
	bed = audio.LoopToDuration(bed, voice.Duration()+bedTail).WithGain(bedVolume)

	var comp audio.Composite
	comp.Add("background", bed, 0)
	comp.Add("voice", voice, 0)
	mixed, err := comp.Mix()
	if err != nil {
		return "", newError(KindInternal, "Failed to mix content audio", err)
	}

	contentAudio, err := audio.Concatenate(audio.Silence(introSilence), mixed.WithFadeOut(contentAudioFade))
	if err != nil {
		return "", newError(KindInternal, "Failed to assemble content audio", err)
	}

	audioPath := scratch.Path(".wav")
	if err := audio.SaveWAV(contentAudio, audioPath); err != nil {
		return "", newError(KindInternal, "Failed to write content audio", err)
	}

	vignettePath, err := visual.ApplyVignette(req.BackgroundImage, visual.DefaultVignetteIntensity, visual.DefaultVignetteBlur)
	if err != nil {
		return "", newError(KindInternal, "Failed to process background image", err)
	}
	scratch.Register(vignettePath)

	tl := &visual.Timeline{
		Width:   canvasWidth,
		Height:  canvasHeight,
		FadeIn:  contentVideoFade,
		FadeOut: contentVideoFade,
		Audio:   audioPath,
	}
	tl.Add(visual.Layer{
		Kind:        visual.LayerImage,
		Source:      vignettePath,
		Position:    visual.Center,
		ScaleHeight: canvasHeight,
	})
	tl.SetDuration(contentAudio.Duration())

	contentPath := scratch.Path(".mp4")
	if err := r.encoder.RenderTimeline(ctx, tl, contentPath); err != nil {
		return "", newError(KindEncoding,
			fmt.Sprintf("Failed to create the second part of the video (%.2fs)", tl.Duration()), err)
	}
	return contentPath, nil
}

// RenderFullStory joins the branded intro clip with three chapter videos and
// overlays the narrated title during the intro.
func (r *Renderer) RenderFullStory(ctx context.Context, req models.FullStoryRequest) (string, error) {
	log.Printf("[Render] full story video: type=%s title=%q chapters=%d", req.Type, req.Title, len(req.ChapterPaths))

	for _, p := range req.ChapterPaths {
		if _, err := os.Stat(p); err != nil {
			return "", newError(KindValidation, fmt.Sprintf("Video file not found: %s", p), err)
		}
	}

	scratch := NewScratch(r.tempDir)
	defer scratch.Close()

	theme := models.ThemeFor(req.Type)
	introEnd := theme.IntroBaseTime + storyIntroTailOffset
	introClipPath := filepath.Join(r.assetsDir, theme.IntroClip)

	// The intro keeps its own soundtrack, trimmed with the clip, with the
	// narrated title dropped in near the end.
	introAudioPath := scratch.Path(".wav")
	if err := r.sanitizer.Sanitize(ctx, introClipPath, introAudioPath); err != nil {
		return "", newError(KindExternalTool, "Failed to extract intro soundtrack", err)
	}
	introAudio, err := audio.LoadWAV(introAudioPath)
	if err != nil {
		return "", newError(KindInternal, "Failed to load intro soundtrack", err)
	}

	if req.Title != "" {
		titleVO, _, err := r.synthesizeTrack(ctx, scratch, req.Type, req.Title)
		if err != nil {
			return "", err
		}
		var comp audio.Composite
		comp.Add("intro", introAudio, 0)
		comp.Add("title", titleVO, theme.IntroBaseTime+storyTitleVOOffset)
		introAudio, err = comp.Mix()
		if err != nil {
			return "", newError(KindInternal, "Failed to mix intro audio", err)
		}
	}
	introAudio = introAudio.Trim(introEnd)

	mixedPath := scratch.Path(".wav")
	if err := audio.SaveWAV(introAudio, mixedPath); err != nil {
		return "", newError(KindInternal, "Failed to write intro audio", err)
	}

	tl := &visual.Timeline{Width: canvasWidth, Height: canvasHeight, FadeOut: storyIntroFadeOut, Audio: mixedPath}
	tl.Add(visual.Layer{
		Kind:        visual.LayerVideo,
		Source:      introClipPath,
		Position:    visual.Center,
		ScaleHeight: canvasHeight,
		Start:       0,
		End:         introEnd,
	})
	tl.SetDuration(introEnd)

	introPath := scratch.Path(".mp4")
	if err := r.encoder.RenderTimeline(ctx, tl, introPath); err != nil {
		return "", newError(KindEncoding,
			fmt.Sprintf("Failed to render the intro (%.2fs)", tl.Duration()), err)
	}

	var overlays []visual.Layer
	if req.Title != "" {
		overlays = append(overlays, visual.Layer{
			Kind:         visual.LayerText,
			Text:         req.Title,
			FontPath:     r.fontPath(),
			FontSize:     models.DefaultFontSize,
			Color:        textColor,
			OutlineColor: textOutlineColor,
			OutlineWidth: textOutlineWidth,
			Position:     visual.Center,
			Start:        theme.IntroBaseTime + storyTitleTextStart,
			End:          introEnd,
			FadeIn:       storyTitleTextFade,
		})
	}

	clips := append([]string{introPath}, req.ChapterPaths...)
	outputPath := filepath.Join(r.outputDir, req.OutputFilename)
	if err := r.encoder.Concatenate(ctx, clips, overlays, outputPath); err != nil {
		log.Printf("[Render] story concatenation failed, clip durations: %s", r.clipDurations(ctx, clips))
		return "", newError(KindEncoding, "Failed to export the video", err)
	}

	log.Printf("[Render] full story video exported to %s", outputPath)
	return outputPath, nil
}

// RenderShort builds a vertical video: the background image filling a
// 1080x1920 canvas, the narration with a quiet background bed, and one
// caption per spoken word timed by forced alignment.
func (r *Renderer) RenderShort(ctx context.Context, req models.ShortRequest) (string, error) {
	log.Printf("[Render] short video: type=%s text=%d chars", req.Type, len(req.Text))

	scratch := NewScratch(r.tempDir)
	defer scratch.Close()

	voice, voicePath, err := r.synthesizeTrack(ctx, scratch, req.Type, req.Text)
	if err != nil {
		return "", err
	}

	cues, err := r.aligner.Align(ctx, req.Text, voicePath, 0)
	if err != nil {
		return "", newError(KindExternalTool, "Failed to align captions with narration", err)
	}
	log.Printf("[Render] aligned %d caption cues", len(cues))

	// The bed plays as-is under the narration; no looping here.
	bed, err := r.loadBackgroundBed(ctx, scratch, req.Type, "")
	if err != nil {
		return "", err
	}

	total := voice.Duration() + shortAudioTail
	var comp audio.Composite
	comp.Add("voice", voice, 0)
	comp.Add("background", bed.WithGain(bedVolume), 0)
	comp.Add("pad", audio.Silence(total), 0)
	mixed, err := comp.Mix()
	if err != nil {
		return "", newError(KindInternal, "Failed to mix short audio", err)
	}
	mixed = mixed.Trim(total).WithFadeOut(shortFadeOut)

	audioPath := scratch.Path(".wav")
	if err := audio.SaveWAV(mixed, audioPath); err != nil {
		return "", newError(KindInternal, "Failed to write short audio", err)
	}

	tl := &visual.Timeline{Width: shortWidth, Height: shortHeight, FadeOut: shortFadeOut, Audio: audioPath}
	tl.Add(visual.Layer{
		Kind:       visual.LayerImage,
		Source:     req.BackgroundImage,
		Position:   visual.Center,
		FillCanvas: true,
	})
	for _, cue := range cues {
		tl.Add(visual.Layer{
			Kind:         visual.LayerText,
			Text:         cue.Word,
			FontPath:     r.fontPath(),
			FontSize:     models.DefaultFontSize,
			Color:        textColor,
			OutlineColor: textOutlineColor,
			OutlineWidth: textOutlineWidth,
			Position:     visual.Center,
			Start:        cue.Start,
			End:          cue.End,
		})
	}
	tl.SetDuration(total)

	outputPath := filepath.Join(r.outputDir, req.OutputFilename)
	if err := r.encoder.RenderTimeline(ctx, tl, outputPath); err != nil {
		return "", newError(KindEncoding,
			fmt.Sprintf("Failed to export the short (%.2fs)", tl.Duration()), err)
	}

	log.Printf("[Render] short video exported to %s", outputPath)
	return outputPath, nil
}

// RenderThumbnail composes the story thumbnail from the uploaded image.
func (r *Renderer) RenderThumbnail(ctx context.Context, req models.ThumbnailRequest) (string, error) {
	log.Printf("[Render] thumbnail: type=%s title=%q brand=%q", req.Type, req.Title, req.Brand)

	assets := visual.ThumbnailAssets{
		FontPath: r.fontPath(),
		IconDir:  filepath.Join(r.assetsDir, "images"),
	}
	outputPath := filepath.Join(r.outputDir, req.OutputFilename)
	if err := visual.ComposeThumbnail(req.Image, req.Title, models.ThemeFor(req.Type), assets, outputPath); err != nil {
		return "", newError(KindInternal, "Failed to compose thumbnail", err)
	}
	return outputPath, nil
}

// synthesizeTrack narrates text and returns it as a canonical PCM track,
// along with the sanitized WAV path for callers that need the file itself.
func (r *Renderer) synthesizeTrack(ctx context.Context, scratch *Scratch, storyType models.StoryType, text string) (audio.Track, string, error) {
	rawPath := scratch.Path(".mp3")
	if err := r.speech.Synthesize(ctx, storyType, text, rawPath); err != nil {
		return audio.Track{}, "", newError(KindExternalTool, "Speech synthesis failed", err)
	}

	wavPath := scratch.Path(".wav")
	if err := r.sanitizer.Sanitize(ctx, rawPath, wavPath); err != nil {
		return audio.Track{}, "", newError(KindExternalTool, "Failed to convert narration audio", err)
	}

	track, err := audio.LoadWAV(wavPath)
	if err != nil {
		return audio.Track{}, "", newError(KindInternal, "Failed to load narration audio", err)
	}
	return track, wavPath, nil
}

// loadBackgroundBed resolves the background-sound key (unknown keys fall
// back to the theme default) and loads it as a canonical track.
func (r *Renderer) loadBackgroundBed(ctx context.Context, scratch *Scratch, storyType models.StoryType, key string) (audio.Track, error) {
	srcPath := models.BackgroundSoundPath(r.assetsDir, storyType, key)
	log.Printf("[Render] background sound: %s", srcPath)

	sanitized := scratch.Path(".wav")
	if err := r.sanitizer.Sanitize(ctx, srcPath, sanitized); err != nil {
		return audio.Track{}, newError(KindExternalTool, "Failed to prepare background sound", err)
	}
	track, err := audio.LoadWAV(sanitized)
	if err != nil {
		return audio.Track{}, newError(KindInternal, "Failed to load background sound", err)
	}
	return track, nil
}
