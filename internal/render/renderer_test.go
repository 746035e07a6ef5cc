package render

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fablecast/mediagen/internal/audio"
	"github.com/fablecast/mediagen/internal/captions"
	"github.com/fablecast/mediagen/internal/models"
	"github.com/fablecast/mediagen/internal/visual"
)

type fakeSpeech struct {
	texts []string
}

func (f *fakeSpeech) Synthesize(ctx context.Context, storyType models.StoryType, text, outputPath string) error {
	f.texts = append(f.texts, text)
	return os.WriteFile(outputPath, []byte("mp3"), 0644)
}

// fakeSanitizer writes a fixed-duration silent WAV regardless of the input,
// standing in for the ffmpeg conversion.
type fakeSanitizer struct {
	duration float64
	sources  []string
}

func (f *fakeSanitizer) Sanitize(ctx context.Context, inputPath, outputPath string) error {
	f.sources = append(f.sources, inputPath)
	return audio.SaveWAV(audio.Silence(f.duration), outputPath)
}

type fakeEncoder struct {
	timelines []*visual.Timeline
	concats   [][]string
	overlays  [][]visual.Layer
	outputs   []string
	probed    []string
	concatErr error
}

func (f *fakeEncoder) RenderTimeline(ctx context.Context, t *visual.Timeline, outputPath string) error {
	f.timelines = append(f.timelines, t)
	f.outputs = append(f.outputs, outputPath)
	return os.WriteFile(outputPath, []byte("mp4"), 0644)
}

func (f *fakeEncoder) Concatenate(ctx context.Context, clipPaths []string, overlays []visual.Layer, outputPath string) error {
	if f.concatErr != nil {
		return f.concatErr
	}
	f.concats = append(f.concats, clipPaths)
	f.overlays = append(f.overlays, overlays)
	f.outputs = append(f.outputs, outputPath)
	return os.WriteFile(outputPath, []byte("mp4"), 0644)
}

func (f *fakeEncoder) ProbeDuration(ctx context.Context, path string) (float64, error) {
	f.probed = append(f.probed, path)
	return 10, nil
}

type fakeAligner struct {
	cues []captions.Cue
}

func (f *fakeAligner) Align(ctx context.Context, text, audioPath string, globalOffset float64) ([]captions.Cue, error) {
	return f.cues, nil
}

func writeTestPNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 64, 36))
	for y := 0; y < 36; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.NRGBA{R: 180, G: 180, B: 180, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func newTestRenderer(t *testing.T, speech *fakeSpeech, enc *fakeEncoder, san *fakeSanitizer, al *fakeAligner) *Renderer {
	t.Helper()
	return NewRenderer(speech, enc, san, al, Config{
		AssetsDir: t.TempDir(),
		OutputDir: t.TempDir(),
		TempDir:   t.TempDir(),
	})
}

func TestRenderChapterBuildsIntroAndContent(t *testing.T) {
	speech := &fakeSpeech{}
	enc := &fakeEncoder{}
	san := &fakeSanitizer{duration: 1}

	r := newTestRenderer(t, speech, enc, san, nil)

	imagePath := filepath.Join(t.TempDir(), "bg.png")
	writeTestPNG(t, imagePath)

	out, err := r.RenderChapter(context.Background(), models.ChapterRequest{
		Type:            models.StoryTypeHorror,
		Title:           "The Hollow House",
		Chapter:         "Chapter One",
		Content:         "It began at midnight.",
		OutputFilename:  "output_video.mp4",
		BackgroundImage: imagePath,
	})
	require.NoError(t, err)
	require.Equal(t, "output_video.mp4", filepath.Base(out))
	require.FileExists(t, out)

	// Title, chapter, and content are each narrated once.
	require.Equal(t, []string{"The Hollow House", "Chapter One", "It began at midnight."}, speech.texts)

	require.Len(t, enc.timelines, 2)

	intro := enc.timelines[0]
	require.Equal(t, 1920, intro.Width)
	require.Equal(t, 1080, intro.Height)
	require.InDelta(t, 10.0, intro.Duration(), 1e-9)
	require.InDelta(t, 2.0, intro.FadeOut, 1e-9)
	require.Len(t, intro.Layers, 2)
	require.Equal(t, visual.LayerText, intro.Layers[0].Kind)
	require.InDelta(t, 4.0, intro.Layers[0].Start, 1e-9)
	require.InDelta(t, 2.5, intro.Layers[0].FadeIn, 1e-9)
	require.InDelta(t, 5.0, intro.Layers[1].FadeIn, 1e-9)

	// One second of narration: bed loops to 6s, mix stays 6s, plus the
	// leading two seconds of silence.
	content := enc.timelines[1]
	require.InDelta(t, 8.0, content.Duration(), 1e-6)
	require.InDelta(t, 1.0, content.FadeIn, 1e-9)
	require.InDelta(t, 1.0, content.FadeOut, 1e-9)
	require.Len(t, content.Layers, 1)
	require.Equal(t, visual.LayerImage, content.Layers[0].Kind)
	require.Equal(t, 1080, content.Layers[0].ScaleHeight)

	require.Len(t, enc.concats, 1)
	require.Len(t, enc.concats[0], 2)
}

func TestRenderChapterConcatFailureProbesClips(t *testing.T) {
	speech := &fakeSpeech{}
	enc := &fakeEncoder{concatErr: errors.New("moov atom not found")}
	san := &fakeSanitizer{duration: 1}

	r := newTestRenderer(t, speech, enc, san, nil)

	imagePath := filepath.Join(t.TempDir(), "bg.png")
	writeTestPNG(t, imagePath)

	_, err := r.RenderChapter(context.Background(), models.ChapterRequest{
		Type:            models.StoryTypeHorror,
		Title:           "The Hollow House",
		Chapter:         "Chapter One",
		Content:         "It began at midnight.",
		OutputFilename:  "output_video.mp4",
		BackgroundImage: imagePath,
	})
	require.Error(t, err)
	require.Equal(t, KindEncoding, KindOf(err))

	var re *Error
	require.ErrorAs(t, err, &re)
	require.Equal(t, "Failed to export the video", re.Message)

	// Both sub-timelines are probed for the failure diagnostic.
	require.Len(t, enc.probed, 2)
}

func TestRenderFullStoryMissingChapterFile(t *testing.T) {
	r := newTestRenderer(t, &fakeSpeech{}, &fakeEncoder{}, &fakeSanitizer{duration: 1}, nil)

	missing := filepath.Join(t.TempDir(), "nope.mp4")
	_, err := r.RenderFullStory(context.Background(), models.FullStoryRequest{
		Type:           models.StoryTypeHorror,
		OutputFilename: "output_video.mp4",
		ChapterPaths:   []string{missing},
	})
	require.Error(t, err)
	require.Equal(t, KindValidation, KindOf(err))

	var re *Error
	require.ErrorAs(t, err, &re)
	require.Equal(t, "Video file not found: "+missing, re.Message)
}

func TestRenderFullStoryIntroTimingAndOverlay(t *testing.T) {
	speech := &fakeSpeech{}
	enc := &fakeEncoder{}
	san := &fakeSanitizer{duration: 12}

	r := newTestRenderer(t, speech, enc, san, nil)

	dir := t.TempDir()
	var chapters []string
	for _, name := range []string{"c1.mp4", "c2.mp4", "c3.mp4"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("mp4"), 0644))
		chapters = append(chapters, p)
	}

	out, err := r.RenderFullStory(context.Background(), models.FullStoryRequest{
		Type:           models.StoryTypeHorror,
		Title:          "The Hollow House",
		OutputFilename: "output_video.mp4",
		ChapterPaths:   chapters,
	})
	require.NoError(t, err)
	require.FileExists(t, out)

	// Horror base time is 5: the intro runs to 10s with a 2s fade-out.
	require.Len(t, enc.timelines, 1)
	intro := enc.timelines[0]
	require.InDelta(t, 10.0, intro.Duration(), 1e-9)
	require.InDelta(t, 2.0, intro.FadeOut, 1e-9)
	require.Len(t, intro.Layers, 1)
	require.Equal(t, visual.LayerVideo, intro.Layers[0].Kind)
	require.Equal(t, 1080, intro.Layers[0].ScaleHeight)

	// Intro plus the three chapters, title overlaid from base+1 to base+5.
	require.Len(t, enc.concats, 1)
	require.Len(t, enc.concats[0], 4)
	require.Len(t, enc.overlays[0], 1)
	title := enc.overlays[0][0]
	require.Equal(t, "The Hollow House", title.Text)
	require.InDelta(t, 6.0, title.Start, 1e-9)
	require.InDelta(t, 10.0, title.End, 1e-9)
	require.InDelta(t, 2.0, title.FadeIn, 1e-9)
	require.Equal(t, 2, title.OutlineWidth)
}

func TestRenderShortCaptionsAndDuration(t *testing.T) {
	speech := &fakeSpeech{}
	enc := &fakeEncoder{}
	san := &fakeSanitizer{duration: 1}
	al := &fakeAligner{cues: []captions.Cue{
		{Word: "it", Start: 0.1, End: 0.4},
		{Word: "began", Start: 0.4, End: 0.9},
	}}

	r := newTestRenderer(t, speech, enc, san, al)

	imagePath := filepath.Join(t.TempDir(), "bg.png")
	writeTestPNG(t, imagePath)

	out, err := r.RenderShort(context.Background(), models.ShortRequest{
		Type:            models.StoryTypeLove,
		Text:            "it began",
		OutputFilename:  "short_video.mp4",
		BackgroundImage: imagePath,
	})
	require.NoError(t, err)
	require.Equal(t, "short_video.mp4", filepath.Base(out))

	require.Len(t, enc.timelines, 1)
	tl := enc.timelines[0]
	require.Equal(t, 1080, tl.Width)
	require.Equal(t, 1920, tl.Height)
	// One second of narration plus the two-second tail.
	require.InDelta(t, 3.0, tl.Duration(), 1e-6)
	require.InDelta(t, 1.0, tl.FadeOut, 1e-9)

	require.Len(t, tl.Layers, 3)
	require.Equal(t, visual.LayerImage, tl.Layers[0].Kind)
	require.True(t, tl.Layers[0].FillCanvas)
	require.Equal(t, "it", tl.Layers[1].Text)
	require.Equal(t, "began", tl.Layers[2].Text)
	require.InDelta(t, 0.4, tl.Layers[2].Start, 1e-9)
}

func TestScratchCloseRemovesEverything(t *testing.T) {
	t.Parallel()

	s := NewScratch(t.TempDir())
	p1 := s.Path(".wav")
	p2 := s.Path(".mp4")
	require.NoError(t, os.WriteFile(p1, []byte("a"), 0644))
	require.NoError(t, os.WriteFile(p2, []byte("b"), 0644))

	// Paths that were never created must not make Close fail.
	_ = s.Path(".png")

	s.Close()
	require.NoFileExists(t, p1)
	require.NoFileExists(t, p2)
}

func TestKindOfUnwrapsRenderErrors(t *testing.T) {
	t.Parallel()

	err := newError(KindEncoding, "export failed", os.ErrPermission)
	require.Equal(t, KindEncoding, KindOf(err))
	require.ErrorIs(t, err, os.ErrPermission)
	require.Equal(t, KindInternal, KindOf(os.ErrClosed))
}
