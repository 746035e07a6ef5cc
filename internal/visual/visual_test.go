package visual

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"

	"github.com/fablecast/mediagen/internal/models"
)

func writeTestImage(t *testing.T, w, h int) string {
	t.Helper()

	img := imaging.New(w, h, color.NRGBA{200, 200, 200, 255})
	path := filepath.Join(t.TempDir(), "source.png")
	require.NoError(t, imaging.Save(img, path))
	return path
}

func TestApplyVignetteDarkensEdges(t *testing.T) {
	t.Parallel()

	src := writeTestImage(t, 320, 180)
	outPath, err := ApplyVignette(src, DefaultVignetteIntensity, 51)
	require.NoError(t, err)
	defer os.Remove(outPath)

	out, err := imaging.Open(outPath)
	require.NoError(t, err)

	bounds := out.Bounds()
	center := color.NRGBAModel.Convert(out.At(bounds.Dx()/2, bounds.Dy()/2)).(color.NRGBA)
	corner := color.NRGBAModel.Convert(out.At(2, 2)).(color.NRGBA)

	// Center keeps most of its brightness, corners fall off.
	require.Greater(t, center.R, uint8(150))
	require.Less(t, corner.R, center.R)
}

func TestApplyVignetteUndecodableSource(t *testing.T) {
	t.Parallel()

	bogus := filepath.Join(t.TempDir(), "not-an-image.png")
	require.NoError(t, os.WriteFile(bogus, []byte("definitely not pixels"), 0o644))

	outPath, err := ApplyVignette(bogus, DefaultVignetteIntensity, DefaultVignetteBlur)
	require.Error(t, err)
	require.Empty(t, outPath)
}

func TestApplyVignetteMissingSource(t *testing.T) {
	t.Parallel()

	outPath, err := ApplyVignette(filepath.Join(t.TempDir(), "nope.png"), 0.45, 1251)
	require.Error(t, err)
	require.Empty(t, outPath)
}

func TestComposeThumbnailRemovesVignetteIntermediate(t *testing.T) {
	t.Parallel()

	src := writeTestImage(t, 320, 180)
	vignettePath := src[:len(src)-len(filepath.Ext(src))] + "_vignette.png"
	outPath := filepath.Join(t.TempDir(), "thumbnail.jpg")

	// The font is missing so composition fails past the vignette step, but
	// the vignetted copy must still be cleaned up.
	err := ComposeThumbnail(src, "The Hollow House", models.ThemeFor(models.StoryTypeHorror),
		ThumbnailAssets{FontPath: filepath.Join(t.TempDir(), "nope.ttf"), IconDir: t.TempDir()}, outPath)
	require.Error(t, err)
	require.NoFileExists(t, vignettePath)
}

func TestEllipseMaskCoversCenter(t *testing.T) {
	t.Parallel()

	mask := ellipseMask(100, 60, 0.45)
	require.Equal(t, uint8(255), mask.NRGBAAt(50, 30).R)
	require.Equal(t, uint8(0), mask.NRGBAAt(0, 0).R)
}

func TestTimelineDuration(t *testing.T) {
	t.Parallel()

	var tl Timeline
	tl.Width, tl.Height = 1920, 1080
	tl.Add(Layer{Kind: LayerText, Text: "Chapter 1", Start: 4, End: 10})
	tl.Add(Layer{Kind: LayerText, Text: "Title", Start: 0, End: 8})

	require.InDelta(t, 10.0, tl.Duration(), 1e-9)

	tl.SetDuration(12)
	require.InDelta(t, 12.0, tl.Duration(), 1e-9)
}

func TestTimelineClampedLayers(t *testing.T) {
	t.Parallel()

	var tl Timeline
	tl.SetDuration(5)
	tl.Add(Layer{Kind: LayerText, Text: "a", Start: -1, End: 3})
	tl.Add(Layer{Kind: LayerText, Text: "b", Start: 4, End: 99})
	tl.Add(Layer{Kind: LayerText, Text: "empty", Start: 3, End: 3})

	layers := tl.ClampedLayers()
	require.Len(t, layers, 2)
	require.InDelta(t, 0.0, layers[0].Start, 1e-9)
	require.InDelta(t, 3.0, layers[0].End, 1e-9)
	require.InDelta(t, 5.0, layers[1].End, 1e-9)
}

func TestTotalDurationIsAdditive(t *testing.T) {
	t.Parallel()

	a := &Timeline{}
	a.SetDuration(10)
	b := &Timeline{}
	b.SetDuration(32.5)

	require.InDelta(t, 42.5, TotalDuration(a, b), 1e-9)
}
