package visual

import (
	"fmt"
	"log"
	"os"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/fablecast/mediagen/internal/models"
)

// Thumbnail output resolution.
const (
	thumbnailWidth  = 1280
	thumbnailHeight = 720

	audioLabelFontSize = 90
	titleFontSize      = 150

	// Stroke approximation: the text is stamped at every offset within the
	// contour radius before the fill color goes on top.
	audioLabelContour = 4
	titleContour      = 5
)

// ThumbnailAssets locates the fonts and overlay icons used by thumbnail
// composition.
type ThumbnailAssets struct {
	FontPath string // hand-drawn display font, shared by title and AUDIO label
	IconDir  string // directory containing the per-theme audio icons
}

// ComposeThumbnail builds a story thumbnail: vignetted source image, theme
// audio icon at the top right with an outlined "AUDIO" label under it, and
// the outlined title at the bottom left, scaled to 1280x720.
func ComposeThumbnail(imagePath, title string, theme models.Theme, assets ThumbnailAssets, outPath string) error {
	vignettePath, err := ApplyVignette(imagePath, DefaultVignetteIntensity, DefaultVignetteBlur)
	if err != nil {
		return err
	}
	// The vignetted copy is an intermediate; remove it on every exit path.
	defer os.Remove(vignettePath)

	base, err := gg.LoadImage(vignettePath)
	if err != nil {
		return fmt.Errorf("thumbnail: could not load vignetted image: %w", err)
	}

	dc := gg.NewContextForImage(base)
	w, h := dc.Width(), dc.Height()

	// Theme audio icon, 400px wide, top right with a small inset.
	iconPath := assets.IconDir + "/" + theme.AudioIcon
	iconWidth := 400
	icon, err := imaging.Open(iconPath)
	if err != nil {
		log.Printf("[Thumbnail] missing audio icon %s: %v", iconPath, err)
	} else {
		icon = imaging.Resize(icon, iconWidth, 0, imaging.Lanczos)
		iconH := icon.Bounds().Dy()
		dc.DrawImage(icon, w-iconWidth-40, 30)

		if err := dc.LoadFontFace(assets.FontPath, audioLabelFontSize); err != nil {
			return fmt.Errorf("thumbnail: could not load font %s: %w", assets.FontPath, err)
		}
		drawOutlinedString(dc, "AUDIO",
			float64(w-iconWidth+50), float64(20+iconH)+audioLabelFontSize,
			audioLabelContour, theme.ContourColor, theme.TextColor)
	}

	if err := dc.LoadFontFace(assets.FontPath, titleFontSize); err != nil {
		return fmt.Errorf("thumbnail: could not load font %s: %w", assets.FontPath, err)
	}
	drawOutlinedString(dc, title, 50, float64(h-200)+titleFontSize,
		titleContour, theme.ContourColor, theme.TextColor)

	resized := imaging.Resize(dc.Image(), thumbnailWidth, thumbnailHeight, imaging.Lanczos)
	if err := imaging.Save(resized, outPath); err != nil {
		return fmt.Errorf("thumbnail: could not save %s: %w", outPath, err)
	}
	return nil
}

// drawOutlinedString stamps the string at every pixel offset inside the
// contour radius in the outline color, then draws the fill on top.
func drawOutlinedString(dc *gg.Context, s string, x, y float64, contour int, outline, fill string) {
	dc.SetHexColor(outline)
	for dx := -contour; dx <= contour; dx++ {
		for dy := -contour; dy <= contour; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			dc.DrawString(s, x+float64(dx), y+float64(dy))
		}
	}
	dc.SetHexColor(fill)
	dc.DrawString(s, x, y)
}
