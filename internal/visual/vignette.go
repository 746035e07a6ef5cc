package visual

import (
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// Default vignette parameters. BlurStrength is a Gaussian kernel size and
// must stay an odd positive integer; callers tuning it keep it odd.
const (
	DefaultVignetteIntensity = 0.45
	DefaultVignetteBlur      = 1251
)

// ApplyVignette darkens an image radially: a centered white ellipse (axes =
// intensity x dimensions) is blurred into a soft mask and each color channel
// is scaled by it. The processed image is written next to the source with a
// "_vignette.png" suffix and its path returned. A source that cannot be
// decoded yields an error, never a panic.
func ApplyVignette(imagePath string, intensity float64, blurStrength int) (string, error) {
	src, err := imaging.Open(imagePath)
	if err != nil {
		return "", fmt.Errorf("vignette: could not decode %s: %w", imagePath, err)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	mask := ellipseMask(w, h, intensity)

	// A Gaussian kernel of size k is roughly equivalent to sigma ~ k/6;
	// imaging takes sigma directly.
	sigma := float64(blurStrength) / 6
	blurred := imaging.Blur(mask, sigma)

	out := imaging.Clone(src)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m := uint32(blurred.NRGBAAt(x, y).R)
			i := out.PixOffset(x, y)
			out.Pix[i+0] = uint8(uint32(out.Pix[i+0]) * m / 255)
			out.Pix[i+1] = uint8(uint32(out.Pix[i+1]) * m / 255)
			out.Pix[i+2] = uint8(uint32(out.Pix[i+2]) * m / 255)
		}
	}

	ext := filepath.Ext(imagePath)
	outPath := strings.TrimSuffix(imagePath, ext) + "_vignette.png"
	if err := imaging.Save(out, outPath); err != nil {
		return "", fmt.Errorf("vignette: could not save %s: %w", outPath, err)
	}
	return outPath, nil
}

// ellipseMask builds a grayscale mask with a filled white ellipse centered on
// the canvas, axes sized by intensity.
func ellipseMask(w, h int, intensity float64) *image.NRGBA {
	mask := imaging.New(w, h, color.NRGBA{0, 0, 0, 255})

	cx, cy := float64(w)/2, float64(h)/2
	ax, ay := float64(w)*intensity, float64(h)*intensity
	if ax <= 0 || ay <= 0 {
		return mask
	}

	for y := 0; y < h; y++ {
		dy := (float64(y) - cy) / ay
		for x := 0; x < w; x++ {
			dx := (float64(x) - cx) / ax
			if dx*dx+dy*dy <= 1 {
				i := mask.PixOffset(x, y)
				mask.Pix[i+0] = 255
				mask.Pix[i+1] = 255
				mask.Pix[i+2] = 255
			}
		}
	}
	return mask
}
