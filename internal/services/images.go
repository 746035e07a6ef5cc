package services

import (
	"context"
	"fmt"
	"log"
	"sync"

	"golang.org/x/sync/singleflight"
	"google.golang.org/genai"
)

const imagenModel = "imagen-4.0-generate-001"

// negativePrompt steers the model away from the usual failure modes of
// generated story art.
const negativePrompt = "low quality, text, logos, watermarks, signatures, " +
	"out of frame, jpeg artifacts, extra limbs, partial body, overlapping bodies, " +
	"merged bodies, extra fingers, bad anatomy, impossible body positioning, " +
	"mismatched eyes, crooked face, mutations, deformities, off center, " +
	"poor composition, duplicate faces, blurry, doll"

// ImageService generates still images via the Imagen model. The API client
// is expensive to build, so it is created once on first use and cached; the
// singleflight group guarantees exactly one initialization even when several
// requests hit a cold service at once.
type ImageService struct {
	apiKey string

	initGroup singleflight.Group
	mu        sync.Mutex
	client    *genai.Client
}

func NewImageService(apiKey string) *ImageService {
	return &ImageService{apiKey: apiKey}
}

func (s *ImageService) getClient(ctx context.Context) (*genai.Client, error) {
	s.mu.Lock()
	cached := s.client
	s.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	v, err, _ := s.initGroup.Do("client", func() (interface{}, error) {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  s.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create genai client: %w", err)
		}
		s.mu.Lock()
		s.client = client
		s.mu.Unlock()
		log.Printf("[Image] genai client initialized (model=%s)", imagenModel)
		return client, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*genai.Client), nil
}

// Generate produces one image for the prompt at approximately the requested
// dimensions (the model works in aspect ratios, so width/height select the
// nearest supported ratio). Returns the raw image bytes (PNG).
func (s *ImageService) Generate(ctx context.Context, prompt string, width, height int) ([]byte, error) {
	client, err := s.getClient(ctx)
	if err != nil {
		return nil, err
	}

	aspect := nearestAspectRatio(width, height)
	config := &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		AspectRatio:    aspect,
		NegativePrompt: negativePrompt,
		OutputMIMEType: "image/png",
	}

	log.Printf("[Image] generating (aspect=%s, promptLen=%d)", aspect, len(prompt))

	resp, err := client.Models.GenerateImages(ctx, imagenModel, prompt, config)
	if err != nil {
		return nil, fmt.Errorf("image generation failed: %w", err)
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return nil, fmt.Errorf("image generation returned no images")
	}

	data := resp.GeneratedImages[0].Image.ImageBytes
	if len(data) == 0 {
		return nil, fmt.Errorf("image generation returned empty image data")
	}
	return data, nil
}

// nearestAspectRatio maps requested pixel dimensions to the closest ratio
// the model supports.
func nearestAspectRatio(width, height int) string {
	if width <= 0 || height <= 0 {
		return "16:9"
	}

	ratios := map[string]float64{
		"1:1":  1,
		"3:4":  3.0 / 4,
		"4:3":  4.0 / 3,
		"9:16": 9.0 / 16,
		"16:9": 16.0 / 9,
	}

	want := float64(width) / float64(height)
	best, bestDiff := "16:9", -1.0
	for name, r := range ratios {
		diff := r - want
		if diff < 0 {
			diff = -diff
		}
		if bestDiff < 0 || diff < bestDiff {
			best, bestDiff = name, diff
		}
	}
	return best
}
