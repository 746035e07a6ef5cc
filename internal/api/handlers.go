package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/fablecast/mediagen/internal/models"
	"github.com/fablecast/mediagen/internal/render"
)

const maxUploadMemory = 32 << 20

// Renderer is the slice of the render orchestrator the handlers call.
type Renderer interface {
	RenderChapter(ctx context.Context, req models.ChapterRequest) (string, error)
	RenderFullStory(ctx context.Context, req models.FullStoryRequest) (string, error)
	RenderShort(ctx context.Context, req models.ShortRequest) (string, error)
	RenderThumbnail(ctx context.Context, req models.ThumbnailRequest) (string, error)
}

// Speech narrates text straight to a file (the /generate-tts path).
type Speech interface {
	Synthesize(ctx context.Context, storyType models.StoryType, text, outputPath string) error
}

// ImageGenerator produces one image for a prompt.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string, width, height int) ([]byte, error)
}

type Handler struct {
	renderer Renderer
	speech   Speech
	images   ImageGenerator

	tempDir   string
	outputDir string
}

func NewHandler(renderer Renderer, speech Speech, images ImageGenerator, tempDir, outputDir string) *Handler {
	return &Handler{
		renderer:  renderer,
		speech:    speech,
		images:    images,
		tempDir:   tempDir,
		outputDir: outputDir,
	}
}

// Root handles GET /
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("API Media"))
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GenerateTTS handles POST /generate-tts
func (h *Handler) GenerateTTS(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text     *string `json:"text"`
		Type     string  `json:"type"`
		Filename string  `json:"filename"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON request")
		return
	}
	// An absent key and an empty value are reported differently.
	if req.Text == nil {
		respondError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if *req.Text == "" {
		respondError(w, http.StatusBadRequest, "No text provided")
		return
	}
	if req.Filename == "" {
		req.Filename = "output.wav"
	}

	outputPath := filepath.Join(h.outputDir, req.Filename)
	if err := h.speech.Synthesize(r.Context(), models.ParseStoryType(req.Type), *req.Text, outputPath); err != nil {
		log.Printf("[API] speech synthesis failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Speech synthesis failed")
		return
	}

	sendFile(w, r, outputPath, "audio/wav")
}

// GenerateImage handles POST /generate-image. The generated file is removed
// once the response has been sent.
func (h *Handler) GenerateImage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt   *string `json:"prompt"`
		Width    int     `json:"width"`
		Height   int     `json:"height"`
		Filename string  `json:"filename"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON request")
		return
	}
	if req.Prompt == nil {
		respondError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if *req.Prompt == "" {
		respondError(w, http.StatusBadRequest, "No text provided")
		return
	}
	if req.Width <= 0 {
		req.Width = 1280
	}
	if req.Height <= 0 {
		req.Height = 720
	}
	if req.Filename == "" {
		req.Filename = "output_image.png"
	}

	data, err := h.images.Generate(r.Context(), *req.Prompt, req.Width, req.Height)
	if err != nil {
		log.Printf("[API] image generation failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Image generation failed")
		return
	}

	outputPath := filepath.Join(h.outputDir, req.Filename)
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to save generated image")
		return
	}
	defer os.Remove(outputPath)

	sendFile(w, r, outputPath, "image/png")
}

// GenerateChapter handles POST /generate-chapter (multipart form).
func (h *Handler) GenerateChapter(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request data")
		return
	}

	req := models.ChapterRequest{
		Type:            models.ParseStoryType(r.FormValue("type")),
		Title:           r.FormValue("title"),
		Chapter:         r.FormValue("chapter"),
		Content:         r.FormValue("content"),
		BackgroundSound: r.FormValue("background_sound"),
		OutputFilename:  formValueDefault(r, "filename", "output_video.mp4"),
	}
	if req.Chapter == "" {
		respondError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if v := r.FormValue("font_size"); v != "" {
		fmt.Sscanf(v, "%d", &req.FontSize)
	}

	imagePath, err := h.saveUpload(r, "background_image")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Missing background image")
		return
	}
	defer os.Remove(imagePath)
	req.BackgroundImage = imagePath

	outputPath, err := h.renderer.RenderChapter(r.Context(), req)
	if err != nil {
		respondRenderError(w, err)
		return
	}

	sendFile(w, r, outputPath, "video/mp4")
}

// GenerateFullStory handles POST /generate-full-story (multipart form).
// Chapters arrive either as chapter_1/2/3 uploads or as a chapter_files JSON
// array of server-side paths.
func (h *Handler) GenerateFullStory(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request data")
		return
	}

	req := models.FullStoryRequest{
		Type:           models.ParseStoryType(r.FormValue("type")),
		Title:          r.FormValue("title"),
		OutputFilename: formValueDefault(r, "filename", "output_video.mp4"),
	}
	if req.Title == "" {
		respondError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	if chapterFilesJSON := r.FormValue("chapter_files"); chapterFilesJSON != "" {
		var chapters []struct {
			Path string `json:"path"`
		}
		if err := json.Unmarshal([]byte(chapterFilesJSON), &chapters); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid JSON format for chapter_files")
			return
		}
		if len(chapters) == 0 {
			respondError(w, http.StatusBadRequest, "Invalid chapter files format")
			return
		}
		for _, c := range chapters {
			req.ChapterPaths = append(req.ChapterPaths, c.Path)
		}
	} else {
		for _, field := range []string{"chapter_1", "chapter_2", "chapter_3"} {
			path, err := h.saveUpload(r, field)
			if err != nil {
				respondError(w, http.StatusBadRequest, "Missing chapter files in the request.")
				return
			}
			defer os.Remove(path)
			req.ChapterPaths = append(req.ChapterPaths, path)
		}
	}

	outputPath, err := h.renderer.RenderFullStory(r.Context(), req)
	if err != nil {
		respondRenderError(w, err)
		return
	}

	sendFile(w, r, outputPath, "video/mp4")
}

// GenerateThumbnail handles POST /generate-thumbnail (multipart form).
func (h *Handler) GenerateThumbnail(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request data")
		return
	}

	req := models.ThumbnailRequest{
		Type:           models.ParseStoryType(r.FormValue("type")),
		Title:          r.FormValue("title"),
		Brand:          r.FormValue("brand"),
		OutputFilename: formValueDefault(r, "filename", "thumbnail.jpg"),
	}

	imagePath, err := h.saveUpload(r, "image")
	if err != nil || req.Brand == "" || req.Title == "" {
		if imagePath != "" {
			os.Remove(imagePath)
		}
		respondError(w, http.StatusBadRequest, "Missing required parameters")
		return
	}
	defer os.Remove(imagePath)
	req.Image = imagePath

	outputPath, err := h.renderer.RenderThumbnail(r.Context(), req)
	if err != nil {
		respondRenderError(w, err)
		return
	}

	sendFile(w, r, outputPath, "image/jpeg")
}

// GenerateShort handles POST /generate-short (multipart form).
func (h *Handler) GenerateShort(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request data")
		return
	}

	req := models.ShortRequest{
		Type:           models.ParseStoryType(r.FormValue("type")),
		Text:           r.FormValue("text"),
		OutputFilename: formValueDefault(r, "filename", "short_video.mp4"),
	}

	imagePath, err := h.saveUpload(r, "background_image")
	if err != nil || req.Text == "" {
		if imagePath != "" {
			os.Remove(imagePath)
		}
		respondError(w, http.StatusBadRequest, "Missing required parameters")
		return
	}
	defer os.Remove(imagePath)
	req.BackgroundImage = imagePath

	outputPath, err := h.renderer.RenderShort(r.Context(), req)
	if err != nil {
		respondRenderError(w, err)
		return
	}

	sendFile(w, r, outputPath, "video/mp4")
}

// saveUpload copies a multipart file field into the temp directory under a
// unique name and returns its path.
func (h *Handler) saveUpload(r *http.Request, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", err
	}
	defer file.Close()

	path := filepath.Join(h.tempDir, uuid.New().String()+filepath.Ext(header.Filename))
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to save upload %s: %w", field, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to save upload %s: %w", field, err)
	}
	return path, nil
}

func formValueDefault(r *http.Request, key, def string) string {
	if v := r.FormValue(key); v != "" {
		return v
	}
	return def
}

// respondRenderError maps a render failure to a status code. Bad inputs and
// failures preparing them (missing files, unconvertible uploads, a sanitize
// that rejects an asset) are the client's 400; only encoding and internal
// failures are a 500. Only the render.Error message reaches the client; the
// wrapped cause goes to logs.
func respondRenderError(w http.ResponseWriter, err error) {
	log.Printf("[API] render failed: %v", err)

	status := http.StatusInternalServerError
	switch render.KindOf(err) {
	case render.KindValidation, render.KindNotFound, render.KindExternalTool:
		status = http.StatusBadRequest
	}

	message := "Failed to generate video"
	var re *render.Error
	if errors.As(err, &re) {
		message = re.Message
	}
	respondError(w, status, message)
}

func sendFile(w http.ResponseWriter, r *http.Request, path, mimetype string) {
	w.Header().Set("Content-Type", mimetype)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeFile(w, r, path)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
