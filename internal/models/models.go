package models

// StoryType selects the voice profile, background-sound catalog, and color
// theme used across every generation path.
type StoryType string

const (
	StoryTypeHorror StoryType = "Horror"
	StoryTypeLove   StoryType = "Love"
)

// ParseStoryType maps a request's "type" field to a StoryType.
// Anything unrecognized (including empty) falls back to Horror, which is
// what the original client always relied on.
func ParseStoryType(s string) StoryType {
	if StoryType(s) == StoryTypeLove {
		return StoryTypeLove
	}
	return StoryTypeHorror
}

// Theme holds the per-type presentation settings: narration voice, thumbnail
// colors, overlay icon, and the branded intro clip with its base time (the
// moment the intro's title beat lands, in seconds).
type Theme struct {
	Voice         string // speech synthesis voice profile
	TextColor     string // hex, thumbnail title/AUDIO fill
	ContourColor  string // thumbnail text outline
	AudioIcon     string // overlay icon filename under assets/images
	IntroClip     string // branded intro filename under assets
	IntroBaseTime float64
}

var themes = map[StoryType]Theme{
	StoryTypeHorror: {
		Voice:         "en-US-AndrewMultilingualNeural",
		TextColor:     "#FF0000",
		ContourColor:  "#000000",
		AudioIcon:     "audio-red.png",
		IntroClip:     "generique_short.mov",
		IntroBaseTime: 5,
	},
	StoryTypeLove: {
		Voice:         "en-US-MichelleNeural",
		TextColor:     "#FF60C2",
		ContourColor:  "#FFFFFF",
		AudioIcon:     "audio-pink.png",
		IntroClip:     "gen_hot_diaries.mov",
		IntroBaseTime: 8,
	},
}

// ThemeFor returns the theme for a story type.
func ThemeFor(t StoryType) Theme {
	if th, ok := themes[t]; ok {
		return th
	}
	return themes[StoryTypeHorror]
}

// DefaultFontSize is the caption/title size used when the request omits font_size.
const DefaultFontSize = 100

// ChapterRequest is the immutable input for one chapter-video render.
type ChapterRequest struct {
	Type            StoryType
	Title           string
	Chapter         string
	Content         string
	BackgroundSound string
	FontSize        int
	OutputFilename  string
	BackgroundImage string // path to the uploaded background image
}

// FullStoryRequest is the input for a full-story render. ChapterPaths holds
// three already-rendered chapter videos, either saved uploads or server-side
// paths from the chapter_files JSON field.
type FullStoryRequest struct {
	Type           StoryType
	Title          string
	OutputFilename string
	ChapterPaths   []string
}

// ShortRequest is the input for a short-form (1080x1920) render.
type ShortRequest struct {
	Type            StoryType
	Text            string
	OutputFilename  string
	BackgroundImage string
}

// ThumbnailRequest is the input for thumbnail composition.
type ThumbnailRequest struct {
	Type           StoryType
	Title          string
	Brand          string
	OutputFilename string
	Image          string // path to the uploaded source image
}
