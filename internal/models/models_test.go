package models

import (
	"path/filepath"
	"testing"
)

func TestParseStoryType(t *testing.T) {
	cases := map[string]StoryType{
		"Horror":  StoryTypeHorror,
		"Love":    StoryTypeLove,
		"":        StoryTypeHorror,
		"love":    StoryTypeHorror, // type matching is exact
		"Unknown": StoryTypeHorror,
	}

	for in, want := range cases {
		if got := ParseStoryType(in); got != want {
			t.Errorf("ParseStoryType(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestThemeVoices(t *testing.T) {
	if v := ThemeFor(StoryTypeHorror).Voice; v != "en-US-AndrewMultilingualNeural" {
		t.Errorf("unexpected Horror voice: %s", v)
	}
	if v := ThemeFor(StoryTypeLove).Voice; v != "en-US-MichelleNeural" {
		t.Errorf("unexpected Love voice: %s", v)
	}
}

func TestThemeIntroBaseTimes(t *testing.T) {
	if bt := ThemeFor(StoryTypeHorror).IntroBaseTime; bt != 5 {
		t.Errorf("Horror intro base time = %v, want 5", bt)
	}
	if bt := ThemeFor(StoryTypeLove).IntroBaseTime; bt != 8 {
		t.Errorf("Love intro base time = %v, want 8", bt)
	}
}

func TestBackgroundSoundPathKnownKey(t *testing.T) {
	got := BackgroundSoundPath("assets", StoryTypeLove, "gentle_piano")
	want := filepath.Join("assets", "audio", "soft_piano.mp3")
	if got != want {
		t.Errorf("BackgroundSoundPath = %q, want %q", got, want)
	}
}

func TestBackgroundSoundPathUnknownKeyFallsBack(t *testing.T) {
	def := BackgroundSoundPath("assets", StoryTypeHorror, "")
	if got := BackgroundSoundPath("assets", StoryTypeHorror, "no_such_key"); got != def {
		t.Errorf("unknown key should fall back to default: got %q, want %q", got, def)
	}
	want := filepath.Join("assets", "audio", "277192__thedweebman__eerie-tone-music-background-loop.wav")
	if def != want {
		t.Errorf("Horror default = %q, want %q", def, want)
	}
}
