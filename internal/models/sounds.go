package models

import "path/filepath"

// ---------------------------------------------------------------------------
// Background-sound catalogs — one ambience bed per key, per story type.
// Unknown keys fall back to the documented default for the type so a stale
// key from the client degrades gracefully instead of failing the render.
// ---------------------------------------------------------------------------

const (
	horrorDefaultSound = "277192__thedweebman__eerie-tone-music-background-loop.wav"
	loveDefaultSound   = "soft_piano.mp3"
)

var horrorSounds = map[string]string{
	"forest_night":             "20575__dobroide__20060706nightforest02.wav",
	"distant_thunderstorm":     "53605__arnaud-coutancier__01storm-orage.wav",
	"abandoned_basement":       "73100__lg__water-basement-04.wav",
	"eerie_background":         horrorDefaultSound,
	"ominous_crickets":         "519064__angelkunev__deep-forest.wav",
	"deep_forest":              "653983__garuda1982__distant-dog-barking-at-night-forest-lake-in-summer.mp3",
	"wind_desert":              "697217__dhallcomposer__looping-gentle-wind-ambience-on-an-open-desert-plain.wav",
	"old_house_creaks":         "698824__funky_audio__woodfric_floor-boards-creaking-slowly_funky-audio_fass.wav",
	"cave_ambience":            "705429__newlocknew__ambdsgn_creepy-troll-cavedropsrumblebatssticky-wormsmonk-whispers_em.mp3",
	"eerie_wind":               "715231__newlocknew__ambpark_parksummerpoplars-in-the-windjackdawspigeonscrows.wav",
	"countryside_village_night": "734747__klankbeeld__dripping-village-731-am-220731_0467.wav",
	"distant_people":           "757825__klankbeeld__park-distant-people-1214-am-240929_0921.wav",
	"music_box":                "eerie_background_music.wav",
}

var loveSounds = map[string]string{
	"gentle_piano":       loveDefaultSound,
	"soft_guitar":        "guitar.mp3",
	"romantic_strings":   "string.mp3",
	"ocean_waves":        "174763__timkahn__pacific-ocean.flac",
	"fireplace_ambiance": "104124__inchadney__fireplace.wav",
	"rain_on_window":     "346642__inspectorj__rain-on-windows-interior-a.wav",
	"intimate_jazz":      "jazz.mp3",
	"forest_spring":      "628624__klankbeeld__forest-edge-spring-nl-1128am-220414_0336.wav",
	"sunset_ambiance":    "584839__klankbeeld__rural-sunset-may-engelen-nl-160531_0891.wav",
	"peaceful_meadow":    "440807__puzzleaudio__meadow.wav",
}

// BackgroundSoundPath resolves a background-sound key to an asset path under
// assetsDir. Unknown keys resolve to the type's default bed.
func BackgroundSoundPath(assetsDir string, t StoryType, key string) string {
	catalog, fallback := horrorSounds, horrorDefaultSound
	if t == StoryTypeLove {
		catalog, fallback = loveSounds, loveDefaultSound
	}

	name, ok := catalog[key]
	if !ok {
		name = fallback
	}
	return filepath.Join(assetsDir, "audio", name)
}
