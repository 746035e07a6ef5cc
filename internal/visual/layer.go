package visual

// LayerKind identifies what a visual layer draws.
type LayerKind int

const (
	LayerImage LayerKind = iota
	LayerVideo
	LayerText
)

// Position anchors a layer on the canvas. A centered axis ignores the
// corresponding pixel offset.
type Position struct {
	CenterX bool
	CenterY bool
	X       int
	Y       int
}

// Center anchors a layer in the middle of the canvas on both axes.
var Center = Position{CenterX: true, CenterY: true}

// Layer is one time-bounded visual source on a timeline: a still image, a
// video clip, or drawn text. The [Start, End) window is clamped to the parent
// timeline when it is compiled.
type Layer struct {
	Kind   LayerKind
	Source string // image/video path (LayerImage, LayerVideo)

	// Text layers
	Text         string
	FontPath     string
	FontSize     int
	Color        string // hex or ffmpeg color name
	OutlineColor string
	OutlineWidth int

	Position Position
	Start    float64
	End      float64
	FadeIn   float64
	FadeOut  float64

	// ScaleHeight scales the source to this height preserving aspect ratio.
	// FillCanvas scales and center-crops to cover the whole canvas instead.
	ScaleHeight int
	FillCanvas  bool
}

// Timeline is an ordered stack of layers over a black background, with one
// soundtrack. Duration defaults to the maximum layer end time and can be
// pinned explicitly when the soundtrack runs past the visuals.
type Timeline struct {
	Width   int
	Height  int
	Layers  []Layer
	Audio   string // path to the mixed soundtrack (wav)
	FadeIn  float64
	FadeOut float64

	duration float64
}

// Add appends a layer to the timeline.
func (t *Timeline) Add(l Layer) {
	t.Layers = append(t.Layers, l)
}

// SetDuration pins the timeline's total duration in seconds.
func (t *Timeline) SetDuration(d float64) {
	t.duration = d
}

// Duration is the pinned duration, or max(layer end) when unpinned.
func (t *Timeline) Duration() float64 {
	if t.duration > 0 {
		return t.duration
	}
	var d float64
	for _, l := range t.Layers {
		if l.End > d {
			d = l.End
		}
	}
	return d
}

// ClampedLayers returns the layers with their windows clamped to
// [0, Duration()]. Layers whose windows collapse to nothing are dropped.
func (t *Timeline) ClampedLayers() []Layer {
	total := t.Duration()
	out := make([]Layer, 0, len(t.Layers))
	for _, l := range t.Layers {
		if l.Start < 0 {
			l.Start = 0
		}
		if l.End > total || l.End <= 0 {
			l.End = total
		}
		if l.End <= l.Start {
			continue
		}
		out = append(out, l)
	}
	return out
}

// TotalDuration is the duration of timelines joined end to end: sequential,
// non-overlapping, additive.
func TotalDuration(timelines ...*Timeline) float64 {
	var d float64
	for _, t := range timelines {
		d += t.Duration()
	}
	return d
}
