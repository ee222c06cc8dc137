package overlay

const (
	// Margin keeps the popup this far from every viewport edge.
	Margin = 10.0

	DefaultWidth     = 320.0
	DefaultMaxHeight = 400.0
)

// Point is a viewport coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Viewport is the space available to the popup. Passed in explicitly so the
// placement math never reads global window state.
type Viewport struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Footprint is the popup's requested size.
type Footprint struct {
	Width     float64
	MaxHeight float64
}

// DefaultFootprint is the picker size used by the editor.
var DefaultFootprint = Footprint{Width: DefaultWidth, MaxHeight: DefaultMaxHeight}

// Placement is the clamped top-left corner and the height cap to apply.
type Placement struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	MaxHeight float64 `json:"maxHeight"`
}

// Place clamps the popup requested at anchor so it stays inside vp.
// When the viewport is too small for the popup the top/left margin wins.
func Place(anchor Point, vp Viewport, fp Footprint) Placement {
	maxH := fp.MaxHeight
	if limit := vp.Height - 2*Margin; limit < maxH {
		maxH = limit
	}
	if maxH < 0 {
		maxH = 0
	}
	return Placement{
		X:         clamp(anchor.X, Margin, vp.Width-fp.Width-Margin),
		Y:         clamp(anchor.Y, Margin, vp.Height-maxH-Margin),
		Width:     fp.Width,
		MaxHeight: maxH,
	}
}

// Contains reports whether p falls inside the placed popup.
func (pl Placement) Contains(p Point) bool {
	return p.X >= pl.X && p.X <= pl.X+pl.Width &&
		p.Y >= pl.Y && p.Y <= pl.Y+pl.MaxHeight
}

func clamp(v, lo, hi float64) float64 {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
