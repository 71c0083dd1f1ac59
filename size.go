package placement

import (
	"math"

	"github.com/tanema/gween/ease"
)

// SizeKind tells EvaluateSizeForFeature how to read a partially evaluated
// size.
type SizeKind uint8

const (
	SizeLayout   SizeKind = iota // use the symbol's layout size
	SizeConstant                 // same size for every symbol
	SizeFeature                  // interpolate each symbol's lower/upper sizes
)

// PartiallyEvaluatedSize is a size expression evaluated for the current zoom
// but not yet for a particular symbol.
type PartiallyEvaluatedSize struct {
	Kind SizeKind
	Size float64
	T    float64
}

// SizeBinder evaluates a layer's size property for a zoom level. It must be
// a pure function of zoom.
type SizeBinder interface {
	EvaluateForZoom(zoom float64) PartiallyEvaluatedSize
}

// EvaluateSizeForFeature resolves the size of one symbol.
func EvaluateSizeForFeature(p PartiallyEvaluatedSize, s *PlacedSymbol) float64 {
	switch p.Kind {
	case SizeConstant:
		return p.Size
	case SizeFeature:
		return s.LowerSize + (s.UpperSize-s.LowerSize)*p.T
	default:
		return s.LayoutSize
	}
}

// EvaluateSize resolves the size of one symbol at zoom. A nil binder uses
// the symbol's layout size.
func EvaluateSize(b SizeBinder, zoom float64, s *PlacedSymbol) float64 {
	return EvaluateSizeForFeature(evaluateBinder(b, zoom), s)
}

func evaluateBinder(b SizeBinder, zoom float64) PartiallyEvaluatedSize {
	if b == nil {
		return PartiallyEvaluatedSize{Kind: SizeLayout}
	}
	return b.EvaluateForZoom(zoom)
}

// ConstantSize is the same size at every zoom for every symbol.
type ConstantSize float64

// EvaluateForZoom implements SizeBinder.
func (c ConstantSize) EvaluateForZoom(float64) PartiallyEvaluatedSize {
	return PartiallyEvaluatedSize{Kind: SizeConstant, Size: float64(c)}
}

// SizeStop is one zoom/size pair of a ZoomCurve.
type SizeStop struct {
	Zoom, Size float64
}

// ZoomCurve interpolates a size between zoom stops. Stops must be sorted by
// zoom. Ease shapes the interpolation between two stops; nil means linear.
type ZoomCurve struct {
	Stops []SizeStop
	Ease  ease.TweenFunc
}

// EvaluateForZoom implements SizeBinder.
func (c ZoomCurve) EvaluateForZoom(zoom float64) PartiallyEvaluatedSize {
	return PartiallyEvaluatedSize{Kind: SizeConstant, Size: c.at(zoom)}
}

func (c ZoomCurve) at(zoom float64) float64 {
	n := len(c.Stops)
	switch {
	case n == 0:
		return 0
	case zoom <= c.Stops[0].Zoom:
		return c.Stops[0].Size
	case zoom >= c.Stops[n-1].Zoom:
		return c.Stops[n-1].Size
	}
	i := 1
	for i < n-1 && c.Stops[i].Zoom < zoom {
		i++
	}
	lo, hi := c.Stops[i-1], c.Stops[i]
	return float64(easeOrLinear(c.Ease)(
		float32(zoom-lo.Zoom),
		float32(lo.Size),
		float32(hi.Size-lo.Size),
		float32(hi.Zoom-lo.Zoom),
	))
}

// FeatureSize uses each symbol's LowerSize at every zoom.
type FeatureSize struct{}

// EvaluateForZoom implements SizeBinder.
func (FeatureSize) EvaluateForZoom(float64) PartiallyEvaluatedSize {
	return PartiallyEvaluatedSize{Kind: SizeFeature}
}

// CompositeSize interpolates each symbol between its LowerSize at MinZoom
// and its UpperSize at MaxZoom.
type CompositeSize struct {
	MinZoom, MaxZoom float64
	Ease             ease.TweenFunc
}

// EvaluateForZoom implements SizeBinder.
func (c CompositeSize) EvaluateForZoom(zoom float64) PartiallyEvaluatedSize {
	span := c.MaxZoom - c.MinZoom
	if span <= 0 {
		return PartiallyEvaluatedSize{Kind: SizeFeature}
	}
	z := math.Max(c.MinZoom, math.Min(c.MaxZoom, zoom))
	t := easeOrLinear(c.Ease)(float32(z-c.MinZoom), 0, 1, float32(span))
	return PartiallyEvaluatedSize{Kind: SizeFeature, T: float64(t)}
}

func easeOrLinear(fn ease.TweenFunc) ease.TweenFunc {
	if fn == nil {
		return ease.Linear
	}
	return fn
}
