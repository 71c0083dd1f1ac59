package render

import (
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/placement"
)

// Renderer draws symbol buckets with ebiten. It is a placement.VertexUploader:
// pass it to placement.WithUploader and it keeps the latest opacity buffers
// of every bucket until the next commit replaces them.
type Renderer struct {
	// FadeDuration must match the placement fade duration. Zero uses
	// placement.DefaultFadeDuration.
	FadeDuration time.Duration
	// Curve eases displayed alpha.
	Curve placement.FadeCurve
	// TextColor and IconColor tint glyph and icon quads. Nil draws white.
	TextColor color.Color
	IconColor color.Color

	uploads *placement.MemoryUploader

	verts []ebiten.Vertex
	inds  []uint32
	quads int
}

// NewRenderer creates a renderer with no uploaded buffers.
func NewRenderer() *Renderer {
	return &Renderer{uploads: placement.NewMemoryUploader()}
}

// UpdateSymbolOpacities implements placement.VertexUploader.
func (r *Renderer) UpdateSymbolOpacities(b *placement.SymbolBucket, kind placement.BufferKind, vertices []placement.OpacityVertex) {
	r.uploads.UpdateSymbolOpacities(b, kind, vertices)
}

// UpdateCollisionOpacities implements placement.VertexUploader.
func (r *Renderer) UpdateCollisionOpacities(b *placement.SymbolBucket, kind placement.BufferKind, vertices []placement.CollisionOpacityVertex) {
	r.uploads.UpdateCollisionOpacities(b, kind, vertices)
}

// Forget releases the buffers of a bucket whose tile was unloaded.
func (r *Renderer) Forget(b *placement.SymbolBucket) {
	r.uploads.Forget(b)
}

// Quads returns the number of quads submitted by the last DrawSymbols.
func (r *Renderer) Quads() int {
	return r.quads
}

// opacities returns the uploaded buffer, falling back to the one left on the
// bucket when the placement ran without an uploader.
func (r *Renderer) opacities(b *placement.SymbolBucket, kind placement.BufferKind) []placement.OpacityVertex {
	if v := r.uploads.Symbol(b, kind); v != nil {
		return v
	}
	if kind == placement.BufferIcon {
		return b.Icon.OpacityVertices
	}
	return b.Text.OpacityVertices
}

func (r *Renderer) fadeDuration() time.Duration {
	if r.FadeDuration > 0 {
		return r.FadeDuration
	}
	return placement.DefaultFadeDuration
}

func (r *Renderer) alpha(v placement.OpacityVertex, elapsed time.Duration) float32 {
	return float32(r.Curve.Apply(placement.FadeAlpha(v, elapsed, r.fadeDuration())))
}

// DrawSymbols draws the glyph and icon quads of b in a single DrawTriangles32
// call. elapsed is the time since the commit that produced the opacity
// buffers. page is the glyph and icon atlas page; nil draws solid quads.
func (r *Renderer) DrawSymbols(dst *ebiten.Image, b *placement.SymbolBucket, tileMatrix placement.Mat4, state placement.TransformState, elapsed time.Duration, page *ebiten.Image) {
	r.build(b, tileMatrix, state, elapsed, page == nil)
	r.flush(dst, page)
}

// build fills the vertex and index batches for b. Quads are anchored at the
// projected symbol anchor and drawn in viewport pixels. Fully transparent
// quads are skipped.
func (r *Renderer) build(b *placement.SymbolBucket, tileMatrix placement.Mat4, state placement.TransformState, elapsed time.Duration, solid bool) {
	r.verts = r.verts[:0]
	r.inds = r.inds[:0]
	r.quads = 0

	m := state.ViewportMatrix().Multiply(tileMatrix)
	text := r.opacities(b, placement.BufferText)
	icon := r.opacities(b, placement.BufferIcon)

	ti, ii := 0, 0
	for i := range b.SymbolInstances {
		si := &b.SymbolInstances[i]
		if si.HasText {
			n := len(si.GlyphQuads) * 4
			if ti+n <= len(text) && len(si.PlacedTextIndices) > 0 {
				ps := &b.Text.PlacedSymbols[si.PlacedTextIndices[0]]
				anchor, w := m.Project(ps.Anchor)
				if w > 0 {
					scale := sizeScale(placement.EvaluateSize(b.TextSize, state.Zoom, ps), ps.LayoutSize)
					for q := range si.GlyphQuads {
						a := r.alpha(text[ti+q*4], elapsed)
						r.appendQuad(&si.GlyphQuads[q], anchor, scale, a, r.TextColor, solid)
					}
				}
			}
			ti += n
		}
		if si.HasIcon && si.IconQuad != nil {
			if ii+4 <= len(icon) && len(si.PlacedIconIndices) > 0 {
				ps := &b.Icon.PlacedSymbols[si.PlacedIconIndices[0]]
				anchor, w := m.Project(ps.Anchor)
				if w > 0 {
					scale := sizeScale(placement.EvaluateSize(b.IconSize, state.Zoom, ps), ps.LayoutSize)
					r.appendQuad(si.IconQuad, anchor, scale, r.alpha(icon[ii], elapsed), r.IconColor, solid)
				}
			}
			ii += 4
		}
	}
}

// EachLabel calls fn for every text symbol of b that is at least partly
// visible, with its text alpha elapsed after the last commit.
func (r *Renderer) EachLabel(b *placement.SymbolBucket, elapsed time.Duration, fn func(si *placement.SymbolInstance, alpha float32)) {
	text := r.opacities(b, placement.BufferText)
	ti := 0
	for i := range b.SymbolInstances {
		si := &b.SymbolInstances[i]
		if !si.HasText {
			continue
		}
		n := len(si.GlyphQuads) * 4
		if n > 0 && ti+n <= len(text) {
			if a := r.alpha(text[ti], elapsed); a > 0 {
				fn(si, a)
			}
		}
		ti += n
	}
}

func sizeScale(size, layoutSize float64) float64 {
	if layoutSize <= 0 {
		return 1
	}
	return size / layoutSize
}

// appendQuad appends 4 vertices and 6 indices for one symbol quad.
func (r *Renderer) appendQuad(q *placement.SymbolQuad, anchor placement.Vec2, scale float64, alpha float32, tint color.Color, solid bool) {
	if alpha <= 0 {
		return
	}
	cr, cg, cb, ca := premultiplied(tint, alpha)

	// TL, TR, BL, BR
	corners := [4]placement.Vec2{q.TL, q.TR, q.BL, q.BR}
	sx := [4]float32{float32(q.Tex.X), float32(q.Tex.X + q.Tex.Width), float32(q.Tex.X), float32(q.Tex.X + q.Tex.Width)}
	sy := [4]float32{float32(q.Tex.Y), float32(q.Tex.Y), float32(q.Tex.Y + q.Tex.Height), float32(q.Tex.Y + q.Tex.Height)}
	if solid {
		sx = [4]float32{1, 2, 1, 2}
		sy = [4]float32{1, 1, 2, 2}
	}

	base := uint32(len(r.verts))
	for i, c := range corners {
		r.verts = append(r.verts, ebiten.Vertex{
			DstX:   float32(anchor.X + c.X*scale),
			DstY:   float32(anchor.Y + c.Y*scale),
			SrcX:   sx[i],
			SrcY:   sy[i],
			ColorR: cr,
			ColorG: cg,
			ColorB: cb,
			ColorA: ca,
		})
	}
	// Two triangles: TL-TR-BL, TR-BR-BL
	r.inds = append(r.inds,
		base+0, base+1, base+2,
		base+1, base+3, base+2,
	)
	r.quads++
}

// premultiplied scales a tint by alpha. A nil tint is opaque white.
func premultiplied(c color.Color, alpha float32) (r, g, b, a float32) {
	if c == nil {
		return alpha, alpha, alpha, alpha
	}
	cr, cg, cb, ca := c.RGBA()
	return float32(cr) / 0xffff * alpha, float32(cg) / 0xffff * alpha,
		float32(cb) / 0xffff * alpha, float32(ca) / 0xffff * alpha
}

func (r *Renderer) flush(dst *ebiten.Image, page *ebiten.Image) {
	if len(r.verts) == 0 {
		return
	}
	if page == nil {
		page = ensureWhiteImage()
	}
	var triOp ebiten.DrawTrianglesOptions
	triOp.ColorScaleMode = ebiten.ColorScaleModePremultipliedAlpha
	dst.DrawTriangles32(r.verts, r.inds, page, &triOp)
}

// whiteImage backs solid quads; sources sample its inner pixel.
var whiteImage *ebiten.Image

func ensureWhiteImage() *ebiten.Image {
	if whiteImage == nil {
		whiteImage = ebiten.NewImage(3, 3)
		whiteImage.Fill(color.White)
	}
	return whiteImage
}
