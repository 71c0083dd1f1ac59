// Package render draws placed symbols with ebiten.
//
// A [Renderer] receives the opacity buffers built by
// placement.Placement.UpdateLayerOpacities and evaluates each quad's fade
// alpha at draw time, so labels keep fading smoothly between placement
// commits:
//
//	r := render.NewRenderer()
//	pipe := placement.NewPipeline(placement.WithUploader(r))
//	// each frame
//	p := pipe.Frame(state, layers, now)
//	for _, rt := range layer.RenderTiles {
//		b, _ := rt.Tile.SymbolBucket(layer.ID)
//		r.DrawSymbols(screen, b, rt.Matrix, state, now.Sub(p.CommitTime()), page)
//	}
//
// [DrawCollisionDebug] overlays the collision boxes and circles of the last
// placement.
package render
