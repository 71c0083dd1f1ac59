// Package placement decides, frame by frame, which map labels are visible
// without overlapping and animates their appearance and disappearance.
//
// A label candidate is a [SymbolInstance]: a text half and an icon half
// sharing an anchor. Each frame runs three steps:
//
//	p := placement.NewPlacement(state, placement.WithPrevious(prev))
//	for _, layer := range layers {
//		p.PlaceLayer(layer)
//	}
//	p.Commit(prev, now)
//	for _, layer := range layers {
//		p.UpdateLayerOpacities(layer)
//	}
//
// [Pipeline] runs this sequence and keeps the previous frame for you:
//
//	pipe := placement.NewPipeline(placement.WithUploader(renderer))
//	pipe.SetCrossTileIndex(placement.NewCrossTileIndex())
//	// each frame
//	pipe.Frame(camera.State(), layers, time.Now())
//
// # Placement
//
// [Placement.PlaceLayer] tests every candidate against a [CollisionIndex]
// in bucket order. Earlier candidates win. Text and icon decisions are
// coupled unless the layout marks a half optional. Placed halves reserve
// their space unless they ignore placement. The default index is a
// [GridIndex] over the viewport.
//
// # Fading
//
// Each label carries a [JointOpacityState] keyed by its cross-tile id.
// [Placement.Commit] advances the previous frame's states by the elapsed
// fraction of the fade duration, seeds new labels at zero opacity and keeps
// labels that vanished fading out until they are fully transparent.
//
// [Placement.UpdateLayerOpacities] writes the committed states into the
// opacity vertex buffers of each bucket and hands them to a
// [VertexUploader]. The render sub-package draws them with [Ebitengine].
//
// # Identity
//
// Cross-tile ids are assigned from a counter that only grows. A
// [CrossTileIndex] re-attaches ids to rebuilt tiles so fades continue
// across tile reloads, and marks labels repeated in several tiles as
// duplicates.
//
// # Events and logging
//
// Fade transitions can be observed through an [EventSink]; the ecs
// sub-module forwards them to a [Donburi] world. Logging goes through
// [SetLogger] and is silent by default.
//
// [Ebitengine]: https://ebitengine.org
// [Donburi]: https://github.com/yohamta/donburi
package placement
