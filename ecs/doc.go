// Package ecs provides ECS adapters for placement's fade events.
//
// [NewDonburiSink] bridges fade events (fade-in, fade-out, dropped) into a
// [Donburi] world as typed events. Subscribe to [FadeEventType] in your ECS
// systems to receive them, or let a [LabelTracker] mirror every visible
// label as an entity carrying a [Label] component.
//
// Usage:
//
//	sink := ecs.NewDonburiSink(world)
//	tracker := ecs.NewLabelTracker(world)
//	pipeline.SetEventSink(sink)
//	// after each frame
//	ecs.FadeEventType.ProcessEvents(world)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
