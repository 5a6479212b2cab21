package engine

import "log/slog"

// Engine bundles the components over one store and renderer so callers wire a
// single value. Components share no hidden state beyond the store itself.
type Engine struct {
	Store       Store
	Optimizer   *Optimizer
	Tracker     *Tracker
	Selector    *Selector
	Leaderboard *Leaderboard
	Coordinator *Coordinator
}

// New wires the engine. renderer may be nil; completion hand-off then logs and
// skips instead of calling out.
func New(store Store, renderer Renderer, logger *slog.Logger) *Engine {
	coordinator := NewCoordinator(store, renderer, logger)
	return &Engine{
		Store:       store,
		Optimizer:   NewOptimizer(store, logger),
		Tracker:     NewTracker(store, coordinator, logger),
		Selector:    NewSelector(store, coordinator, logger),
		Leaderboard: NewLeaderboard(store, logger),
		Coordinator: coordinator,
	}
}
