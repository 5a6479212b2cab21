package engine

import (
	"context"
	"log/slog"
)

// Coordinator issues the one-time media-render request when a team finishes.
// Rendering is best-effort: nothing here may block or fail a completion, so
// every failure path logs and returns.
type Coordinator struct {
	store    Store
	renderer Renderer
	logger   *slog.Logger
}

func NewCoordinator(store Store, renderer Renderer, logger *slog.Logger) *Coordinator {
	return &Coordinator{store: store, renderer: renderer, logger: logger}
}

// TriggerRender requests a highlight compilation for the team unless one is
// already pending, processing, or done. The check-then-act guard is what keeps
// near-simultaneous completion checks from creating duplicate jobs.
func (c *Coordinator) TriggerRender(ctx context.Context, team Team) {
	if c.renderer == nil {
		c.logger.Debug("no renderer configured, skipping render job", "team_id", team.ID)
		return
	}

	jobs, err := c.renderer.ListRenderJobs(ctx, team.EventID)
	if err != nil {
		c.logger.Error("listing render jobs", "event_id", team.EventID, "error", err)
		return
	}
	for _, job := range jobs {
		if job.TeamID != team.ID {
			continue
		}
		switch job.Status {
		case "pending", "processing", "completed":
			c.logger.Debug("render job already exists",
				"team_id", team.ID, "status", job.Status)
			return
		}
	}

	event, err := c.store.EventByID(ctx, team.EventID)
	if err != nil {
		c.logger.Error("loading event for render job", "event_id", team.EventID, "error", err)
		return
	}
	if event.RenderTemplateID == "" {
		c.logger.Info("no render template configured, skipping render job",
			"event_id", team.EventID, "team_id", team.ID)
		return
	}

	progress, err := c.store.ProgressByTeam(ctx, team.ID)
	if err != nil {
		c.logger.Error("loading progress for render job", "team_id", team.ID, "error", err)
		return
	}
	var clips []string
	for _, p := range progress {
		if p.Status == StatusCompleted {
			clips = append(clips, p.Clips...)
		}
	}
	if len(clips) == 0 {
		c.logger.Info("no clips submitted, skipping render job",
			"event_id", team.EventID, "team_id", team.ID)
		return
	}

	if err := c.renderer.CreateRenderJob(ctx, team.EventID, team.ID, event.RenderTemplateID, clips); err != nil {
		c.logger.Error("creating render job",
			"event_id", team.EventID, "team_id", team.ID, "error", err)
		return
	}
	c.logger.Info("render job created",
		"event_id", team.EventID, "team_id", team.ID, "clips", len(clips))
}
