package migration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/krrrr38/gl2gh/pkg/github"
	"github.com/krrrr38/gl2gh/pkg/idmap"
	"github.com/krrrr38/gl2gh/pkg/logger"
	"github.com/xanzy/go-gitlab"
)

// ImportLabels creates the project labels. A label that already exists counts as created.
func (im *Importer) ImportLabels(ctx context.Context, t *Target) error {
	labels, err := im.source.Labels(ctx, t.Project.ID)
	if err != nil {
		return fmt.Errorf("failed to list labels: %w", err)
	}

	var created, existing, failed int
	for _, label := range labels {
		err := im.dest.CreateLabel(ctx, t.Repo, label.Name, label.Color, label.Description)
		switch {
		case err == nil:
			created++
		case errors.Is(err, github.ErrAlreadyExists):
			existing++
			logger.Debug("Label already exists", "repo", t.Repo, "label", label.Name)
		case isCanceled(err):
			return err
		default:
			failed++
			logger.Error("Failed to create label", "repo", t.Repo, "label", label.Name, "error", err)
		}
	}
	logger.Step("labels", "Labels done", "repo", t.Repo, "created", created, "existing", existing, "failed", failed)
	return nil
}

// milestoneState maps a source milestone state to the destination vocabulary.
func milestoneState(state string) string {
	if state == "active" {
		return "open"
	}
	return state
}

// ImportMilestones creates the project milestones and records their numbers.
func (im *Importer) ImportMilestones(ctx context.Context, t *Target) (idmap.Table, error) {
	milestones, err := im.source.Milestones(ctx, t.Project.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list milestones: %w", err)
	}

	var failed int
	for _, m := range milestones {
		if im.mapper.Confirmed(idmap.KindMilestone, t.Repo, m.IID) {
			continue
		}
		number, err := im.dest.CreateMilestone(ctx, t.Repo, milestoneOptions(m))
		if err != nil {
			if isCanceled(err) {
				return nil, err
			}
			failed++
			logger.Error("Failed to create milestone", "repo", t.Repo, "milestone", m.Title, "error", err)
			continue
		}
		if err := im.mapper.Record(idmap.KindMilestone, t.Repo, m.IID, number); err != nil {
			return nil, &FatalError{Op: "record milestone", Err: err}
		}
	}

	table := im.mapper.Table(idmap.KindMilestone, t.Repo)
	logger.Step("milestones", "Milestones done", "repo", t.Repo, "created", len(table), "failed", failed)
	return table, nil
}

func milestoneOptions(m *gitlab.Milestone) github.MilestoneOptions {
	opts := github.MilestoneOptions{
		Title:       m.Title,
		State:       milestoneState(m.State),
		Description: m.Description,
	}
	if m.DueDate != nil {
		due := time.Time(*m.DueDate)
		opts.DueOn = &due
	}
	return opts
}
