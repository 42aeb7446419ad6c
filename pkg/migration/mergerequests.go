package migration

import (
	"context"
	"errors"
	"fmt"

	"github.com/krrrr38/gl2gh/pkg/github"
	"github.com/krrrr38/gl2gh/pkg/idmap"
	"github.com/krrrr38/gl2gh/pkg/logger"
	"github.com/krrrr38/gl2gh/pkg/rewrite"
	"github.com/xanzy/go-gitlab"
)

// commentTimeLayout formats the original time of a pull request comment.
const commentTimeLayout = "2 Jan 2006 at 03:04pm MST"

// PullRequestRecord is a created pull request with the comments still to be posted. Comment
// bodies are stored before cross reference rewriting so they are rewritten once with the
// final maps.
type PullRequestRecord struct {
	SourceIID int
	Number    int
	Comments  []string
}

func pullRequestHeader(reporter, assignee string) string {
	header := fmt.Sprintf("> **Migration Note:** This PR was originally opened by %s", reporter)
	if assignee != "" {
		header += " and assigned to " + assignee
	}
	return header + "\n\n"
}

func pullRequestCommentHeader(author string, note *gitlab.Note) string {
	if note.CreatedAt == nil {
		return commentHeader(author)
	}
	return fmt.Sprintf("> **Migration Note:** This comment was originally added by %s on **%s**\n\n",
		author, note.CreatedAt.UTC().Format(commentTimeLayout))
}

// ImportPullRequests opens a pull request for every merge request that was not merged. A
// rejected merge request is logged and skipped.
func (im *Importer) ImportPullRequests(ctx context.Context, t *Target) ([]*PullRequestRecord, error) {
	mrs, err := im.source.MergeRequests(ctx, t.Project.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list merge requests: %w", err)
	}
	logger.Step("pr", "Creating pull requests", "repo", t.Repo, "count", len(mrs))

	issues := im.mapper.Table(idmap.KindIssue, t.Repo)
	refs := rewrite.References{
		Issues:            issues,
		PullRequestOffset: len(issues),
		UseOffset:         true,
	}

	var (
		records         []*PullRequestRecord
		skipped, failed int
	)
	for _, mr := range mrs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if mr.State == "merged" {
			logger.Debug("Skipping merged merge request", "repo", t.Repo, "iid", mr.IID)
			skipped++
			continue
		}
		if im.mapper.Confirmed(idmap.KindPullRequest, t.Repo, mr.IID) {
			skipped++
			continue
		}

		rec, err := im.importPullRequest(ctx, t, mr, refs)
		if err != nil {
			if isCanceled(err) || IsFatal(err) {
				return nil, err
			}
			failed++
			var rejected *github.PullRequestRejectedError
			var noDiff *github.NoDiffError
			if errors.As(err, &rejected) || errors.As(err, &noDiff) {
				logger.Warn("Pull request rejected, skipping", "repo", t.Repo, "iid", mr.IID, "error", err)
			} else {
				logger.Error("Failed to create pull request", "repo", t.Repo, "iid", mr.IID, "error", err)
			}
			continue
		}
		if rec != nil {
			records = append(records, rec)
		}
	}

	logger.Step("pr", "Pull requests done", "repo", t.Repo, "created", len(records), "skipped", skipped, "failed", failed)
	return records, nil
}

func (im *Importer) importPullRequest(ctx context.Context, t *Target, mr *gitlab.MergeRequest, refs rewrite.References) (*PullRequestRecord, error) {
	rw := t.Rewriter
	notes, err := im.source.MergeRequestNotes(ctx, t.Project.ID, mr.IID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	reporter, assignee := ghostUser, ""
	if mr.Author != nil && mr.Author.Username != "" {
		reporter = rw.Username(mr.Author.Username)
	}
	if mr.Assignee != nil {
		assignee = rw.Username(mr.Assignee.Username)
	}

	opts := &github.PullRequestOptions{
		Title: mr.Title,
		Body:  rw.CrossReferences(pullRequestHeader(reporter, assignee)+rw.Mentions(mr.Description), refs),
		Head:  mr.SourceBranch,
		Base:  mr.TargetBranch,
	}
	number, err := im.dest.CreatePullRequest(ctx, t.Repo, opts)
	if err != nil {
		return nil, err
	}
	if err := im.mapper.Record(idmap.KindPullRequest, t.Repo, mr.IID, number); err != nil {
		return nil, &FatalError{Op: "record pull request", Err: err}
	}
	logger.Step("pr", "Created pull request", "repo", t.Repo, "iid", mr.IID, "number", number)

	if mr.State == "closed" {
		if err := im.dest.ClosePullRequest(ctx, t.Repo, number); err != nil {
			logger.Warn("Failed to close pull request", "repo", t.Repo, "number", number, "error", err)
		}
	}
	if mr.Milestone != nil {
		if milestone, ok := im.mapper.Resolve(idmap.KindMilestone, t.Repo, mr.Milestone.IID); ok {
			if err := im.dest.SetMilestone(ctx, t.Repo, number, milestone); err != nil {
				logger.Warn("Failed to set milestone", "repo", t.Repo, "number", number, "error", err)
			}
		}
	}
	for _, label := range normalizeLabels(mr.Labels) {
		if err := im.dest.AddLabelsToIssue(ctx, t.Repo, number, []string{label}); err != nil {
			logger.Warn("Failed to add label", "repo", t.Repo, "number", number, "label", label, "error", err)
		}
	}

	rec := &PullRequestRecord{SourceIID: mr.IID, Number: number}
	for _, note := range notes {
		if note.System || note.Type == "DiffNote" {
			continue
		}
		author := rw.Username(note.Author.Username)
		rec.Comments = append(rec.Comments, pullRequestCommentHeader(author, note)+rw.Mentions(note.Body))
	}
	return rec, nil
}

// PostPullRequestComments posts the stored comments once every issue and pull request number is
// known, rewriting cross references with the final maps.
func (im *Importer) PostPullRequestComments(ctx context.Context, t *Target, records []*PullRequestRecord) error {
	refs := rewrite.References{
		Issues:       im.mapper.Table(idmap.KindIssue, t.Repo),
		PullRequests: im.mapper.Table(idmap.KindPullRequest, t.Repo),
	}
	var posted int
	for _, rec := range records {
		for _, body := range rec.Comments {
			if err := im.dest.CreateIssueComment(ctx, t.Repo, rec.Number, t.Rewriter.CrossReferences(body, refs)); err != nil {
				if isCanceled(err) {
					return err
				}
				logger.Error("Failed to post comment, skipping the rest of the pull request",
					"repo", t.Repo, "number", rec.Number, "error", err)
				break
			}
			posted++
		}
	}
	logger.Step("pr", "Posted pull request comments", "repo", t.Repo, "count", posted)
	return nil
}
