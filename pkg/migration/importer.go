package migration

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/krrrr38/gl2gh/pkg/github"
	"github.com/krrrr38/gl2gh/pkg/idmap"
	"github.com/krrrr38/gl2gh/pkg/logger"
	"github.com/krrrr38/gl2gh/pkg/rewrite"
	"github.com/krrrr38/gl2gh/pkg/usermap"
	"github.com/krrrr38/gl2gh/pkg/utils"
	"github.com/xanzy/go-gitlab"
)

// Target is one source project migrated into one destination repository.
type Target struct {
	Project  *gitlab.Project
	Repo     string
	Rewriter *rewrite.Rewriter
}

// NewTarget builds the rewriter for a project. webURL is the source web root.
func NewTarget(project *gitlab.Project, owner, repo, webURL string, users *usermap.UserMap) *Target {
	group := ""
	if project.Namespace != nil {
		group = project.Namespace.FullPath
	}
	return &Target{
		Project: project,
		Repo:    repo,
		Rewriter: &rewrite.Rewriter{
			Users:       users,
			Source:      rewrite.Source{WebURL: webURL, Group: group, Path: project.Path},
			Destination: owner + "/" + repo,
		},
	}
}

// defaultLabels are the labels every new destination repository starts with. Source labels
// with these names are sent in lower case so they match the existing ones.
var defaultLabels = []string{"bug", "duplicate", "enhancement", "good first issue", "help wanted", "invalid", "question", "wontfix"}

func normalizeLabels(labels []string) []string {
	ret := make([]string, 0, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if slices.Contains(defaultLabels, strings.ToLower(l)) {
			l = strings.ToLower(l)
		}
		ret = append(ret, l)
	}
	return ret
}

// Importer creates issues, pull requests and their metadata on the destination.
type Importer struct {
	source        Source
	dest          Destination
	mapper        *idmap.Mapper
	collaborators *idmap.CollaboratorCache
	users         *usermap.UserMap
	opts          ImporterOptions
}

func NewImporter(source Source, dest Destination, mapper *idmap.Mapper, collaborators *idmap.CollaboratorCache, users *usermap.UserMap, opts ImporterOptions) *Importer {
	return &Importer{
		source:        source,
		dest:          dest,
		mapper:        mapper,
		collaborators: collaborators,
		users:         users,
		opts:          opts.withDefaults(),
	}
}

// ImportStatusRecord tracks one submitted issue until the destination settles it.
type ImportStatusRecord struct {
	Status *github.ImportStatus
	// Reporter is how the author is credited in the header.
	Reporter string
	// Description is the rewritten description without the header.
	Description string
	Payload     *github.IssueImportRequest
	Repo        string
	SourceIID   int
	// Assignee is the source assignee credited in the header, empty when assigned.
	Assignee    string
	Submissions int

	attempted map[string]bool
}

// ghostUser is credited when the source no longer knows the author.
const ghostUser = "ghost"

func issueHeader(reporter, assignee string) string {
	header := fmt.Sprintf("> **Migration Note:** This issue was originally created by %s", reporter)
	if assignee != "" {
		header += " and Assigned to " + assignee
	}
	return header + "\n\n"
}

func commentHeader(author string) string {
	return fmt.Sprintf("> **Migration Note:** This comment was originally added by %s\n\n", author)
}

// ImportIssues submits every issue of the target and waits for each import to settle. The
// returned table maps source issue numbers to destination numbers. Per-issue failures are
// logged; a *FatalError stops the run.
func (im *Importer) ImportIssues(ctx context.Context, t *Target) (idmap.Table, error) {
	issues, err := im.source.Issues(ctx, t.Project.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}
	logger.Step("issues", "Creating issues", "repo", t.Repo, "count", len(issues))

	iids := make([]int, 0, len(issues))
	for _, issue := range issues {
		iids = append(iids, issue.IID)
	}
	provisional := im.mapper.Provision(idmap.KindIssue, t.Repo, iids)
	refs := rewrite.References{
		Issues:            provisional,
		PullRequestOffset: len(provisional),
		UseOffset:         true,
	}

	var records []*ImportStatusRecord
	for _, issue := range issues {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if im.mapper.Confirmed(idmap.KindIssue, t.Repo, issue.IID) {
			logger.Debug("Issue already imported", "repo", t.Repo, "iid", issue.IID)
			continue
		}
		rec, err := im.submitIssue(ctx, t, issue, refs)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Error("Failed to submit issue", "repo", t.Repo, "iid", issue.IID, "error", err)
			continue
		}
		records = append(records, rec)
	}

	var imported, failed int
	for _, rec := range records {
		number, err := im.Reconcile(ctx, rec)
		switch {
		case err == nil:
			if err := im.mapper.Record(idmap.KindIssue, t.Repo, rec.SourceIID, number); err != nil {
				return nil, &FatalError{Op: "record issue", Err: err}
			}
			imported++
			logger.Step("issues", "Imported issue", "repo", t.Repo, "iid", rec.SourceIID, "number", number)
		case IsFatal(err), ctx.Err() != nil:
			return nil, err
		default:
			failed++
			logger.Error("Failed to import issue", "repo", t.Repo, "iid", rec.SourceIID, "error", err)
		}
	}

	logger.Step("issues", "Issues done", "repo", t.Repo, "imported", imported, "failed", failed)
	return im.mapper.Table(idmap.KindIssue, t.Repo), nil
}

func (im *Importer) submitIssue(ctx context.Context, t *Target, issue *gitlab.Issue, refs rewrite.References) (*ImportStatusRecord, error) {
	notes, err := im.source.IssueNotes(ctx, t.Project.ID, issue.IID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	rec := im.buildIssueRecord(ctx, t, issue, notes, refs)

	logger.Debug("Submitting issue", "repo", t.Repo, "iid", issue.IID)
	status, err := im.dest.SubmitIssueImport(ctx, t.Repo, rec.Payload)
	if err != nil {
		return nil, err
	}
	rec.Status = status
	rec.Submissions = 1
	return rec, nil
}

func (im *Importer) buildIssueRecord(ctx context.Context, t *Target, issue *gitlab.Issue, notes []*gitlab.Note, refs rewrite.References) *ImportStatusRecord {
	rw := t.Rewriter
	rec := &ImportStatusRecord{
		Repo:      t.Repo,
		SourceIID: issue.IID,
		attempted: make(map[string]bool),
	}
	rec.Reporter = ghostUser
	if issue.Author != nil && issue.Author.Username != "" {
		rec.Reporter = rw.Username(issue.Author.Username)
	}

	payload := &github.IssueImportRequest{
		Issue: github.ImportedIssue{
			Title:     issue.Title,
			CreatedAt: issue.CreatedAt,
			UpdatedAt: issue.UpdatedAt,
			ClosedAt:  issue.ClosedAt,
			Closed:    issue.State == "closed",
			Labels:    normalizeLabels(issue.Labels),
		},
	}

	if assignee := firstAssignee(issue); assignee != "" {
		mapped, ok := im.users.Lookup(assignee)
		switch {
		case ok && !im.opts.NoAssignee:
			payload.Issue.Assignee = mapped
			im.ensureCollaborator(ctx, t.Repo, mapped)
		case ok:
			rec.Assignee = mapped
		default:
			rec.Assignee = assignee
		}
	}

	if issue.Milestone != nil {
		if number, ok := im.mapper.Resolve(idmap.KindMilestone, t.Repo, issue.Milestone.IID); ok {
			payload.Issue.Milestone = number
		}
	}

	rec.Description = rw.Text(issue.Description, refs)
	payload.Issue.Body = issueHeader(rec.Reporter, rec.Assignee) + rec.Description

	for _, note := range notes {
		if note.System {
			continue
		}
		body := commentHeader(rw.Username(note.Author.Username)) + rw.Text(note.Body, refs)
		payload.Comments = append(payload.Comments, github.ImportComment{Body: body, CreatedAt: note.CreatedAt})
	}

	rec.Payload = payload
	return rec
}

func firstAssignee(issue *gitlab.Issue) string {
	if len(issue.Assignees) > 0 && issue.Assignees[0] != nil {
		return issue.Assignees[0].Username
	}
	if issue.Assignee != nil {
		return issue.Assignee.Username
	}
	return ""
}

// ensureCollaborator grants push access once per repository and user. A failure is logged; the
// import then reports the assignee as invalid and the assignment is dropped.
func (im *Importer) ensureCollaborator(ctx context.Context, repo, user string) {
	if im.collaborators.Has(repo, user) {
		return
	}
	invited, err := im.dest.AddCollaborator(ctx, repo, user, "push")
	if err != nil {
		logger.Warn("Failed to add collaborator", "repo", repo, "user", user, "error", err)
		return
	}
	im.collaborators.Add(repo, user)
	if invited {
		logger.Info("Invited collaborator", "repo", repo, "user", user)
	} else {
		logger.Info("Added collaborator", "repo", repo, "user", user)
	}
}

// Reconcile drives an import to a final state and returns the destination issue number.
// Validation failures with a known remedy are fixed in the payload and resubmitted.
func (im *Importer) Reconcile(ctx context.Context, rec *ImportStatusRecord) (int, error) {
	status := rec.Status
	polls := 0
	for {
		switch status.Status {
		case github.ImportImported:
			return status.IssueNumber()

		case github.ImportPending:
			if polls >= im.opts.MaxPolls {
				return 0, fmt.Errorf("%w: #%d after %d polls", ErrImportTimeout, rec.SourceIID, polls)
			}
			polls++
			if err := sleep(ctx, im.opts.PollInterval); err != nil {
				return 0, err
			}
			next, err := im.dest.ImportStatus(ctx, rec.Status.URL)
			if err != nil {
				return 0, err
			}
			status = next

		default:
			if err := im.remediate(rec, status); err != nil {
				return 0, err
			}
			logger.Info("Resubmitting issue", "repo", rec.Repo, "iid", rec.SourceIID, "submission", rec.Submissions+1)
			next, err := im.dest.SubmitIssueImport(ctx, rec.Repo, rec.Payload)
			if err != nil {
				return 0, err
			}
			rec.Submissions++
			rec.Status = next
			status = next
		}
	}
}

// remediate rewrites the payload for a failed import, or returns a *FatalError when the failure
// has no known remedy.
func (im *Importer) remediate(rec *ImportStatusRecord, status *github.ImportStatus) error {
	if findImportError(status.Errors, "assignee") != nil {
		p := rec.Payload.Clone()
		if p.Issue.Assignee == "" {
			return &FatalError{Op: "issue import", Err: fmt.Errorf("#%d: assignee rejected with no assignee in the request", rec.SourceIID)}
		}
		logger.Warn("Assignee rejected, crediting in text", "repo", rec.Repo, "iid", rec.SourceIID, "assignee", p.Issue.Assignee)
		rec.Assignee = p.Issue.Assignee
		p.Issue.Assignee = ""
		p.Issue.Body = issueHeader(rec.Reporter, rec.Assignee) + rec.Description
		rec.Payload = p
		return nil
	}

	if e := findImportError(status.Errors, "name"); e != nil && e.Value != "" {
		p := rec.Payload.Clone()
		idx := slices.Index(p.Issue.Labels, e.Value)
		if idx < 0 {
			return &FatalError{Op: "issue import", Err: fmt.Errorf("#%d: rejected label %q is not in the request", rec.SourceIID, e.Value)}
		}
		alt := utils.ToggleInitialCase(e.Value)
		if rec.attempted[alt] {
			return &FatalError{Op: "issue import", Err: fmt.Errorf("#%d: label %q rejected in both spellings", rec.SourceIID, e.Value)}
		}
		if rec.attempted == nil {
			rec.attempted = make(map[string]bool)
		}
		rec.attempted[e.Value] = true
		rec.attempted[alt] = true
		logger.Warn("Label rejected, retrying with other case", "repo", rec.Repo, "iid", rec.SourceIID, "label", e.Value, "retry", alt)
		p.Issue.Labels = append(slices.Delete(p.Issue.Labels, idx, idx+1), alt)
		rec.Payload = p
		return nil
	}

	return &FatalError{
		Op:  "issue import",
		Err: fmt.Errorf("#%d: status %q: %s", rec.SourceIID, status.Status, describeImportErrors(status.Errors)),
	}
}

func findImportError(errs []github.ImportError, field string) *github.ImportError {
	for i := range errs {
		if errs[i].Field == field && errs[i].Code == "invalid" {
			return &errs[i]
		}
	}
	return nil
}

func describeImportErrors(errs []github.ImportError) string {
	if len(errs) == 0 {
		return "no details"
	}
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, fmt.Sprintf("%s.%s %s %q", e.Resource, e.Field, e.Code, e.Value))
	}
	return strings.Join(parts, ", ")
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// isCanceled reports a context cancellation, which always stops the run.
func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
