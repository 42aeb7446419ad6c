package migration

import (
	"context"
	"fmt"
	"strings"

	"github.com/krrrr38/gl2gh/pkg/github"
	"github.com/krrrr38/gl2gh/pkg/logger"
	"github.com/krrrr38/gl2gh/pkg/usermap"
	"github.com/xanzy/go-gitlab"
)

// DriverOptions selects what a migration does and how the destination is named.
type DriverOptions struct {
	Includes    Includes
	Visibility  github.Visibility
	GitHubName  string
	UseRepoName bool
	// WebURL is the source web root used for absolute upload links.
	WebURL string
}

// Driver migrates projects one at a time through the fixed stage order.
type Driver struct {
	source   Source
	dest     Destination
	mirror   Mirrorer
	importer *Importer
	users    *usermap.UserMap
	opts     DriverOptions
}

func NewDriver(source Source, dest Destination, mirror Mirrorer, importer *Importer, users *usermap.UserMap, opts DriverOptions) *Driver {
	return &Driver{
		source:   source,
		dest:     dest,
		mirror:   mirror,
		importer: importer,
		users:    users,
		opts:     opts,
	}
}

// RepositoryName derives the destination repository name. The namespace is prefixed unless the
// project path already carries it.
func RepositoryName(p *gitlab.Project, githubName string, useRepoName bool) string {
	if githubName != "" {
		return githubName
	}
	ns := ""
	if p.Namespace != nil {
		ns = p.Namespace.Name
	}
	if useRepoName || ns == "" ||
		strings.Contains(p.Path, strings.ToLower(ns)) ||
		strings.Contains(p.Path, ns) ||
		strings.Contains(p.Name, strings.ToUpper(ns)) {
		return p.Path
	}
	return ns + "-" + p.Path
}

// Migrate runs every included stage for one project. Stage failures are logged and the next
// stage runs; a failed repository creation, a cancellation or a *FatalError stops it.
func (d *Driver) Migrate(ctx context.Context, project *gitlab.Project) error {
	name := RepositoryName(project, d.opts.GitHubName, d.opts.UseRepoName)
	logger.Step("repository", "Migrating project", "project", project.PathWithNamespace, "repo", name)

	repo, err := d.dest.CreateRepository(ctx, github.RepositoryOptions{
		Name:          name,
		Description:   project.Description,
		Homepage:      project.WebURL,
		Visibility:    d.opts.Visibility,
		IssuesEnabled: project.IssuesEnabled,
		WikiEnabled:   project.WikiEnabled,
	})
	if err != nil {
		return fmt.Errorf("failed to create repository %s: %w", name, err)
	}
	logger.Step("repository", "Created repository", "repo", repo.Name, "url", repo.URL)

	t := NewTarget(project, d.dest.Owner(), repo.Name, d.opts.WebURL, d.users)

	if err := d.stage(ctx, CategoryMirror, func() error {
		return d.mirror.Mirror(ctx, project.SSHURLToRepo, repo.SSHURL, project.Path)
	}); err != nil {
		return err
	}
	if err := d.stage(ctx, CategoryLabels, func() error {
		return d.importer.ImportLabels(ctx, t)
	}); err != nil {
		return err
	}
	if err := d.stage(ctx, CategoryMilestones, func() error {
		_, err := d.importer.ImportMilestones(ctx, t)
		return err
	}); err != nil {
		return err
	}
	if project.SnippetsEnabled {
		if err := d.stage(ctx, CategorySnippets, func() error {
			return d.importer.ImportSnippets(ctx, t)
		}); err != nil {
			return err
		}
	}
	if project.IssuesEnabled {
		if err := d.stage(ctx, CategoryIssues, func() error {
			_, err := d.importer.ImportIssues(ctx, t)
			return err
		}); err != nil {
			return err
		}
	}

	var prs []*PullRequestRecord
	if err := d.stage(ctx, CategoryPRs, func() error {
		var err error
		prs, err = d.importer.ImportPullRequests(ctx, t)
		if err != nil {
			return err
		}
		return d.importer.PostPullRequestComments(ctx, t, prs)
	}); err != nil {
		return err
	}

	if project.WikiEnabled {
		if err := d.stage(ctx, CategoryWiki, func() error {
			return d.migrateWiki(ctx, project, repo)
		}); err != nil {
			return err
		}
	}
	if err := d.stage(ctx, CategoryArchive, func() error {
		if _, err := d.source.ArchiveProject(ctx, project.ID); err != nil {
			return err
		}
		logger.Step("archive", "Archived source project", "project", project.PathWithNamespace)
		return nil
	}); err != nil {
		return err
	}

	logger.Step("repository", "Migration finished", "project", project.PathWithNamespace, "repo", repo.Name)
	return nil
}

// stage runs fn when the category is included. Only cancellations and fatal errors are returned.
func (d *Driver) stage(ctx context.Context, c Category, fn func() error) error {
	if !d.opts.Includes.Has(c) {
		logger.Debug("Stage not included", "stage", string(c))
		return nil
	}
	err := fn()
	switch {
	case err == nil:
		return nil
	case IsFatal(err), isCanceled(err), ctx.Err() != nil:
		return err
	default:
		logger.Error("Stage failed", "stage", string(c), "error", err)
		return nil
	}
}

// migrateWiki mirrors the wiki repository. The destination wiki only accepts a push once it has
// a first page, so a failed push is reported with the pages that need to be moved by hand.
func (d *Driver) migrateWiki(ctx context.Context, project *gitlab.Project, repo *github.Repository) error {
	pages, err := d.source.Wikis(ctx, project.ID)
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		logger.Step("wiki", "No wiki pages", "project", project.PathWithNamespace)
		return nil
	}

	src := strings.TrimSuffix(project.SSHURLToRepo, ".git") + ".wiki.git"
	dst := strings.TrimSuffix(repo.SSHURL, ".git") + ".wiki.git"
	if err := d.mirror.Mirror(ctx, src, dst, project.Path+".wiki"); err != nil {
		titles := make([]string, 0, len(pages))
		for _, p := range pages {
			titles = append(titles, p.Title)
		}
		logger.Warn("Wiki not mirrored, create a first page on the destination and push the wiki by hand",
			"repo", repo.Name, "pages", strings.Join(titles, ", "), "error", err)
		return nil
	}
	logger.Step("wiki", "Mirrored wiki", "repo", repo.Name, "pages", len(pages))
	return nil
}
