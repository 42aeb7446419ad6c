package migration

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/krrrr38/gl2gh/pkg/logger"
	"github.com/xanzy/go-gitlab"
)

// DeleteListColumn is the column of the delete list holding full project paths.
const DeleteListColumn = "Namespace/Reponame"

// ReadDeleteList reads the project paths of a delete list.
func ReadDeleteList(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read delete list header: %w", err)
	}
	col := -1
	for i, h := range header {
		if strings.TrimSpace(h) == DeleteListColumn {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("delete list has no %q column", DeleteListColumn)
	}

	var paths []string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read delete list: %w", err)
		}
		if col < len(rec) {
			if p := strings.Trim(strings.TrimSpace(rec[col]), "/"); p != "" {
				paths = append(paths, p)
			}
		}
	}
	return paths, nil
}

// ProjectDeleter deletes source projects.
type ProjectDeleter interface {
	DeleteProject(ctx context.Context, pid interface{}) error
}

// DeleteProjects deletes every listed project, continuing past failures.
func DeleteProjects(ctx context.Context, d ProjectDeleter, paths []string) (int, error) {
	var (
		deleted int
		errs    []error
	)
	for _, p := range paths {
		if err := d.DeleteProject(ctx, p); err != nil {
			if isCanceled(err) {
				return deleted, err
			}
			logger.Error("Failed to delete project", "project", p, "error", err)
			errs = append(errs, err)
			continue
		}
		deleted++
		logger.Info("Deleted project", "project", p)
	}
	return deleted, errors.Join(errs...)
}

// ProjectArchiver archives source projects.
type ProjectArchiver interface {
	ArchiveProject(ctx context.Context, pid interface{}) (*gitlab.Project, error)
}

// ArchiveProjects archives the given projects, continuing past failures.
func ArchiveProjects(ctx context.Context, a ProjectArchiver, projects []*gitlab.Project) (int, error) {
	var (
		archived int
		errs     []error
	)
	for _, p := range projects {
		if _, err := a.ArchiveProject(ctx, p.ID); err != nil {
			if isCanceled(err) {
				return archived, err
			}
			logger.Error("Failed to archive project", "project", p.PathWithNamespace, "error", err)
			errs = append(errs, err)
			continue
		}
		archived++
		logger.Step("archive", "Archived project", "project", p.PathWithNamespace)
	}
	return archived, errors.Join(errs...)
}
