package migration

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Category is a part of a project that can be included in a migration.
type Category string

const (
	CategoryMirror     Category = "mirror"
	CategoryLabels     Category = "labels"
	CategoryMilestones Category = "milestones"
	CategorySnippets   Category = "snippets"
	CategoryIssues     Category = "issues"
	CategoryPRs        Category = "pr"
	CategoryWiki       Category = "wiki"
	CategoryArchive    Category = "archive"
)

// AllCategories lists every category in stage order.
var AllCategories = []Category{
	CategoryMirror,
	CategoryLabels,
	CategoryMilestones,
	CategorySnippets,
	CategoryIssues,
	CategoryPRs,
	CategoryWiki,
	CategoryArchive,
}

// Includes is the set of categories a migration runs.
type Includes map[Category]bool

// ParseIncludes parses category names. "all" or an empty list selects every category.
func ParseIncludes(names []string) (Includes, error) {
	inc := make(Includes)
	if len(names) == 0 {
		names = []string{"all"}
	}
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "all" {
			for _, c := range AllCategories {
				inc[c] = true
			}
			continue
		}
		if !slices.Contains(AllCategories, Category(name)) {
			return nil, fmt.Errorf("unknown include %q", name)
		}
		inc[Category(name)] = true
	}
	return inc, nil
}

func (inc Includes) Has(c Category) bool {
	return inc[c]
}

// Default import polling.
const (
	DefaultPollInterval = 2 * time.Second
	DefaultMaxPolls     = 300
)

// ImporterOptions tunes the entity importer.
type ImporterOptions struct {
	// PollInterval is the wait between two import status checks.
	PollInterval time.Duration
	// MaxPolls bounds the status checks of one issue import.
	MaxPolls int
	// NoAssignee credits mapped assignees in the issue text instead of assigning them.
	NoAssignee bool
}

func (o ImporterOptions) withDefaults() ImporterOptions {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.MaxPolls <= 0 {
		o.MaxPolls = DefaultMaxPolls
	}
	return o
}
