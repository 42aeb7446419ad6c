package github

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	githublib "github.com/google/go-github/v70/github"
	"github.com/krrrr38/gl2gh/pkg/logger"
	"github.com/shurcooL/githubv4"
)

// Visibility of a created repository.
type Visibility string

const (
	VisibilityPrivate  Visibility = "private"
	VisibilityInternal Visibility = "internal"
	VisibilityPublic   Visibility = "public"
)

// ParseVisibility validates a visibility name.
func ParseVisibility(s string) (Visibility, error) {
	switch v := Visibility(strings.ToLower(s)); v {
	case VisibilityPrivate, VisibilityInternal, VisibilityPublic:
		return v, nil
	case "":
		return VisibilityPrivate, nil
	default:
		return "", fmt.Errorf("unknown visibility %q", s)
	}
}

func (v Visibility) graphQL() githubv4.RepositoryVisibility {
	switch v {
	case VisibilityPublic:
		return githubv4.RepositoryVisibilityPublic
	case VisibilityInternal:
		return githubv4.RepositoryVisibilityInternal
	default:
		return githubv4.RepositoryVisibilityPrivate
	}
}

// RepositoryOptions describes a repository to create.
type RepositoryOptions struct {
	Name          string
	Description   string
	Homepage      string
	Visibility    Visibility
	IssuesEnabled bool
	WikiEnabled   bool
}

// Repository is a created destination repository.
type Repository struct {
	Name   string
	URL    string
	SSHURL string
}

// CreateRepository creates an empty repository in the destination organisation.
// GraphQL is used because the REST API cannot create internal repositories.
func (client *Client) CreateRepository(ctx context.Context, opts RepositoryOptions) (*Repository, error) {
	logger.Debug("Creating GitHub repository", "owner", client.owner, "repo", opts.Name, "visibility", opts.Visibility)

	var ownerDetail *githublib.User
	err := client.do(ctx, client.clientGate, func() error {
		var err error
		ownerDetail, _, err = client.inner.Users.Get(ctx, client.owner)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get owner detail: %w", err)
	}

	var mutation struct {
		CreateRepository struct {
			Repository struct {
				ID     githubv4.ID
				Name   githubv4.String
				URL    githubv4.String `graphql:"url"`
				SSHURL githubv4.String `graphql:"sshUrl"`
			}
		} `graphql:"createRepository(input: $input)"`
	}
	input := githubv4.CreateRepositoryInput{
		Name:             githubv4.String(opts.Name),
		Visibility:       opts.Visibility.graphQL(),
		OwnerID:          githubv4.NewID(ownerDetail.GetNodeID()),
		Description:      githubv4.NewString(githubv4.String(sanitizeDescription(opts.Description))),
		HasWikiEnabled:   githubv4.NewBoolean(githubv4.Boolean(opts.WikiEnabled)),
		HasIssuesEnabled: githubv4.NewBoolean(githubv4.Boolean(opts.IssuesEnabled)),
	}
	if opts.Homepage != "" {
		if u, err := url.Parse(opts.Homepage); err == nil {
			input.HomepageURL = githubv4.NewURI(githubv4.URI{URL: u})
		}
	}

	err = client.do(ctx, client.clientGate, func() error {
		return client.gql.Mutate(ctx, &mutation, input, nil)
	})
	if err != nil {
		logger.Error("Failed to create GitHub repository", "owner", client.owner, "repo", opts.Name, "error", err)
		return nil, fmt.Errorf("failed to create GitHub repository: %w", err)
	}

	created := mutation.CreateRepository.Repository
	logger.Debug("Successfully created GitHub repository", "owner", client.owner, "repo", opts.Name)
	return &Repository{
		Name:   string(created.Name),
		URL:    string(created.URL),
		SSHURL: string(created.SSHURL),
	}, nil
}

// sanitizeDescription removes line breaks, which repository descriptions reject.
func sanitizeDescription(s string) string {
	return strings.NewReplacer("\r\n", "", "\n", "", "\r", "").Replace(s)
}

// ListRepositories lists every repository of the organisation.
func (client *Client) ListRepositories(ctx context.Context) ([]*githublib.Repository, error) {
	var ret []*githublib.Repository
	opts := &githublib.RepositoryListByOrgOptions{
		Type:        "all",
		ListOptions: githublib.ListOptions{PerPage: 100},
	}
	for {
		var (
			repos []*githublib.Repository
			resp  *githublib.Response
		)
		err := client.do(ctx, client.endpointGate, func() error {
			var err error
			repos, resp, err = client.inner.Repositories.ListByOrg(ctx, client.owner, opts)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list GitHub repositories: %w", err)
		}
		ret = append(ret, repos...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return ret, nil
}
