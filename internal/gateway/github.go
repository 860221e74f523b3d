// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/naka-gawa/github-orgstats/internal/domain"
)

// DefaultHost is the public GitHub API host.
const DefaultHost = "api.github.com"

// Fetcher defines the behavior of a gateway for fetching information from GitHub.
type Fetcher interface {
	ListOrgRepos(ctx context.Context, org string, private bool) ([]*domain.Repository, error)
	ListContributors(ctx context.Context, fullName string) ([]domain.Contributor, error)
	ListMembers(ctx context.Context, org string, private bool) ([]string, error)
	ListUserEvents(ctx context.Context, user string, opts PageOptions, observer PageObserver) ([]domain.Event, error)
	GetRepo(ctx context.Context, fullName string) (*domain.Repository, error)
	IsMember(ctx context.Context, org, user string) (bool, error)
	ListClosedIssues(ctx context.Context, fullName string) ([]domain.Issue, error)
}

// Options configures how the gateway reaches and authenticates with GitHub.
type Options struct {
	Host      string
	Timeout   time.Duration
	UserAgent string

	// Token enables OAuth2 token authentication.
	Token string
	// Username and Password enable basic authentication. An OAuth app's
	// client id and secret are passed the same way.
	Username string
	Password string
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	logger        logrus.FieldLogger
}

// closedIssuesQuery pages through the closed issues of one repository.
type closedIssuesQuery struct {
	Repository struct {
		Issues struct {
			PageInfo struct {
				HasNextPage bool
				EndCursor   githubv4.String
			}
			Nodes []struct {
				Number int
				Author struct {
					Login string
				}
				Comments struct {
					TotalCount int
				}
			}
		} `graphql:"issues(states: CLOSED, first: 100, after: $cursor)"`
	} `graphql:"repository(owner: $owner, name: $name)"`
}

// NewGitHubGateway creates a GitHubGateway whose transport waits out
// secondary rate limits.
func NewGitHubGateway(opts Options, logger logrus.FieldLogger) (*GitHubGateway, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}

	var transport http.RoundTripper = rateLimitWaiter
	switch {
	case opts.Token != "":
		transport = &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}),
		}
	case opts.Username != "":
		transport = &github.BasicAuthTransport{
			Username:  opts.Username,
			Password:  opts.Password,
			Transport: rateLimitWaiter,
		}
	}
	httpClient := &http.Client{Transport: transport, Timeout: opts.Timeout}

	restClient := github.NewClient(httpClient)
	graphqlClient := githubv4.NewClient(httpClient)
	if host := opts.Host; host != "" && host != DefaultHost {
		restClient, err = restClient.WithEnterpriseURLs("https://"+host+"/api/v3/", "https://"+host+"/api/uploads/")
		if err != nil {
			return nil, fmt.Errorf("failed to configure enterprise host %q: %w", host, err)
		}
		graphqlClient = githubv4.NewEnterpriseClient("https://"+host+"/api/graphql", httpClient)
	}
	if opts.UserAgent != "" {
		restClient.UserAgent = opts.UserAgent
	}

	return &GitHubGateway{
		restClient:    restClient,
		graphqlClient: graphqlClient,
		logger:        logger,
	}, nil
}

// ListOrgRepos lists every repository of an org: public ones, or all of them
// when private is set.
func (g *GitHubGateway) ListOrgRepos(ctx context.Context, org string, private bool) ([]*domain.Repository, error) {
	repoType := "public"
	if private {
		repoType = "all"
	}
	g.logger.Debugf("Fetching %s repositories of org %q...", repoType, org)
	repos, err := fetchAllPages(ctx, g.logger, func(ctx context.Context, lo github.ListOptions) ([]*github.Repository, *github.Response, error) {
		return g.restClient.Repositories.ListByOrg(ctx, org, &github.RepositoryListByOrgOptions{Type: repoType, ListOptions: lo})
	}, PageOptions{PerPage: 100}, nil)
	if err != nil {
		return nil, classify(err, "organization "+org, "list repositories of org "+org)
	}

	result := make([]*domain.Repository, 0, len(repos))
	for _, repo := range repos {
		result = append(result, toRepository(repo))
	}
	return result, nil
}

// ListContributors lists the contributors of a repository with their
// contribution counts. Anonymous contributors are left out.
func (g *GitHubGateway) ListContributors(ctx context.Context, fullName string) ([]domain.Contributor, error) {
	owner, name, err := splitRepo(fullName)
	if err != nil {
		return nil, err
	}
	contributors, err := fetchAllPages(ctx, g.logger, func(ctx context.Context, lo github.ListOptions) ([]*github.Contributor, *github.Response, error) {
		return g.restClient.Repositories.ListContributors(ctx, owner, name, &github.ListContributorsOptions{ListOptions: lo})
	}, PageOptions{PerPage: 100}, nil)
	if err != nil {
		return nil, classify(err, "repository "+fullName, "list contributors of "+fullName)
	}

	result := make([]domain.Contributor, 0, len(contributors))
	for _, c := range contributors {
		if c.GetLogin() == "" {
			continue
		}
		result = append(result, domain.Contributor{Login: c.GetLogin(), Contributions: c.GetContributions()})
	}
	return result, nil
}

// ListMembers lists the public members of an org, or all of its members
// when private is set. The latter needs a token with org read access.
func (g *GitHubGateway) ListMembers(ctx context.Context, org string, private bool) ([]string, error) {
	members, err := fetchAllPages(ctx, g.logger, func(ctx context.Context, lo github.ListOptions) ([]*github.User, *github.Response, error) {
		return g.restClient.Organizations.ListMembers(ctx, org, &github.ListMembersOptions{PublicOnly: !private, ListOptions: lo})
	}, PageOptions{PerPage: 100}, nil)
	if err != nil {
		return nil, classify(err, "organization "+org, "list members of org "+org)
	}

	logins := make([]string, 0, len(members))
	for _, m := range members {
		logins = append(logins, m.GetLogin())
	}
	return logins, nil
}

// ListUserEvents lists the events performed by a user, newest first. The
// events API only serves the last 90 days, 300 events at most.
func (g *GitHubGateway) ListUserEvents(ctx context.Context, user string, opts PageOptions, observer PageObserver) ([]domain.Event, error) {
	events, err := fetchAllPages(ctx, g.logger, func(ctx context.Context, lo github.ListOptions) ([]*github.Event, *github.Response, error) {
		return g.restClient.Activity.ListEventsPerformedByUser(ctx, user, false, &lo)
	}, opts, observer)
	if err != nil {
		return nil, classify(err, "user "+user, "list events of user "+user)
	}

	result := make([]domain.Event, 0, len(events))
	for _, ev := range events {
		result = append(result, domain.Event{
			Type:  ev.GetType(),
			Actor: ev.GetActor().GetLogin(),
			Repo:  ev.GetRepo().GetName(),
		})
	}
	return result, nil
}

// GetRepo fetches the metadata of a single repository.
func (g *GitHubGateway) GetRepo(ctx context.Context, fullName string) (*domain.Repository, error) {
	owner, name, err := splitRepo(fullName)
	if err != nil {
		return nil, err
	}
	repo, _, err := g.restClient.Repositories.Get(ctx, owner, name)
	if err != nil {
		return nil, classify(err, "repository "+fullName, "get repository "+fullName)
	}
	return toRepository(repo), nil
}

// IsMember checks whether user is a member of org. GitHub answers 404 for
// non-members, which go-github turns into false.
func (g *GitHubGateway) IsMember(ctx context.Context, org, user string) (bool, error) {
	member, _, err := g.restClient.Organizations.IsMember(ctx, org, user)
	if err != nil {
		return false, classify(err, "organization "+org, fmt.Sprintf("check membership of %s in %s", user, org))
	}
	return member, nil
}

// ListClosedIssues lists the closed issues of a repository (pull requests
// excluded) using the GraphQL API.
func (g *GitHubGateway) ListClosedIssues(ctx context.Context, fullName string) ([]domain.Issue, error) {
	owner, name, err := splitRepo(fullName)
	if err != nil {
		return nil, err
	}
	variables := map[string]interface{}{
		"owner":  githubv4.String(owner),
		"name":   githubv4.String(name),
		"cursor": (*githubv4.String)(nil),
	}

	issues := make([]domain.Issue, 0)
	for {
		var q closedIssuesQuery
		if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
			return nil, classifyGraphQL(err, "repository "+fullName, "list closed issues of "+fullName)
		}
		for _, node := range q.Repository.Issues.Nodes {
			issues = append(issues, domain.Issue{
				Number:   node.Number,
				Author:   node.Author.Login,
				Comments: node.Comments.TotalCount,
			})
		}
		if !q.Repository.Issues.PageInfo.HasNextPage {
			break
		}
		variables["cursor"] = githubv4.NewString(q.Repository.Issues.PageInfo.EndCursor)
		g.logger.Debugf("  Fetching next page of closed issues of %s...", fullName)
	}
	return issues, nil
}

func toRepository(repo *github.Repository) *domain.Repository {
	source := repo.GetSource().GetFullName()
	if source == "" {
		source = repo.GetParent().GetFullName()
	}
	return &domain.Repository{
		FullName: repo.GetFullName(),
		Name:     repo.GetName(),
		Stars:    repo.GetStargazersCount(),
		Fork:     repo.GetFork(),
		Source:   source,
	}
}

func splitRepo(fullName string) (string, string, error) {
	owner, name, ok := domain.SplitFullName(fullName)
	if !ok {
		return "", "", fmt.Errorf("invalid repository name %q, want owner/name", fullName)
	}
	return owner, name, nil
}

// classify turns a go-github error into a NotFoundError for HTTP 404 and a
// RemoteError otherwise.
func classify(err error, resource, op string) error {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound {
		return &domain.NotFoundError{Resource: resource}
	}
	return &domain.RemoteError{Op: op, Err: err}
}

// classifyGraphQL does the same for GraphQL, which reports missing objects
// in the error message rather than the status code.
func classifyGraphQL(err error, resource, op string) error {
	if strings.Contains(err.Error(), "Could not resolve to a") {
		return &domain.NotFoundError{Resource: resource}
	}
	return &domain.RemoteError{Op: op, Err: err}
}
