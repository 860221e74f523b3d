package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/github-orgstats/internal/domain"
)

// setupTestGateway creates a GitHubGateway that communicates with a mock HTTP server.
func setupTestGateway(t *testing.T, handler http.Handler) (*GitHubGateway, *httptest.Server) {
	server := httptest.NewServer(handler)

	// Setup REST client to point to the mock server.
	restClient := github.NewClient(server.Client())
	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	restClient.BaseURL = baseURL

	// Use NewEnterpriseClient to point the GraphQL client to our mock server's URL.
	graphqlClient := githubv4.NewEnterpriseClient(server.URL, server.Client())

	gateway := &GitHubGateway{
		restClient:    restClient,
		graphqlClient: graphqlClient,
		logger:        discardLogger(),
	}

	return gateway, server
}

func TestGitHubGateway_ListOrgRepos(t *testing.T) {
	testCases := []struct {
		name         string
		private      bool
		expectedType string
	}{
		{name: "public repos only", private: false, expectedType: "public"},
		{name: "private and public repos", private: true, expectedType: "all"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var serverURL string
			var pages []string
			handler := func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/orgs/quux/repos", r.URL.Path)
				assert.Equal(t, tc.expectedType, r.URL.Query().Get("type"))
				page := r.URL.Query().Get("page")
				pages = append(pages, page)
				switch page {
				case "1":
					w.Header().Set("Link", fmt.Sprintf(`<%s/orgs/quux/repos?page=2>; rel="next", <%s/orgs/quux/repos?page=2>; rel="last"`, serverURL, serverURL))
					fmt.Fprint(w, `[{"name":"foo","full_name":"quux/foo","stargazers_count":10}]`)
				case "2":
					fmt.Fprint(w, `[{"name":"bar","full_name":"quux/bar","fork":true,"stargazers_count":1}]`)
				default:
					t.Errorf("unexpected page %q", page)
				}
			}
			gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
			defer server.Close()
			serverURL = server.URL

			repos, err := gateway.ListOrgRepos(context.Background(), "quux", tc.private)
			require.NoError(t, err)
			assert.Equal(t, []string{"1", "2"}, pages)
			assert.Equal(t, []*domain.Repository{
				{FullName: "quux/foo", Name: "foo", Stars: 10},
				{FullName: "quux/bar", Name: "bar", Stars: 1, Fork: true},
			}, repos)
		})
	}
}

func TestGitHubGateway_ListOrgRepos_Errors(t *testing.T) {
	testCases := []struct {
		name           string
		status         int
		expectNotFound bool
		expectedErrMsg string
	}{
		{name: "unknown org", status: http.StatusNotFound, expectNotFound: true, expectedErrMsg: "organization quux not found"},
		{name: "server error", status: http.StatusInternalServerError, expectedErrMsg: "failed to list repositories of org quux"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gateway, server := setupTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				fmt.Fprint(w, `{"message": "nope"}`)
			}))
			defer server.Close()

			repos, err := gateway.ListOrgRepos(context.Background(), "quux", false)
			assert.Nil(t, repos)
			require.Error(t, err)
			assert.Equal(t, tc.expectNotFound, domain.IsNotFound(err))
			assert.Contains(t, err.Error(), tc.expectedErrMsg)
		})
	}
}

func TestGitHubGateway_ListContributors(t *testing.T) {
	testCases := []struct {
		name        string
		handlerFunc func(w http.ResponseWriter, r *http.Request)
		expected    []domain.Contributor
	}{
		{
			name: "happy path - anonymous contributors are skipped",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/repos/quux/foo/contributors", r.URL.Path)
				fmt.Fprint(w, `[{"login":"boneskull","contributions":42},{"login":"xdamman","contributions":55},{"contributions":3,"type":"Anonymous"}]`)
			},
			expected: []domain.Contributor{
				{Login: "boneskull", Contributions: 42},
				{Login: "xdamman", Contributions: 55},
			},
		},
		{
			name: "empty repository answers 204",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			},
			expected: []domain.Contributor{},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gateway, server := setupTestGateway(t, http.HandlerFunc(tc.handlerFunc))
			defer server.Close()

			contributors, err := gateway.ListContributors(context.Background(), "quux/foo")
			require.NoError(t, err)
			assert.Equal(t, tc.expected, contributors)
		})
	}
}

func TestGitHubGateway_ListContributors_InvalidName(t *testing.T) {
	gateway, server := setupTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))
	defer server.Close()

	_, err := gateway.ListContributors(context.Background(), "not-a-full-name")
	assert.ErrorContains(t, err, "want owner/name")
}

func TestGitHubGateway_ListMembers(t *testing.T) {
	testCases := []struct {
		name         string
		private      bool
		expectedPath string
	}{
		{name: "public members", private: false, expectedPath: "/orgs/quux/public_members"},
		{name: "all members", private: true, expectedPath: "/orgs/quux/members"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gateway, server := setupTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tc.expectedPath, r.URL.Path)
				fmt.Fprint(w, `[{"login":"foo"},{"login":"bar"}]`)
			}))
			defer server.Close()

			members, err := gateway.ListMembers(context.Background(), "quux", tc.private)
			require.NoError(t, err)
			assert.Equal(t, []string{"foo", "bar"}, members)
		})
	}
}

func TestGitHubGateway_ListUserEvents(t *testing.T) {
	var serverURL string
	var pages []string
	handler := func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/alice/events", r.URL.Path)
		assert.Equal(t, "30", r.URL.Query().Get("per_page"))
		page := r.URL.Query().Get("page")
		pages = append(pages, page)
		if page == "1" {
			w.Header().Set("Link", fmt.Sprintf(`<%s/users/alice/events?per_page=30&page=10>; rel="last"`, serverURL))
		}
		fmt.Fprintf(w, `[{"type":"PushEvent","actor":{"login":"alice"},"repo":{"name":"other/project-%s"}}]`, page)
	}
	gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
	defer server.Close()
	serverURL = server.URL

	observer := &countingObserver{}
	events, err := gateway.ListUserEvents(context.Background(), "alice", PageOptions{PerPage: 30, MaxPages: 3}, observer)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, pages)
	assert.Equal(t, []domain.Event{
		{Type: "PushEvent", Actor: "alice", Repo: "other/project-1"},
		{Type: "PushEvent", Actor: "alice", Repo: "other/project-2"},
		{Type: "PushEvent", Actor: "alice", Repo: "other/project-3"},
	}, events)
	assert.Equal(t, 3, observer.work)
	assert.Equal(t, 3, observer.done)
}

func TestGitHubGateway_GetRepo(t *testing.T) {
	testCases := []struct {
		name           string
		handlerFunc    func(w http.ResponseWriter, r *http.Request)
		expected       *domain.Repository
		expectNotFound bool
	}{
		{
			name: "fork with source",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/repos/other/project", r.URL.Path)
				fmt.Fprint(w, `{"name":"project","full_name":"other/project","fork":true,"stargazers_count":2,
					"parent":{"full_name":"middle/project"},"source":{"full_name":"other2/project"}}`)
			},
			expected: &domain.Repository{FullName: "other/project", Name: "project", Stars: 2, Fork: true, Source: "other2/project"},
		},
		{
			name: "fork with parent only",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"name":"project","full_name":"other/project","fork":true,"parent":{"full_name":"middle/project"}}`)
			},
			expected: &domain.Repository{FullName: "other/project", Name: "project", Fork: true, Source: "middle/project"},
		},
		{
			name: "deleted repository",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprint(w, `{"message":"Not Found"}`)
			},
			expectNotFound: true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gateway, server := setupTestGateway(t, http.HandlerFunc(tc.handlerFunc))
			defer server.Close()

			repo, err := gateway.GetRepo(context.Background(), "other/project")
			if tc.expectNotFound {
				assert.True(t, domain.IsNotFound(err))
				assert.Nil(t, repo)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.expected, repo)
			}
		})
	}
}

func TestGitHubGateway_IsMember(t *testing.T) {
	testCases := []struct {
		name     string
		status   int
		expected bool
		expectEr bool
	}{
		{name: "member", status: http.StatusNoContent, expected: true},
		{name: "not a member", status: http.StatusNotFound, expected: false},
		{name: "forbidden", status: http.StatusForbidden, expected: false, expectEr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gateway, server := setupTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/orgs/quux/members/alice", r.URL.Path)
				w.WriteHeader(tc.status)
			}))
			defer server.Close()

			member, err := gateway.IsMember(context.Background(), "quux", "alice")
			assert.Equal(t, tc.expected, member)
			if tc.expectEr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGitHubGateway_ListClosedIssues(t *testing.T) {
	testCases := []struct {
		name           string
		responses      []string
		expected       []domain.Issue
		expectNotFound bool
		expectedErrMsg string
	}{
		{
			name: "happy path - follows the cursor",
			responses: []string{
				`{"data":{"repository":{"issues":{"pageInfo":{"hasNextPage":true,"endCursor":"c1"},"nodes":[{"number":1,"author":{"login":"alice"},"comments":{"totalCount":3}}]}}}}`,
				`{"data":{"repository":{"issues":{"pageInfo":{"hasNextPage":false,"endCursor":"c2"},"nodes":[{"number":2,"author":{"login":"bob"},"comments":{"totalCount":0}}]}}}}`,
			},
			expected: []domain.Issue{
				{Number: 1, Author: "alice", Comments: 3},
				{Number: 2, Author: "bob", Comments: 0},
			},
		},
		{
			name:           "unknown repository",
			responses:      []string{`{"data":{"repository":null},"errors":[{"type":"NOT_FOUND","message":"Could not resolve to a Repository with the name 'quux/foo'."}]}`},
			expectNotFound: true,
		},
		{
			name:           "other errors",
			responses:      []string{`{"errors":[{"message":"Something went wrong"}]}`},
			expectedErrMsg: "failed to list closed issues of quux/foo",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			call := 0
			handler := func(w http.ResponseWriter, r *http.Request) {
				body, err := io.ReadAll(r.Body)
				require.NoError(t, err)
				assert.Contains(t, string(body), "states: CLOSED")
				if call > 0 {
					assert.Contains(t, string(body), `"cursor":"c1"`)
				}
				fmt.Fprint(w, tc.responses[call])
				call++
			}
			gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
			defer server.Close()

			issues, err := gateway.ListClosedIssues(context.Background(), "quux/foo")
			switch {
			case tc.expectNotFound:
				assert.True(t, domain.IsNotFound(err))
			case tc.expectedErrMsg != "":
				assert.ErrorContains(t, err, tc.expectedErrMsg)
			default:
				require.NoError(t, err)
				assert.Equal(t, tc.expected, issues)
				assert.Equal(t, len(tc.responses), call)
			}
		})
	}
}
