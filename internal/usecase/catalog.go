package usecase

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/naka-gawa/github-orgstats/internal/domain"
	"github.com/naka-gawa/github-orgstats/internal/gateway"
)

// RepoCatalog lists the repositories of orgs and resolves forks to the
// repository they were ultimately forked from. Lookups are memoized for
// the lifetime of the catalog, which is one command run.
type RepoCatalog struct {
	fetcher gateway.Fetcher
	logger  logrus.FieldLogger

	inflight singleflight.Group
	mu       sync.Mutex
	repos    map[string]repoLookup
	// sources maps every name seen on a fork chain to the chain's root.
	// A nil value records a chain that ended in a missing repository.
	sources map[string]*domain.Repository
}

type repoLookup struct {
	repo *domain.Repository
	err  error
}

// NewRepoCatalog creates an empty catalog.
func NewRepoCatalog(fetcher gateway.Fetcher, logger logrus.FieldLogger) *RepoCatalog {
	return &RepoCatalog{
		fetcher: fetcher,
		logger:  logger,
		repos:   make(map[string]repoLookup),
		sources: make(map[string]*domain.Repository),
	}
}

// ReposForOrg lists the repositories of an org, public ones only unless
// private is set. With skipForks, forks are left out since they are not the
// org's own work.
func (c *RepoCatalog) ReposForOrg(ctx context.Context, org string, private, skipForks bool) ([]*domain.Repository, error) {
	repos, err := c.fetcher.ListOrgRepos(ctx, org, private)
	if err != nil {
		return nil, err
	}
	if !skipForks {
		return repos, nil
	}

	kept := make([]*domain.Repository, 0, len(repos))
	for _, repo := range repos {
		if repo.Fork {
			c.logger.WithField("org", org).Debugf("Skipping fork %s", repo.FullName)
			continue
		}
		kept = append(kept, repo)
	}
	return kept, nil
}

// Repo returns the metadata of a repository. Successful and not-found
// lookups are cached; concurrent lookups of the same name share one call.
func (c *RepoCatalog) Repo(ctx context.Context, fullName string) (*domain.Repository, error) {
	key := strings.ToLower(fullName)
	if lookup, ok := c.cachedRepo(key); ok {
		return lookup.repo, lookup.err
	}

	v, err, _ := c.inflight.Do(key, func() (interface{}, error) {
		if lookup, ok := c.cachedRepo(key); ok {
			return lookup.repo, lookup.err
		}
		repo, err := c.fetcher.GetRepo(ctx, fullName)
		if err == nil || domain.IsNotFound(err) {
			c.mu.Lock()
			c.repos[key] = repoLookup{repo: repo, err: err}
			c.mu.Unlock()
		}
		return repo, err
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Repository), nil
}

func (c *RepoCatalog) cachedRepo(key string) (repoLookup, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	lookup, ok := c.repos[key]
	return lookup, ok
}

// SourceRepo follows a fork chain to its root, the first repository without
// a source. It returns nil without error when the chain runs into a
// repository that no longer exists.
func (c *RepoCatalog) SourceRepo(ctx context.Context, fullName string) (*domain.Repository, error) {
	var chain []string
	var last *domain.Repository
	seen := make(map[string]bool)

	name := fullName
	for {
		key := strings.ToLower(name)
		if root, ok := c.cachedSource(key); ok {
			c.rememberSource(chain, root)
			return root, nil
		}
		if seen[key] {
			c.logger.Warnf("Fork chain of %s loops back to %s; stopping at %s", fullName, name, last.FullName)
			c.rememberSource(chain, last)
			return last, nil
		}
		seen[key] = true
		chain = append(chain, key)

		repo, err := c.Repo(ctx, name)
		if domain.IsNotFound(err) || (err == nil && repo == nil) {
			c.rememberSource(chain, nil)
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if repo.Source == "" || strings.EqualFold(repo.Source, repo.FullName) {
			c.rememberSource(chain, repo)
			return repo, nil
		}
		last = repo
		name = repo.Source
	}
}

func (c *RepoCatalog) cachedSource(key string) (*domain.Repository, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	root, ok := c.sources[key]
	return root, ok
}

func (c *RepoCatalog) rememberSource(keys []string, root *domain.Repository) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		c.sources[key] = root
	}
}
