// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/naka-gawa/github-orgstats/internal/domain"
	"github.com/naka-gawa/github-orgstats/internal/gateway"
	"github.com/naka-gawa/github-orgstats/internal/progress"
)

const (
	// EventsPerPage is the page size of the user events listing.
	EventsPerPage = 30
	// DefaultEventPages bounds the events read per user. GitHub serves at
	// most 10 pages of 30, covering roughly the last 90 days.
	DefaultEventPages = 10
)

// Options selects what Aggregator collects.
type Options struct {
	Orgs []string
	// Private includes private repositories and concealed members.
	Private bool
	// EventTypes is the allow-list of event kinds counted as contributions.
	EventTypes []string
	// Concurrency caps every fan-out (orgs, repos, members).
	Concurrency int
	// EventPages caps the pages of events read per user.
	EventPages int
}

func (o Options) withDefaults() Options {
	if o.Concurrency < 1 {
		o.Concurrency = DefaultConcurrency
	}
	if len(o.EventTypes) == 0 {
		o.EventTypes = domain.DefaultEventTypes
	}
	if o.EventPages < 1 {
		o.EventPages = DefaultEventPages
	}
	return o
}

// Aggregator is the use case for aggregating contribution stats.
// It orchestrates the fetching and combining of data.
type Aggregator struct {
	fetcher gateway.Fetcher
	repos   *RepoCatalog
	members *MemberDirectory
	tracker progress.Tracker
	logger  logrus.FieldLogger
}

// NewAggregator creates a new Aggregator instance. Its caches live as long
// as the Aggregator, so use one per command run.
func NewAggregator(fetcher gateway.Fetcher, tracker progress.Tracker, logger logrus.FieldLogger) *Aggregator {
	return &Aggregator{
		fetcher: fetcher,
		repos:   NewRepoCatalog(fetcher, logger),
		members: NewMemberDirectory(fetcher, logger),
		tracker: tracker,
		logger:  logger,
	}
}

// ContributorsInOrgs collects, for every org, the contributors of each of
// its own (non-fork) repositories.
func (a *Aggregator) ContributorsInOrgs(ctx context.Context, opts Options) (domain.OrgContributions, error) {
	opts = opts.withDefaults()
	a.logger.Debugf("%d org(s) to process", len(opts.Orgs))

	result := make(domain.OrgContributions, len(opts.Orgs))
	var mu sync.Mutex
	err := forEach(ctx, opts.Orgs, opts.Concurrency, func(ctx context.Context, org string) error {
		repos, err := a.contributorsInOrg(ctx, org, opts)
		if err != nil {
			return err
		}
		mu.Lock()
		result[org] = repos
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	a.logger.Debug("Usecase: Aggregation complete.")
	return result, nil
}

func (a *Aggregator) contributorsInOrg(ctx context.Context, org string, opts Options) (map[string]*domain.RepoContributions, error) {
	log := a.logger.WithField("org", org)
	log.Debugf("Fetching INTERNAL (member-only) contributions; finding internal %s repos...", visibility(opts.Private))

	repos, err := a.repos.ReposForOrg(ctx, org, opts.Private, true)
	if err != nil {
		return nil, err
	}
	log.Debugf("%d %s repo(s) found", len(repos), visibility(opts.Private))

	group := a.tracker.NewGroup(fmt.Sprintf("org %q", org))
	defer group.Finish()
	item := group.NewItem("repos", len(repos))
	defer item.Finish()

	result := make(map[string]*domain.RepoContributions, len(repos))
	var mu sync.Mutex
	err = forEach(ctx, repos, opts.Concurrency, func(ctx context.Context, repo *domain.Repository) error {
		defer item.CompleteWork(1)
		contributors, err := a.fetcher.ListContributors(ctx, repo.FullName)
		if domain.IsNotFound(err) {
			log.WithError(err).Warnf("Skipping repo %s", repo.FullName)
			return nil
		}
		if err != nil {
			return err
		}

		entry := domain.NewRepoContributions(repo.Stars)
		for _, c := range contributors {
			entry.Contributors[c.Login] += c.Contributions
		}
		mu.Lock()
		result[repoKey(repo)] = entry
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// MemberContributions collects, for every org, the repositories outside the
// org that its members recently contributed to. Forks are credited to the
// repository they were forked from; forks of the org's own repositories
// count as contributions to the org and are left out.
func (a *Aggregator) MemberContributions(ctx context.Context, opts Options) (domain.ExternalContributions, error) {
	opts = opts.withDefaults()
	a.logger.Debugf("%d org(s) to process", len(opts.Orgs))

	result := make(domain.ExternalContributions, len(opts.Orgs))
	var mu sync.Mutex
	err := forEach(ctx, opts.Orgs, opts.Concurrency, func(ctx context.Context, org string) error {
		repos, err := a.memberContributionsForOrg(ctx, org, opts)
		if err != nil {
			return err
		}
		mu.Lock()
		result[org] = repos
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	a.logger.Debug("Usecase: Aggregation complete.")
	return result, nil
}

func (a *Aggregator) memberContributionsForOrg(ctx context.Context, org string, opts Options) (map[string]*domain.RepoContributions, error) {
	log := a.logger.WithField("org", org)
	log.Debug("Fetching EXTERNAL contributions")

	members, err := a.members.MembersOfOrg(ctx, org, opts.Private)
	if err != nil {
		return nil, err
	}
	log.Debugf("Found %d %s member(s); gathering events...", len(members), visibility(opts.Private))

	group := a.tracker.NewGroup(fmt.Sprintf("org %q", org))
	defer group.Finish()

	membersByRepo := make(map[string]map[string]int)
	var mu sync.Mutex
	err = forEach(ctx, members, opts.Concurrency, func(ctx context.Context, member string) error {
		tally, err := a.eventTally(ctx, group, member, org, opts.EventTypes, opts.EventPages)
		if domain.IsNotFound(err) {
			log.WithError(err).Warnf("Skipping member %s", member)
			return nil
		}
		if err != nil {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		for repo, n := range tally {
			if membersByRepo[repo] == nil {
				membersByRepo[repo] = make(map[string]int)
			}
			membersByRepo[repo][member] += n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Debugf("Member(s) contributed to %d unique repo(s) outside the org", len(membersByRepo))

	return a.attribute(ctx, group, org, membersByRepo, opts.Concurrency)
}

// eventTally counts the allowed events of a user per repository, ignoring
// repositories owned by excludeOrg.
func (a *Aggregator) eventTally(ctx context.Context, tracker progress.Tracker, user, excludeOrg string, eventTypes []string, pages int) (map[string]int, error) {
	item := tracker.NewItem(fmt.Sprintf("member %q", user), 0)
	defer item.Finish()

	events, err := a.fetcher.ListUserEvents(ctx, user, gateway.PageOptions{PerPage: EventsPerPage, MaxPages: pages}, item)
	if err != nil {
		return nil, err
	}

	allowed := make(map[string]bool, len(eventTypes))
	for _, t := range eventTypes {
		allowed[t] = true
	}
	tally := make(map[string]int)
	for _, ev := range events {
		if !allowed[ev.Type] || ev.Repo == "" || domain.OwnedBy(ev.Repo, excludeOrg) {
			continue
		}
		tally[ev.Repo]++
	}
	return tally, nil
}

// attribute resolves every repository of membersByRepo to its fork root and
// merges the counts of repositories sharing a root.
func (a *Aggregator) attribute(ctx context.Context, tracker progress.Tracker, org string, membersByRepo map[string]map[string]int, concurrency int) (map[string]*domain.RepoContributions, error) {
	log := a.logger.WithField("org", org)
	names := sortedKeys(membersByRepo)
	item := tracker.NewItem("repos", len(names))
	defer item.Finish()

	result := make(map[string]*domain.RepoContributions)
	var mu sync.Mutex
	err := forEach(ctx, names, concurrency, func(ctx context.Context, name string) error {
		defer item.CompleteWork(1)
		root, err := a.repos.SourceRepo(ctx, name)
		if err != nil {
			return err
		}
		if root == nil {
			log.Warnf("Repo %s (or the repo it was forked from) was not found; dropping it", name)
			return nil
		}
		if domain.OwnedBy(root.FullName, org) {
			log.Debugf("Skipping %s: it is a fork of %s", name, root.FullName)
			return nil
		}
		if root.FullName != name {
			log.Debugf("Crediting fork %s to %s", name, root.FullName)
		}

		mu.Lock()
		defer mu.Unlock()
		entry, ok := result[root.FullName]
		if !ok {
			entry = domain.NewRepoContributions(root.Stars)
			result[root.FullName] = entry
		}
		entry.Add(membersByRepo[name])
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func repoKey(repo *domain.Repository) string {
	if repo.Name != "" {
		return repo.Name
	}
	if _, name, ok := domain.SplitFullName(repo.FullName); ok {
		return name
	}
	return repo.FullName
}

func visibility(private bool) string {
	if private {
		return "PRIVATE and PUBLIC"
	}
	return "PUBLIC"
}
