package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/naka-gawa/github-orgstats/internal/domain"
	"github.com/naka-gawa/github-orgstats/internal/progress"
)

const (
	// DefaultHelpedLimit is the number of repositories reported per user.
	DefaultHelpedLimit = 10
	// DefaultMinimumComments is the number of comments an issue needs to
	// count as help given by the org.
	DefaultMinimumComments = 2
)

// HelpedOptions selects what HelpedFinder collects.
type HelpedOptions struct {
	Orgs  []string
	Limit int
	// MinimumComments is the comment count a closed issue needs. Zero
	// selects DefaultMinimumComments; a negative value counts every issue.
	MinimumComments int
	EventTypes      []string
	Concurrency     int
	EventPages      int
}

func (o HelpedOptions) withDefaults() HelpedOptions {
	if o.Limit < 1 {
		o.Limit = DefaultHelpedLimit
	}
	if o.MinimumComments == 0 {
		o.MinimumComments = DefaultMinimumComments
	}
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

// HelpedFinder finds users outside an org whose issues the org closed after
// some discussion, together with what those users contribute to elsewhere.
type HelpedFinder struct {
	agg *Aggregator
}

// NewHelpedFinder creates a HelpedFinder sharing the caches of agg.
func NewHelpedFinder(agg *Aggregator) *HelpedFinder {
	return &HelpedFinder{agg: agg}
}

// UsersHelped processes the orgs one after another. A user is reported once
// per run, for the first org that helped them.
func (f *HelpedFinder) UsersHelped(ctx context.Context, opts HelpedOptions) (domain.HelpedUsers, error) {
	opts = opts.withDefaults()
	result := make(domain.HelpedUsers)
	processed := make(map[string]bool)

	for _, org := range opts.Orgs {
		users, err := f.helpedUsers(ctx, org, opts, processed)
		if err != nil {
			return nil, err
		}
		if err := f.collect(ctx, org, users, opts, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// helpedUsers returns the authors of qualifying closed issues of org that
// are neither members nor already processed.
func (f *HelpedFinder) helpedUsers(ctx context.Context, org string, opts HelpedOptions, processed map[string]bool) ([]string, error) {
	log := f.agg.logger.WithField("org", org)
	repos, err := f.agg.repos.ReposForOrg(ctx, org, false, true)
	if err != nil {
		return nil, err
	}
	log.Debugf("Looking for closed issues with at least %d comment(s) in %d repo(s)", opts.MinimumComments, len(repos))

	item := f.agg.tracker.NewItem(fmt.Sprintf("org %q issues", org), len(repos))
	defer item.Finish()

	var users []string
	for _, repo := range repos {
		issues, err := f.agg.fetcher.ListClosedIssues(ctx, repo.FullName)
		item.CompleteWork(1)
		if domain.IsNotFound(err) {
			log.WithError(err).Warnf("Skipping repo %s", repo.FullName)
			continue
		}
		if err != nil {
			return nil, err
		}

		for _, issue := range issues {
			if issue.Author == "" || issue.Comments < opts.MinimumComments {
				continue
			}
			key := strings.ToLower(issue.Author)
			if processed[key] {
				continue
			}
			if f.agg.members.IsMember(ctx, org, issue.Author) {
				continue
			}
			processed[key] = true
			users = append(users, issue.Author)
		}
	}
	log.Debugf("Found %d helped non-member(s)", len(users))
	return users, nil
}

func (f *HelpedFinder) collect(ctx context.Context, org string, users []string, opts HelpedOptions, result domain.HelpedUsers) error {
	group := f.agg.tracker.NewGroup(fmt.Sprintf("org %q users", org))
	defer group.Finish()

	var mu sync.Mutex
	return forEach(ctx, users, opts.Concurrency, func(ctx context.Context, user string) error {
		repos, err := f.RecentContributions(ctx, group, user, org, opts)
		if domain.IsNotFound(err) {
			f.agg.logger.WithError(err).Warnf("Skipping user %s", user)
			return nil
		}
		if err != nil {
			return err
		}
		mu.Lock()
		result[user] = repos
		mu.Unlock()
		return nil
	})
}

// RecentContributions lists the repositories a user recently contributed to
// outside excludeOrg, forks credited to their root, most starred first and
// at most opts.Limit of them.
func (f *HelpedFinder) RecentContributions(ctx context.Context, tracker progress.Tracker, user, excludeOrg string, opts HelpedOptions) ([]domain.HelpedRepo, error) {
	opts = opts.withDefaults()
	tally, err := f.agg.eventTally(ctx, tracker, user, excludeOrg, opts.EventTypes, opts.EventPages)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	repos := make([]domain.HelpedRepo, 0, len(tally))
	for _, name := range sortedKeys(tally) {
		root, err := f.agg.repos.SourceRepo(ctx, name)
		if err != nil {
			return nil, err
		}
		if root == nil {
			f.agg.logger.Warnf("Repo %s (or the repo it was forked from) was not found; dropping it", name)
			continue
		}
		key := strings.ToLower(root.FullName)
		if seen[key] || domain.OwnedBy(root.FullName, excludeOrg) {
			continue
		}
		seen[key] = true
		repos = append(repos, domain.HelpedRepo{Name: root.FullName, Stars: root.Stars})
	}

	sort.SliceStable(repos, func(i, j int) bool {
		if repos[i].Stars != repos[j].Stars {
			return repos[i].Stars > repos[j].Stars
		}
		return repos[i].Name < repos[j].Name
	})
	if len(repos) > opts.Limit {
		repos = repos[:opts.Limit]
	}
	return repos, nil
}
