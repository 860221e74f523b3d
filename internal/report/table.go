package report

import (
	"io"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/naka-gawa/github-orgstats/internal/domain"
)

// WriteContributions renders one row per (org, repository, contributor),
// repositories by name and contributors by count, highest first.
func WriteContributions(w io.Writer, result map[string]map[string]*domain.RepoContributions) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Org", "Repository", "Stars", "Contributor", "Contributions"})
	for _, org := range sortedKeys(result) {
		repos := result[org]
		for _, name := range sortedKeys(repos) {
			entry := repos[name]
			for _, c := range rankContributors(entry.Contributors) {
				table.Append([]string{org, name, strconv.Itoa(entry.Stars), c.Login, strconv.Itoa(c.Contributions)})
			}
		}
	}
	table.Render()
}

// WriteHelped renders one row per (user, repository) in the order the
// repositories were ranked.
func WriteHelped(w io.Writer, result domain.HelpedUsers) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"User", "Repository", "Stars"})
	for _, user := range sortedKeys(result) {
		repos := result[user]
		if len(repos) == 0 {
			table.Append([]string{user, "-", "-"})
			continue
		}
		for _, repo := range repos {
			table.Append([]string{user, repo.Name, strconv.Itoa(repo.Stars)})
		}
	}
	table.Render()
}

func rankContributors(counts map[string]int) []domain.Contributor {
	ranked := make([]domain.Contributor, 0, len(counts))
	for login, n := range counts {
		ranked = append(ranked, domain.Contributor{Login: login, Contributions: n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Contributions != ranked[j].Contributions {
			return ranked[i].Contributions > ranked[j].Contributions
		}
		return ranked[i].Login < ranked[j].Login
	})
	return ranked
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
