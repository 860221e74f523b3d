package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/montanaflynn/stats"
	"github.com/olekukonko/tablewriter"

	"github.com/naka-gawa/github-orgstats/internal/domain"
)

// Summary describes the spread of contributions per contributor in one org.
type Summary struct {
	Org           string  `json:"org"`
	Repos         int     `json:"repos"`
	Contributors  int     `json:"contributors"`
	Contributions int     `json:"contributions"`
	Mean          float64 `json:"mean"`
	Median        float64 `json:"median"`
	P90           float64 `json:"p90"`
}

// Summarize computes a Summary per org, ordered by org. Contributions of a
// login are summed over all repositories of the org first.
func Summarize(result map[string]map[string]*domain.RepoContributions) ([]Summary, error) {
	summaries := make([]Summary, 0, len(result))
	for _, org := range sortedKeys(result) {
		repos := result[org]
		perLogin := make(map[string]int)
		for _, entry := range repos {
			for login, n := range entry.Contributors {
				perLogin[login] += n
			}
		}

		s := Summary{Org: org, Repos: len(repos), Contributors: len(perLogin)}
		if len(perLogin) == 0 {
			summaries = append(summaries, s)
			continue
		}

		counts := make([]int, 0, len(perLogin))
		for _, n := range perLogin {
			counts = append(counts, n)
			s.Contributions += n
		}
		data := stats.LoadRawData(counts)

		var err error
		if s.Mean, err = stats.Mean(data); err != nil {
			return nil, fmt.Errorf("failed to compute mean for org %s: %w", org, err)
		}
		if s.Median, err = stats.Median(data); err != nil {
			return nil, fmt.Errorf("failed to compute median for org %s: %w", org, err)
		}
		if s.P90, err = stats.Percentile(data, 90); err != nil {
			// Too few samples for a 90th percentile; the maximum stands in.
			if s.P90, err = stats.Max(data); err != nil {
				return nil, fmt.Errorf("failed to compute p90 for org %s: %w", org, err)
			}
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// WriteSummary renders summaries as a table.
func WriteSummary(w io.Writer, summaries []Summary) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Org", "Repos", "Contributors", "Contributions", "Mean", "Median", "P90"})
	for _, s := range summaries {
		table.Append([]string{
			s.Org,
			strconv.Itoa(s.Repos),
			strconv.Itoa(s.Contributors),
			strconv.Itoa(s.Contributions),
			strconv.FormatFloat(s.Mean, 'f', 1, 64),
			strconv.FormatFloat(s.Median, 'f', 1, 64),
			strconv.FormatFloat(s.P90, 'f', 1, 64),
		})
	}
	table.Render()
}
