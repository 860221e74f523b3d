package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/github-orgstats/internal/domain"
	"github.com/naka-gawa/github-orgstats/internal/report"
	"github.com/naka-gawa/github-orgstats/internal/usecase"
)

var contribCmd = &cobra.Command{
	Use:   "contrib <org>...",
	Short: "Aggregates contributors of organizations and outputs as JSON",
	Long: `Lists the contributors of every non-fork repository of the given organizations.

With --external, lists instead the repositories outside each organization that
its members recently pushed to or opened pull requests against. Forks are
credited to the repository they were forked from.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runContrib,
}

func init() {
	rootCmd.AddCommand(contribCmd)
	flags := contribCmd.Flags()
	flags.BoolP("external", "e", false, "Report contributions of members to repositories outside the org")
	flags.Bool("private", false, "Include private repositories and concealed members")
	flags.StringSlice("event-type", domain.DefaultEventTypes, "Event types counted as contributions (repeatable)")
	flags.Int("concurrency", usecase.DefaultConcurrency, "Maximum concurrent requests per fan-out")
	flags.Int("event-pages", usecase.DefaultEventPages, "Maximum pages of events read per member")
	flags.String("format", "json", "Output format: json or table")
	flags.Bool("summary", false, "Print per-org summary statistics")
}

func runContrib(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	external, _ := flags.GetBool("external")
	private, _ := flags.GetBool("private")
	eventTypes, _ := flags.GetStringSlice("event-type")
	concurrency, _ := flags.GetInt("concurrency")
	eventPages, _ := flags.GetInt("event-pages")
	format, _ := flags.GetString("format")
	summary, _ := flags.GetBool("summary")
	if format != "json" && format != "table" {
		return fmt.Errorf("unknown format %q (want json or table)", format)
	}

	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	aggregator := usecase.NewAggregator(rt.fetcher, rt.tracker, rt.logger)
	opts := usecase.Options{
		Orgs:        args,
		Private:     private,
		EventTypes:  eventTypes,
		Concurrency: concurrency,
		EventPages:  eventPages,
	}

	var results map[string]map[string]*domain.RepoContributions
	if external {
		results, err = aggregator.MemberContributions(cmd.Context(), opts)
	} else {
		results, err = aggregator.ContributorsInOrgs(cmd.Context(), opts)
	}
	if err != nil {
		return fmt.Errorf("failed to aggregate stats: %w", err)
	}

	if format == "table" {
		report.WriteContributions(rt.stdout, results)
	} else if err := report.WriteJSON(rt.stdout, results, rt.pretty); err != nil {
		return err
	}

	if !summary {
		return nil
	}
	summaries, err := report.Summarize(results)
	if err != nil {
		return err
	}
	// Keep stdout parseable in JSON mode.
	if format == "json" {
		report.WriteSummary(cmd.ErrOrStderr(), summaries)
		return nil
	}
	report.WriteSummary(rt.stdout, summaries)
	return nil
}
