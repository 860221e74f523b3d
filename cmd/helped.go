package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/github-orgstats/internal/domain"
	"github.com/naka-gawa/github-orgstats/internal/report"
	"github.com/naka-gawa/github-orgstats/internal/usecase"
)

var helpedCmd = &cobra.Command{
	Use:   "helped <org>...",
	Short: "Finds outside users the organizations helped",
	Long: `Finds the authors of closed issues with enough discussion in the public
repositories of the given organizations, skipping the organizations' own
members, and lists the most starred repositories each of them recently
contributed to.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runHelped,
}

func init() {
	rootCmd.AddCommand(helpedCmd)
	flags := helpedCmd.Flags()
	flags.Int("limit", usecase.DefaultHelpedLimit, "Maximum repositories listed per user")
	flags.Int("min-comments", usecase.DefaultMinimumComments, "Minimum comments on a closed issue")
	flags.StringSlice("event-type", domain.DefaultEventTypes, "Event types counted as contributions (repeatable)")
	flags.Int("concurrency", usecase.DefaultConcurrency, "Maximum concurrent requests per fan-out")
	flags.Int("event-pages", usecase.DefaultEventPages, "Maximum pages of events read per user")
	flags.String("format", "json", "Output format: json or table")
}

func runHelped(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	limit, _ := flags.GetInt("limit")
	minComments, _ := flags.GetInt("min-comments")
	eventTypes, _ := flags.GetStringSlice("event-type")
	concurrency, _ := flags.GetInt("concurrency")
	eventPages, _ := flags.GetInt("event-pages")
	format, _ := flags.GetString("format")
	if format != "json" && format != "table" {
		return fmt.Errorf("unknown format %q (want json or table)", format)
	}

	if minComments == 0 {
		// Zero selects the default in HelpedOptions.
		minComments = -1
	}

	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	finder := usecase.NewHelpedFinder(usecase.NewAggregator(rt.fetcher, rt.tracker, rt.logger))
	results, err := finder.UsersHelped(cmd.Context(), usecase.HelpedOptions{
		Orgs:            args,
		Limit:           limit,
		MinimumComments: minComments,
		EventTypes:      eventTypes,
		Concurrency:     concurrency,
		EventPages:      eventPages,
	})
	if err != nil {
		return fmt.Errorf("failed to find helped users: %w", err)
	}

	if format == "table" {
		report.WriteHelped(rt.stdout, results)
		return nil
	}
	return report.WriteJSON(rt.stdout, results, rt.pretty)
}
