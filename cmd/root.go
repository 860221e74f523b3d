// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/naka-gawa/github-orgstats/internal/config"
	"github.com/naka-gawa/github-orgstats/internal/gateway"
	"github.com/naka-gawa/github-orgstats/internal/logging"
	"github.com/naka-gawa/github-orgstats/internal/progress"
)

// Version is set by main.
var Version = "dev"

const userAgent = "github-orgstats"

var rootCmd = &cobra.Command{
	Use:   "github-orgstats",
	Short: "A CLI tool to compute contribution statistics of GitHub organizations.",
	Long: `github-orgstats reports who contributes to the repositories of one or more
GitHub organizations, where the members of those organizations contribute
outside of them, and which outside users the organizations helped.

Credentials are read from the environment or a .env file:
GITHUB_OAUTH_TOKEN (or GITHUB_TOKEN), GITHUB_CLIENT_ID and GITHUB_CLIENT_SECRET,
or GITHUB_USERNAME and GITHUB_PASSWORD.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.Version = Version
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("loglevel", "info", "Log level: debug, verbose, info, warn or error")
	flags.BoolP("quiet", "q", false, "Suppress all log and progress output")
	flags.Bool("progress", term.IsTerminal(int(os.Stderr.Fd())), "Show progress bars on stderr")
	flags.Bool("pretty", false, "Indent JSON output")
	flags.String("host", "", "GitHub API host (overrides GITHUB_HOST)")
}

// session is what every subcommand needs to talk to GitHub.
type session struct {
	logger  logrus.FieldLogger
	fetcher gateway.Fetcher
	tracker progress.Tracker
	pretty  bool
	stdout  io.Writer
}

// setup loads the configuration and wires the logger, gateway and progress
// tracker from the global flags.
func setup(cmd *cobra.Command) (*session, error) {
	flags := cmd.Flags()
	level, _ := flags.GetString("loglevel")
	quiet, _ := flags.GetBool("quiet")
	showProgress, _ := flags.GetBool("progress")
	pretty, _ := flags.GetBool("pretty")
	host, _ := flags.GetString("host")

	base, err := logging.New(cmd.ErrOrStderr(), level, quiet)
	if err != nil {
		return nil, err
	}
	logger := base.WithField("run", uuid.NewString())

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if host != "" {
		cfg.Host = host
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	mode := cfg.AuthMode()
	if mode == config.AuthNone {
		logger.Warn("No GitHub credentials found; unauthenticated requests are heavily rate limited")
	} else {
		logger.Debugf("Authenticating with %s", mode)
	}
	username, password := cfg.BasicCredentials()
	gw, err := gateway.NewGitHubGateway(gateway.Options{
		Host:      cfg.Host,
		Timeout:   cfg.Timeout,
		UserAgent: userAgent,
		Token:     cfg.Token,
		Username:  username,
		Password:  password,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub gateway: %w", err)
	}

	var tracker progress.Tracker = progress.Noop{}
	if showProgress && !quiet {
		tracker = progress.NewTerminal(cmd.ErrOrStderr())
	}

	return &session{
		logger:  logger,
		fetcher: gw,
		tracker: tracker,
		pretty:  pretty,
		stdout:  cmd.OutOrStdout(),
	}, nil
}
