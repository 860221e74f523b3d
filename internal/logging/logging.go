// Package logging builds the leveled logger shared by all commands.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Levels are the accepted values of --loglevel, most verbose first.
var Levels = []string{"debug", "verbose", "info", "warn", "error"}

// ParseLevel maps a --loglevel value onto logrus. "debug" is the noisiest
// level and becomes Trace so that "verbose" can use Debug.
func ParseLevel(level string) (logrus.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.TraceLevel, nil
	case "verbose":
		return logrus.DebugLevel, nil
	case "info", "":
		return logrus.InfoLevel, nil
	case "warn":
		return logrus.WarnLevel, nil
	case "error":
		return logrus.ErrorLevel, nil
	}
	return logrus.InfoLevel, fmt.Errorf("unknown log level %q (want one of %s)", level, strings.Join(Levels, ", "))
}

// New creates a logger writing to w. When quiet is set all output is dropped.
func New(w io.Writer, level string, quiet bool) (*logrus.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(lvl)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if quiet {
		logger.SetOutput(io.Discard)
	}
	return logger, nil
}
