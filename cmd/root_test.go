package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommands_RejectBadInput(t *testing.T) {
	testCases := []struct {
		name        string
		args        []string
		expectedErr string
	}{
		{
			name:        "contrib needs an org",
			args:        []string{"contrib"},
			expectedErr: "requires at least 1 arg(s), only received 0",
		},
		{
			name:        "contrib with unknown format",
			args:        []string{"contrib", "--format", "xml", "quux"},
			expectedErr: `unknown format "xml" (want json or table)`,
		},
		{
			name:        "helped with unknown format",
			args:        []string{"helped", "--format", "csv", "quux"},
			expectedErr: `unknown format "csv" (want json or table)`,
		},
		{
			name:        "unknown log level",
			args:        []string{"contrib", "--format", "json", "--loglevel", "loud", "quux"},
			expectedErr: `unknown log level "loud" (want one of debug, verbose, info, warn, error)`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			rootCmd.SetOut(&out)
			rootCmd.SetErr(&out)
			rootCmd.SetArgs(tc.args)

			err := rootCmd.Execute()

			assert.EqualError(t, err, tc.expectedErr)
			assert.Empty(t, out.String())
		})
	}
}
