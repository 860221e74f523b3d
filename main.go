// github-orgstats computes contribution statistics of GitHub organizations.
//
// Usage:
//
//	github-orgstats contrib myorg
//	github-orgstats contrib --external --event-pages 3 myorg otherorg
//	github-orgstats helped --limit 5 myorg
package main

import (
	"github.com/naka-gawa/github-orgstats/cmd"
)

// Version can be overridden at build time with -ldflags="-X main.Version=v1.0.0".
var Version = "dev"

func main() {
	cmd.Version = Version
	cmd.Execute()
}
