package main

import "fmt"

// Set via -ldflags at build time.
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

func versionInfo() string {
	return fmt.Sprintf("%s (%s)", Version, GitCommit)
}
