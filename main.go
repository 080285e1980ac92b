// Package main is the entry point for the librarian CLI.
package main

import "github.com/samcaf/librarian/cmd"

// Build information injected via ldflags at build time.
var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	cmd.SetBuildInfo(version, commit, date)
	cmd.Execute()
}
