package main

import (
	"os"

	"github.com/nerdneilsfield/mathguard/internal/cli"
)

// Version information
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	rootCmd := cli.NewRootCommand(Version, Commit, BuildDate)

	// cobra 已经把错误打印到标准错误
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
