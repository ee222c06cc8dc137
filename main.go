package main

import (
	"fmt"
	"os"

	"storyblocks/internal/cli"
)

// Version is set during build with -ldflags
var version = "dev"

func main() {
	if err := cli.NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
