package main

import (
	"os"

	"union-core/cmd/cli"
)

// main is the thin entrypoint cobra recommends: all command wiring lives in
// cmd/cli's init() functions, keeping main split from the root command and
// its subsystem command groups.
func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
