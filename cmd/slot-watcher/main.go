// Package main is the entry point for slot-watcher.
package main

import (
	"os"

	"github.com/donaldgifford/slot-watcher/cmd/slot-watcher/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
