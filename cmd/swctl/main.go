// Package main is the entry point for the swctl CLI client.
package main

import (
	"github.com/donaldgifford/slot-watcher/cmd/swctl/cmd"
)

func main() {
	cmd.Execute()
}
