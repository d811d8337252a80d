// main is the entry point for the mergespot CLI.
package main

import (
	"github.com/huangsam/mergespot/cmd"
	"github.com/huangsam/mergespot/internal/contract"
	"github.com/huangsam/mergespot/internal/iocache"
)

func main() {
	cmd.SetCacheManager(iocache.Manager)

	err := cmd.Execute()
	if stopErr := cmd.StopProfiling(); stopErr != nil {
		contract.LogWarn("Failed to stop profiling", stopErr)
	}
	iocache.CloseCaching()

	if err != nil {
		contract.LogFatal("Command failed", err)
	}
}
