// Package main provides reorg, a thin shim that invalidates index state
// from a chain reorg down to a target height (§6).
package main

import (
	"context"
	"flag"
	"os"

	"github.com/ordforge/inscribed/internal/store"
	"github.com/ordforge/inscribed/pkg/logging"
)

func main() {
	var (
		dataDir      = flag.String("data-dir", "~/.inscribed", "Data directory")
		targetHeight = flag.Int64("target-height", -1, "Height to reorg down to (required)")
	)
	flag.Parse()

	log := logging.New(logging.DefaultConfig())
	logging.SetDefault(log)

	if *targetHeight < 0 {
		log.Error("target-height is required")
		os.Exit(1)
	}

	idx, err := store.New(store.Config{DataDir: *dataDir})
	if err != nil {
		log.Errorf("open store: %v", err)
		os.Exit(1)
	}
	defer idx.Close()

	if err := idx.ReorgHeight(context.Background(), *targetHeight); err != nil {
		log.Errorf("reorg to height %d: %v", *targetHeight, err)
		os.Exit(1)
	}

	log.Infof("reorged index to height %d", *targetHeight)
}
