// Package main provides sync, a thin shim that periodically refreshes the
// local index's cardinal UTXO view for a set of tracked addresses (§6).
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/btcsuite/btcd/chaincfg"

	"github.com/ordforge/inscribed/internal/collaborator"
	"github.com/ordforge/inscribed/internal/planner"
	"github.com/ordforge/inscribed/internal/store"
	"github.com/ordforge/inscribed/pkg/logging"
)

func main() {
	var (
		dataDir     = flag.String("data-dir", "~/.inscribed", "Data directory")
		collabURL   = flag.String("collaborator-url", "https://mempool.space/api", "mempool.space-compatible API base URL")
		addresses   = flag.String("addresses", "", "Comma-separated addresses to track")
		interval    = flag.Duration("interval", 30*time.Second, "Sleep interval between sync passes")
		testnet     = flag.Bool("testnet", false, "Parse addresses as testnet")
	)
	flag.Parse()

	log := logging.New(logging.DefaultConfig())
	logging.SetDefault(log)

	addrList := strings.Split(*addresses, ",")
	if *addresses == "" || len(addrList) == 0 {
		log.Error("--addresses is required")
		os.Exit(1)
	}

	network := &chaincfg.MainNetParams
	if *testnet {
		network = &chaincfg.TestNet3Params
	}

	parsed := make([]planner.Address, 0, len(addrList))
	for _, a := range addrList {
		addr, err := planner.ParseAddress(strings.TrimSpace(a), network)
		if err != nil {
			log.Errorf("parse address %q: %v", a, err)
			os.Exit(1)
		}
		parsed = append(parsed, addr)
	}

	idx, err := store.New(store.Config{DataDir: *dataDir})
	if err != nil {
		log.Errorf("open store: %v", err)
		os.Exit(1)
	}
	defer idx.Close()

	view := collaborator.New(*collabURL, idx)

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	for {
		for _, addr := range parsed {
			if err := view.SyncAddress(ctx, addr); err != nil {
				log.Errorf("sync %s: %v", addr.Encoded, err)
			}
		}
		select {
		case <-ctx.Done():
			log.Info("sync stopped")
			return
		case <-time.After(*interval):
		}
	}
}
