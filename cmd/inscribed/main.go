// Package main provides inscribed, the inscription transaction planner
// daemon.
package main

import (
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"gopkg.in/yaml.v3"

	"github.com/ordforge/inscribed/internal/collaborator"
	"github.com/ordforge/inscribed/internal/config"
	"github.com/ordforge/inscribed/internal/rpc"
	"github.com/ordforge/inscribed/internal/store"
	"github.com/ordforge/inscribed/pkg/logging"
)

var (
	version = "0.1.0-dev"
	commit  = "unknown"
)

func main() {
	var (
		dataDir     = flag.String("data-dir", "~/.inscribed", "Data directory")
		configFile  = flag.String("config", "", "Config file path (default: <data-dir>/config.yaml)")
		listenAddr  = flag.String("listen", "", "JSON-RPC listen address, overrides config")
		collabURL   = flag.String("collaborator-url", "", "mempool.space-compatible API base URL, overrides config")
		testnet     = flag.Bool("testnet", false, "Run on testnet (separate network and data)")
		logLevel    = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		showVersion = flag.Bool("version", false, "Show version and exit")
	)
	flag.Parse()

	log := logging.New(&logging.Config{
		Level:      *logLevel,
		TimeFormat: time.TimeOnly,
	})
	logging.SetDefault(log)

	if *showVersion {
		log.Infof("inscribed %s (commit: %s)", version, commit)
		os.Exit(0)
	}

	effectiveDataDir := *dataDir
	if *testnet {
		effectiveDataDir = filepath.Join(*dataDir, "testnet")
	}

	var cfg *config.Config
	var err error
	if *configFile != "" {
		data, readErr := os.ReadFile(*configFile)
		if readErr != nil {
			log.Fatalf("read config file: %v", readErr)
		}
		cfg = config.DefaultConfig()
		if unmarshalErr := yaml.Unmarshal(data, cfg); unmarshalErr != nil {
			log.Fatalf("parse config file: %v", unmarshalErr)
		}
	} else {
		cfg, err = config.LoadConfig(effectiveDataDir)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
	}

	if *testnet {
		cfg.Network = config.Testnet
	}
	if *listenAddr != "" {
		cfg.RPC.ListenAddr = *listenAddr
	}
	if *collabURL != "" {
		cfg.Collaborator.BaseURL = *collabURL
	}

	idx, err := store.New(store.Config{DataDir: expandPath(cfg.Storage.DataDir)})
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer idx.Close()

	collab := collaborator.New(cfg.Collaborator.BaseURL, idx)

	network := &chaincfg.MainNetParams
	if cfg.IsTestnet() {
		network = &chaincfg.TestNet3Params
	}

	server := rpc.NewServer(collab, network, cfg.Fees)
	if err := server.Start(cfg.RPC.ListenAddr); err != nil {
		log.Fatalf("start rpc server: %v", err)
	}

	printBanner(log, cfg)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	if err := server.Stop(); err != nil {
		log.Errorf("stop rpc server: %v", err)
	}
	log.Info("goodbye")
}

func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[1:])
	}
	return path
}

func printBanner(log *logging.Logger, cfg *config.Config) {
	networkLabel := "mainnet"
	if cfg.IsTestnet() {
		networkLabel = "TESTNET"
	}

	log.Info("")
	log.Info("=================================================")
	log.Infof("  inscribed (%s)", networkLabel)
	log.Infof("  Version: %s", version)
	log.Info("=================================================")
	log.Info("")
	log.Infof("  RPC: http://%s", cfg.RPC.ListenAddr)
	log.Infof("  Collaborator: %s", cfg.Collaborator.BaseURL)
	log.Infof("  Data dir: %s", expandPath(cfg.Storage.DataDir))
	log.Info("")
	log.Info("=================================================")
	log.Info("")
}
