package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/infodungeon/keyforge/internal/hive"
	"github.com/infodungeon/keyforge/internal/logging"
	"github.com/infodungeon/keyforge/internal/node"
)

// hiveSecretEnvVar is spec §6's HIVE_SECRET shared auth token.
const hiveSecretEnvVar = "HIVE_SECRET"

// ServeHive runs a Hive coordinator HTTP server until interrupted.
func ServeHive(args []string, log logging.ILogger) int {
	fs := flag.NewFlagSet("hive", flag.ContinueOnError)
	addr := fs.String("addr", ":8420", "HTTP listen address")
	dataDir := fs.String("data-dir", defaultDataDir, "data directory (overridden by KEYFORGE_DATA_DIR)")
	dbPath := fs.String("db", "hive.db", "SQLite database path")
	secret := fs.String("secret", "", "shared auth token (overridden by HIVE_SECRET)")
	if err := fs.Parse(args); err != nil {
		return ExitUserInput
	}

	cfg := hive.DefaultConfig()
	cfg.DataDir = resolveDataDir(*dataDir)
	cfg.DBPath = *dbPath
	cfg.Secret = resolveSecret(*secret)

	h, err := hive.New(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hive: %v\n", err)
		return ExitConfiguration
	}

	srv := hive.NewServer(h, *addr, log)
	if err := srv.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "hive: %v\n", err)
		return ExitNetwork
	}
	log.InfoKV("hive running", "addr", *addr, "data_dir", cfg.DataDir)

	waitForShutdown()
	if err := srv.Stop(); err != nil {
		log.WarnKV("hive shutdown error", "error", err)
	}
	return ExitSuccess
}

// ServeNode runs a Node worker loop against a Hive until interrupted.
func ServeNode(args []string, log logging.ILogger) int {
	fs := flag.NewFlagSet("node", flag.ContinueOnError)
	hiveAddr := fs.String("hive", "http://127.0.0.1:8420", "Hive base URL")
	dataDir := fs.String("data-dir", "node-data", "local mirror of the Hive's data directory")
	cacheDir := fs.String("cache-dir", "node-cache", "local Badger cache directory")
	secret := fs.String("secret", "", "shared auth token (overridden by HIVE_SECRET)")
	nodeID := fs.String("node-id", "", "stable node identifier (overridden by KEYFORGE_NODE_ID)")
	if err := fs.Parse(args); err != nil {
		return ExitUserInput
	}

	cfg := node.DefaultConfig()
	cfg.HiveAddr = *hiveAddr
	cfg.DataDir = resolveDataDir(*dataDir)
	cfg.CacheDir = *cacheDir
	cfg.Secret = resolveSecret(*secret)

	// internal/node.resolveNodeID already gives KEYFORGE_NODE_ID priority
	// over its persisted uuid; --node-id just sets the same env var so a
	// flag-supplied override reaches it without node.Config needing its
	// own NodeID field for what is already an env-var contract (spec §6).
	if *nodeID != "" {
		if err := os.Setenv(nodeIDEnvVarMirror, *nodeID); err != nil {
			fmt.Fprintf(os.Stderr, "node: set KEYFORGE_NODE_ID: %v\n", err)
			return ExitConfiguration
		}
	}

	n, err := node.New(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "node: %v\n", err)
		return ExitConfiguration
	}
	defer n.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := n.Run(ctx); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "node: %v\n", err)
		return ExitInternal
	}
	return ExitSuccess
}

// nodeIDEnvVarMirror matches internal/node's private nodeIDEnvVar; kept as
// its own literal here since internal/node intentionally doesn't export
// its env var name (resolveNodeID is the only entry point a caller needs).
const nodeIDEnvVarMirror = "KEYFORGE_NODE_ID"

func resolveSecret(flagValue string) string {
	if v := os.Getenv(hiveSecretEnvVar); v != "" {
		return v
	}
	return flagValue
}

func waitForShutdown() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	<-ctx.Done()
	time.Sleep(100 * time.Millisecond)
}
