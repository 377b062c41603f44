// Command exchange boots one betting exchange process: it loads
// configuration, wires up structured logging, opens the embedded durable
// store, and starts the supervisor actor, stopping it cleanly (snapshotting
// state) on SIGINT/SIGTERM. There is no HTTP/RPC/CLI surface here — a caller
// embeds internal/exchange directly; this binary exists to prove the wiring
// boots and shuts down cleanly end to end.
package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Chaman-veteran/betunfair/internal/config"
	"github.com/Chaman-veteran/betunfair/internal/exchange"
	"github.com/Chaman-veteran/betunfair/internal/logging"
	"github.com/Chaman-veteran/betunfair/internal/metrics"
	"github.com/Chaman-veteran/betunfair/internal/persist"
)

func main() {
	cfg := config.MustLoad()
	log := logging.New(cfg.LogLevel)
	bootID := uuid.NewString()
	log.Infof("main: boot id %s", bootID)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("main: create data dir %s: %v", cfg.DataDir, err)
	}
	dbPath := filepath.Join(cfg.DataDir, cfg.ExchangeName+".db")
	raw, err := persist.OpenBoltStore(dbPath)
	if err != nil {
		log.Fatalf("main: open store: %v", err)
	}
	defer raw.Close()
	store := persist.NewCachedStore(raw, 30*time.Second)

	reg := prometheus.NewRegistry()
	coll := metrics.NewCollector("betunfair")
	coll.Register(reg)

	sup := exchange.New(store, log, coll)
	go sup.Run()

	if err := sup.Start(cfg.ExchangeName); err != nil {
		log.Fatalf("main: start exchange %s: %v", cfg.ExchangeName, err)
	}
	log.Infof("main: exchange %s running, data dir %s", cfg.ExchangeName, cfg.DataDir)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Infof("main: shutting down exchange %s", cfg.ExchangeName)
	if err := sup.Stop(); err != nil {
		log.Errorf("main: stop: %v", err)
	}
}
