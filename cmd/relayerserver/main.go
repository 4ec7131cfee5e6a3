package main

import (
	"net/http"
	"os"

	log "github.com/sirupsen/logrus"
	"go.uber.org/zap"

	"union-core/cmd/relayerserver/server"
	core "union-core/core"
	"union-core/pkg/config"
	"union-core/pkg/utils"
)

// main boots the dispatch/query HTTP surface: it loads the
// engine-scoped config (pkg/config), wires a commitment store, light-client
// registry, authorizer and module registry into an Engine, seeds the
// relayer allowlist and light-client types from config, and serves the
// HTTP routes.
func main() {
	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("init zap logger: %v", err)
	}
	defer zapLogger.Sync()
	zap.ReplaceGlobals(zapLogger)

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.WithError(err).Warn("no config file found, using built-in defaults")
		cfg = &config.Config{}
	}

	store := core.NewStore()
	registry := core.NewRegistry()
	for _, clientType := range cfg.LightClients.Types {
		registry.RegisterClientType(clientType, core.NewMerkleLightClient())
	}
	if len(cfg.LightClients.Types) == 0 {
		registry.RegisterClientType("mock-merkle", core.NewMerkleLightClient())
	}

	var admin *core.Address
	if cfg.Relayers.Admin != "" {
		a, err := core.ParseAddress(cfg.Relayers.Admin)
		if err != nil {
			log.WithError(err).Fatal("invalid admin address in config")
		}
		admin = &a
	}
	initial := make([]core.Address, 0, len(cfg.Relayers.Allowlist))
	for _, raw := range cfg.Relayers.Allowlist {
		a, err := core.ParseAddress(raw)
		if err != nil {
			log.WithError(err).Fatalf("invalid relayer address %q in config", raw)
		}
		initial = append(initial, a)
	}
	authorizer := core.NewAuthorizer(initial, admin)

	engine := core.NewEngine(registry, authorizer, core.NewModuleRegistry())
	queries := core.NewQueries(store, registry)

	addr := utils.EnvOrDefault("UNION_API_ADDR", cfg.Network.ListenAddr)
	if addr == "" {
		addr = ":8082"
	}

	router := server.NewRouter(engine, store, queries)
	log.WithField("addr", addr).Info("union-core relayer server listening")
	if err := http.ListenAndServe(addr, router); err != nil {
		log.WithError(err).Fatal("server exited")
		os.Exit(1)
	}
}
