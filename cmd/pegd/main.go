package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"pegcore/config"
	"pegcore/core/events"
	"pegcore/core/types"
	"pegcore/crypto"
	"pegcore/gateway"
	"pegcore/native/stable"
	"pegcore/observability"
	"pegcore/observability/logging"
	"pegcore/storage"
)

// logEmitter forwards engine audit events to the structured logger.
type logEmitter struct {
	logger *slog.Logger
}

func (l logEmitter) Emit(ev events.Event) {
	attrs := []any{"event", ev.EventType()}
	if typed, ok := ev.(interface{ Event() *types.Event }); ok {
		for key, value := range typed.Event().Attributes {
			attrs = append(attrs, key, value)
		}
	}
	l.logger.Info("engine event", attrs...)
}

func main() {
	var cfgPath string
	var keyPath string
	flag.StringVar(&cfgPath, "config", "pegd.toml", "path to pegd config")
	flag.StringVar(&keyPath, "keygen", "", "load or create the operator key at this path, print its address and exit")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("PEGD_ENV"))
	logger := logging.Setup("pegd", env)

	if keyPath != "" {
		key, err := crypto.LoadOrCreateKey(keyPath)
		if err != nil {
			log.Fatalf("operator key: %v", err)
		}
		fmt.Println(key.PubKey().Address().String())
		return
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	engineAddr, err := crypto.DecodeAddress(cfg.EngineAddress)
	if err != nil {
		log.Fatalf("decode engine address: %v", err)
	}
	vaultAddr, err := crypto.DecodeAddress(cfg.VaultAddress)
	if err != nil {
		log.Fatalf("decode vault address: %v", err)
	}

	assets := make([]string, 0, len(cfg.Assets))
	feeds := make([]stable.PriceFeed, 0, len(cfg.Assets))
	for _, asset := range cfg.Assets {
		assets = append(assets, strings.TrimSpace(asset.Symbol))
		if url := strings.TrimSpace(asset.FeedURL); url != "" {
			feeds = append(feeds, stable.NewHTTPFeed(url, nil))
			continue
		}
		price, ok := new(big.Int).SetString(strings.TrimSpace(asset.StaticPrice), 10)
		if !ok {
			log.Fatalf("invalid static price for %s", asset.Symbol)
		}
		feeds = append(feeds, stable.NewStaticFeed(price, time.Now()))
	}

	engine, err := stable.NewEngine(engineAddr, vaultAddr, assets, feeds, time.Duration(cfg.MaxPriceAgeSeconds)*time.Second)
	if err != nil {
		log.Fatalf("construct engine: %v", err)
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		log.Fatalf("open database at %s: %v", cfg.DataDir, err)
	}
	defer db.Close()

	engine.SetState(stable.NewStoreState(db))
	engine.SetEmitter(logEmitter{logger: logger})
	engine.SetMetrics(observability.Stable())

	server := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           gateway.New(engine, logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("gateway listening", "address", cfg.ListenAddress)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve gateway: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown gateway", "error", err)
	}
	logger.Info("pegd stopped")
}
