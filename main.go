package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"marketguard/internal/alertengine"
	"marketguard/internal/api"
	"marketguard/internal/config"
	"marketguard/internal/crawl"
	"marketguard/internal/keywordgen"
	"marketguard/internal/logger"
	"marketguard/internal/marketplace"
	"marketguard/internal/scheduler"
	"marketguard/internal/store"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var version = "dev"

// loadDotEnv loads environment variables from a local .env file so a
// double-clicked binary (without a shell) can still pick up MARKETPLACE_*
// and VAPID_* settings. Existing OS env vars are never overridden.
func loadDotEnv() {
	paths := []string{".env"}
	if exePath, err := os.Executable(); err == nil {
		if exeDir := filepath.Dir(exePath); exeDir != "" {
			paths = append(paths, filepath.Join(exeDir, ".env"))
		}
	}

	seen := make(map[string]bool)
	for _, p := range paths {
		if seen[p] {
			continue
		}
		seen[p] = true

		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		for _, line := range strings.Split(string(data), "\n") {
			l := strings.TrimSpace(line)
			if l == "" || strings.HasPrefix(l, "#") {
				continue
			}
			parts := strings.SplitN(l, "=", 2)
			if len(parts) != 2 {
				continue
			}
			key := strings.TrimSpace(parts[0])
			val := strings.TrimSpace(parts[1])
			if key != "" && os.Getenv(key) == "" {
				os.Setenv(key, val)
			}
		}
	}
}

func main() {
	loadDotEnv()

	dev := flag.Bool("dev", false, "use human-readable console logging instead of JSON")
	flag.Parse()

	log, err := logger.New(*dev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config: load failed", zap.Error(err))
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatal("store: open failed", zap.Error(err))
	}
	defer st.Close()

	marketClient := marketplace.NewClient(cfg.MarketplaceClientID, cfg.MarketplaceClientSecret, cfg.APITimeout, logger.Tagged(log, "marketplace"))
	pushSender := alertengine.NewPushSender(st, cfg, logger.Tagged(log, "push"))
	alertEngine := alertengine.NewEngine(st, pushSender, cfg, logger.Tagged(log, "alertengine"))
	coordinator := crawl.NewCoordinator(st, marketClient, alertEngine, cfg, logger.Tagged(log, "crawl"))

	sched := scheduler.New(st, coordinator, cfg, logger.Tagged(log, "scheduler"))
	retention := scheduler.NewRetention(st, cfg, logger.Tagged(log, "retention"))

	var dictCache keywordgen.DictionaryCache
	if cfg.RedisAddr != "" {
		dictCache = keywordgen.NewRedisCache(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	} else {
		dictCache = keywordgen.NewInMemoryCache()
	}
	dictionary := keywordgen.NewDictionary(dictCache, st, logger.Tagged(log, "keywordgen"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sched.Run(ctx)
	go retention.Run(ctx)

	srv := api.NewServer(st, coordinator, alertEngine, dictionary, cfg, logger.Tagged(log, "api"))
	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: srv.Router()}

	go func() {
		<-ctx.Done()
		log.Info("server: shutting down")
		sched.Stop()
		retention.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("server: shutdown error", zap.Error(err))
		}
	}()

	log.Info("server: listening", zap.String("addr", cfg.ListenAddr), zap.String("version", version))
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("server: failed", zap.Error(err))
	}
	log.Info("server: stopped")
}
