package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ZaguanLabs/webproxy"
	"github.com/ZaguanLabs/webproxy/cache"
	"github.com/ZaguanLabs/webproxy/hostconfig"
	"github.com/ZaguanLabs/webproxy/provider"
	"github.com/ZaguanLabs/webproxy/proxy"
)

func main() {
	var (
		listenAddr  = flag.String("listen", ":8080", "listen address")
		hostsFile   = flag.String("hosts", "", "YAML host configuration file")
		postgresDSN = flag.String("postgres", "", "Postgres DSN for host configuration (overrides -hosts)")
		redisURL    = flag.String("redis", "", "redis URL for the translation cache")
		boltPath    = flag.String("bolt", "", "bbolt file for the translation cache (when redis is not used)")
		cacheTTL    = flag.Duration("cache-ttl", 30*24*time.Hour, "translation cache entry TTL")
		resolveTTL  = flag.Duration("resolve-ttl", hostconfig.DefaultResolveTTL, "host configuration cache TTL")
		openaiKey   = flag.String("openai-key", "", "OpenAI API key (defaults to OPENAI_API_KEY)")
		openaiModel = flag.String("openai-model", "", "OpenAI model")
		providerRPM = flag.Int("provider-rpm", 60, "translation provider requests per minute")
		originRPS   = flag.Float64("origin-rps", 0, "origin fetch rate limit, requests per second (0 = unlimited)")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s (%s, built %s)\n", webproxy.Name, webproxy.Version, webproxy.GitCommit, webproxy.BuildDate)
		return
	}

	// Missing .env is fine; flags and real env vars still apply.
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resolver, cleanupResolver, err := buildResolver(ctx, *postgresDSN, *hostsFile, *resolveTTL, logger)
	if err != nil {
		logger.Fatal("host configuration", zap.Error(err))
	}
	defer cleanupResolver()

	store, cleanupStore, err := buildStore(*redisURL, *boltPath, *cacheTTL)
	if err != nil {
		logger.Fatal("cache store", zap.Error(err))
	}
	defer cleanupStore()

	key := *openaiKey
	if key == "" {
		key = os.Getenv("OPENAI_API_KEY")
	}
	if key == "" {
		logger.Fatal("no OpenAI API key: set -openai-key or OPENAI_API_KEY")
	}

	var backend provider.Provider = provider.NewOpenAIProvider(provider.OpenAIConfig{
		APIKey: key,
		Model:  *openaiModel,
	})
	backend = webproxy.NewRetryableProvider(backend, webproxy.DefaultRetryConfig())
	backend = webproxy.NewRateLimitedProvider(backend, webproxy.RateLimitConfig{RequestsPerMinute: *providerRPM})

	server, err := proxy.NewServer(proxy.Config{
		Resolver:   resolver,
		Fetcher:    proxy.NewFetcher(proxy.FetcherConfig{RequestsPerSecond: *originRPS}),
		Segments:   cache.NewSegmentCache(store, cache.WithLogger(logger)),
		Pathnames:  cache.NewPathnameCache(store, cache.WithLogger(logger)),
		Translator: provider.NewBatcher(backend),
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal("server", zap.Error(err))
	}

	httpServer := &http.Server{
		Addr:              *listenAddr,
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("addr", *listenAddr), zap.String("version", webproxy.Version))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

// buildResolver picks the host-configuration source: Postgres when a DSN is
// given, otherwise a watched YAML file. Both sit behind a short TTL cache.
func buildResolver(ctx context.Context, dsn, hostsFile string, ttl time.Duration, logger *zap.Logger) (hostconfig.Resolver, func(), error) {
	switch {
	case dsn != "":
		pg, err := hostconfig.NewPostgresResolver(dsn)
		if err != nil {
			return nil, nil, err
		}
		return hostconfig.NewCachedResolver(pg, ttl), func() { pg.Close() }, nil
	case hostsFile != "":
		fr, err := hostconfig.NewFileResolver(hostsFile, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := fr.Watch(ctx); err != nil {
			return nil, nil, err
		}
		return hostconfig.NewCachedResolver(fr, ttl), func() {}, nil
	default:
		return nil, nil, errors.New("either -postgres or -hosts is required")
	}
}

// buildStore picks the cache backend: redis, bbolt, or in-memory.
func buildStore(redisURL, boltPath string, ttl time.Duration) (cache.Store, func(), error) {
	switch {
	case redisURL != "":
		rs, err := cache.NewRedisStore(cache.RedisConfig{URL: redisURL, TTL: ttl})
		if err != nil {
			return nil, nil, err
		}
		return rs, func() { rs.Close() }, nil
	case boltPath != "":
		bs, err := cache.OpenBolt(boltPath, ttl)
		if err != nil {
			return nil, nil, err
		}
		return bs, func() { bs.Close() }, nil
	default:
		return cache.NewMemoryStore(ttl), func() {}, nil
	}
}
