package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	cacheapp "storefront-gateway/cache/application"
	cacheinfra "storefront-gateway/cache/infra"
	"storefront-gateway/middleware/ratelimit"
	rldomain "storefront-gateway/middleware/ratelimit/domain"
	rlinfra "storefront-gateway/middleware/ratelimit/infra"
	"storefront-gateway/payment"
	payapp "storefront-gateway/payment/application"
	payinfra "storefront-gateway/payment/infra"
	"storefront-gateway/secure"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := readConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Redis é opcional: sem REDIS_ADDR o cache roda só com o store
	// local e o serviço reporta remoteAvailable=false.
	var rdb *redis.Client
	var remote *cacheinfra.RedisStore
	if cfg.redisAddr != "" {
		opts := &redis.Options{
			Addr:     cfg.redisAddr,
			Password: cfg.redisPassword,
			DB:       cfg.redisDB,
		}
		if cfg.redisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		rdb = redis.NewClient(opts)
		defer func() { _ = rdb.Close() }()

		pingCtx, cancelPing := context.WithTimeout(ctx, 2*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancelPing()
		if err != nil {
			// não é fatal: o serviço degrada para o local e a sonda
			// recupera quando o Redis voltar
			log.Printf("redis ping failed, starting in degraded mode: %v", err)
		}
		remote = cacheinfra.NewRedisStore(rdb)
	}

	cacheOpts := []cacheapp.Option{cacheapp.WithDefaultTTL(cfg.cacheTTL)}
	if !cfg.cacheLocalFallback {
		cacheOpts = append(cacheOpts, cacheapp.WithLocalStore(nil))
	}
	var cacheSvc *cacheapp.Service
	if remote != nil {
		cacheSvc = cacheapp.New(remote, cacheOpts...)
	} else {
		cacheSvc = cacheapp.New(nil, cacheOpts...)
	}
	cacheSvc.StartJanitor(ctx)
	defer cacheSvc.Destroy()

	windowStore := rlinfra.NewWindowStore(cfg.rateInterval, cfg.rateLimit,
		rlinfra.WithMaxTracked(cfg.rateMaxTokens))
	windowStore.StartJanitor(ctx)
	defer windowStore.Destroy()

	statsStore, metricsHandler, err := buildStats(ctx, cfg, rdb)
	if err != nil {
		log.Fatalf("stats error: %v", err)
	}

	var encKey []byte
	if cfg.encryptionKey != "" {
		encKey, err = secure.ParseKey(cfg.encryptionKey)
		if err != nil {
			log.Fatalf("encryption key error: %v", err)
		}
	}

	gateway := payinfra.NewClient(cfg.paymentGatewayURL, cfg.paymentSecurityKey)
	results := &payinfra.ChargeResultCache{Cache: cacheSvc, TTL: cfg.paymentResultTTL, Key: encKey}
	handler := payment.NewHandler(payapp.Service{Gateway: gateway, Results: results})

	charge := http.Handler(handler)
	charge = ratelimit.InFlightMiddleware(ratelimit.InFlightOptions{
		Max:            cfg.maxInFlight,
		AcquireTimeout: cfg.inFlightTimeout,
	})(charge)
	charge = ratelimit.Middleware(ratelimit.Options{
		Store:               windowStore,
		Stats:               statsStore,
		KeyHeader:           cfg.rateKeyHeader,
		TrustXForwardedFor:  cfg.trustXFF,
		AddRateLimitHeaders: cfg.addHeaders,
	})(charge)

	mux := http.NewServeMux()
	mux.Handle("/v1/payments", charge)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(cacheSvc.Stats(r.Context()))
	})
	if metricsHandler != nil {
		mux.Handle("/metrics", metricsHandler)
	}

	srv := &http.Server{
		Addr:              cfg.listenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("storefront gateway listening on %s", cfg.listenAddr)
	log.Printf("rate: interval=%s limit=%d maxTokens=%d keyHeader=%q trustXFF=%v", cfg.rateInterval, cfg.rateLimit, cfg.rateMaxTokens, cfg.rateKeyHeader, cfg.trustXFF)
	log.Printf("cache: redisAddr=%q tls=%v ttl=%s localFallback=%v", cfg.redisAddr, cfg.redisTLS, cfg.cacheTTL, cfg.cacheLocalFallback)
	log.Printf("payment: gateway=%q resultTTL=%s maxInFlight=%d encrypted=%v", cfg.paymentGatewayURL, cfg.paymentResultTTL, cfg.maxInFlight, len(encKey) > 0)
	log.Printf("stats: backend=%q metrics=%v", cfg.statsBackend, metricsHandler != nil)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
}

// buildStats monta o StatsStore escolhido e, quando for Prometheus, o
// handler de /metrics que o acompanha.
func buildStats(ctx context.Context, cfg config, rdb *redis.Client) (rldomain.StatsStore, http.Handler, error) {
	switch cfg.statsBackend {
	case "", "none":
		return nil, nil, nil
	case "memory":
		return rlinfra.NewMemoryStatsStore(rlinfra.WithTrackKeys(cfg.statsTrackKeys)), nil, nil
	case "redis":
		if rdb == nil {
			return nil, nil, errors.New("STATS_BACKEND=redis requires REDIS_ADDR")
		}
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return nil, nil, err
		}
		return rlinfra.NewRedisStatsStore(rdb,
			rlinfra.WithStatsPrefix(cfg.statsPrefix),
			rlinfra.WithStatsTTL(cfg.statsTTL),
			rlinfra.WithStatsBucket(cfg.statsBucket),
			rlinfra.WithStatsTrackKeys(cfg.statsTrackKeys),
		), nil, nil
	case "prometheus":
		reg := prometheus.NewRegistry()
		store, err := rlinfra.NewPrometheusStatsStore(reg)
		if err != nil {
			return nil, nil, err
		}
		return store, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), nil
	}
	return nil, nil, errors.New("STATS_BACKEND must be none, memory, redis or prometheus")
}

type config struct {
	listenAddr string

	redisAddr     string
	redisPassword string
	redisDB       int
	redisTLS      bool

	cacheTTL           time.Duration
	cacheLocalFallback bool

	rateInterval  time.Duration
	rateLimit     int
	rateMaxTokens int
	rateKeyHeader string
	trustXFF      bool
	addHeaders    bool

	maxInFlight     int
	inFlightTimeout time.Duration

	paymentGatewayURL  string
	paymentSecurityKey string
	paymentResultTTL   time.Duration

	encryptionKey string

	statsBackend   string
	statsPrefix    string
	statsTTL       time.Duration
	statsBucket    string
	statsTrackKeys bool
}

func readConfig() (config, error) {
	cfg := config{}
	cfg.listenAddr = getenvDefault("LISTEN_ADDR", ":8080")

	cfg.redisAddr = os.Getenv("REDIS_ADDR")
	cfg.redisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.redisDB = getenvIntDefault("REDIS_DB", 0)
	cfg.redisTLS = getenvBoolDefault("REDIS_TLS", false)

	cfg.cacheTTL = getenvDurationDefault("CACHE_TTL", time.Hour)
	cfg.cacheLocalFallback = getenvBoolDefault("CACHE_LOCAL_FALLBACK", true)

	cfg.rateInterval = getenvDurationDefault("RATE_INTERVAL", time.Minute)
	cfg.rateLimit = getenvIntDefault("RATE_LIMIT", 10)
	cfg.rateMaxTokens = getenvIntDefault("RATE_MAX_TOKENS", 500)
	cfg.rateKeyHeader = os.Getenv("RATE_KEY_HEADER")
	cfg.trustXFF = getenvBoolDefault("TRUST_XFF", false)
	cfg.addHeaders = getenvBoolDefault("ADD_RATELIMIT_HEADERS", false)

	cfg.maxInFlight = getenvIntDefault("MAX_INFLIGHT", 100)
	cfg.inFlightTimeout = getenvDurationDefault("INFLIGHT_TIMEOUT", 0)

	cfg.paymentGatewayURL = os.Getenv("PAYMENT_GATEWAY_URL")
	cfg.paymentSecurityKey = os.Getenv("PAYMENT_SECURITY_KEY")
	cfg.paymentResultTTL = getenvDurationDefault("PAYMENT_RESULT_TTL", 24*time.Hour)

	cfg.encryptionKey = os.Getenv("ENCRYPTION_KEY")

	cfg.statsBackend = strings.ToLower(getenvDefault("STATS_BACKEND", "none"))
	cfg.statsPrefix = getenvDefault("STATS_PREFIX", "checkout:ratelimit:stats")
	cfg.statsTTL = getenvDurationDefault("STATS_TTL", 24*time.Hour)
	cfg.statsBucket = getenvDefault("STATS_BUCKET", "minute")
	cfg.statsTrackKeys = getenvBoolDefault("STATS_TRACK_KEYS", false)

	if cfg.paymentGatewayURL == "" {
		return config{}, errors.New("PAYMENT_GATEWAY_URL is required")
	}
	if cfg.paymentSecurityKey == "" {
		return config{}, errors.New("PAYMENT_SECURITY_KEY is required")
	}
	if cfg.rateInterval <= 0 {
		return config{}, errors.New("RATE_INTERVAL must be > 0")
	}
	if cfg.rateLimit < 1 {
		return config{}, errors.New("RATE_LIMIT must be >= 1")
	}
	if cfg.rateMaxTokens < 1 {
		return config{}, errors.New("RATE_MAX_TOKENS must be >= 1")
	}
	if cfg.maxInFlight < 0 {
		return config{}, errors.New("MAX_INFLIGHT must be >= 0")
	}
	if !cfg.cacheLocalFallback && cfg.redisAddr == "" {
		return config{}, errors.New("CACHE_LOCAL_FALLBACK=false requires REDIS_ADDR")
	}
	return cfg, nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvBoolDefault(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDurationDefault(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
