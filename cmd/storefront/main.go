package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"Storefront/internal/cache"
	"Storefront/internal/cart"
	"Storefront/internal/catalog"
	"Storefront/internal/storage"
	"Storefront/internal/storefront"
	"Storefront/pkg/kit"
)

const devCookieSecret = "storefront-development-cookie-secret"

func main() {
	service := "storefront"
	env := getenv("APP_ENV", "production")
	dev := env == kit.EnvDevelopment
	log := kit.NewLogger(service, env)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	port := getenv("PORT", "8080")
	catalogURL := getenv("CATALOG_URL", "http://localhost:5004")

	refresh, err := time.ParseDuration(getenv("CATALOG_REFRESH", "5m"))
	if err != nil || refresh <= 0 {
		log.Fatal("CATALOG_REFRESH must be a positive duration", zap.String("value", os.Getenv("CATALOG_REFRESH")))
	}

	secret := os.Getenv("COOKIE_SECRET")
	if secret == "" && dev {
		secret = devCookieSecret
	}
	codec, err := storage.NewCookieCodec(secret)
	if err != nil {
		log.Fatal("COOKIE_SECRET is required and must be at least 32 chars", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	client := catalog.NewClient(catalogURL)
	mirror := catalog.NewMirror(client, log)
	go mirror.Run(ctx, refresh)

	productCache, pingCache := newProductCache(os.Getenv("REDIS_ADDR"), mirror, log)

	s := &storefront.Server{
		Log:            log,
		Catalog:        mirror,
		FavoritesCache: productCache,
		Codec:          codec,
		Coupons:        cart.DefaultCoupons(),
		Storage: storage.Config{
			TTL:     storage.DefaultTTL,
			Metrics: storage.NewMetrics(reg),
		},
		SecureCookies: !dev,
		Verbose:       dev,
	}

	h, err := storefront.NewHandler(s,
		storefront.Deps{
			CatalogURL: catalogURL,
			Ready: func(ctx context.Context) error {
				return errors.Join(client.Ping(ctx), pingCache(ctx))
			},
		},
		storefront.HTTPDeps{
			Log:            log,
			Service:        service,
			Registry:       reg,
			MetricsEnabled: true,
			MetricsToken:   os.Getenv("METRICS_TOKEN"),
			TrustProxy:     os.Getenv("TRUST_PROXY") == "true",
		},
	)
	if err != nil {
		log.Fatal("init storefront handler failed", zap.Error(err))
	}

	if err := kit.RunHTTPServer(ctx, ":"+port, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

// newProductCache backs the favorites page cache with Redis when REDIS_ADDR
// is set and with process memory otherwise.
func newProductCache(addr string, mirror *catalog.Mirror, log *zap.Logger) (*catalog.ProductCache, func(context.Context) error) {
	if addr == "" {
		return catalog.NewProductCache(cache.NewMemoryCache(), mirror, log), func(context.Context) error { return nil }
	}

	rc := cache.NewRedisCache(redis.NewClient(&redis.Options{Addr: addr}))
	log.Info("product cache on redis", zap.String("addr", addr))
	return catalog.NewProductCache(rc, mirror, log), rc.Ping
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
