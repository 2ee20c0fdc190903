package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"Storefront/internal/catalog"
	"Storefront/pkg/kit"
)

func main() {
	service := "catalog"
	env := getenv("APP_ENV", "production")
	log := kit.NewLogger(service, env)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	port := getenv("PORT", "5004")

	store, closeStore, err := openStore(os.Getenv("DATABASE_URL"), log)
	if err != nil {
		log.Fatal("open catalog store failed", zap.Error(err))
	}
	defer closeStore()

	s := &catalog.Server{
		Store:   store,
		Log:     log,
		Verbose: env == kit.EnvDevelopment,
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	h := catalog.NewHandler(s, catalog.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: true,
		MetricsToken:   os.Getenv("METRICS_TOKEN"),
		PublicDir:      os.Getenv("PUBLIC_DIR"),
	})

	if err := kit.RunHTTPServer(ctx, ":"+port, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

// openStore picks Postgres when a DSN is configured and the built-in
// catalog otherwise.
func openStore(dsn string, log *zap.Logger) (catalog.Store, func(), error) {
	if dsn == "" {
		log.Info("using in-memory catalog")
		return catalog.NewMemStore(), func() {}, nil
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, nil, err
	}
	log.Info("using postgres catalog")
	return catalog.NewPostgresStore(db), func() { _ = db.Close() }, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
