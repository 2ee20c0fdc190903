package storefront

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"Storefront/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string

	// TrustProxy keys per-client limits by X-Forwarded-For.
	TrustProxy bool
}

type Deps struct {
	CatalogURL string
	// Ready probes the storefront's dependencies.
	Ready func(ctx context.Context) error
}

const (
	readyTimeout = 2 * time.Second

	couponLimitPerMin = 10
	limitWindow       = time.Minute
)

func NewHandler(s *Server, deps Deps, httpDeps HTTPDeps) (http.Handler, error) {
	catalogProxy, err := NewReverseProxy(deps.CatalogURL, httpDeps.Log)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	setupMiddleware(r, httpDeps)
	setupMetrics(r, httpDeps)

	r.Get("/healthz", healthz)
	r.Get("/readyz", readyz(deps, httpDeps.Log))

	r.Handle("/api/*", catalogProxy)

	couponLimiter := kit.NewIPRateLimiter(couponLimitPerMin, limitWindow)
	couponLimiter.TrustForwardedFor = httpDeps.TrustProxy

	r.Route("/cart", func(cr chi.Router) {
		cr.Get("/", s.getCart)
		cr.Delete("/", s.clearCart)
		cr.Post("/items", s.addToCart)
		cr.Patch("/items/{id}", s.changeQuantity)
		cr.Delete("/items/{id}", s.removeFromCart)
		cr.With(couponLimiter.Middleware).Post("/coupon", s.applyCoupon)
		cr.Post("/checkout", s.checkout)
	})

	r.Route("/favorites", func(fr chi.Router) {
		fr.Get("/", s.getFavorites)
		fr.Post("/", s.addFavorite)
		fr.Delete("/", s.clearFavorites)
		fr.Get("/products", s.favoriteProducts)
		fr.Delete("/{id}", s.removeFavorite)
	})

	r.Get("/catalog", s.listCatalog)
	r.Get("/catalog/categories", s.listCategories)

	return r, nil
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))
}

func setupMetrics(r *chi.Mux, deps HTTPDeps) {
	if deps.Registry == nil {
		return
	}

	metrics := kit.NewMetrics(deps.Registry)
	r.Use(metrics.Middleware(deps.Service, kit.RoutePattern))

	if !deps.MetricsEnabled {
		return
	}

	r.With(kit.MetricsAuth(deps.MetricsToken)).
		Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func readyz(deps Deps, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Ready == nil {
			w.WriteHeader(http.StatusOK)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		if err := deps.Ready(ctx); err != nil {
			if log != nil {
				log.Warn("readyz failed", zap.Error(err))
			}
			kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
