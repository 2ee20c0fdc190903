package storefront

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"go.uber.org/zap"

	"Storefront/pkg/kit"
)

// NewReverseProxy forwards requests unchanged to target. Upstream failures
// become a JSON 502.
func NewReverseProxy(target string, log *zap.Logger) (*httputil.ReverseProxy, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("proxy target %q: scheme and host required", target)
	}
	if log == nil {
		log = zap.NewNop()
	}

	p := httputil.NewSingleHostReverseProxy(u)
	p.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Warn("proxy upstream failed",
			zap.String("target", u.Host),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		kit.WriteError(w, r, http.StatusBadGateway, "upstream unavailable", nil)
	}
	return p, nil
}
