package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"Storefront/internal/cart"
	"Storefront/internal/catalog"
	"Storefront/internal/favorites"
	"Storefront/internal/storage"
	"Storefront/pkg/kit"
)

const (
	maxBodyBytes = 1 << 16

	msgCatalogFailed = "failed to load products"
	msgCartFull      = "cart is full"
	msgFavoritesFull = "favorites list is full"
)

// Catalog resolves products for the storefront.
type Catalog interface {
	Products(ctx context.Context) ([]catalog.Product, error)
	Product(ctx context.Context, id int64) (catalog.Product, error)
}

type Server struct {
	Log     *zap.Logger
	Catalog Catalog
	// FavoritesCache backs the favorites page product list.
	FavoritesCache catalog.Fetcher
	Codec          *storage.CookieCodec
	Coupons        cart.Coupons
	Storage        storage.Config

	SecureCookies bool
	Verbose       bool

	newOrderID func() string
}

type session struct {
	cart      *cart.Cart
	favorites *favorites.Set
	backend   *storage.CookieBackend
}

// open assembles the caller's cart and favorites from their cookies.
func (s *Server) open(w http.ResponseWriter, r *http.Request) session {
	backend := storage.NewCookieBackend(w, r, s.Codec)
	backend.Secure = s.SecureCookies

	cfg := s.Storage
	cfg.Log = s.logger().With(zap.String("request_id", chimw.GetReqID(r.Context())))

	return session{
		cart:      cart.Load(storage.NewBridge[cart.LineItem](backend, cfg)),
		favorites: favorites.Load(storage.NewBridge[catalog.Product](backend, cfg)),
		backend:   backend,
	}
}

// rejectOversized answers 413 when the last write of key overflowed its
// cookie. The client keeps its previous state, so the response must not
// show the change.
func (sess session) rejectOversized(w http.ResponseWriter, r *http.Request, key, msg string) bool {
	if !errors.Is(sess.backend.Err(key), storage.ErrValueTooLarge) {
		return false
	}
	kit.WriteError(w, r, http.StatusRequestEntityTooLarge, msg, map[string]any{"max_bytes": storage.MaxCookieSize})
	return true
}

type cartView struct {
	Items []cart.LineItem `json:"items"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

func viewCart(c *cart.Cart) cartView {
	return cartView{Items: c.Items(), Count: c.Count(), Total: c.Total()}
}

type favoritesView struct {
	Items []catalog.Product `json:"items"`
	Count int               `json:"count"`
}

func viewFavorites(f *favorites.Set) favoritesView {
	return favoritesView{Items: f.Items(), Count: f.Len()}
}

type productReq struct {
	ID int64 `json:"id"`
}

type changeReq struct {
	Change int `json:"change"`
}

type couponReq struct {
	Code string `json:"code"`
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, viewCart(s.open(w, r).cart))
}

func (s *Server) addToCart(w http.ResponseWriter, r *http.Request) {
	p, ok := s.resolveProduct(w, r)
	if !ok {
		return
	}

	sess := s.open(w, r)
	sess.cart.AddItem(p)
	if sess.rejectOversized(w, r, cart.StorageKey, msgCartFull) {
		return
	}
	kit.WriteJSON(w, http.StatusOK, viewCart(sess.cart))
}

func (s *Server) changeQuantity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req changeReq
	if err := decodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	sess := s.open(w, r)
	sess.cart.ChangeQuantity(id, req.Change)
	if sess.rejectOversized(w, r, cart.StorageKey, msgCartFull) {
		return
	}
	kit.WriteJSON(w, http.StatusOK, viewCart(sess.cart))
}

func (s *Server) removeFromCart(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	sess := s.open(w, r)
	sess.cart.RemoveItem(id)
	kit.WriteJSON(w, http.StatusOK, viewCart(sess.cart))
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request) {
	sess := s.open(w, r)
	sess.cart.Clear()
	kit.WriteJSON(w, http.StatusOK, viewCart(sess.cart))
}

func (s *Server) applyCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponReq
	if err := decodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	sess := s.open(w, r)
	kit.WriteJSON(w, http.StatusOK, s.Coupons.Quote(sess.cart.Items(), req.Code))
}

func (s *Server) getFavorites(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, viewFavorites(s.open(w, r).favorites))
}

func (s *Server) addFavorite(w http.ResponseWriter, r *http.Request) {
	p, ok := s.resolveProduct(w, r)
	if !ok {
		return
	}

	sess := s.open(w, r)
	sess.favorites.Add(p)
	if sess.rejectOversized(w, r, favorites.StorageKey, msgFavoritesFull) {
		return
	}
	kit.WriteJSON(w, http.StatusOK, viewFavorites(sess.favorites))
}

func (s *Server) removeFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	sess := s.open(w, r)
	sess.favorites.Remove(id)
	kit.WriteJSON(w, http.StatusOK, viewFavorites(sess.favorites))
}

func (s *Server) clearFavorites(w http.ResponseWriter, r *http.Request) {
	sess := s.open(w, r)
	sess.favorites.Clear()
	kit.WriteJSON(w, http.StatusOK, viewFavorites(sess.favorites))
}

func (s *Server) favoriteProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.FavoritesCache.Products(r.Context())
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}

	sess := s.open(w, r)
	kit.WriteJSON(w, http.StatusOK, sess.favorites.Filter(products))
}

func (s *Server) listCatalog(w http.ResponseWriter, r *http.Request) {
	products, err := s.Catalog.Products(r.Context())
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, catalog.FilterByCategory(products, r.URL.Query().Get("category")))
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	products, err := s.Catalog.Products(r.Context())
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, catalog.Categories(products))
}

// resolveProduct reads {"id": N} and looks the product up in the catalog,
// so prices always come from the catalog rather than the client.
func (s *Server) resolveProduct(w http.ResponseWriter, r *http.Request) (catalog.Product, bool) {
	var req productReq
	if err := decodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return catalog.Product{}, false
	}
	if req.ID <= 0 {
		kit.WriteError(w, r, http.StatusBadRequest, "id required", nil)
		return catalog.Product{}, false
	}

	p, err := s.Catalog.Product(r.Context(), req.ID)
	if errors.Is(err, catalog.ErrNotFound) {
		kit.WriteError(w, r, http.StatusNotFound, fmt.Sprintf("Product with ID %d not found", req.ID), nil)
		return catalog.Product{}, false
	}
	if err != nil {
		s.writeCatalogError(w, r, err)
		return catalog.Product{}, false
	}
	return p, true
}

func (s *Server) writeCatalogError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger().Warn("catalog fetch failed",
		zap.String("request_id", chimw.GetReqID(r.Context())),
		zap.Error(err),
	)

	resp := kit.ErrorResponse{Message: msgCatalogFailed, RequestID: chimw.GetReqID(r.Context())}
	if s.Verbose {
		resp.Error = err.Error()
	}
	kit.WriteJSON(w, http.StatusBadGateway, resp)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		kit.WriteError(w, r, http.StatusBadRequest, "bad id", map[string]any{"id": chi.URLParam(r, "id")})
		return 0, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("extra data after json object")
	}
	return nil
}

func (s *Server) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
