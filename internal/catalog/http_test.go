package catalog

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func newCatalogTS(t *testing.T) *httptest.Server {
	t.Helper()

	s := &Server{Store: NewMemStore(), Log: zap.NewNop()}
	h := NewHandler(s, HTTPDeps{
		Log:     zap.NewNop(),
		Service: "catalog",
	})

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("content-type=%q", ct)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp
}

func TestCatalog_ListProducts(t *testing.T) {
	ts := newCatalogTS(t)

	var products []Product
	resp := getJSON(t, ts.URL+"/api/products", &products)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	if len(products) != len(seedProducts()) {
		t.Fatalf("len=%d want=%d", len(products), len(seedProducts()))
	}
	for i := 1; i < len(products); i++ {
		if products[i-1].ID >= products[i].ID {
			t.Fatalf("not sorted by id at %d", i)
		}
	}
}

func TestCatalog_GetProduct(t *testing.T) {
	ts := newCatalogTS(t)

	var p Product
	resp := getJSON(t, ts.URL+"/api/products/2", &p)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	if p.ID != 2 || p.Name != "Greek yogurt" {
		t.Fatalf("product=%+v", p)
	}
	if p.DiscountPrice == nil || !p.DiscountPrice.Equal(price("99")) {
		t.Fatalf("discountPrice=%v", p.DiscountPrice)
	}
}

func TestCatalog_GetProduct_NotFound(t *testing.T) {
	ts := newCatalogTS(t)

	for _, id := range []string{"9999", "abc"} {
		var body struct {
			Message string `json:"message"`
		}
		resp := getJSON(t, ts.URL+"/api/products/"+id, &body)

		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("id=%s status=%d", id, resp.StatusCode)
		}
		if !strings.Contains(body.Message, id) {
			t.Fatalf("id=%s message=%q", id, body.Message)
		}
	}
}

func TestCatalog_CORS(t *testing.T) {
	ts := newCatalogTS(t)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/products", nil)
	req.Header.Set("Origin", "http://localhost:5173")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow-origin=%q", got)
	}
}

func TestCatalog_Health(t *testing.T) {
	ts := newCatalogTS(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s status=%d", path, resp.StatusCode)
		}
	}
}
