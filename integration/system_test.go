//go:build integration
// +build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"os"
	"testing"
	"time"
)

var baseURL = getenv("E2E_BASE_URL", "http://localhost:8080")

type cartResp struct {
	Items []struct {
		ID       int64 `json:"id"`
		Quantity int   `json:"quantity"`
	} `json:"items"`
	Count int    `json:"count"`
	Total string `json:"total"`
}

func TestSystem_E2E_CartSurvivesRestart(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	waitReady(t, ctx, baseURL+"/readyz")

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	client := &http.Client{Timeout: 5 * time.Second, Jar: jar}

	var products []map[string]any
	doJSON(t, client, http.MethodGet, baseURL+"/catalog", nil, &products, 200)
	if len(products) == 0 {
		t.Fatalf("expected non-empty catalog")
	}

	pid, _ := products[0]["id"].(float64)
	if pid == 0 {
		t.Fatalf("product id missing in response: %#v", products[0])
	}

	var cart cartResp
	doJSON(t, client, http.MethodPost, baseURL+"/cart/items", map[string]any{"id": int64(pid)}, &cart, 200)
	doJSON(t, client, http.MethodPost, baseURL+"/cart/items", map[string]any{"id": int64(pid)}, &cart, 200)
	if cart.Count != 2 {
		t.Fatalf("count=%d want=2", cart.Count)
	}

	doJSON(t, client, http.MethodPost, baseURL+"/favorites", map[string]any{"id": int64(pid)}, nil, 200)

	// Cart state lives in the client's cookies, so a restarted storefront
	// must hand back the same cart.
	if os.Getenv("E2E_RESTART_STOREFRONT") == "1" {
		restartContainer(t, ctx, "storefront")
		waitReady(t, ctx, baseURL+"/readyz")
	}

	doJSON(t, client, http.MethodGet, baseURL+"/cart", nil, &cart, 200)
	if cart.Count != 2 {
		t.Fatalf("count after reload=%d want=2", cart.Count)
	}

	var created map[string]any
	doJSON(t, client, http.MethodPost, baseURL+"/cart/checkout", map[string]any{
		"address": "Main street 1",
		"phone":   "+1 (555) 123-45-67",
		"email":   "buyer@example.com",
		"coupon":  "SPRING",
	}, &created, 201)
	if id, _ := created["id"].(string); id == "" {
		t.Fatalf("order id missing: %#v", created)
	}

	doJSON(t, client, http.MethodGet, baseURL+"/cart", nil, &cart, 200)
	if len(cart.Items) != 0 {
		t.Fatalf("cart not cleared after checkout: %#v", cart.Items)
	}
}

func waitReady(t *testing.T, ctx context.Context, url string) {
	t.Helper()
	client := &http.Client{Timeout: 2 * time.Second}

	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		resp, err := client.Do(req)
		if err == nil && resp != nil && resp.StatusCode == 200 {
			_ = resp.Body.Close()
			return
		}
		if resp != nil {
			_ = resp.Body.Close()
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("service not ready: %s", url)
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, out any, want int) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		t.Fatalf("%s %s: status=%d want=%d", method, url, resp.StatusCode, want)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
