package entropy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCryptoSeedNonZero(t *testing.T) {
	seen := make(map[int64]bool)
	for i := 0; i < 100; i++ {
		s := CryptoSeed()
		if s <= 0 {
			t.Fatalf("CryptoSeed = %d, want positive", s)
		}
		seen[s] = true
	}
	if len(seen) < 90 {
		t.Errorf("only %d distinct seeds in 100 draws", len(seen))
	}
}

func TestNilClientFallsBack(t *testing.T) {
	c := NewClient("")
	if c != nil || c.Enabled() {
		t.Fatal("client without a key should be nil and disabled")
	}
	if s := c.Seed(context.Background()); s == 0 {
		t.Error("nil client returned zero seed")
	}
}

func TestSeedFromRandomOrg(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
			Params struct {
				APIKey string `json:"apiKey"`
				N      int    `json:"n"`
			} `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Method != "generateIntegers" || req.Params.APIKey != "key" || req.Params.N != 2 {
			t.Errorf("request = %+v", req)
		}
		w.Write([]byte(`{"jsonrpc":"2.0","result":{"random":{"data":[3,5]}},"id":1}`))
	}))
	defer srv.Close()

	c := NewClient("key")
	c.endpoint = srv.URL
	if got, want := c.Seed(context.Background()), int64(3<<31|5); got != want {
		t.Errorf("Seed = %d, want %d", got, want)
	}
}

func TestSeedFallsBackOnServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jsonrpc":"2.0","error":{"message":"quota exceeded"},"id":1}`))
	}))
	defer srv.Close()

	c := NewClient("key")
	c.endpoint = srv.URL
	if _, err := c.fetch(context.Background()); err == nil {
		t.Error("fetch ignored a service error")
	}
	if s := c.Seed(context.Background()); s == 0 {
		t.Error("Seed returned zero after a service error")
	}
}
