package shopify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStorefrontCart_KeepsSessionCookie(t *testing.T) {
	var added map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/cart.js", func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie("cart"); err != nil {
			http.SetCookie(w, &http.Cookie{Name: "cart", Value: "c1", Path: "/"})
		}
		_, _ = w.Write([]byte(`{"token":"c1","items":[{"key":"1:abc","variant_id":1,"product_title":"Tee","image":null,"price":2500,"quantity":2}],"item_count":2,"total_price":5000,"currency":"EUR"}`))
	})
	mux.HandleFunc("/cart/add.js", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("cart"); err != nil || c.Value != "c1" {
			t.Errorf("expected cart cookie on add")
		}
		_ = json.NewDecoder(r.Body).Decode(&added)
		_, _ = w.Write([]byte(`{}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	sc, err := NewStorefrontCart(srv.URL)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	cart, err := sc.Get(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if cart.TotalPrice != 5000 || len(cart.Items) != 1 || cart.Items[0].Image != "" {
		t.Fatalf("unexpected cart: %+v", cart)
	}
	if err := sc.Add(context.Background(), 777, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if added["id"] != float64(777) || added["quantity"] != float64(1) {
		t.Fatalf("unexpected add body: %v", added)
	}
}

func TestStorefrontCart_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status":422,"description":"sold out"}`, http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	sc, _ := NewStorefrontCart(srv.URL)
	if err := sc.Change(context.Background(), "1:abc", 0); err == nil {
		t.Fatalf("expected error")
	}
}
