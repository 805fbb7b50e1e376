package settings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecomkit/internal/api"
	"ecomkit/internal/audit"
	"ecomkit/internal/shop"
)

type fakeAudit struct {
	entries []audit.Entry
}

func (f *fakeAudit) Record(ctx context.Context, e audit.Entry) error {
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeAudit) List(ctx context.Context, shopID, namespace string, limit int) ([]audit.Entry, error) {
	var out []audit.Entry
	for _, e := range f.entries {
		if e.ShopID == shopID && e.Namespace == namespace {
			out = append(out, e)
		}
	}
	return out, nil
}

func newTestRouter(t *testing.T, store *fakeStore, log *fakeAudit) http.Handler {
	t.Helper()
	h := Handlers{
		Service:  NewService(mustRegistry(t), nil),
		Audit:    log,
		StoreFor: func(*shop.Shop) Store { return store },
	}
	s := &shop.Shop{ID: "shop-1", Domain: "demo.myshopify.com", AccessToken: "tok", Status: shop.StatusActive}

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := api.WithActor(api.WithShop(r.Context(), s), "staff-9")
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	r.Get("/v1/settings/{feature}", h.Get)
	r.Post("/v1/settings/{feature}", h.Post)
	r.Get("/v1/settings/{feature}/history", h.History)
	return r
}

func TestHandlers_GetReturnsDefaults(t *testing.T) {
	srv := newTestRouter(t, &fakeStore{}, &fakeAudit{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/settings/packbuilder", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Namespace string            `json:"namespace"`
		Values    map[string]string `json:"values"`
		Typed     map[string]any    `json:"typed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "packbuilder", body.Namespace)
	assert.Equal(t, "Créer mon pack", body.Values["button_text"])
	assert.Equal(t, true, body.Typed["builder_enabled"])
}

func TestHandlers_UnknownFeatureIs404(t *testing.T) {
	srv := newTestRouter(t, &fakeStore{}, &fakeAudit{})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/settings/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlers_PostFormWritesAndAudits(t *testing.T) {
	store := &fakeStore{}
	log := &fakeAudit{}
	srv := newTestRouter(t, store, log)

	form := url.Values{"pack_title_1": {"Duo"}, "cta_color": {"#ff0000"}, "pack_badge_2": {""}}
	req := httptest.NewRequest(http.MethodPost, "/v1/settings/bundlecards", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res SaveResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Success)
	assert.Equal(t, 2, res.Written)
	assert.Equal(t, "Cartes Bundle enregistrées avec succès!", res.Message)

	require.Len(t, log.entries, 1)
	assert.Equal(t, "bundlecards", log.entries[0].Namespace)
	assert.Equal(t, "staff-9", log.entries[0].Actor)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/settings/bundlecards/history", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"keysWritten":2`)
}

func TestHandlers_PostJSONValidation(t *testing.T) {
	store := &fakeStore{}
	srv := newTestRouter(t, store, &fakeAudit{})

	req := httptest.NewRequest(http.MethodPost, "/v1/settings/offers",
		strings.NewReader(`{"offer1_threshold": -5, "enable_offer1": true}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var env struct {
		Error struct {
			Code    string       `json:"code"`
			Details []FieldError `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "SETTINGS_INVALID", env.Error.Code)
	require.Len(t, env.Error.Details, 1)
	assert.Equal(t, "offer1_threshold", env.Error.Details[0].Key)
	assert.Empty(t, store.batches)
}

func TestHandlers_PostWriteFailureIs502(t *testing.T) {
	store := &fakeStore{failBatch: 1}
	log := &fakeAudit{}
	srv := newTestRouter(t, store, log)

	req := httptest.NewRequest(http.MethodPost, "/v1/settings/ultimatepack",
		strings.NewReader(`{"pack_title_1": "Solo"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Une erreur est survenue lors de l'enregistrement")
	assert.Empty(t, log.entries)
}
