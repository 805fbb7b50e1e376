package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ecomkit/internal/api"
	"ecomkit/internal/audit"
	"ecomkit/internal/shop"
	"ecomkit/pkg/logx"
)

type AuditLog interface {
	Record(ctx context.Context, e audit.Entry) error
	List(ctx context.Context, shopID, namespace string, limit int) ([]audit.Entry, error)
}

// StoreFunc builds the Admin API store for the authenticated shop.
type StoreFunc func(s *shop.Shop) Store

type Handlers struct {
	Service  *Service
	Audit    AuditLog
	StoreFor StoreFunc
}

type pageResponse struct {
	Page
	Typed map[string]any `json:"typed"`
}

func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	s := api.ShopFromContext(r.Context())
	if s == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing shop")
		return
	}
	feature := chi.URLParam(r, "feature")

	page, err := h.Service.Load(r.Context(), h.StoreFor(s), feature)
	if err != nil {
		h.writeLoadError(w, r, err)
		return
	}
	sc, _ := h.Service.Registry().Get(feature)
	api.WriteJSON(w, http.StatusOK, pageResponse{Page: page, Typed: sc.Typed(page.Values)})
}

func (h Handlers) Post(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := api.ShopFromContext(ctx)
	if s == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing shop")
		return
	}
	feature := chi.URLParam(r, "feature")
	sc, ok := h.Service.Registry().Get(feature)
	if !ok {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "unknown settings page")
		return
	}

	form, err := readForm(r)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	res, err := h.Service.Save(ctx, h.StoreFor(s), feature, form)
	if err != nil {
		var ve ValidationError
		if errors.As(err, &ve) {
			api.WriteErrorWith(w, http.StatusBadRequest, api.APIError{
				Code:    ve.Code,
				Message: "Certains champs sont invalides",
				Details: ve.Fields,
			})
			return
		}
		api.WriteErrorWith(w, http.StatusBadGateway, api.APIError{
			Code:    "METAFIELDS_WRITE_FAILED",
			Message: res.Message,
			Details: map[string]int{"written": res.Written, "batches": res.Batches},
		})
		return
	}

	if res.Written > 0 && h.Audit != nil {
		entry := audit.Entry{
			ShopID:      s.ID,
			Namespace:   sc.Namespace,
			KeysWritten: res.Written,
			Actor:       api.ActorFromContext(ctx),
			Metadata:    map[string]any{"feature": feature, "keys": res.Keys, "batches": res.Batches},
		}
		if err := h.Audit.Record(ctx, entry); err != nil {
			logx.FromContext(ctx).Warn("settings audit insert failed", zap.String("namespace", sc.Namespace), zap.Error(err))
		}
	}

	api.WriteJSON(w, http.StatusOK, struct {
		SaveResult
		Values map[string]any `json:"values,omitempty"`
	}{SaveResult: res, Values: sc.Typed(res.Values)})
}

func (h Handlers) History(w http.ResponseWriter, r *http.Request) {
	s := api.ShopFromContext(r.Context())
	if s == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing shop")
		return
	}
	sc, ok := h.Service.Registry().Get(chi.URLParam(r, "feature"))
	if !ok {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "unknown settings page")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.Audit.List(r.Context(), s.ID, sc.Namespace, limit)
	if err != nil {
		logx.FromContext(r.Context()).Error("settings history failed", zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to load history")
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h Handlers) writeLoadError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrUnknownFeature) {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "unknown settings page")
		return
	}
	logx.FromContext(r.Context()).Error("settings load failed", zap.Error(err))
	api.WriteError(w, http.StatusBadGateway, "SHOPIFY_ERROR", "failed to load settings")
}

// readForm accepts either a urlencoded form post or a flat JSON object.
func readForm(r *http.Request) (map[string]string, error) {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "application/json" {
		var raw map[string]any
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("invalid json body: %w", err)
		}
		out := make(map[string]string, len(raw))
		for k, v := range raw {
			switch t := v.(type) {
			case nil:
				out[k] = ""
			case string:
				out[k] = t
			case bool:
				out[k] = strconv.FormatBool(t)
			case json.Number:
				out[k] = t.String()
			default:
				return nil, fmt.Errorf("field %q must be a scalar", k)
			}
		}
		return out, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("invalid form: %w", err)
	}
	out := make(map[string]string, len(r.PostForm))
	for k, vs := range r.PostForm {
		if len(vs) > 0 {
			out[k] = vs[len(vs)-1]
		}
	}
	return out, nil
}
