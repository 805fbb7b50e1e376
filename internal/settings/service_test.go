package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecomkit/pkg/shopify"
)

type fakeStore struct {
	mu        sync.Mutex
	stored    map[string][]shopify.Metafield
	batches   [][]shopify.MetafieldsSetInput
	failBatch int // 1-based; 0 never fails
	loadErr   error
}

func (f *fakeStore) ShopID(ctx context.Context) (string, error) {
	return "gid://shopify/Shop/1", nil
}

func (f *fakeStore) ShopMetafields(ctx context.Context, namespace string) ([]shopify.Metafield, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stored[namespace], nil
}

func (f *fakeStore) SetMetafields(ctx context.Context, inputs []shopify.MetafieldsSetInput) ([]shopify.Metafield, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failBatch == len(f.batches)+1 {
		return nil, shopify.UserErrors{{Field: []string{"metafields", "0", "value"}, Message: "Value is invalid"}}
	}
	f.batches = append(f.batches, inputs)
	return nil, nil
}

func mustRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := LoadRegistry()
	require.NoError(t, err)
	return r
}

// wideSchema has 30 integer fields, enough to need two metafieldsSet calls.
func wideSchema(t *testing.T) *Schema {
	t.Helper()
	var b strings.Builder
	b.WriteString("feature: wide\nnamespace: wide\nfields:\n")
	for i := 1; i <= 30; i++ {
		fmt.Fprintf(&b, "  - key: field_%02d\n    type: number_integer\n    default: \"0\"\n", i)
	}
	s, err := ParseSchema([]byte(b.String()))
	require.NoError(t, err)
	return s
}

func TestLoadRegistry_EmbeddedSchemas(t *testing.T) {
	r := mustRegistry(t)
	assert.Equal(t, []string{"bundlecards", "offers", "packbuilder", "ultimatepack"}, r.Features())

	offers, ok := r.Get("offers")
	require.True(t, ok)
	assert.Equal(t, "ecomkit", offers.Namespace)

	d := offers.Defaults()
	assert.Equal(t, "false", d["enable_offer1"])
	assert.Equal(t, "shipping", d["offer1_type"])
	assert.Equal(t, "gift", d["offer2_type"])
	assert.Equal(t, "55.00", d["offer1_threshold"])
	assert.Equal(t, "100.00", d["offer3_threshold"])
	assert.Equal(t, "Offre 2 activée !", d["offer2_text_after"])

	pb, _ := r.Get("packbuilder")
	assert.Equal(t, "5", pb.Defaults()["max_products_per_pack"])
	assert.Equal(t, "true", pb.Defaults()["builder_enabled"])
}

func TestParseSchema_RejectsBadDefault(t *testing.T) {
	_, err := ParseSchema([]byte("feature: x\nnamespace: x\nfields:\n  - key: n\n    type: number_integer\n    default: abc\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid default")

	_, err = ParseSchema([]byte("feature: x\nnamespace: x\nfields:\n  - key: n\n    type: json\n"))
	require.Error(t, err)
}

func TestLoad_OverlaysStoredValues(t *testing.T) {
	svc := NewService(mustRegistry(t), nil)
	store := &fakeStore{stored: map[string][]shopify.Metafield{
		"ecomkit": {
			{Key: "enable_offer1", Type: "boolean", Value: "true"},
			{Key: "offer1_threshold", Type: "number_decimal", Value: "49.9"},
			{Key: "offer2_threshold", Type: "number_decimal", Value: "not a number"},
			{Key: "legacy_key", Type: "single_line_text_field", Value: "ignored"},
		},
	}}

	page, err := svc.Load(context.Background(), store, "offers")
	require.NoError(t, err)
	assert.Equal(t, "true", page.Values["enable_offer1"])
	assert.Equal(t, "49.90", page.Values["offer1_threshold"])
	assert.Equal(t, "75.00", page.Values["offer2_threshold"], "uncoercible stored value keeps default")
	assert.NotContains(t, page.Values, "legacy_key")
	assert.Equal(t, 2, page.Stored)
}

func TestTyped_NumbersAreNumeric(t *testing.T) {
	reg := mustRegistry(t)
	offers, ok := reg.Get("offers")
	require.True(t, ok)
	packs, ok := reg.Get("packbuilder")
	require.True(t, ok)

	typed := offers.Typed(offers.Defaults())
	assert.Equal(t, 55.0, typed["offer1_threshold"])
	assert.Equal(t, false, typed["enable_offer1"])
	assert.Equal(t, "shipping", typed["offer1_type"])

	typed = packs.Typed(packs.Defaults())
	assert.Equal(t, int64(5), typed["max_products_per_pack"])
	assert.Equal(t, int64(10), typed["discount_value"])
}

func TestSave_RejectsNegativeThreshold(t *testing.T) {
	svc := NewService(mustRegistry(t), nil)
	store := &fakeStore{}

	_, err := svc.Save(context.Background(), store, "offers", map[string]string{
		"offer1_threshold": "-5",
		"offer3_threshold": "-0,01",
	})
	var ve ValidationError
	require.True(t, errors.As(err, &ve))
	require.Len(t, ve.Fields, 2)
	assert.Equal(t, "offer1_threshold", ve.Fields[0].Key)
	assert.Equal(t, "offer3_threshold", ve.Fields[1].Key)
	assert.Empty(t, store.batches)
}

func TestLoad_UnknownFeature(t *testing.T) {
	svc := NewService(mustRegistry(t), nil)
	_, err := svc.Load(context.Background(), &fakeStore{}, "nope")
	assert.ErrorIs(t, err, ErrUnknownFeature)
}

func TestSave_ThirtyFieldsInTwoBatches(t *testing.T) {
	svc := NewService(NewRegistry(wideSchema(t)), nil)
	store := &fakeStore{}

	form := map[string]string{}
	for i := 1; i <= 30; i++ {
		form[fmt.Sprintf("field_%02d", i)] = fmt.Sprint(i)
	}

	res, err := svc.Save(context.Background(), store, "wide", form)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 30, res.Written)
	assert.Equal(t, 2, res.Batches)
	require.Len(t, store.batches, 2)
	assert.Len(t, store.batches[0], 25)
	assert.Len(t, store.batches[1], 5)
	assert.Equal(t, "field_01", store.batches[0][0].Key)
	assert.Equal(t, "gid://shopify/Shop/1", store.batches[1][0].OwnerID)
}

func TestSave_SkipsEmptyValues(t *testing.T) {
	svc := NewService(mustRegistry(t), nil)
	store := &fakeStore{}

	res, err := svc.Save(context.Background(), store, "offers", map[string]string{
		"enable_offer1":      "on",
		"offer1_threshold":   "60,5",
		"offer1_text_before": "  ",
		"offer1_product_url": "",
	})
	require.NoError(t, err)
	assert.Equal(t, "Offres enregistrées avec succès!", res.Message)

	require.Len(t, store.batches, 1)
	want := []shopify.MetafieldsSetInput{
		{Namespace: "ecomkit", Key: "enable_offer1", Type: "boolean", Value: "true", OwnerID: "gid://shopify/Shop/1"},
		{Namespace: "ecomkit", Key: "offer1_threshold", Type: "number_decimal", Value: "60.50", OwnerID: "gid://shopify/Shop/1"},
	}
	if diff := cmp.Diff(want, store.batches[0]); diff != "" {
		t.Fatalf("metafields (-want +got):\n%s", diff)
	}
}

func TestSave_NothingToWrite(t *testing.T) {
	svc := NewService(mustRegistry(t), nil)
	store := &fakeStore{}

	res, err := svc.Save(context.Background(), store, "bundlecards", map[string]string{"pack_title_1": ""})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "Aucune modification à enregistrer", res.Message)
	assert.Empty(t, store.batches)
}

func TestSave_ValidationErrors(t *testing.T) {
	svc := NewService(mustRegistry(t), nil)
	store := &fakeStore{}

	_, err := svc.Save(context.Background(), store, "packbuilder", map[string]string{
		"min_products_per_pack": "6",
		"max_products_per_pack": "4",
		"discount_type":         "bogo",
		"mystery":               "1",
	})
	var ve ValidationError
	require.True(t, errors.As(err, &ve))
	keys := make([]string, 0, len(ve.Fields))
	for _, f := range ve.Fields {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{"discount_type", "min_products_per_pack", "mystery"}, keys)
	assert.Empty(t, store.batches, "nothing is written when validation fails")
}

func TestSave_UserErrorsStopsAndReportsWritten(t *testing.T) {
	svc := NewService(NewRegistry(wideSchema(t)), nil)
	store := &fakeStore{failBatch: 2}

	form := map[string]string{}
	for i := 1; i <= 30; i++ {
		form[fmt.Sprintf("field_%02d", i)] = "1"
	}

	res, err := svc.Save(context.Background(), store, "wide", form)
	require.Error(t, err)
	var ue shopify.UserErrors
	assert.True(t, errors.As(err, &ue))
	assert.False(t, res.Success)
	assert.Equal(t, 25, res.Written)
	assert.True(t, strings.HasPrefix(res.Message, "Une erreur est survenue lors de l'enregistrement: "))
}

func TestLoadAll_Parallel(t *testing.T) {
	r := mustRegistry(t)
	svc := NewService(r, nil)

	pages, err := svc.LoadAll(context.Background(), &fakeStore{}, r.Features())
	require.NoError(t, err)
	assert.Len(t, pages, 4)
	assert.Equal(t, "Pack 1", pages["ultimatepack"].Values["pack_title_1"])
}

func TestLoadAll_ReportsFailure(t *testing.T) {
	svc := NewService(mustRegistry(t), nil)
	pages, err := svc.LoadAll(context.Background(), &fakeStore{loadErr: errors.New("boom")}, []string{"offers"})
	require.Error(t, err)
	assert.Empty(t, pages)
}
