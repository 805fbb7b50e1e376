package settings

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ecomkit/pkg/shopify"
)

var ErrUnknownFeature = errors.New("unknown settings feature")

const (
	msgNothingToSave = "Aucune modification à enregistrer"
	msgSaveFailed    = "Une erreur est survenue lors de l'enregistrement: "
)

// Store is the part of the Admin API the settings pages need. shopify.Client satisfies it.
type Store interface {
	ShopID(ctx context.Context) (string, error)
	ShopMetafields(ctx context.Context, namespace string) ([]shopify.Metafield, error)
	SetMetafields(ctx context.Context, inputs []shopify.MetafieldsSetInput) ([]shopify.Metafield, error)
}

// Page is what a settings page renders: the schema plus current values.
type Page struct {
	Feature   string            `json:"feature"`
	Namespace string            `json:"namespace"`
	Title     string            `json:"title"`
	Fields    []Field           `json:"fields"`
	Values    map[string]string `json:"values"`
	// Stored counts the values that came from the shop rather than defaults.
	Stored int `json:"stored"`
}

// SaveResult mirrors the banner the admin page shows after a submit.
type SaveResult struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Written int               `json:"written"`
	Batches int               `json:"batches"`
	Keys    []string          `json:"keys,omitempty"`
	Values  map[string]string `json:"-"`
}

type Service struct {
	registry  *Registry
	log       *zap.Logger
	batchSize int
}

func NewService(registry *Registry, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{registry: registry, log: log, batchSize: shopify.MaxMetafieldsPerSet}
}

func (s *Service) Registry() *Registry { return s.registry }

func (s *Service) schema(feature string) (*Schema, error) {
	sc, ok := s.registry.Get(feature)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFeature, feature)
	}
	return sc, nil
}

// Load returns the defaults overlaid with whatever the shop has stored.
func (s *Service) Load(ctx context.Context, store Store, feature string) (Page, error) {
	sc, err := s.schema(feature)
	if err != nil {
		return Page{}, err
	}
	stored, err := store.ShopMetafields(ctx, sc.Namespace)
	if err != nil {
		return Page{}, fmt.Errorf("load %s metafields: %w", sc.Namespace, err)
	}
	values, n := s.overlay(sc, stored)
	return Page{
		Feature:   sc.Feature,
		Namespace: sc.Namespace,
		Title:     sc.Title,
		Fields:    sc.Fields,
		Values:    values,
		Stored:    n,
	}, nil
}

func (s *Service) overlay(sc *Schema, stored []shopify.Metafield) (map[string]string, int) {
	values := sc.Defaults()
	n := 0
	for _, m := range stored {
		f, ok := sc.Field(m.Key)
		if !ok {
			continue
		}
		v, err := f.Coerce(m.Value)
		if err != nil {
			s.log.Warn("stored metafield does not match schema, keeping default",
				zap.String("namespace", sc.Namespace),
				zap.String("key", m.Key),
				zap.String("value", m.Value),
				zap.Error(err),
			)
			continue
		}
		values[m.Key] = v
		n++
	}
	return values, n
}

// LoadAll loads several features in parallel. Features that fail to load are left out
// and the first error is returned alongside whatever did load.
func (s *Service) LoadAll(ctx context.Context, store Store, features []string) (map[string]Page, error) {
	pages := make([]Page, len(features))
	errs := make([]error, len(features))

	var g errgroup.Group
	for i, feature := range features {
		g.Go(func() error {
			pages[i], errs[i] = s.Load(ctx, store, feature)
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]Page, len(features))
	var firstErr error
	for i, feature := range features {
		if errs[i] != nil {
			if firstErr == nil {
				firstErr = errs[i]
			}
			continue
		}
		out[feature] = pages[i]
	}
	return out, firstErr
}

// Save validates a form submission and writes it as shop metafields in batches.
// A ValidationError is returned before anything is written. When a batch fails the
// result reports how many fields earlier batches already wrote.
func (s *Service) Save(ctx context.Context, store Store, feature string, form map[string]string) (SaveResult, error) {
	sc, err := s.schema(feature)
	if err != nil {
		return SaveResult{}, err
	}
	sub, err := sc.ParseSubmission(form)
	if err != nil {
		return SaveResult{Message: msgSaveFailed + err.Error()}, err
	}
	if len(sub.Values) == 0 {
		return SaveResult{Success: true, Message: msgNothingToSave}, nil
	}

	ownerID, err := store.ShopID(ctx)
	if err != nil {
		return SaveResult{Message: msgSaveFailed + err.Error()}, fmt.Errorf("resolve shop id: %w", err)
	}

	keys := sc.keysOf(sub.Values)
	inputs := make([]shopify.MetafieldsSetInput, 0, len(keys))
	for _, k := range keys {
		f, _ := sc.Field(k)
		inputs = append(inputs, shopify.MetafieldsSetInput{
			Namespace: sc.Namespace,
			Key:       k,
			Type:      f.Type,
			Value:     sub.Values[k],
			OwnerID:   ownerID,
		})
	}

	res := SaveResult{Keys: keys, Values: sub.Values}
	for _, batch := range shopify.ChunkMetafields(inputs, s.batchSize) {
		if _, err := store.SetMetafields(ctx, batch); err != nil {
			res.Message = msgSaveFailed + err.Error()
			s.log.Error("metafieldsSet failed",
				zap.String("namespace", sc.Namespace),
				zap.Int("batch", res.Batches+1),
				zap.Int("written", res.Written),
				zap.Error(err),
			)
			return res, fmt.Errorf("write %s batch %d: %w", sc.Namespace, res.Batches+1, err)
		}
		res.Batches++
		res.Written += len(batch)
	}

	res.Success = true
	res.Message = sc.SavedMessage
	if res.Message == "" {
		res.Message = "Paramètres enregistrés avec succès!"
	}
	s.log.Info("settings saved",
		zap.String("namespace", sc.Namespace),
		zap.Int("written", res.Written),
		zap.Int("batches", res.Batches),
	)
	return res, nil
}
