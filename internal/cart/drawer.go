package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"ecomkit/pkg/shopify"
)

// CartClient is the storefront AJAX cart. *shopify.StorefrontCart implements it.
type CartClient interface {
	Get(ctx context.Context) (shopify.Cart, error)
	Add(ctx context.Context, variantID int64, quantity int) error
	Change(ctx context.Context, lineKey string, quantity int) error
}

// Drawer keeps the drawer view in step with the live cart and reconciles the bonus line.
//
// Every Refresh re-reads the cart, so drift is corrected on the next trigger.
// Overlapping Refresh calls share one fetch/reconcile chain.
type Drawer struct {
	client CartClient
	cfg    Config
	log    *zap.Logger

	group singleflight.Group

	mu   sync.RWMutex
	last View
}

func NewDrawer(client CartClient, cfg Config, log *zap.Logger) *Drawer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Drawer{
		client: client,
		cfg:    cfg,
		log:    log,
		last:   Render(shopify.Cart{}, cfg),
	}
}

// Last returns the most recently rendered view.
func (d *Drawer) Last() View {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.last
}

func (d *Drawer) store(v View) {
	d.mu.Lock()
	d.last = v
	d.mu.Unlock()
}

// refreshTimeout bounds a shared refresh chain, which outlives any single caller's context.
const refreshTimeout = 30 * time.Second

// Refresh fetches the cart, renders it and applies at most one bonus mutation followed
// by a re-fetch. On error the previous view is kept and the error returned; nothing is retried.
//
// Callers that overlap join the chain already in flight. A caller whose ctx ends stops
// waiting and gets the last view; the chain itself keeps running for the others.
func (d *Drawer) Refresh(ctx context.Context) (View, error) {
	ch := d.group.DoChan("refresh", func() (any, error) {
		work, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return d.refresh(work)
	})
	select {
	case <-ctx.Done():
		return d.Last(), ctx.Err()
	case res := <-ch:
		view, _ := res.Val.(View)
		return view, res.Err
	}
}

func (d *Drawer) refresh(ctx context.Context) (View, error) {
	c, err := d.client.Get(ctx)
	if err != nil {
		d.log.Error("cart fetch failed", zap.Error(err))
		return d.Last(), fmt.Errorf("fetch cart: %w", err)
	}
	view := d.render(c)

	action := Decide(c, d.cfg)
	if action.Kind == ActionNone {
		return view, nil
	}

	if err := d.apply(ctx, action); err != nil {
		d.log.Error("bonus mutation failed", zap.Stringer("action", action.Kind), zap.Error(err))
		return view, fmt.Errorf("%s bonus: %w", action.Kind, err)
	}
	d.log.Info("bonus line reconciled",
		zap.Stringer("action", action.Kind),
		zap.Int64("variant_id", action.VariantID),
		zap.Int64("total_price", c.TotalPrice),
	)

	c, err = d.client.Get(ctx)
	if err != nil {
		d.log.Error("cart resync failed", zap.Error(err))
		return view, fmt.Errorf("resync cart: %w", err)
	}
	view = d.render(c)

	if next := Decide(c, d.cfg); next.Kind != ActionNone {
		d.log.Warn("bonus line still out of sync after mutation", zap.Stringer("pending", next.Kind))
	}
	return view, nil
}

func (d *Drawer) render(c shopify.Cart) View {
	view := Render(c, d.cfg)
	d.store(view)
	d.log.Debug("drawer rendered",
		zap.Int("lines", len(view.Lines)),
		zap.String("total", view.Total),
		zap.String("progress", view.Progress.Width),
		zap.String("shipping", view.Progress.Shipping.Text),
		zap.String("bonus", view.Progress.Bonus.Text),
	)
	return view
}

func (d *Drawer) apply(ctx context.Context, a Action) error {
	switch a.Kind {
	case ActionAdd:
		return d.client.Add(ctx, a.VariantID, 1)
	case ActionRemove:
		return d.client.Change(ctx, a.LineKey, 0)
	default:
		return nil
	}
}

// Run refreshes once, then on every tick and every trigger until ctx is done.
// A zero interval disables polling so only triggers refresh.
func (d *Drawer) Run(ctx context.Context, interval time.Duration, triggers <-chan struct{}) error {
	log := d.log.With(zap.String("run_id", uuid.NewString()))
	log.Info("cart drawer started", zap.Duration("interval", interval))

	var tick <-chan time.Time
	if interval > 0 {
		t := time.NewTicker(interval)
		defer t.Stop()
		tick = t.C
	}

	_, _ = d.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Info("cart drawer stopped")
			return ctx.Err()
		case <-tick:
			_, _ = d.Refresh(ctx)
		case _, ok := <-triggers:
			if !ok {
				triggers = nil
				continue
			}
			_, _ = d.Refresh(ctx)
		}
	}
}
