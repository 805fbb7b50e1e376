package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ecomkit/internal/cart"
	"ecomkit/pkg/shopify"
)

var (
	storeURL       string
	pollInterval   time.Duration
	freeShipping   string
	bonusThreshold string
	bonusVariant   string
)

var drawerCmd = &cobra.Command{
	Use:   "drawer",
	Short: "Run the cart drawer threshold engine",
}

var drawerWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep a storefront cart's bonus line in step with its total",
	Long: `Drive a storefront cart session through the AJAX cart API.

The drawer refreshes on start, on every --interval tick and whenever a line is read
from stdin. Each refresh applies at most one bonus add/remove. Run with -v to log
every rendered view.`,
	RunE: runDrawerWatch,
}

var drawerEvalCmd = &cobra.Command{
	Use:   "eval [cart.json]",
	Short: "Render a /cart.js snapshot and print the pending bonus action",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDrawerEval,
}

func drawerConfig() cart.Config {
	return cart.ConfigFromAttributes(map[string]string{
		cart.AttrFreeShippingThreshold: freeShipping,
		cart.AttrBonusThreshold:        bonusThreshold,
		cart.AttrBonusVariantID:        bonusVariant,
	})
}

func runDrawerWatch(cmd *cobra.Command, args []string) error {
	client, err := shopify.NewStorefrontCart(storeURL)
	if err != nil {
		return err
	}
	d := cart.NewDrawer(client, drawerConfig(), log.Named("drawer"))

	triggers := make(chan struct{})
	go func() {
		sc := bufio.NewScanner(cmd.InOrStdin())
		for sc.Scan() {
			select {
			case triggers <- struct{}{}:
			case <-cmd.Context().Done():
				return
			}
		}
		close(triggers)
	}()

	ctx := cmd.Context()
	err = d.Run(ctx, pollInterval, triggers)
	printView(cmd.OutOrStdout(), d.Last())
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func runDrawerEval(cmd *cobra.Command, args []string) error {
	var r io.Reader = cmd.InOrStdin()
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	var c shopify.Cart
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return fmt.Errorf("decode cart: %w", err)
	}
	cfg := drawerConfig()
	printView(cmd.OutOrStdout(), cart.Render(c, cfg))

	a := cart.Decide(c, cfg)
	fmt.Fprintf(cmd.OutOrStdout(), "action: %s", a.Kind)
	if a.Kind != cart.ActionNone {
		fmt.Fprintf(cmd.OutOrStdout(), " variant=%d", a.VariantID)
		if a.LineKey != "" {
			fmt.Fprintf(cmd.OutOrStdout(), " line=%s", a.LineKey)
		}
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return nil
}

func printView(w io.Writer, v cart.View) {
	if v.Empty {
		fmt.Fprintln(w, v.EmptyText)
	}
	for _, l := range v.Lines {
		fmt.Fprintf(w, "  %-40s %s\n", l.Title, l.Price)
	}
	fmt.Fprintln(w, v.Total)
	fmt.Fprintf(w, "[%s] %s\n", v.Progress.Width, v.Progress.Shipping.Text)
	fmt.Fprintf(w, "[%s] %s\n", v.Progress.Width, v.Progress.Bonus.Text)
}
