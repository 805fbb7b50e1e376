// Command ecomkitctl is the operator CLI: schema migrations, shop settings inspection
// and a cart drawer runner for live storefronts.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ecomkit/pkg/config"
	"ecomkit/pkg/logx"
)

var (
	verbose bool

	cfg config.Config
	log *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:           "ecomkitctl",
	Short:         "Operate the Ecomkit Shopify app backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		if verbose {
			cfg.LogLevel = "debug"
		}
		l, err := logx.New(cfg)
		if err != nil {
			return fmt.Errorf("logger: %w", err)
		}
		log = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(migrateCmd)

	settingsCmd.PersistentFlags().StringVar(&shopDomain, "shop", "", "Shop domain (example.myshopify.com)")
	settingsCmd.PersistentFlags().StringVar(&accessToken, "token", "", "Offline access token (default: read from the shops table)")
	_ = settingsCmd.MarkPersistentFlagRequired("shop")
	settingsCmd.AddCommand(settingsListCmd, settingsDumpCmd, settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)

	drawerWatchCmd.Flags().StringVar(&storeURL, "store-url", "", "Storefront base URL (https://shop.example)")
	drawerWatchCmd.Flags().DurationVar(&pollInterval, "interval", 0, "Poll interval (0 refreshes on Enter only)")
	_ = drawerWatchCmd.MarkFlagRequired("store-url")
	for _, c := range []*cobra.Command{drawerWatchCmd, drawerEvalCmd} {
		c.Flags().StringVar(&freeShipping, "free-shipping-threshold", "", "data-free-shipping-threshold (default 69)")
		c.Flags().StringVar(&bonusThreshold, "bonus-threshold", "", "data-bonus-threshold (default 100)")
		c.Flags().StringVar(&bonusVariant, "bonus-variant-id", "", "data-bonus-variant-id")
	}
	drawerCmd.AddCommand(drawerWatchCmd, drawerEvalCmd)
	rootCmd.AddCommand(drawerCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
