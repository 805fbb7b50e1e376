package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"ecomkit/internal/settings"
	"ecomkit/internal/shop"
	"ecomkit/pkg/db"
	"ecomkit/pkg/shopify"
)

var (
	shopDomain  string
	accessToken string
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Inspect and edit a shop's settings metafields",
}

var settingsListCmd = &cobra.Command{
	Use:   "features",
	Short: "List the settings pages and their metafield namespaces",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := settings.LoadRegistry()
		if err != nil {
			return err
		}
		for _, f := range reg.Features() {
			s, _ := reg.Get(f)
			fmt.Fprintf(cmd.OutOrStdout(), "%-14s %-14s %d fields\n", f, s.Namespace, len(s.Fields))
		}
		return nil
	},
}

var settingsDumpCmd = &cobra.Command{
	Use:   "dump <feature>",
	Short: "Print current values (defaults overlaid with stored metafields) as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, store, err := settingsClient(cmd.Context())
		if err != nil {
			return err
		}
		page, err := svc.Load(cmd.Context(), store, args[0])
		if err != nil {
			return err
		}

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(map[string]any{
			"feature":   page.Feature,
			"namespace": page.Namespace,
			"stored":    page.Stored,
			"values":    page.Values,
		})
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <feature> key=value...",
	Short: "Validate and write settings exactly like the admin form",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		form := make(map[string]string, len(args)-1)
		for _, kv := range args[1:] {
			k, v, ok := strings.Cut(kv, "=")
			if !ok {
				return fmt.Errorf("expected key=value, got %q", kv)
			}
			form[k] = v
		}

		svc, store, err := settingsClient(cmd.Context())
		if err != nil {
			return err
		}
		res, err := svc.Save(cmd.Context(), store, args[0], form)
		if err != nil {
			var ve settings.ValidationError
			if errors.As(err, &ve) {
				for _, f := range ve.Fields {
					fmt.Fprintf(os.Stderr, "  %s: %s\n", f.Key, f.Message)
				}
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%d written, %d batches)\n", res.Message, res.Written, res.Batches)
		return nil
	},
}

func settingsClient(ctx context.Context) (*settings.Service, settings.Store, error) {
	reg, err := settings.LoadRegistry()
	if err != nil {
		return nil, nil, err
	}
	domain := shopify.NormalizeShopDomain(shopDomain)

	token := accessToken
	if token == "" {
		pool, err := db.Open(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("db open: %w", err)
		}
		defer pool.Close()

		s, err := shop.NewRepository(pool).FindByDomain(ctx, domain)
		if err != nil {
			return nil, nil, fmt.Errorf("load shop %s: %w", domain, err)
		}
		if !s.Installed() {
			return nil, nil, fmt.Errorf("shop %s is not installed", domain)
		}
		token = s.AccessToken
	}

	store := shopify.Client{ShopDomain: domain, AccessToken: token, APIVersion: cfg.Shopify.APIVersion}
	return settings.NewService(reg, log.Named("settings")), store, nil
}
