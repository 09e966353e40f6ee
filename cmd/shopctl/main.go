// Command shopctl is the terminal front end of the shop: browse the
// catalog, keep a cart across runs, check out, and manage the catalog as
// admin.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"shopfront/internal/client"
)

type app struct {
	server   string
	token    string
	cartPath string
	api      *client.Client
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "shopctl",
		Short:         "Browse the shop, manage a cart and administer the catalog",
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.api = client.New(a.server)
			a.api.SetToken(a.token)
		},
	}

	root.PersistentFlags().StringVar(&a.server, "server", envOr("SHOPFRONT_URL", "http://localhost:8080"), "shopfront server URL")
	root.PersistentFlags().StringVar(&a.token, "token", os.Getenv("SHOPFRONT_TOKEN"), "admin bearer token")
	root.PersistentFlags().StringVar(&a.cartPath, "cart", defaultCartPath(), "cart file")

	root.AddCommand(
		a.categoriesCmd(),
		a.productsCmd(),
		a.productCmd(),
		a.cartCmd(),
		a.adminCmd(),
	)
	return root
}

func (a *app) table(cmd *cobra.Command) *tabwriter.Writer {
	return tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
}

func defaultCartPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "shopctl", "cart.db")
	}
	return "shopctl-cart.db"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
