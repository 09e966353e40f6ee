package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"shopfront/internal/storefront"
)

// withSession opens the persistent cart for the duration of fn.
func (a *app) withSession(fn func(*storefront.Session) error) error {
	if err := os.MkdirAll(filepath.Dir(a.cartPath), 0o700); err != nil {
		return fmt.Errorf("create cart dir: %w", err)
	}
	store, err := storefront.OpenBolt(a.cartPath)
	if err != nil {
		return err
	}
	defer store.Close()

	s, err := storefront.Open(store, a.api)
	if err != nil {
		return err
	}
	return fn(s)
}

func (a *app) cartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show and change the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *storefront.Session) error {
				return a.printCart(cmd, s)
			})
		},
	}

	var qty int
	add := &cobra.Command{
		Use:   "add PRODUCT_ID",
		Short: "Add a product to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p, err := a.api.Product(cmd.Context(), id)
			if err != nil {
				return err
			}
			if p == nil {
				return fmt.Errorf("product %d not found", id)
			}
			return a.withSession(func(s *storefront.Session) error {
				if err := s.Add(p.ID, p.Name, p.Price, qty); err != nil {
					return err
				}
				return a.printCart(cmd, s)
			})
		},
	}
	add.Flags().IntVarP(&qty, "qty", "q", 1, "quantity to add")

	set := &cobra.Command{
		Use:   "set PRODUCT_ID QTY",
		Short: "Set a line quantity; 0 removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			return a.withSession(func(s *storefront.Session) error {
				if err := s.SetQty(id, n); err != nil {
					return err
				}
				return a.printCart(cmd, s)
			})
		},
	}

	remove := &cobra.Command{
		Use:   "remove PRODUCT_ID",
		Short: "Remove a line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withSession(func(s *storefront.Session) error {
				if err := s.Remove(id); err != nil {
					return err
				}
				return a.printCart(cmd, s)
			})
		},
	}

	checkout := &cobra.Command{
		Use:   "checkout",
		Short: "Place the order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *storefront.Session) error {
				r, err := s.Checkout(cmd.Context())
				if err != nil {
					return err
				}
				if r.Simulated {
					printf(cmd, "Order confirmed locally (server unavailable: %s)\n", r.Reason)
				} else {
					printf(cmd, "Order placed\n")
				}
				printf(cmd, "transaction: %s\ntotal:       %s %s\n", r.TransactionID, r.Total.StringFixed(2), r.Currency)
				return nil
			})
		},
	}

	cmd.AddCommand(add, set, remove, checkout)
	return cmd
}

func (a *app) printCart(cmd *cobra.Command, s *storefront.Session) error {
	cart := s.Cart()
	if cart.Empty() {
		printf(cmd, "Cart is empty\n")
		return nil
	}
	w := a.table(cmd)
	fmt.Fprintln(w, "ID\tNAME\tPRICE\tQTY\tSUBTOTAL")
	for _, l := range cart.Lines {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", l.ProductID, l.Name, l.Price.StringFixed(2), l.Qty, l.Subtotal().StringFixed(2))
	}
	fmt.Fprintf(w, "\t\t\t\t%s\n", cart.Total().StringFixed(2))
	return w.Flush()
}
