package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func (a *app) categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			categories, err := a.api.Categories(cmd.Context())
			if err != nil {
				return err
			}
			w := a.table(cmd)
			fmt.Fprintln(w, "ID\tNAME")
			for _, c := range categories {
				fmt.Fprintf(w, "%d\t%s\n", c.ID, c.Name)
			}
			return w.Flush()
		},
	}
}

func (a *app) productsCmd() *cobra.Command {
	var categoryID int64
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter *int64
			if cmd.Flags().Changed("category") {
				filter = &categoryID
			}
			products, err := a.api.Products(cmd.Context(), filter)
			if err != nil {
				return err
			}
			w := a.table(cmd)
			fmt.Fprintln(w, "ID\tNAME\tPRICE\tCATEGORY\tIMAGE")
			for _, p := range products {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", p.ID, p.Name, p.Price.StringFixed(2), p.CategoryID, p.ImageStatus)
			}
			return w.Flush()
		},
	}
	cmd.Flags().Int64Var(&categoryID, "category", 0, "only products in this category")
	return cmd
}

func (a *app) productCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "product ID",
		Short: "Show one product",
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
			printf(cmd, "%s (#%d)\n", p.Name, p.ID)
			printf(cmd, "price:     %s\n", p.Price.StringFixed(2))
			printf(cmd, "category:  %d\n", p.CategoryID)
			if p.Image != "" {
				printf(cmd, "image:     %s\n", a.api.ImageURL(p.Image))
			}
			if p.Thumbnail != "" {
				printf(cmd, "thumbnail: %s\n", a.api.ImageURL(p.Thumbnail))
			}
			if p.Description != "" {
				printf(cmd, "\n%s\n", p.Description)
			}
			return nil
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
