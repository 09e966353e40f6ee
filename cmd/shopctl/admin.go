package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"shopfront/internal/admin"
)

func (a *app) adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage the catalog",
	}

	login := &cobra.Command{
		Use:   "login",
		Short: "Log in and print a token for SHOPFRONT_TOKEN",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printf(cmd, "password: ")
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read password: %w", err)
			}
			token, err := a.api.Login(cmd.Context(), strings.TrimRight(line, "\r\n"))
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", token)
			return nil
		},
	}

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Revoke the current token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.api.Logout(cmd.Context())
		},
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the management tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := admin.NewConsole(a.api).Load(cmd.Context())
			if err != nil {
				return err
			}
			w := a.table(cmd)
			fmt.Fprintln(w, "CATEGORY\tNAME\tPRODUCTS")
			for _, r := range v.Categories {
				fmt.Fprintf(w, "%d\t%s\t%d\n", r.ID, r.Name, r.Products)
			}
			fmt.Fprintln(w)
			fmt.Fprintln(w, "PRODUCT\tNAME\tCATEGORY\tPRICE\tIMAGE\tTHUMBNAIL")
			for _, r := range v.Products {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", r.ID, r.Name, r.CategoryName, r.Price.StringFixed(2), r.ImageStatus, r.ThumbnailURL)
			}
			return w.Flush()
		},
	}

	reconcile := &cobra.Command{
		Use:   "reconcile",
		Short: "Settle products whose image write did not finish",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := admin.NewConsole(a.api).Reconcile(cmd.Context())
			if err != nil {
				return err
			}
			printf(cmd, "checked %d, resumed %d, finalized %d, thumbnails %d, failed %d, skipped %d\n",
				r.Checked, r.Resumed, r.Finalized, r.Thumbnails, r.Failed, r.Skipped)
			return nil
		},
	}

	cmd.AddCommand(login, logout, show, reconcile, a.adminCategoryCmd(), a.adminProductCmd())
	return cmd
}

func (a *app) adminCategoryCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "category", Short: "Create, rename or delete categories"}

	cmd.AddCommand(
		&cobra.Command{
			Use:  "create NAME",
			Args: cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := admin.NewConsole(a.api).CreateCategory(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printf(cmd, "created category %d\n", c.ID)
				return nil
			},
		},
		&cobra.Command{
			Use:  "rename ID NAME",
			Args: cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				return admin.NewConsole(a.api).RenameCategory(cmd.Context(), id, args[1])
			},
		},
		&cobra.Command{
			Use:  "delete ID",
			Args: cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				return admin.NewConsole(a.api).DeleteCategory(cmd.Context(), id)
			},
		},
	)
	return cmd
}

func (a *app) adminProductCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "product", Short: "Create, update or delete products"}

	var (
		categoryID  int64
		name        string
		price       string
		description string
		imagePath   string
	)
	edit := func() (admin.ProductEdit, func(), error) {
		e := admin.ProductEdit{CategoryID: categoryID, Name: name, Description: description}
		closer := func() {}
		if price != "" {
			p, err := decimal.NewFromString(price)
			if err != nil {
				return e, closer, fmt.Errorf("invalid price %q", price)
			}
			e.Price = p
		}
		if imagePath != "" {
			f, err := os.Open(imagePath)
			if err != nil {
				return e, closer, err
			}
			e.Image = f
			e.ImageName = filepath.Base(imagePath)
			closer = func() { f.Close() }
		}
		return e, closer, nil
	}
	flags := func(c *cobra.Command) {
		c.Flags().Int64Var(&categoryID, "category", 0, "category id")
		c.Flags().StringVar(&name, "name", "", "product name")
		c.Flags().StringVar(&price, "price", "", "unit price")
		c.Flags().StringVar(&description, "description", "", "Markdown description")
		c.Flags().StringVar(&imagePath, "image", "", "image file (jpeg, png, gif, webp)")
	}

	create := &cobra.Command{
		Use:  "create",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, closer, err := edit()
			defer closer()
			if err != nil {
				return err
			}
			p, err := admin.NewConsole(a.api).CreateProduct(cmd.Context(), e)
			if err != nil {
				return err
			}
			printf(cmd, "created product %d (%s)\n", p.ID, p.Image)
			return nil
		},
	}
	flags(create)

	update := &cobra.Command{
		Use:  "update ID",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			e, closer, err := edit()
			defer closer()
			if err != nil {
				return err
			}
			return admin.NewConsole(a.api).UpdateProduct(cmd.Context(), id, e)
		},
	}
	flags(update)

	del := &cobra.Command{
		Use:  "delete ID",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return admin.NewConsole(a.api).DeleteProduct(cmd.Context(), id)
		},
	}

	cmd.AddCommand(create, update, del)
	return cmd
}
