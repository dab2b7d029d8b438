package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/taigrr/garment/internal/api"
)

func newCartCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Manage the shopping cart",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List cart items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PRODUCT\tNAME\tSIZE\tPRICE")
			for _, p := range a.sess.Cart.Items() {
				size := "-"
				if p.Size != nil {
					size = p.Size.Name
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Name, size, p.Price)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			total, err := a.sess.Cart.Total()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Total: %.2f\n", total)
			return nil
		},
	}

	var item api.Product
	var sizeID, sizeName string
	add := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product in a size",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := item
			p.ID = args[0]
			if sizeID != "" {
				p.Size = &api.Size{ID: sizeID, Name: sizeName, Value: sizeName}
			}
			if !a.sess.Cart.Add(p) {
				fmt.Fprintln(cmd.OutOrStdout(), "Item already in cart")
				return nil
			}
			if err := a.sess.Save(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Item added to cart")
			return nil
		},
	}
	add.Flags().StringVar(&item.Name, "name", "", "Product name")
	add.Flags().StringVar(&item.Price, "price", "0", "Unit price")
	add.Flags().StringVar(&sizeID, "size", "", "Size ID")
	add.Flags().StringVar(&sizeName, "size-name", "", "Size label")

	var removeSize string
	remove := &cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove a product in a size",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.sess.Cart.Remove(args[0], removeSize) {
				return errors.New("item not in cart")
			}
			if err := a.sess.Save(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Item removed from cart")
			return nil
		},
	}
	remove.Flags().StringVar(&removeSize, "size", "", "Size ID")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.sess.Cart.RemoveAll()
			if err := a.sess.Save(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All items removed from cart")
			return nil
		},
	}

	cmd.AddCommand(list, add, remove, clearCmd)
	return cmd
}
