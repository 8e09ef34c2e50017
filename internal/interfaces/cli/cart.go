// internal/interfaces/cli/cart.go
package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
)

// NewCartCommand groups the cart commands
func NewCartCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show and change the cart",
	}

	cmd.AddCommand(newCartShowCommand(opts))
	cmd.AddCommand(newCartAddCommand(opts))
	cmd.AddCommand(newCartSetCommand(opts))
	cmd.AddCommand(newCartRemoveCommand(opts))
	cmd.AddCommand(newCartClearCommand(opts))
	return cmd
}

func newCartShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd.Context(), opts, cmd.ErrOrStderr(), func(s *Session) error {
				return showCart(cmd, opts, s)
			})
		},
	}
}

func newCartAddCommand(opts *RootOptions) *cobra.Command {
	var qty int

	cmd := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProductID(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), opts, cmd.ErrOrStderr(), func(s *Session) error {
				product, ok := s.Catalog.Get(id)
				if !ok {
					return fmt.Errorf("product %d not found", id)
				}
				if err := s.Cart.Add(cmd.Context(), product, qty); err != nil {
					return err
				}
				if !newPrinter(opts, cmd.OutOrStdout()).json() {
					fmt.Fprintf(cmd.OutOrStdout(), "Added %d x %s.\n", qty, product.Name)
				}
				return showCart(cmd, opts, s)
			})
		},
	}

	cmd.Flags().IntVarP(&qty, "qty", "q", 1, "quantity to add")
	return cmd
}

func newCartSetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <product-id> <qty>",
		Short: "Set the quantity of a cart line (0 removes it)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProductID(args[0])
			if err != nil {
				return err
			}
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			return withSession(cmd.Context(), opts, cmd.ErrOrStderr(), func(s *Session) error {
				if err := s.Cart.SetQuantity(cmd.Context(), id, qty); err != nil {
					return err
				}
				return showCart(cmd, opts, s)
			})
		},
	}
}

func newCartRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove a product from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProductID(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), opts, cmd.ErrOrStderr(), func(s *Session) error {
				s.Cart.Remove(cmd.Context(), id)
				return showCart(cmd, opts, s)
			})
		},
	}
}

func newCartClearCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd.Context(), opts, cmd.ErrOrStderr(), func(s *Session) error {
				s.Cart.Clear(cmd.Context())
				return showCart(cmd, opts, s)
			})
		},
	}
}

func showCart(cmd *cobra.Command, opts *RootOptions, s *Session) error {
	lines := s.Cart.Lines()
	totals := s.Cart.Totals()
	view := struct {
		Lines  any `json:"lines"`
		Totals any `json:"totals"`
	}{lines, totals}

	return newPrinter(opts, cmd.OutOrStdout()).emit(view, func(w io.Writer) {
		printCart(w, lines, totals, opts.Config.Tracking.DefaultCurrency)
	})
}

func parseProductID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid product id %q", s)
	}
	return id, nil
}
