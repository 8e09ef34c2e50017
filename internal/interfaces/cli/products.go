// internal/interfaces/cli/products.go
package cli

import (
	"io"

	"github.com/spf13/cobra"
)

// NewProductsCommand lists the catalog
func NewProductsCommand(opts *RootOptions) *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "products",
		Short: "List the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd.Context(), opts, cmd.ErrOrStderr(), func(s *Session) error {
				products := s.Catalog.List()
				if search != "" {
					products = s.Catalog.Search(search)
				}
				return newPrinter(opts, cmd.OutOrStdout()).emit(products, func(w io.Writer) {
					printProducts(w, products, opts.Config.Tracking.DefaultCurrency)
				})
			})
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "filter by name")
	return cmd
}
