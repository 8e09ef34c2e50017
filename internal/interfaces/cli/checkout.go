// internal/interfaces/cli/checkout.go
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/elegant-store/storefront/internal/domain/cart"
	"github.com/elegant-store/storefront/internal/domain/checkout"
)

// NewCheckoutCommand hands the cart off to WhatsApp
func NewCheckoutCommand(opts *RootOptions) *cobra.Command {
	var form checkout.Form

	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place the order through WhatsApp",
		Long: `Validate the delivery details, report the purchase and print the
WhatsApp message and link that complete the order.

Example:
  storefront checkout --name Sara --phone 0501234567 --emirate Dubai`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd.Context(), opts, cmd.ErrOrStderr(), func(s *Session) error {
				receipt, err := s.Checkout.Checkout(cmd.Context(), form)
				if err != nil {
					return err
				}
				return newPrinter(opts, cmd.OutOrStdout()).emit(receipt, func(w io.Writer) {
					currency := opts.Config.Tracking.DefaultCurrency
					fmt.Fprintf(w, "Order total: %s %s (including %s delivery)\n\n",
						cart.FormatAmount(receipt.Total), currency, cart.FormatAmount(receipt.DeliveryFee))
					fmt.Fprintln(w, indent(receipt.Message, "  "))
					fmt.Fprintf(w, "\nOpen WhatsApp to send it:\n%s\n", receipt.WhatsAppURL)
				})
			})
		},
	}

	cmd.Flags().StringVar(&form.Name, "name", "", "full name")
	cmd.Flags().StringVar(&form.Phone, "phone", "", "mobile number (05XXXXXXXX)")
	cmd.Flags().StringVar(&form.Emirate, "emirate", "", "delivery emirate")
	return cmd
}
