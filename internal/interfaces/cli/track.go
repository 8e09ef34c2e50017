// internal/interfaces/cli/track.go
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/elegant-store/storefront/internal/domain/catalog"
	"github.com/elegant-store/storefront/internal/domain/tracking"
)

// NewTrackCommand reports a single event, e.g. a page view
func NewTrackCommand(opts *RootOptions) *cobra.Command {
	var (
		productID int
		qty       int
	)

	cmd := &cobra.Command{
		Use:   "track <event-name>",
		Short: "Report a single commerce event",
		Long: `Report one event through both channels and print the relay result.

Examples:
  storefront track PageView
  storefront track AddToCart --product 2 --qty 3
  storefront track ViewContent --product 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), opts, cmd.ErrOrStderr(), func(s *Session) error {
				name := tracking.EventName(args[0])

				var (
					product catalog.Product
					found   bool
				)
				if productID > 0 {
					if product, found = s.Catalog.Get(productID); !found {
						return fmt.Errorf("product %d not found", productID)
					}
				}

				var result tracking.Result
				switch {
				case name == tracking.PageView && !found:
					result = s.Tracker.TrackPageView(cmd.Context())
				case name == tracking.AddToCart && found:
					result = s.Tracker.TrackAddToCart(cmd.Context(), product, qty)
				case name == tracking.AddToCart:
					return fmt.Errorf("%s needs --product", name)
				default:
					var payload tracking.Payload
					if found {
						payload = tracking.AddToCartPayload(product, 1, opts.Config.Tracking.DefaultCurrency)
					}
					result = s.Tracker.Dispatch(cmd.Context(), name, payload)
				}
				return newPrinter(opts, cmd.OutOrStdout()).emit(result, func(w io.Writer) {
					status := "not delivered"
					if result.OK {
						status = "delivered"
					}
					fmt.Fprintf(w, "%s %s (relay status %d)\n", args[0], status, result.Status)
				})
			})
		},
	}

	cmd.Flags().IntVar(&productID, "product", 0, "product the event is about")
	cmd.Flags().IntVar(&qty, "qty", 1, "quantity for AddToCart")
	return cmd
}
