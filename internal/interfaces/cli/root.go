// internal/interfaces/cli/root.go

// Package cli is the storefront browsing session on the command line: it
// keeps the cart and consent in durable local storage and reports
// commerce events the way the storefront pages do.
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/elegant-store/storefront/internal/config"
)

// ValidFormats are the accepted --format values
var ValidFormats = []string{"text", "json"}

// RootOptions holds global flags for all commands
type RootOptions struct {
	Config *config.Config

	DataPath string
	Storage  string
	Session  string
	RelayURL string
	PixelID  string
	ClickID  string
	Format   string
}

// NewRootCommand creates the storefront command. Flags default to the
// values in cfg and override them when set.
func NewRootCommand(cfg *config.Config) *cobra.Command {
	opts := &RootOptions{Config: cfg}

	cmd := &cobra.Command{
		Use:   "storefront",
		Short: "Elegant Store browsing session",
		Long: `Browse the Elegant Store catalog, manage the cart and cookie consent,
and check out through WhatsApp. Commerce events are reported through the
pixel channel (with consent) and the server relay.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return opts.apply()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.DataPath, "data", cfg.Storefront.DataPath, "session database file (sqlite storage)")
	flags.StringVar(&opts.Storage, "storage", cfg.Storefront.StorageDriver, "session storage (sqlite|redis|memory)")
	flags.StringVar(&opts.Session, "session", cfg.Storefront.SessionID, "session id (redis storage)")
	flags.StringVar(&opts.RelayURL, "relay-url", cfg.Tracking.RelayURL, "server relay endpoint")
	flags.StringVar(&opts.PixelID, "pixel-id", cfg.Tracking.PublicPixelID, "public pixel id of the client channel")
	flags.StringVar(&opts.ClickID, "fbclid", "", "ad click id the session arrived with")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewProductsCommand(opts))
	cmd.AddCommand(NewCartCommand(opts))
	cmd.AddCommand(NewConsentCommand(opts))
	cmd.AddCommand(NewCheckoutCommand(opts))
	cmd.AddCommand(NewTrackCommand(opts))

	return cmd
}

// apply copies the flag values into the configuration and validates it
func (o *RootOptions) apply() error {
	o.Config.Storefront.DataPath = o.DataPath
	o.Config.Storefront.StorageDriver = o.Storage
	o.Config.Storefront.SessionID = o.Session
	o.Config.Tracking.RelayURL = o.RelayURL
	o.Config.Tracking.PublicPixelID = o.PixelID

	switch o.Storage {
	case "sqlite", "redis", "memory":
	default:
		return fmt.Errorf("invalid storage %q: must be one of sqlite, redis, memory", o.Storage)
	}
	if o.RelayURL == "" {
		return fmt.Errorf("a relay URL is required")
	}
	return nil
}
