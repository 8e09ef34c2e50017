// internal/interfaces/cli/consent.go
package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/elegant-store/storefront/internal/domain/consent"
)

// NewConsentCommand groups the cookie consent commands
func NewConsentCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "consent",
		Short: "Show or change the cookie consent decision",
	}

	cmd.AddCommand(newConsentShowCommand(opts))
	cmd.AddCommand(newConsentDecisionCommand(opts, "accept-all", "Accept every cookie category",
		func(cmd *cobra.Command, s *Session) { s.Consent.AcceptAll(cmd.Context()) }))
	cmd.AddCommand(newConsentDecisionCommand(opts, "accept-necessary", "Accept only necessary cookies",
		func(cmd *cobra.Command, s *Session) { s.Consent.AcceptNecessary(cmd.Context()) }))
	cmd.AddCommand(newConsentSaveCommand(opts))
	cmd.AddCommand(newConsentDecisionCommand(opts, "reset", "Forget the decision so the prompt shows again",
		func(cmd *cobra.Command, s *Session) { s.Consent.Reset(cmd.Context()) }))
	return cmd
}

func newConsentShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the saved decision",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd.Context(), opts, cmd.ErrOrStderr(), func(s *Session) error {
				return showConsent(cmd, opts, s.Consent.Current(cmd.Context()))
			})
		},
	}
}

func newConsentDecisionCommand(opts *RootOptions, use, short string, decide func(*cobra.Command, *Session)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd.Context(), opts, cmd.ErrOrStderr(), func(s *Session) error {
				decide(cmd, s)
				return showConsent(cmd, opts, s.Consent.State())
			})
		},
	}
}

func newConsentSaveCommand(opts *RootOptions) *cobra.Command {
	var prefs consent.Preferences

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save a custom selection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd.Context(), opts, cmd.ErrOrStderr(), func(s *Session) error {
				s.Consent.Save(cmd.Context(), prefs)
				return showConsent(cmd, opts, s.Consent.State())
			})
		},
	}

	cmd.Flags().BoolVar(&prefs.Analytics, "analytics", false, "allow analytics cookies")
	cmd.Flags().BoolVar(&prefs.Marketing, "marketing", false, "allow marketing cookies")
	cmd.Flags().BoolVar(&prefs.Preferences, "preferences", false, "allow preference cookies")
	return cmd
}

func showConsent(cmd *cobra.Command, opts *RootOptions, state consent.State) error {
	return newPrinter(opts, cmd.OutOrStdout()).emit(state, func(w io.Writer) {
		printConsent(w, state)
	})
}
