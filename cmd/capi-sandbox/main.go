// cmd/capi-sandbox/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/elegant-store/storefront/internal/config"
	"github.com/elegant-store/storefront/internal/pkg/logger"
	"github.com/elegant-store/storefront/internal/sandbox"
)

func main() {
	var (
		addr        string
		accessToken string
	)

	cmd := &cobra.Command{
		Use:   "capi-sandbox",
		Short: "Local emulator of the attribution events endpoint and pixel beacon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := logger.New(config.LoggingConfig{
				Level:  os.Getenv("LOG_LEVEL"),
				Format: os.Getenv("LOG_FORMAT"),
			})

			handler := sandbox.NewHandler(sandbox.NewStore(), accessToken, log)
			srv := &http.Server{
				Addr:              addr,
				Handler:           sandbox.NewRouter(handler),
				ReadHeaderTimeout: 5 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()

			log.WithField("addr", addr).Info("Attribution sandbox listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8090", "listen address")
	cmd.Flags().StringVar(&accessToken, "access-token", os.Getenv("FB_ACCESS_TOKEN"), "access token to accept (empty accepts any)")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
