// internal/interfaces/cli/session.go
package cli

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/elegant-store/storefront/internal/domain/cart"
	"github.com/elegant-store/storefront/internal/domain/catalog"
	"github.com/elegant-store/storefront/internal/domain/checkout"
	"github.com/elegant-store/storefront/internal/domain/consent"
	"github.com/elegant-store/storefront/internal/domain/pixel"
	"github.com/elegant-store/storefront/internal/domain/relay"
	"github.com/elegant-store/storefront/internal/domain/session"
	"github.com/elegant-store/storefront/internal/domain/tracking"
	redisdb "github.com/elegant-store/storefront/internal/infrastructure/database/redis"
	"github.com/elegant-store/storefront/internal/infrastructure/storage"
	"github.com/elegant-store/storefront/internal/pkg/logger"
)

// Session is one storefront visit: everything a page would set up on load
type Session struct {
	Catalog  *catalog.Catalog
	Cart     *cart.Service
	Consent  *consent.Service
	Checkout *checkout.Service
	Tracker  *tracking.Tracker
	Channel  *pixel.Channel
	Jar      *session.Jar

	store        storage.Store
	logger       logrus.FieldLogger
	flushTimeout time.Duration
}

// openSession restores the visit from durable storage. Logs and tracking
// notices go to errOut.
func openSession(ctx context.Context, opts *RootOptions, errOut io.Writer) (*Session, error) {
	cfg := opts.Config
	errOut = &syncWriter{w: errOut}
	log := logger.NewWithOutput(cfg.Logging, errOut)

	cat, err := catalog.Load(cfg.Storefront.CatalogPath)
	if err != nil {
		return nil, err
	}

	store, err := openStorage(opts, log)
	if err != nil {
		return nil, err
	}

	jar := session.NewJar(ctx, store, cfg.Storefront.UserAgent, cfg.Storefront.SiteURL, log)
	if opts.ClickID != "" {
		jar.Set(tracking.ClickIDCookie, pixel.ClickID(time.Now(), opts.ClickID))
	}

	channel := pixel.NewChannel(
		pixel.NewBeaconSender(cfg.Tracking.PixelEndpoint, cfg.Tracking.RelayTimeout),
		log,
		pixel.WithCookies(jar),
	)
	consentService := consent.NewService(store, channel, cfg.Tracking.PublicPixelID, log)

	trackerOpts := []tracking.Option{
		tracking.WithCurrency(cfg.Tracking.DefaultCurrency),
		tracking.WithNotice(func(n tracking.Notice) {
			fmt.Fprintf(errOut, "notice: %s was not recorded (status %d)\n", n.EventName, n.Status)
		}),
	}
	if cfg.Tracking.GateRelayOnConsent {
		trackerOpts = append(trackerOpts, tracking.WithConsentGate(consentService))
	}
	tracker := tracking.NewTracker(
		channel,
		relay.NewClient(cfg.Tracking.RelayURL, cfg.Tracking.RelayTimeout, log),
		jar,
		log,
		trackerOpts...,
	)

	consentService.Restore(ctx)

	cartService := cart.NewService(ctx, store, tracker, log)
	checkoutService := checkout.NewService(cartService, tracker, checkout.Config{
		DeliveryFee:    cfg.Storefront.DeliveryFee,
		Currency:       cfg.Tracking.DefaultCurrency,
		WhatsAppNumber: cfg.Storefront.WhatsAppNumber,
		GateDelay:      cfg.Storefront.CheckoutGateDelay,
	}, log)

	return &Session{
		Catalog:      cat,
		Cart:         cartService,
		Consent:      consentService,
		Checkout:     checkoutService,
		Tracker:      tracker,
		Channel:      channel,
		Jar:          jar,
		store:        store,
		logger:       log,
		flushTimeout: cfg.Storefront.FlushTimeout,
	}, nil
}

func openStorage(opts *RootOptions, log logrus.FieldLogger) (storage.Store, error) {
	cfg := opts.Config

	switch cfg.Storefront.StorageDriver {
	case "memory":
		return storage.NewMemory(), nil
	case "redis":
		client, err := redisdb.NewConnection(cfg, log)
		if err != nil {
			return nil, err
		}
		return storage.NewRedis(client.GetClient(), cfg.Storefront.SessionID), nil
	default:
		return storage.OpenSQLite(cfg.Storefront.DataPath)
	}
}

// Close lets in-flight tracking finish, bounded by the flush timeout, and
// closes the storage
func (s *Session) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.flushTimeout)
	defer cancel()

	if err := s.Tracker.Wait(ctx); err != nil {
		s.logger.WithError(err).Warn("Tracking deliveries still pending at exit")
	}

	flushed := make(chan struct{})
	go func() {
		s.Channel.Wait()
		close(flushed)
	}()
	select {
	case <-flushed:
	case <-ctx.Done():
		s.logger.WithField("pending", s.Channel.Pending()).Warn("Pixel deliveries still pending at exit")
	}

	return s.store.Close()
}

// withSession opens the session, runs fn and closes it
func withSession(ctx context.Context, opts *RootOptions, errOut io.Writer, fn func(*Session) error) error {
	sess, err := openSession(ctx, opts, errOut)
	if err != nil {
		return err
	}

	runErr := fn(sess)
	if err := sess.Close(); err != nil && runErr == nil {
		return fmt.Errorf("failed to close session: %w", err)
	}
	return runErr
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
