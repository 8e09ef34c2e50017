// internal/domain/tracking/tracker.go
package tracking

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/elegant-store/storefront/internal/domain/catalog"
)

// ClientChannel is the in-browser analytics queue
type ClientChannel interface {
	Loaded() bool
	Track(event ClientEvent) error
}

// RelayClient delivers a request to the server relay endpoint. It never
// fails: transport problems come back as a Result with OK false.
type RelayClient interface {
	Send(ctx context.Context, req Request) Result
}

// ConsentChecker reports whether the user opted into tracking
type ConsentChecker interface {
	TrackingAllowed() bool
}

// Payload is what callers hand to Dispatch. Every field is optional.
type Payload struct {
	EventID      string
	ActionSource string
	UserData     *UserData
	CustomData   *CustomData
}

// Tracker sends every event through the client channel (when loaded) and
// the server relay, and reports the relay outcome.
type Tracker struct {
	client   ClientChannel
	relay    RelayClient
	env      Environment
	logger   logrus.FieldLogger
	now      func() time.Time
	newID    func() string
	currency string
	consent  ConsentChecker
	notify   func(Notice)

	wg sync.WaitGroup
}

// Option configures a Tracker
type Option func(*Tracker)

// WithClock sets the time source used for event_time
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithIDGenerator sets the event_id generator
func WithIDGenerator(newID func() string) Option {
	return func(t *Tracker) { t.newID = newID }
}

// WithCurrency sets the currency used when a payload names none
func WithCurrency(currency string) Option {
	return func(t *Tracker) { t.currency = currency }
}

// WithConsentGate skips the server relay while c reports no consent
func WithConsentGate(c ConsentChecker) Option {
	return func(t *Tracker) { t.consent = c }
}

// WithNotice registers a callback for failed relay deliveries. It runs on
// the dispatching goroutine and must not block.
func WithNotice(fn func(Notice)) Option {
	return func(t *Tracker) { t.notify = fn }
}

// NewTracker creates a tracker. client and env may be nil.
func NewTracker(client ClientChannel, relay RelayClient, env Environment, logger logrus.FieldLogger, opts ...Option) *Tracker {
	t := &Tracker{
		client:   client,
		relay:    relay,
		env:      env,
		logger:   logger,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
		currency: "AED",
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Dispatch delivers one event and returns the relay result. It never
// panics and never returns an error: a fault while building the event or
// firing the client channel still lets the relay delivery run.
func (t *Tracker) Dispatch(ctx context.Context, name EventName, p Payload) Result {
	req, err := t.build(name, p)
	if err != nil {
		t.logger.WithError(err).WithField("event_name", name).Warn("Failed to build tracking event")
	} else {
		t.fireClient(req)
	}

	if t.consent != nil && !t.consent.TrackingAllowed() {
		t.logger.WithField("event_name", req.EventName).Debug("Relay skipped without tracking consent")
		return Result{}
	}

	res := t.sendRelay(ctx, req)
	if !res.OK && t.notify != nil {
		t.notify(Notice{EventName: req.EventName, OK: res.OK, Status: res.Status})
	}
	return res
}

// DispatchAsync runs Dispatch on its own goroutine. The returned channel
// receives exactly one Result. Once issued the dispatch cannot be
// cancelled; Wait blocks until it finishes.
func (t *Tracker) DispatchAsync(name EventName, p Payload) <-chan Result {
	out := make(chan Result, 1)
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		out <- t.Dispatch(context.Background(), name, p)
	}()
	return out
}

// Wait blocks until every asynchronous dispatch has finished or ctx is done
func (t *Tracker) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrackPageView reports a page view with browser identifiers only
func (t *Tracker) TrackPageView(ctx context.Context) Result {
	return t.Dispatch(ctx, PageView, Payload{})
}

// TrackAddToCart reports qty units of p added to the cart
func (t *Tracker) TrackAddToCart(ctx context.Context, p catalog.Product, qty int) Result {
	return t.Dispatch(ctx, AddToCart, AddToCartPayload(p, qty, t.currency))
}

// AddedToCart is the cart's add hook: it issues the AddToCart event and
// returns without waiting for it
func (t *Tracker) AddedToCart(p catalog.Product, qty int) {
	t.DispatchAsync(AddToCart, AddToCartPayload(p, qty, t.currency))
}

// AddToCartPayload describes qty units of one product. user_data is left
// empty so the browser identifiers are collected.
func AddToCartPayload(p catalog.Product, qty int, currency string) Payload {
	if qty < 1 {
		qty = 1
	}
	content := ProductContent(p, qty)
	return Payload{
		CustomData: &CustomData{
			Value:    Amount(RoundCents(float64(content.ItemPrice) * float64(qty))),
			Currency: currency,
			Contents: []Content{content},
		},
	}
}

// ProductContent is the contents entry for qty units of p
func ProductContent(p catalog.Product, qty int) Content {
	return Content{
		ID:        ID(strconv.Itoa(p.ID)),
		Quantity:  Quantity(qty),
		ItemPrice: Amount(p.PriceValue()),
	}
}

// RoundCents rounds v to two decimal places
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func (t *Tracker) build(name EventName, p Payload) (req Request, err error) {
	req = Request{
		EventName:    name,
		EventTime:    t.now().Unix(),
		ActionSource: ActionSourceWebsite,
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while building %s event: %v", name, r)
		}
	}()

	if p.ActionSource != "" {
		req.ActionSource = p.ActionSource
	}
	req.EventID = p.EventID
	if req.EventID == "" {
		req.EventID = t.newID()
	}
	if t.env != nil {
		req.EventSourceURL = t.env.PageURL()
	}

	if p.UserData.IsEmpty() {
		req.UserData = collectUserData(t.env)
	} else {
		u := *p.UserData
		req.UserData = &u
	}

	custom := CustomData{Currency: t.currency, Contents: []Content{}}
	if p.CustomData != nil {
		custom.Value = p.CustomData.Value
		if p.CustomData.Currency != "" {
			custom.Currency = p.CustomData.Currency
		}
		if p.CustomData.Contents != nil {
			custom.Contents = append([]Content(nil), p.CustomData.Contents...)
		}
	}
	req.CustomData = &custom

	return req, nil
}

func (t *Tracker) fireClient(req Request) {
	if t.client == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			t.logger.WithField("event_name", req.EventName).Warnf("Client channel panicked: %v", r)
		}
	}()

	if !t.client.Loaded() {
		return
	}

	event := ClientEvent{
		Name:      req.EventName,
		EventID:   req.EventID,
		SourceURL: req.EventSourceURL,
	}
	if req.CustomData != nil {
		event.CustomData = *req.CustomData
	}

	if err := t.client.Track(event); err != nil {
		t.logger.WithError(err).WithField("event_name", req.EventName).Warn("Client channel rejected event")
	}
}

func (t *Tracker) sendRelay(ctx context.Context, req Request) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.WithField("event_name", req.EventName).Errorf("Relay client panicked: %v", r)
			res = Result{}
		}
	}()

	res = t.relay.Send(ctx, req)
	if !res.OK {
		t.logger.WithFields(logrus.Fields{
			"event_name": req.EventName,
			"event_id":   req.EventID,
			"status":     res.Status,
		}).Warn("Relay delivery failed")
	}
	return res
}
