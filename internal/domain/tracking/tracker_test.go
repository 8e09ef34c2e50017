package tracking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elegant-store/storefront/internal/domain/catalog"
)

type fakeChannel struct {
	mu     sync.Mutex
	loaded bool
	panics bool
	err    error
	events []ClientEvent
}

func (c *fakeChannel) Loaded() bool { return c.loaded }

func (c *fakeChannel) Track(ev ClientEvent) error {
	if c.panics {
		panic("fbq is not a function")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return c.err
}

type fakeRelay struct {
	mu       sync.Mutex
	result   Result
	requests []Request
}

func (r *fakeRelay) Send(_ context.Context, req Request) Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	return r.result
}

func (r *fakeRelay) sent() []Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Request(nil), r.requests...)
}

type panickingEnv struct{}

func (panickingEnv) UserAgent() string            { panic("navigator unavailable") }
func (panickingEnv) Cookie(string) (string, bool) { return "", false }
func (panickingEnv) PageURL() string              { return "http://localhost:3000/checkout" }

type consentFlag bool

func (c consentFlag) TrackingAllowed() bool { return bool(c) }

var browser = StaticEnvironment{
	Agent: "Mozilla/5.0 (X11)",
	URL:   "http://localhost:3000/",
	Cookies: map[string]string{
		BrowserIDCookie: "fb.1.1714564800000.123456",
		ClickIDCookie:   "fb.1.1714564800000.click",
	},
}

func newTestTracker(ch ClientChannel, relay RelayClient, env Environment, opts ...Option) *Tracker {
	logger, _ := test.NewNullLogger()
	opts = append([]Option{
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string { return "event-1" }),
	}, opts...)
	return NewTracker(ch, relay, env, logger, opts...)
}

func TestDispatchCollectsBrowserIdentifiersWhenUserDataEmpty(t *testing.T) {
	relay := &fakeRelay{result: Result{OK: true, Status: 200}}
	tr := newTestTracker(nil, relay, browser)

	res := tr.Dispatch(context.Background(), PageView, Payload{UserData: &UserData{}})
	assert.True(t, res.OK)

	sent := relay.sent()
	require.Len(t, sent, 1)
	req := sent[0]
	assert.Equal(t, PageView, req.EventName)
	assert.Equal(t, fixedNow.Unix(), req.EventTime)
	assert.Equal(t, ActionSourceWebsite, req.ActionSource)
	assert.Equal(t, "event-1", req.EventID)
	assert.Equal(t, "http://localhost:3000/", req.EventSourceURL)
	assert.Equal(t, &UserData{
		ClientUserAgent: "Mozilla/5.0 (X11)",
		FBP:             "fb.1.1714564800000.123456",
		FBC:             "fb.1.1714564800000.click",
	}, req.UserData)
}

func TestDispatchNeverMergesPartialUserData(t *testing.T) {
	relay := &fakeRelay{result: Result{OK: true, Status: 200}}
	tr := newTestTracker(nil, relay, browser)

	tr.Dispatch(context.Background(), Purchase, Payload{UserData: &UserData{Phone: "0501234567"}})

	sent := relay.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, &UserData{Phone: "0501234567"}, sent[0].UserData)
}

func TestDispatchFiresLoadedClientWithSharedEventID(t *testing.T) {
	ch := &fakeChannel{loaded: true}
	relay := &fakeRelay{result: Result{OK: true, Status: 200}}
	tr := newTestTracker(ch, relay, browser)

	custom := &CustomData{Value: 60, Contents: []Content{{ID: "2", Quantity: 1, ItemPrice: 60}}}
	tr.Dispatch(context.Background(), AddToCart, Payload{CustomData: custom})

	require.Len(t, ch.events, 1)
	ev := ch.events[0]
	assert.Equal(t, AddToCart, ev.Name)
	assert.Equal(t, "event-1", ev.EventID)
	assert.Equal(t, "AED", ev.CustomData.Currency)
	assert.Equal(t, Amount(60), ev.CustomData.Value)

	sent := relay.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, ev.EventID, sent[0].EventID)
}

func TestDispatchSkipsUnloadedClient(t *testing.T) {
	ch := &fakeChannel{}
	relay := &fakeRelay{result: Result{OK: true, Status: 200}}
	tr := newTestTracker(ch, relay, browser)

	tr.Dispatch(context.Background(), PageView, Payload{})

	assert.Empty(t, ch.events)
	assert.Len(t, relay.sent(), 1)
}

func TestRelayRunsDespiteClientFaults(t *testing.T) {
	tests := []struct {
		name string
		ch   *fakeChannel
		env  Environment
	}{
		{"client panics", &fakeChannel{loaded: true, panics: true}, browser},
		{"client errors", &fakeChannel{loaded: true, err: errors.New("queue full")}, browser},
		{"environment panics", &fakeChannel{loaded: true}, panickingEnv{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			relay := &fakeRelay{result: Result{OK: true, Status: 200, Body: map[string]any{}}}
			tr := newTestTracker(tt.ch, relay, tt.env)

			var res Result
			assert.NotPanics(t, func() {
				res = tr.Dispatch(context.Background(), Purchase, Payload{})
			})
			assert.True(t, res.OK)
			assert.Equal(t, 200, res.Status)

			sent := relay.sent()
			require.Len(t, sent, 1)
			assert.Equal(t, Purchase, sent[0].EventName)
		})
	}
}

func TestDispatchReturnsRelayResult(t *testing.T) {
	relay := &fakeRelay{result: Result{OK: false, Status: 400, Body: map[string]any{"error": "bad"}}}
	var notices []Notice
	tr := newTestTracker(&fakeChannel{loaded: true}, relay, browser, WithNotice(func(n Notice) {
		notices = append(notices, n)
	}))

	res := tr.Dispatch(context.Background(), Purchase, Payload{})

	assert.Equal(t, relay.result, res)
	assert.Equal(t, []Notice{{EventName: Purchase, OK: false, Status: 400}}, notices)
}

func TestConsentGate(t *testing.T) {
	relay := &fakeRelay{result: Result{OK: true, Status: 200}}
	var notices []Notice
	notice := WithNotice(func(n Notice) { notices = append(notices, n) })

	gated := newTestTracker(nil, relay, browser, WithConsentGate(consentFlag(false)), notice)
	res := gated.Dispatch(context.Background(), PageView, Payload{})
	assert.Equal(t, Result{}, res)
	assert.Empty(t, relay.sent())
	assert.Empty(t, notices)

	allowed := newTestTracker(nil, relay, browser, WithConsentGate(consentFlag(true)))
	res = allowed.Dispatch(context.Background(), PageView, Payload{})
	assert.True(t, res.OK)
	assert.Len(t, relay.sent(), 1)
}

func TestDispatchAsyncAndWait(t *testing.T) {
	relay := &fakeRelay{result: Result{OK: true, Status: 200}}
	tr := newTestTracker(nil, relay, browser)

	results := []<-chan Result{
		tr.DispatchAsync(PageView, Payload{}),
		tr.DispatchAsync(ViewContent, Payload{}),
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, tr.Wait(ctx))

	for _, ch := range results {
		select {
		case res := <-ch:
			assert.True(t, res.OK)
		default:
			t.Fatal("result not delivered")
		}
	}
	assert.Len(t, relay.sent(), 2)
}

func TestAddedToCart(t *testing.T) {
	relay := &fakeRelay{result: Result{OK: true, Status: 200}}
	tr := newTestTracker(nil, relay, browser)

	tr.AddedToCart(catalog.Product{ID: 3, Name: "Aria Tote", Price: "150"}, 2)
	require.NoError(t, tr.Wait(context.Background()))

	sent := relay.sent()
	require.Len(t, sent, 1)
	req := sent[0]
	assert.Equal(t, AddToCart, req.EventName)
	assert.Equal(t, "Mozilla/5.0 (X11)", req.UserData.ClientUserAgent)
	require.NotNil(t, req.CustomData)
	assert.Equal(t, Amount(300), req.CustomData.Value)
	assert.Equal(t, "AED", req.CustomData.Currency)
	assert.Equal(t, []Content{{ID: "3", Quantity: 2, ItemPrice: 150}}, req.CustomData.Contents)
}

func TestTrackPageView(t *testing.T) {
	ch := &fakeChannel{loaded: true}
	relay := &fakeRelay{result: Result{OK: true, Status: 200}}
	tr := newTestTracker(ch, relay, browser)

	res := tr.TrackPageView(context.Background())
	assert.True(t, res.OK)

	sent := relay.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, PageView, sent[0].EventName)
	assert.Equal(t, "http://localhost:3000/", sent[0].EventSourceURL)
	require.NotNil(t, sent[0].CustomData)
	assert.Equal(t, Amount(0), sent[0].CustomData.Value)
	assert.Empty(t, sent[0].CustomData.Contents)
	require.NotNil(t, sent[0].UserData)
	assert.Equal(t, "fb.1.1714564800000.123456", sent[0].UserData.FBP)

	ch.mu.Lock()
	defer ch.mu.Unlock()
	require.Len(t, ch.events, 1)
	assert.Equal(t, PageView, ch.events[0].Name)
	assert.Equal(t, "event-1", ch.events[0].EventID)
}

func TestTrackAddToCartWaitsForRelay(t *testing.T) {
	relay := &fakeRelay{result: Result{Status: 500}}
	var notices []Notice
	tr := newTestTracker(nil, relay, browser,
		WithCurrency("usd"),
		WithNotice(func(n Notice) { notices = append(notices, n) }),
	)

	res := tr.TrackAddToCart(context.Background(), catalog.Product{ID: 5, Price: "19.99"}, 3)
	assert.False(t, res.OK)
	assert.Equal(t, 500, res.Status)
	assert.Equal(t, []Notice{{EventName: AddToCart, Status: 500}}, notices)

	sent := relay.sent()
	require.Len(t, sent, 1)
	require.NotNil(t, sent[0].CustomData)
	assert.Equal(t, Amount(59.97), sent[0].CustomData.Value)
	assert.Equal(t, []Content{{ID: "5", Quantity: 3, ItemPrice: 19.99}}, sent[0].CustomData.Contents)
}

func TestRoundCents(t *testing.T) {
	assert.Equal(t, 0.3, RoundCents(0.1+0.2))
	assert.Equal(t, 10.01, RoundCents(10.005000001))
	assert.Equal(t, 350.0, RoundCents(350))
}
