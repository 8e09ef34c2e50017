// internal/domain/pixel/channel.go
package pixel

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/elegant-store/storefront/internal/domain/tracking"
)

// ErrNotLoaded is returned by Track before the channel has been loaded
var ErrNotLoaded = errors.New("pixel: channel not loaded")

// State is the lifecycle of the client channel
type State int

const (
	StateUnloaded State = iota
	StateLoaded
	StateGranted
	StateRevoked
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoaded:
		return "loaded"
	case StateGranted:
		return "consent-granted"
	case StateRevoked:
		return "consent-revoked"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Command is one queued track call
type Command struct {
	Event tracking.ClientEvent
	At    time.Time
}

// Sender delivers a command to the attribution service
type Sender interface {
	Send(ctx context.Context, pixelID string, cmd Command) error
}

// Cookies is the first-party cookie jar of the browsing session
type Cookies interface {
	Get(name string) (string, bool)
	Set(name, value string)
}

// Channel is the in-browser analytics queue. Commands are queued from the
// moment the channel is loaded and delivered unless consent is revoked;
// revoking keeps them queued until the next grant. A channel is never
// unloaded.
type Channel struct {
	mu      sync.Mutex
	state   State
	pixelID string
	queue   []Command

	sender  Sender
	cookies Cookies
	logger  logrus.FieldLogger
	now     func() time.Time
	wg      sync.WaitGroup
}

// Option configures a Channel
type Option func(*Channel)

// WithCookies lets the channel set its browser id cookie
func WithCookies(c Cookies) Option {
	return func(ch *Channel) { ch.cookies = c }
}

// WithClock sets the channel's time source
func WithClock(now func() time.Time) Option {
	return func(ch *Channel) { ch.now = now }
}

// NewChannel creates an unloaded channel
func NewChannel(sender Sender, logger logrus.FieldLogger, opts ...Option) *Channel {
	ch := &Channel{
		sender: sender,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(ch)
	}
	return ch
}

// Load initializes the channel for pixelID and queues a PageView, like the
// vendor's bootstrap snippet. Loading an already loaded channel, or loading
// without an id, does nothing and returns false.
func (c *Channel) Load(pixelID string) bool {
	if pixelID == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateUnloaded {
		return false
	}

	c.pixelID = pixelID
	c.state = StateLoaded
	c.ensureBrowserID()
	c.queue = append(c.queue, Command{
		Event: tracking.ClientEvent{Name: tracking.PageView},
		At:    c.now(),
	})
	c.flushLocked()

	c.logger.WithField("pixel_id", pixelID).Info("Pixel channel loaded")
	return true
}

// Grant resumes delivery and flushes the queue. No-op before Load.
func (c *Channel) Grant() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateUnloaded {
		return
	}
	c.state = StateGranted
	c.flushLocked()
}

// Revoke stops delivery; queued and later commands wait for a new grant.
// No-op before Load.
func (c *Channel) Revoke() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateUnloaded {
		return
	}
	c.state = StateRevoked
}

// Track queues an event
func (c *Channel) Track(ev tracking.ClientEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateUnloaded {
		return ErrNotLoaded
	}

	c.queue = append(c.queue, Command{Event: ev, At: c.now()})
	if c.state != StateRevoked {
		c.flushLocked()
	}
	return nil
}

// Loaded reports whether Load has succeeded
func (c *Channel) Loaded() bool {
	return c.State() != StateUnloaded
}

func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Pending is the number of commands held back by revoked consent
func (c *Channel) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Wait blocks until in-flight deliveries finish
func (c *Channel) Wait() {
	c.wg.Wait()
}

func (c *Channel) flushLocked() {
	if len(c.queue) == 0 {
		return
	}

	batch := c.queue
	c.queue = nil
	pixelID := c.pixelID

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for _, cmd := range batch {
			c.deliver(pixelID, cmd)
		}
	}()
}

func (c *Channel) deliver(pixelID string, cmd Command) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.WithField("event_name", cmd.Event.Name).Errorf("Pixel sender panicked: %v", r)
		}
	}()

	if err := c.sender.Send(context.Background(), pixelID, cmd); err != nil {
		c.logger.WithError(err).WithField("event_name", cmd.Event.Name).Warn("Pixel delivery failed")
	}
}

func (c *Channel) ensureBrowserID() {
	if c.cookies == nil {
		return
	}
	if _, ok := c.cookies.Get(tracking.BrowserIDCookie); ok {
		return
	}
	c.cookies.Set(tracking.BrowserIDCookie, BrowserID(c.now()))
}

// BrowserID formats a new _fbp cookie value
func BrowserID(now time.Time) string {
	return fmt.Sprintf("fb.1.%d.%d", now.UnixMilli(), rand.Int63n(1<<31))
}

// ClickID formats the _fbc cookie value for an ad click id
func ClickID(now time.Time, fbclid string) string {
	return fmt.Sprintf("fb.1.%d.%s", now.UnixMilli(), fbclid)
}
