// internal/domain/checkout/service.go
package checkout

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/elegant-store/storefront/internal/domain/cart"
	"github.com/elegant-store/storefront/internal/domain/tracking"
)

var (
	ErrNameRequired   = errors.New("name is required")
	ErrInvalidPhone   = errors.New("invalid phone number (must start with 05 and have 10 digits)")
	ErrInvalidEmirate = errors.New("an emirate must be selected")
	ErrEmptyCart      = errors.New("the cart is empty")
)

// Emirates are the delivery regions offered at checkout
var Emirates = []string{
	"Abu Dhabi",
	"Dubai",
	"Sharjah",
	"Ajman",
	"Umm Al Quwain",
	"Ras Al Khaimah",
	"Fujairah",
}

var phonePattern = regexp.MustCompile(`^05\d{8}$`)

// Cart is the part of the cart store checkout reads and clears
type Cart interface {
	Lines() []cart.Line
	TotalValue() float64
	Clear(ctx context.Context)
}

// Dispatcher issues tracking events without waiting for them
type Dispatcher interface {
	DispatchAsync(name tracking.EventName, p tracking.Payload) <-chan tracking.Result
}

// Config holds checkout settings
type Config struct {
	DeliveryFee    float64
	Currency       string
	WhatsAppNumber string
	GateDelay      time.Duration // how long a failed or slow Purchase delivery holds the hand-off
}

// Form is what the customer fills in
type Form struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Emirate string `json:"emirate"`
}

// Receipt is the outcome of a completed checkout
type Receipt struct {
	Message     string           `json:"message"`
	WhatsAppURL string           `json:"whatsapp_url"`
	Subtotal    float64          `json:"subtotal"`
	DeliveryFee float64          `json:"delivery_fee"`
	Total       float64          `json:"total"`
	Tracking    *tracking.Result `json:"tracking,omitempty"` // nil when the gate expired first
}

// Service hands a validated order off to WhatsApp
type Service struct {
	cart    Cart
	tracker Dispatcher
	config  Config
	logger  logrus.FieldLogger
	after   func(time.Duration) <-chan time.Time
}

// NewService creates a new checkout service
func NewService(c Cart, tracker Dispatcher, cfg Config, logger logrus.FieldLogger) *Service {
	return &Service{
		cart:    c,
		tracker: tracker,
		config:  cfg,
		logger:  logger,
		after:   time.After,
	}
}

// Validate checks the form against the current cart lines
func Validate(form Form, lines []cart.Line) error {
	if strings.TrimSpace(form.Name) == "" {
		return ErrNameRequired
	}
	if !phonePattern.MatchString(form.Phone) {
		return ErrInvalidPhone
	}
	if !validEmirate(form.Emirate) {
		return ErrInvalidEmirate
	}
	if len(lines) == 0 {
		return ErrEmptyCart
	}
	return nil
}

// Checkout validates the form, reports the Purchase, builds the WhatsApp
// hand-off and clears the cart. A tracking failure never fails checkout:
// the Purchase result is awaited for at most the gate delay.
func (s *Service) Checkout(ctx context.Context, form Form) (*Receipt, error) {
	form.Name = strings.TrimSpace(form.Name)
	form.Phone = strings.TrimSpace(form.Phone)
	form.Emirate = strings.TrimSpace(form.Emirate)

	lines := s.cart.Lines()
	if err := Validate(form, lines); err != nil {
		return nil, err
	}

	subtotal := s.cart.TotalValue()
	total := tracking.RoundCents(subtotal + s.config.DeliveryFee)

	result := s.tracker.DispatchAsync(tracking.Purchase, s.purchasePayload(form, lines, total))

	message := Message(form, lines, subtotal, s.config.DeliveryFee)
	receipt := &Receipt{
		Message:     message,
		WhatsAppURL: WhatsAppURL(s.config.WhatsAppNumber, message),
		Subtotal:    subtotal,
		DeliveryFee: s.config.DeliveryFee,
		Total:       total,
		Tracking:    s.awaitTracking(ctx, result),
	}

	s.cart.Clear(ctx)

	s.logger.WithFields(logrus.Fields{
		"emirate": form.Emirate,
		"items":   len(lines),
		"total":   total,
	}).Info("Order handed off to WhatsApp")

	return receipt, nil
}

// awaitTracking is the soft gate: a successful delivery releases it at
// once, anything else holds it until the delay has passed
func (s *Service) awaitTracking(ctx context.Context, result <-chan tracking.Result) *tracking.Result {
	timer := s.after(s.config.GateDelay)

	select {
	case res := <-result:
		if !res.OK {
			s.logger.WithField("status", res.Status).Warn("Purchase tracking failed, continuing checkout")
			select {
			case <-timer:
			case <-ctx.Done():
			}
		}
		return &res
	case <-timer:
		s.logger.Warn("Purchase tracking still pending, continuing checkout")
	case <-ctx.Done():
	}
	return nil
}

func (s *Service) purchasePayload(form Form, lines []cart.Line, total float64) tracking.Payload {
	contents := make([]tracking.Content, 0, len(lines))
	for _, line := range lines {
		contents = append(contents, tracking.ProductContent(line.Product, line.Qty))
	}

	return tracking.Payload{
		UserData: &tracking.UserData{
			Phone:     form.Phone,
			FirstName: form.Name,
		},
		CustomData: &tracking.CustomData{
			Value:    tracking.Amount(total),
			Currency: s.config.Currency,
			Contents: contents,
		},
	}
}

func validEmirate(name string) bool {
	for _, e := range Emirates {
		if strings.EqualFold(e, name) {
			return true
		}
	}
	return false
}
