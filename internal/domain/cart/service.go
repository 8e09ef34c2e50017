// internal/domain/cart/service.go
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/elegant-store/storefront/internal/domain/catalog"
	"github.com/elegant-store/storefront/internal/infrastructure/storage"
)

// ErrInvalidQuantity is returned when adding fewer than one unit
var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// AddNotifier is told about every successful Add. It is called after the
// cart has been written to storage and must not block.
type AddNotifier interface {
	AddedToCart(p catalog.Product, qty int)
}

// Service handles cart business logic for one browsing session
type Service struct {
	mu       sync.Mutex
	lines    []Line
	store    storage.Store
	notifier AddNotifier
	logger   logrus.FieldLogger
}

// NewService creates a cart service and rehydrates it from store. A
// missing, unreadable or corrupt stored cart starts the session empty.
func NewService(ctx context.Context, store storage.Store, notifier AddNotifier, logger logrus.FieldLogger) *Service {
	s := &Service{
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
	s.lines = s.load(ctx)
	return s
}

// Add puts qty units of p in the cart, merging with an existing line.
// A storage failure is logged and the session keeps the new line.
func (s *Service) Add(ctx context.Context, p catalog.Product, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}

	s.mu.Lock()
	if i := s.indexOf(p.ID); i >= 0 {
		s.lines[i].Qty += qty
	} else {
		s.lines = append(s.lines, Line{Product: p, Qty: qty})
	}
	s.persist(ctx)
	s.mu.Unlock()

	s.notify(p, qty)
	return nil
}

// Remove deletes the line for productID; absent ids are ignored
func (s *Service) Remove(ctx context.Context, productID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(productID)
	if i < 0 {
		return
	}
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	s.persist(ctx)
}

// SetQuantity replaces the quantity of an existing line. A quantity of
// zero or less removes the line.
func (s *Service) SetQuantity(ctx context.Context, productID, qty int) error {
	if qty <= 0 {
		s.Remove(ctx, productID)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(productID)
	if i < 0 {
		return fmt.Errorf("product %d is not in the cart", productID)
	}
	s.lines[i].Qty = qty
	s.persist(ctx)
	return nil
}

// Clear empties the cart
func (s *Service) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = nil
	s.persist(ctx)
}

// Lines returns a copy of the cart lines in insertion order
func (s *Service) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Line(nil), s.lines...)
}

// Count is the number of units in the cart
func (s *Service) Count() int {
	return s.Totals().TotalQuantity
}

// Quantity returns the quantity held for productID, 0 when absent
func (s *Service) Quantity(productID int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(productID); i >= 0 {
		return s.lines[i].Qty
	}
	return 0
}

// Totals computes the cart totals from the current lines
func (s *Service) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()

	var totals Totals
	var sum float64
	totals.ItemCount = len(s.lines)
	for _, line := range s.lines {
		totals.TotalQuantity += line.Qty
		sum += line.Value()
	}
	totals.SubTotal = math.Round(sum*100) / 100

	return totals
}

// TotalValue is the cart value rounded to cents
func (s *Service) TotalValue() float64 {
	return s.Totals().SubTotal
}

// Total is the cart value formatted with exactly two decimals
func (s *Service) Total() string {
	return FormatAmount(s.TotalValue())
}

// FormatAmount formats v with exactly two decimals
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func (s *Service) indexOf(productID int) int {
	for i, line := range s.lines {
		if line.ID == productID {
			return i
		}
	}
	return -1
}

func (s *Service) notify(p catalog.Product, qty int) {
	if s.notifier == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.WithField("product_id", p.ID).Errorf("Add-to-cart notifier panicked: %v", r)
		}
	}()
	s.notifier.AddedToCart(p, qty)
}

// persist writes the full cart. Failures are logged and the in-memory
// cart stays authoritative for the rest of the session.
func (s *Service) persist(ctx context.Context) {
	lines := s.lines
	if lines == nil {
		lines = []Line{}
	}

	data, err := json.Marshal(lines)
	if err != nil {
		s.logger.WithError(err).Error("Failed to encode cart")
		return
	}
	if err := s.store.Set(ctx, StorageKey, data); err != nil {
		s.logger.WithError(err).WithField("items", len(lines)).Error("Failed to persist cart")
	}
}

func (s *Service) load(ctx context.Context) []Line {
	data, err := s.store.Get(ctx, StorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		s.logger.WithError(err).Warn("Cart storage unreadable, starting empty")
		return nil
	}

	var stored []Line
	if err := json.Unmarshal(data, &stored); err != nil {
		s.logger.WithError(err).Warn("Stored cart is corrupt, starting empty")
		return nil
	}

	lines := make([]Line, 0, len(stored))
	seen := make(map[int]int, len(stored))
	for _, line := range stored {
		if line.Qty < 1 {
			continue
		}
		if i, ok := seen[line.ID]; ok {
			lines[i].Qty += line.Qty
			continue
		}
		seen[line.ID] = len(lines)
		lines = append(lines, line)
	}
	return lines
}
