package services

import (
	"context"
	"errors"
	"greenbasket/models"
	"greenbasket/repositories"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

type CartState int

const (
	CartUninitialized CartState = iota
	CartLoaded
)

func (s CartState) String() string {
	if s == CartLoaded {
		return "loaded"
	}
	return "uninitialized"
}

// CountListener receives the number of distinct lines after every committed
// change. Listeners run while the cart is still gated and must not mutate it.
type CountListener func(count int)

// errNoChange aborts a mutation that would leave the cart as it is.
var errNoChange = errors.New("cart unchanged")

// CartService is one shopper's cart. Mutations are applied one at a time:
// each holds the cart's gate for the whole backing store round trip, and the
// store's answer replaces the in-memory items only when it succeeds.
type CartService struct {
	store   repositories.CartStore
	pricing PricingModeSource
	logger  *zap.Logger
	gate    *semaphore.Weighted

	mu        sync.RWMutex
	state     CartState
	items     []models.LineItem
	listeners []CountListener
}

func NewCartService(store repositories.CartStore, pricing PricingModeSource, logger *zap.Logger) *CartService {
	if pricing == nil {
		pricing = PricingRetail
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartService{
		store:   store,
		pricing: pricing,
		logger:  logger,
		gate:    semaphore.NewWeighted(1),
		items:   []models.LineItem{},
	}
}

func (s *CartService) OnCountChange(fn CountListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Load reads the cart from its backing store and marks it ready. Calling it
// again reloads. Items from a store that does not price them are repriced
// with the current customer mode.
func (s *CartService) Load(ctx context.Context) error {
	if err := s.gate.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.gate.Release(1)

	items, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Warn("cart load failed", zap.Error(err))
		return &AdapterError{Op: "load", Err: err}
	}
	if !s.store.Authoritative() {
		wholesale := s.pricing.IsWholesaleCustomer(ctx)
		for i := range items {
			items[i] = priceItem(items[i], wholesale)
		}
	}

	s.commit(items)
	s.logger.Debug("cart loaded", zap.Int("items", len(items)))
	return nil
}

// AddItem adds item.Quantity of a product. An existing line for the product
// is merged: quantities are summed and the price is recomputed from the
// combined quantity with the pricing inputs given here.
func (s *CartService) AddItem(ctx context.Context, item models.LineItem) error {
	if !item.Quantity.IsPositive() {
		return ErrInvalidQuantity
	}
	if item.RetailPrice.IsNegative() || item.WholesalePrice.IsNegative() || item.MinWholesaleQty.IsNegative() {
		return ErrInvalidPrice
	}

	return s.mutate(ctx, repositories.MutationAdd, item.ProductID, item.Quantity,
		func(items []models.LineItem, wholesale bool) ([]models.LineItem, error) {
			i := indexOf(items, item.ProductID)
			if i < 0 {
				return append(items, priceItem(item, wholesale)), nil
			}

			merged := items[i]
			merged.Quantity = merged.Quantity.Add(item.Quantity)
			merged.RetailPrice = item.RetailPrice
			merged.WholesalePrice = item.WholesalePrice
			merged.MinWholesaleQty = item.MinWholesaleQty
			if item.Name != "" {
				merged.Name = item.Name
			}
			if item.ImageURL != "" {
				merged.ImageURL = item.ImageURL
			}
			items[i] = priceItem(merged, wholesale)
			return items, nil
		})
}

// UpdateQuantity sets a line's quantity. A quantity of zero or less removes
// the line, and removing a missing line is not an error. Otherwise a missing
// line yields ErrItemNotFound.
func (s *CartService) UpdateQuantity(ctx context.Context, productID int64, quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		_, err := s.RemoveItem(ctx, productID)
		return err
	}

	return s.mutate(ctx, repositories.MutationUpdate, productID, quantity,
		func(items []models.LineItem, wholesale bool) ([]models.LineItem, error) {
			i := indexOf(items, productID)
			if i < 0 {
				return nil, ErrItemNotFound
			}
			items[i].Quantity = quantity
			items[i] = priceItem(items[i], wholesale)
			return items, nil
		})
}

// RemoveItem reports whether a line was removed.
func (s *CartService) RemoveItem(ctx context.Context, productID int64) (bool, error) {
	err := s.mutate(ctx, repositories.MutationRemove, productID, decimal.Zero,
		func(items []models.LineItem, _ bool) ([]models.LineItem, error) {
			i := indexOf(items, productID)
			if i < 0 {
				return nil, errNoChange
			}
			return append(items[:i], items[i+1:]...), nil
		})
	if errors.Is(err, errNoChange) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *CartService) ClearCart(ctx context.Context) error {
	return s.mutate(ctx, repositories.MutationClear, 0, decimal.Zero,
		func([]models.LineItem, bool) ([]models.LineItem, error) {
			return []models.LineItem{}, nil
		})
}

// GetTotal returns Σ quantity × price over the committed items.
func (s *CartService) GetTotal() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := decimal.Zero
	for _, item := range s.items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// GetItemCount returns the number of distinct lines, not the summed quantity.
func (s *CartService) GetItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *CartService) GetItems() []models.LineItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.CloneItems(s.items)
}

// CartSnapshot is one consistent view of the committed cart.
type CartSnapshot struct {
	Items     []models.LineItem
	ItemCount int
	Total     decimal.Decimal
}

// Snapshot reads items, count and total under a single lock, so the three
// always describe the same committed state.
func (s *CartService) Snapshot() CartSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := decimal.Zero
	for _, item := range s.items {
		total = total.Add(item.Subtotal())
	}
	return CartSnapshot{
		Items:     models.CloneItems(s.items),
		ItemCount: len(s.items),
		Total:     total,
	}
}

func (s *CartService) currentState() CartState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

type buildFunc func(items []models.LineItem, wholesale bool) ([]models.LineItem, error)

func (s *CartService) mutate(ctx context.Context, kind repositories.MutationKind, productID int64, quantity decimal.Decimal, build buildFunc) error {
	if err := s.gate.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.gate.Release(1)

	s.mu.RLock()
	loaded := s.state == CartLoaded
	current := models.CloneItems(s.items)
	s.mu.RUnlock()
	if !loaded {
		return ErrNotReady
	}

	wholesale := s.pricing.IsWholesaleCustomer(ctx)
	next, err := build(current, wholesale)
	if err != nil && s.store.Authoritative() && (errors.Is(err, ErrItemNotFound) || errors.Is(err, errNoChange)) {
		// The backend may have changed the cart since our last read.
		fresh, loadErr := s.store.Load(ctx)
		if loadErr != nil {
			s.logger.Warn("cart reload failed", zap.Error(loadErr))
			return &AdapterError{Op: "load", Err: loadErr}
		}
		s.commit(fresh)
		next, err = build(models.CloneItems(fresh), wholesale)
	}
	if err != nil {
		return err
	}

	result, err := s.store.Apply(ctx, repositories.Mutation{
		Kind:      kind,
		ProductID: productID,
		Quantity:  quantity,
		Next:      next,
	})
	if err != nil {
		s.logger.Warn("cart mutation failed",
			zap.Stringer("op", kind),
			zap.Int64("product_id", productID),
			zap.Error(err),
		)
		return &AdapterError{Op: kind.String(), Err: err}
	}

	s.commit(result)
	s.logger.Debug("cart mutation applied",
		zap.Stringer("op", kind),
		zap.Int64("product_id", productID),
		zap.Int("items", len(result)),
	)
	return nil
}

func (s *CartService) commit(items []models.LineItem) {
	s.mu.Lock()
	s.items = models.CloneItems(items)
	s.state = CartLoaded
	count := len(s.items)
	listeners := append([]CountListener(nil), s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(count)
	}
}

func indexOf(items []models.LineItem, productID int64) int {
	for i := range items {
		if items[i].ProductID == productID {
			return i
		}
	}
	return -1
}
