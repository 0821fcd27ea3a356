package services

import (
	"context"
	"errors"
	"greenbasket/models"
	"greenbasket/repositories"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
)

// StoreFactory builds the backing store for one session's cart.
type StoreFactory func(session models.Session) (repositories.CartStore, error)

// PricingFactory builds the pricing source for one session's cart. Without
// one, carts follow the session's wholesale flag.
type PricingFactory func(session models.Session) PricingModeSource

// SessionBinder is implemented by stores that send per-session credentials
// with every call. The registry rebinds them on each request.
type SessionBinder interface {
	BindSession(session models.Session)
}

var _ SessionBinder = (*repositories.RemoteCartStore)(nil)

type cartEntry struct {
	cart    *CartService
	store   repositories.CartStore
	pricing *SessionPricing
}

// refresh brings the entry in line with the caller's latest session.
func (e *cartEntry) refresh(session models.Session) {
	if e.pricing != nil {
		e.pricing.Set(session.Wholesale)
	}
	if b, ok := e.store.(SessionBinder); ok {
		b.BindSession(session)
	}
}

// CartRegistry hands out one loaded cart per session. The least recently used
// carts are dropped when the registry is full; their state lives on in the
// backing store and is loaded again on the next request.
type CartRegistry struct {
	factory StoreFactory
	pricing PricingFactory
	logger  *zap.Logger

	mu    sync.Mutex
	carts *lru.Cache
}

func NewCartRegistry(size int, factory StoreFactory, logger *zap.Logger) (*CartRegistry, error) {
	if factory == nil {
		return nil, errors.New("cart registry: nil store factory")
	}
	if size <= 0 {
		size = 1024
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	carts, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &CartRegistry{factory: factory, logger: logger, carts: carts}, nil
}

// UsePricing makes new carts take their pricing mode from fn instead of the
// session token.
func (r *CartRegistry) UsePricing(fn PricingFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pricing = fn
}

// Cart returns the session's cart, loading it on first use. The session's
// pricing mode and store credentials are refreshed on every call.
func (r *CartRegistry) Cart(ctx context.Context, session models.Session) (*CartService, error) {
	if session.ID == "" {
		return nil, errors.New("cart registry: empty session id")
	}

	if entry, ok := r.lookup(session.ID); ok {
		entry.refresh(session)
		return entry.cart, nil
	}

	store, err := r.factory(session)
	if err != nil {
		return nil, &AdapterError{Op: "open", Err: err}
	}
	entry := &cartEntry{store: store}
	var pricing PricingModeSource
	if fn := r.pricingFactory(); fn != nil {
		pricing = fn(session)
	} else {
		entry.pricing = NewSessionPricing(session.Wholesale)
		pricing = entry.pricing
	}
	entry.refresh(session)

	logger := r.logger.With(zap.String("session_id", session.ID), zap.String("customer_type", session.CustomerType()))
	entry.cart = NewCartService(store, pricing, logger)
	if err := entry.cart.Load(ctx); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another request for the same session may have loaded it meanwhile.
	if existing, ok := r.carts.Get(session.ID); ok {
		winner := existing.(*cartEntry)
		winner.refresh(session)
		return winner.cart, nil
	}
	if evicted := r.carts.Add(session.ID, entry); evicted {
		r.logger.Debug("cart registry evicted least recently used cart")
	}
	return entry.cart, nil
}

// Forget drops a session's cart from memory; the backing store is untouched
// and the next request loads the cart again.
func (r *CartRegistry) Forget(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.carts.Remove(sessionID)
}

func (r *CartRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.carts.Len()
}

func (r *CartRegistry) pricingFactory() PricingFactory {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pricing
}

func (r *CartRegistry) lookup(sessionID string) (*cartEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.carts.Get(sessionID)
	if !ok {
		return nil, false
	}
	return v.(*cartEntry), true
}
