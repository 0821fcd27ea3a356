package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"greenbasket/models"
	"strings"
)

const (
	DefaultCartKey      = "greenbasket_cart"
	WholesaleFlagKey    = "isWholesale"
	wholesaleFlagEnable = "true"
)

// KVStore is a string key-value store scoped to one shopper.
type KVStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// LocalCartStore keeps the whole cart as one JSON document under a fixed key.
type LocalCartStore struct {
	kv  KVStore
	key string
}

var _ CartStore = (*LocalCartStore)(nil)

func NewLocalCartStore(kv KVStore, key string) *LocalCartStore {
	if key == "" {
		key = DefaultCartKey
	}
	return &LocalCartStore{kv: kv, key: key}
}

func (s *LocalCartStore) Load(ctx context.Context) ([]models.LineItem, error) {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("read cart %q: %w", s.key, err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return []models.LineItem{}, nil
	}

	var items []models.LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode cart %q: %w", s.key, err)
	}
	if items == nil {
		items = []models.LineItem{}
	}
	return items, nil
}

func (s *LocalCartStore) Apply(ctx context.Context, m Mutation) ([]models.LineItem, error) {
	if m.Kind == MutationClear || len(m.Next) == 0 {
		if err := s.kv.Delete(ctx, s.key); err != nil {
			return nil, fmt.Errorf("delete cart %q: %w", s.key, err)
		}
		return []models.LineItem{}, nil
	}

	data, err := json.Marshal(m.Next)
	if err != nil {
		return nil, fmt.Errorf("encode cart %q: %w", s.key, err)
	}
	if err := s.kv.Set(ctx, s.key, string(data)); err != nil {
		return nil, fmt.Errorf("write cart %q: %w", s.key, err)
	}
	return models.CloneItems(m.Next), nil
}

func (s *LocalCartStore) Authoritative() bool { return false }

// LocalPricingMode reads the wholesale flag the storefront keeps next to the
// cart. Read failures fall back to retail pricing.
type LocalPricingMode struct {
	kv KVStore
}

func NewLocalPricingMode(kv KVStore) *LocalPricingMode {
	return &LocalPricingMode{kv: kv}
}

func (p *LocalPricingMode) IsWholesaleCustomer(ctx context.Context) bool {
	value, ok, err := p.kv.Get(ctx, WholesaleFlagKey)
	if err != nil || !ok {
		return false
	}
	return strings.TrimSpace(value) == wholesaleFlagEnable
}

func (p *LocalPricingMode) SetWholesale(ctx context.Context, wholesale bool) error {
	if !wholesale {
		return p.kv.Delete(ctx, WholesaleFlagKey)
	}
	return p.kv.Set(ctx, WholesaleFlagKey, wholesaleFlagEnable)
}
