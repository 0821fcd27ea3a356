package repositories

import (
	"context"
	"fmt"
	"greenbasket/models"

	"github.com/shopspring/decimal"
)

type MutationKind int

const (
	MutationAdd MutationKind = iota + 1
	MutationUpdate
	MutationRemove
	MutationClear
)

func (k MutationKind) String() string {
	switch k {
	case MutationAdd:
		return "add"
	case MutationUpdate:
		return "update"
	case MutationRemove:
		return "remove"
	case MutationClear:
		return "clear"
	default:
		return "unknown"
	}
}

// Mutation describes one cart change. Quantity is the added amount for
// MutationAdd and the new amount for MutationUpdate. Next holds the cart as
// the engine computed it after the change.
type Mutation struct {
	Kind      MutationKind
	ProductID int64
	Quantity  decimal.Decimal
	Next      []models.LineItem
}

// CartStore is the backing store of a single cart. Apply returns the item
// list the caller must adopt; implementations must not return a partial list
// together with an error.
type CartStore interface {
	Load(ctx context.Context) ([]models.LineItem, error)
	Apply(ctx context.Context, m Mutation) ([]models.LineItem, error)
	// Authoritative reports whether the store prices items itself. Carts
	// backed by a non-authoritative store reprice loaded items locally.
	Authoritative() bool
}

// RejectedError is returned when a backing store answered but refused the
// mutation.
type RejectedError struct {
	Status  int
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("cart request rejected (status %d)", e.Status)
	}
	return fmt.Sprintf("cart request rejected (status %d): %s", e.Status, e.Message)
}
