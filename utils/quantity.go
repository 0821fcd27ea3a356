package utils

import (
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidProductID = errors.New("invalid product id")
	ErrInvalidNumber    = errors.New("invalid quantity")
)

// ParseQuantity reads a decimal quantity such as "2.5". The sign is not
// checked here; the cart decides what a non-positive quantity means.
func ParseQuantity(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, ErrInvalidNumber
	}
	q, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, ErrInvalidNumber
	}
	return q, nil
}

func ParseProductID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidProductID
	}
	return id, nil
}
