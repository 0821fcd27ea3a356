package features

import (
	"context"
	"errors"
	"fmt"
	"greenbasket/models"
	"greenbasket/repositories"
	"greenbasket/services"
	"testing"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"
)

var errUnreachable = errors.New("backing store unreachable")

// switchableKV fails every call once broken is set.
type switchableKV struct {
	repositories.KVStore
	broken bool
}

func (s *switchableKV) Get(ctx context.Context, key string) (string, bool, error) {
	if s.broken {
		return "", false, errUnreachable
	}
	return s.KVStore.Get(ctx, key)
}

func (s *switchableKV) Set(ctx context.Context, key, value string) error {
	if s.broken {
		return errUnreachable
	}
	return s.KVStore.Set(ctx, key, value)
}

func (s *switchableKV) Delete(ctx context.Context, key string) error {
	if s.broken {
		return errUnreachable
	}
	return s.KVStore.Delete(ctx, key)
}

type cartTestContext struct {
	kv       *switchableKV
	pricing  *switchablePricing
	cart     *services.CartService
	products map[int64]models.Product
	badge    int
	removed  bool
	err      error
}

// switchablePricing starts from the stored local flag and can be forced to
// wholesale by a step.
type switchablePricing struct {
	local  *repositories.LocalPricingMode
	forced bool
}

func (p *switchablePricing) IsWholesaleCustomer(ctx context.Context) bool {
	return p.forced || p.local.IsWholesaleCustomer(ctx)
}

func (c *cartTestContext) reset() {
	c.kv = &switchableKV{KVStore: repositories.NewMemoryKVStore()}
	c.pricing = &switchablePricing{local: repositories.NewLocalPricingMode(c.kv)}
	c.cart = nil
	c.products = map[int64]models.Product{}
	c.badge = -1
	c.removed = false
	c.err = nil
}

func (c *cartTestContext) aLoadedCartForARetailCustomer() error {
	c.cart = services.NewCartService(repositories.NewLocalCartStore(c.kv, ""), c.pricing, nil)
	c.cart.OnCountChange(func(count int) { c.badge = count })
	return c.cart.Load(context.Background())
}

func (c *cartTestContext) theProductPricedAt(id int64, name, retail, wholesale, minQty string) error {
	p := models.Product{ID: id, Name: name, IsActive: true}
	var err error
	if p.RetailPrice, err = decimal.NewFromString(retail); err != nil {
		return err
	}
	if p.WholesalePrice, err = decimal.NewFromString(wholesale); err != nil {
		return err
	}
	if p.MinWholesaleQty, err = decimal.NewFromString(minQty); err != nil {
		return err
	}
	c.products[id] = p
	return nil
}

func (c *cartTestContext) iAddOfProduct(quantity string, id int64) error {
	q, err := decimal.NewFromString(quantity)
	if err != nil {
		return err
	}
	p, ok := c.products[id]
	if !ok {
		return fmt.Errorf("unknown product %d", id)
	}
	c.err = c.cart.AddItem(context.Background(), p.LineItem(q))
	return nil
}

func (c *cartTestContext) iUpdateProductTo(id int64, quantity string) error {
	q, err := decimal.NewFromString(quantity)
	if err != nil {
		return err
	}
	c.err = c.cart.UpdateQuantity(context.Background(), id, q)
	return nil
}

func (c *cartTestContext) iRemoveProduct(id int64) error {
	c.removed, c.err = c.cart.RemoveItem(context.Background(), id)
	return nil
}

func (c *cartTestContext) iClearTheCart() error {
	c.err = c.cart.ClearCart(context.Background())
	return nil
}

func (c *cartTestContext) theCustomerBecomesWholesale() error {
	c.pricing.forced = true
	return nil
}

func (c *cartTestContext) theStoredWholesaleFlagIsSet() error {
	return c.pricing.local.SetWholesale(context.Background(), true)
}

func (c *cartTestContext) theCartIsReloaded() error {
	return c.cart.Load(context.Background())
}

func (c *cartTestContext) theBackingStoreIsUnreachable() error {
	c.kv.broken = true
	return nil
}

func (c *cartTestContext) theCartHasLines(n int) error {
	if c.err != nil {
		return fmt.Errorf("unexpected error: %v", c.err)
	}
	if got := c.cart.GetItemCount(); got != n {
		return fmt.Errorf("expected %d lines, got %d", n, got)
	}
	return nil
}

func (c *cartTestContext) lineHasQuantityAtPrice(id int64, quantity, price string) error {
	var (
		item models.LineItem
		ok   bool
	)
	for _, line := range c.cart.GetItems() {
		if line.ProductID == id {
			item, ok = line, true
		}
	}
	if !ok {
		return fmt.Errorf("no line for product %d", id)
	}
	if !item.Quantity.Equal(decimal.RequireFromString(quantity)) {
		return fmt.Errorf("expected quantity %s, got %s", quantity, item.Quantity)
	}
	if !item.Price.Equal(decimal.RequireFromString(price)) {
		return fmt.Errorf("expected price %s, got %s", price, item.Price)
	}
	return nil
}

func (c *cartTestContext) theCartTotalIs(total string) error {
	if got := c.cart.GetTotal(); !got.Equal(decimal.RequireFromString(total)) {
		return fmt.Errorf("expected total %s, got %s", total, got)
	}
	return nil
}

func (c *cartTestContext) theMutationFailsWith(kind string) error {
	want := map[string]error{
		"item not found":   services.ErrItemNotFound,
		"invalid quantity": services.ErrInvalidQuantity,
		"adapter failure":  services.ErrAdapterFailure,
		"not ready":        services.ErrNotReady,
	}[kind]
	if want == nil {
		return fmt.Errorf("unknown failure kind %q", kind)
	}
	if !errors.Is(c.err, want) {
		return fmt.Errorf("expected %v, got %v", want, c.err)
	}
	return nil
}

func (c *cartTestContext) nothingWasRemoved() error {
	if c.err != nil {
		return c.err
	}
	if c.removed {
		return errors.New("expected nothing to be removed")
	}
	return nil
}

func (c *cartTestContext) theBadgeShows(n int) error {
	if c.badge != n {
		return fmt.Errorf("expected badge %d, got %d", n, c.badge)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &cartTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	ctx.Step(`^a loaded cart for a retail customer$`, tc.aLoadedCartForARetailCustomer)
	ctx.Step(`^the product (\d+) "([^"]*)" priced at retail ([\d.]+) wholesale ([\d.]+) from ([\d.]+)$`, tc.theProductPricedAt)
	ctx.Step(`^I add (-?[\d.]+) of product (\d+)$`, tc.iAddOfProduct)
	ctx.Step(`^I update product (\d+) to (-?[\d.]+)$`, tc.iUpdateProductTo)
	ctx.Step(`^I remove product (\d+)$`, tc.iRemoveProduct)
	ctx.Step(`^I clear the cart$`, tc.iClearTheCart)
	ctx.Step(`^the customer becomes wholesale$`, tc.theCustomerBecomesWholesale)
	ctx.Step(`^the stored wholesale flag is set$`, tc.theStoredWholesaleFlagIsSet)
	ctx.Step(`^the cart is reloaded$`, tc.theCartIsReloaded)
	ctx.Step(`^the backing store is unreachable$`, tc.theBackingStoreIsUnreachable)

	ctx.Step(`^the cart has (\d+) lines?$`, tc.theCartHasLines)
	ctx.Step(`^line (\d+) has quantity ([\d.]+) at price ([\d.]+)$`, tc.lineHasQuantityAtPrice)
	ctx.Step(`^the cart total is ([\d.]+)$`, tc.theCartTotalIs)
	ctx.Step(`^the mutation fails with "([^"]*)"$`, tc.theMutationFailsWith)
	ctx.Step(`^nothing was removed$`, tc.nothingWasRemoved)
	ctx.Step(`^the badge shows (\d+)$`, tc.theBadgeShows)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"cart.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
