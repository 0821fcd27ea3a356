package controllers

import (
	"errors"
	"greenbasket/middleware"
	"greenbasket/models"
	"greenbasket/repositories"
	"greenbasket/services"
	"greenbasket/utils"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CartController struct {
	carts    *services.CartRegistry
	products *services.ProductService
	logger   *zap.Logger
}

func NewCartController(carts *services.CartRegistry, products *services.ProductService, logger *zap.Logger) *CartController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartController{carts: carts, products: products, logger: logger}
}

// @Summary Get cart
// @Description Get the session's cart items
// @Tags Cart
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.CartResponse
// @Router /cart/data [get]
func (ctrl *CartController) GetCartData(c *gin.Context) {
	cart, ok := ctrl.cart(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, cartResponse(cart, ""))
}

// @Summary Get cart count
// @Description Get the number of distinct lines in the session's cart
// @Tags Cart
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.CartCountResponse
// @Router /cart/count [get]
func (ctrl *CartController) GetCartCount(c *gin.Context) {
	cart, ok := ctrl.cart(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, models.CartCountResponse{Success: true, ItemCount: cart.GetItemCount()})
}

// @Summary Add to cart
// @Description Add a quantity of a product; an existing line is merged
// @Tags Cart
// @Security BearerAuth
// @Accept x-www-form-urlencoded
// @Produce json
// @Param productId formData int true "Product ID"
// @Param quantity formData number true "Quantity"
// @Success 200 {object} models.CartResponse
// @Router /cart/add [post]
func (ctrl *CartController) AddToCart(c *gin.Context) {
	productID, quantity, ok := ctrl.bindItemForm(c)
	if !ok {
		return
	}
	if !quantity.IsPositive() {
		ctrl.fail(c, services.ErrInvalidQuantity)
		return
	}

	item, err := ctrl.products.LineItemFor(c.Request.Context(), productID, quantity)
	if err != nil {
		ctrl.fail(c, err)
		return
	}

	cart, ok := ctrl.cart(c)
	if !ok {
		return
	}
	if err := cart.AddItem(c.Request.Context(), item); err != nil {
		ctrl.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, cartResponse(cart, "Item added to cart"))
}

// @Summary Update cart item
// @Description Set a line's quantity; zero or less removes the line
// @Tags Cart
// @Security BearerAuth
// @Accept x-www-form-urlencoded
// @Produce json
// @Param productId formData int true "Product ID"
// @Param quantity formData number true "Quantity"
// @Success 200 {object} models.CartResponse
// @Failure 404 {object} models.CartResponse
// @Router /cart/update [post]
func (ctrl *CartController) UpdateCartItem(c *gin.Context) {
	productID, quantity, ok := ctrl.bindItemForm(c)
	if !ok {
		return
	}

	cart, ok := ctrl.cart(c)
	if !ok {
		return
	}
	if err := cart.UpdateQuantity(c.Request.Context(), productID, quantity); err != nil {
		ctrl.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, cartResponse(cart, "Cart updated"))
}

// @Summary Remove from cart
// @Description Remove a product's line; removing a missing line succeeds
// @Tags Cart
// @Security BearerAuth
// @Produce json
// @Param productId path int true "Product ID"
// @Success 200 {object} models.CartResponse
// @Router /cart/remove/{productId} [post]
func (ctrl *CartController) RemoveFromCart(c *gin.Context) {
	productID, err := utils.ParseProductID(c.Param("productId"))
	if err != nil {
		ctrl.fail(c, err)
		return
	}

	cart, ok := ctrl.cart(c)
	if !ok {
		return
	}
	removed, err := cart.RemoveItem(c.Request.Context(), productID)
	if err != nil {
		ctrl.fail(c, err)
		return
	}

	message := "Item removed from cart"
	if !removed {
		message = "Item was not in cart"
	}
	c.JSON(http.StatusOK, cartResponse(cart, message))
}

// @Summary Clear cart
// @Description Empty the cart and redirect to the cart data
// @Tags Cart
// @Security BearerAuth
// @Success 303
// @Router /cart/clear [post]
func (ctrl *CartController) ClearCart(c *gin.Context) {
	cart, ok := ctrl.cart(c)
	if !ok {
		return
	}
	if err := cart.ClearCart(c.Request.Context()); err != nil {
		ctrl.fail(c, err)
		return
	}

	c.Redirect(http.StatusSeeOther, "/cart/data")
}

func (ctrl *CartController) cart(c *gin.Context) (*services.CartService, bool) {
	session, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.CartResponse{Success: false, Message: "Session required", Items: []models.LineItem{}})
		return nil, false
	}

	cart, err := ctrl.carts.Cart(c.Request.Context(), session)
	if err != nil {
		ctrl.fail(c, err)
		return nil, false
	}
	return cart, true
}

func (ctrl *CartController) bindItemForm(c *gin.Context) (int64, decimal.Decimal, bool) {
	var form models.CartItemForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, models.CartResponse{
			Success: false,
			Message: "productId and quantity are required",
			Items:   []models.LineItem{},
		})
		return 0, decimal.Zero, false
	}

	productID, err := utils.ParseProductID(form.ProductID)
	if err != nil {
		ctrl.fail(c, err)
		return 0, decimal.Zero, false
	}
	quantity, err := utils.ParseQuantity(form.Quantity)
	if err != nil {
		ctrl.fail(c, err)
		return 0, decimal.Zero, false
	}
	return productID, quantity, true
}

func (ctrl *CartController) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrInvalidQuantity),
		errors.Is(err, services.ErrInvalidPrice),
		errors.Is(err, utils.ErrInvalidNumber),
		errors.Is(err, utils.ErrInvalidProductID):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrItemNotFound),
		errors.Is(err, repositories.ErrProductNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrNotReady):
		status = http.StatusConflict
	case errors.Is(err, services.ErrAdapterFailure):
		status = http.StatusBadGateway
		// The store may have applied the change before failing; reload next time.
		if session, ok := middleware.GetSession(c); ok {
			ctrl.carts.Forget(session.ID)
		}
	}

	message := err.Error()
	var rejected *repositories.RejectedError
	if errors.As(err, &rejected) {
		if rejected.Message != "" {
			message = rejected.Message
		}
		if rejected.Status >= http.StatusBadRequest && rejected.Status < http.StatusInternalServerError {
			status = rejected.Status
		}
	}

	if status >= http.StatusInternalServerError {
		ctrl.logger.Error("cart request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	_ = c.Error(err)
	c.JSON(status, models.CartResponse{Success: false, Message: message, Items: []models.LineItem{}})
}

func cartResponse(cart *services.CartService, message string) models.CartResponse {
	snap := cart.Snapshot()
	return models.CartResponse{
		Success:   true,
		Message:   message,
		Items:     snap.Items,
		ItemCount: snap.ItemCount,
		Total:     snap.Total,
	}
}
