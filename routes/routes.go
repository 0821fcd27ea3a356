package routes

import (
	"greenbasket/controllers"
	"greenbasket/handler"
	"greenbasket/middleware"

	"github.com/gin-gonic/gin"
)

type Dependencies struct {
	Carts         *controllers.CartController
	Products      *controllers.ProductController
	Sessions      *controllers.SessionController
	SessionSecret string
	CSRFHeader    string
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	router.GET("/", gin.WrapF(handler.Handler))
	router.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	router.POST("/session", deps.Sessions.CreateGuestSession)
	router.GET("/products", deps.Products.GetAllProducts)
	router.GET("/products/:id", deps.Products.GetProductByID)

	cart := router.Group("/cart")
	cart.Use(middleware.SessionMiddleware(deps.SessionSecret), middleware.CSRFMiddleware(deps.CSRFHeader))
	{
		cart.GET("/data", deps.Carts.GetCartData)
		cart.GET("/count", deps.Carts.GetCartCount)
		cart.POST("/add", deps.Carts.AddToCart)
		cart.POST("/update", deps.Carts.UpdateCartItem)
		cart.POST("/remove/:productId", deps.Carts.RemoveFromCart)
		cart.POST("/clear", deps.Carts.ClearCart)
	}
}
