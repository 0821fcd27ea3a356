package models

// CartItemForm is the form-encoded body of POST /cart/add and POST /cart/update.
// Both fields are kept as strings so quantities keep their exact decimal text.
type CartItemForm struct {
	ProductID string `form:"productId" binding:"required"`
	Quantity  string `form:"quantity" binding:"required"`
}

type ProductListQuery struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}
