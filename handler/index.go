package handler

import (
	"encoding/json"
	"net/http"
)

// Handler answers the service root with a short description.
func Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	response := map[string]interface{}{
		"status":  "ok",
		"message": "GreenBasket Cart API",
		"path":    r.URL.Path,
		"endpoints": []string{
			"POST /session",
			"GET /cart/data",
			"GET /cart/count",
			"POST /cart/add",
			"POST /cart/update",
			"POST /cart/remove/:productId",
			"POST /cart/clear",
			"GET /products",
			"GET /products/:id",
		},
	}

	json.NewEncoder(w).Encode(response)
}
