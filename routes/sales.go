// routes/sales.go
package routes

import (
	"github.com/gorilla/mux"

	"github.com/vendadia/blingserver/internal/sales"
)

// RegisterSalesRoutes registers the sales dashboard routes.
func RegisterSalesRoutes(router *mux.Router, salesHandler *sales.Handler) {
	router.HandleFunc("/sales/today", salesHandler.TodayHandler).Methods("GET")
	router.HandleFunc("/sales/refresh", salesHandler.RefreshHandler).Methods("POST")
}
