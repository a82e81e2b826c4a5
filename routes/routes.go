// routes/routes.go
package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vendadia/blingserver/infrastructure"
	"github.com/vendadia/blingserver/internal/auth"
)

// SetupRoutes configures all API routes.
func SetupRoutes(router *mux.Router, c *infrastructure.Container, logger *zap.Logger) {
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods("GET")

	// Register auth routes
	RegisterAuthRoutes(router, c.AuthHandler)

	// API routes - protected with a valid Bling credential
	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(auth.RequireCredential(c.AuthManager, c.SessionRegistry, logger))

	RegisterSalesRoutes(apiRouter, c.SalesHandler)
}
