// routes/auth.go
package routes

import (
	"github.com/gorilla/mux"

	"github.com/vendadia/blingserver/internal/auth"
)

// RegisterAuthRoutes registers all authentication-related routes.
func RegisterAuthRoutes(router *mux.Router, authHandler *auth.Handler) {
	router.HandleFunc("/auth/connect", authHandler.ConnectHandler).Methods("GET")
	router.HandleFunc("/auth/callback", authHandler.CallbackHandler).Methods("GET")
	router.HandleFunc("/auth/status", authHandler.StatusHandler).Methods("GET")
	router.HandleFunc("/auth/disconnect", authHandler.DisconnectHandler).Methods("POST")
}
