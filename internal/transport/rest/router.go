package rest

import (
	"net/http"

	"github.com/gorilla/mux"

	"scaledrill/internal/config"
	"scaledrill/internal/service"
	"scaledrill/internal/transport/rest/handler"
	"scaledrill/internal/transport/rest/middleware"
	"scaledrill/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService   *service.AuthService
	PresetService *service.PresetService
	DrillService  *service.DrillService
	WSHub         *ws.Hub
	CORS          config.CORSConfig
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	presetHandler := handler.NewPresetHandler(c.PresetService)
	drillHandler := handler.NewDrillHandler(c.DrillService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.DrillService)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.CORS))

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	v1.HandleFunc("/options", drillHandler.Options).Methods("GET", "OPTIONS")
	v1.HandleFunc("/questions", drillHandler.Generate).Methods("POST", "OPTIONS")
	v1.HandleFunc("/check", drillHandler.Check).Methods("POST", "OPTIONS")
	v1.HandleFunc("/drills", drillHandler.Start).Methods("POST", "OPTIONS")

	// WebSocket routes (public with token in query param)
	v1.HandleFunc("/ws/drills/{sessionId}", wsHandler.DrillWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Host routes (require host auth)
	hostRoutes := v1.NewRoute().Subrouter()
	hostRoutes.Use(authMW.RequireHost)

	hostRoutes.HandleFunc("/presets", presetHandler.Create).Methods("POST", "OPTIONS")
	hostRoutes.HandleFunc("/presets", presetHandler.List).Methods("GET", "OPTIONS")
	hostRoutes.HandleFunc("/presets/{code}", presetHandler.Get).Methods("GET", "OPTIONS")
	hostRoutes.HandleFunc("/presets/{code}", presetHandler.Update).Methods("PUT", "OPTIONS")
	hostRoutes.HandleFunc("/presets/{code}", presetHandler.Delete).Methods("DELETE", "OPTIONS")

	// Drill routes (require drill auth)
	drillRoutes := v1.NewRoute().Subrouter()
	drillRoutes.Use(authMW.RequireDrill)

	drillRoutes.HandleFunc("/drills", drillHandler.End).Methods("DELETE", "OPTIONS")
	drillRoutes.HandleFunc("/drills/current", drillHandler.Current).Methods("GET", "OPTIONS")
	drillRoutes.HandleFunc("/drills/next", drillHandler.Next).Methods("POST", "OPTIONS")
	drillRoutes.HandleFunc("/drills/answer", drillHandler.Answer).Methods("POST", "OPTIONS")
	drillRoutes.HandleFunc("/drills/config", drillHandler.UpdateConfig).Methods("PUT", "OPTIONS")

	return r
}

func corsMiddleware(cors config.CORSConfig) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", cors.AllowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", cors.AllowedMethods)
			w.Header().Set("Access-Control-Allow-Headers", cors.AllowedHeaders)

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
