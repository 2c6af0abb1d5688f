// Package router wires every handler onto a single chi router with CORS,
// authentication, and role-based access control.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Sudarshan2323/Resto/internal/config"
	"github.com/Sudarshan2323/Resto/internal/enum"
	"github.com/Sudarshan2323/Resto/internal/handler"
	mw "github.com/Sudarshan2323/Resto/internal/middleware"
	"github.com/Sudarshan2323/Resto/internal/service"
	"github.com/Sudarshan2323/Resto/internal/store"
	"github.com/Sudarshan2323/Resto/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// Applies authentication and role-based middleware as needed.
func New(cfg *config.Config, st store.Store, engine *service.TableService, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(st, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// Floor operations (all staff)
		tableHandler := handler.NewTableHandler(st, engine)
		r.Route("/tables", tableHandler.RegisterRoutes)

		// Menu: reads for all staff, writes admin-only
		menuHandler := handler.NewMenuHandler(st)
		r.Route("/menu", func(r chi.Router) {
			menuHandler.RegisterReadRoutes(r)
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole(enum.UserRoleAdmin))
				menuHandler.RegisterWriteRoutes(r)
			})
		})

		orderHandler := handler.NewOnlineOrderHandler(st)
		r.Route("/online-orders", orderHandler.RegisterRoutes)

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleAdmin))

			userHandler := handler.NewUserHandler(st)
			r.Route("/users", userHandler.RegisterRoutes)

			salesHandler := handler.NewSalesHandler(st)
			r.Route("/sales", salesHandler.RegisterRoutes)

			reportsHandler := handler.NewReportsHandler(st)
			r.Route("/reports", reportsHandler.RegisterRoutes)
		})
	})

	return r
}
