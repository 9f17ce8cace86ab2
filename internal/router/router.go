package router

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/restopos/api/internal/config"
	"github.com/restopos/api/internal/enum"
	"github.com/restopos/api/internal/handler"
	mw "github.com/restopos/api/internal/middleware"
	"github.com/restopos/api/internal/orderstore"
	"github.com/restopos/api/internal/ws"
)

// KitchenService drives kitchen displays and receives placed orders.
// Satisfied by *kitchen.Service.
type KitchenService interface {
	handler.KitchenServicer
	handler.OrderTracker
}

// Services bundles what the handlers run on. Store is optional: when set,
// this instance also serves the Order Store to remote terminals.
type Services struct {
	Catalog  handler.CatalogReader
	Carts    handler.CartServicer
	Kitchens KitchenService
	VAT      handler.RateReader
	Store    orderstore.Store
}

// New creates a Chi router with all application routes wired up.
// Applies authentication, kitchen scoping, and role-based middleware as needed.
func New(cfg *config.Config, svc Services, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"}, // terminal UI dev server
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Other instances read the rate through vat.HTTP without credentials.
	r.Route("/vat", handler.NewVATHandler(svc.VAT).RegisterRoutes)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/kitchens/{kitchen}", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// Front of house
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleCashier, enum.UserRoleManager))

			r.Route("/pricing", handler.NewPricingHandler(svc.Catalog).RegisterRoutes)
			r.Route("/carts", handler.NewCartHandler(svc.Carts, svc.Kitchens).RegisterRoutes)
		})

		// Kitchen-scoped routes
		r.Route("/kitchens/{kitchen}", func(r chi.Router) {
			r.Use(mw.RequireKitchen)
			handler.NewKitchenHandler(svc.Kitchens).RegisterRoutes(r)
		})

		// Order Store server, for terminals configured with ORDER_STORE_URL
		if svc.Store != nil {
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole(enum.UserRoleManager))
				r.Route("/store/orders", handler.NewOrderStoreHandler(svc.Store).RegisterRoutes)
			})
		}
	})

	log.Println("Router initialized with all handlers")
	return r
}
