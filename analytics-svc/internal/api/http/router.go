package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"quickbite/pkg/session"
)

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.health).Methods("GET")
	r.HandleFunc("/api/stats", h.getStats).Methods("GET")
	r.HandleFunc("/api/homepage/top-restaurants", h.getHomepageRestaurants).Methods("GET")
	r.HandleFunc("/api/homepage/top-menu-items", h.getHomepageMenuItems).Methods("GET")

	admin := r.PathPrefix("/api/admin/reports").Subrouter()
	admin.Use(session.Require(session.RoleAdmin))
	admin.HandleFunc("/top-restaurants", h.getTopRestaurants).Methods("GET")
	admin.HandleFunc("/top-customers", h.getTopCustomers).Methods("GET")
	admin.HandleFunc("/revenue", h.getRevenue).Methods("GET")
	admin.HandleFunc("/spend", h.getSpend).Methods("GET")

	rest := r.PathPrefix("/api/restaurant/reports").Subrouter()
	rest.Use(session.Require(session.RoleRestaurant))
	rest.HandleFunc("/summary", h.getSummary).Methods("GET")
	rest.HandleFunc("/ratings", h.getRatings).Methods("GET")
}

// NewRouter resolves sessions from the Redis store shared with market-svc.
func NewRouter(h *Handler, allowedOrigins []string) http.Handler {
	r := mux.NewRouter()
	if h.Log != nil {
		r.Use(h.Log.HTTPMiddleware)
	}
	r.Use(h.Sessions.Load)
	h.RegisterRoutes(r)

	return cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}).Handler(r)
}
