package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"quickbite/market-svc/internal/domain"
	"quickbite/pkg/session"
)

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.health).Methods("GET")

	r.HandleFunc("/api/signup", h.signup).Methods("POST")
	r.HandleFunc("/api/login", h.login).Methods("POST")
	r.HandleFunc("/api/logout", h.logout).Methods("POST")
	r.HandleFunc("/api/restaurants", h.listRestaurants).Methods("GET")
	r.HandleFunc("/api/restaurants/{id}", h.getRestaurant).Methods("GET")
	r.HandleFunc("/api/restaurants/{id}/menu", h.publicMenu).Methods("GET")
	r.HandleFunc("/api/restaurants/{id}/reviews", h.restaurantReviews).Methods("GET")
	r.HandleFunc("/api/payments/mpesa/callback/{token}", h.mpesaCallback).Methods("POST")

	me := r.PathPrefix("/api/me").Subrouter()
	me.Use(session.Require(session.RoleAdmin, session.RoleRestaurant, session.RoleCustomer, session.RoleAgent))
	me.HandleFunc("", h.me).Methods("GET")
	me.HandleFunc("", h.updateProfile).Methods("PATCH")
	me.HandleFunc("/image", h.uploadProfileImage).Methods("POST")

	rest := r.PathPrefix("/api/restaurant").Subrouter()
	rest.Use(session.Require(session.RoleRestaurant))
	rest.HandleFunc("/menu", h.ownMenu).Methods("GET")
	rest.HandleFunc("/menu", h.createItem).Methods("POST")
	rest.HandleFunc("/menu/{id}", h.updateItem).Methods("PATCH")
	rest.HandleFunc("/menu/{id}", h.deleteItem).Methods("DELETE")
	rest.HandleFunc("/menu/{id}/image", h.uploadItemImage).Methods("POST")
	rest.HandleFunc("/agents", h.listAgents).Methods("GET")
	rest.HandleFunc("/agents", h.createAgent).Methods("POST")
	rest.HandleFunc("/agents/{id}", h.deleteAgent).Methods("DELETE")
	rest.HandleFunc("/orders", h.listOrders).Methods("GET")
	rest.HandleFunc("/orders/{id}", h.getOrder).Methods("GET")
	rest.HandleFunc("/orders/{id}", h.deleteOrder).Methods("DELETE")
	rest.HandleFunc("/orders/{id}/agent", h.assignAgent).Methods("PUT")
	rest.HandleFunc("/payments", h.listPayments).Methods("GET")
	rest.HandleFunc("/reviews", h.ownReviews(domain.ReviewRestaurant)).Methods("GET")

	cust := r.PathPrefix("/api/customer").Subrouter()
	cust.Use(session.Require(session.RoleCustomer))
	cust.HandleFunc("/orders", h.listOrders).Methods("GET")
	cust.HandleFunc("/orders", h.createOrder).Methods("POST")
	cust.HandleFunc("/orders/{id}", h.getOrder).Methods("GET")
	cust.HandleFunc("/orders/{id}", h.deleteOrder).Methods("DELETE")
	cust.HandleFunc("/orders/{id}/lines", h.editLines).Methods("PUT")
	cust.HandleFunc("/orders/{id}/payments", h.recordPayment).Methods("POST")
	cust.HandleFunc("/orders/{id}/mpesa", h.initiatePush).Methods("POST")
	cust.HandleFunc("/orders/{id}/qrcode", h.orderQRCode).Methods("GET")
	cust.HandleFunc("/payments", h.listPayments).Methods("GET")
	cust.HandleFunc("/reviews/{kind}", h.customerReviews).Methods("GET")
	cust.HandleFunc("/reviews/{kind}", h.submitReview).Methods("POST")
	cust.HandleFunc("/reviews/{kind}/{id}", h.updateReview).Methods("PUT")
	cust.HandleFunc("/reviews/{kind}/{id}", h.deleteReview).Methods("DELETE")

	agent := r.PathPrefix("/api/agent").Subrouter()
	agent.Use(session.Require(session.RoleAgent))
	agent.HandleFunc("/orders", h.listOrders).Methods("GET")
	agent.HandleFunc("/orders/{id}", h.getOrder).Methods("GET")
	agent.HandleFunc("/orders/{id}/delivery", h.setDeliveryTime).Methods("PUT")
	agent.HandleFunc("/reviews", h.ownReviews(domain.ReviewDelivery)).Methods("GET")

	admin := r.PathPrefix("/api/admin").Subrouter()
	admin.Use(session.Require(session.RoleAdmin))
	admin.HandleFunc("/restaurants", h.listRestaurants).Methods("GET")
	admin.HandleFunc("/restaurants", h.provisionRestaurant).Methods("POST")
	admin.HandleFunc("/restaurants/{id}", h.deleteRestaurant).Methods("DELETE")
	admin.HandleFunc("/customers", h.listCustomers).Methods("GET")
	admin.HandleFunc("/customers/{id}", h.deleteCustomer).Methods("DELETE")
	admin.HandleFunc("/orders", h.listOrders).Methods("GET")
	admin.HandleFunc("/payments", h.listPayments).Methods("GET")
}

// NewRouter wires sessions, request logging, static uploads and CORS
// around the API routes.
func NewRouter(h *Handler, uploadsDir string, allowedOrigins []string) http.Handler {
	r := mux.NewRouter()
	if h.Log != nil {
		r.Use(h.Log.HTTPMiddleware)
	}
	r.Use(h.Sessions.Load)
	h.RegisterRoutes(r)

	if uploadsDir != "" {
		r.PathPrefix("/uploads/").Handler(http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadsDir))))
	}

	return cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}).Handler(r)
}
