package httpapi

import (
	"net/http"
	"strconv"

	"quickbite/analytics-svc/internal/service"
	"quickbite/pkg/apperr"
	"quickbite/pkg/logger"
	"quickbite/pkg/session"
)

type Handler struct {
	Analytics service.AnalyticsInterface
	Sessions  *session.Manager
	Log       *logger.Logger
}

func NewHandler(svc service.AnalyticsInterface, sessions *session.Manager, log *logger.Logger) *Handler {
	return &Handler{Analytics: svc, Sessions: sessions, Log: log}
}

func limitParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation("invalid limit %q", raw)
	}
	return limit, nil
}

// respond writes v as 200 or renders err.
func respond(w http.ResponseWriter, v any, err error) {
	if err != nil {
		apperr.Write(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	apperr.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Analytics.Stats(r.Context())
	respond(w, stats, err)
}

func (h *Handler) getHomepageRestaurants(w http.ResponseWriter, r *http.Request) {
	limit, err := limitParam(r)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	data, err := h.Analytics.HomepageRestaurants(r.Context(), limit)
	respond(w, data, err)
}

func (h *Handler) getHomepageMenuItems(w http.ResponseWriter, r *http.Request) {
	limit, err := limitParam(r)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	data, err := h.Analytics.HomepageMenuItems(r.Context(), limit)
	respond(w, data, err)
}

func (h *Handler) getTopRestaurants(w http.ResponseWriter, r *http.Request) {
	limit, err := limitParam(r)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	data, err := h.Analytics.TopRestaurants(r.Context(), limit)
	respond(w, data, err)
}

func (h *Handler) getTopCustomers(w http.ResponseWriter, r *http.Request) {
	limit, err := limitParam(r)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	data, err := h.Analytics.TopCustomers(r.Context(), limit)
	respond(w, data, err)
}

func (h *Handler) getRevenue(w http.ResponseWriter, r *http.Request) {
	data, err := h.Analytics.RestaurantRevenue(r.Context())
	respond(w, data, err)
}

func (h *Handler) getSpend(w http.ResponseWriter, r *http.Request) {
	data, err := h.Analytics.CustomerSpend(r.Context())
	respond(w, data, err)
}

// getSummary reports on the calling restaurant only.
func (h *Handler) getSummary(w http.ResponseWriter, r *http.Request) {
	p, _ := session.FromContext(r.Context())
	summary, err := h.Analytics.RestaurantSummary(r.Context(), p.ActorID)
	respond(w, summary, err)
}

func (h *Handler) getRatings(w http.ResponseWriter, r *http.Request) {
	p, _ := session.FromContext(r.Context())
	data, err := h.Analytics.RatingDistribution(r.Context(), p.ActorID)
	respond(w, data, err)
}
