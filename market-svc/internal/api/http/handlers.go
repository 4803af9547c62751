package httpapi

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"quickbite/market-svc/internal/domain"
	"quickbite/market-svc/internal/mpesa"
	"quickbite/market-svc/internal/service"
	"quickbite/market-svc/internal/storage"
	"quickbite/pkg/apperr"
	"quickbite/pkg/logger"
	"quickbite/pkg/session"
)

type Handler struct {
	Identity service.IdentityServiceInterface
	Catalog  service.CatalogServiceInterface
	Orders   service.OrderServiceInterface
	Payments service.PaymentServiceInterface
	Reviews  service.ReviewServiceInterface
	Sessions *session.Manager

	CallbackToken string
	Log           *logger.Logger
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Validation("invalid JSON body: %v", err)
	}
	return nil
}

// decodeOptionalJSON is decodeJSON for endpoints whose body may be absent,
// including an empty chunked body.
func decodeOptionalJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return apperr.Validation("invalid JSON body: %v", err)
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid %s", name)
	}
	return id, nil
}

// caller is set by session.Require on every role-gated route.
func caller(r *http.Request) session.Principal {
	p, _ := session.FromContext(r.Context())
	return p
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	apperr.WriteJSON(w, status, v)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Identity

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var in domain.SignupInput
	if err := decodeJSON(r, &in); err != nil {
		apperr.Write(w, err)
		return
	}
	actor, err := h.Identity.Signup(r.Context(), in)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, actor)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string       `json:"email"`
		Password string       `json:"password"`
		Role     session.Role `json:"role"`
	}
	if err := decodeJSON(r, &in); err != nil {
		apperr.Write(w, err)
		return
	}
	actor, err := h.Identity.Authenticate(r.Context(), in.Email, in.Password, in.Role)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	if err := h.Sessions.Login(w, r, actor.Ref()); err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, actor)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Logout(w, r); err != nil {
		apperr.Write(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	actor, err := h.Identity.Me(r.Context(), caller(r))
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, actor)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var patch domain.ProfilePatch
	if err := decodeJSON(r, &patch); err != nil {
		apperr.Write(w, err)
		return
	}
	actor, err := h.Identity.UpdateProfile(r.Context(), caller(r), patch)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, actor)
}

// readUpload returns the "image" form file with its sniffed content type.
func readUpload(w http.ResponseWriter, r *http.Request) (string, io.Reader, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxUploadSize+(1<<20))
	if err := r.ParseMultipartForm(storage.MaxUploadSize); err != nil {
		return "", nil, nil, apperr.Validation("invalid upload: %v", err)
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		return "", nil, nil, apperr.Validation("image file is required")
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		file.Close()
		return "", nil, nil, apperr.Validation("unreadable upload")
	}
	head = head[:n]
	return http.DetectContentType(head), io.MultiReader(bytes.NewReader(head), file), func() { file.Close() }, nil
}

func (h *Handler) uploadProfileImage(w http.ResponseWriter, r *http.Request) {
	contentType, body, done, err := readUpload(w, r)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	defer done()

	url, err := h.Identity.UploadImage(r.Context(), caller(r), contentType, body)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (h *Handler) listRestaurants(w http.ResponseWriter, r *http.Request) {
	restaurants, err := h.Identity.ListRestaurants(r.Context())
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, restaurants)
}

func (h *Handler) getRestaurant(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apperr.Write(w, err)
		return
	}
	restaurant, err := h.Identity.GetRestaurant(r.Context(), id)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, restaurant)
}

func (h *Handler) createAgent(w http.ResponseWriter, r *http.Request) {
	var in domain.SignupInput
	if err := decodeJSON(r, &in); err != nil {
		apperr.Write(w, err)
		return
	}
	agent, err := h.Identity.CreateAgent(r.Context(), caller(r).ActorID, in)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, agent)
}

func (h *Handler) listAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := h.Identity.ListAgents(r.Context(), caller(r).ActorID)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agents)
}

func (h *Handler) deleteAgent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apperr.Write(w, err)
		return
	}
	if err := h.Identity.DeleteAgent(r.Context(), caller(r).ActorID, id); err != nil {
		apperr.Write(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) provisionRestaurant(w http.ResponseWriter, r *http.Request) {
	var in domain.SignupInput
	if err := decodeJSON(r, &in); err != nil {
		apperr.Write(w, err)
		return
	}
	restaurant, err := h.Identity.ProvisionRestaurant(r.Context(), in)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, restaurant)
}

func (h *Handler) deleteRestaurant(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apperr.Write(w, err)
		return
	}
	if err := h.Identity.DeleteRestaurant(r.Context(), id); err != nil {
		apperr.Write(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.Identity.ListCustomers(r.Context())
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customers)
}

func (h *Handler) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apperr.Write(w, err)
		return
	}
	if err := h.Identity.DeleteCustomer(r.Context(), id); err != nil {
		apperr.Write(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Catalog

func (h *Handler) publicMenu(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apperr.Write(w, err)
		return
	}
	items, err := h.Catalog.ListAvailable(r.Context(), id)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) ownMenu(w http.ResponseWriter, r *http.Request) {
	items, err := h.Catalog.ListAll(r.Context(), caller(r).ActorID)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	item := domain.MenuItem{Available: true}
	if err := decodeJSON(r, &item); err != nil {
		apperr.Write(w, err)
		return
	}
	item.ID = 0
	item.RestaurantID = caller(r).ActorID
	if err := h.Catalog.CreateItem(r.Context(), &item); err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apperr.Write(w, err)
		return
	}
	var patch domain.MenuItemPatch
	if err := decodeJSON(r, &patch); err != nil {
		apperr.Write(w, err)
		return
	}
	item, err := h.Catalog.UpdateItem(r.Context(), caller(r).ActorID, id, patch)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apperr.Write(w, err)
		return
	}
	if err := h.Catalog.DeleteItem(r.Context(), caller(r).ActorID, id); err != nil {
		apperr.Write(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) uploadItemImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apperr.Write(w, err)
		return
	}
	contentType, body, done, err := readUpload(w, r)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	defer done()

	url, err := h.Catalog.UploadItemImage(r.Context(), caller(r).ActorID, id, contentType, body)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// Orders

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var in domain.OrderInput
	if err := decodeJSON(r, &in); err != nil {
		apperr.Write(w, err)
		return
	}
	order, err := h.Orders.Create(r.Context(), caller(r).ActorID, in)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Orders.List(r.Context(), caller(r))
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apperr.Write(w, err)
		return
	}
	order, err := h.Orders.Get(r.Context(), caller(r), id)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) assignAgent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apperr.Write(w, err)
		return
	}
	var in struct {
		AgentID int64 `json:"agent_id"`
	}
	if err := decodeJSON(r, &in); err != nil {
		apperr.Write(w, err)
		return
	}
	order, err := h.Orders.AssignAgent(r.Context(), id, in.AgentID, caller(r).ActorID)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) setDeliveryTime(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apperr.Write(w, err)
		return
	}
	var in struct {
		DeliveryTime string `json:"delivery_time"`
	}
	if err := decodeJSON(r, &in); err != nil {
		apperr.Write(w, err)
		return
	}
	order, err := h.Orders.SetDeliveryTime(r.Context(), id, in.DeliveryTime, caller(r).ActorID)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) editLines(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apperr.Write(w, err)
		return
	}
	var in struct {
		Lines []domain.LineRequest `json:"lines"`
	}
	if err := decodeJSON(r, &in); err != nil {
		apperr.Write(w, err)
		return
	}
	order, err := h.Orders.EditLines(r.Context(), id, in.Lines, caller(r).ActorID)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apperr.Write(w, err)
		return
	}
	if err := h.Orders.Delete(r.Context(), caller(r), id); err != nil {
		apperr.Write(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) orderQRCode(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apperr.Write(w, err)
		return
	}
	png, err := h.Orders.QRCode(r.Context(), caller(r), id)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// Payments

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apperr.Write(w, err)
		return
	}
	var in domain.PaymentInput
	if err := decodeOptionalJSON(r, &in); err != nil {
		apperr.Write(w, err)
		return
	}
	payment, err := h.Payments.Record(r.Context(), id, caller(r).ActorID, in)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, payment)
}

func (h *Handler) initiatePush(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apperr.Write(w, err)
		return
	}
	var in struct {
		Phone string `json:"phone"`
	}
	if err := decodeJSON(r, &in); err != nil {
		apperr.Write(w, err)
		return
	}
	resp, err := h.Payments.InitiatePush(r.Context(), id, caller(r).ActorID, in.Phone)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, resp)
}

// mpesaCallback is authenticated by the secret path token, not a session.
func (h *Handler) mpesaCallback(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]
	if h.CallbackToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(h.CallbackToken)) != 1 {
		apperr.Write(w, apperr.NotFound("not found"))
		return
	}

	var cb mpesa.Callback
	if err := decodeJSON(r, &cb); err != nil {
		apperr.Write(w, err)
		return
	}
	if _, err := h.Payments.SettleFromCallback(r.Context(), &cb); err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ResultCode": 0, "ResultDesc": "Accepted"})
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.Payments.List(r.Context(), caller(r))
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}

// Reviews

type reviewPayload struct {
	TargetID int64  `json:"target_id"`
	Rating   int    `json:"rating"`
	Comment  string `json:"comment"`
}

type reviewResult struct {
	Review       *domain.Review `json:"review,omitempty"`
	TargetRating float64        `json:"target_rating"`
}

func reviewKind(r *http.Request) (domain.ReviewKind, error) {
	return domain.ParseReviewKind(mux.Vars(r)["kind"])
}

func (h *Handler) submitReview(w http.ResponseWriter, r *http.Request) {
	kind, err := reviewKind(r)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	var in reviewPayload
	if err := decodeJSON(r, &in); err != nil {
		apperr.Write(w, err)
		return
	}
	rv := &domain.Review{Kind: kind, CustomerID: caller(r).ActorID, TargetID: in.TargetID, Rating: in.Rating, Comment: in.Comment}
	rating, err := h.Reviews.Submit(r.Context(), rv)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reviewResult{Review: rv, TargetRating: rating})
}

func (h *Handler) updateReview(w http.ResponseWriter, r *http.Request) {
	kind, err := reviewKind(r)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		apperr.Write(w, err)
		return
	}
	var in reviewPayload
	if err := decodeJSON(r, &in); err != nil {
		apperr.Write(w, err)
		return
	}
	rv := &domain.Review{ID: id, Kind: kind, CustomerID: caller(r).ActorID, Rating: in.Rating, Comment: in.Comment}
	rating, err := h.Reviews.Update(r.Context(), rv)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reviewResult{Review: rv, TargetRating: rating})
}

func (h *Handler) deleteReview(w http.ResponseWriter, r *http.Request) {
	kind, err := reviewKind(r)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		apperr.Write(w, err)
		return
	}
	rating, err := h.Reviews.Delete(r.Context(), kind, id, caller(r).ActorID)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reviewResult{TargetRating: rating})
}

func (h *Handler) customerReviews(w http.ResponseWriter, r *http.Request) {
	kind, err := reviewKind(r)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	reviews, err := h.Reviews.ListByCustomer(r.Context(), kind, caller(r).ActorID)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

func (h *Handler) restaurantReviews(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apperr.Write(w, err)
		return
	}
	reviews, err := h.Reviews.ListForTarget(r.Context(), domain.ReviewRestaurant, id)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

func (h *Handler) ownReviews(kind domain.ReviewKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reviews, err := h.Reviews.ListForTarget(r.Context(), kind, caller(r).ActorID)
		if err != nil {
			apperr.Write(w, err)
			return
		}
		writeJSON(w, http.StatusOK, reviews)
	}
}
