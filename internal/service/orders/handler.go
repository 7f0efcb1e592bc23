package orders

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/httpx"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

const (
	idempotencyHeader = "Idempotency-Key"
	idempotencyTTL    = 24 * time.Hour

	msgOrderPlaced     = "Order placed successfully"
	msgOrderFailed     = "Failed to create order"
	msgSubscribed      = "Subscribed successfully"
	msgAlreadySubbed   = "Already subscribed"
	msgKeyReused       = "Idempotency-Key is already used with a different request"
	msgKeyProcessing   = "Request with the same Idempotency-Key is already processing"
	msgSubscribeFailed = "Failed to subscribe"
)

// Handler обслуживает HTTP API сервиса заказов.
type Handler struct {
	svc      *Service
	idemRepo domain.IdempotencyRepository
	metrics  *metrics.OrderServiceMetrics
	logger   *log.Entry
}

// NewHandler создаёт обработчики. idemRepo может быть nil: тогда Idempotency-Key игнорируется.
func NewHandler(svc *Service, idemRepo domain.IdempotencyRepository, m *metrics.OrderServiceMetrics, logger *log.Entry) *Handler {
	if logger == nil {
		logger = log.WithField("component", "orders-http")
	}
	return &Handler{svc: svc, idemRepo: idemRepo, metrics: m, logger: logger}
}

// Routes регистрирует маршруты /api/orders и /api/newsletter.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/api/orders", h.createOrder)
	r.Get("/api/orders/{orderID}", h.getOrder)
	r.Post("/api/newsletter", h.subscribe)
}

type orderResponse struct {
	Message string `json:"message"`
	OrderID string `json:"order_id"`
}

type orderView struct {
	OrderID   string    `json:"order_id"`
	CreatedAt time.Time `json:"created_at"`
	domain.OrderRequest
}

type newsletterRequest struct {
	Email string `json:"email"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	body, err := httpx.ReadLimitedBody(r, httpx.DefaultBodyLimit)
	if err != nil {
		httpx.WriteDecodeError(w, err)
		return
	}
	var req domain.OrderRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteDecodeError(w, err)
		return
	}

	key := strings.TrimSpace(r.Header.Get(idempotencyHeader))
	if key == "" || h.idemRepo == nil {
		status, payload := h.placeOrder(r, req, key)
		httpx.WriteJSON(w, status, payload)
		return
	}

	hash, err := requestHash(r.Method, r.URL.Path, req)
	if err != nil {
		h.logger.WithError(err).Warn("failed to hash order request")
		httpx.WriteDetail(w, http.StatusInternalServerError, msgOrderFailed)
		return
	}

	record, err := h.idemRepo.CreateProcessing(key, hash, time.Now().UTC().Add(idempotencyTTL))
	if err != nil {
		h.replay(w, key, record, err)
		return
	}

	status, payload := h.placeOrder(r, req, key)
	encoded, err := json.Marshal(payload)
	if err != nil {
		h.logger.WithError(err).Error("failed to encode order response")
		httpx.WriteDetail(w, http.StatusInternalServerError, msgOrderFailed)
		return
	}

	mark := h.idemRepo.MarkDone
	if status != http.StatusOK {
		mark = h.idemRepo.MarkFailed
	}
	if err := mark(key, encoded, status); err != nil {
		h.logger.WithError(err).WithField("idempotency_key", key).Warn("failed to store idempotent response")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(encoded, '\n'))
}

// placeOrder возвращает статус и тело ответа на создание заказа.
func (h *Handler) placeOrder(r *http.Request, req domain.OrderRequest, key string) (int, interface{}) {
	order, err := h.svc.PlaceOrder(r.Context(), req, key)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return http.StatusUnprocessableEntity, map[string]interface{}{"detail": verr.Problems}
		}
		return http.StatusInternalServerError, map[string]interface{}{"detail": msgOrderFailed}
	}
	return http.StatusOK, orderResponse{Message: msgOrderPlaced, OrderID: order.ID}
}

// replay отвечает на повтор запроса с уже использованным ключом.
func (h *Handler) replay(w http.ResponseWriter, key string, record domain.IdempotencyRecord, createErr error) {
	logger := h.logger.WithField("idempotency_key", key)
	switch {
	case errors.Is(createErr, domain.ErrIdempotencyHashMismatch):
		h.recordConflict()
		httpx.WriteDetail(w, http.StatusConflict, msgKeyReused)
	case errors.Is(createErr, domain.ErrIdempotencyKeyAlreadyExists):
		if record.Replayable() {
			if h.metrics != nil {
				h.metrics.RecordReplay()
			}
			logger.Info("replaying stored order response")
			status := record.HTTPStatus
			if status == 0 {
				status = http.StatusOK
			}
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Idempotent-Replayed", "true")
			w.WriteHeader(status)
			_, _ = w.Write(append(record.ResponseBody, '\n'))
			return
		}
		h.recordConflict()
		httpx.WriteDetail(w, http.StatusConflict, msgKeyProcessing)
	default:
		logger.WithError(createErr).Error("failed to reserve idempotency key")
		httpx.WriteDetail(w, http.StatusInternalServerError, msgOrderFailed)
	}
}

func (h *Handler) recordConflict() {
	if h.metrics != nil {
		h.metrics.RecordConflict()
	}
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.svc.GetOrder(chi.URLParam(r, "orderID"))
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			httpx.WriteDetail(w, http.StatusNotFound, "Order not found")
			return
		}
		h.logger.WithError(err).Error("failed to load order")
		httpx.WriteDetail(w, http.StatusInternalServerError, "Failed to load order")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, orderView{
		OrderID:      order.ID,
		CreatedAt:    order.CreatedAt,
		OrderRequest: order.Request,
	})
}

func (h *Handler) subscribe(w http.ResponseWriter, r *http.Request) {
	var req newsletterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDecodeError(w, err)
		return
	}
	email := strings.TrimSpace(req.Email)
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		httpx.WriteDetail(w, http.StatusUnprocessableEntity, "A valid email is required")
		return
	}

	created, err := h.svc.Subscribe(email)
	if err != nil {
		h.logger.WithError(err).Error("failed to subscribe")
		httpx.WriteDetail(w, http.StatusInternalServerError, msgSubscribeFailed)
		return
	}
	msg := msgAlreadySubbed
	if created {
		msg = msgSubscribed
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": msg})
}

// requestHash связывает ключ идемпотентности с конкретным телом запроса.
func requestHash(method, path string, req domain.OrderRequest) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	sum := sha256.New()
	sum.Write([]byte(method + " " + path + ":"))
	sum.Write(data)
	return hex.EncodeToString(sum.Sum(nil)), nil
}
