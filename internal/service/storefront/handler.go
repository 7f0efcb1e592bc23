package storefront

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/checkout"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/httpx"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/orderclient"
	"github.com/vladislavdragonenkov/storefront/internal/pricing"
)

var (
	errCheckoutNotStarted  = errors.New("checkout has not been started")
	errUnknownDrawerAction = errors.New("drawer action must be open, close or toggle")
)

// OrderService — клиент сервиса заказов, которым пользуется витрина.
type OrderService interface {
	domain.OrderSubmitter
	domain.NewsletterSubscriber
}

// Handler обслуживает JSON API витрины.
type Handler struct {
	hub     *Hub
	catalog *catalog.Catalog
	pricing *pricing.Engine
	orders  OrderService
	metrics *metrics.CheckoutMetrics
	logger  *log.Entry
}

// NewHandler создаёт обработчики витрины.
func NewHandler(hub *Hub, cat *catalog.Catalog, engine *pricing.Engine, orders OrderService, m *metrics.CheckoutMetrics, logger *log.Entry) *Handler {
	if logger == nil {
		logger = log.WithField("component", "storefront-http")
	}
	return &Handler{
		hub:     hub,
		catalog: cat,
		pricing: engine,
		orders:  orders,
		metrics: m,
		logger:  logger,
	}
}

// Routes регистрирует маршруты витрины.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/api/products", h.listProducts)
	r.Get("/api/products/{slug}", h.getProduct)
	r.Get("/api/search", h.search)

	r.Route("/api/cart", func(r chi.Router) {
		r.Get("/", h.getCart)
		r.Delete("/", h.clearCart)
		r.Post("/items", h.addItem)
		r.Patch("/items/{cartID}", h.updateItem)
		r.Delete("/items/{cartID}", h.removeItem)
		r.Post("/drawer/{action}", h.drawer)
		r.Post("/promo", h.applyPromo)
	})

	r.Route("/api/checkout", func(r chi.Router) {
		r.Post("/", h.startCheckout)
		r.Get("/", h.getCheckout)
		r.Put("/shipping", h.setShipping)
		r.Put("/payment", h.setPayment)
		r.Post("/next", h.next)
		r.Post("/back", h.back)
		r.Post("/place-order", h.placeOrder)
	})

	r.Post("/api/newsletter", h.subscribe)
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Slug      string `json:"slug"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Quantity  int    `json:"quantity"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

type promoRequest struct {
	Code string `json:"code"`
}

type newsletterRequest struct {
	Email string `json:"email"`
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products := h.catalog.Products()
	if category := strings.TrimSpace(r.URL.Query().Get("category")); category != "" {
		products = h.catalog.ByCategory(category)
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{"products": buildProducts(products)})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.BySlug(chi.URLParam(r, "slug"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, buildProduct(product))
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"query":    query,
		"products": buildProducts(h.catalog.Search(query)),
	})
}

// withSession выполняет fn под мьютексом сессии и отвечает её результатом.
func (h *Handler) withSession(w http.ResponseWriter, r *http.Request, fn func(sess *Session) (interface{}, error)) {
	sess, err := h.hub.Acquire(r.Context(), r.Header.Get(SessionHeader))
	if err != nil {
		h.logger.WithError(err).Error("failed to open storefront session")
		httpx.WriteDetail(w, http.StatusInternalServerError, "Failed to load cart")
		return
	}
	payload, err := fn(sess)
	sess.Unlock()

	w.Header().Set(SessionHeader, sess.ID())
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, payload)
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(sess *Session) (interface{}, error) {
		return buildCart(sess, h.pricing), nil
	})
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDecodeError(w, err)
		return
	}
	product, err := h.lookupProduct(req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.withSession(w, r, func(sess *Session) (interface{}, error) {
		_, err := sess.cart.AddItem(r.Context(), product, strings.TrimSpace(req.Size), strings.TrimSpace(req.Color), req.Quantity)
		if err := h.cartMutation(sess, "add", err); err != nil {
			return nil, err
		}
		return buildCart(sess, h.pricing), nil
	})
}

func (h *Handler) lookupProduct(req addItemRequest) (domain.Product, error) {
	if id := strings.TrimSpace(req.ProductID); id != "" {
		return h.catalog.ByID(id)
	}
	return h.catalog.BySlug(strings.TrimSpace(req.Slug))
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDecodeError(w, err)
		return
	}
	cartID := chi.URLParam(r, "cartID")
	h.withSession(w, r, func(sess *Session) (interface{}, error) {
		err := sess.cart.UpdateQuantity(r.Context(), cartID, req.Quantity)
		if err := h.cartMutation(sess, "update", err); err != nil {
			return nil, err
		}
		return buildCart(sess, h.pricing), nil
	})
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "cartID")
	h.withSession(w, r, func(sess *Session) (interface{}, error) {
		err := sess.cart.RemoveItem(r.Context(), cartID)
		if err := h.cartMutation(sess, "remove", err); err != nil {
			return nil, err
		}
		return buildCart(sess, h.pricing), nil
	})
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(sess *Session) (interface{}, error) {
		err := sess.cart.Clear(r.Context())
		if err := h.cartMutation(sess, "clear", err); err != nil {
			return nil, err
		}
		sess.promo.Reset()
		return buildCart(sess, h.pricing), nil
	})
}

func (h *Handler) drawer(w http.ResponseWriter, r *http.Request) {
	action := chi.URLParam(r, "action")
	h.withSession(w, r, func(sess *Session) (interface{}, error) {
		switch action {
		case "open":
			sess.cart.Open()
		case "close":
			sess.cart.Close()
		case "toggle":
			sess.cart.Toggle()
		default:
			return nil, errUnknownDrawerAction
		}
		return buildCart(sess, h.pricing), nil
	})
}

// cartMutation пропускает ошибки сохранения снимка: изменение в памяти уже применено,
// покупатель продолжает работу, а следующая удачная запись перезапишет снимок.
func (h *Handler) cartMutation(sess *Session, operation string, err error) error {
	if err != nil && (errors.Is(err, domain.ErrInvalidVariant) || errors.Is(err, domain.ErrProductNotFound)) {
		return err
	}
	if err != nil {
		h.logger.WithError(err).WithFields(log.Fields{
			"session_id": sess.ID(),
			"operation":  operation,
		}).Warn("cart change kept in memory, snapshot not saved")
	}
	if h.metrics != nil {
		h.metrics.RecordCartOperation(operation)
	}
	return nil
}

func (h *Handler) applyPromo(w http.ResponseWriter, r *http.Request) {
	var req promoRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDecodeError(w, err)
		return
	}
	h.withSession(w, r, func(sess *Session) (interface{}, error) {
		err := sess.promo.Apply(h.pricing, req.Code)
		if h.metrics != nil {
			h.metrics.RecordPromoAttempt(promoResult(err))
		}
		if err != nil {
			return nil, err
		}
		return buildCart(sess, h.pricing), nil
	})
}

func promoResult(err error) string {
	switch {
	case err == nil:
		return "applied"
	case errors.Is(err, domain.ErrPromoAlreadyApplied):
		return "duplicate"
	default:
		return "invalid"
	}
}

// startCheckout начинает новое оформление. Прерывать отправку в полёте нельзя.
func (h *Handler) startCheckout(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(sess *Session) (interface{}, error) {
		if sess.checkout != nil && sess.checkout.Submitting() {
			return nil, domain.ErrSubmissionInFlight
		}
		opts := []checkout.Option{
			checkout.WithLogger(h.logger.WithFields(log.Fields{"component": "checkout", "session_id": sess.ID()})),
			checkout.WithPromoCode(sess.promo.Code()),
		}
		if h.metrics != nil {
			opts = append(opts, checkout.WithObserver(h.metrics))
		}
		machine, err := checkout.New(sess.cart, h.pricing, h.orders, opts...)
		if err != nil {
			return nil, err
		}
		sess.checkout = machine
		return buildCheckout(sess), nil
	})
}

func (h *Handler) getCheckout(w http.ResponseWriter, r *http.Request) {
	h.withCheckout(w, r, func(*Session) error { return nil })
}

// withCheckout выполняет fn над начатым оформлением и отвечает его текущим видом.
func (h *Handler) withCheckout(w http.ResponseWriter, r *http.Request, fn func(sess *Session) error) {
	h.withSession(w, r, func(sess *Session) (interface{}, error) {
		if sess.checkout == nil {
			return nil, errCheckoutNotStarted
		}
		if err := fn(sess); err != nil {
			return nil, err
		}
		return buildCheckout(sess), nil
	})
}

func (h *Handler) setShipping(w http.ResponseWriter, r *http.Request) {
	h.setFields(w, r, func(m *checkout.Machine) func(map[string]string) error { return m.SetShippingFields })
}

func (h *Handler) setPayment(w http.ResponseWriter, r *http.Request) {
	h.setFields(w, r, func(m *checkout.Machine) func(map[string]string) error { return m.SetPaymentFields })
}

// setFields применяет поля формы целиком: с неизвестным полем не меняется ни одно.
func (h *Handler) setFields(w http.ResponseWriter, r *http.Request, setter func(*checkout.Machine) func(map[string]string) error) {
	var fields map[string]string
	if err := httpx.DecodeJSON(r, &fields); err != nil {
		httpx.WriteDecodeError(w, err)
		return
	}
	h.withCheckout(w, r, func(sess *Session) error {
		return setter(sess.checkout)(fields)
	})
}

func (h *Handler) next(w http.ResponseWriter, r *http.Request) {
	h.withCheckout(w, r, func(sess *Session) error { return sess.checkout.Next() })
}

func (h *Handler) back(w http.ResponseWriter, r *http.Request) {
	h.withCheckout(w, r, func(sess *Session) error { return sess.checkout.Back() })
}

// placeOrder отпускает сессию на время сетевого запроса: покупатель может читать
// корзину, а повторная отправка отклоняется машиной как ErrSubmissionInFlight.
func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, err := h.hub.Acquire(ctx, r.Header.Get(SessionHeader))
	if err != nil {
		h.logger.WithError(err).Error("failed to open storefront session")
		httpx.WriteDetail(w, http.StatusInternalServerError, "Failed to load cart")
		return
	}
	w.Header().Set(SessionHeader, sess.ID())

	if sess.checkout == nil {
		sess.Unlock()
		h.writeError(w, errCheckoutNotStarted)
		return
	}
	machine := sess.checkout
	sub, err := machine.BeginSubmission()
	sess.Unlock()
	if err != nil {
		h.writeError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordSubmissionStarted()
	}
	receipt, submitErr := h.orders.SubmitOrder(ctx, sub.Request, sub.IdempotencyKey)
	if h.metrics != nil {
		h.metrics.RecordSubmissionDone()
	}

	sess.mu.Lock()
	// Корзину очищаем с отдельным контекстом: заказ уже создан, даже если клиент отключился.
	_, finishErr := machine.FinishSubmission(context.WithoutCancel(ctx), sub, receipt, submitErr)
	if finishErr == nil {
		sess.promo.Reset()
	}
	view := buildCheckout(sess)
	sess.Unlock()

	if finishErr != nil {
		h.writeSubmissionError(w, finishErr, view)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) subscribe(w http.ResponseWriter, r *http.Request) {
	var req newsletterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDecodeError(w, err)
		return
	}
	if err := h.orders.Subscribe(r.Context(), strings.TrimSpace(req.Email)); err != nil {
		h.writeError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Subscribed successfully"})
}

func (h *Handler) writeSubmissionError(w http.ResponseWriter, err error, view checkoutView) {
	status := http.StatusBadGateway
	if !domain.IsRetryable(err) {
		status = http.StatusInternalServerError
	}
	httpx.WriteJSON(w, status, map[string]interface{}{
		"detail":    submissionMessage(err),
		"retryable": domain.IsRetryable(err),
		"checkout":  view,
	})
}

// submissionMessage отдаёт покупателю текст ошибки сервиса заказов или общий текст сбоя сети.
func submissionMessage(err error) string {
	var serverErr *orderclient.ServerError
	switch {
	case errors.As(err, &serverErr):
		return serverErr.Detail
	case errors.Is(err, domain.ErrTransport):
		return "Order service is unreachable, please try again"
	default:
		return "Failed to place order"
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var validation *checkout.ValidationError
	switch {
	case errors.As(err, &validation):
		httpx.WriteJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"detail": "Please fix the highlighted fields",
			"step":   validation.Step,
			"errors": validation.Fields,
		})
	case errors.Is(err, domain.ErrEmptyCart):
		httpx.WriteJSON(w, http.StatusConflict, map[string]string{
			"detail":   "Your cart is empty",
			"redirect": "/cart",
		})
	case errors.Is(err, domain.ErrProductNotFound):
		httpx.WriteDetail(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, errCheckoutNotStarted):
		httpx.WriteDetail(w, http.StatusNotFound, "Checkout not started")
	case errors.Is(err, domain.ErrInvalidVariant),
		errors.Is(err, domain.ErrUnknownField),
		errors.Is(err, errUnknownDrawerAction):
		httpx.WriteDetail(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrPromoInvalid):
		httpx.WriteDetail(w, http.StatusUnprocessableEntity, "Invalid promo code")
	case errors.Is(err, domain.ErrEmailRequired):
		httpx.WriteDetail(w, http.StatusUnprocessableEntity, "Email is required")
	case errors.Is(err, domain.ErrPromoAlreadyApplied),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrSubmissionInFlight):
		httpx.WriteDetail(w, http.StatusConflict, err.Error())
	case domain.IsRetryable(err):
		httpx.WriteDetail(w, http.StatusBadGateway, submissionMessage(err))
	default:
		h.logger.WithError(err).Error("storefront request failed")
		httpx.WriteDetail(w, http.StatusInternalServerError, "Internal server error")
	}
}
