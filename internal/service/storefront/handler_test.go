package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/pricing"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

func loggerForTests() *logrus.Entry {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	logger.SetLevel(logrus.DebugLevel)
	return logger.WithField("component", "test")
}

type fakeOrders struct {
	mu         sync.Mutex
	err        error
	requests   []domain.OrderRequest
	keys       []string
	subscribed []string
	started    chan struct{}
	release    chan struct{}
}

func (f *fakeOrders) SubmitOrder(_ context.Context, req domain.OrderRequest, key string) (domain.OrderReceipt, error) {
	if f.started != nil {
		f.started <- struct{}{}
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	f.keys = append(f.keys, key)
	if f.err != nil {
		return domain.OrderReceipt{}, f.err
	}
	return domain.OrderReceipt{OrderID: fmt.Sprintf("LX%08X", len(f.requests)), Message: "Order placed successfully"}, nil
}

func (f *fakeOrders) Subscribe(_ context.Context, email string) error {
	if email == "" {
		return domain.ErrEmailRequired
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribed = append(f.subscribed, email)
	return nil
}

func (f *fakeOrders) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

type testClient struct {
	t       *testing.T
	router  http.Handler
	session string
	carts   domain.CartRepository
	orders  *fakeOrders
	hub     *Hub
}

func newTestClient(t *testing.T) *testClient {
	t.Helper()
	orders := &fakeOrders{}
	c := newTestClientWith(t, orders)
	c.orders = orders
	return c
}

// newTestClientWith собирает витрину поверх произвольного клиента сервиса заказов.
func newTestClientWith(t *testing.T, orders OrderService) *testClient {
	t.Helper()
	carts := memory.NewCartRepository()
	m := metrics.NewCheckoutMetricsWithRegisterer(prometheus.NewRegistry())
	hub := NewHub(carts, m, loggerForTests())

	r := chi.NewRouter()
	NewHandler(hub, catalog.Default(), pricing.MustDefault(), orders, m, loggerForTests()).Routes(r)
	return &testClient{t: t, router: r, carts: carts, hub: hub}
}

func (c *testClient) do(method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.session != "" {
		req.Header.Set(SessionHeader, c.session)
	}
	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)

	if id := rec.Header().Get(SessionHeader); id != "" {
		c.session = id
	}
	var out map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func (c *testClient) fillScenarioCart() {
	c.t.Helper()
	rec, _ := c.do(http.MethodPost, "/api/cart/items", map[string]interface{}{"product_id": "1", "size": "M", "color": "camel", "quantity": 1})
	require.Equal(c.t, http.StatusOK, rec.Code)
	rec, _ = c.do(http.MethodPost, "/api/cart/items", map[string]interface{}{"slug": "merino-turtleneck", "size": "L", "color": "black", "quantity": 2})
	require.Equal(c.t, http.StatusOK, rec.Code)
}

func (c *testClient) reachReview() {
	c.t.Helper()
	rec, _ := c.do(http.MethodPost, "/api/checkout", nil)
	require.Equal(c.t, http.StatusOK, rec.Code)

	rec, _ = c.do(http.MethodPut, "/api/checkout/shipping", map[string]string{
		"firstName": "Ada", "lastName": "Lovelace", "email": "ada@example.com", "phone": "555 123 4567",
		"address": "1 Main St", "city": "Springfield", "state": "IL", "zip": "62701",
	})
	require.Equal(c.t, http.StatusOK, rec.Code)
	rec, _ = c.do(http.MethodPost, "/api/checkout/next", nil)
	require.Equal(c.t, http.StatusOK, rec.Code)

	rec, _ = c.do(http.MethodPut, "/api/checkout/payment", map[string]string{
		"cardNumber": "4242424242421234", "cardName": "Ada Lovelace", "expiry": "0929", "cvv": "123",
	})
	require.Equal(c.t, http.StatusOK, rec.Code)
	rec, body := c.do(http.MethodPost, "/api/checkout/next", nil)
	require.Equal(c.t, http.StatusOK, rec.Code)
	require.Equal(c.t, "review", body["step"])
}

func TestCatalogEndpoints(t *testing.T) {
	c := newTestClient(t)

	rec, body := c.do(http.MethodGet, "/api/products", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, body["products"], 8)

	rec, body = c.do(http.MethodGet, "/api/products?category=accessories", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, body["products"], 3)

	rec, body = c.do(http.MethodGet, "/api/products/cashmere-overcoat", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 2450.0, body["price"])
	require.Equal(t, 2800.0, body["originalPrice"])

	rec, _ = c.do(http.MethodGet, "/api/products/missing", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = c.do(http.MethodGet, "/api/search?q=WOOL", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, body["products"])
}

func TestCart_AddUpdateRemove(t *testing.T) {
	c := newTestClient(t)

	rec, body := c.do(http.MethodPost, "/api/cart/items", map[string]interface{}{"product_id": "1", "size": "M", "color": "camel"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, c.session)
	require.Equal(t, true, body["is_open"])
	require.Equal(t, 1.0, body["item_count"])
	require.Equal(t, 2450.0, body["subtotal"])
	require.Equal(t, 0.0, body["shipping"])

	items := body["items"].([]interface{})
	cartID := items[0].(map[string]interface{})["cartId"].(string)

	rec, body = c.do(http.MethodPatch, "/api/cart/items/"+cartID, map[string]int{"quantity": 3})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 3.0, body["item_count"])
	require.Equal(t, 7350.0, body["subtotal"])

	rec, body = c.do(http.MethodDelete, "/api/cart/items/"+cartID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 0.0, body["item_count"])
	require.Empty(t, body["items"])

	snapshot, err := c.carts.Load(context.Background(), snapshotName(c.session))
	require.NoError(t, err)
	require.Empty(t, snapshot.Items)
}

func TestCart_ShippingBelowThreshold(t *testing.T) {
	c := newTestClient(t)

	rec, body := c.do(http.MethodPost, "/api/cart/items", map[string]interface{}{"product_id": "3", "size": "S", "color": "white"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 485.0, body["subtotal"])
	require.Equal(t, 25.0, body["shipping"])
	require.Equal(t, 510.0, body["total"])
	require.Equal(t, 15.0, body["free_shipping_remaining"])
}

func TestCart_RejectsUnknownProductAndVariant(t *testing.T) {
	c := newTestClient(t)

	rec, _ := c.do(http.MethodPost, "/api/cart/items", map[string]interface{}{"product_id": "99"})
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = c.do(http.MethodPost, "/api/cart/items", map[string]interface{}{"product_id": "1", "size": "XXS"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCart_Drawer(t *testing.T) {
	c := newTestClient(t)

	rec, body := c.do(http.MethodPost, "/api/cart/drawer/open", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, body["is_open"])

	_, body = c.do(http.MethodPost, "/api/cart/drawer/toggle", nil)
	require.Equal(t, false, body["is_open"])

	rec, _ = c.do(http.MethodPost, "/api/cart/drawer/spin", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCart_Promo(t *testing.T) {
	c := newTestClient(t)
	c.fillScenarioCart()

	rec, _ := c.do(http.MethodPost, "/api/cart/promo", map[string]string{"code": "SAVE50"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, body := c.do(http.MethodPost, "/api/cart/promo", map[string]string{"code": "luxe10"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 342.0, body["discount"])
	require.Equal(t, 3078.0, body["total"])

	rec, _ = c.do(http.MethodPost, "/api/cart/promo", map[string]string{"code": "LUXE10"})
	require.Equal(t, http.StatusConflict, rec.Code)

	_, body = c.do(http.MethodDelete, "/api/cart", nil)
	require.Equal(t, 0.0, body["discount"])
	require.Nil(t, body["promo_code"])
}

func TestCheckout_EmptyCartRedirects(t *testing.T) {
	c := newTestClient(t)

	rec, body := c.do(http.MethodPost, "/api/checkout", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "/cart", body["redirect"])

	rec, _ = c.do(http.MethodGet, "/api/checkout", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckout_ShippingValidation(t *testing.T) {
	c := newTestClient(t)
	c.fillScenarioCart()

	rec, body := c.do(http.MethodPost, "/api/checkout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "shipping", body["step"])
	require.Equal(t, domain.DefaultCountry, body["shipping"].(map[string]interface{})["country"])

	rec, body = c.do(http.MethodPost, "/api/checkout/next", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Len(t, body["errors"], 8)

	rec, _ = c.do(http.MethodPut, "/api/checkout/shipping", map[string]string{"nickname": "ada"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = c.do(http.MethodPost, "/api/checkout/place-order", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestCheckout_PlaceOrder(t *testing.T) {
	c := newTestClient(t)
	c.fillScenarioCart()
	c.reachReview()

	rec, body := c.do(http.MethodGet, "/api/checkout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	totals := body["totals"].(map[string]interface{})
	require.Equal(t, 3420.0, totals["subtotal"])
	require.Equal(t, 0.0, totals["shipping"])
	require.Equal(t, 273.6, totals["tax"])
	require.Equal(t, 3693.6, totals["total"])
	payment := body["payment"].(map[string]interface{})
	require.Equal(t, "4242 4242 4242 1234", payment["cardNumber"])
	require.Equal(t, "09/29", payment["expiry"])
	require.Nil(t, payment["cvv"])

	rec, body = c.do(http.MethodPost, "/api/checkout/place-order", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "complete", body["step"])
	require.Equal(t, "LX00000001", body["order_id"])
	require.Len(t, body["items"], 2)

	require.Len(t, c.orders.requests, 1)
	sent := c.orders.requests[0]
	require.Equal(t, "1234", sent.PaymentInfo.Last4)
	require.Equal(t, 3693.6, sent.Total)
	require.NotEmpty(t, c.orders.keys[0])

	_, cartBody := c.do(http.MethodGet, "/api/cart", nil)
	require.Equal(t, 0.0, cartBody["item_count"])
	snapshot, err := c.carts.Load(context.Background(), snapshotName(c.session))
	require.NoError(t, err)
	require.Empty(t, snapshot.Items)
}

func TestCheckout_PlaceOrderFailureAllowsRetry(t *testing.T) {
	c := newTestClient(t)
	c.fillScenarioCart()
	c.reachReview()

	c.orders.setErr(fmt.Errorf("%w: connection refused", domain.ErrTransport))
	rec, body := c.do(http.MethodPost, "/api/checkout/place-order", nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Equal(t, true, body["retryable"])
	view := body["checkout"].(map[string]interface{})
	require.Equal(t, "review", view["step"])
	require.NotEmpty(t, view["last_error"])

	_, cartBody := c.do(http.MethodGet, "/api/cart", nil)
	require.Equal(t, 3.0, cartBody["item_count"])

	c.orders.setErr(nil)
	rec, body = c.do(http.MethodPost, "/api/checkout/place-order", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "complete", body["step"])

	require.Len(t, c.orders.keys, 2)
	require.Equal(t, c.orders.keys[0], c.orders.keys[1])
}

func TestCheckout_RetryAfterCartChangeUsesNewKey(t *testing.T) {
	c := newTestClient(t)
	c.fillScenarioCart()
	c.reachReview()

	c.orders.setErr(fmt.Errorf("%w: Failed to create order", domain.ErrServerRejected))
	rec, _ := c.do(http.MethodPost, "/api/checkout/place-order", nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	_, cartBody := c.do(http.MethodGet, "/api/cart", nil)
	items := cartBody["items"].([]interface{})
	cartID := items[1].(map[string]interface{})["cartId"].(string)
	rec, _ = c.do(http.MethodPatch, "/api/cart/items/"+cartID, map[string]int{"quantity": 1})
	require.Equal(t, http.StatusOK, rec.Code)

	c.orders.setErr(nil)
	rec, body := c.do(http.MethodPost, "/api/checkout/place-order", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "complete", body["step"])

	require.Len(t, c.orders.keys, 2)
	require.NotEqual(t, c.orders.keys[0], c.orders.keys[1])
	require.Equal(t, 1, c.orders.requests[1].Items[1].Quantity)
}

func TestCheckout_UnknownFieldLeavesDraftUntouched(t *testing.T) {
	c := newTestClient(t)
	c.fillScenarioCart()
	rec, _ := c.do(http.MethodPost, "/api/checkout", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = c.do(http.MethodPut, "/api/checkout/shipping", map[string]string{
		"firstName": "Ada", "city": "London", "nickname": "ada",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	_, body := c.do(http.MethodGet, "/api/checkout", nil)
	shipping := body["shipping"].(map[string]interface{})
	require.Empty(t, shipping["firstName"])
	require.Empty(t, shipping["city"])
}

func TestCheckout_PromoCarriesIntoTotals(t *testing.T) {
	c := newTestClient(t)
	c.fillScenarioCart()

	rec, _ := c.do(http.MethodPost, "/api/cart/promo", map[string]string{"code": "LUXE10"})
	require.Equal(t, http.StatusOK, rec.Code)

	_, body := c.do(http.MethodPost, "/api/checkout", nil)
	totals := body["totals"].(map[string]interface{})
	require.Equal(t, 342.0, totals["discount"])
	require.Equal(t, 3351.6, totals["total"])
}

func TestCheckout_SecondSubmissionWhileInFlight(t *testing.T) {
	c := newTestClient(t)
	c.fillScenarioCart()
	c.reachReview()

	c.orders.started = make(chan struct{})
	c.orders.release = make(chan struct{})

	done := make(chan int, 1)
	session := c.session
	go func() {
		req := httptest.NewRequest(http.MethodPost, "/api/checkout/place-order", nil)
		req.Header.Set(SessionHeader, session)
		rec := httptest.NewRecorder()
		c.router.ServeHTTP(rec, req)
		done <- rec.Code
	}()
	<-c.orders.started

	rec, _ := c.do(http.MethodPost, "/api/checkout/place-order", nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec, body := c.do(http.MethodGet, "/api/checkout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, body["submitting"])

	close(c.orders.release)
	require.Equal(t, http.StatusOK, <-done)
}

func TestSession_InvalidHeaderIsReplaced(t *testing.T) {
	c := newTestClient(t)
	c.session = "../../etc/passwd"

	rec, _ := c.do(http.MethodGet, "/api/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEqual(t, "../../etc/passwd", c.session)
	require.Len(t, c.session, 36)
}

func TestSession_CartRestoredFromSnapshot(t *testing.T) {
	c := newTestClient(t)
	c.fillScenarioCart()
	session := c.session

	restarted := newTestClient(t)
	restarted.carts = c.carts
	m := metrics.NewCheckoutMetricsWithRegisterer(prometheus.NewRegistry())
	r := chi.NewRouter()
	NewHandler(NewHub(c.carts, m, loggerForTests()), catalog.Default(), pricing.MustDefault(), restarted.orders, m, loggerForTests()).Routes(r)
	restarted.router = r
	restarted.session = session

	rec, body := restarted.do(http.MethodGet, "/api/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 3.0, body["item_count"])
	require.Equal(t, false, body["is_open"])
}

func TestNewsletterProxy(t *testing.T) {
	c := newTestClient(t)

	rec, body := c.do(http.MethodPost, "/api/newsletter", map[string]string{"email": " ada@example.com "})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Subscribed successfully", body["message"])
	require.Equal(t, []string{"ada@example.com"}, c.orders.subscribed)

	rec, _ = c.do(http.MethodPost, "/api/newsletter", map[string]string{"email": ""})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
