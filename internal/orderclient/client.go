// Package orderclient отправляет заказы и подписки в сервис заказов по HTTP/JSON.
package orderclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const (
	// IdempotencyHeader — заголовок, по которому сервис заказов распознаёт повторы.
	IdempotencyHeader = "Idempotency-Key"

	ordersPath     = "/api/orders"
	newsletterPath = "/api/newsletter"
	unknownDetail  = "Unknown error"
	maxErrorBody   = 4 << 10
)

// ServerError — ответ сервиса заказов со статусом вне 2xx.
type ServerError struct {
	Status int
	Detail string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", domain.ErrServerRejected, e.Status, e.Detail)
}

func (e *ServerError) Unwrap() error {
	return domain.ErrServerRejected
}

// Option настраивает Client.
type Option func(*Client)

// WithHTTPClient подменяет http.Client, например в тестах.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout ограничивает время одного запроса. По умолчанию ограничения нет.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger задаёт logger клиента.
func WithLogger(logger *log.Entry) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client реализует domain.OrderSubmitter и domain.NewsletterSubscriber.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	logger  *log.Entry
}

var (
	_ domain.OrderSubmitter       = (*Client)(nil)
	_ domain.NewsletterSubscriber = (*Client)(nil)
)

// New создаёт клиент. baseURL — единственный обязательный параметр.
func New(baseURL string, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, errors.New("orderclient: base URL is required")
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("orderclient: invalid base URL %q", baseURL)
	}

	c := &Client{
		baseURL: base,
		http:    &http.Client{},
		logger:  log.New().WithField("component", "orderclient"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 && c.http.Timeout == 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c, nil
}

// BaseURL возвращает адрес сервиса заказов без завершающего "/".
func (c *Client) BaseURL() string { return c.baseURL }

type receiptPayload struct {
	Message string `json:"message"`
	OrderID string `json:"order_id"`
}

type errorPayload struct {
	Detail json.RawMessage `json:"detail"`
}

// SubmitOrder отправляет заказ. Один и тот же idempotencyKey передаётся при повторах.
func (c *Client) SubmitOrder(ctx context.Context, req domain.OrderRequest, idempotencyKey string) (domain.OrderReceipt, error) {
	headers := map[string]string{}
	if key := strings.TrimSpace(idempotencyKey); key != "" {
		headers[IdempotencyHeader] = key
	}

	var payload receiptPayload
	if err := c.post(ctx, ordersPath, req, headers, &payload); err != nil {
		c.logger.WithError(err).WithField("idempotency_key", idempotencyKey).Warn("order submission failed")
		return domain.OrderReceipt{}, err
	}

	orderID := strings.TrimSpace(payload.OrderID)
	if orderID == "" {
		return domain.OrderReceipt{}, fmt.Errorf("%w: response has no order_id", domain.ErrServerRejected)
	}
	return domain.OrderReceipt{OrderID: orderID, Message: payload.Message}, nil
}

// Subscribe подписывает email на рассылку.
func (c *Client) Subscribe(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.ErrEmailRequired
	}
	return c.post(ctx, newsletterPath, map[string]string{"email": email}, nil, nil)
}

func (c *Client) post(ctx context.Context, path string, body interface{}, headers map[string]string, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("orderclient: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("orderclient: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ServerError{Status: resp.StatusCode, Detail: readDetail(resp.Body)}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrServerRejected, err)
	}
	return nil
}

// readDetail достаёт поле detail из тела ошибки. Строку возвращает как есть,
// прочие JSON-значения (например список ошибок валидации) возвращаются в исходном виде.
func readDetail(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return unknownDetail
	}
	var payload errorPayload
	if err := json.Unmarshal(raw, &payload); err != nil || len(payload.Detail) == 0 || string(payload.Detail) == "null" {
		return unknownDetail
	}
	var detail string
	if err := json.Unmarshal(payload.Detail, &detail); err == nil {
		if strings.TrimSpace(detail) == "" {
			return unknownDetail
		}
		return detail
	}
	return string(payload.Detail)
}
