// Package ordersapi предоставляет клиент внешнего API заказов ресторана.
package ordersapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"resty.dev/v3"

	"github.com/mmeshcher/restaurant-delivery/internal/model"
)

var (
	// ErrOrderNotFound возвращается, если API не знает заказ.
	ErrOrderNotFound = errors.New("order not found")
	// ErrUpstream возвращается при любой другой ошибке API заказов.
	ErrUpstream = errors.New("orders api failure")
	// ErrNotConfigured возвращается, если адрес API заказов не задан.
	ErrNotConfigured = fmt.Errorf("%w: orders api client not configured", ErrUpstream)
)

const (
	ordersPath      = "/api/restaurant/admin/orders"
	orderStatusPath = "/api/restaurant/admin/orders/{id}/status"
)

// APIError описывает ответ API с кодом ошибки.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("orders api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("orders api: status %d: %s", e.StatusCode, e.Message)
}

// Is относит ошибку к ErrOrderNotFound или ErrUpstream.
func (e *APIError) Is(target error) bool {
	if e.StatusCode == http.StatusNotFound {
		return target == ErrOrderNotFound
	}
	return target == ErrUpstream
}

// Client инкапсулирует HTTP-взаимодействие с API заказов.
type Client struct {
	baseURL string
	token   string
	http    *resty.Client
	logger  *zap.Logger

	// ReconnectDelay задаёт паузу между попытками подписки на поток событий.
	ReconnectDelay time.Duration
}

// NewClient создаёт клиент API заказов по указанному адресу.
func NewClient(baseURL, token string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	base := strings.TrimRight(baseURL, "/")
	if base != "" && !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	rc := resty.New().
		SetBaseURL(base).
		SetTimeout(5*time.Second).
		SetHeader("Accept", "application/json")
	if token != "" {
		rc.SetAuthToken(token)
	}

	return &Client{
		baseURL:        base,
		token:          token,
		http:           rc,
		logger:         logger,
		ReconnectDelay: 3 * time.Second,
	}
}

// Close освобождает ресурсы HTTP-клиента.
func (c *Client) Close() error {
	return c.http.Close()
}

// ListOrders возвращает все заказы ресторана вместе с позициями.
func (c *Client) ListOrders(ctx context.Context) ([]model.Order, error) {
	if c == nil || c.baseURL == "" {
		return nil, ErrNotConfigured
	}

	var orders []model.Order

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&orders).
		Get(ordersPath)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w: %v", ErrUpstream, err)
	}
	if resp.IsError() {
		return nil, &APIError{StatusCode: resp.StatusCode(), Message: strings.TrimSpace(resp.String())}
	}

	return orders, nil
}

// UpdateStatus запрашивает смену статуса заказа и возвращает обновлённый заказ.
func (c *Client) UpdateStatus(ctx context.Context, id int64, status model.OrderStatus) (*model.Order, error) {
	if c == nil || c.baseURL == "" {
		return nil, ErrNotConfigured
	}

	var order model.Order

	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", strconv.FormatInt(id, 10)).
		SetBody(map[string]model.OrderStatus{"status": status}).
		SetResult(&order).
		Put(orderStatusPath)
	if err != nil {
		return nil, fmt.Errorf("update order %d status: %w: %v", id, ErrUpstream, err)
	}
	if resp.IsError() {
		return nil, &APIError{StatusCode: resp.StatusCode(), Message: strings.TrimSpace(resp.String())}
	}

	if order.ID == 0 {
		order.ID = id
	}
	if order.Status == "" {
		order.Status = status
	}

	return &order, nil
}
