package factory

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/levinOo/go-connpool-project/internal/connpool"
)

const defaultHealthTimeout = 2 * time.Second

// HTTPConn оборачивает resty-клиент как соединение пула.
// Работоспособность определяется ответом health-эндпоинта бэкенда.
type HTTPConn struct {
	client     *resty.Client
	healthPath string
}

// TestConn выполняет GET на health-эндпоинт и ожидает статус 200.
func (c *HTTPConn) TestConn() bool {
	resp, err := c.client.R().Get(c.healthPath)
	if err != nil {
		return false
	}

	return resp.StatusCode() == http.StatusOK
}

// Client возвращает обёрнутый resty-клиент для выполнения запросов.
func (c *HTTPConn) Client() *resty.Client {
	return c.client
}

// HTTPFactory создает HTTP-клиенты, привязанные к одному бэкенду.
type HTTPFactory struct {
	baseURL    string
	healthPath string
}

// NewHTTPFactory возвращает фабрику клиентов для указанного бэкенда.
// healthPath — путь health-эндпоинта относительно baseURL (например, "/healthz").
func NewHTTPFactory(baseURL, healthPath string) *HTTPFactory {
	return &HTTPFactory{
		baseURL:    baseURL,
		healthPath: healthPath,
	}
}

// NewConn создает нового клиента и сразу проверяет его работоспособность.
func (f *HTTPFactory) NewConn() (connpool.Conn, error) {
	client := resty.New().
		SetBaseURL(f.baseURL).
		SetTimeout(defaultHealthTimeout)

	c := &HTTPConn{client: client, healthPath: f.healthPath}

	if !c.TestConn() {
		return nil, fmt.Errorf("health check failed for backend %s", f.baseURL)
	}

	return c, nil
}
