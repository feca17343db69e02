// Package factory содержит готовые реализации фабрик и соединений для пула:
// соединения PostgreSQL, HTTP-клиенты и статические соединения для локальных
// запусков и тестов.
package factory

import (
	"github.com/levinOo/go-connpool-project/internal/connpool"
)

// StaticConn — всегда работоспособное соединение без внешних зависимостей.
// Используется, когда сервер пула запускается без настроенного бэкенда.
type StaticConn struct {
	healthy bool
}

// TestConn возвращает текущую работоспособность соединения.
func (c *StaticConn) TestConn() bool {
	return c.healthy
}

// StaticFactory создает статические соединения.
type StaticFactory struct{}

// NewStaticFactory возвращает фабрику статических соединений.
func NewStaticFactory() *StaticFactory {
	return &StaticFactory{}
}

// NewConn возвращает новое всегда работоспособное соединение.
func (f *StaticFactory) NewConn() (connpool.Conn, error) {
	return &StaticConn{healthy: true}, nil
}
