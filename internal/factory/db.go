package factory

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/levinOo/go-connpool-project/internal/connpool"
)

const defaultPingTimeout = 2 * time.Second

// DBConn оборачивает выделенный *sql.DB как соединение пула.
// Каждому объекту пула соответствует одно физическое соединение с базой.
type DBConn struct {
	db          *sql.DB
	pingTimeout time.Duration
}

// TestConn проверяет доступность базы данных через Ping с таймаутом.
func (c *DBConn) TestConn() bool {
	ctx, cancel := context.WithTimeout(context.Background(), c.pingTimeout)
	defer cancel()

	return c.db.PingContext(ctx) == nil
}

// DB возвращает обёрнутый дескриптор базы для выполнения запросов.
func (c *DBConn) DB() *sql.DB {
	return c.db
}

// DBFactory создает соединения с PostgreSQL через драйвер pgx.
type DBFactory struct {
	dsn  string
	open func() (*sql.DB, error)
}

// NewDBFactory возвращает фабрику соединений для указанной строки подключения.
func NewDBFactory(dsn string) *DBFactory {
	return &DBFactory{
		dsn: dsn,
		open: func() (*sql.DB, error) {
			return sql.Open("pgx", dsn)
		},
	}
}

// NewDBFactoryWithOpener возвращает фабрику с подменённым способом открытия базы.
// Используется в тестах для подстановки sqlmock.
func NewDBFactoryWithOpener(open func() (*sql.DB, error)) *DBFactory {
	return &DBFactory{open: open}
}

// NewConn открывает новое соединение с базой и проверяет его доступность.
func (f *DBFactory) NewConn() (connpool.Conn, error) {
	db, err := f.open()
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// один объект пула — одно физическое соединение
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), defaultPingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DBConn{db: db, pingTimeout: defaultPingTimeout}, nil
}
