// Package db проверяет доступность базы данных, соединениями с которой
// наполняется пул.
package db

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// CheckDatabase открывает соединение с базой по строке подключения
// и проверяет её доступность через Ping. Используется при старте сервера
// и обработчиком /ping.
func CheckDatabase(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	err = db.PingContext(ctx)
	if err != nil {
		return err
	}

	return nil
}
