// Package handler содержит HTTP-обработчики сервера пула соединений:
// статистику пула и хоста, проверку базы данных и выполнение операций
// через пул.
package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/levinOo/go-connpool-project/internal/config"
	"github.com/levinOo/go-connpool-project/internal/config/db"
	"github.com/levinOo/go-connpool-project/internal/connpool"
	"github.com/levinOo/go-connpool-project/internal/logger"
	"github.com/levinOo/go-connpool-project/internal/models"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"
)

// maxHold ограничивает время удержания соединения обработчиком /work,
// чтобы запрос не мог занять слот дольше разумного.
const maxHold = 5 * time.Second

// NewRouter создает chi-маршрутизатор сервера пула.
func NewRouter(pool *connpool.Pool, sugar *zap.SugaredLogger, cfg config.Config) *chi.Mux {
	r := chi.NewRouter()

	r.Get("/", LoggerFuncServer(StatsHandler(pool, sugar), sugar))
	r.Get("/stats", LoggerFuncServer(StatsHandler(pool, sugar), sugar))
	r.Get("/ping", LoggerFuncServer(PingHandler(cfg.AddrDB), sugar))
	r.Get("/work", LoggerFuncServer(WorkHandler(pool, cfg), sugar))

	return r
}

// LoggerFuncServer оборачивает обработчик логированием метода, URI,
// длительности, статуса и размера ответа.
func LoggerFuncServer(h http.Handler, sugar *zap.SugaredLogger) http.HandlerFunc {
	logFn := func(rw http.ResponseWriter, r *http.Request) {
		start := time.Now()

		responseData := &logger.ResponseData{
			Size:   0,
			Status: 0,
		}
		lw := logger.LoggingRW{
			ResponseWriter: rw,
			ResponseData:   responseData,
		}

		h.ServeHTTP(&lw, r)

		dur := time.Since(start)

		sugar.Infoln(
			"uri", r.RequestURI,
			"method", r.Method,
			"duration", dur,
			"status", responseData.Status,
			"size", responseData.Size,
		)
	}
	return http.HandlerFunc(logFn)
}

// StatsHandler отдает статистику пула и показатели хоста в формате JSON.
func StatsHandler(pool *connpool.Pool, sugar *zap.SugaredLogger) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		resp := models.StatsResponse{
			Pool:   pool.Stats(),
			System: collectSystemStats(sugar),
		}

		rw.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(rw).Encode(resp); err != nil {
			log.Printf("write stats response error: %v", err)
		}
	}
}

func collectSystemStats(sugar *zap.SugaredLogger) models.SystemStats {
	var stats models.SystemStats

	vm, err := mem.VirtualMemory()
	if err != nil {
		sugar.Debugw("Failed to collect memory stats", "error", err)
	} else {
		stats.TotalMemory = float64(vm.Total)
		stats.FreeMemory = float64(vm.Free)
	}

	percents, err := cpu.Percent(0, false)
	if err != nil {
		sugar.Debugw("Failed to collect CPU stats", "error", err)
	} else if len(percents) > 0 {
		stats.CPUutilization1 = percents[0]
	}

	return stats
}

// PingHandler проверяет доступность базы данных, указанной в конфигурации.
func PingHandler(cfgAddrDB string) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if cfgAddrDB == "" {
			http.Error(rw, "Database is not configured", http.StatusInternalServerError)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		err := db.CheckDatabase(ctx, cfgAddrDB)
		if err != nil {
			http.Error(rw, "No connection with database", http.StatusInternalServerError)
			return
		}

		rw.WriteHeader(http.StatusOK)
		rw.Write([]byte("Database is reachable"))
	}
}

// WorkHandler выполняет операцию через пул: забирает соединение,
// удерживает его указанное параметром hold число миллисекунд и возвращает.
// Если свободное соединение не появилось за настроенный таймаут,
// отвечает 503 — штатный результат при исчерпанном пуле.
func WorkHandler(pool *connpool.Pool, cfg config.Config) http.HandlerFunc {
	timeout := time.Duration(cfg.AcquireTimeout) * time.Millisecond

	return func(rw http.ResponseWriter, r *http.Request) {
		var hold time.Duration
		if v := r.URL.Query().Get("hold"); v != "" {
			ms, err := strconv.Atoi(v)
			if err != nil || ms < 0 {
				http.Error(rw, "Invalid hold value", http.StatusBadRequest)
				return
			}
			hold = time.Duration(ms) * time.Millisecond
			if hold > maxHold {
				hold = maxHold
			}
		}

		start := time.Now()

		c, ok := pool.Acquire(timeout)
		if !ok {
			http.Error(rw, "No connection available", http.StatusServiceUnavailable)
			return
		}
		defer pool.Release(c)

		waited := time.Since(start)

		if hold > 0 {
			time.Sleep(hold)
		}

		result := models.WorkResult{
			WaitedMS: waited.Milliseconds(),
			HeldMS:   hold.Milliseconds(),
		}

		rw.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(rw).Encode(result); err != nil {
			log.Printf("write work response error: %v", err)
		}
	}
}
