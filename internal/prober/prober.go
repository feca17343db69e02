// Package prober реализует нагрузочный клиент сервера пула: периодически
// выполняет операции через /work и следит за статистикой /stats, предупреждая
// о продолжительной недостаче соединений.
package prober

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-resty/resty/v2"
	"github.com/levinOo/go-connpool-project/internal/models"
)

type Config struct {
	Addr           string `env:"ADDRESS"`
	ProbeInterval  int    `env:"PROBE_INTERVAL"`
	ReportInterval int    `env:"REPORT_INTERVAL"`
	RateLimit      int    `env:"RATE_LIMIT"`
	HoldMillis     int    `env:"HOLD_MILLIS"`
}

// ProbeWork выполняет одну операцию через пул сервера.
// Возвращает true, если соединение было выдано, и false при ответе 503 —
// исчерпанный пул считается штатной ситуацией, а не ошибкой.
func ProbeWork(client *resty.Client, endpoint string, holdMillis int) (bool, error) {
	resp, err := client.R().
		SetQueryParam("hold", strconv.Itoa(holdMillis)).
		Get(endpoint + "/work")

	if err != nil {
		return false, fmt.Errorf("failed to send work request: %w", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		return true, nil
	case http.StatusServiceUnavailable:
		return false, nil
	default:
		return false, fmt.Errorf("server returned status %d: %s", resp.StatusCode(), resp.String())
	}
}

// FetchStats запрашивает статистику пула у сервера.
func FetchStats(client *resty.Client, endpoint string) (models.StatsResponse, error) {
	var stats models.StatsResponse

	resp, err := client.R().
		SetHeader("Accept", "application/json").
		Get(endpoint + "/stats")

	if err != nil {
		return stats, fmt.Errorf("failed to send stats request: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return stats, fmt.Errorf("server returned status %d: %s", resp.StatusCode(), resp.String())
	}

	if err := json.Unmarshal(resp.Body(), &stats); err != nil {
		return stats, fmt.Errorf("failed to unmarshal stats: %w", err)
	}

	return stats, nil
}

// StartProber запускает нагрузочный клиент в фоновой горутине и возвращает
// канал с первой фатальной ошибкой.
func StartProber() <-chan error {
	cfg := Config{}
	errCh := make(chan error, 1)

	flag.StringVar(&cfg.Addr, "a", "localhost:8080", "Адрес сервера")
	flag.IntVar(&cfg.ProbeInterval, "p", 2, "Значение интервала проб в секундах")
	flag.IntVar(&cfg.ReportInterval, "r", 10, "Значение интервала опроса статистики в секундах")
	flag.IntVar(&cfg.RateLimit, "l", 1, "Число одновременных проб за тик")
	flag.IntVar(&cfg.HoldMillis, "w", 50, "Время удержания соединения одной пробой в миллисекундах")
	flag.Parse()

	err := env.Parse(&cfg)
	if err != nil {
		errCh <- fmt.Errorf("ошибка парсинга ENV: %w", err)
		return errCh
	}

	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 1
	}

	client := resty.New().SetTimeout(10 * time.Second)
	endpoint := "http://" + cfg.Addr

	go func() {
		probeTicker := time.NewTicker(time.Second * time.Duration(cfg.ProbeInterval))
		reportTicker := time.NewTicker(time.Second * time.Duration(cfg.ReportInterval))
		defer probeTicker.Stop()
		defer reportTicker.Stop()

		for {
			select {
			case <-probeTicker.C:
				runProbes(client, endpoint, cfg)
			case <-reportTicker.C:
				reportStats(client, endpoint)
			}
		}
	}()

	return errCh
}

func runProbes(client *resty.Client, endpoint string, cfg Config) {
	var (
		mu       sync.Mutex
		acquired int
		rejected int
		wg       sync.WaitGroup
	)

	wg.Add(cfg.RateLimit)
	for i := 0; i < cfg.RateLimit; i++ {
		go func() {
			defer wg.Done()
			ok, err := ProbeWork(client, endpoint, cfg.HoldMillis)
			if err != nil {
				fmt.Printf("probe error: %v\n", err)
				return
			}
			mu.Lock()
			if ok {
				acquired++
			} else {
				rejected++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	fmt.Printf("probe tick: acquired=%d rejected=%d\n", acquired, rejected)
}

func reportStats(client *resty.Client, endpoint string) {
	stats, err := FetchStats(client, endpoint)
	if err != nil {
		fmt.Printf("stats error: %v\n", err)
		return
	}

	total := stats.Pool.Idle + stats.Pool.InUse + stats.Pool.Pending
	fmt.Printf("pool stats: capacity=%d idle=%d inUse=%d pending=%d\n",
		stats.Pool.Capacity, stats.Pool.Idle, stats.Pool.InUse, stats.Pool.Pending)

	if total < stats.Pool.Capacity {
		fmt.Printf("pool is running a deficit: %d of %d connections tracked\n", total, stats.Pool.Capacity)
	}
}
