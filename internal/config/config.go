// Package config предоставляет функциональность для управления конфигурацией сервера пула.
// Поддерживает загрузку настроек из переменных окружения, флагов командной строки
// и JSON-файла, с приоритетом переменных окружения над флагами и флагов над файлом.
package config

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"strconv"
)

// ConfigStruct описывает формат JSON-файла конфигурации.
type ConfigStruct struct {
	Addr                string `json:"address"`
	MaxConns            int    `json:"max_connections"`
	MaintenanceInterval int    `json:"maintenance_interval"`
	LeaseTTL            int    `json:"lease_ttl"`
	AcquireTimeout      int    `json:"acquire_timeout"`
	AddrDB              string `json:"database_dsn"`
	BackendURL          string `json:"backend_url"`
	HealthPath          string `json:"health_path"`
	MigrationsPath      string `json:"migrations_path"`
	AuditFile           string `json:"audit_file"`
	AuditURL            string `json:"audit_url"`
}

// Config содержит все параметры конфигурации сервера пула соединений.
// Значения загружаются из переменных окружения (указаны в тегах env)
// или из флагов командной строки, если переменные окружения не установлены.
type Config struct {
	// Addr задает адрес и порт HTTP-сервера (например, "localhost:8080").
	Addr string `env:"ADDRESS"`

	// MaxConns задает ёмкость пула соединений.
	MaxConns int `env:"MAX_CONNECTIONS"`

	// MaintenanceInterval определяет интервал фонового обслуживания пула
	// в миллисекундах.
	MaintenanceInterval int `env:"MAINTENANCE_INTERVAL"`

	// LeaseTTL определяет время аренды выданного соединения в секундах.
	LeaseTTL int `env:"LEASE_TTL"`

	// AcquireTimeout определяет таймаут ожидания свободного соединения
	// обработчиком /work в миллисекундах.
	AcquireTimeout int `env:"ACQUIRE_TIMEOUT"`

	// AddrDB содержит строку подключения к базе данных PostgreSQL (DSN).
	// Если указано, пул наполняется соединениями с базой.
	AddrDB string `env:"DATABASE_DSN"`

	// BackendURL содержит адрес HTTP-бэкенда. Если указан (и не указан AddrDB),
	// пул наполняется HTTP-клиентами этого бэкенда.
	BackendURL string `env:"BACKEND_URL"`

	// HealthPath задает путь health-эндпоинта HTTP-бэкенда.
	HealthPath string `env:"HEALTH_PATH"`

	// MigrationsPath указывает каталог с SQL-миграциями.
	MigrationsPath string `env:"MIGRATIONS_PATH"`

	ConfigFilePath string `env:"CONFIG"`

	// AuditFile указывает путь к файлу для записи событий аудита пула.
	AuditFile string `env:"AUDIT_FILE"`

	// AuditURL содержит URL для отправки событий аудита на внешний сервис.
	AuditURL string `env:"AUDIT_URL"`
}

func NewConfigStruct() *ConfigStruct {
	return &ConfigStruct{}
}

// GetConfig загружает и возвращает конфигурацию приложения.
// Сначала обрабатываются флаги командной строки, затем переменные окружения.
// Переменные окружения имеют приоритет над флагами, флаги — над JSON-файлом.
//
// Поддерживаемые флаги:
//
//	-a: адрес сервера (по умолчанию "localhost:8080")
//	-m: ёмкость пула (по умолчанию "10")
//	-i: интервал обслуживания в миллисекундах (по умолчанию "1000")
//	-l: время аренды в секундах (по умолчанию "60")
//	-t: таймаут ожидания соединения в миллисекундах (по умолчанию "500")
//	-d: строка подключения к базе данных (по умолчанию "")
//	-b: адрес HTTP-бэкенда (по умолчанию "")
//	-e: путь health-эндпоинта бэкенда (по умолчанию "/healthz")
//	-s: каталог SQL-миграций (по умолчанию "./migrations/sql")
//	-p: путь к файлу аудита (по умолчанию "")
//	-u: URL для аудита (по умолчанию "")
//
// Соответствующие переменные окружения:
//
//	ADDRESS, MAX_CONNECTIONS, MAINTENANCE_INTERVAL, LEASE_TTL, ACQUIRE_TIMEOUT,
//	DATABASE_DSN, BACKEND_URL, HEALTH_PATH, MIGRATIONS_PATH, AUDIT_FILE, AUDIT_URL
func GetConfig() (Config, error) {
	configStruct := NewConfigStruct()

	addrFlag := flag.String("a", "localhost:8080", "HTTP server address")
	maxConnsFlag := flag.String("m", "10", "pool capacity")
	intervalFlag := flag.String("i", "1000", "maintenance interval in milliseconds")
	leaseFlag := flag.String("l", "60", "lease TTL in seconds")
	timeoutFlag := flag.String("t", "500", "acquire timeout in milliseconds")
	addrDBFlag := flag.String("d", "", "database DSN")
	backendFlag := flag.String("b", "", "HTTP backend address")
	healthPathFlag := flag.String("e", "/healthz", "backend health endpoint path")
	migrationsFlag := flag.String("s", "./migrations/sql", "path to SQL migrations")
	configPathFlag := flag.String("config", "", "path to config file")
	auditFile := flag.String("p", "", "audit file path")
	auditURL := flag.String("u", "", "audit url")

	flag.Parse()

	configPath := getConfigPath(*configPathFlag, os.Getenv("CONFIG"))
	if configPath != "" {
		data, err := os.Open(configPath)
		if err != nil {
			log.Printf("Не удалось открыть файл: %v", err)
		} else {
			defer data.Close()
			json.NewDecoder(data).Decode(configStruct)
		}
	}

	cfg := Config{
		Addr:                getString(os.Getenv("ADDRESS"), *addrFlag, configStruct.Addr),
		MaxConns:            getInt(os.Getenv("MAX_CONNECTIONS"), *maxConnsFlag, configStruct.MaxConns),
		MaintenanceInterval: getInt(os.Getenv("MAINTENANCE_INTERVAL"), *intervalFlag, configStruct.MaintenanceInterval),
		LeaseTTL:            getInt(os.Getenv("LEASE_TTL"), *leaseFlag, configStruct.LeaseTTL),
		AcquireTimeout:      getInt(os.Getenv("ACQUIRE_TIMEOUT"), *timeoutFlag, configStruct.AcquireTimeout),
		AddrDB:              getString(os.Getenv("DATABASE_DSN"), *addrDBFlag, configStruct.AddrDB),
		BackendURL:          getString(os.Getenv("BACKEND_URL"), *backendFlag, configStruct.BackendURL),
		HealthPath:          getString(os.Getenv("HEALTH_PATH"), *healthPathFlag, configStruct.HealthPath),
		MigrationsPath:      getString(os.Getenv("MIGRATIONS_PATH"), *migrationsFlag, configStruct.MigrationsPath),
		AuditFile:           getString(os.Getenv("AUDIT_FILE"), *auditFile, configStruct.AuditFile),
		AuditURL:            getString(os.Getenv("AUDIT_URL"), *auditURL, configStruct.AuditURL),
	}

	return cfg, nil
}

// getString возвращает значение переменной окружения, если она установлена,
// иначе возвращает значение флага командной строки.
func getString(envValue, flagValue, configValue string) string {
	if envValue != "" {
		return envValue
	} else if flagValue != "" {
		return flagValue
	}

	return configValue
}

// getInt преобразует строковое значение переменной окружения или флага в целое число.
// Приоритет отдается переменной окружения. При ошибке преобразования возвращает 0.
func getInt(envValue, flagValue string, configValue int) int {
	if envValue != "" {
		if v, err := strconv.Atoi(envValue); err == nil {
			return v
		}
	} else if flagValue != "" {
		v, _ := strconv.Atoi(flagValue)
		return v
	}

	return configValue
}

func getConfigPath(flagValue, envValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return envValue
}
