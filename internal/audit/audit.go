// Package audit реализует систему аудита нештатных операций пула соединений.
// Использует паттерн Observer для уведомления различных подписчиков
// о событиях жизненного цикла соединений.
package audit

import (
	"encoding/json"
	"log"
	"os"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/levinOo/go-connpool-project/internal/models"
)

// Consumer определяет интерфейс потребителя событий аудита.
// Реализации этого интерфейса обрабатывают события различными способами
// (запись в файл, отправка по HTTP и т.д.).
type Consumer interface {
	// Update обрабатывает одно событие аудита.
	Update(event models.Event)
}

// Auditer координирует отправку событий аудита зарегистрированным подписчикам.
// Методы безопасны для вызова на nil-приёмнике: пул без настроенного аудита
// просто ничего не отправляет.
type Auditer struct {
	mu      sync.Mutex
	clients []Consumer
}

// RegisterClient добавляет нового подписчика в список получателей уведомлений.
func (a *Auditer) RegisterClient(c Consumer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.clients = append(a.clients, c)
}

// Notify формирует событие указанного вида и отправляет его всем подписчикам.
// Вызывается из разных горутин пула, поэтому список подписчиков читается под блокировкой.
func (a *Auditer) Notify(kind, details string) {
	if a == nil {
		return
	}

	event := models.Event{
		TS:      time.Now().Unix(),
		Kind:    kind,
		Details: details,
	}

	a.mu.Lock()
	clients := make([]Consumer, len(a.clients))
	copy(clients, a.clients)
	a.mu.Unlock()

	for _, client := range clients {
		client.Update(event)
	}
}

// FileAuditer записывает события аудита в JSON файл.
// Реализует интерфейс Consumer для обработки событий через файловую систему.
type FileAuditer struct {
	path string
}

// NewFileAuditer создаёт новый экземпляр FileAuditer для записи в указанный файл.
func NewFileAuditer(path string) *FileAuditer {
	return &FileAuditer{
		path: path,
	}
}

// Update добавляет новое событие аудита в файл.
// Читает существующие события, добавляет новое и перезаписывает файл.
// Если путь пустой, операция пропускается.
func (a *FileAuditer) Update(event models.Event) {
	if a.path == "" {
		return
	}

	var eventList models.EventList

	fileData, err := os.ReadFile(a.path)
	if err != nil && !os.IsNotExist(err) {
		log.Printf("failed to read file %s: %v", a.path, err)
		return
	}

	if len(fileData) > 0 {
		if err := json.Unmarshal(fileData, &eventList); err != nil {
			log.Printf("failed to unmarshal events from %s: %v", a.path, err)
			return
		}
	}

	eventList.Events = append(eventList.Events, event)

	data, err := json.Marshal(eventList)
	if err != nil {
		log.Printf("failed to marshal events: %v", err)
		return
	}

	if err := os.WriteFile(a.path, data, 0644); err != nil {
		log.Printf("failed to write file %s: %v", a.path, err)
	}
}

// HTTPAuditer отправляет события аудита на внешний сервис по HTTP.
type HTTPAuditer struct {
	url    string
	client *resty.Client
}

// NewHTTPAuditer создаёт новый экземпляр HTTPAuditer для отправки на указанный URL.
func NewHTTPAuditer(url string) *HTTPAuditer {
	return &HTTPAuditer{
		url:    url,
		client: resty.New().SetTimeout(2 * time.Second),
	}
}

// Update отправляет событие аудита POST-запросом в формате JSON.
// Если URL пустой, операция пропускается. Ошибки отправки логируются и не мешают работе пула.
func (a *HTTPAuditer) Update(event models.Event) {
	if a.url == "" {
		return
	}

	resp, err := a.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(event).
		Post(a.url)

	if err != nil {
		log.Printf("failed to send audit event: %v", err)
		return
	}

	if resp.StatusCode() >= 300 {
		log.Printf("audit endpoint returned status %d", resp.StatusCode())
	}
}
