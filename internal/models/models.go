// Package models содержит структуры данных, описывающие основные сущности предметной области.
// Пакет не содержит бизнес-логику и используется для передачи данных между слоями приложения.
package models

// Константы видов событий аудита пула
const (
	// EventForeignRelease означает возврат соединения, которое пул не выдавал
	// или которое уже было возвращено ранее.
	EventForeignRelease = "foreign_release"

	// EventLeaseExpired означает, что владелец соединения не вернул его
	// до истечения аренды и слот был освобождён фоновой задачей.
	EventLeaseExpired = "lease_expired"

	// EventUnhealthyDiscarded означает, что соединение не прошло проверку
	// работоспособности и было удалено из пула.
	EventUnhealthyDiscarded = "unhealthy_discarded"

	// EventIdleOverflow означает попытку вставки в уже заполненное множество
	// свободных соединений. Это ошибка учёта, а не нормальная ситуация.
	EventIdleOverflow = "idle_overflow"
)

// PoolStats представляет моментальный снимок состояния пула соединений.
type PoolStats struct {
	// Capacity содержит максимальное число соединений, заданное при создании пула.
	Capacity int `json:"capacity"`

	// Idle содержит число свободных соединений, готовых к выдаче.
	Idle int `json:"idle"`

	// InUse содержит число соединений, выданных вызывающим сторонам.
	InUse int `json:"in_use"`

	// Pending содержит число соединений, которые прямо сейчас создаются
	// заново взамен отбракованных.
	Pending int `json:"pending"`
}

// SystemStats содержит показатели хоста, на котором работает сервер пула.
type SystemStats struct {
	TotalMemory     float64 `json:"total_memory"`
	FreeMemory      float64 `json:"free_memory"`
	CPUutilization1 float64 `json:"cpu_utilization_1"`
}

// StatsResponse объединяет статистику пула и хоста для отдачи по HTTP.
type StatsResponse struct {
	Pool   PoolStats   `json:"pool"`
	System SystemStats `json:"system"`
}

// WorkResult описывает результат одной операции, выполненной через пул.
type WorkResult struct {
	// WaitedMS содержит время ожидания свободного соединения в миллисекундах.
	WaitedMS int64 `json:"waited_ms"`

	// HeldMS содержит время удержания соединения в миллисекундах.
	HeldMS int64 `json:"held_ms"`
}

// Event представляет событие аудита жизненного цикла пула.
// Используется для логирования нештатных операций с соединениями.
type Event struct {
	// TS содержит временную метку события в формате Unix timestamp.
	TS int64 `json:"ts"`

	// Kind определяет вид события: одна из констант Event*.
	Kind string `json:"kind"`

	// Details содержит произвольное текстовое описание события.
	Details string `json:"details,omitempty"`
}

// EventList содержит накопленный список событий аудита.
type EventList struct {
	Events []Event `json:"events"`
}
