// Package connpool реализует ограниченный потокобезопасный пул переиспользуемых
// соединений с фоновым самовосстановлением.
//
// Пул строится поверх фабрики соединений и проверки работоспособности самого
// соединения. Выдача блокирует вызывающую горутину до появления свободного
// соединения или истечения таймаута; фоновая задача периодически отбраковывает
// неработоспособные свободные соединения и восполняет недостачу до заданной ёмкости.
//
// Пример использования:
//
//	p, err := connpool.New(factory, connpool.Options{MaxConns: 10})
//	if err != nil {
//		return err
//	}
//	defer p.Close()
//
//	conn, ok := p.Acquire(500 * time.Millisecond)
//	if !ok {
//		// свободных соединений нет — штатная ситуация под нагрузкой
//		return nil
//	}
//	defer p.Release(conn)
package connpool

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/levinOo/go-connpool-project/internal/audit"
	"github.com/levinOo/go-connpool-project/internal/models"
	"go.uber.org/zap"
)

// Значения по умолчанию для параметров пула
const (
	// DefaultMaintenanceInterval определяет интервал фоновой проверки соединений.
	DefaultMaintenanceInterval = time.Second

	// DefaultLeaseTTL определяет время аренды выданного соединения.
	// Если владелец не вернул соединение за это время, слот считается
	// брошенным и освобождается фоновой задачей.
	DefaultLeaseTTL = 60 * time.Second
)

// Conn представляет объект, пригодный для хранения в пуле (например, соединение).
// Реализация обязана быть сравниваемой (обычно указатель на структуру),
// так как пул использует её как ключ учёта выданных соединений.
type Conn interface {
	// TestConn возвращает false, если соединение непригодно и должно быть отброшено.
	TestConn() bool
}

// Factory создаёт новые соединения для пула.
type Factory interface {
	// NewConn возвращает новое соединение или ошибку конструирования.
	// Ошибка не фатальна для пула: она логируется, попытка повторяется.
	NewConn() (Conn, error)
}

// Options содержит параметры создания пула.
type Options struct {
	// MaxConns задает максимальное суммарное число соединений
	// (свободных и выданных). Обязателен и должен быть положительным.
	MaxConns int

	// MaintenanceInterval задает период фоновой проверки.
	// Значение <= 0 заменяется на DefaultMaintenanceInterval.
	MaintenanceInterval time.Duration

	// LeaseTTL задает время аренды выданного соединения. Должно быть
	// больше максимального ожидаемого времени удержания соединения,
	// иначе фоновая задача отберёт слот у честного владельца.
	// Значение <= 0 заменяется на DefaultLeaseTTL.
	LeaseTTL time.Duration

	// Logger используется для диагностики. Если nil, логирование отключено.
	Logger *zap.SugaredLogger

	// Auditer получает события нештатных операций. Может быть nil.
	Auditer *audit.Auditer
}

// Pool хранит ограниченное множество соединений и выдаёт их вызывающим сторонам.
// Свободные соединения лежат в буферизованном канале ёмкостью MaxConns,
// выданные учитываются в карте со сроком аренды.
//
// Счётчик total отражает все живые соединения: свободные, выданные и те,
// что прямо сейчас находятся в руках Acquire между извлечением и выдачей.
// Недостача для фонового восполнения считается от total, поэтому гонка
// "соединение извлечено, но ещё нигде не учтено" не приводит к перебору ёмкости.
type Pool struct {
	factory  Factory
	capacity int
	leaseTTL time.Duration
	interval time.Duration

	idle chan Conn

	mu    sync.Mutex
	inUse map[Conn]time.Time
	total int

	logger  *zap.SugaredLogger
	auditer *audit.Auditer

	stopCh    chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New создает пул, синхронно заполняет его соединениями от фабрики
// и запускает фоновую задачу обслуживания.
//
// Ошибка фабрики при предзаполнении логируется и не прерывает создание пула:
// пул может стартовать с недобором, фоновая задача восполнит его позже.
func New(factory Factory, opts Options) (*Pool, error) {
	if factory == nil {
		return nil, errors.New("factory is nil")
	}
	if opts.MaxConns <= 0 {
		return nil, fmt.Errorf("max connections must be positive, got %d", opts.MaxConns)
	}
	if opts.MaintenanceInterval <= 0 {
		opts.MaintenanceInterval = DefaultMaintenanceInterval
	}
	if opts.LeaseTTL <= 0 {
		opts.LeaseTTL = DefaultLeaseTTL
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}

	p := &Pool{
		factory:  factory,
		capacity: opts.MaxConns,
		leaseTTL: opts.LeaseTTL,
		interval: opts.MaintenanceInterval,
		idle:     make(chan Conn, opts.MaxConns),
		inUse:    make(map[Conn]time.Time),
		logger:   opts.Logger,
		auditer:  opts.Auditer,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}

	for i := 0; i < p.capacity; i++ {
		c, err := p.factory.NewConn()
		if err != nil {
			p.logger.Errorw("Failed to construct connection on startup", "error", err)
			continue
		}
		p.total++
		p.idle <- c
	}

	p.startMaintenance()

	return p, nil
}

// Acquire выдает соединение из пула, ожидая не дольше timeout.
// Значение timeout <= 0 означает одну немедленную попытку без ожидания.
//
// Возвращает (nil, false), если за отведенное время свободное соединение
// не появилось или пул был закрыт. Это штатный результат, а не ошибка.
// Возвращенное соединение прошло проверку TestConn в момент выдачи
// и не выдано никакой другой горутине.
func (p *Pool) Acquire(timeout time.Duration) (Conn, bool) {
	deadline := time.Now().Add(timeout)

	c, ok := p.takeIdle(timeout)
	if !ok {
		return nil, false
	}

	if c.TestConn() {
		p.markInUse(c)
		return c, true
	}

	p.logger.Warnw("Acquired connection failed health check, constructing replacement")
	p.auditer.Notify(models.EventUnhealthyDiscarded, "discarded on acquire")

	// Слот отбракованного соединения остаётся занятым в total на время замены,
	// иначе фоновое восполнение успело бы занять его и пул превысил бы ёмкость.
	// Цикл ограничен исходным дедлайном, но минимум одна попытка конструирования
	// выполняется всегда, иначе Acquire(0) никогда не смог бы заменить
	// неработоспособное соединение.
	for {
		nc, err := p.factory.NewConn()
		if err != nil {
			p.logger.Errorw("Failed to construct replacement connection", "error", err)
		} else if nc.TestConn() {
			p.markInUse(nc)
			return nc, true
		} else {
			p.auditer.Notify(models.EventUnhealthyDiscarded, "fresh connection failed health check")
		}

		if !time.Now().Before(deadline) {
			// Бюджет времени исчерпан: освобождаем зарезервированный слот,
			// недостачу восполнит фоновая задача.
			p.addTotal(-1)
			return nil, false
		}
	}
}

// Release возвращает ранее выданное соединение в пул.
//
// Возврат чужого соединения и повторный возврат не меняют состояние пула:
// они логируются как предупреждение и отправляются в аудит. Release никогда
// не блокирует вызывающую горутину.
func (p *Pool) Release(c Conn) {
	if c == nil {
		p.logger.Warnw("Release of nil connection ignored")
		return
	}

	p.mu.Lock()
	_, tracked := p.inUse[c]
	if tracked {
		delete(p.inUse, c)
	}
	p.mu.Unlock()

	if !tracked {
		p.logger.Warnw("Released connection was not retrieved from this pool or was already returned")
		p.auditer.Notify(models.EventForeignRelease, "connection is not tracked as in-use")
		return
	}

	p.putIdle(c, "release")
}

// Stats возвращает моментальный снимок состояния пула.
// Счетчики читаются атомарно относительно друг друга.
func (p *Pool) Stats() models.PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	idle := len(p.idle)
	inUse := len(p.inUse)
	pending := p.total - idle - inUse
	if pending < 0 {
		pending = 0
	}

	return models.PoolStats{
		Capacity: p.capacity,
		Idle:     idle,
		InUse:    inUse,
		Pending:  pending,
	}
}

// Close останавливает фоновую задачу обслуживания и будит ожидающие Acquire
// с результатом "нет соединения". Повторные вызовы безопасны.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.stopCh)
		<-p.done
	})
}

func (p *Pool) takeIdle(timeout time.Duration) (Conn, bool) {
	if timeout <= 0 {
		select {
		case c := <-p.idle:
			return c, true
		default:
			return nil, false
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case c := <-p.idle:
		return c, true
	case <-timer.C:
		return nil, false
	case <-p.stopCh:
		return nil, false
	}
}

func (p *Pool) addTotal(delta int) {
	p.mu.Lock()
	p.total += delta
	p.mu.Unlock()
}

func (p *Pool) markInUse(c Conn) {
	p.mu.Lock()
	p.inUse[c] = time.Now().Add(p.leaseTTL)
	p.mu.Unlock()
}

// putIdle вставляет соединение в множество свободных без блокировки.
// Переполнение канала при ёмкости capacity означает ошибку учёта.
func (p *Pool) putIdle(c Conn, origin string) {
	select {
	case p.idle <- c:
	default:
		p.logger.Errorw("Idle set overflow, discarding connection", "origin", origin)
		p.auditer.Notify(models.EventIdleOverflow, origin)
		p.addTotal(-1)
	}
}

func (p *Pool) startMaintenance() {
	go func() {
		defer close(p.done)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		p.logger.Infow("Starting pool maintenance", "interval", p.interval, "capacity", p.capacity)

		for {
			select {
			case <-ticker.C:
				p.sweepIdle()
				p.expireLeases()
				p.topUp()
			case <-p.stopCh:
				p.logger.Debugw("Stopping pool maintenance")
				return
			}
		}
	}()
}

// sweepIdle проверяет работоспособность свободных соединений.
// Извлечение из канала атомарно, поэтому соединение, которое успел забрать
// конкурентный Acquire, сюда просто не попадает и второй замены не вызывает.
func (p *Pool) sweepIdle() {
	n := len(p.idle)
	for i := 0; i < n; i++ {
		var c Conn
		select {
		case c = <-p.idle:
		default:
			return
		}

		if c.TestConn() {
			p.putIdle(c, "sweep")
			continue
		}

		p.logger.Infow("An invalid connection was removed from the pool")
		p.auditer.Notify(models.EventUnhealthyDiscarded, "discarded by idle sweep")
		p.addTotal(-1)

		nc, err := p.factory.NewConn()
		if err != nil {
			// недостачу доберёт topUp на следующем тике
			p.logger.Errorw("Failed to construct replacement connection", "error", err)
			continue
		}
		p.addTotal(1)
		p.putIdle(nc, "sweep")
	}
}

// expireLeases освобождает слоты соединений, которые не вернули вовремя.
// Поздний Release такого соединения станет предупреждением без изменения состояния.
func (p *Pool) expireLeases() {
	now := time.Now()

	p.mu.Lock()
	expired := 0
	for c, leaseDeadline := range p.inUse {
		if now.After(leaseDeadline) {
			delete(p.inUse, c)
			p.total--
			expired++
		}
	}
	p.mu.Unlock()

	for i := 0; i < expired; i++ {
		p.logger.Warnw("Connection lease expired, reclaiming slot", "leaseTTL", p.leaseTTL)
		p.auditer.Notify(models.EventLeaseExpired, "connection was not released in time")
	}
}

// topUp восполняет недостачу соединений до полной ёмкости.
func (p *Pool) topUp() {
	p.mu.Lock()
	deficit := p.capacity - p.total
	p.mu.Unlock()

	for i := 0; i < deficit; i++ {
		c, err := p.factory.NewConn()
		if err != nil {
			p.logger.Errorw("Failed to construct connection during top-up", "error", err)
			continue
		}
		p.addTotal(1)
		p.putIdle(c, "top-up")
		p.logger.Infow("A new connection was created to restore capacity")
	}
}
