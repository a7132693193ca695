package reactive

import (
	"sync"
	"time"
)

// Handle - дескриптор запланированной работы.
type Handle interface {
	// Cancel отменяет запланированные вызовы. Вызов идемпотентен.
	// Отмена из параллельной горутины предотвращает последующие вызовы
	// по принципу best-effort: уже начавшийся callback может завершиться.
	Cancel()
}

// Scheduler планирует отложенные и периодические вызовы. Используется
// операторами со временем (Debounce) и издателем Ticker.
type Scheduler interface {
	ScheduleOnce(delay time.Duration, fn func()) Handle
	ScheduleRepeating(interval time.Duration, fn func()) Handle
}

// NewScheduler возвращает планировщик на основе таймеров стандартной библиотеки.
func NewScheduler() Scheduler {
	return &timeScheduler{}
}

type timeScheduler struct{}

func (timeScheduler) ScheduleOnce(delay time.Duration, fn func()) Handle {
	h := &onceHandle{}
	h.timer = time.AfterFunc(delay, func() {
		h.mu.Lock()
		if h.cancelled {
			h.mu.Unlock()
			return
		}
		h.mu.Unlock()
		fn()
	})
	return h
}

func (timeScheduler) ScheduleRepeating(interval time.Duration, fn func()) Handle {
	h := &repeatHandle{
		ticker: time.NewTicker(interval),
		stop:   make(chan struct{}),
	}
	go func() {
		for {
			select {
			case <-h.stop:
				return
			case <-h.ticker.C:
				select {
				case <-h.stop:
					return
				default:
				}
				fn()
			}
		}
	}()
	return h
}

type onceHandle struct {
	mu        sync.Mutex
	timer     *time.Timer
	cancelled bool
}

func (h *onceHandle) Cancel() {
	h.mu.Lock()
	h.cancelled = true
	h.timer.Stop()
	h.mu.Unlock()
}

type repeatHandle struct {
	ticker *time.Ticker
	stop   chan struct{}
	once   sync.Once
}

func (h *repeatHandle) Cancel() {
	h.once.Do(func() {
		close(h.stop)
		h.ticker.Stop()
	})
}
