package reactive

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestScheduleOnceFires проверяет однократное срабатывание.
func TestScheduleOnceFires(t *testing.T) {
	sch := NewScheduler()
	var fired atomic.Int32

	sch.ScheduleOnce(20*time.Millisecond, func() {
		fired.Add(1)
	})

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

// TestScheduleOnceCancelPreventsCallback проверяет, что отмена до срабатывания
// предотвращает вызов.
func TestScheduleOnceCancelPreventsCallback(t *testing.T) {
	sch := NewScheduler()
	var fired atomic.Int32

	h := sch.ScheduleOnce(50*time.Millisecond, func() {
		fired.Add(1)
	})
	h.Cancel()

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

// TestHandleCancelIsIdempotent проверяет, что повторная отмена дескрипторов
// обоих видов безопасна.
func TestHandleCancelIsIdempotent(t *testing.T) {
	sch := NewScheduler()

	once := sch.ScheduleOnce(time.Hour, func() {})
	once.Cancel()
	once.Cancel()

	repeating := sch.ScheduleRepeating(time.Hour, func() {})
	repeating.Cancel()
	repeating.Cancel()
}

// TestScheduleRepeatingTicksUntilCancel проверяет периодические вызовы
// и их прекращение после отмены.
func TestScheduleRepeatingTicksUntilCancel(t *testing.T) {
	sch := NewScheduler()
	var ticks atomic.Int32

	h := sch.ScheduleRepeating(20*time.Millisecond, func() {
		ticks.Add(1)
	})

	time.Sleep(110 * time.Millisecond)
	h.Cancel()

	// даем завершиться вызову, который мог быть в полете на момент отмены
	time.Sleep(20 * time.Millisecond)
	got := ticks.Load()
	assert.GreaterOrEqual(t, got, int32(2))

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, got, ticks.Load())
}
