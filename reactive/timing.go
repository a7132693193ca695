package reactive

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Debounce подавляет значения источника: каждое новое значение перезапускает
// таймер, вниз уходит только последнее значение, если в течение interval не
// пришло нового. Завершение источника сбрасывает отложенное значение вниз
// перед терминальным сигналом; ошибка отбрасывает отложенное значение.
func Debounce[T any](p Publisher[T], interval time.Duration, sch Scheduler) Publisher[T] {
	return NewPublisher(func(down Subscriber[T]) {
		p.Subscribe(&debounceSubscriber[T]{down: down, interval: interval, sch: sch})
	})
}

type debounceSubscriber[T any] struct {
	mu       sync.Mutex
	down     Subscriber[T]
	interval time.Duration
	sch      Scheduler

	up         Subscription
	pending    Handle
	pendingVal T
	hasPending bool
	seq        uint64
	terminated bool
}

func (d *debounceSubscriber[T]) OnSubscribe(s Subscription) {
	d.mu.Lock()
	d.up = s
	d.mu.Unlock()
	d.down.OnSubscribe(&debounceSubscription[T]{d: d})
}

func (d *debounceSubscriber[T]) OnNext(v T) {
	d.mu.Lock()
	if d.terminated {
		d.mu.Unlock()
		return
	}
	if d.pending != nil {
		d.pending.Cancel()
	}
	d.pendingVal = v
	d.hasPending = true
	d.seq++
	seq := d.seq
	d.pending = d.sch.ScheduleOnce(d.interval, func() {
		d.flush(seq)
	})
	d.mu.Unlock()
}

// flush доставляет отложенное значение, если оно не было вытеснено более свежим.
func (d *debounceSubscriber[T]) flush(seq uint64) {
	d.mu.Lock()
	if d.terminated || !d.hasPending || seq != d.seq {
		d.mu.Unlock()
		return
	}
	v := d.pendingVal
	d.hasPending = false
	d.pending = nil
	d.mu.Unlock()
	d.down.OnNext(v)
}

func (d *debounceSubscriber[T]) OnError(err error) {
	d.mu.Lock()
	if d.terminated {
		d.mu.Unlock()
		return
	}
	d.terminated = true
	pending := d.pending
	d.hasPending = false
	d.mu.Unlock()
	if pending != nil {
		pending.Cancel()
	}
	d.down.OnError(err)
}

func (d *debounceSubscriber[T]) OnComplete() {
	d.mu.Lock()
	if d.terminated {
		d.mu.Unlock()
		return
	}
	d.terminated = true
	pending := d.pending
	v := d.pendingVal
	has := d.hasPending
	d.hasPending = false
	d.mu.Unlock()
	if pending != nil {
		pending.Cancel()
	}
	if has {
		d.down.OnNext(v)
	}
	d.down.OnComplete()
}

// debounceSubscription - подписка нижестоящего: отмена снизу освобождает
// таймер и отменяет источник.
type debounceSubscription[T any] struct {
	d *debounceSubscriber[T]
}

func (s *debounceSubscription[T]) Request(n int) {
	s.d.mu.Lock()
	up := s.d.up
	s.d.mu.Unlock()
	if up != nil {
		up.Request(n)
	}
}

func (s *debounceSubscription[T]) Cancel() {
	d := s.d
	d.mu.Lock()
	if d.terminated {
		d.mu.Unlock()
		return
	}
	d.terminated = true
	pending := d.pending
	d.hasPending = false
	up := d.up
	d.mu.Unlock()
	if pending != nil {
		pending.Cancel()
	}
	if up != nil {
		up.Cancel()
	}
}

// Throttle пропускает значения источника в пределах лимита limiter,
// лишние значения отбрасываются с компенсацией спроса, как в Filter.
func Throttle[T any](p Publisher[T], limiter *rate.Limiter) Publisher[T] {
	return Filter(p, func(T) bool {
		return limiter.Allow()
	})
}

// Ticker - издатель, периодически испускающий текущее время через планировщик.
// Каждая подписка получает собственный таймер; отмена подписки освобождает его.
// Тики, пришедшие при нулевом спросе, отбрасываются.
func Ticker(interval time.Duration, sch Scheduler) Publisher[time.Time] {
	return NewPublisher(func(s Subscriber[time.Time]) {
		ts := &tickerSubscription{sub: s}
		s.OnSubscribe(ts)

		ts.mu.Lock()
		if ts.cancelled {
			ts.mu.Unlock()
			return
		}
		ts.handle = sch.ScheduleRepeating(interval, ts.tick)
		ts.mu.Unlock()
	})
}

type tickerSubscription struct {
	mu        sync.Mutex
	sub       Subscriber[time.Time]
	handle    Handle
	demand    int
	cancelled bool
}

func (t *tickerSubscription) tick() {
	t.mu.Lock()
	if t.cancelled || t.demand == 0 {
		t.mu.Unlock()
		return
	}
	if t.demand != Unbounded {
		t.demand--
	}
	t.mu.Unlock()
	t.sub.OnNext(time.Now())
}

func (t *tickerSubscription) Request(n int) {
	if n <= 0 {
		return
	}
	t.mu.Lock()
	if t.demand > math.MaxInt-n {
		t.demand = Unbounded
	} else {
		t.demand += n
	}
	t.mu.Unlock()
}

func (t *tickerSubscription) Cancel() {
	t.mu.Lock()
	if t.cancelled {
		t.mu.Unlock()
		return
	}
	t.cancelled = true
	h := t.handle
	t.mu.Unlock()
	if h != nil {
		h.Cancel()
	}
}
