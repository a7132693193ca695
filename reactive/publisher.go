package reactive

import (
	"math"
	"sync"
)

// NewPublisher создает издателя из функции подписки.
func NewPublisher[T any](subscribe func(Subscriber[T])) Publisher[T] {
	return &anonymousPublisher[T]{subscribe: subscribe}
}

type anonymousPublisher[T any] struct {
	subscribe func(Subscriber[T])
}

func (a *anonymousPublisher[T]) Subscribe(s Subscriber[T]) {
	a.subscribe(s)
}

// FromSlice создает холодного издателя, который для каждой подписки заново
// отдает элементы среза в исходном порядке, соблюдая запрошенный спрос.
func FromSlice[T any](items []T) Publisher[T] {
	return NewPublisher(func(s Subscriber[T]) {
		sub := &sliceSubscription[T]{items: items, sub: s}
		s.OnSubscribe(sub)
	})
}

// Just создает холодного издателя из перечисленных значений.
func Just[T any](values ...T) Publisher[T] {
	return FromSlice(values)
}

// Empty создает издателя, который сразу завершается без значений.
func Empty[T any]() Publisher[T] {
	return NewPublisher(func(s Subscriber[T]) {
		s.OnSubscribe(nopSubscription{})
		s.OnComplete()
	})
}

// Fail создает издателя, который сразу завершается ошибкой err.
func Fail[T any](err error) Publisher[T] {
	return NewPublisher(func(s Subscriber[T]) {
		s.OnSubscribe(nopSubscription{})
		s.OnError(err)
	})
}

// Defer откладывает создание издателя до момента подписки. Каждая подписка
// получает свежий экземпляр от factory.
func Defer[T any](factory func() Publisher[T]) Publisher[T] {
	return NewPublisher(func(s Subscriber[T]) {
		factory().Subscribe(s)
	})
}

// sliceSubscription доставляет элементы среза по мере поступления спроса.
// Цикл выдачи защищен от реентерабельных вызовов Request из OnNext:
// вложенный вызов только увеличивает счетчик спроса, выдачей занимается
// внешний вызов.
type sliceSubscription[T any] struct {
	mu        sync.Mutex
	items     []T
	index     int
	demand    int
	emitting  bool
	cancelled bool
	done      bool
	sub       Subscriber[T]
}

func (s *sliceSubscription[T]) Request(n int) {
	if n <= 0 {
		return
	}
	s.mu.Lock()
	if s.cancelled || s.done {
		s.mu.Unlock()
		return
	}
	if s.demand > math.MaxInt-n {
		s.demand = Unbounded
	} else {
		s.demand += n
	}
	if s.emitting {
		s.mu.Unlock()
		return
	}
	s.emitting = true
	for s.demand > 0 && s.index < len(s.items) && !s.cancelled {
		v := s.items[s.index]
		s.index++
		if s.demand != Unbounded {
			s.demand--
		}
		s.mu.Unlock()
		s.sub.OnNext(v)
		s.mu.Lock()
	}
	finished := !s.cancelled && s.index == len(s.items)
	if finished {
		s.done = true
	}
	s.emitting = false
	s.mu.Unlock()
	if finished {
		s.sub.OnComplete()
	}
}

func (s *sliceSubscription[T]) Cancel() {
	s.mu.Lock()
	s.cancelled = true
	s.mu.Unlock()
}
