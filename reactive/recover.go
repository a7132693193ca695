package reactive

import (
	"math"
	"sync"
)

// Retry при отказе источника переподписывается на него еще до retries раз.
// Первое завершение без ошибки уходит вниз как есть; после исчерпания
// попыток вниз уходит последняя ошибка.
func Retry[T any](p Publisher[T], retries int) Publisher[T] {
	return NewPublisher(func(down Subscriber[T]) {
		r := &retrySubscriber[T]{down: down, source: p, remaining: retries}
		down.OnSubscribe(&retrySubscription[T]{r: r})
		p.Subscribe(r)
	})
}

// retrySubscriber переживает несколько подписок на источник; накопленный
// спрос повторно запрашивается у каждой новой попытки.
type retrySubscriber[T any] struct {
	mu        sync.Mutex
	down      Subscriber[T]
	source    Publisher[T]
	remaining int
	up        Subscription
	requested int
	cancelled bool
}

func (r *retrySubscriber[T]) OnSubscribe(s Subscription) {
	r.mu.Lock()
	if r.cancelled {
		r.mu.Unlock()
		s.Cancel()
		return
	}
	r.up = s
	n := r.requested
	r.mu.Unlock()
	if n > 0 {
		s.Request(n)
	}
}

func (r *retrySubscriber[T]) OnNext(v T) {
	r.mu.Lock()
	if r.cancelled {
		r.mu.Unlock()
		return
	}
	if r.requested != Unbounded && r.requested > 0 {
		r.requested--
	}
	r.mu.Unlock()
	r.down.OnNext(v)
}

func (r *retrySubscriber[T]) OnError(err error) {
	r.mu.Lock()
	if r.cancelled {
		r.mu.Unlock()
		return
	}
	if r.remaining <= 0 {
		r.mu.Unlock()
		r.down.OnError(err)
		return
	}
	r.remaining--
	src := r.source
	r.mu.Unlock()
	src.Subscribe(r)
}

func (r *retrySubscriber[T]) OnComplete() {
	r.mu.Lock()
	if r.cancelled {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	r.down.OnComplete()
}

type retrySubscription[T any] struct {
	r *retrySubscriber[T]
}

func (s *retrySubscription[T]) Request(n int) {
	if n <= 0 {
		return
	}
	r := s.r
	r.mu.Lock()
	if r.requested > math.MaxInt-n {
		r.requested = Unbounded
	} else {
		r.requested += n
	}
	up := r.up
	r.mu.Unlock()
	if up != nil {
		up.Request(n)
	}
}

func (s *retrySubscription[T]) Cancel() {
	r := s.r
	r.mu.Lock()
	if r.cancelled {
		r.mu.Unlock()
		return
	}
	r.cancelled = true
	up := r.up
	r.mu.Unlock()
	if up != nil {
		up.Cancel()
	}
}

// Catch при отказе источника подписывается на запасного издателя из handler
// вместо передачи ошибки вниз. Ошибка запасного издателя уже не перехватывается.
func Catch[T any](p Publisher[T], handler func(error) Publisher[T]) Publisher[T] {
	return NewPublisher(func(down Subscriber[T]) {
		c := &catchSubscriber[T]{down: down, handler: handler}
		down.OnSubscribe(&catchSubscription[T]{c: c})
		p.Subscribe(c)
	})
}

type catchSubscriber[T any] struct {
	mu        sync.Mutex
	down      Subscriber[T]
	handler   func(error) Publisher[T]
	up        Subscription
	requested int
	recovered bool
	cancelled bool
}

func (c *catchSubscriber[T]) OnSubscribe(s Subscription) {
	c.mu.Lock()
	if c.cancelled {
		c.mu.Unlock()
		s.Cancel()
		return
	}
	c.up = s
	n := c.requested
	c.mu.Unlock()
	if n > 0 {
		s.Request(n)
	}
}

func (c *catchSubscriber[T]) OnNext(v T) {
	c.mu.Lock()
	if c.cancelled {
		c.mu.Unlock()
		return
	}
	if c.requested != Unbounded && c.requested > 0 {
		c.requested--
	}
	c.mu.Unlock()
	c.down.OnNext(v)
}

func (c *catchSubscriber[T]) OnError(err error) {
	c.mu.Lock()
	if c.cancelled {
		c.mu.Unlock()
		return
	}
	if c.recovered {
		c.mu.Unlock()
		c.down.OnError(err)
		return
	}
	c.recovered = true
	handler := c.handler
	c.mu.Unlock()
	handler(err).Subscribe(c)
}

func (c *catchSubscriber[T]) OnComplete() {
	c.mu.Lock()
	if c.cancelled {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	c.down.OnComplete()
}

type catchSubscription[T any] struct {
	c *catchSubscriber[T]
}

func (s *catchSubscription[T]) Request(n int) {
	if n <= 0 {
		return
	}
	c := s.c
	c.mu.Lock()
	if c.requested > math.MaxInt-n {
		c.requested = Unbounded
	} else {
		c.requested += n
	}
	up := c.up
	c.mu.Unlock()
	if up != nil {
		up.Request(n)
	}
}

func (s *catchSubscription[T]) Cancel() {
	c := s.c
	c.mu.Lock()
	if c.cancelled {
		c.mu.Unlock()
		return
	}
	c.cancelled = true
	up := c.up
	c.mu.Unlock()
	if up != nil {
		up.Cancel()
	}
}

// ReplaceError при отказе источника испускает fallback и завершает поток,
// подавляя ошибку.
func ReplaceError[T any](p Publisher[T], fallback T) Publisher[T] {
	return Catch(p, func(error) Publisher[T] {
		return Just(fallback)
	})
}
