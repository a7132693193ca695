package reactive

import "sync"

// Map применяет transform к каждому значению потока. Спрос передается
// вверх по цепочке один к одному.
func Map[T, U any](p Publisher[T], transform func(T) U) Publisher[U] {
	return NewPublisher(func(down Subscriber[U]) {
		p.Subscribe(&mapSubscriber[T, U]{down: down, transform: transform})
	})
}

type mapSubscriber[T, U any] struct {
	down      Subscriber[U]
	transform func(T) U
}

func (m *mapSubscriber[T, U]) OnSubscribe(s Subscription) { m.down.OnSubscribe(s) }
func (m *mapSubscriber[T, U]) OnNext(v T)                 { m.down.OnNext(m.transform(v)) }
func (m *mapSubscriber[T, U]) OnError(err error)          { m.down.OnError(err) }
func (m *mapSubscriber[T, U]) OnComplete()                { m.down.OnComplete() }

// MapErr - вариант Map с функцией, которая может вернуть ошибку. Ошибка
// transform отменяет подписку на источник и уходит вниз как отказ потока.
func MapErr[T, U any](p Publisher[T], transform func(T) (U, error)) Publisher[U] {
	return NewPublisher(func(down Subscriber[U]) {
		p.Subscribe(&mapErrSubscriber[T, U]{down: down, transform: transform})
	})
}

type mapErrSubscriber[T, U any] struct {
	mu         sync.Mutex
	down       Subscriber[U]
	transform  func(T) (U, error)
	up         Subscription
	terminated bool
}

func (m *mapErrSubscriber[T, U]) OnSubscribe(s Subscription) {
	m.mu.Lock()
	m.up = s
	m.mu.Unlock()
	m.down.OnSubscribe(s)
}

func (m *mapErrSubscriber[T, U]) OnNext(v T) {
	m.mu.Lock()
	if m.terminated {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	u, err := m.transform(v)
	if err != nil {
		m.mu.Lock()
		if m.terminated {
			m.mu.Unlock()
			return
		}
		m.terminated = true
		up := m.up
		m.mu.Unlock()
		up.Cancel()
		m.down.OnError(err)
		return
	}
	m.down.OnNext(u)
}

func (m *mapErrSubscriber[T, U]) OnError(err error) {
	m.mu.Lock()
	if m.terminated {
		m.mu.Unlock()
		return
	}
	m.terminated = true
	m.mu.Unlock()
	m.down.OnError(err)
}

func (m *mapErrSubscriber[T, U]) OnComplete() {
	m.mu.Lock()
	if m.terminated {
		m.mu.Unlock()
		return
	}
	m.terminated = true
	m.mu.Unlock()
	m.down.OnComplete()
}

// Filter пропускает только значения, для которых predicate возвращает true.
// Отброшенное значение компенсируется дополнительным запросом к источнику,
// чтобы спрос подписчика не иссякал.
func Filter[T any](p Publisher[T], predicate func(T) bool) Publisher[T] {
	return NewPublisher(func(down Subscriber[T]) {
		p.Subscribe(&filterSubscriber[T]{down: down, predicate: predicate})
	})
}

type filterSubscriber[T any] struct {
	down      Subscriber[T]
	predicate func(T) bool
	up        Subscription
}

func (f *filterSubscriber[T]) OnSubscribe(s Subscription) {
	f.up = s
	f.down.OnSubscribe(s)
}

func (f *filterSubscriber[T]) OnNext(v T) {
	if f.predicate(v) {
		f.down.OnNext(v)
		return
	}
	f.up.Request(1)
}

func (f *filterSubscriber[T]) OnError(err error) { f.down.OnError(err) }
func (f *filterSubscriber[T]) OnComplete()       { f.down.OnComplete() }

// CompactMap применяет transform и отбрасывает значения, для которых
// второй результат равен false.
func CompactMap[T, U any](p Publisher[T], transform func(T) (U, bool)) Publisher[U] {
	return NewPublisher(func(down Subscriber[U]) {
		p.Subscribe(&compactMapSubscriber[T, U]{down: down, transform: transform})
	})
}

type compactMapSubscriber[T, U any] struct {
	down      Subscriber[U]
	transform func(T) (U, bool)
	up        Subscription
}

func (c *compactMapSubscriber[T, U]) OnSubscribe(s Subscription) {
	c.up = s
	c.down.OnSubscribe(s)
}

func (c *compactMapSubscriber[T, U]) OnNext(v T) {
	if u, ok := c.transform(v); ok {
		c.down.OnNext(u)
		return
	}
	c.up.Request(1)
}

func (c *compactMapSubscriber[T, U]) OnError(err error) { c.down.OnError(err) }
func (c *compactMapSubscriber[T, U]) OnComplete()       { c.down.OnComplete() }

// Take пропускает первые n значений, после чего отменяет источник и завершает поток.
func Take[T any](p Publisher[T], n int) Publisher[T] {
	if n <= 0 {
		return Empty[T]()
	}
	return NewPublisher(func(down Subscriber[T]) {
		p.Subscribe(&takeSubscriber[T]{down: down, remaining: n})
	})
}

type takeSubscriber[T any] struct {
	mu         sync.Mutex
	down       Subscriber[T]
	up         Subscription
	remaining  int
	terminated bool
}

func (t *takeSubscriber[T]) OnSubscribe(s Subscription) {
	t.mu.Lock()
	t.up = s
	t.mu.Unlock()
	t.down.OnSubscribe(s)
}

func (t *takeSubscriber[T]) OnNext(v T) {
	t.mu.Lock()
	if t.terminated || t.remaining == 0 {
		t.mu.Unlock()
		return
	}
	t.remaining--
	last := t.remaining == 0
	if last {
		t.terminated = true
	}
	up := t.up
	t.mu.Unlock()

	t.down.OnNext(v)
	if last {
		up.Cancel()
		t.down.OnComplete()
	}
}

func (t *takeSubscriber[T]) OnError(err error) {
	t.mu.Lock()
	if t.terminated {
		t.mu.Unlock()
		return
	}
	t.terminated = true
	t.mu.Unlock()
	t.down.OnError(err)
}

func (t *takeSubscriber[T]) OnComplete() {
	t.mu.Lock()
	if t.terminated {
		t.mu.Unlock()
		return
	}
	t.terminated = true
	t.mu.Unlock()
	t.down.OnComplete()
}

// First возвращает издателя первого значения потока.
func First[T any](p Publisher[T]) Publisher[T] {
	return Take(p, 1)
}
