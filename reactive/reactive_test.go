package reactive

import (
	"sync"
)

// recorder - тестовый подписчик, собирающий все события потока.
// По умолчанию запрашивает неограниченный спрос.
type recorder[T any] struct {
	mu        sync.Mutex
	sub       Subscription
	values    []T
	err       error
	completed bool

	initialDemand int
}

func newRecorder[T any]() *recorder[T] {
	return &recorder[T]{initialDemand: Unbounded}
}

// newRecorderN - recorder с начальным спросом n, для тестов протокола спроса.
func newRecorderN[T any](n int) *recorder[T] {
	return &recorder[T]{initialDemand: n}
}

func (r *recorder[T]) OnSubscribe(s Subscription) {
	r.mu.Lock()
	r.sub = s
	r.mu.Unlock()
	if r.initialDemand > 0 {
		s.Request(r.initialDemand)
	}
}

func (r *recorder[T]) OnNext(v T) {
	r.mu.Lock()
	r.values = append(r.values, v)
	r.mu.Unlock()
}

func (r *recorder[T]) OnError(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

func (r *recorder[T]) OnComplete() {
	r.mu.Lock()
	r.completed = true
	r.mu.Unlock()
}

func (r *recorder[T]) Values() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, len(r.values))
	copy(out, r.values)
	return out
}

func (r *recorder[T]) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *recorder[T]) Completed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completed
}

func (r *recorder[T]) Subscription() Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sub
}
