// Package reactive реализует минимальное ядро реактивных потоков:
// издатели (Publisher), операторы, подписчики (Subscriber) и сабджекты (Subject).
package reactive

import "math"

// Unbounded - значение спроса, при котором подписчик принимает любое количество элементов.
const Unbounded = math.MaxInt

// A Publisher is a provider of a potentially unbounded number of sequenced
// elements, publishing them according to the demand received from its
// Subscriber.
//
// A Publisher can serve multiple Subscribers, dynamically subscribed at
// various points in time.
type Publisher[T any] interface {
	// Subscribe is a "factory method", it can be called multiple times,
	// each time starting a new Subscription.
	Subscribe(s Subscriber[T])
}

// Will receive a call to OnSubscribe once after being passed to Publisher#Subscribe.
// The Subscription provided lets the Subscriber request elements from the Publisher.
// After a terminal call (OnError or OnComplete) no further calls occur on that
// subscription.
type Subscriber[T any] interface {
	OnSubscribe(s Subscription)
	OnNext(value T)
	OnError(err error)
	OnComplete()
}

// Subscription представляет связь одного Subscriber с одним Publisher
// на время жизни подписки.
type Subscription interface {
	// Request запрашивает у издателя еще n элементов. Значения n <= 0 игнорируются.
	Request(n int)

	// Cancel отменяет подписку. Повторные вызовы безопасны, после отмены
	// подписчик больше не получает значений.
	Cancel()
}

// Subject - издатель, в который значения можно отправлять императивно извне графа потока.
type Subject[T any] interface {
	Publisher[T]

	// Send доставляет значение всем текущим подписчикам. После терминального
	// сигнала вызов игнорируется.
	Send(value T)

	// SendError переводит сабджект в терминальное состояние ошибки.
	SendError(err error)

	// SendComplete переводит сабджект в терминальное состояние завершения.
	SendComplete()
}

// Pair - пара последних значений двух потоков, результат CombineLatest и Zip.
type Pair[A, B any] struct {
	First  A
	Second B
}

// nopSubscription выдается подписчикам уже завершенных издателей.
type nopSubscription struct{}

func (nopSubscription) Request(n int) {}
func (nopSubscription) Cancel()       {}
