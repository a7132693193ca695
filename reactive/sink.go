package reactive

import "log"

// Sink позволяет собрать Subscriber из отдельных функций, не реализуя интерфейс целиком.
// Незаполненные поля получают поведение по умолчанию: OnSubscribeFunc запрашивает
// неограниченный спрос, OnErrorFunc логирует необработанную ошибку, чтобы отказ
// не терялся молча.
type Sink[T any] struct {
	OnSubscribeFunc func(Subscription)
	OnNextFunc      func(T)
	OnErrorFunc     func(error)
	OnCompleteFunc  func()
}

// Build заполняет отсутствующие функции и возвращает готовый Subscriber.
func (s Sink[T]) Build() Subscriber[T] {
	if s.OnSubscribeFunc == nil {
		s.OnSubscribeFunc = func(sub Subscription) {
			sub.Request(Unbounded)
		}
	}
	if s.OnNextFunc == nil {
		s.OnNextFunc = func(T) {}
	}
	if s.OnErrorFunc == nil {
		s.OnErrorFunc = func(err error) {
			log.Printf("reactive: unhandled stream error: %v", err)
		}
	}
	if s.OnCompleteFunc == nil {
		s.OnCompleteFunc = func() {}
	}
	return &assembledSubscriber[T]{parts: &s}
}

type assembledSubscriber[T any] struct {
	parts *Sink[T]
}

func (a *assembledSubscriber[T]) OnSubscribe(s Subscription) {
	a.parts.OnSubscribeFunc(s)
}

func (a *assembledSubscriber[T]) OnNext(v T) {
	a.parts.OnNextFunc(v)
}

func (a *assembledSubscriber[T]) OnError(err error) {
	a.parts.OnErrorFunc(err)
}

func (a *assembledSubscriber[T]) OnComplete() {
	a.parts.OnCompleteFunc()
}

// OnValue подписывает на издателя простой обработчик значений с неограниченным
// спросом и возвращает подписку для отмены.
func OnValue[T any](p Publisher[T], fn func(T)) Subscription {
	var sub Subscription
	sink := Sink[T]{
		OnSubscribeFunc: func(s Subscription) {
			sub = s
			s.Request(Unbounded)
		},
		OnNextFunc: fn,
	}
	p.Subscribe(sink.Build())
	if sub == nil {
		return nopSubscription{}
	}
	return sub
}
