// Package logStream содержит логирующие обертки для реактивных потоков.
package logStream

import (
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Ararat25/go-reactive/reactive"
)

// LoggingPublisher оборачивает издателя и логирует жизненный цикл каждой
// подписки на него: значения, длительность и терминальный сигнал.
func LoggingPublisher[T any](name string, logger *log.Logger, p reactive.Publisher[T]) reactive.Publisher[T] {
	return reactive.NewPublisher(func(s reactive.Subscriber[T]) {
		p.Subscribe(LoggingSubscriber(name, logger, s))
	})
}

// LoggingSubscriber оборачивает подписчика и логирует проходящие через него
// события потока.
func LoggingSubscriber[T any](name string, logger *log.Logger, next reactive.Subscriber[T]) reactive.Subscriber[T] {
	return &loggingSubscriber[T]{name: name, logger: logger, next: next}
}

type loggingSubscriber[T any] struct {
	name   string
	logger *log.Logger
	next   reactive.Subscriber[T]
	start  time.Time
	count  atomic.Int64
}

func (l *loggingSubscriber[T]) OnSubscribe(s reactive.Subscription) {
	l.start = time.Now()
	l.logger.Debug("stream subscribed", "stream", l.name)
	l.next.OnSubscribe(s)
}

func (l *loggingSubscriber[T]) OnNext(v T) {
	l.count.Add(1)
	l.logger.Debug("stream value", "stream", l.name, "value", v)
	l.next.OnNext(v)
}

func (l *loggingSubscriber[T]) OnError(err error) {
	l.logger.Error("stream failed", "stream", l.name, "values", l.count.Load(), "duration", time.Since(l.start), "error", err)
	l.next.OnError(err)
}

func (l *loggingSubscriber[T]) OnComplete() {
	l.logger.Info("stream completed", "stream", l.name, "values", l.count.Load(), "duration", time.Since(l.start))
	l.next.OnComplete()
}
