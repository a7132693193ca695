// Package subpub реализует шину издатель-подписчик по темам поверх
// реактивных сабджектов пакета reactive.
package subpub

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Ararat25/go-reactive/reactive"
)

// Message - конверт сообщения шины. Каждое сообщение получает уникальный
// идентификатор и отметку времени отправки.
type Message struct {
	ID      string
	Subject string
	Data    any
	SentAt  time.Time
}

// MessageHandler это функция обратного вызова, которая обрабатывает сообщения, доставляемые подписчикам.
type MessageHandler func(msg Message)

// Subscription - интерфейс подписчика
type Subscription interface {
	// Unsubscribe will remove interest in the current subject subscription is for.
	Unsubscribe()
}

// SubPub - интерфейс Publisher-Subscriber сервиса
type SubPub interface {
	// Subscribe creates an asynchronous queue subscriber on the given subject.
	Subscribe(subject string, cb MessageHandler) (Subscription, error)

	// Publish publishes the msg argument to the given subject.
	Publish(subject string, msg any) error

	// Close will shutdown sub-pub system.
	// May be blocked by data delivery until the context is canceled.
	Close(ctx context.Context) error
}

// subPub - реализует интерфейс SubPub
type subPub struct {
	mu        sync.RWMutex                                     // защищает topics и флаг closed
	topics    map[string]*reactive.PassthroughSubject[Message] // одна тема = один сабджект
	closed    bool                                             // true после Close
	wg        sync.WaitGroup                                   // ждем все горутины-обработчики
	queueSize int
	metrics   *Metrics
}

// Option настраивает создаваемую шину.
type Option func(*subPub)

// WithQueueSize задает размер персональной очереди подписчика.
func WithQueueSize(n int) Option {
	return func(s *subPub) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

// NewSubPub создает и возвращает объект реализующий интерфейс SubPub
func NewSubPub(opts ...Option) SubPub {
	s := &subPub{
		topics:    make(map[string]*reactive.PassthroughSubject[Message]),
		queueSize: defaultQueueSize,
		metrics:   NewMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewSubPubWithMetrics создает шину и регистрирует ее счетчики в reg.
func NewSubPubWithMetrics(reg prometheus.Registerer, opts ...Option) (SubPub, error) {
	s := NewSubPub(opts...).(*subPub)
	if err := s.metrics.Register(reg); err != nil {
		return nil, err
	}
	return s, nil
}

// Metrics возвращает счетчики шины для регистрации в prometheus.
func (s *subPub) Metrics() *Metrics {
	return s.metrics
}

// Subscribe создает нового подписчика, запускает его обработчик и возвращает
// объект Subscription для дальнейшей работы с подпиской
func (s *subPub) Subscribe(subject string, cb MessageHandler) (Subscription, error) {
	if subject == "" {
		return nil, ErrEmptySubject
	}
	if cb == nil {
		return nil, ErrNilHandler
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	topic := s.getOrCreateTopic(subject)
	s.mu.Unlock()

	sub := newSubscription(s, subject, cb)

	sink := reactive.Sink[Message]{
		OnSubscribeFunc: func(rs reactive.Subscription) {
			sub.upstream = rs
			rs.Request(reactive.Unbounded)
		},
		OnNextFunc:     sub.enqueue,
		OnErrorFunc:    func(error) { sub.close() },
		OnCompleteFunc: sub.close,
	}
	topic.Subscribe(sink.Build())

	s.metrics.subscribers.Inc()
	return sub, nil
}

// Publish рассылает сообщение всем подписчикам темы. Публикация в тему без
// подписчиков не является ошибкой.
func (s *subPub) Publish(subject string, data any) error {
	if subject == "" {
		return ErrEmptySubject
	}

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrClosed
	}
	topic := s.topics[subject]
	s.mu.RUnlock()

	s.metrics.published.WithLabelValues(subject).Inc()
	if topic == nil {
		return nil
	}

	topic.Send(Message{
		ID:      uuid.NewString(),
		Subject: subject,
		Data:    data,
		SentAt:  time.Now(),
	})
	return nil
}

// Close закрывает шину: завершает все темы и ждет, пока обработчики
// разберут свои очереди, либо пока не истечет контекст.
func (s *subPub) Close(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	topics := make([]*reactive.PassthroughSubject[Message], 0, len(s.topics))
	for _, t := range s.topics {
		topics = append(topics, t)
	}
	s.mu.Unlock()

	for _, t := range topics {
		t.SendComplete()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// getOrCreateTopic возвращает сабджект темы, создавая его при первом обращении.
// Вызывается под s.mu.
func (s *subPub) getOrCreateTopic(name string) *reactive.PassthroughSubject[Message] {
	t, ok := s.topics[name]
	if !ok {
		t = reactive.NewPassthroughSubject[Message]()
		s.topics[name] = t
	}
	return t
}
