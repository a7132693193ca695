package subpub

import (
	"sync"

	"github.com/Ararat25/go-reactive/reactive"
)

// defaultQueueSize - размер персональной очереди подписчика по умолчанию.
const defaultQueueSize = 1024

// subscription - подписка одного обработчика на тему. Сообщения складываются
// в персональную буферизованную очередь, отдельная горутина по одному передает
// их в обработчик, сохраняя порядок FIFO.
type subscription struct {
	handler  MessageHandler
	queue    chan Message
	upstream reactive.Subscription
	mu       sync.Mutex
	closed   bool
	once     sync.Once
	sb       *subPub
	subject  string
}

func newSubscription(sb *subPub, subject string, cb MessageHandler) *subscription {
	s := &subscription{
		handler: cb,
		queue:   make(chan Message, sb.queueSize),
		sb:      sb,
		subject: subject,
	}

	sb.wg.Add(1)
	go func() {
		defer sb.wg.Done()
		for msg := range s.queue {
			s.handler(msg)
			sb.metrics.delivered.WithLabelValues(subject).Inc()
		}
	}()

	return s
}

// enqueue кладет сообщение в очередь подписчика. Блокируется при заполненной
// очереди, чтобы не терять сообщения и не нарушать порядок.
func (s *subscription) enqueue(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.queue <- msg
}

// close отписывается от темы и закрывает очередь. Обработчик дочитывает
// уже поставленные сообщения и завершается. Вызов идемпотентен.
func (s *subscription) close() {
	s.once.Do(func() {
		if s.upstream != nil {
			s.upstream.Cancel()
		}
		s.mu.Lock()
		s.closed = true
		close(s.queue)
		s.mu.Unlock()
		s.sb.metrics.subscribers.Dec()
	})
}

// Unsubscribe отписывает подписчика от темы.
func (s *subscription) Unsubscribe() {
	s.close()
}
