package reactive

import (
	"math"
	"sync"
)

type subjectState int

const (
	stateActive subjectState = iota
	stateCompleted
	stateFailed
)

// subjectCore - общее ядро сабджектов: список подписчиков, терминальное
// состояние и сериализация отправок. Варианты сабджектов оборачивают ядро
// композицией, добавляя собственное кеширование.
type subjectCore[T any] struct {
	mu     sync.Mutex // защищает subs и state
	sendMu sync.Mutex // сериализует отправки: уведомления двух Send не чередуются
	subs   []*subjectSubscription[T]
	state  subjectState
	err    error
	nextID uint64
}

func newSubjectCore[T any]() *subjectCore[T] {
	return &subjectCore[T]{}
}

// subscribe регистрирует подписчика. Для терминального сабджекта подписчик
// сразу получает только терминальный сигнал, без прошлых значений. replay,
// если задан, выполняется под sendMu после OnSubscribe - так кешированное
// значение не может перемешаться с параллельным Send.
func (c *subjectCore[T]) subscribe(s Subscriber[T], replay func(*subjectSubscription[T])) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	c.mu.Lock()
	switch c.state {
	case stateCompleted:
		c.mu.Unlock()
		s.OnSubscribe(nopSubscription{})
		s.OnComplete()
		return
	case stateFailed:
		err := c.err
		c.mu.Unlock()
		s.OnSubscribe(nopSubscription{})
		s.OnError(err)
		return
	}
	c.nextID++
	ss := &subjectSubscription[T]{id: c.nextID, core: c, sub: s}
	c.subs = append(c.subs, ss)
	c.mu.Unlock()

	s.OnSubscribe(ss)
	if replay != nil {
		replay(ss)
	}
}

// send доставляет значение всем текущим подписчикам в порядке подписки.
// pre, если задан, выполняется под sendMu до рассылки - варианты сабджектов
// обновляют в нем свой кеш атомарно с рассылкой.
func (c *subjectCore[T]) send(v T, pre func()) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	c.mu.Lock()
	if c.state != stateActive {
		c.mu.Unlock()
		return
	}
	snapshot := make([]*subjectSubscription[T], len(c.subs))
	copy(snapshot, c.subs)
	c.mu.Unlock()

	if pre != nil {
		pre()
	}
	for _, ss := range snapshot {
		ss.deliver(v)
	}
}

func (c *subjectCore[T]) sendError(err error) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	c.mu.Lock()
	if c.state != stateActive {
		c.mu.Unlock()
		return
	}
	c.state = stateFailed
	c.err = err
	snapshot := c.subs
	c.subs = nil
	c.mu.Unlock()

	for _, ss := range snapshot {
		if ss.markTerminated() {
			ss.sub.OnError(err)
		}
	}
}

func (c *subjectCore[T]) sendComplete() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	c.mu.Lock()
	if c.state != stateActive {
		c.mu.Unlock()
		return
	}
	c.state = stateCompleted
	snapshot := c.subs
	c.subs = nil
	c.mu.Unlock()

	for _, ss := range snapshot {
		if ss.markTerminated() {
			ss.sub.OnComplete()
		}
	}
}

func (c *subjectCore[T]) remove(id uint64) {
	c.mu.Lock()
	for i, ss := range c.subs {
		if ss.id == id {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
}

// subjectSubscription - подписка одного подписчика на сабджект. Значения
// доставляются только при положительном спросе; подписчик с нулевым спросом
// пропускает значение (сабджект горячий и не буферизует).
type subjectSubscription[T any] struct {
	id   uint64
	core *subjectCore[T]
	sub  Subscriber[T]

	mu         sync.Mutex
	demand     int
	cancelled  bool
	terminated bool
}

func (s *subjectSubscription[T]) Request(n int) {
	if n <= 0 {
		return
	}
	s.mu.Lock()
	if s.demand > math.MaxInt-n {
		s.demand = Unbounded
	} else {
		s.demand += n
	}
	s.mu.Unlock()
}

func (s *subjectSubscription[T]) Cancel() {
	s.mu.Lock()
	if s.cancelled {
		s.mu.Unlock()
		return
	}
	s.cancelled = true
	s.mu.Unlock()
	s.core.remove(s.id)
}

func (s *subjectSubscription[T]) deliver(v T) {
	s.mu.Lock()
	if s.cancelled || s.terminated || s.demand == 0 {
		s.mu.Unlock()
		return
	}
	if s.demand != Unbounded {
		s.demand--
	}
	s.mu.Unlock()
	s.sub.OnNext(v)
}

func (s *subjectSubscription[T]) markTerminated() bool {
	s.mu.Lock()
	if s.cancelled || s.terminated {
		s.mu.Unlock()
		return false
	}
	s.terminated = true
	s.mu.Unlock()
	return true
}

// PassthroughSubject - сабджект без кеша: поздние подписчики не видят
// значений, отправленных до их подписки.
type PassthroughSubject[T any] struct {
	core *subjectCore[T]
}

// NewPassthroughSubject создает новый PassthroughSubject.
func NewPassthroughSubject[T any]() *PassthroughSubject[T] {
	return &PassthroughSubject[T]{core: newSubjectCore[T]()}
}

func (p *PassthroughSubject[T]) Subscribe(s Subscriber[T]) {
	p.core.subscribe(s, nil)
}

func (p *PassthroughSubject[T]) Send(v T) {
	p.core.send(v, nil)
}

func (p *PassthroughSubject[T]) SendError(err error) {
	p.core.sendError(err)
}

func (p *PassthroughSubject[T]) SendComplete() {
	p.core.sendComplete()
}

// CurrentValueSubject хранит последнее отправленное значение (или начальное)
// и сразу доставляет его каждому новому подписчику. Терминальный сабджект
// прошлых значений не воспроизводит, поздний подписчик получает только
// терминальный сигнал.
type CurrentValueSubject[T any] struct {
	core *subjectCore[T]

	valueMu sync.RWMutex
	value   T
}

// NewCurrentValueSubject создает CurrentValueSubject с начальным значением initial.
func NewCurrentValueSubject[T any](initial T) *CurrentValueSubject[T] {
	return &CurrentValueSubject[T]{core: newSubjectCore[T](), value: initial}
}

func (c *CurrentValueSubject[T]) Subscribe(s Subscriber[T]) {
	c.core.subscribe(s, func(ss *subjectSubscription[T]) {
		c.valueMu.RLock()
		v := c.value
		c.valueMu.RUnlock()
		ss.deliver(v)
	})
}

func (c *CurrentValueSubject[T]) Send(v T) {
	c.core.send(v, func() {
		c.valueMu.Lock()
		c.value = v
		c.valueMu.Unlock()
	})
}

func (c *CurrentValueSubject[T]) SendError(err error) {
	c.core.sendError(err)
}

func (c *CurrentValueSubject[T]) SendComplete() {
	c.core.sendComplete()
}

// Value возвращает текущее кешированное значение.
func (c *CurrentValueSubject[T]) Value() T {
	c.valueMu.RLock()
	defer c.valueMu.RUnlock()
	return c.value
}

var (
	_ Subject[int] = (*PassthroughSubject[int])(nil)
	_ Subject[int] = (*CurrentValueSubject[int])(nil)
)
