package reactive

import "sync"

// CombineLatest испускает пару последних значений двух источников, как только
// каждый из них испустил хотя бы одно значение, и далее по одной новой паре
// на каждое значение любого источника. Завершается, когда завершились оба
// источника; ошибка любого источника сразу отменяет второй и уходит вниз.
func CombineLatest[A, B any](a Publisher[A], b Publisher[B]) Publisher[Pair[A, B]] {
	return NewPublisher(func(down Subscriber[Pair[A, B]]) {
		c := &combineCoordinator[A, B]{down: down}
		down.OnSubscribe(c)
		a.Subscribe(&combineSideA[A, B]{c: c})
		b.Subscribe(&combineSideB[A, B]{c: c})
	})
}

type combineCoordinator[A, B any] struct {
	mu     sync.Mutex
	emitMu sync.Mutex
	down   Subscriber[Pair[A, B]]

	subA, subB   Subscription
	latestA      A
	latestB      B
	seenA, seenB bool
	doneA, doneB bool
	activated    bool
	terminated   bool
	cancelled    bool
}

func (c *combineCoordinator[A, B]) Request(n int) {
	if n <= 0 {
		return
	}
	c.mu.Lock()
	if c.activated || c.cancelled {
		c.mu.Unlock()
		return
	}
	c.activated = true
	subA, subB := c.subA, c.subB
	c.mu.Unlock()
	if subA != nil {
		subA.Request(Unbounded)
	}
	if subB != nil {
		subB.Request(Unbounded)
	}
}

func (c *combineCoordinator[A, B]) Cancel() {
	c.mu.Lock()
	if c.cancelled {
		c.mu.Unlock()
		return
	}
	c.cancelled = true
	subA, subB := c.subA, c.subB
	c.mu.Unlock()
	if subA != nil {
		subA.Cancel()
	}
	if subB != nil {
		subB.Cancel()
	}
}

func (c *combineCoordinator[A, B]) attach(sub Subscription, set func()) {
	c.mu.Lock()
	if c.cancelled || c.terminated {
		c.mu.Unlock()
		sub.Cancel()
		return
	}
	set()
	act := c.activated
	c.mu.Unlock()
	if act {
		sub.Request(Unbounded)
	}
}

func (c *combineCoordinator[A, B]) emit(p Pair[A, B]) {
	c.emitMu.Lock()
	c.mu.Lock()
	if c.terminated || c.cancelled {
		c.mu.Unlock()
		c.emitMu.Unlock()
		return
	}
	c.mu.Unlock()
	c.down.OnNext(p)
	c.emitMu.Unlock()
}

func (c *combineCoordinator[A, B]) fail(err error) {
	c.mu.Lock()
	if c.terminated || c.cancelled {
		c.mu.Unlock()
		return
	}
	c.terminated = true
	subA, subB := c.subA, c.subB
	c.mu.Unlock()
	if subA != nil {
		subA.Cancel()
	}
	if subB != nil {
		subB.Cancel()
	}
	c.emitMu.Lock()
	c.down.OnError(err)
	c.emitMu.Unlock()
}

func (c *combineCoordinator[A, B]) sideDone(mark func()) {
	c.mu.Lock()
	mark()
	finished := c.doneA && c.doneB && !c.terminated && !c.cancelled
	if finished {
		c.terminated = true
	}
	c.mu.Unlock()
	if finished {
		c.emitMu.Lock()
		c.down.OnComplete()
		c.emitMu.Unlock()
	}
}

type combineSideA[A, B any] struct {
	c *combineCoordinator[A, B]
}

func (s *combineSideA[A, B]) OnSubscribe(sub Subscription) {
	s.c.attach(sub, func() { s.c.subA = sub })
}

func (s *combineSideA[A, B]) OnNext(v A) {
	c := s.c
	c.mu.Lock()
	if c.terminated || c.cancelled {
		c.mu.Unlock()
		return
	}
	c.latestA = v
	c.seenA = true
	ready := c.seenB
	pair := Pair[A, B]{First: c.latestA, Second: c.latestB}
	c.mu.Unlock()
	if ready {
		c.emit(pair)
	}
}

func (s *combineSideA[A, B]) OnError(err error) { s.c.fail(err) }
func (s *combineSideA[A, B]) OnComplete()       { s.c.sideDone(func() { s.c.doneA = true }) }

type combineSideB[A, B any] struct {
	c *combineCoordinator[A, B]
}

func (s *combineSideB[A, B]) OnSubscribe(sub Subscription) {
	s.c.attach(sub, func() { s.c.subB = sub })
}

func (s *combineSideB[A, B]) OnNext(v B) {
	c := s.c
	c.mu.Lock()
	if c.terminated || c.cancelled {
		c.mu.Unlock()
		return
	}
	c.latestB = v
	c.seenB = true
	ready := c.seenA
	pair := Pair[A, B]{First: c.latestA, Second: c.latestB}
	c.mu.Unlock()
	if ready {
		c.emit(pair)
	}
}

func (s *combineSideB[A, B]) OnError(err error) { s.c.fail(err) }
func (s *combineSideB[A, B]) OnComplete()       { s.c.sideDone(func() { s.c.doneB = true }) }

// Merge пересылает вниз каждое значение каждого источника по мере поступления,
// без объединения в пары. Завершается после завершения всех источников,
// ошибка любого источника терминальна сразу.
func Merge[T any](publishers ...Publisher[T]) Publisher[T] {
	if len(publishers) == 0 {
		return Empty[T]()
	}
	if len(publishers) == 1 {
		return publishers[0]
	}
	return NewPublisher(func(down Subscriber[T]) {
		c := &mergeCoordinator[T]{down: down, remaining: len(publishers)}
		down.OnSubscribe(c)
		for _, p := range publishers {
			p.Subscribe(&mergeInput[T]{c: c})
		}
	})
}

type mergeCoordinator[T any] struct {
	mu     sync.Mutex
	emitMu sync.Mutex
	down   Subscriber[T]

	subs       []Subscription
	remaining  int
	activated  bool
	terminated bool
	cancelled  bool
}

func (c *mergeCoordinator[T]) Request(n int) {
	if n <= 0 {
		return
	}
	c.mu.Lock()
	if c.activated || c.cancelled {
		c.mu.Unlock()
		return
	}
	c.activated = true
	subs := make([]Subscription, len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()
	for _, s := range subs {
		s.Request(Unbounded)
	}
}

func (c *mergeCoordinator[T]) Cancel() {
	c.mu.Lock()
	if c.cancelled {
		c.mu.Unlock()
		return
	}
	c.cancelled = true
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()
	for _, s := range subs {
		s.Cancel()
	}
}

func (c *mergeCoordinator[T]) fail(err error) {
	c.mu.Lock()
	if c.terminated || c.cancelled {
		c.mu.Unlock()
		return
	}
	c.terminated = true
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()
	for _, s := range subs {
		s.Cancel()
	}
	c.emitMu.Lock()
	c.down.OnError(err)
	c.emitMu.Unlock()
}

type mergeInput[T any] struct {
	c *mergeCoordinator[T]
}

func (m *mergeInput[T]) OnSubscribe(s Subscription) {
	c := m.c
	c.mu.Lock()
	if c.cancelled || c.terminated {
		c.mu.Unlock()
		s.Cancel()
		return
	}
	c.subs = append(c.subs, s)
	act := c.activated
	c.mu.Unlock()
	if act {
		s.Request(Unbounded)
	}
}

func (m *mergeInput[T]) OnNext(v T) {
	c := m.c
	c.emitMu.Lock()
	c.mu.Lock()
	if c.terminated || c.cancelled {
		c.mu.Unlock()
		c.emitMu.Unlock()
		return
	}
	c.mu.Unlock()
	c.down.OnNext(v)
	c.emitMu.Unlock()
}

func (m *mergeInput[T]) OnError(err error) { m.c.fail(err) }

func (m *mergeInput[T]) OnComplete() {
	c := m.c
	c.mu.Lock()
	c.remaining--
	finished := c.remaining == 0 && !c.terminated && !c.cancelled
	if finished {
		c.terminated = true
	}
	c.mu.Unlock()
	if finished {
		c.emitMu.Lock()
		c.down.OnComplete()
		c.emitMu.Unlock()
	}
}

// Zip буферизует значения каждого источника в очередь и испускает пару,
// только когда в обеих очередях есть хотя бы по одному значению, забирая
// из каждой по одному. Завершается, когда более короткий источник завершился
// и его очередь исчерпана.
func Zip[A, B any](a Publisher[A], b Publisher[B]) Publisher[Pair[A, B]] {
	return NewPublisher(func(down Subscriber[Pair[A, B]]) {
		c := &zipCoordinator[A, B]{down: down}
		down.OnSubscribe(c)
		a.Subscribe(&zipSideA[A, B]{c: c})
		b.Subscribe(&zipSideB[A, B]{c: c})
	})
}

type zipCoordinator[A, B any] struct {
	mu     sync.Mutex
	emitMu sync.Mutex
	down   Subscriber[Pair[A, B]]

	subA, subB   Subscription
	queueA       []A
	queueB       []B
	doneA, doneB bool
	activated    bool
	terminated   bool
	cancelled    bool
}

func (c *zipCoordinator[A, B]) Request(n int) {
	if n <= 0 {
		return
	}
	c.mu.Lock()
	if c.activated || c.cancelled {
		c.mu.Unlock()
		return
	}
	c.activated = true
	subA, subB := c.subA, c.subB
	c.mu.Unlock()
	if subA != nil {
		subA.Request(Unbounded)
	}
	if subB != nil {
		subB.Request(Unbounded)
	}
}

func (c *zipCoordinator[A, B]) Cancel() {
	c.mu.Lock()
	if c.cancelled {
		c.mu.Unlock()
		return
	}
	c.cancelled = true
	subA, subB := c.subA, c.subB
	c.mu.Unlock()
	if subA != nil {
		subA.Cancel()
	}
	if subB != nil {
		subB.Cancel()
	}
}

func (c *zipCoordinator[A, B]) attach(sub Subscription, set func()) {
	c.mu.Lock()
	if c.cancelled || c.terminated {
		c.mu.Unlock()
		sub.Cancel()
		return
	}
	set()
	act := c.activated
	c.mu.Unlock()
	if act {
		sub.Request(Unbounded)
	}
}

func (c *zipCoordinator[A, B]) fail(err error) {
	c.mu.Lock()
	if c.terminated || c.cancelled {
		c.mu.Unlock()
		return
	}
	c.terminated = true
	subA, subB := c.subA, c.subB
	c.mu.Unlock()
	if subA != nil {
		subA.Cancel()
	}
	if subB != nil {
		subB.Cancel()
	}
	c.emitMu.Lock()
	c.down.OnError(err)
	c.emitMu.Unlock()
}

// drainLocked извлекает готовую пару и проверяет условие завершения.
// Вызывается под c.mu.
func (c *zipCoordinator[A, B]) drainLocked() (pair Pair[A, B], emit bool, finished bool) {
	if c.terminated || c.cancelled {
		return pair, false, false
	}
	if len(c.queueA) > 0 && len(c.queueB) > 0 {
		pair = Pair[A, B]{First: c.queueA[0], Second: c.queueB[0]}
		c.queueA = c.queueA[1:]
		c.queueB = c.queueB[1:]
		emit = true
	}
	if (c.doneA && len(c.queueA) == 0) || (c.doneB && len(c.queueB) == 0) {
		c.terminated = true
		finished = true
	}
	return pair, emit, finished
}

func (c *zipCoordinator[A, B]) deliver(pair Pair[A, B], emit, finished bool) {
	if !emit && !finished {
		return
	}
	c.emitMu.Lock()
	if emit {
		c.down.OnNext(pair)
	}
	if finished {
		c.down.OnComplete()
	}
	c.emitMu.Unlock()
	if finished {
		c.mu.Lock()
		subA, subB := c.subA, c.subB
		c.mu.Unlock()
		if subA != nil {
			subA.Cancel()
		}
		if subB != nil {
			subB.Cancel()
		}
	}
}

type zipSideA[A, B any] struct {
	c *zipCoordinator[A, B]
}

func (s *zipSideA[A, B]) OnSubscribe(sub Subscription) {
	s.c.attach(sub, func() { s.c.subA = sub })
}

func (s *zipSideA[A, B]) OnNext(v A) {
	c := s.c
	c.mu.Lock()
	if c.terminated || c.cancelled {
		c.mu.Unlock()
		return
	}
	c.queueA = append(c.queueA, v)
	pair, emit, finished := c.drainLocked()
	c.mu.Unlock()
	c.deliver(pair, emit, finished)
}

func (s *zipSideA[A, B]) OnError(err error) { s.c.fail(err) }

func (s *zipSideA[A, B]) OnComplete() {
	c := s.c
	c.mu.Lock()
	c.doneA = true
	pair, emit, finished := c.drainLocked()
	c.mu.Unlock()
	c.deliver(pair, emit, finished)
}

type zipSideB[A, B any] struct {
	c *zipCoordinator[A, B]
}

func (s *zipSideB[A, B]) OnSubscribe(sub Subscription) {
	s.c.attach(sub, func() { s.c.subB = sub })
}

func (s *zipSideB[A, B]) OnNext(v B) {
	c := s.c
	c.mu.Lock()
	if c.terminated || c.cancelled {
		c.mu.Unlock()
		return
	}
	c.queueB = append(c.queueB, v)
	pair, emit, finished := c.drainLocked()
	c.mu.Unlock()
	c.deliver(pair, emit, finished)
}

func (s *zipSideB[A, B]) OnError(err error) { s.c.fail(err) }

func (s *zipSideB[A, B]) OnComplete() {
	c := s.c
	c.mu.Lock()
	c.doneB = true
	pair, emit, finished := c.drainLocked()
	c.mu.Unlock()
	c.deliver(pair, emit, finished)
}
