package reactive

import "sync"

// FlatMap для каждого значения источника подписывается на внутреннего
// издателя из transform и сливает все внутренние значения в один поток
// в порядке поступления. Ошибка любого внутреннего издателя отменяет
// остальные подписки и уходит вниз; завершение наступает, когда завершился
// источник и все внутренние издатели.
//
// Операторы слияния работают в режиме неограниченного спроса: после
// активации они запрашивают Unbounded у источника и у внутренних издателей.
func FlatMap[T, U any](p Publisher[T], transform func(T) Publisher[U]) Publisher[U] {
	return NewPublisher(func(down Subscriber[U]) {
		c := &flatMapCoordinator[T, U]{down: down, transform: transform}
		down.OnSubscribe(c)
		p.Subscribe(&flatMapOuter[T, U]{c: c})
	})
}

// flatMapCoordinator - общее состояние оператора. Является Subscription
// для нижестоящего подписчика: отмена снизу отменяет источник и все
// внутренние подписки. Доставка вниз сериализована через emitMu.
type flatMapCoordinator[T, U any] struct {
	mu        sync.Mutex
	emitMu    sync.Mutex
	down      Subscriber[U]
	transform func(T) Publisher[U]

	outer      Subscription
	inners     []Subscription
	active     int
	outerDone  bool
	activated  bool
	terminated bool
	cancelled  bool
}

func (c *flatMapCoordinator[T, U]) Request(n int) {
	if n <= 0 {
		return
	}
	c.mu.Lock()
	if c.activated || c.cancelled {
		c.mu.Unlock()
		return
	}
	c.activated = true
	outer := c.outer
	c.mu.Unlock()
	if outer != nil {
		outer.Request(Unbounded)
	}
}

func (c *flatMapCoordinator[T, U]) Cancel() {
	c.mu.Lock()
	if c.cancelled {
		c.mu.Unlock()
		return
	}
	c.cancelled = true
	outer := c.outer
	inners := c.inners
	c.inners = nil
	c.mu.Unlock()

	if outer != nil {
		outer.Cancel()
	}
	for _, s := range inners {
		s.Cancel()
	}
}

func (c *flatMapCoordinator[T, U]) emit(v U) {
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

func (c *flatMapCoordinator[T, U]) fail(err error) {
	c.mu.Lock()
	if c.terminated || c.cancelled {
		c.mu.Unlock()
		return
	}
	c.terminated = true
	outer := c.outer
	inners := c.inners
	c.inners = nil
	c.mu.Unlock()

	if outer != nil {
		outer.Cancel()
	}
	for _, s := range inners {
		s.Cancel()
	}

	c.emitMu.Lock()
	c.down.OnError(err)
	c.emitMu.Unlock()
}

func (c *flatMapCoordinator[T, U]) complete() {
	c.emitMu.Lock()
	c.down.OnComplete()
	c.emitMu.Unlock()
}

type flatMapOuter[T, U any] struct {
	c *flatMapCoordinator[T, U]
}

func (o *flatMapOuter[T, U]) OnSubscribe(s Subscription) {
	c := o.c
	c.mu.Lock()
	if c.cancelled {
		c.mu.Unlock()
		s.Cancel()
		return
	}
	c.outer = s
	act := c.activated
	c.mu.Unlock()
	if act {
		s.Request(Unbounded)
	}
}

func (o *flatMapOuter[T, U]) OnNext(v T) {
	c := o.c
	c.mu.Lock()
	if c.terminated || c.cancelled {
		c.mu.Unlock()
		return
	}
	c.active++
	c.mu.Unlock()

	inner := c.transform(v)
	inner.Subscribe(&flatMapInner[T, U]{c: c})
}

func (o *flatMapOuter[T, U]) OnError(err error) {
	o.c.fail(err)
}

func (o *flatMapOuter[T, U]) OnComplete() {
	c := o.c
	c.mu.Lock()
	c.outerDone = true
	finished := c.active == 0 && !c.terminated && !c.cancelled
	if finished {
		c.terminated = true
	}
	c.mu.Unlock()
	if finished {
		c.complete()
	}
}

type flatMapInner[T, U any] struct {
	c *flatMapCoordinator[T, U]
}

func (i *flatMapInner[T, U]) OnSubscribe(s Subscription) {
	c := i.c
	c.mu.Lock()
	if c.terminated || c.cancelled {
		c.mu.Unlock()
		s.Cancel()
		return
	}
	c.inners = append(c.inners, s)
	c.mu.Unlock()
	s.Request(Unbounded)
}

func (i *flatMapInner[T, U]) OnNext(v U) {
	i.c.emit(v)
}

func (i *flatMapInner[T, U]) OnError(err error) {
	i.c.fail(err)
}

func (i *flatMapInner[T, U]) OnComplete() {
	c := i.c
	c.mu.Lock()
	c.active--
	finished := c.outerDone && c.active == 0 && !c.terminated && !c.cancelled
	if finished {
		c.terminated = true
	}
	c.mu.Unlock()
	if finished {
		c.complete()
	}
}

// SwitchToLatest подписывается на самого свежего внутреннего издателя
// потока издателей. Появление нового внутреннего издателя сначала отменяет
// предыдущую внутреннюю подписку, затем оформляется новая; события устаревших
// поколений отбрасываются.
func SwitchToLatest[T any](p Publisher[Publisher[T]]) Publisher[T] {
	return NewPublisher(func(down Subscriber[T]) {
		c := &switchCoordinator[T]{down: down}
		down.OnSubscribe(c)
		p.Subscribe(&switchOuter[T]{c: c})
	})
}

type switchCoordinator[T any] struct {
	mu     sync.Mutex
	emitMu sync.Mutex
	down   Subscriber[T]

	outer       Subscription
	inner       Subscription
	gen         uint64
	innerActive bool
	outerDone   bool
	activated   bool
	terminated  bool
	cancelled   bool
}

func (c *switchCoordinator[T]) Request(n int) {
	if n <= 0 {
		return
	}
	c.mu.Lock()
	if c.activated || c.cancelled {
		c.mu.Unlock()
		return
	}
	c.activated = true
	outer := c.outer
	c.mu.Unlock()
	if outer != nil {
		outer.Request(Unbounded)
	}
}

func (c *switchCoordinator[T]) Cancel() {
	c.mu.Lock()
	if c.cancelled {
		c.mu.Unlock()
		return
	}
	c.cancelled = true
	outer := c.outer
	inner := c.inner
	c.inner = nil
	c.mu.Unlock()

	if outer != nil {
		outer.Cancel()
	}
	if inner != nil {
		inner.Cancel()
	}
}

func (c *switchCoordinator[T]) fail(err error) {
	c.mu.Lock()
	if c.terminated || c.cancelled {
		c.mu.Unlock()
		return
	}
	c.terminated = true
	outer := c.outer
	inner := c.inner
	c.inner = nil
	c.mu.Unlock()

	if outer != nil {
		outer.Cancel()
	}
	if inner != nil {
		inner.Cancel()
	}

	c.emitMu.Lock()
	c.down.OnError(err)
	c.emitMu.Unlock()
}

type switchOuter[T any] struct {
	c *switchCoordinator[T]
}

func (o *switchOuter[T]) OnSubscribe(s Subscription) {
	c := o.c
	c.mu.Lock()
	if c.cancelled {
		c.mu.Unlock()
		s.Cancel()
		return
	}
	c.outer = s
	act := c.activated
	c.mu.Unlock()
	if act {
		s.Request(Unbounded)
	}
}

func (o *switchOuter[T]) OnNext(pub Publisher[T]) {
	c := o.c
	c.mu.Lock()
	if c.terminated || c.cancelled {
		c.mu.Unlock()
		return
	}
	c.gen++
	gen := c.gen
	prev := c.inner
	c.inner = nil
	c.innerActive = true
	c.mu.Unlock()

	if prev != nil {
		prev.Cancel()
	}
	pub.Subscribe(&switchInner[T]{c: c, gen: gen})
}

func (o *switchOuter[T]) OnError(err error) {
	o.c.fail(err)
}

func (o *switchOuter[T]) OnComplete() {
	c := o.c
	c.mu.Lock()
	c.outerDone = true
	finished := !c.innerActive && !c.terminated && !c.cancelled
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

type switchInner[T any] struct {
	c   *switchCoordinator[T]
	gen uint64
}

func (i *switchInner[T]) OnSubscribe(s Subscription) {
	c := i.c
	c.mu.Lock()
	if i.gen != c.gen || c.terminated || c.cancelled {
		c.mu.Unlock()
		s.Cancel()
		return
	}
	c.inner = s
	c.mu.Unlock()
	s.Request(Unbounded)
}

func (i *switchInner[T]) OnNext(v T) {
	c := i.c
	c.emitMu.Lock()
	c.mu.Lock()
	if i.gen != c.gen || c.terminated || c.cancelled {
		c.mu.Unlock()
		c.emitMu.Unlock()
		return
	}
	c.mu.Unlock()
	c.down.OnNext(v)
	c.emitMu.Unlock()
}

func (i *switchInner[T]) OnError(err error) {
	c := i.c
	c.mu.Lock()
	stale := i.gen != c.gen
	c.mu.Unlock()
	if stale {
		return
	}
	c.fail(err)
}

func (i *switchInner[T]) OnComplete() {
	c := i.c
	c.mu.Lock()
	if i.gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.innerActive = false
	c.inner = nil
	finished := c.outerDone && !c.terminated && !c.cancelled
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
