package reactive

import (
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// ReplaySubject хранит последние capacity значений в пределах окна window
// и воспроизводит их каждому новому подписчику в порядке отправки. Значения
// старше окна вытесняются и не воспроизводятся. Терминальный сабджект
// значений не воспроизводит.
type ReplaySubject[T any] struct {
	core  *subjectCore[T]
	cache *ttlcache.Cache[uint64, T]

	mu    sync.Mutex // защищает order и seq
	order []uint64
	seq   uint64

	capacity int
}

// NewReplaySubject создает ReplaySubject с емкостью буфера capacity и
// временным окном window.
func NewReplaySubject[T any](capacity int, window time.Duration) *ReplaySubject[T] {
	cache := ttlcache.New[uint64, T](
		ttlcache.WithTTL[uint64, T](window),
		ttlcache.WithCapacity[uint64, T](uint64(capacity)),
		ttlcache.WithDisableTouchOnHit[uint64, T](),
	)
	go cache.Start()

	return &ReplaySubject[T]{
		core:     newSubjectCore[T](),
		cache:    cache,
		capacity: capacity,
	}
}

func (r *ReplaySubject[T]) Subscribe(s Subscriber[T]) {
	r.core.subscribe(s, func(ss *subjectSubscription[T]) {
		r.mu.Lock()
		order := make([]uint64, len(r.order))
		copy(order, r.order)
		r.mu.Unlock()

		for _, id := range order {
			if item := r.cache.Get(id); item != nil {
				ss.deliver(item.Value())
			}
		}
	})
}

func (r *ReplaySubject[T]) Send(v T) {
	r.core.send(v, func() {
		r.mu.Lock()
		r.seq++
		id := r.seq
		r.order = append(r.order, id)
		if len(r.order) > r.capacity {
			r.order = r.order[len(r.order)-r.capacity:]
		}
		r.mu.Unlock()
		r.cache.Set(id, v, ttlcache.DefaultTTL)
	})
}

func (r *ReplaySubject[T]) SendError(err error) {
	r.core.sendError(err)
	r.cache.Stop()
}

func (r *ReplaySubject[T]) SendComplete() {
	r.core.sendComplete()
	r.cache.Stop()
}

var _ Subject[int] = (*ReplaySubject[int])(nil)
