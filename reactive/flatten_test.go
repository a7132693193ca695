package reactive

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFlatMapMergesInnerValues проверяет слияние внутренних издателей
// в порядке поступления.
func TestFlatMapMergesInnerValues(t *testing.T) {
	rec := newRecorder[int]()
	FlatMap(Just(1, 2, 3), func(x int) Publisher[int] {
		return Just(x*10, x*10+1)
	}).Subscribe(rec)

	assert.Equal(t, []int{10, 11, 20, 21, 30, 31}, rec.Values())
	assert.True(t, rec.Completed())
}

// TestFlatMapWaitsForInnerCompletion проверяет, что завершение наступает
// только после завершения источника и всех внутренних издателей.
func TestFlatMapWaitsForInnerCompletion(t *testing.T) {
	inner := NewPassthroughSubject[int]()

	rec := newRecorder[int]()
	FlatMap(Just(0), func(int) Publisher[int] {
		return inner
	}).Subscribe(rec)

	inner.Send(1)
	assert.Equal(t, []int{1}, rec.Values())
	assert.False(t, rec.Completed())

	inner.SendComplete()
	assert.True(t, rec.Completed())
}

// TestFlatMapInnerFailureCancelsOthers проверяет, что ошибка одного
// внутреннего издателя отменяет остальные и уходит вниз.
func TestFlatMapInnerFailureCancelsOthers(t *testing.T) {
	wantErr := errors.New("inner failed")
	first := NewPassthroughSubject[int]()
	second := NewPassthroughSubject[int]()
	inners := []*PassthroughSubject[int]{first, second}

	rec := newRecorder[int]()
	FlatMap(Just(0, 1), func(i int) Publisher[int] {
		return inners[i]
	}).Subscribe(rec)

	first.Send(1)
	second.SendError(wantErr)

	require.Equal(t, wantErr, rec.Err())

	// Первый внутренний издатель отменен, его значения больше не доходят
	first.Send(2)
	assert.Equal(t, []int{1}, rec.Values())
}

// TestFlatMapCancelPropagatesToInners проверяет, что отмена снизу отменяет
// источник и внутренние подписки.
func TestFlatMapCancelPropagatesToInners(t *testing.T) {
	inner := NewPassthroughSubject[int]()

	rec := newRecorder[int]()
	FlatMap(Just(0), func(int) Publisher[int] {
		return inner
	}).Subscribe(rec)

	inner.Send(1)
	rec.Subscription().Cancel()

	for i := 0; i < 100; i++ {
		inner.Send(i)
	}
	assert.Equal(t, []int{1}, rec.Values())
}

// TestSwitchToLatestCancelsPrevious проверяет, что новый внутренний издатель
// отменяет предыдущую внутреннюю подписку.
func TestSwitchToLatestCancelsPrevious(t *testing.T) {
	outer := NewPassthroughSubject[Publisher[int]]()
	first := NewPassthroughSubject[int]()
	second := NewPassthroughSubject[int]()

	rec := newRecorder[int]()
	SwitchToLatest[int](outer).Subscribe(rec)

	outer.Send(first)
	first.Send(1)

	outer.Send(second)
	first.Send(2) // устаревший издатель, должно быть отброшено
	second.Send(3)

	assert.Equal(t, []int{1, 3}, rec.Values())
}

// TestSwitchToLatestCompletesAfterOuterAndInner проверяет условие завершения.
func TestSwitchToLatestCompletesAfterOuterAndInner(t *testing.T) {
	outer := NewPassthroughSubject[Publisher[int]]()
	inner := NewPassthroughSubject[int]()

	rec := newRecorder[int]()
	SwitchToLatest[int](outer).Subscribe(rec)

	outer.Send(inner)
	outer.SendComplete()
	assert.False(t, rec.Completed())

	inner.Send(1)
	inner.SendComplete()
	assert.Equal(t, []int{1}, rec.Values())
	assert.True(t, rec.Completed())
}

// TestSwitchToLatestInnerFailurePropagates проверяет отказ текущего
// внутреннего издателя.
func TestSwitchToLatestInnerFailurePropagates(t *testing.T) {
	wantErr := errors.New("inner failed")
	outer := NewPassthroughSubject[Publisher[int]]()
	inner := NewPassthroughSubject[int]()

	rec := newRecorder[int]()
	SwitchToLatest[int](outer).Subscribe(rec)

	outer.Send(inner)
	inner.SendError(wantErr)

	assert.Equal(t, wantErr, rec.Err())

	// После отказа новые внутренние издатели игнорируются
	outer.Send(NewPassthroughSubject[int]())
	assert.Empty(t, rec.Values())
}
