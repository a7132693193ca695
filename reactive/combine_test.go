package reactive

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCombineLatestEmitsOncePerTriggeringSend проверяет, что первая пара
// появляется после готовности обоих источников, а дальше ровно одна пара
// на каждую отправку.
func TestCombineLatestEmitsOncePerTriggeringSend(t *testing.T) {
	a := NewPassthroughSubject[int]()
	b := NewPassthroughSubject[string]()

	rec := newRecorder[Pair[int, string]]()
	CombineLatest[int, string](a, b).Subscribe(rec)

	a.Send(1)
	assert.Empty(t, rec.Values())

	b.Send("x")
	require.Equal(t, []Pair[int, string]{{First: 1, Second: "x"}}, rec.Values())

	a.Send(2)
	b.Send("y")
	assert.Equal(t, []Pair[int, string]{
		{First: 1, Second: "x"},
		{First: 2, Second: "x"},
		{First: 2, Second: "y"},
	}, rec.Values())
}

// TestCombineLatestCompletesWhenAllComplete проверяет условие завершения.
func TestCombineLatestCompletesWhenAllComplete(t *testing.T) {
	a := NewPassthroughSubject[int]()
	b := NewPassthroughSubject[int]()

	rec := newRecorder[Pair[int, int]]()
	CombineLatest[int, int](a, b).Subscribe(rec)

	a.Send(1)
	b.Send(2)
	a.SendComplete()
	assert.False(t, rec.Completed())

	// Источник с завершенной стороной продолжает комбинировать кешированное значение
	b.Send(3)
	assert.Equal(t, Pair[int, int]{First: 1, Second: 3}, rec.Values()[len(rec.Values())-1])

	b.SendComplete()
	assert.True(t, rec.Completed())
}

// TestCombineLatestFailsFast проверяет, что ошибка любого источника терминальна сразу.
func TestCombineLatestFailsFast(t *testing.T) {
	wantErr := errors.New("side failure")
	a := NewPassthroughSubject[int]()
	b := NewPassthroughSubject[int]()

	rec := newRecorder[Pair[int, int]]()
	CombineLatest[int, int](a, b).Subscribe(rec)

	a.SendError(wantErr)
	assert.Equal(t, wantErr, rec.Err())

	// Вторая сторона отменена и больше ничего не доставляет
	b.Send(5)
	assert.Empty(t, rec.Values())
}

// TestZipEmitsShortestLength проверяет, что zip входов длины 3 и 5 дает ровно
// 3 пары и завершается.
func TestZipEmitsShortestLength(t *testing.T) {
	rec := newRecorder[Pair[int, string]]()
	Zip(Just(1, 2, 3), Just("a", "b", "c", "d", "e")).Subscribe(rec)

	assert.Equal(t, []Pair[int, string]{
		{First: 1, Second: "a"},
		{First: 2, Second: "b"},
		{First: 3, Second: "c"},
	}, rec.Values())
	assert.True(t, rec.Completed())
}

// TestZipBuffersUntilPairReady проверяет буферизацию на горячих источниках.
func TestZipBuffersUntilPairReady(t *testing.T) {
	a := NewPassthroughSubject[int]()
	b := NewPassthroughSubject[int]()

	rec := newRecorder[Pair[int, int]]()
	Zip[int, int](a, b).Subscribe(rec)

	a.Send(1)
	a.Send(2)
	assert.Empty(t, rec.Values())

	b.Send(10)
	b.Send(20)
	assert.Equal(t, []Pair[int, int]{
		{First: 1, Second: 10},
		{First: 2, Second: 20},
	}, rec.Values())
}

// TestZipCompletesWhenShortestDrained проверяет завершение после исчерпания
// буфера завершившейся стороны.
func TestZipCompletesWhenShortestDrained(t *testing.T) {
	a := NewPassthroughSubject[int]()
	b := NewPassthroughSubject[int]()

	rec := newRecorder[Pair[int, int]]()
	Zip[int, int](a, b).Subscribe(rec)

	a.Send(1)
	a.SendComplete()
	assert.False(t, rec.Completed())

	b.Send(10)
	assert.Equal(t, []Pair[int, int]{{First: 1, Second: 10}}, rec.Values())
	assert.True(t, rec.Completed())
}

// TestMergeForwardsEveryValue проверяет, что merge пересылает все значения
// всех источников и завершается после завершения всех.
func TestMergeForwardsEveryValue(t *testing.T) {
	a := NewPassthroughSubject[int]()
	b := NewPassthroughSubject[int]()

	rec := newRecorder[int]()
	Merge[int](a, b).Subscribe(rec)

	a.Send(1)
	b.Send(2)
	a.Send(3)

	assert.Equal(t, []int{1, 2, 3}, rec.Values())

	a.SendComplete()
	assert.False(t, rec.Completed())
	b.SendComplete()
	assert.True(t, rec.Completed())
}

// TestMergeFailsOnAnyInput проверяет немедленный отказ merge.
func TestMergeFailsOnAnyInput(t *testing.T) {
	wantErr := errors.New("input failed")
	a := NewPassthroughSubject[int]()
	b := NewPassthroughSubject[int]()

	rec := newRecorder[int]()
	Merge[int](a, b).Subscribe(rec)

	a.Send(1)
	b.SendError(wantErr)

	assert.Equal(t, wantErr, rec.Err())

	a.Send(2)
	assert.Equal(t, []int{1}, rec.Values())
}

// TestMergeOfColdSources проверяет merge на холодных источниках.
func TestMergeOfColdSources(t *testing.T) {
	rec := newRecorder[int]()
	Merge(Just(1, 2), Just(3, 4)).Subscribe(rec)

	assert.Equal(t, []int{1, 2, 3, 4}, rec.Values())
	assert.True(t, rec.Completed())
}
