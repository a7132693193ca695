package reactive

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRetryExhaustsAttempts проверяет, что retry(2) на всегда падающем
// источнике делает ровно 3 попытки подписки и затем отдает ошибку.
func TestRetryExhaustsAttempts(t *testing.T) {
	wantErr := errors.New("always fails")
	attempts := 0
	failing := NewPublisher(func(s Subscriber[int]) {
		attempts++
		s.OnSubscribe(nopSubscription{})
		s.OnError(wantErr)
	})

	rec := newRecorder[int]()
	Retry(failing, 2).Subscribe(rec)

	assert.Equal(t, 3, attempts)
	assert.Equal(t, wantErr, rec.Err())
	assert.False(t, rec.Completed())
}

// TestRetrySucceedsAfterFailures проверяет, что первое успешное завершение
// уходит вниз как есть.
func TestRetrySucceedsAfterFailures(t *testing.T) {
	attempts := 0
	flaky := Defer(func() Publisher[int] {
		attempts++
		if attempts < 3 {
			return Fail[int](errors.New("transient"))
		}
		return Just(1, 2)
	})

	rec := newRecorder[int]()
	Retry(flaky, 5).Subscribe(rec)

	require.Equal(t, 3, attempts)
	assert.Equal(t, []int{1, 2}, rec.Values())
	assert.True(t, rec.Completed())
	assert.NoError(t, rec.Err())
}

// TestCatchSwitchesToFallback проверяет переключение на запасного издателя.
func TestCatchSwitchesToFallback(t *testing.T) {
	wantErr := errors.New("primary failed")
	var caught error

	rec := newRecorder[int]()
	Catch(Fail[int](wantErr), func(err error) Publisher[int] {
		caught = err
		return Just(7, 8)
	}).Subscribe(rec)

	assert.Equal(t, wantErr, caught)
	assert.Equal(t, []int{7, 8}, rec.Values())
	assert.True(t, rec.Completed())
	assert.NoError(t, rec.Err())
}

// TestCatchDoesNotInterceptFallbackFailure проверяет, что ошибка запасного
// издателя уже не перехватывается.
func TestCatchDoesNotInterceptFallbackFailure(t *testing.T) {
	fallbackErr := errors.New("fallback failed")
	calls := 0

	rec := newRecorder[int]()
	Catch(Fail[int](errors.New("primary")), func(error) Publisher[int] {
		calls++
		return Fail[int](fallbackErr)
	}).Subscribe(rec)

	assert.Equal(t, 1, calls)
	assert.Equal(t, fallbackErr, rec.Err())
}

// TestReplaceErrorEmitsFallbackAndCompletes проверяет подавление ошибки
// значением по умолчанию.
func TestReplaceErrorEmitsFallbackAndCompletes(t *testing.T) {
	partial := NewPublisher(func(s Subscriber[int]) {
		s.OnSubscribe(nopSubscription{})
		s.OnNext(1)
		s.OnError(errors.New("broken"))
	})

	rec := newRecorder[int]()
	ReplaceError(partial, 42).Subscribe(rec)

	// значения, доставленные до отказа, сохраняются
	assert.Equal(t, []int{1, 42}, rec.Values())
	assert.True(t, rec.Completed())
	assert.NoError(t, rec.Err())
}
