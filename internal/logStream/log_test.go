package logStream

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ararat25/go-reactive/reactive"
)

// TestLoggingPublisherTransparent проверяет, что обертка не меняет поток
func TestLoggingPublisherTransparent(t *testing.T) {
	logger := log.New(io.Discard)

	var got []int
	p := LoggingPublisher("nums", logger, reactive.FromSlice([]int{1, 2, 3}))
	p.Subscribe(reactive.Sink[int]{
		OnNextFunc: func(v int) { got = append(got, v) },
	}.Build())

	assert.Equal(t, []int{1, 2, 3}, got)
}

// TestLoggingSubscriberWritesTerminalEvents проверяет записи о завершении потока
func TestLoggingSubscriberWritesTerminalEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)

	reactive.FromSlice([]string{"a", "b"}).Subscribe(
		LoggingSubscriber("letters", logger, reactive.Sink[string]{}.Build()),
	)

	out := buf.String()
	assert.Contains(t, out, "stream completed")
	assert.Contains(t, out, "letters")
	assert.Contains(t, out, "values=2")
}

// TestLoggingSubscriberWritesError проверяет запись об ошибке потока
func TestLoggingSubscriberWritesError(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)

	streamErr := errors.New("boom")
	handled := false

	reactive.Fail[int](streamErr).Subscribe(
		LoggingSubscriber("broken", logger, reactive.Sink[int]{
			OnErrorFunc: func(err error) {
				handled = true
				require.ErrorIs(t, err, streamErr)
			},
		}.Build()),
	)

	assert.True(t, handled)
	assert.True(t, strings.Contains(buf.String(), "stream failed"))
	assert.Contains(t, buf.String(), "boom")
}
