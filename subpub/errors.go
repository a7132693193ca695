package subpub

import "errors"

var (
	// ErrClosed возвращается после закрытия шины.
	ErrClosed = errors.New("subpub: broker closed")

	// ErrEmptySubject возвращается при пустом имени темы.
	ErrEmptySubject = errors.New("subpub: subject must not be empty")

	// ErrNilHandler возвращается при подписке без обработчика.
	ErrNilHandler = errors.New("subpub: handler must not be nil")
)
