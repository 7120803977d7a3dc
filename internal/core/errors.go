package core

// Kind classifies service errors for the transport layer.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindUnauthorized
	KindNotFound
	KindConflict
	KindInvalidToken
)

// Error is a failure the caller is allowed to see. Message is safe to return
// to clients verbatim.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error of the same kind, so the package sentinels work with
// errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

var (
	ErrValidation   = &Error{Kind: KindValidation}
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrConflict     = &Error{Kind: KindConflict}
	ErrInvalidToken = &Error{Kind: KindInvalidToken}
)

func newError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, cause: cause}
}

func validationError(msg string) error   { return newError(KindValidation, msg, nil) }
func unauthorizedError(msg string) error { return newError(KindUnauthorized, msg, nil) }
func notFoundError(msg string) error     { return newError(KindNotFound, msg, nil) }

func conflictError(msg string, cause error) error {
	return newError(KindConflict, msg, cause)
}
