package pipeline

import (
	stderrors "errors"

	"github.com/pkg/errors"
)

var (
	ErrUpstreamAuth   = stderrors.New("upstream auth failure")
	ErrUpstreamFetch  = stderrors.New("upstream fetch failure")
	ErrMalformedInput = stderrors.New("malformed input")
)

// Error tags a failure with one of the kinds above. errors.Is matches both the
// kind and the underlying cause.
type Error struct {
	Kind error
	Err  error
}

func (e *Error) Error() string {
	return e.Kind.Error() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func fail(kind, err error, msg string) error {
	return &Error{Kind: kind, Err: errors.Wrap(err, msg)}
}
