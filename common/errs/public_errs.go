package errs

import (
	"fmt"

	"github.com/cockroachdb/errors/withstack"
)

// PublicError is an error that, when caught by error handler, should return a user-friendly error response to the user.
type PublicError struct {
	err     error
	message string
	code    string // code is optional, it lets clients identify the rejection without parsing the message
}

func (p PublicError) Error() string {
	return p.err.Error()
}

func (p PublicError) Message() string {
	return p.message
}

func (p PublicError) Code() string {
	return p.code
}

func (p PublicError) Unwrap() error {
	return p.err
}

func WithPublicMessage(err error, prefix string) error {
	if err == nil {
		return nil
	}
	return withstack.WithStackDepth(newPublicError(err, prefix, ""), 1)
}

func WithPublicMessageCode(err error, prefix string, code string) error {
	if err == nil {
		return nil
	}
	return withstack.WithStackDepth(newPublicError(err, prefix, code), 1)
}

func newPublicError(err error, prefix string, code string) *PublicError {
	message := err.Error()
	if prefix != "" {
		message = fmt.Sprintf("%s: %s", prefix, message)
	}
	return &PublicError{err: err, message: message, code: code}
}
