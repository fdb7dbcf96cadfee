package output

import "errors"

// NotFoundError reports a missing required collection or an empty working set.
// The API layer maps it to 404.
type NotFoundError struct {
	Detail string
}

func (e *NotFoundError) Error() string {
	return e.Detail
}

// UnprocessableError reports a request the engine cannot act on: unsupported
// output type, malformed identifiers, or an empty section mapping. The API
// layer maps it to 422.
type UnprocessableError struct {
	Detail string
}

func (e *UnprocessableError) Error() string {
	return e.Detail
}

func notFoundf(detail string) error {
	return &NotFoundError{Detail: detail}
}

func unprocessablef(detail string) error {
	return &UnprocessableError{Detail: detail}
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsUnprocessable reports whether err is an UnprocessableError.
func IsUnprocessable(err error) bool {
	var up *UnprocessableError
	return errors.As(err, &up)
}
