package impl

import "errors"

var (
	ErrEmptyPassword   = errors.New("empty password")
	ErrUnsupportedHash = errors.New("unsupported password hash")
	ErrMalformedHash   = errors.New("malformed password hash")
	ErrNilStore        = errors.New("nil store")
)
