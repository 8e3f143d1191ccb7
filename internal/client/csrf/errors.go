package csrf

import (
	"errors"
	"fmt"
)

// ErrTokenUnavailable matches every AcquisitionError.
var ErrTokenUnavailable = errors.New("csrf token unavailable")

var errNoTokenField = errors.New("response has no token field")

// AcquisitionError reports that neither the token endpoint nor the cookie
// produced a token. Err is the endpoint-side cause.
type AcquisitionError struct {
	Endpoint string
	Err      error
}

func (e *AcquisitionError) Error() string {
	if e == nil || e.Err == nil {
		return ErrTokenUnavailable.Error()
	}
	return fmt.Sprintf("%s: %s: %v", ErrTokenUnavailable, e.Endpoint, e.Err)
}

func (e *AcquisitionError) Unwrap() error { return e.Err }

func (e *AcquisitionError) Is(target error) bool { return target == ErrTokenUnavailable }
