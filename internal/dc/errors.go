package dc

import (
	"errors"
	"fmt"
)

// InvalidContentError reports a grab request the client refused before
// contacting the remote daemon, such as an empty magnet link or torrent file.
type InvalidContentError struct {
	Field  string
	Reason string
	Err    error
}

func (e *InvalidContentError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *InvalidContentError) Unwrap() error {
	return e.Err
}

// IsInvalidContentError reports whether err wraps an InvalidContentError.
func IsInvalidContentError(err error) bool {
	var target *InvalidContentError

	return errors.As(err, &target)
}
