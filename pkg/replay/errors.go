package replay

import "errors"

// ErrMismatch is matched by every MismatchError. Callers use it to tell a
// replay mismatch apart from other failures.
var ErrMismatch = errors.New("no matching replay request")

// MismatchError is returned when exact matching is enforced and no recorded
// request has the requested key.
type MismatchError struct {
	Description string
}

func (e *MismatchError) Error() string {
	return "could not find any replay request matching '" + e.Description + "'"
}

// Is lets errors.Is(err, ErrMismatch) identify a MismatchError.
func (e *MismatchError) Is(target error) bool {
	return target == ErrMismatch
}
