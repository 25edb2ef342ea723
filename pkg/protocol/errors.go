package protocol

import "errors"

// ErrNotFound is returned by RecordStore and Router implementations when the
// remote system positively reports the target does not exist.
var ErrNotFound = errors.New("remote object not found")
