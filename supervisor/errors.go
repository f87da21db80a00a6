package supervisor

import "errors"

// ErrDataDirLocked is returned by Run when another process already holds
// the advisory lock over the configured data directory.
var ErrDataDirLocked = errors.New("supervisor: data directory already locked by another process")
