package async

import "errors"

// ErrTimeout is returned by AwaitWithTimeout when the deadline passes before
// the function completes.
var ErrTimeout = errors.New("async operation timed out")
