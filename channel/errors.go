package channel

import "errors"

// ErrChannelClosed is returned by operations on a channel whose underlying
// connection has shut down.
var ErrChannelClosed = errors.New("event channel closed")
