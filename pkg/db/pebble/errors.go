package pebble

import "errors"

var ErrClosed = errors.New("davenport: pebble store is closed")
