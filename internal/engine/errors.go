package engine

import "errors"

// ErrNoUsableInput is returned by Run when no cell of any layout file
// could be processed.
var ErrNoUsableInput = errors.New("no usable layout input")
