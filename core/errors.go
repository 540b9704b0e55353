package core

import "errors"

// ErrInvalidInputData marks imports that are structurally unusable:
// empty files, no recognizable required column, or zero rows surviving
// the parse. Row-level problems are reported as warnings instead.
var ErrInvalidInputData = errors.New("invalid input data")
