package tools

import "errors"

var ErrNotSchedulable = errors.New("tool cannot be scheduled")
