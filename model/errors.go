package model

import "errors"

// ErrEmptyProcessType is returned when a process type tag is blank.
var ErrEmptyProcessType = errors.New("process type is empty")
