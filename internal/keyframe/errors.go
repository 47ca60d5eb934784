package keyframe

import "errors"

var (
	ErrDuplicateTimestamp     = errors.New("keyframe already exists at timestamp")
	ErrBoundaryPointProtected = errors.New("boundary keyframe cannot be removed or retimed")
	ErrOutOfRange             = errors.New("timestamp outside curve bounds")
	ErrInvalidRange           = errors.New("end time must be after start time")
	ErrPointNotFound          = errors.New("no keyframe at timestamp")
	ErrNoMembers              = errors.New("multi curve needs at least one member")
)
