package core

import (
	"errors"
)

var (
	ErrSessionNotReady  = errors.New("tracking session not created")
	ErrFrameUpdate      = errors.New("tracking service failed to produce a frame")
	ErrMalformedPolygon = errors.New("plane polygon has an odd number of coordinates")
	ErrClearDisabled    = errors.New("clearing a placement is disabled")
	ErrQueueFull        = errors.New("queue is full")
	ErrQueueEmpty       = errors.New("queue is empty")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrUnknown          = errors.New("unknown")
)
