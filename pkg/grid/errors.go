package grid

import "errors"

var (
	// ErrStridePolicy is returned when more than one of strides, overlap
	// and overlap factor is configured for a regular grid.
	ErrStridePolicy = errors.New("grid: strides, overlap and overlap factor are mutually exclusive")

	// ErrUnknownMode is returned when an extension grid is asked for a
	// mode it does not implement.
	ErrUnknownMode = errors.New("grid: unknown extension mode")

	// ErrExhausted is returned by NextBatch once every location has been
	// consumed. Iteration does not restart.
	ErrExhausted = errors.New("grid: iterator exhausted")

	// ErrOrientation is returned when chunking is requested along an
	// axis the grid cannot resolve.
	ErrOrientation = errors.New("grid: cannot resolve chunking axis")
)
