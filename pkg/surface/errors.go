package surface

import "errors"

var (
	// ErrUnknownFormat is returned when a surface is constructed from a
	// storage container the package does not recognize.
	ErrUnknownFormat = errors.New("surface: unknown storage format")

	// ErrUnknownAttribute is returned when an attribute kind has no
	// registered handler.
	ErrUnknownAttribute = errors.New("surface: unknown attribute kind")

	// ErrDepthConflict is returned when two surfaces disagree on the depth
	// of a shared trace during subtraction.
	ErrDepthConflict = errors.New("surface: depth conflict on shared traces")

	// ErrVolumeMismatch is returned when an operation combines surfaces
	// bound to volumes of different extents.
	ErrVolumeMismatch = errors.New("surface: volume shapes differ")
)
