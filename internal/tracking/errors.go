package tracking

import "errors"

var (
	// ErrInsufficientSamples is returned when a track has too few samples to
	// interpolate (fewer than two).
	ErrInsufficientSamples = errors.New("insufficient samples")

	// ErrMixedEntities is returned when a track is built from samples of
	// more than one entity.
	ErrMixedEntities = errors.New("samples belong to more than one entity")

	// ErrEmptyEntityID is returned when a track is built without an entity id.
	ErrEmptyEntityID = errors.New("empty entity id")

	// ErrBallInRoster is returned when ball samples are added to a team roster.
	ErrBallInRoster = errors.New("ball samples cannot be part of a roster")
)
