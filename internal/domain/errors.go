package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput indicates blank text or text that produced no chunks.
	ErrEmptyInput = errors.New("empty input")

	// ErrNoDocumentsIndexed indicates every chunk failed to embed.
	ErrNoDocumentsIndexed = errors.New("no documents indexed")

	// ErrCollectionNotTrained indicates the collection has no documents.
	ErrCollectionNotTrained = errors.New("collection not trained")

	// ErrDimensionMismatch indicates vectors of different lengths were compared or loaded.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrSerialization indicates a persisted collection could not be read or written.
	ErrSerialization = errors.New("serialization error")

	ErrInvalidDimension = errors.New("invalid dimension")

	ErrInvalidCollectionID = errors.New("invalid collection id")

	// ErrTextTooShort indicates training input below the configured minimum length.
	ErrTextTooShort = errors.New("not enough text to train on")
)

// DimensionMismatchError carries the two disagreeing lengths.
type DimensionMismatchError struct {
	Expected int
	Got      int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}

func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}
