package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrDenseLength is returned when a dense group value does not match the
	// length fixed by the first record of that group.
	ErrDenseLength = errors.New("dense group length mismatch")

	// ErrIDOutOfRange is returned when a local id is not below its group size.
	ErrIDOutOfRange = errors.New("local id out of range")

	// ErrGroupCount is returned when a record does not carry one value per schema group.
	ErrGroupCount = errors.New("record group count does not match schema")

	// ErrGroupCardinality is returned when an index build requires exactly one
	// entry of a group per record and a record violates it.
	ErrGroupCardinality = errors.New("group must occur exactly once per record")

	// ErrSchemaFinalized is returned when a vocabulary grows after finalization.
	ErrSchemaFinalized = errors.New("schema is finalized")

	// ErrUnknownKind is returned when parsing an unrecognized group kind.
	ErrUnknownKind = errors.New("unknown feature group kind")

	// ErrInvalidGroup is returned when a group index is outside the schema.
	ErrInvalidGroup = errors.New("invalid group index")

	// ErrInvalidRatio is returned for split ratios outside [0, 1).
	ErrInvalidRatio = errors.New("ratio must be in [0, 1)")
)

// DenseLengthError reports a dense length mismatch for one group.
//
// It unwraps to ErrDenseLength.
type DenseLengthError struct {
	Group    int
	Expected int
	Actual   int
}

func (e *DenseLengthError) Error() string {
	return fmt.Sprintf("dense group %d: expected length %d, got %d", e.Group, e.Expected, e.Actual)
}

func (e *DenseLengthError) Unwrap() error { return ErrDenseLength }

// CardinalityError reports the first record violating the exactly-once rule.
//
// It unwraps to ErrGroupCardinality.
type CardinalityError struct {
	Group    int
	Position int
	Count    int
}

func (e *CardinalityError) Error() string {
	return fmt.Sprintf("group %d occurs %d times in record %d", e.Group, e.Count, e.Position)
}

func (e *CardinalityError) Unwrap() error { return ErrGroupCardinality }
