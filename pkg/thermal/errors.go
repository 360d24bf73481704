package thermal

import (
	"errors"
	"fmt"
)

// Sentinels matched by the typed errors below, so callers can use either
// errors.Is or errors.As.
var (
	ErrInvalidDimension = errors.New("invalid frame dimension")
	ErrShape            = errors.New("frame shape mismatch")
)

// InvalidDimensionError reports a non-positive frame width or height.
type InvalidDimensionError struct {
	Width  int
	Height int
}

func (e *InvalidDimensionError) Error() string {
	return fmt.Sprintf("invalid frame dimensions %dx%d: width and height must be positive", e.Width, e.Height)
}

func (e *InvalidDimensionError) Is(target error) bool {
	return target == ErrInvalidDimension
}

// ShapeError reports a sample buffer whose length does not match width*height.
type ShapeError struct {
	Width    int
	Height   int
	Expected int
	Actual   int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("frame %dx%d needs %d samples, got %d", e.Width, e.Height, e.Expected, e.Actual)
}

func (e *ShapeError) Is(target error) bool {
	return target == ErrShape
}
