package insight

import (
	"errors"
	"fmt"
)

var (
	// ErrNoData means the window holds no records. It is an expected outcome,
	// not a failure: callers should show an "awaiting data" state.
	ErrNoData = errors.New("not enough data to generate insights")

	// ErrInvalidLookback rejects non-positive lookback windows.
	ErrInvalidLookback = errors.New("lookback days must be positive")

	// ErrInsufficientSample is reported when the window is too small for any
	// correlation estimate. Only the correlation output is affected.
	ErrInsufficientSample = errors.New("insufficient sample for correlation")

	// ErrTooFewOccurrences marks an activity seen in too few records to correlate.
	ErrTooFewOccurrences = errors.New("activity has too few occurrences")

	// ErrDegenerate marks a correlation that is undefined, e.g. zero variance.
	ErrDegenerate = errors.New("correlation is numerically undefined")

	// ErrGenerationFailed matches every *GenerationError.
	ErrGenerationFailed = errors.New("insight generation failed")
)

// GenerationError aborts a whole insight run. No partial snapshot accompanies it.
type GenerationError struct {
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("insight generation failed during %s: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrGenerationFailed) match any stage.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}
