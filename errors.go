package pt2itp

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrOrderingViolation is returned when a post stage runs after address properties have already been materialized
var ErrOrderingViolation = errors.New("dedupe must be run before props post script")

// InputShapeError describes structurally inconsistent input
type InputShapeError struct {
	FeatureID int64
	Reason    string
}

func (e *InputShapeError) Error() string {
	return fmt.Sprintf("Inconsistent input for feature %d: %s", e.FeatureID, e.Reason)
}

func newInputShapeError(featureID int64, format string, args ...interface{}) error {
	return &InputShapeError{
		FeatureID: featureID,
		Reason:    fmt.Sprintf(format, args...),
	}
}

// IsInputShapeError reports whether err (or anything it wraps) is an InputShapeError
func IsInputShapeError(err error) bool {
	var shapeErr *InputShapeError
	return errors.As(err, &shapeErr)
}
