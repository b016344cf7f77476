package classify

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrModelNotFound means the artifact for a model is absent on disk.
	ErrModelNotFound = errors.New("model file not found")
	// ErrModelFormat means an artifact decoded to neither a predictor nor a known container.
	ErrModelFormat = errors.New("unrecognized model format")
	// ErrInvalidInput covers unknown names and non-numeric or missing fields.
	ErrInvalidInput = errors.New("invalid input")
	// ErrPrediction means the predictor failed during inference.
	ErrPrediction = errors.New("prediction failed")
)

// InputError is an ErrInvalidInput naming the offending fields, if any.
type InputError struct {
	Fields  []string
	Message string
}

func (e *InputError) Error() string { return e.Message }

func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }

func invalidFields(prefix string, fields []string) *InputError {
	return &InputError{
		Fields:  fields,
		Message: prefix + ": " + strings.Join(fields, ", "),
	}
}

func invalidInput(format string, args ...any) *InputError {
	return &InputError{Message: fmt.Sprintf(format, args...)}
}

// PredictionError wraps a failure raised by a predictor during inference.
type PredictionError struct {
	Model string
	Err   error
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Model, e.Err)
}

func (e *PredictionError) Unwrap() error { return e.Err }

func (e *PredictionError) Is(target error) bool { return target == ErrPrediction }
