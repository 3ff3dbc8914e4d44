package models

import (
	"errors"
	"fmt"
)

// ErrorCode classifies the recoverable failures of the core. Every public
// entry point returns one of these instead of propagating a panic, so the
// API layer can always render a user-facing message.
type ErrorCode string

const (
	ErrCodeInsufficientHistory ErrorCode = "INSUFFICIENT_HISTORY"
	ErrCodeArtifactsMissing    ErrorCode = "ARTIFACTS_MISSING"
	ErrCodeFeatureEngineering  ErrorCode = "FEATURE_ENGINEERING_FAILURE"
	ErrCodeScaling             ErrorCode = "SCALING_FAILURE"
	ErrCodeValidationData      ErrorCode = "VALIDATION_DATA_INSUFFICIENT"
)

// CoreError is the structured error value returned across the core's public
// boundaries.
type CoreError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *CoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CoreError) Unwrap() error { return e.Err }

// CodeOf extracts the error code, or empty when err is not a CoreError.
func CodeOf(err error) ErrorCode {
	var ce *CoreError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

func InsufficientHistory(format string, a ...interface{}) *CoreError {
	return &CoreError{Code: ErrCodeInsufficientHistory, Message: fmt.Sprintf(format, a...)}
}

func ArtifactsMissing(msg string) *CoreError {
	return &CoreError{Code: ErrCodeArtifactsMissing, Message: msg}
}

func FeatureEngineeringFailure(msg string, err error) *CoreError {
	return &CoreError{Code: ErrCodeFeatureEngineering, Message: msg, Err: err}
}

func ScalingFailure(msg string, err error) *CoreError {
	return &CoreError{Code: ErrCodeScaling, Message: msg, Err: err}
}

func ValidationDataInsufficient(format string, a ...interface{}) *CoreError {
	return &CoreError{Code: ErrCodeValidationData, Message: fmt.Sprintf(format, a...)}
}
