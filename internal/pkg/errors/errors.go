package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalid        = errors.New("invalid")
	ErrTooMany        = errors.New("too many requests")
	ErrInternal       = errors.New("internal")
	ErrInitialization = errors.New("initialization failed")
	ErrDataFormat     = errors.New("data format error")
	ErrValidation     = errors.New("validation failed")
)

// Initialization marks a fatal model or artifact load failure for the named stage.
func Initialization(stage string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrInitialization, stage)
	}
	return fmt.Errorf("%w: %s: %w", ErrInitialization, stage, err)
}

func DataFormat(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrDataFormat, fmt.Sprintf(format, args...))
}

func Validation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInitialization(err error) bool {
	return errors.Is(err, ErrInitialization)
}

func IsDataFormat(err error) bool {
	return errors.Is(err, ErrDataFormat)
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
