package service

import "errors"

var (
	ErrInputValidation   = errors.New("input validation failed")
	ErrLawnNotFound      = errors.New("lawn not found")
	ErrRunNotFound       = errors.New("lawn engine run not found")
	ErrJobNotFound       = errors.New("engine job not found")
	ErrParameterNotFound = errors.New("internal parameter not found")
	ErrParcelNotFound    = errors.New("parcel not found")
	// ErrDataUnavailable marks an outbound provider that timed out, failed or is tripped open.
	ErrDataUnavailable = errors.New("data unavailable")
	ErrPersistence     = errors.New("persistence failed")
)
