package radio

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/physic"
)

var (
	// ErrInvalidParameter is returned when a value outside of its documented
	// set is passed to a setter, the codec or the frequency converter.
	ErrInvalidParameter = errors.New("tea5767: invalid parameter")

	// ErrMissingCapability is returned by Init when a required capability
	// (transport or delay) was not provided.
	ErrMissingCapability = errors.New("tea5767: missing capability")

	// ErrNotInitialized is returned by every accessor invoked before Init
	// or after Deinit.
	ErrNotInitialized = errors.New("tea5767: handle is not initialized")

	// ErrTransport matches any *TransportError.
	ErrTransport = errors.New("tea5767: transport failure")

	// ErrSearchTimeout is returned when the chip did not report ready
	// within the configured number of polls.
	ErrSearchTimeout = errors.New("tea5767: search timed out")

	// ErrFrequencyOutOfRange matches any *FrequencyRangeError.
	ErrFrequencyOutOfRange = errors.New("tea5767: frequency out of band range")

	// ErrBandLimitReached reports that a search hit the band edge without
	// finding a station. It is an outcome, not a bus failure: the status
	// read alongside it is valid.
	ErrBandLimitReached = errors.New("tea5767: band limit reached")
)

// CapabilityError names the capability Init found missing.
type CapabilityError struct {
	Name string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("tea5767: %s is nil", e.Name)
}

func (e *CapabilityError) Unwrap() error {
	return ErrMissingCapability
}

// TransportError wraps the error returned by the Transport unchanged.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("tea5767: %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrTransport) match while Unwrap keeps the
// wrapped error reachable.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// FrequencyRangeError is returned when a frequency lies outside the
// selected band.
type FrequencyRangeError struct {
	Frequency physic.Frequency
	Band      Band
	Min, Max  physic.Frequency
}

func (e *FrequencyRangeError) Error() string {
	return fmt.Sprintf("tea5767: frequency %s not in %s band bounds %s ... %s",
		e.Frequency, e.Band, e.Min, e.Max)
}

// Is matches both ErrFrequencyOutOfRange and ErrInvalidParameter.
func (e *FrequencyRangeError) Is(target error) bool {
	return target == ErrFrequencyOutOfRange || target == ErrInvalidParameter
}

func invalidParameter(format string, v ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidParameter}, v...)...)
}
