package usage

import "errors"

var (
	ErrMissingUsage      = errors.New("signals: missing signal usage")
	ErrDeniedUsage       = errors.New("signals: denied signal usage")
	ErrCircularUsage     = errors.New("signals: circular signal usage")
	ErrNoTrackingContext = errors.New("signals: usage registered outside of a tracking context")
	ErrDetectorClosed    = errors.New("signals: usage registered after dependencies were collected")
)

// MissingUsageError is returned when a computation that must read at least one signal
// value didn't read any.
type MissingUsageError struct {
	Reason string
}

func (e *MissingUsageError) Error() string {
	return "Expected at least one signal value read. " + e.Reason
}

func (e *MissingUsageError) Is(target error) bool {
	return target == ErrMissingUsage
}

// DeniedUsageError is raised when a signal value is read where reading is denied.
type DeniedUsageError struct {
	Message string
}

func (e *DeniedUsageError) Error() string {
	return "Using signals is denied in this context. " + e.Message
}

func (e *DeniedUsageError) Is(target error) bool {
	return target == ErrDeniedUsage
}

// CircularUsageError is returned when a computation changed a value it depends on.
// Re-running it on that change would loop forever.
type CircularUsageError struct {
	Message string
}

func (e *CircularUsageError) Error() string {
	if e.Message != "" {
		return "Infinite loop detected. " + e.Message
	}
	return "Infinite loop detected: a value was changed by the computation that depends on it."
}

func (e *CircularUsageError) Is(target error) bool {
	return target == ErrCircularUsage
}
