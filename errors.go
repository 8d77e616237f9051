package signals

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/AnatoleLucet/signals/internal/computed"
	"github.com/AnatoleLucet/signals/internal/usage"
)

var (
	ErrMissingUsage      = usage.ErrMissingUsage
	ErrDeniedUsage       = usage.ErrDeniedUsage
	ErrCircularUsage     = usage.ErrCircularUsage
	ErrNoTrackingContext = usage.ErrNoTrackingContext
	ErrDetectorClosed    = usage.ErrDetectorClosed

	ErrUnsupported     = errors.New("signals: operation not supported")
	ErrUnexpectedValue = errors.New("signals: unexpected value")
	ErrReadNotAllowed  = errors.New("signals: value read outside of a tracked or untracked block")
	ErrStoreType       = errors.New("signals: stored value has another type")
)

type (
	MissingUsageError  = usage.MissingUsageError
	DeniedUsageError   = usage.DeniedUsageError
	CircularUsageError = usage.CircularUsageError
	PanicError         = computed.PanicError
)

// StoreTypeError is returned by StoreValue when the name already holds a value of
// another type.
type StoreTypeError struct {
	Name string
	Want reflect.Type
	Got  reflect.Type
}

func (e *StoreTypeError) Error() string {
	return fmt.Sprintf("signals: %q holds a %s, not a %s", e.Name, e.Got, e.Want)
}

func (e *StoreTypeError) Is(target error) bool {
	return target == ErrStoreType
}
