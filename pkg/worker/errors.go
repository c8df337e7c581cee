package worker

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrDuplicateName is returned when a name is already tracked
	ErrDuplicateName = errors.New("worker already exists")

	// ErrUnknownWorker is returned for operations on a name that is not tracked
	ErrUnknownWorker = errors.New("worker not found")

	// ErrJoinFailure is wrapped by every *JoinError
	ErrJoinFailure = errors.New("worker terminated abnormally")

	// ErrEmptyName is returned when registering a worker without a name
	ErrEmptyName = errors.New("worker name cannot be empty")

	// ErrGoexit is the cause in a *JoinError for a body that called runtime.Goexit
	ErrGoexit = errors.New("worker exited via runtime.Goexit")
)

// JoinError reports a worker whose body panicked or called runtime.Goexit.
// errors.Is(err, ErrJoinFailure) holds, and errors.As reaches the
// *failfast.PanicError carrying the panic value and stack.
type JoinError struct {
	Worker string
	ID     uuid.UUID
	Err    error
}

func (e *JoinError) Error() string {
	if e.Worker == "" {
		return fmt.Sprintf("worker %s failed: %v", e.ID, e.Err)
	}
	return fmt.Sprintf("worker %q failed: %v", e.Worker, e.Err)
}

func (e *JoinError) Unwrap() []error {
	return []error{ErrJoinFailure, e.Err}
}
