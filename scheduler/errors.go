package scheduler

import "fmt"

// NotFoundError is returned by DeleteStream when the given id is not
// a currently active stream.
type NotFoundError struct {
	ID uint64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("scheduler: stream %d not found", e.ID)
}
