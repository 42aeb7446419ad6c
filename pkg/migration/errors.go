package migration

import (
	"errors"
	"fmt"
)

// ErrImportTimeout is returned when an issue import stays pending beyond the poll budget.
var ErrImportTimeout = errors.New("issue import did not finish")

// FatalError aborts the whole run.
type FatalError struct {
	Op  string
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err must stop the run.
func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}
