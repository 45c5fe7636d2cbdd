package retry

import (
	"errors"
	"fmt"
	"strings"
)

// MultiError every failed attempt, oldest first
type MultiError struct {
	Errors   []error
	Attempts int
}

// Error reports the last failure
func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "retry failed: no errors"
	}
	return fmt.Sprintf("after %d attempts: %v", e.Attempts, e.Errors[len(e.Errors)-1])
}

func (e *MultiError) Unwrap() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e.Errors[len(e.Errors)-1]
}

// AllErrors one line per attempt
func (e *MultiError) AllErrors() string {
	var b strings.Builder
	fmt.Fprintf(&b, "retry failed after %d attempts:", e.Attempts)
	for i, err := range e.Errors {
		fmt.Fprintf(&b, "\n  attempt %d: %v", i+1, err)
	}
	return b.String()
}

// Attempts extracts the attempt count from a Do error, 0 when err did not come from Do
func Attempts(err error) int {
	var me *MultiError
	if errors.As(err, &me) {
		return me.Attempts
	}
	return 0
}
