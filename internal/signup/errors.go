// File: internal/signup/errors.go
package signup

import (
	"errors"
	"fmt"
)

var (
	// ErrPollTimeout means the group page never offered a way into the invitation.
	ErrPollTimeout = errors.New("timed out waiting for the orange 'View' button")
	// ErrNoRows means the invitation page showed no assignment rows.
	ErrNoRows = errors.New("no assignment rows found")
	// ErrNothingAvailable means no preference and no other row could be signed up for.
	ErrNothingAvailable = errors.New("none of your preferences are available right now")
	// ErrCancelled means the operator declined to pick a fallback row.
	ErrCancelled = errors.New("cancelled by user")
	// ErrAborted means the operator declined to save the participant form.
	ErrAborted = errors.New("aborted before save")
)

// StepError reports a required control that could not be found. The screenshot
// named Label was taken before the error was returned.
type StepError struct {
	Step  string
	Label string
	Msg   string
	Err   error
}

func (e *StepError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
