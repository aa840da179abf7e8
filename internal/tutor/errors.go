package tutor

import "errors"

var (
	// ErrNoSession is returned when an action needs a bound session.
	ErrNoSession = errors.New("no active session")
	// ErrEmptyInput is returned for blank messages or code.
	ErrEmptyInput = errors.New("input is empty")
	// ErrInvalidURL is returned for URLs that are not Codeforces problem pages.
	ErrInvalidURL = errors.New("not a valid Codeforces URL")
	// ErrHintsDisabled is returned once hints are exhausted or the solution is revealed.
	ErrHintsDisabled = errors.New("no more hints available")
	// ErrDeclined is returned when the user declines to reveal the solution.
	ErrDeclined = errors.New("solution request declined")
	// ErrStopped is the cause attached to a stream the user stopped.
	ErrStopped = errors.New("response stopped")
	// ErrTimeout is the cause attached to a call that exceeded the client timeout.
	ErrTimeout = errors.New("request timed out")
	// ErrNoProblem is returned when the active conversation has no problem bound.
	ErrNoProblem = errors.New("no problem data available")
)
