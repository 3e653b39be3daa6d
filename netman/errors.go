package netman

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNoWifiInterface is returned by interface selection when the enumeration
// succeeded but contained no wifi-kind interface.
var ErrNoWifiInterface = errors.New("no wifi interface found")

// ToolUnavailableError indicates the underlying configuration tool is not
// installed or not on PATH. This is an environment defect, not a transient
// failure; retrying cannot help.
type ToolUnavailableError struct {
	Tool string
}

func (e *ToolUnavailableError) Error() string {
	return fmt.Sprintf("%s not found", e.Tool)
}

// TimeoutError indicates an operation ran out of its time budget and was
// killed.
type TimeoutError struct {
	Op string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout: %s", e.Op)
}

// IsToolUnavailable reports whether err (or its cause) is a ToolUnavailableError.
func IsToolUnavailable(err error) bool {
	_, ok := errors.Cause(err).(*ToolUnavailableError)
	return ok
}

// IsTimeout reports whether err (or its cause) is a TimeoutError.
func IsTimeout(err error) bool {
	_, ok := errors.Cause(err).(*TimeoutError)
	return ok
}
