package webodb

import (
	"github.com/warpfork/go-errcat"
)

/*
	Every error raised by webodb is an errcat error with one of these categories.

	Each category is paired with the exit code the CLI uses when a command
	fails with that category, so that callers driving `webodb` as a subprocess
	can react without parsing messages.
*/
type ErrorCategory string
type ExitCode int

const (
	ExitSuccess                                 = ExitCode(0)
	ExitUsage, ErrUsage                         = ExitCode(1), ErrorCategory("webodb-usage-error")        // Some piece of user input to a command was invalid and unrunnable.
	ExitPanic                                   = ExitCode(2)                                             // Placeholder.  '2' happens when golang exits due to panic.
	ExitStoreUnavailable, ErrStoreUnavailable   = ExitCode(3), ErrorCategory("webodb-store-unavailable")  // The object store could not be opened at all.
	ExitNotFound, ErrNotFound                   = ExitCode(5), ErrorCategory("webodb-object-not-found")   // Object 404 -- the store is fine, but has no object with the requested id.
	ExitStoreCorrupt, ErrStoreCorrupt           = ExitCode(6), ErrorCategory("webodb-store-corrupt")      // An object exists but could not be read or decoded.
	ExitTypeMismatch, ErrTypeMismatch           = ExitCode(7), ErrorCategory("webodb-type-mismatch")      // An object exists but is not the kind (commit/tree/blob) the query step requires.
	ExitUnsupportedObject, ErrUnsupportedObject = ExitCode(8), ErrorCategory("webodb-unsupported-object") // An object is of a kind outside the object model (e.g. annotated tags).
	ExitCancelled, ErrCancelled                 = ExitCode(9), ErrorCategory("webodb-cancelled")          // The operation timed out or was cancelled.
	ExitRPCBreakdown, ErrRPCBreakdown           = ExitCode(120), ErrorCategory("webodb-rpc-breakdown")    // Raised when running a remote webodb process and the control channel is lost, the process fails to start, or unrecognized messages are received.
	ExitUnknown                                 = ExitCode(254)                                           // The error carried no category we know.
)

var exitCodes = map[ErrorCategory]ExitCode{
	ErrUsage:             ExitUsage,
	ErrStoreUnavailable:  ExitStoreUnavailable,
	ErrNotFound:          ExitNotFound,
	ErrStoreCorrupt:      ExitStoreCorrupt,
	ErrTypeMismatch:      ExitTypeMismatch,
	ErrUnsupportedObject: ExitUnsupportedObject,
	ErrCancelled:         ExitCancelled,
	ErrRPCBreakdown:      ExitRPCBreakdown,
}

/*
	Returns the exit code matching the category of the given error.

	A nil error is success; an error without a webodb category is ExitUnknown.
*/
func ExitCodeFor(err error) ExitCode {
	if err == nil {
		return ExitSuccess
	}
	cat, ok := errcat.Category(err).(ErrorCategory)
	if !ok {
		return ExitUnknown
	}
	if code, ok := exitCodes[cat]; ok {
		return code
	}
	return ExitUnknown
}

/*
	The inverse of ExitCodeFor: the category a webodb process's exit code stands for.

	Success maps to the empty category; codes we don't know map to ErrRPCBreakdown.
*/
func CategoryForExitCode(code ExitCode) ErrorCategory {
	if code == ExitSuccess {
		return ""
	}
	for cat, c := range exitCodes {
		if c == code {
			return cat
		}
	}
	return ErrRPCBreakdown
}
