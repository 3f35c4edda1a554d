// Package status carries the outcome taxonomy used by every public method
// of this client: Ok, NotFound, InvalidArgument, IoError, Corruption, and
// Incomplete.
package status

import "fmt"

// Code identifies the kind of outcome a Status represents.
type Code int

const (
	Ok Code = iota
	NotFound
	InvalidArgument
	IoError
	Corruption
	Incomplete
)

func (c Code) String() string {
	switch c {
	case Ok:
		return "Ok"
	case NotFound:
		return "NotFound"
	case InvalidArgument:
		return "InvalidArgument"
	case IoError:
		return "IoError"
	case Corruption:
		return "Corruption"
	case Incomplete:
		return "Incomplete"
	default:
		return "Unknown"
	}
}

// Status is a tagged outcome. It implements error so callers may treat it
// as a normal Go error, or switch on Code() to recover the taxonomy.
type Status struct {
	code Code
	msg  string
}

// OK returns the Ok status.
func OK() Status { return Status{code: Ok} }

// NewNotFound builds a NotFound status with the given message.
func NewNotFound(msg string) Status { return Status{code: NotFound, msg: msg} }

// NewInvalidArgument builds an InvalidArgument status with the given message.
func NewInvalidArgument(msg string) Status { return Status{code: InvalidArgument, msg: msg} }

// NewIoError builds an IoError status with the given message.
func NewIoError(msg string) Status { return Status{code: IoError, msg: msg} }

// NewCorruption builds a Corruption status with the given message.
func NewCorruption(msg string) Status { return Status{code: Corruption, msg: msg} }

// NewIncomplete builds an Incomplete status with the given message.
func NewIncomplete(msg string) Status { return Status{code: Incomplete, msg: msg} }

// Code returns the status's tag.
func (s Status) Code() Code { return s.code }

// Message returns the status's free-form detail, if any.
func (s Status) Message() string { return s.msg }

// Ok reports whether the status represents success.
func (s Status) Ok() bool { return s.code == Ok }

// IsNotFound reports whether the status is NotFound.
func (s Status) IsNotFound() bool { return s.code == NotFound }

// IsIoError reports whether the status is IoError.
func (s Status) IsIoError() bool { return s.code == IoError }

// IsCorruption reports whether the status is Corruption.
func (s Status) IsCorruption() bool { return s.code == Corruption }

// Error implements the error interface. A successful Status should never
// be surfaced as an error, but Error() is still well defined on it.
func (s Status) Error() string {
	if s.msg == "" {
		return s.code.String()
	}
	return fmt.Sprintf("%s: %s", s.code, s.msg)
}

// FromError converts a Go error into a Status. Errors already carrying a
// Status (possibly wrapped) keep their code; anything else is reported as
// IoError, the code used for transport and connectivity failures.
func FromError(err error) Status {
	if err == nil {
		return OK()
	}
	var s Status
	if asStatus(err, &s) {
		return s
	}
	return NewIoError(err.Error())
}

// asStatus walks the error chain looking for a Status, the way errors.As
// would, without importing the full errors package here.
func asStatus(err error, target *Status) bool {
	type unwrapper interface{ Unwrap() error }
	for err != nil {
		if s, ok := err.(Status); ok {
			*target = s
			return true
		}
		u, ok := err.(unwrapper)
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
