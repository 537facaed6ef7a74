package scan

import (
	"errors"
	"fmt"
)

// ErrorKind separates read failures from content failures so that callers can
// pick a fail-fast or keep-going policy.
type ErrorKind int

const (
	IOError ErrorKind = iota + 1
	DecodeError
)

func (k ErrorKind) String() string {
	switch k {
	case IOError:
		return "io"
	case DecodeError:
		return "decode"
	default:
		return "unknown"
	}
}

var ErrDecode = errors.New("not valid UTF-8 text")

type Error struct {
	Kind ErrorKind
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error in %s: %v", e.Kind, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// CollisionError reports two compilation units sharing a stem. Object files and
// header pairing are keyed by stem, so the tree cannot be resolved unambiguously.
type CollisionError struct {
	Stem  string
	Paths [2]string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("compilation units %s and %s share the name %q", e.Paths[0], e.Paths[1], e.Stem)
}
