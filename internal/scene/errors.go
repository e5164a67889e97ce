package scene

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedVersion is returned for documents outside glTF 2.x.
	ErrUnsupportedVersion = errors.New("scene: unsupported glTF version")

	// ErrDetachedBuffer is returned when a buffer other than the first has
	// data but no URI, which a binary container cannot hold.
	ErrDetachedBuffer = errors.New("scene: buffer has no storage in binary container")
)

// DecodeError reports a malformed binary document.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("scene: decode: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// MergeError reports a document that cannot be imported into another.
type MergeError struct {
	Reason string
	Err    error
}

func (e *MergeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("scene: merge: %s: %v", e.Reason, e.Err)
	}
	return "scene: merge: " + e.Reason
}

func (e *MergeError) Unwrap() error { return e.Err }
