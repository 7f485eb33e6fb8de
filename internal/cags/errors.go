package cags

import (
	"fmt"
	"strings"
)

// MissingAttributeError reports that the dequantized set lacks a required
// buffer, or that the buffer is the wrong length for the point count.
type MissingAttributeError struct {
	Names []string // accepted names, canonical first
	Got   int      // buffer length found, -1 when absent
	Want  int
}

func (e *MissingAttributeError) Error() string {
	names := strings.Join(e.Names, " or ")
	if e.Got < 0 {
		return fmt.Sprintf("dequantized attributes: missing %s data", names)
	}
	return fmt.Sprintf("dequantized attributes: %s has %d values, want %d", names, e.Got, e.Want)
}

// DecodeError wraps a failure reported by the DecodeEngine. Stage names the
// engine call; Resource is set for payload registration failures.
type DecodeError struct {
	Stage    string
	Resource *Resource
	Err      error
}

func (e *DecodeError) Error() string {
	if e.Resource != nil {
		return fmt.Sprintf("decode %s (%s): %v", e.Stage, e.Resource.URL, e.Err)
	}
	return fmt.Sprintf("decode %s: %v", e.Stage, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
