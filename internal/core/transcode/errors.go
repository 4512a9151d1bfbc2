// SPDX-License-Identifier: Apache-2.0

package transcode

import (
	"errors"
	"fmt"
)

// ErrNotMapping is returned (wrapped in a FormatError) when the document's
// top level is empty, a scalar or a sequence.
var ErrNotMapping = errors.New("top level is not a mapping")

// FormatError reports text that cannot be decoded into a template.
type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err == nil {
		return "invalid template: " + e.Reason
	}
	return fmt.Sprintf("invalid template: %s: %v", e.Reason, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// IsFormatError reports whether err is or wraps a FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}
