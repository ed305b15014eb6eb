package tzif

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrTruncated is returned when the input ends before a section that the
	// header promised is complete.
	ErrTruncated = errors.New("truncated input")

	ErrBadMagic           = errors.New("bad magic")
	ErrUnsupportedVersion = errors.New("unsupported version")

	// ErrMalformedAbbreviation is returned for designation indexes outside
	// the pool, designations without a terminating NUL and designations
	// that are not valid text.
	ErrMalformedAbbreviation = errors.New("malformed abbreviation")

	// ErrMalformed is returned when a structurally complete file violates
	// the consistency requirements of RFC8536.
	ErrMalformed = errors.New("malformed data")

	// ErrMalformedFooter is returned when the footer is not framed by
	// newlines or when a non-empty TZ string cannot be used.
	ErrMalformedFooter = errors.New("malformed footer")
)

// FormatError records the section of a TZif file that failed to decode.
type FormatError struct {
	Section string
	Err     error
}

func (e *FormatError) Error() string {
	return "tzif: " + e.Section + ": " + e.Err.Error()
}

func (e *FormatError) Unwrap() error { return e.Err }

// newFormatError wraps err for section, folding premature end of input
// into ErrTruncated.
func newFormatError(section string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		err = fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return &FormatError{Section: section, Err: err}
}

// EncodingError is returned when a string taken from zone data, or a zone
// name, is not valid text.
type EncodingError struct {
	Field string
	Value string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("%s %q is not valid text", e.Field, e.Value)
}

// Is makes abbreviation encoding errors match ErrMalformedAbbreviation.
func (e *EncodingError) Is(target error) bool {
	return target == ErrMalformedAbbreviation && e.Field == "abbreviation"
}
