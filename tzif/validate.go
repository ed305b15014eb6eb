package tzif

import (
	"errors"
	"fmt"
)

// Validate checks the consistency requirements of RFC8536 that decoding
// alone does not enforce. The returned error wraps ErrMalformed and joins
// every violation found.
func Validate(d Data) error {
	var errs []error
	if d.Version != d.V1Header.Version || (d.Version > V1 && d.V1Header.Version != d.V2Header.Version) {
		errs = append(errs, fmt.Errorf("inconsistent version: file = %v, v1 header = %v, v2 header = %v", d.Version, d.V1Header.Version, d.V2Header.Version))
	}

	errs = append(errs, validateBlock("v1", d.V1Header, d.V1Data)...)
	if d.Version > V1 {
		errs = append(errs, validateBlock("v2", d.V2Header, d.V2Data)...)
	}

	return malformed(errs)
}

// ValidateBlock checks a single header and its data block. Readers that
// only use the authoritative block of a file validate just that block.
func ValidateBlock(h Header, b DataBlock) error {
	return malformed(validateBlock("data", h, b))
}

func malformed(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return &FormatError{Section: "validate", Err: fmt.Errorf("%w: %w", ErrMalformed, errors.Join(errs...))}
}

func validateBlock(name string, header Header, data DataBlock) []error {
	var err []error

	// Isutcnt
	if header.Isutcnt != 0 && header.Isutcnt != header.Typecnt {
		err = append(err, fmt.Errorf("invalid %s isutcnt (%d): must be 0 or equal to typecnt (%d)", name, header.Isutcnt, header.Typecnt))
	}
	if len(data.UTLocalIndicators) != int(header.Isutcnt) {
		err = append(err, fmt.Errorf("invalid %s isutcnt: header = %d, data = %d", name, header.Isutcnt, len(data.UTLocalIndicators)))
	}

	// Isstdcnt
	if header.Isstdcnt != 0 && header.Isstdcnt != header.Typecnt {
		err = append(err, fmt.Errorf("invalid %s isstdcnt (%d): must be 0 or equal to typecnt (%d)", name, header.Isstdcnt, header.Typecnt))
	}
	if len(data.StandardWallIndicators) != int(header.Isstdcnt) {
		err = append(err, fmt.Errorf("invalid %s isstdcnt: header = %d, data = %d", name, header.Isstdcnt, len(data.StandardWallIndicators)))
	}
	for i, ut := range data.UTLocalIndicators {
		if ut && (i >= len(data.StandardWallIndicators) || !data.StandardWallIndicators[i]) {
			err = append(err, fmt.Errorf("invalid %s indicators for type %d: UT without standard time", name, i))
		}
	}

	// Leapcnt
	if len(data.LeapSecondRecords) != int(header.Leapcnt) {
		err = append(err, fmt.Errorf("invalid %s leapcnt: header = %d, data = %d", name, header.Leapcnt, len(data.LeapSecondRecords)))
	}
	for i := 1; i < len(data.LeapSecondRecords); i++ {
		if data.LeapSecondRecords[i].Occur <= data.LeapSecondRecords[i-1].Occur {
			err = append(err, fmt.Errorf("invalid %s leap second record %d: occurrences not ascending", name, i))
		}
	}

	// Timecnt
	if len(data.TransitionTimes) != int(header.Timecnt) {
		err = append(err, fmt.Errorf("invalid %s timecnt: header = %d, transition times = %d", name, header.Timecnt, len(data.TransitionTimes)))
	}
	if times, types := len(data.TransitionTimes), len(data.TransitionTypes); times != types {
		err = append(err, fmt.Errorf("inconsistent %s transitions: transition times = %d, transition types = %d", name, times, types))
	}
	for i := 1; i < len(data.TransitionTimes); i++ {
		if data.TransitionTimes[i] <= data.TransitionTimes[i-1] {
			err = append(err, fmt.Errorf("invalid %s transition %d: times not ascending", name, i))
		}
	}
	for i, typ := range data.TransitionTypes {
		if int(typ) >= len(data.LocalTimeTypeRecords) {
			err = append(err, fmt.Errorf("invalid %s transition %d: type %d out of range [0, %d)", name, i, typ, len(data.LocalTimeTypeRecords)))
		}
	}

	// Typecnt
	if header.Typecnt == 0 {
		err = append(err, fmt.Errorf("invalid %s typecnt: must not be zero", name))
	}
	if len(data.LocalTimeTypeRecords) != int(header.Typecnt) {
		err = append(err, fmt.Errorf("invalid %s typecnt: header = %d, data = %d", name, header.Typecnt, len(data.LocalTimeTypeRecords)))
	}

	// Charcnt
	if header.Charcnt == 0 {
		err = append(err, fmt.Errorf("invalid %s charcnt: must not be zero", name))
	}
	if len(data.TimeZoneDesignation) != int(header.Charcnt) {
		err = append(err, fmt.Errorf("invalid %s charcnt: header = %d, data = %d", name, header.Charcnt, len(data.TimeZoneDesignation)))
	}
	if n := len(data.TimeZoneDesignation); n > 0 && data.TimeZoneDesignation[n-1] != 0 {
		err = append(err, fmt.Errorf("invalid %s time zone designations: missing null terminator", name))
	}
	for i, r := range data.LocalTimeTypeRecords {
		if _, e := data.Designation(r.Idx); e != nil {
			err = append(err, fmt.Errorf("invalid %s local time type %d: %w", name, i, e))
		}
	}
	return err
}
