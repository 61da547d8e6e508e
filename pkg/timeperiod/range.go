package timeperiod

import (
	"errors"
	"fmt"
)

// Static errors for range validation
var (
	ErrInvalidYear           = errors.New("year must be a four digit value")
	ErrStartAfterEnd         = errors.New("start period must not be after end period")
	ErrMismatchedIdentifiers = errors.New("start and end identifiers do not belong to the same range")
)

// Range expands a (startYear, startCode, endYear, endCode) query into the
// ordered sequence of concrete periods it denotes.
//
// Both years must be four digit values with startYear <= endYear. The two
// codes must be "alike": either the identical year-scoped (or term-count)
// identifier, or two members of the same associated range such as the school
// terms or a quarter family. Year-scoped codes emit one period per year;
// associated-range codes traverse the family in order, clipping the first
// year to startCode and the last year to endCode.
func Range(startYear int, startCode Identifier, endYear int, endCode Identifier) ([]Period, error) {
	if !isFourDigitYear(startYear) {
		return nil, fmt.Errorf("%w: start year %d", ErrInvalidYear, startYear)
	}

	if !isFourDigitYear(endYear) {
		return nil, fmt.Errorf("%w: end year %d", ErrInvalidYear, endYear)
	}

	if startYear > endYear {
		return nil, fmt.Errorf("%w: %d > %d", ErrStartAfterEnd, startYear, endYear)
	}

	if !startCode.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIdentifier, startCode)
	}

	if !endCode.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIdentifier, endCode)
	}

	// Year-scoped and term-count identifiers denote whole years: the range is
	// valid only when both endpoints use the same code, and emits one period
	// per year.
	if startCode.IsYear() || startCode.IsNumberOfTerms() || endCode.IsYear() || endCode.IsNumberOfTerms() {
		if startCode != endCode {
			return nil, fmt.Errorf("%w: %q and %q", ErrMismatchedIdentifiers, startCode, endCode)
		}

		periods := make([]Period, 0, endYear-startYear+1)
		for year := startYear; year <= endYear; year++ {
			periods = append(periods, Period{Year: year, Identifier: startCode})
		}

		return periods, nil
	}

	startFamily, startIdx, ok := associatedRange(startCode)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMismatchedIdentifiers, startCode)
	}

	endFamily, endIdx, ok := associatedRange(endCode)
	if !ok || startFamily[0] != endFamily[0] {
		return nil, fmt.Errorf("%w: %q and %q", ErrMismatchedIdentifiers, startCode, endCode)
	}

	if startYear == endYear && startIdx > endIdx {
		return nil, fmt.Errorf("%w: %q after %q within %d", ErrStartAfterEnd, startCode, endCode, startYear)
	}

	var periods []Period

	for year := startYear; year <= endYear; year++ {
		from, to := 0, len(startFamily)-1
		if year == startYear {
			from = startIdx
		}

		if year == endYear {
			to = endIdx
		}

		for idx := from; idx <= to; idx++ {
			periods = append(periods, Period{Year: year, Identifier: startFamily[idx]})
		}
	}

	return periods, nil
}

// RangeForNumberOfTerms expands a year range across every term-count pseudo
// identifier, concatenating the per-identifier ranges. Used when a query's
// codes are "number of terms" periods rather than literal calendar periods.
func RangeForNumberOfTerms(startYear, endYear int) ([]Period, error) {
	var periods []Period

	for _, identifier := range numberOfTermsIdentifiers {
		expanded, err := Range(startYear, identifier, endYear, identifier)
		if err != nil {
			return nil, err
		}

		periods = append(periods, expanded...)
	}

	return periods, nil
}
