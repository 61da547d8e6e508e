// Package timeperiod defines the time period identifiers used on the wire
// and expands (start, end) period ranges into the concrete ordered sequence
// of periods they denote.
package timeperiod

import "errors"

// ErrUnknownIdentifier is returned when a code does not name a known time identifier
var ErrUnknownIdentifier = errors.New("unknown time identifier")

// Identifier is the short wire code for a kind of time period (e.g. "AY", "T1")
type Identifier string

// Year-scoped identifiers. A range over one of these emits a single period per year.
const (
	AcademicYear  Identifier = "AY"
	CalendarYear  Identifier = "CY"
	FinancialYear Identifier = "FY"
	TaxYear       Identifier = "TY"
)

// Quarterly identifiers, one family per year kind.
const (
	AcademicYearQ1 Identifier = "AYQ1"
	AcademicYearQ2 Identifier = "AYQ2"
	AcademicYearQ3 Identifier = "AYQ3"
	AcademicYearQ4 Identifier = "AYQ4"

	CalendarYearQ1 Identifier = "CYQ1"
	CalendarYearQ2 Identifier = "CYQ2"
	CalendarYearQ3 Identifier = "CYQ3"
	CalendarYearQ4 Identifier = "CYQ4"

	FinancialYearQ1 Identifier = "FYQ1"
	FinancialYearQ2 Identifier = "FYQ2"
	FinancialYearQ3 Identifier = "FYQ3"
	FinancialYearQ4 Identifier = "FYQ4"

	TaxYearQ1 Identifier = "TYQ1"
	TaxYearQ2 Identifier = "TYQ2"
	TaxYearQ3 Identifier = "TYQ3"
	TaxYearQ4 Identifier = "TYQ4"
)

// School term identifiers.
const (
	AutumnTerm Identifier = "T1"
	SpringTerm Identifier = "T2"
	SummerTerm Identifier = "T3"
)

// Number-of-terms pseudo identifiers. These are not calendar periods in their
// own right; a range over them emits one entry per year, and term-count
// queries expand across all of them (see RangeForNumberOfTerms).
const (
	AutumnSpringTerm Identifier = "T1T2"
	AllTerms         Identifier = "T1T2T3"
)

// Monthly identifiers.
const (
	January   Identifier = "M1"
	February  Identifier = "M2"
	March     Identifier = "M3"
	April     Identifier = "M4"
	May       Identifier = "M5"
	June      Identifier = "M6"
	July      Identifier = "M7"
	August    Identifier = "M8"
	September Identifier = "M9"
	October   Identifier = "M10"
	November  Identifier = "M11"
	December  Identifier = "M12"
)

// details carries per-identifier metadata. Fiscal identifiers label their
// year as a split year ("2016/17") rather than a single calendar year.
type details struct {
	label  string
	fiscal bool
}

//nolint:gochecknoglobals // static identifier table
var identifierDetails = map[Identifier]details{
	AcademicYear:  {label: "Academic year", fiscal: true},
	CalendarYear:  {label: "Calendar year"},
	FinancialYear: {label: "Financial year", fiscal: true},
	TaxYear:       {label: "Tax year", fiscal: true},

	AcademicYearQ1: {label: "Academic year Q1", fiscal: true},
	AcademicYearQ2: {label: "Academic year Q2", fiscal: true},
	AcademicYearQ3: {label: "Academic year Q3", fiscal: true},
	AcademicYearQ4: {label: "Academic year Q4", fiscal: true},

	CalendarYearQ1: {label: "Calendar year Q1"},
	CalendarYearQ2: {label: "Calendar year Q2"},
	CalendarYearQ3: {label: "Calendar year Q3"},
	CalendarYearQ4: {label: "Calendar year Q4"},

	FinancialYearQ1: {label: "Financial year Q1", fiscal: true},
	FinancialYearQ2: {label: "Financial year Q2", fiscal: true},
	FinancialYearQ3: {label: "Financial year Q3", fiscal: true},
	FinancialYearQ4: {label: "Financial year Q4", fiscal: true},

	TaxYearQ1: {label: "Tax year Q1", fiscal: true},
	TaxYearQ2: {label: "Tax year Q2", fiscal: true},
	TaxYearQ3: {label: "Tax year Q3", fiscal: true},
	TaxYearQ4: {label: "Tax year Q4", fiscal: true},

	AutumnTerm: {label: "Autumn term", fiscal: true},
	SpringTerm: {label: "Spring term", fiscal: true},
	SummerTerm: {label: "Summer term", fiscal: true},

	AutumnSpringTerm: {label: "Autumn and spring term", fiscal: true},
	AllTerms:         {label: "Autumn, spring and summer term", fiscal: true},

	January:   {label: "January"},
	February:  {label: "February"},
	March:     {label: "March"},
	April:     {label: "April"},
	May:       {label: "May"},
	June:      {label: "June"},
	July:      {label: "July"},
	August:    {label: "August"},
	September: {label: "September"},
	October:   {label: "October"},
	November:  {label: "November"},
	December:  {label: "December"},
}

// associatedRanges lists the ordered identifier families a multi-code range
// may traverse. Both endpoints of a range must come from the same family.
//
//nolint:gochecknoglobals // static identifier table
var associatedRanges = [][]Identifier{
	{AcademicYearQ1, AcademicYearQ2, AcademicYearQ3, AcademicYearQ4},
	{CalendarYearQ1, CalendarYearQ2, CalendarYearQ3, CalendarYearQ4},
	{FinancialYearQ1, FinancialYearQ2, FinancialYearQ3, FinancialYearQ4},
	{TaxYearQ1, TaxYearQ2, TaxYearQ3, TaxYearQ4},
	{AutumnTerm, SpringTerm, SummerTerm},
	{January, February, March, April, May, June, July, August, September, October, November, December},
}

// numberOfTermsIdentifiers lists the pseudo identifiers expanded by
// RangeForNumberOfTerms, in the order they are emitted.
//
//nolint:gochecknoglobals // static identifier table
var numberOfTermsIdentifiers = []Identifier{AutumnSpringTerm, AllTerms}

// IsValid reports whether the identifier is a known wire code.
func (i Identifier) IsValid() bool {
	_, ok := identifierDetails[i]
	return ok
}

// IsYear reports whether the identifier denotes a whole year of some kind.
func (i Identifier) IsYear() bool {
	switch i {
	case AcademicYear, CalendarYear, FinancialYear, TaxYear:
		return true
	default:
		return false
	}
}

// IsNumberOfTerms reports whether the identifier is a term-count pseudo period.
func (i Identifier) IsNumberOfTerms() bool {
	switch i {
	case AutumnSpringTerm, AllTerms:
		return true
	default:
		return false
	}
}

// Label returns the human readable label for the identifier, or "" if unknown.
func (i Identifier) Label() string {
	return identifierDetails[i].label
}

// associatedRange returns the ordered family the identifier belongs to and
// its index within it.
func associatedRange(i Identifier) (family []Identifier, index int, ok bool) {
	for _, r := range associatedRanges {
		for idx, member := range r {
			if member == i {
				return r, idx, true
			}
		}
	}

	return nil, 0, false
}

// Rank returns the identifier's position within its associated range, or 0
// for year-scoped and term-count identifiers. Used to order periods sharing
// a year.
func (i Identifier) Rank() int {
	if _, idx, ok := associatedRange(i); ok {
		return idx
	}

	return 0
}
