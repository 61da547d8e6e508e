package timeperiod

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Static errors for wire format parsing
var (
	ErrInvalidPeriodFormat = errors.New("time period must be of the form YYYY_CODE")
)

// Period is a concrete time period: a four digit year plus an identifier.
type Period struct {
	Year       int        `json:"year"`
	Identifier Identifier `json:"code"`
}

// String returns the wire form of the period, e.g. "2016_AY". This format is
// load-bearing: table and chart consumers key on it, so it must stay stable
// and round-trippable via Parse.
func (p Period) String() string {
	return Format(p.Year, p.Identifier)
}

// Label returns the display label for the period, e.g. "2016/17 Academic year Q1".
func (p Period) Label() string {
	return FormatLabel(p.Year, p.Identifier, YearDefault, IdentifierDefault)
}

// Format renders a (year, identifier) pair in the wire format "YYYY_CODE".
func Format(year int, identifier Identifier) string {
	return fmt.Sprintf("%d_%s", year, identifier)
}

// Parse converts the wire form "YYYY_CODE" back into a Period.
func Parse(s string) (Period, error) {
	yearPart, codePart, found := strings.Cut(s, "_")
	if !found {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriodFormat, s)
	}

	year, err := strconv.Atoi(yearPart)
	if err != nil || !isFourDigitYear(year) {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidYear, yearPart)
	}

	identifier := Identifier(codePart)
	if !identifier.IsValid() {
		return Period{}, fmt.Errorf("%w: %q", ErrUnknownIdentifier, codePart)
	}

	return Period{Year: year, Identifier: identifier}, nil
}

// YearFormat selects how a period's year is rendered in display labels.
type YearFormat int

// Year label formats.
const (
	// YearDefault renders fiscal-style years as a split pair ("2016/17") and
	// everything else as the plain year.
	YearDefault YearFormat = iota
	// YearPlain always renders the single calendar year.
	YearPlain
	// YearNone omits the year.
	YearNone
)

// IdentifierFormat selects how a period's identifier is rendered in display labels.
type IdentifierFormat int

// Identifier label formats.
const (
	// IdentifierDefault appends the identifier's full label.
	IdentifierDefault IdentifierFormat = iota
	// IdentifierNone omits the identifier label.
	IdentifierNone
)

// FormatLabel renders a display label for a period from explicit formatting
// options. Calendar years carry no identifier suffix under IdentifierDefault
// since the year alone is the label.
func FormatLabel(year int, identifier Identifier, yearFmt YearFormat, idFmt IdentifierFormat) string {
	var parts []string

	switch yearFmt {
	case YearDefault:
		if identifierDetails[identifier].fiscal {
			parts = append(parts, fmt.Sprintf("%d/%02d", year, (year+1)%100))
		} else {
			parts = append(parts, strconv.Itoa(year))
		}
	case YearPlain:
		parts = append(parts, strconv.Itoa(year))
	case YearNone:
	}

	if idFmt == IdentifierDefault && identifier != CalendarYear {
		if label := identifier.Label(); label != "" {
			parts = append(parts, label)
		}
	}

	return strings.Join(parts, " ")
}

func isFourDigitYear(year int) bool {
	return year >= 1000 && year <= 9999
}
