package timeperiod

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRange_AcademicYears(t *testing.T) {
	periods, err := Range(2012, AcademicYear, 2016, AcademicYear)
	require.NoError(t, err)

	expected := []Period{
		{Year: 2012, Identifier: AcademicYear},
		{Year: 2013, Identifier: AcademicYear},
		{Year: 2014, Identifier: AcademicYear},
		{Year: 2015, Identifier: AcademicYear},
		{Year: 2016, Identifier: AcademicYear},
	}
	assert.Equal(t, expected, periods)
}

func TestRange_AssociatedRanges(t *testing.T) {
	tests := []struct {
		name      string
		startYear int
		startCode Identifier
		endYear   int
		endCode   Identifier
		expected  []Period
	}{
		{
			name:      "terms across two years",
			startYear: 2018, startCode: SpringTerm,
			endYear: 2019, endCode: SpringTerm,
			expected: []Period{
				{2018, SpringTerm},
				{2018, SummerTerm},
				{2019, AutumnTerm},
				{2019, SpringTerm},
			},
		},
		{
			name:      "intermediate years emit the full family",
			startYear: 2018, startCode: SummerTerm,
			endYear: 2020, endCode: AutumnTerm,
			expected: []Period{
				{2018, SummerTerm},
				{2019, AutumnTerm},
				{2019, SpringTerm},
				{2019, SummerTerm},
				{2020, AutumnTerm},
			},
		},
		{
			name:      "single year emits the inclusive slice",
			startYear: 2020, startCode: CalendarYearQ2,
			endYear: 2020, endCode: CalendarYearQ4,
			expected: []Period{
				{2020, CalendarYearQ2},
				{2020, CalendarYearQ3},
				{2020, CalendarYearQ4},
			},
		},
		{
			name:      "single quarter",
			startYear: 2017, startCode: FinancialYearQ3,
			endYear: 2017, endCode: FinancialYearQ3,
			expected: []Period{{2017, FinancialYearQ3}},
		},
		{
			name:      "months within a year",
			startYear: 2021, startCode: October,
			endYear: 2021, endCode: December,
			expected: []Period{
				{2021, October},
				{2021, November},
				{2021, December},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			periods, err := Range(tt.startYear, tt.startCode, tt.endYear, tt.endCode)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, periods)
		})
	}
}

func TestRange_Ordering(t *testing.T) {
	// Every valid range must be non-empty, strictly ordered by (year, rank),
	// and anchored on the requested start and end years.
	periods, err := Range(2015, AutumnTerm, 2018, SummerTerm)
	require.NoError(t, err)
	require.NotEmpty(t, periods)

	assert.Equal(t, 2015, periods[0].Year)
	assert.Equal(t, 2018, periods[len(periods)-1].Year)

	for i := 1; i < len(periods); i++ {
		prev, curr := periods[i-1], periods[i]
		if prev.Year == curr.Year {
			assert.Less(t, prev.Identifier.Rank(), curr.Identifier.Rank())
		} else {
			assert.Less(t, prev.Year, curr.Year)
		}
	}
}

func TestRange_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		startYear int
		startCode Identifier
		endYear   int
		endCode   Identifier
		wantErr   error
	}{
		{"start year after end year", 2017, AcademicYear, 2016, AcademicYear, ErrStartAfterEnd},
		{"three digit start year", 999, AcademicYear, 2016, AcademicYear, ErrInvalidYear},
		{"five digit end year", 2016, AcademicYear, 20160, AcademicYear, ErrInvalidYear},
		{"zero start year", 0, CalendarYear, 2016, CalendarYear, ErrInvalidYear},
		{"year code paired with term code", 2016, AcademicYear, 2017, AutumnTerm, ErrMismatchedIdentifiers},
		{"different year kinds", 2016, AcademicYear, 2017, CalendarYear, ErrMismatchedIdentifiers},
		{"quarters from different families", 2016, AcademicYearQ1, 2017, CalendarYearQ2, ErrMismatchedIdentifiers},
		{"term paired with month", 2016, AutumnTerm, 2016, March, ErrMismatchedIdentifiers},
		{"start code after end code within one year", 2016, SummerTerm, 2016, AutumnTerm, ErrStartAfterEnd},
		{"unknown start code", 2016, Identifier("XX"), 2016, AcademicYear, ErrUnknownIdentifier},
		{"unknown end code", 2016, AcademicYear, 2016, Identifier("XX"), ErrUnknownIdentifier},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			periods, err := Range(tt.startYear, tt.startCode, tt.endYear, tt.endCode)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, periods)
		})
	}
}

func TestRangeForNumberOfTerms(t *testing.T) {
	periods, err := RangeForNumberOfTerms(2019, 2020)
	require.NoError(t, err)

	expected := []Period{
		{2019, AutumnSpringTerm},
		{2020, AutumnSpringTerm},
		{2019, AllTerms},
		{2020, AllTerms},
	}
	assert.Equal(t, expected, periods)
}

func TestRangeForNumberOfTerms_InvalidYears(t *testing.T) {
	_, err := RangeForNumberOfTerms(2020, 2019)
	assert.ErrorIs(t, err, ErrStartAfterEnd)
}
