package observation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openstats/tablebuilder/pkg/data"
	"github.com/openstats/tablebuilder/pkg/timeperiod"
)

func TestBuildSelectionQuery_SubjectOnly(t *testing.T) {
	subjectID := uuid.New()

	sql, args, err := buildSelectionQuery(SelectionCriteria{SubjectID: subjectID})
	require.NoError(t, err)

	assert.Equal(t, "SELECT o.id FROM observations o WHERE o.subject_id = $1", sql)
	assert.Equal(t, []any{subjectID}, args)
}

func TestBuildSelectionQuery_AllFacets(t *testing.T) {
	subjectID := uuid.New()

	criteria := SelectionCriteria{
		SubjectID:       subjectID,
		GeographicLevel: data.LevelLocalAuthority,
		Periods: []timeperiod.Period{
			{Year: 2016, Identifier: timeperiod.AcademicYear},
			{Year: 2017, Identifier: timeperiod.AcademicYear},
		},
		Locations: LocationQuery{
			LocalAuthorities: []string{"E09000003", "E09000007"},
			Regions:          []string{"E12000007"},
		},
		FilterItemIDs: []int64{1, 72},
	}

	sql, args, err := buildSelectionQuery(criteria)
	require.NoError(t, err)

	// Facet id lists travel as structured array parameters, never as literal
	// IN clauses.
	assert.NotContains(t, sql, "E09000003")
	assert.NotContains(t, sql, "72")

	assert.Contains(t, sql, "o.subject_id = $1")
	assert.Contains(t, sql, "o.geographic_level = $2")
	assert.Contains(t, sql, "(o.year, o.time_identifier) IN (SELECT * FROM unnest($3::int[], $4::text[]))")
	assert.Contains(t, sql, "(o.local_authority_code = ANY($5) OR o.region_code = ANY($6))")
	assert.Contains(t, sql, "ofi.filter_item_id = ANY($7)")
	assert.Contains(t, sql, "WHERE fi2.id = ANY($8)")

	require.Len(t, args, 8)
	assert.Equal(t, []int{2016, 2017}, args[2])
	assert.Equal(t, []string{"AY", "AY"}, args[3])
	assert.Equal(t, []string{"E09000003", "E09000007"}, args[4])
	assert.Equal(t, []string{"E12000007"}, args[5])
	assert.Equal(t, []int64{1, 72}, args[6])
	assert.Equal(t, []int64{1, 72}, args[7])
}

func TestBuildSelectionQuery_EmptyFacetsPlaceNoConstraint(t *testing.T) {
	sql, args, err := buildSelectionQuery(SelectionCriteria{SubjectID: uuid.New()})
	require.NoError(t, err)

	assert.NotContains(t, sql, "geographic_level")
	assert.NotContains(t, sql, "time_identifier")
	assert.NotContains(t, sql, "_code")
	assert.NotContains(t, sql, "filter_item")
	assert.Len(t, args, 1)
}

func TestBuildSelectionQuery_EveryLocationCategory(t *testing.T) {
	locations := LocationQuery{
		Countries:                   []string{"c"},
		Institutions:                []string{"i"},
		LocalAuthorities:            []string{"la"},
		LocalAuthorityDistricts:     []string{"lad"},
		LocalEnterprisePartnerships: []string{"lep"},
		MayoralCombinedAuthorities:  []string{"mca"},
		MultiAcademyTrusts:          []string{"mat"},
		OpportunityAreas:            []string{"oa"},
		ParliamentaryConstituencies: []string{"pc"},
		Regions:                     []string{"r"},
		RSCRegions:                  []string{"rsc"},
		Sponsors:                    []string{"s"},
		Wards:                       []string{"w"},
	}

	sql, args, err := buildSelectionQuery(SelectionCriteria{
		SubjectID: uuid.New(),
		Locations: locations,
	})
	require.NoError(t, err)

	for _, category := range locationCategories {
		assert.Contains(t, sql, "o."+category.column+" = ANY(")
	}

	assert.Len(t, args, 1+len(locationCategories))
}
