// Package observation selects and hydrates observation rows from the fact
// store. Selection is a single bulk set-membership query returning matching
// primary keys; hydration loads full rows in bounded batches.
package observation

import (
	"github.com/google/uuid"
	"github.com/openstats/tablebuilder/pkg/data"
	"github.com/openstats/tablebuilder/pkg/timeperiod"
)

// TimePeriodQuery is the inclusive time range facet of a query.
type TimePeriodQuery struct {
	StartYear int                   `json:"startYear" validate:"required"`
	StartCode timeperiod.Identifier `json:"startCode" validate:"required"`
	EndYear   int                   `json:"endYear" validate:"required"`
	EndCode   timeperiod.Identifier `json:"endCode" validate:"required"`
}

// LocationQuery holds the requested location codes per geographic category.
// An observation matches when any of its codes appears in any of the lists;
// empty lists place no constraint.
type LocationQuery struct {
	Countries                   []string `json:"countries,omitempty"`
	Institutions                []string `json:"institutions,omitempty"`
	LocalAuthorities            []string `json:"localAuthorities,omitempty"`
	LocalAuthorityDistricts     []string `json:"localAuthorityDistricts,omitempty"`
	LocalEnterprisePartnerships []string `json:"localEnterprisePartnerships,omitempty"`
	MayoralCombinedAuthorities  []string `json:"mayoralCombinedAuthorities,omitempty"`
	MultiAcademyTrusts          []string `json:"multiAcademyTrusts,omitempty"`
	OpportunityAreas            []string `json:"opportunityAreas,omitempty"`
	ParliamentaryConstituencies []string `json:"parliamentaryConstituencies,omitempty"`
	Regions                     []string `json:"regions,omitempty"`
	RSCRegions                  []string `json:"rscRegions,omitempty"`
	Sponsors                    []string `json:"sponsors,omitempty"`
	Wards                       []string `json:"wards,omitempty"`
}

// Query is the wire-facing observation query shared by the ad-hoc table
// builder endpoint and persisted data blocks.
type Query struct {
	SubjectID       uuid.UUID            `json:"subjectId" validate:"required"`
	GeographicLevel data.GeographicLevel `json:"geographicLevel,omitempty"`
	TimePeriod      TimePeriodQuery      `json:"timePeriod" validate:"required"`
	Locations       LocationQuery        `json:"locations"`
	FilterItemIDs   []int64              `json:"filters"`
	IndicatorIDs    []int64              `json:"indicators"`
	IncludeGeoJSON  bool                 `json:"includeGeoJson,omitempty"`
}

// SelectionCriteria is the expanded, store-facing form of a Query: the time
// range has already been turned into concrete periods.
type SelectionCriteria struct {
	SubjectID       uuid.UUID
	GeographicLevel data.GeographicLevel
	Periods         []timeperiod.Period
	Locations       LocationQuery
	FilterItemIDs   []int64
}
