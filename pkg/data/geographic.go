// Package data holds the published-statistics domain model: subjects,
// observations, the filter hierarchy, indicators, locations and footnotes.
// Observations are write-once at import time; everything in this package is
// read-only from the query path's point of view.
package data

// GeographicLevel identifies the geographic granularity of an observation.
type GeographicLevel string

// Geographic levels.
const (
	LevelCountry                    GeographicLevel = "Country"
	LevelInstitution                GeographicLevel = "Institution"
	LevelLocalAuthority             GeographicLevel = "Local Authority"
	LevelLocalAuthorityDistrict     GeographicLevel = "Local Authority District"
	LevelLocalEnterprisePartnership GeographicLevel = "Local Enterprise Partnership"
	LevelMayoralCombinedAuthority   GeographicLevel = "Mayoral Combined Authority"
	LevelMultiAcademyTrust          GeographicLevel = "Multi Academy Trust"
	LevelOpportunityArea            GeographicLevel = "Opportunity Area"
	LevelParliamentaryConstituency  GeographicLevel = "Parliamentary Constituency"
	LevelProvider                   GeographicLevel = "Provider"
	LevelRegion                     GeographicLevel = "Region"
	LevelRSCRegion                  GeographicLevel = "RSC Region"
	LevelSchool                     GeographicLevel = "School"
	LevelSponsor                    GeographicLevel = "Sponsor"
	LevelWard                       GeographicLevel = "Ward"
)

// LocationAttribute is a single named geographic unit, e.g. one region or one
// local authority. OldCode is only populated for levels that carry a legacy
// coding scheme.
type LocationAttribute struct {
	Code    string `json:"code"`
	OldCode string `json:"oldCode,omitempty"`
	Name    string `json:"name"`
}

func (a LocationAttribute) isEmpty() bool {
	return a.Code == "" && a.OldCode == "" && a.Name == ""
}

// Location is the geographic attribute bundle attached to an observation.
// Only the attributes relevant to the observation's level (and its enclosing
// levels) are populated.
type Location struct {
	Country                    *LocationAttribute `json:"country,omitempty"`
	Institution                *LocationAttribute `json:"institution,omitempty"`
	LocalAuthority             *LocationAttribute `json:"localAuthority,omitempty"`
	LocalAuthorityDistrict     *LocationAttribute `json:"localAuthorityDistrict,omitempty"`
	LocalEnterprisePartnership *LocationAttribute `json:"localEnterprisePartnership,omitempty"`
	MayoralCombinedAuthority   *LocationAttribute `json:"mayoralCombinedAuthority,omitempty"`
	MultiAcademyTrust          *LocationAttribute `json:"multiAcademyTrust,omitempty"`
	OpportunityArea            *LocationAttribute `json:"opportunityArea,omitempty"`
	ParliamentaryConstituency  *LocationAttribute `json:"parliamentaryConstituency,omitempty"`
	Provider                   *LocationAttribute `json:"provider,omitempty"`
	Region                     *LocationAttribute `json:"region,omitempty"`
	RSCRegion                  *LocationAttribute `json:"rscRegion,omitempty"`
	School                     *LocationAttribute `json:"school,omitempty"`
	Sponsor                    *LocationAttribute `json:"sponsor,omitempty"`
	Ward                       *LocationAttribute `json:"ward,omitempty"`
}

// attributes returns the level-keyed attribute pointers so normalization and
// lookup share one traversal order.
func (l *Location) attributes() map[GeographicLevel]**LocationAttribute {
	return map[GeographicLevel]**LocationAttribute{
		LevelCountry:                    &l.Country,
		LevelInstitution:                &l.Institution,
		LevelLocalAuthority:             &l.LocalAuthority,
		LevelLocalAuthorityDistrict:     &l.LocalAuthorityDistrict,
		LevelLocalEnterprisePartnership: &l.LocalEnterprisePartnership,
		LevelMayoralCombinedAuthority:   &l.MayoralCombinedAuthority,
		LevelMultiAcademyTrust:          &l.MultiAcademyTrust,
		LevelOpportunityArea:            &l.OpportunityArea,
		LevelParliamentaryConstituency:  &l.ParliamentaryConstituency,
		LevelProvider:                   &l.Provider,
		LevelRegion:                     &l.Region,
		LevelRSCRegion:                  &l.RSCRegion,
		LevelSchool:                     &l.School,
		LevelSponsor:                    &l.Sponsor,
		LevelWard:                       &l.Ward,
	}
}

// Normalize replaces attributes whose values are all empty strings with an
// absent attribute, so callers see null rather than a bundle of "".
func (l *Location) Normalize() {
	for _, attr := range l.attributes() {
		if *attr != nil && (*attr).isEmpty() {
			*attr = nil
		}
	}
}

// AttributeFor returns the attribute describing the given level, or nil if
// the location carries nothing at that level.
func (l *Location) AttributeFor(level GeographicLevel) *LocationAttribute {
	if attr, ok := l.attributes()[level]; ok {
		return *attr
	}

	return nil
}
