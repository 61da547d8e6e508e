package observation

import (
	sq "github.com/Masterminds/squirrel"
)

// locationCategories maps each location facet of a query onto the indexed
// code column it selects against. Unknown categories cannot occur here; they
// are dropped at the wire boundary, which is the accepted tradeoff for the
// selection query.
//
//nolint:gochecknoglobals // static column mapping
var locationCategories = []struct {
	column string
	codes  func(LocationQuery) []string
}{
	{"country_code", func(l LocationQuery) []string { return l.Countries }},
	{"institution_code", func(l LocationQuery) []string { return l.Institutions }},
	{"local_authority_code", func(l LocationQuery) []string { return l.LocalAuthorities }},
	{"local_authority_district_code", func(l LocationQuery) []string { return l.LocalAuthorityDistricts }},
	{"local_enterprise_partnership_code", func(l LocationQuery) []string { return l.LocalEnterprisePartnerships }},
	{"mayoral_combined_authority_code", func(l LocationQuery) []string { return l.MayoralCombinedAuthorities }},
	{"multi_academy_trust_code", func(l LocationQuery) []string { return l.MultiAcademyTrusts }},
	{"opportunity_area_code", func(l LocationQuery) []string { return l.OpportunityAreas }},
	{"parliamentary_constituency_code", func(l LocationQuery) []string { return l.ParliamentaryConstituencies }},
	{"region_code", func(l LocationQuery) []string { return l.Regions }},
	{"rsc_region_code", func(l LocationQuery) []string { return l.RSCRegions }},
	{"sponsor_code", func(l LocationQuery) []string { return l.Sponsors }},
	{"ward_code", func(l LocationQuery) []string { return l.Wards }},
}

// builder returns a squirrel statement builder using postgres placeholders.
func builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

// buildSelectionQuery renders the bulk set-membership selection: one query
// that pushes every facet down as a structured array parameter and returns
// only the matching observation ids. Id lists never expand into literal IN
// clauses.
func buildSelectionQuery(c SelectionCriteria) (string, []any, error) {
	q := builder().
		Select("o.id").
		From("observations o").
		Where(sq.Eq{"o.subject_id": c.SubjectID})

	if c.GeographicLevel != "" {
		q = q.Where(sq.Eq{"o.geographic_level": c.GeographicLevel})
	}

	if len(c.Periods) > 0 {
		years := make([]int, 0, len(c.Periods))
		codes := make([]string, 0, len(c.Periods))

		for _, p := range c.Periods {
			years = append(years, p.Year)
			codes = append(codes, string(p.Identifier))
		}

		q = q.Where(sq.Expr(
			"(o.year, o.time_identifier) IN (SELECT * FROM unnest(?::int[], ?::text[]))",
			years, codes,
		))
	}

	locationMatch := sq.Or{}

	for _, category := range locationCategories {
		if codes := category.codes(c.Locations); len(codes) > 0 {
			locationMatch = append(locationMatch, sq.Expr("o."+category.column+" = ANY(?)", codes))
		}
	}

	if len(locationMatch) > 0 {
		q = q.Where(locationMatch)
	}

	if len(c.FilterItemIDs) > 0 {
		// An observation matches when, for every filter represented in the
		// requested item list, it carries at least one of the requested items
		// of that filter.
		q = q.Where(sq.Expr(`o.id IN (
			SELECT ofi.observation_id
			FROM observation_filter_items ofi
			JOIN filter_items fi ON fi.id = ofi.filter_item_id
			JOIN filter_groups fg ON fg.id = fi.filter_group_id
			WHERE ofi.filter_item_id = ANY(?)
			GROUP BY ofi.observation_id
			HAVING COUNT(DISTINCT fg.filter_id) = (
				SELECT COUNT(DISTINCT fg2.filter_id)
				FROM filter_items fi2
				JOIN filter_groups fg2 ON fg2.id = fi2.filter_group_id
				WHERE fi2.id = ANY(?)
			)
		)`, c.FilterItemIDs, c.FilterItemIDs))
	}

	return q.ToSql()
}
