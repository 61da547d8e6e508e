package tablebuilder

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/openstats/tablebuilder/pkg/data"
	"github.com/openstats/tablebuilder/pkg/observation"
	"github.com/openstats/tablebuilder/pkg/timeperiod"
)

// totalLabel is the conventional label of a filter group's all-values item.
const totalLabel = "Total"

// MetaBuilder derives the facet metadata describing an observation set.
// Grouping keys are business ids, never query execution order, so the output
// is deterministic for identical observation sets.
type MetaBuilder struct {
	log   logrus.FieldLogger
	store observation.Store
}

// NewMetaBuilder creates a subject metadata builder over the given store.
func NewMetaBuilder(log logrus.FieldLogger, store observation.Store) *MetaBuilder {
	return &MetaBuilder{
		log:   log.WithField("component", "tablebuilder.meta"),
		store: store,
	}
}

// SubjectMeta builds the facet metadata for the observations matching a
// query: filters grouped by filter group, indicators, locations by level,
// time periods and footnotes.
func (b *MetaBuilder) SubjectMeta(ctx context.Context, q observation.Query, observations []data.Observation) (*SubjectMeta, error) {
	presentItems := distinctFilterItemIDs(observations)

	filters, err := b.filterMeta(ctx, q.SubjectID, presentItems)
	if err != nil {
		return nil, fmt.Errorf("failed to build filter meta: %w", err)
	}

	indicators, err := b.indicatorMeta(ctx, q.SubjectID, q.IndicatorIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build indicator meta: %w", err)
	}

	locations, err := b.locationMeta(ctx, observations, q.IncludeGeoJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to build location meta: %w", err)
	}

	footnotes, err := b.store.FootnotesForSubject(ctx, q.SubjectID, presentItems, q.IndicatorIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to look up footnotes: %w", err)
	}

	footnoteMeta := make([]FootnoteMeta, 0, len(footnotes))
	for _, fn := range footnotes {
		footnoteMeta = append(footnoteMeta, FootnoteMeta{ID: fn.ID, Label: fn.Content})
	}

	return &SubjectMeta{
		Filters:     filters,
		Indicators:  indicators,
		Locations:   locations,
		TimePeriods: timePeriodMeta(observations),
		Footnotes:   footnoteMeta,
	}, nil
}

// filterMeta groups the filter items present in the observation set by their
// owning group and filter. Filters with no present items are omitted.
func (b *MetaBuilder) filterMeta(ctx context.Context, subjectID uuid.UUID, presentItems []int64) (map[string]FilterMeta, error) {
	subjectFilters, err := b.store.FiltersForSubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	present := make(map[int64]bool, len(presentItems))
	for _, id := range presentItems {
		present[id] = true
	}

	filters := make(map[string]FilterMeta)

	for _, filter := range subjectFilters {
		groups := make(map[string]FilterGroupMeta)
		totalValue := ""

		for _, group := range filter.Groups {
			options := make([]LabelValue, 0, len(group.Items))

			for _, item := range group.Items {
				if !present[item.ID] {
					continue
				}

				options = append(options, LabelValue{
					Label: item.Label,
					Value: strconv.FormatInt(item.ID, 10),
				})

				if totalValue == "" && strings.EqualFold(item.Label, totalLabel) {
					totalValue = strconv.FormatInt(item.ID, 10)
				}
			}

			if len(options) == 0 {
				continue
			}

			sort.Slice(options, func(i, j int) bool { return options[i].Label < options[j].Label })

			groups[group.Label] = FilterGroupMeta{Label: group.Label, Options: options}
		}

		if len(groups) == 0 {
			continue
		}

		filters[filter.Label] = FilterMeta{
			Hint:       filter.Hint,
			Legend:     filter.Label,
			Options:    groups,
			TotalValue: totalValue,
		}
	}

	return filters, nil
}

// indicatorMeta returns the requested indicator subset, or every indicator
// defined for the subject when no subset was requested, grouped by indicator
// group label.
func (b *MetaBuilder) indicatorMeta(ctx context.Context, subjectID uuid.UUID, indicatorIDs []int64) (map[string][]IndicatorMeta, error) {
	groups, err := b.store.IndicatorGroupsForSubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	requested := make(map[int64]bool, len(indicatorIDs))
	for _, id := range indicatorIDs {
		requested[id] = true
	}

	indicators := make(map[string][]IndicatorMeta)

	for _, group := range groups {
		var options []IndicatorMeta

		for _, indicator := range group.Indicators {
			if len(requested) > 0 && !requested[indicator.ID] {
				continue
			}

			options = append(options, IndicatorMeta{
				Label: indicator.Label,
				Unit:  indicator.Unit,
				Value: strconv.FormatInt(indicator.ID, 10),
			})
		}

		if len(options) > 0 {
			indicators[group.Label] = options
		}
	}

	return indicators, nil
}

// locationMeta groups the distinct locations in the observation set by
// geographic level, optionally enriching each option with its geoJSON
// boundary (one lookup for all distinct codes).
func (b *MetaBuilder) locationMeta(ctx context.Context, observations []data.Observation, includeGeoJSON bool) (map[string][]LocationMeta, error) {
	type locationKey struct {
		level data.GeographicLevel
		code  string
	}

	seen := make(map[locationKey]bool)
	byLevel := make(map[string][]LocationMeta)

	var codes []string

	for i := range observations {
		level := observations[i].GeographicLevel

		attr := observations[i].Location.AttributeFor(level)
		if attr == nil {
			continue
		}

		key := locationKey{level: level, code: attr.Code}
		if seen[key] {
			continue
		}

		seen[key] = true

		byLevel[string(level)] = append(byLevel[string(level)], LocationMeta{
			Label: attr.Name,
			Value: attr.Code,
		})
		codes = append(codes, attr.Code)
	}

	for level := range byLevel {
		options := byLevel[level]
		sort.Slice(options, func(i, j int) bool { return options[i].Value < options[j].Value })
	}

	if includeGeoJSON && len(codes) > 0 {
		boundaries, err := b.store.BoundariesForCodes(ctx, codes)
		if err != nil {
			return nil, err
		}

		for level, options := range byLevel {
			for i := range options {
				options[i].GeoJSON = boundaries[options[i].Value]
			}

			byLevel[level] = options
		}
	}

	return byLevel, nil
}

// timePeriodMeta returns the distinct time periods present in the observation
// set, ordered by year then identifier rank.
func timePeriodMeta(observations []data.Observation) []TimePeriodMeta {
	seen := make(map[timeperiod.Period]bool)

	var periods []timeperiod.Period

	for i := range observations {
		p := timeperiod.Period{Year: observations[i].Year, Identifier: observations[i].TimeIdentifier}
		if !seen[p] {
			seen[p] = true

			periods = append(periods, p)
		}
	}

	observation.SortPeriods(periods)

	return periodMeta(periods)
}

// periodMeta converts already-ordered periods into their meta options.
func periodMeta(periods []timeperiod.Period) []TimePeriodMeta {
	meta := make([]TimePeriodMeta, 0, len(periods))
	for _, p := range periods {
		meta = append(meta, TimePeriodMeta{
			Year:  p.Year,
			Code:  string(p.Identifier),
			Label: p.Label(),
		})
	}

	return meta
}

// distinctFilterItemIDs collects the distinct filter item ids across an
// observation set, sorted ascending.
func distinctFilterItemIDs(observations []data.Observation) []int64 {
	seen := make(map[int64]bool)

	var ids []int64

	for i := range observations {
		for _, id := range observations[i].FilterItemIDs {
			if !seen[id] {
				seen[id] = true

				ids = append(ids, id)
			}
		}
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}
