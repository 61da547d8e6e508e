package tablebuilder

import (
	"sort"
	"strconv"

	"github.com/openstats/tablebuilder/pkg/data"
	"github.com/openstats/tablebuilder/pkg/timeperiod"
)

// BuildResult shapes a single observation into a flat result row. When
// indicatorIDs is non-empty the observation's measures are restricted to that
// subset; an empty subset passes every measure through. Pure function, safe
// to call in parallel across observations.
func BuildResult(o data.Observation, indicatorIDs []int64) ResultRow {
	filters := make([]string, 0, len(o.FilterItemIDs))

	sortedItems := make([]int64, len(o.FilterItemIDs))
	copy(sortedItems, o.FilterItemIDs)
	sort.Slice(sortedItems, func(i, j int) bool { return sortedItems[i] < sortedItems[j] })

	for _, id := range sortedItems {
		filters = append(filters, strconv.FormatInt(id, 10))
	}

	measures := make(map[int64]string, len(o.Measures))

	if len(indicatorIDs) > 0 {
		for _, id := range indicatorIDs {
			if value, ok := o.Measures[id]; ok {
				measures[id] = value
			}
		}
	} else {
		for id, value := range o.Measures {
			measures[id] = value
		}
	}

	return ResultRow{
		Filters:         filters,
		GeographicLevel: o.GeographicLevel,
		Location:        o.Location,
		Measures:        measures,
		TimePeriod:      timeperiod.Format(o.Year, o.TimeIdentifier),
	}
}
