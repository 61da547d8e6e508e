// Package tablebuilder shapes selected observations into table-ready results:
// flat result rows plus the facet metadata describing what can be queried.
package tablebuilder

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/openstats/tablebuilder/pkg/data"
)

// ResultShape selects how much of the response is populated.
type ResultShape int

// Result shapes.
const (
	// ShapeTableBuilder is the full response: rows plus complete facet
	// metadata including locations and footnotes.
	ShapeTableBuilder ResultShape = iota
	// ShapeCombined is the lighter legacy response: rows and facet metadata
	// without the per-request location and footnote detail.
	ShapeCombined
)

// ResultRow is one shaped observation: filter item ids, the measures the
// caller asked for, and the stable time period key.
type ResultRow struct {
	Filters         []string             `json:"filters"`
	GeographicLevel data.GeographicLevel `json:"geographicLevel"`
	Location        data.Location        `json:"location"`
	Measures        map[int64]string     `json:"measures"`
	TimePeriod      string               `json:"timePeriod"`
}

// TableResult is the complete query response.
type TableResult struct {
	PublicationID   uuid.UUID            `json:"publicationId"`
	ReleaseID       uuid.UUID            `json:"releaseId"`
	SubjectID       uuid.UUID            `json:"subjectId"`
	ReleaseDate     time.Time            `json:"releaseDate"`
	GeographicLevel data.GeographicLevel `json:"geographicLevel"`
	Results         []ResultRow          `json:"results"`
	Meta            *SubjectMeta         `json:"meta,omitempty"`
}

// LabelValue is a selectable option in facet metadata.
type LabelValue struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// FilterGroupMeta describes one filter group's selectable items.
type FilterGroupMeta struct {
	Label   string       `json:"label"`
	Options []LabelValue `json:"options"`
}

// FilterMeta describes one filter: its groups, hint text and the id of the
// conventional "Total" item ("" when the filter has none).
type FilterMeta struct {
	Hint       string                     `json:"hint"`
	Legend     string                     `json:"legend"`
	Options    map[string]FilterGroupMeta `json:"options"`
	TotalValue string                     `json:"totalValue"`
}

// IndicatorMeta describes one selectable indicator.
type IndicatorMeta struct {
	Label string `json:"label"`
	Unit  string `json:"unit"`
	Value string `json:"value"`
}

// LocationMeta is a selectable location option, optionally carrying its
// geoJSON boundary.
type LocationMeta struct {
	Label   string          `json:"label"`
	Value   string          `json:"value"`
	GeoJSON json.RawMessage `json:"geoJson,omitempty"`
}

// TimePeriodMeta is a selectable time period option.
type TimePeriodMeta struct {
	Year  int    `json:"year"`
	Code  string `json:"code"`
	Label string `json:"label"`
}

// FootnoteMeta is a display-only annotation attached to the result.
type FootnoteMeta struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

// SubjectMeta is the facet metadata for an observation set: what filters,
// indicators, locations and time periods it spans.
type SubjectMeta struct {
	Filters     map[string]FilterMeta      `json:"filters"`
	Indicators  map[string][]IndicatorMeta `json:"indicators"`
	Locations   map[string][]LocationMeta  `json:"locations,omitempty"`
	TimePeriods []TimePeriodMeta           `json:"timePeriod"`
	Footnotes   []FootnoteMeta             `json:"footnotes,omitempty"`
}
