package data

import (
	"time"

	"github.com/google/uuid"
	"github.com/openstats/tablebuilder/pkg/timeperiod"
)

// Publication is a series of statistical releases on one topic.
type Publication struct {
	ID    uuid.UUID `json:"id"`
	Slug  string    `json:"slug"`
	Title string    `json:"title"`
}

// Release is one published edition of a publication. Published is nil while
// the release is still in draft.
type Release struct {
	ID            uuid.UUID  `json:"id"`
	PublicationID uuid.UUID  `json:"publicationId"`
	Slug          string     `json:"slug"`
	Published     *time.Time `json:"published,omitempty"`
}

// Subject is a named data set within a release. Observations, filters and
// indicators are all scoped to a subject.
type Subject struct {
	ID        uuid.UUID `json:"id"`
	ReleaseID uuid.UUID `json:"releaseId"`
	Name      string    `json:"name"`
}

// SubjectRelease is the release/publication scope resolved for a subject,
// used to stamp result-level metadata.
type SubjectRelease struct {
	SubjectID       uuid.UUID
	ReleaseID       uuid.UUID
	ReleaseSlug     string
	ReleaseDate     time.Time
	PublicationID   uuid.UUID
	PublicationSlug string
}

// Observation is one fact row: a subject's measurement of a set of indicators
// for one (time period, location, filter item combination). Immutable once
// imported.
type Observation struct {
	ID              int64                 `json:"id"`
	SubjectID       uuid.UUID             `json:"subjectId"`
	GeographicLevel GeographicLevel       `json:"geographicLevel"`
	Location        Location              `json:"location"`
	Year            int                   `json:"year"`
	TimeIdentifier  timeperiod.Identifier `json:"timeIdentifier"`
	FilterItemIDs   []int64               `json:"filterItemIds"`
	Measures        map[int64]string      `json:"measures"`
}

// Filter is the top level of the three-level classification hierarchy used to
// slice observations (e.g. "Characteristic").
type Filter struct {
	ID        int64         `json:"id"`
	SubjectID uuid.UUID     `json:"subjectId"`
	Label     string        `json:"label"`
	Hint      string        `json:"hint"`
	Groups    []FilterGroup `json:"groups"`
}

// FilterGroup groups related filter items under a filter (e.g. "Ethnicity").
type FilterGroup struct {
	ID       int64        `json:"id"`
	FilterID int64        `json:"filterId"`
	Label    string       `json:"label"`
	Items    []FilterItem `json:"items"`
}

// FilterItem is a single selectable classification value (e.g. "Chinese").
// By convention one item per group is labelled "Total".
type FilterItem struct {
	ID      int64  `json:"id"`
	GroupID int64  `json:"groupId"`
	Label   string `json:"label"`
}

// IndicatorGroup groups the indicators defined for a subject.
type IndicatorGroup struct {
	ID         int64       `json:"id"`
	SubjectID  uuid.UUID   `json:"subjectId"`
	Label      string      `json:"label"`
	Indicators []Indicator `json:"indicators"`
}

// Indicator is a named numeric measure column on an observation.
type Indicator struct {
	ID      int64  `json:"id"`
	GroupID int64  `json:"groupId"`
	Label   string `json:"label"`
	Unit    string `json:"unit"`
}

// Footnote is a textual annotation surfaced alongside results. Footnotes
// never filter the result rows.
type Footnote struct {
	ID      int64  `json:"id"`
	Content string `json:"content"`
}
