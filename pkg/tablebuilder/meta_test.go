package tablebuilder

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openstats/tablebuilder/pkg/data"
	"github.com/openstats/tablebuilder/pkg/observation"
	"github.com/openstats/tablebuilder/pkg/timeperiod"
)

// fakeStore is a canned-response fact store shared by the meta and service
// tests.
type fakeStore struct {
	filters         []data.Filter
	indicatorGroups []data.IndicatorGroup
	footnotes       []data.Footnote
	boundaries      map[string]json.RawMessage
	release         *data.SubjectRelease
	inLatestRelease bool

	boundaryCalls [][]string
}

func (f *fakeStore) SelectObservationIDs(_ context.Context, _ observation.SelectionCriteria) ([]int64, error) {
	return nil, nil
}

func (f *fakeStore) ObservationBatch(_ context.Context, _ []int64) ([]data.Observation, error) {
	return nil, nil
}

func (f *fakeStore) TimePeriodsForSubject(_ context.Context, _ uuid.UUID) ([]timeperiod.Period, error) {
	return nil, nil
}

func (f *fakeStore) FiltersForSubject(_ context.Context, _ uuid.UUID) ([]data.Filter, error) {
	return f.filters, nil
}

func (f *fakeStore) IndicatorGroupsForSubject(_ context.Context, _ uuid.UUID) ([]data.IndicatorGroup, error) {
	return f.indicatorGroups, nil
}

func (f *fakeStore) FootnotesForSubject(_ context.Context, _ uuid.UUID, _, _ []int64) ([]data.Footnote, error) {
	return f.footnotes, nil
}

func (f *fakeStore) BoundariesForCodes(_ context.Context, codes []string) (map[string]json.RawMessage, error) {
	f.boundaryCalls = append(f.boundaryCalls, codes)

	return f.boundaries, nil
}

func (f *fakeStore) SubjectRelease(_ context.Context, _ uuid.UUID) (*data.SubjectRelease, error) {
	if f.release == nil {
		return nil, observation.ErrSubjectNotFound
	}

	return f.release, nil
}

func (f *fakeStore) SubjectInLatestRelease(_ context.Context, _ uuid.UUID) (bool, error) {
	return f.inLatestRelease, nil
}

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	return log
}

func characteristicFilter() data.Filter {
	return data.Filter{
		ID:    1,
		Label: "Characteristic",
		Hint:  "Filter by pupil characteristic",
		Groups: []data.FilterGroup{
			{
				ID:       10,
				FilterID: 1,
				Label:    "Ethnicity",
				Items: []data.FilterItem{
					{ID: 100, GroupID: 10, Label: "Chinese"},
					{ID: 101, GroupID: 10, Label: "White British"},
				},
			},
			{
				ID:       11,
				FilterID: 1,
				Label:    "Gender",
				Items: []data.FilterItem{
					{ID: 110, GroupID: 11, Label: "Male"},
					{ID: 111, GroupID: 11, Label: "Total"},
				},
			},
		},
	}
}

func metaObservations(subjectID uuid.UUID) []data.Observation {
	return []data.Observation{
		{
			ID:              1,
			SubjectID:       subjectID,
			GeographicLevel: data.LevelLocalAuthority,
			Location: data.Location{
				LocalAuthority: &data.LocationAttribute{Code: "E09000003", Name: "Barnet"},
			},
			Year:           2017,
			TimeIdentifier: timeperiod.AcademicYear,
			FilterItemIDs:  []int64{100, 111},
			Measures:       map[int64]string{23: "5"},
		},
		{
			ID:              2,
			SubjectID:       subjectID,
			GeographicLevel: data.LevelLocalAuthority,
			Location: data.Location{
				LocalAuthority: &data.LocationAttribute{Code: "E08000016", Name: "Barnsley"},
			},
			Year:           2016,
			TimeIdentifier: timeperiod.AcademicYear,
			FilterItemIDs:  []int64{101, 111},
			Measures:       map[int64]string{23: "7"},
		},
		{
			// Duplicate location and period, must not duplicate meta options.
			ID:              3,
			SubjectID:       subjectID,
			GeographicLevel: data.LevelLocalAuthority,
			Location: data.Location{
				LocalAuthority: &data.LocationAttribute{Code: "E09000003", Name: "Barnet"},
			},
			Year:           2016,
			TimeIdentifier: timeperiod.AcademicYear,
			FilterItemIDs:  []int64{100, 110},
			Measures:       map[int64]string{23: "9"},
		},
	}
}

func TestSubjectMeta_Filters(t *testing.T) {
	subjectID := uuid.New()
	store := &fakeStore{filters: []data.Filter{characteristicFilter()}}

	builder := NewMetaBuilder(testLogger(), store)

	meta, err := builder.SubjectMeta(context.Background(), observation.Query{SubjectID: subjectID}, metaObservations(subjectID))
	require.NoError(t, err)

	require.Contains(t, meta.Filters, "Characteristic")

	filter := meta.Filters["Characteristic"]
	assert.Equal(t, "Filter by pupil characteristic", filter.Hint)
	assert.Equal(t, "Characteristic", filter.Legend)

	// Item 111 is the group's "Total" entry.
	assert.Equal(t, "111", filter.TotalValue)

	require.Contains(t, filter.Options, "Ethnicity")
	assert.Equal(t, []LabelValue{
		{Label: "Chinese", Value: "100"},
		{Label: "White British", Value: "101"},
	}, filter.Options["Ethnicity"].Options)

	require.Contains(t, filter.Options, "Gender")
	assert.Equal(t, []LabelValue{
		{Label: "Male", Value: "110"},
		{Label: "Total", Value: "111"},
	}, filter.Options["Gender"].Options)
}

func TestSubjectMeta_FiltersOmitAbsentItems(t *testing.T) {
	subjectID := uuid.New()
	store := &fakeStore{filters: []data.Filter{characteristicFilter()}}

	builder := NewMetaBuilder(testLogger(), store)

	// Only the Ethnicity items appear in the observations, so the Gender
	// group (and its Total item) must be left out entirely.
	observations := metaObservations(subjectID)[:1]
	observations[0].FilterItemIDs = []int64{100}

	meta, err := builder.SubjectMeta(context.Background(), observation.Query{SubjectID: subjectID}, observations)
	require.NoError(t, err)

	filter := meta.Filters["Characteristic"]
	assert.NotContains(t, filter.Options, "Gender")
	assert.Empty(t, filter.TotalValue)
}

func TestSubjectMeta_FiltersWithoutPresentItemsAreDropped(t *testing.T) {
	subjectID := uuid.New()
	store := &fakeStore{filters: []data.Filter{characteristicFilter()}}

	builder := NewMetaBuilder(testLogger(), store)

	observations := metaObservations(subjectID)
	for i := range observations {
		observations[i].FilterItemIDs = nil
	}

	meta, err := builder.SubjectMeta(context.Background(), observation.Query{SubjectID: subjectID}, observations)
	require.NoError(t, err)

	assert.Empty(t, meta.Filters)
}

func TestSubjectMeta_Indicators(t *testing.T) {
	subjectID := uuid.New()
	store := &fakeStore{
		indicatorGroups: []data.IndicatorGroup{
			{
				ID:    1,
				Label: "Absence fields",
				Indicators: []data.Indicator{
					{ID: 23, GroupID: 1, Label: "Authorised absence rate", Unit: "%"},
					{ID: 31, GroupID: 1, Label: "Number of sessions", Unit: ""},
				},
			},
		},
	}

	builder := NewMetaBuilder(testLogger(), store)

	t.Run("all indicators when no subset requested", func(t *testing.T) {
		meta, err := builder.SubjectMeta(context.Background(), observation.Query{SubjectID: subjectID}, metaObservations(subjectID))
		require.NoError(t, err)

		require.Contains(t, meta.Indicators, "Absence fields")
		assert.Len(t, meta.Indicators["Absence fields"], 2)
	})

	t.Run("requested subset only", func(t *testing.T) {
		q := observation.Query{SubjectID: subjectID, IndicatorIDs: []int64{23}}

		meta, err := builder.SubjectMeta(context.Background(), q, metaObservations(subjectID))
		require.NoError(t, err)

		require.Len(t, meta.Indicators["Absence fields"], 1)
		assert.Equal(t, IndicatorMeta{Label: "Authorised absence rate", Unit: "%", Value: "23"}, meta.Indicators["Absence fields"][0])
	})
}

func TestSubjectMeta_Locations(t *testing.T) {
	subjectID := uuid.New()
	store := &fakeStore{}

	builder := NewMetaBuilder(testLogger(), store)

	meta, err := builder.SubjectMeta(context.Background(), observation.Query{SubjectID: subjectID}, metaObservations(subjectID))
	require.NoError(t, err)

	require.Contains(t, meta.Locations, string(data.LevelLocalAuthority))

	// Distinct by code, sorted by code, no geoJSON lookup by default.
	assert.Equal(t, []LocationMeta{
		{Label: "Barnsley", Value: "E08000016"},
		{Label: "Barnet", Value: "E09000003"},
	}, meta.Locations[string(data.LevelLocalAuthority)])
	assert.Empty(t, store.boundaryCalls)
}

func TestSubjectMeta_LocationsWithGeoJSON(t *testing.T) {
	subjectID := uuid.New()
	barnet := json.RawMessage(`{"type":"Feature"}`)
	store := &fakeStore{
		boundaries: map[string]json.RawMessage{"E09000003": barnet},
	}

	builder := NewMetaBuilder(testLogger(), store)

	q := observation.Query{SubjectID: subjectID, IncludeGeoJSON: true}

	meta, err := builder.SubjectMeta(context.Background(), q, metaObservations(subjectID))
	require.NoError(t, err)

	// One bulk lookup covering every distinct code.
	require.Len(t, store.boundaryCalls, 1)
	assert.ElementsMatch(t, []string{"E09000003", "E08000016"}, store.boundaryCalls[0])

	options := meta.Locations[string(data.LevelLocalAuthority)]
	require.Len(t, options, 2)
	assert.Nil(t, options[0].GeoJSON)
	assert.Equal(t, barnet, options[1].GeoJSON)
}

func TestSubjectMeta_TimePeriods(t *testing.T) {
	subjectID := uuid.New()
	store := &fakeStore{}

	builder := NewMetaBuilder(testLogger(), store)

	meta, err := builder.SubjectMeta(context.Background(), observation.Query{SubjectID: subjectID}, metaObservations(subjectID))
	require.NoError(t, err)

	assert.Equal(t, []TimePeriodMeta{
		{Year: 2016, Code: "AY", Label: "2016/17 Academic year"},
		{Year: 2017, Code: "AY", Label: "2017/18 Academic year"},
	}, meta.TimePeriods)
}

func TestSubjectMeta_Footnotes(t *testing.T) {
	subjectID := uuid.New()
	store := &fakeStore{
		footnotes: []data.Footnote{
			{ID: 7, Content: "Includes state-funded schools only."},
		},
	}

	builder := NewMetaBuilder(testLogger(), store)

	meta, err := builder.SubjectMeta(context.Background(), observation.Query{SubjectID: subjectID}, metaObservations(subjectID))
	require.NoError(t, err)

	assert.Equal(t, []FootnoteMeta{{ID: 7, Label: "Includes state-funded schools only."}}, meta.Footnotes)
}
